package examination

// Paths of frequently addressed fields.
var (
	PathPetName            = MustPath("basicInformation.petName")
	PathOwnerName          = MustPath("basicInformation.ownerName")
	PathOwnerPhone         = MustPath("basicInformation.ownerPhone")
	PathSpecies            = MustPath("basicInformation.species")
	PathWeight             = MustPath("basicInformation.weight")
	PathAge                = MustPath("basicInformation.age")
	PathVisitDate          = MustPath("visitInformation.visitDate")
	PathVisitReason        = MustPath("visitInformation.visitReason")
	PathIsEmergency        = MustPath("visitInformation.isEmergency")
	PathFoodType           = MustPath("diet.foodType")
	PathCustomFoodType     = MustPath("diet.customFoodType")
	PathHasVomiting        = MustPath("vomiting.hasVomiting")
	PathVomitContent       = MustPath("vomiting.vomitContent")
	PathCustomVomitContent = MustPath("vomiting.customVomitContent")
	PathPrimaryDiagnosis   = MustPath("diagnosis.primaryDiagnosis")
	PathFollowUpDays       = MustPath(FieldFollowUpDays)
	PathFollowUpDate       = MustPath(FieldFollowUpDate)
)
