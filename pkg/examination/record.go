// Package examination models a veterinary examination form: the nested record,
// path-based access and mutation, typed field-change handlers, declarative
// validation, and the transform that produces the persistence payload.
package examination

import "strings"

// Record is the in-memory examination tree edited by a form session.
// Sections are map[string]any; leaves are "" or nil (unset), bool, float64,
// string, []string (multi-select) or []any of map[string]any (repeatable entries).
type Record map[string]any

// Payload is the submission shape produced by Transform. It is kept distinct
// from Record so the two lifecycle stages cannot be mixed up.
type Payload map[string]any

// Section names of the examination record.
const (
	SectionBasicInformation   = "basicInformation"
	SectionVisitInformation   = "visitInformation"
	SectionReproductiveCycle  = "reproductiveCycle"
	SectionEnvironment        = "environment"
	SectionDiet               = "diet"
	SectionVomiting           = "vomiting"
	SectionConvulsions        = "convulsions"
	SectionCough              = "cough"
	SectionSneezing           = "sneezing"
	SectionUrination          = "urination"
	SectionDischarges         = "discharges"
	SectionOtherConditions    = "otherConditions"
	SectionPreviousConditions = "previousConditions"
	SectionTreatment          = "treatment"
	SectionDiagnosis          = "diagnosis"
)

// Top-level scalar fields that are not sections.
const (
	FieldFollowUpDays = "followUpDays"
	FieldFollowUpDate = "followUpDate"
)

// Sections lists every section in display order.
var Sections = []string{
	SectionBasicInformation,
	SectionVisitInformation,
	SectionReproductiveCycle,
	SectionEnvironment,
	SectionDiet,
	SectionVomiting,
	SectionConvulsions,
	SectionCough,
	SectionSneezing,
	SectionUrination,
	SectionDischarges,
	SectionOtherConditions,
	SectionPreviousConditions,
	SectionTreatment,
	SectionDiagnosis,
}

// OtherOption is the multi-select value that reveals a custom text input.
const OtherOption = "other"

// SelectionDelimiter joins multi-select values in the payload.
const SelectionDelimiter = ", "

func initialShape() Record {
	return Record{
		SectionBasicInformation: map[string]any{
			"petName":    "",
			"ownerName":  "",
			"ownerPhone": "",
			"species":    "",
			"breed":      "",
			"sex":        "",
			"color":      "",
			"microchip":  "",
			"age":        "",
			"weight":     "",
		},
		SectionVisitInformation: map[string]any{
			"visitDate":    "",
			"visitReason":  "",
			"veterinarian": "",
			"isEmergency":  false,
		},
		SectionReproductiveCycle: map[string]any{
			"isNeutered":     false,
			"lastHeatDate":   "",
			"isPregnant":     false,
			"numberOfBirths": "",
		},
		SectionEnvironment: map[string]any{
			"livingEnvironment": "",
			"hasOtherAnimals":   false,
			"animals":           []any{},
			"newAnimal":         map[string]any{"type": "", "count": ""},
			"vaccines":          []any{},
			"newVaccine":        map[string]any{"name": "", "date": ""},
			"wormPills":         []any{},
			"newWormPill":       map[string]any{"name": "", "date": ""},
			"insecticides":      []any{},
			"newInsecticide":    map[string]any{"name": "", "date": ""},
		},
		SectionDiet: map[string]any{
			"foodType":           []string{},
			"showCustomFoodType": false,
			"customFoodType":     "",
			"mealsPerDay":        "",
			"appetite":           "",
			"waterIntake":        "",
		},
		SectionVomiting: map[string]any{
			"hasVomiting":            false,
			"frequency":              "",
			"vomitContent":           []string{},
			"showCustomVomitContent": false,
			"customVomitContent":     "",
			"duration":               "",
		},
		SectionConvulsions: map[string]any{
			"hasConvulsions":  false,
			"frequency":       "",
			"duration":        "",
			"lastEpisodeDate": "",
		},
		SectionCough: map[string]any{
			"hasCough":  false,
			"coughType": "",
			"duration":  "",
		},
		SectionSneezing: map[string]any{
			"hasSneezing":    false,
			"frequency":      "",
			"nasalDischarge": "",
		},
		SectionUrination: map[string]any{
			"frequency":  "",
			"color":      "",
			"hasBlood":   false,
			"difficulty": false,
		},
		SectionDischarges: map[string]any{
			"eye":     []string{},
			"nose":    []string{},
			"ear":     []string{},
			"vaginal": []string{},
		},
		SectionOtherConditions: map[string]any{
			"symptoms": []string{},
			"notes":    "",
		},
		SectionPreviousConditions: map[string]any{
			"conditions":   []any{},
			"newCondition": map[string]any{"name": "", "date": "", "notes": ""},
		},
		SectionTreatment: map[string]any{
			"treatments": []any{},
			"newTreatment": map[string]any{
				"medicine":             "",
				"dosage":               "",
				"administrationMethod": "",
				"duration":             "",
			},
		},
		SectionDiagnosis: map[string]any{
			"primaryDiagnosis": "",
			"notes":            "",
		},
		FieldFollowUpDays: "",
		FieldFollowUpDate: "",
	}
}

// NewRecord returns a fresh copy of the default initial shape.
func NewRecord() Record {
	return initialShape()
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return Record(cloneMap(r))
}

// Clone returns a deep copy of p.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	return Payload(cloneMap(p))
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneMap(typed)
	case Record:
		return cloneMap(typed)
	case Payload:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string{}, typed...)
	default:
		return v
	}
}

// IsUnset reports whether v is the "no value entered" sentinel.
func IsUnset(v any) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	default:
		return false
	}
}

// Hydrate builds an editable Record from a previously stored payload. The
// payload is merged over the initial shape, registered multi-select fields
// stored as delimited strings are split back into lists, and JSON-decoded
// []any string lists become []string.
func Hydrate(p Payload) Record {
	rec := NewRecord()
	for key, value := range p {
		section, isSection := rec[key].(map[string]any)
		incoming, isMap := value.(map[string]any)
		if !isSection || !isMap {
			rec[key] = cloneValue(value)
			continue
		}
		for field, v := range incoming {
			section[field] = hydrateLeaf(section[field], cloneValue(v))
		}
	}
	return rec
}

func hydrateLeaf(initial, value any) any {
	if _, wantsList := initial.([]string); !wantsList {
		return value
	}
	switch typed := value.(type) {
	case string:
		return splitSelections(typed)
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case nil:
		return []string{}
	default:
		return value
	}
}

func splitSelections(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, strings.TrimSpace(SelectionDelimiter)) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
