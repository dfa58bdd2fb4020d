package examination

import "fmt"

// ItemKind names a repeatable sub-record.
type ItemKind string

// Repeatable entry kinds.
const (
	ItemVaccine           ItemKind = "vaccine"
	ItemWormPill          ItemKind = "wormPill"
	ItemInsecticide       ItemKind = "insecticide"
	ItemAnimal            ItemKind = "animal"
	ItemTreatment         ItemKind = "treatment"
	ItemPreviousCondition ItemKind = "previousCondition"
)

// ItemSchema describes where an entry kind is drafted, where it is appended,
// and which of its fields must be filled first.
type ItemSchema struct {
	Kind     ItemKind
	Template Path
	List     Path
	Required []string
}

var itemSchemas = map[ItemKind]ItemSchema{
	ItemVaccine: {
		Kind:     ItemVaccine,
		Template: MustPath("environment.newVaccine"),
		List:     MustPath("environment.vaccines"),
		Required: []string{"name", "date"},
	},
	ItemWormPill: {
		Kind:     ItemWormPill,
		Template: MustPath("environment.newWormPill"),
		List:     MustPath("environment.wormPills"),
		Required: []string{"name", "date"},
	},
	ItemInsecticide: {
		Kind:     ItemInsecticide,
		Template: MustPath("environment.newInsecticide"),
		List:     MustPath("environment.insecticides"),
		Required: []string{"name", "date"},
	},
	ItemAnimal: {
		Kind:     ItemAnimal,
		Template: MustPath("environment.newAnimal"),
		List:     MustPath("environment.animals"),
		Required: []string{"type"},
	},
	ItemTreatment: {
		Kind:     ItemTreatment,
		Template: MustPath("treatment.newTreatment"),
		List:     MustPath("treatment.treatments"),
		Required: []string{"medicine", "dosage", "administrationMethod"},
	},
	ItemPreviousCondition: {
		Kind:     ItemPreviousCondition,
		Template: MustPath("previousConditions.newCondition"),
		List:     MustPath("previousConditions.conditions"),
		Required: []string{"name", "date"},
	},
}

// SchemaFor returns the schema registered for kind.
func SchemaFor(kind ItemKind) (ItemSchema, bool) {
	s, ok := itemSchemas[kind]
	return s, ok
}

// ItemErrors maps an entry's field names to messages.
type ItemErrors map[string]string

// ValidateItem checks item against the schema's required fields.
func ValidateItem(schema ItemSchema, item map[string]any, msgs Messages) ItemErrors {
	errs := ItemErrors{}
	for _, field := range schema.Required {
		if isEmpty(item[field]) {
			errs[field] = msgs.Required()
		}
	}
	return errs
}

// AppendItem validates the drafted entry for kind and, when it passes,
// appends a copy to its list and clears the draft. The form's ErrorMap is
// not consulted or modified.
func AppendItem(s *Store, kind ItemKind, msgs Messages) (ItemErrors, error) {
	schema, ok := SchemaFor(kind)
	if !ok {
		return nil, fmt.Errorf("examination: unknown item kind %q", kind)
	}
	raw, _ := s.Read(schema.Template)
	draft, _ := raw.(map[string]any)
	if errs := ValidateItem(schema, draft, msgs); len(errs) > 0 {
		return errs, nil
	}

	current, _ := s.Read(schema.List)
	list, _ := current.([]any)
	next := make([]any, 0, len(list)+1)
	next = append(next, list...)
	next = append(next, cloneMap(draft))
	s.UpdateMany(
		FieldUpdate{Path: schema.List, Value: next},
		FieldUpdate{Path: schema.Template, Value: blankDraft(draft)},
	)
	return nil, nil
}

func blankDraft(draft map[string]any) map[string]any {
	out := make(map[string]any, len(draft))
	for k := range draft {
		out[k] = ""
	}
	return out
}

// RemoveItem deletes the entry at index from kind's list. Out-of-range
// indexes leave the list unchanged.
func RemoveItem(s *Store, kind ItemKind, index int) error {
	schema, ok := SchemaFor(kind)
	if !ok {
		return fmt.Errorf("examination: unknown item kind %q", kind)
	}
	current, _ := s.Read(schema.List)
	list, _ := current.([]any)
	if index < 0 || index >= len(list) {
		return nil
	}
	next := make([]any, 0, len(list)-1)
	next = append(next, list[:index]...)
	next = append(next, list[index+1:]...)
	s.Update(schema.List, next)
	return nil
}
