package examination

import (
	"strings"
	"unicode"
)

// CustomSelection ties a multi-select list to the flag and text input that
// let the user add a value outside the fixed options.
type CustomSelection struct {
	Section     string
	Field       string
	ShowFlag    string
	CustomField string
}

// CustomSelections lists the multi-select fields with a custom text input.
var CustomSelections = []CustomSelection{
	{Section: SectionVomiting, Field: "vomitContent", ShowFlag: "showCustomVomitContent", CustomField: "customVomitContent"},
	{Section: SectionDiet, Field: "foodType", ShowFlag: "showCustomFoodType", CustomField: "customFoodType"},
}

func (c CustomSelection) listPath() Path { return Path{Key(c.Section), Key(c.Field)} }
func (c CustomSelection) flagPath() Path { return Path{Key(c.Section), Key(c.ShowFlag)} }

func selectionFor(p Path) (CustomSelection, bool) {
	dotted := p.String()
	for _, sel := range CustomSelections {
		if sel.listPath().String() == dotted {
			return sel, true
		}
	}
	return CustomSelection{}, false
}

// JoinSelections is the one-way conversion from a selection list to its
// serialized form. The custom text is appended in place of OtherOption when
// show is set and the text is not blank.
func JoinSelections(selections []string, show bool, custom string) string {
	custom = strings.TrimSpace(custom)
	out := make([]string, 0, len(selections)+1)
	for _, s := range selections {
		if s == OtherOption && show && custom != "" {
			continue
		}
		out = append(out, s)
	}
	if show && custom != "" {
		out = append(out, custom)
	}
	return strings.Join(out, SelectionDelimiter)
}

// IsTransientKey reports whether a section key only drives input widgets:
// show flags, custom text holders, and new-entry templates.
func IsTransientKey(key string) bool {
	for _, prefix := range []string{"showCustom", "custom", "new"} {
		if rest, ok := strings.CutPrefix(key, prefix); ok && rest != "" {
			if r := []rune(rest)[0]; unicode.IsUpper(r) {
				return true
			}
		}
	}
	return false
}

// Transform converts a record into the persistence payload: registered
// custom selections are joined into strings and transient keys are removed
// from every section. The input is not modified. Transform is meant to be
// applied once to a Record; its output is not a valid input.
func Transform(r Record) Payload {
	out := make(Payload, len(r))
	for k, v := range r {
		out[k] = v
	}

	for _, sel := range CustomSelections {
		section, ok := out[sel.Section].(map[string]any)
		if !ok {
			continue
		}
		section = copyMap(section)
		show, _ := section[sel.ShowFlag].(bool)
		custom, _ := section[sel.CustomField].(string)
		if raw, present := section[sel.Field]; present {
			if _, already := raw.(string); !already {
				section[sel.Field] = JoinSelections(stringList(raw), show, custom)
			}
		}
		out[sel.Section] = section
	}

	for key, v := range out {
		section, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if !hasTransient(section) {
			continue
		}
		cleaned := copyMap(section)
		for field := range cleaned {
			if IsTransientKey(field) {
				delete(cleaned, field)
			}
		}
		out[key] = cleaned
	}
	return out
}

func hasTransient(section map[string]any) bool {
	for field := range section {
		if IsTransientKey(field) {
			return true
		}
	}
	return false
}
