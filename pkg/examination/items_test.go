package examination

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"
)

func TestAppendItemValidDraft(t *testing.T) {
	s := NewStore(nil)
	msgs := NewMessages(language.English)
	s.Update(MustPath("environment.newVaccine.name"), "rabies")
	s.Update(MustPath("environment.newVaccine.date"), "2024-02-01")

	errs, err := AppendItem(s, ItemVaccine, msgs)
	if err != nil || len(errs) != 0 {
		t.Fatalf("append failed: %v %v", errs, err)
	}
	list, _ := s.Read(MustPath("environment.vaccines"))
	want := []any{map[string]any{"name": "rabies", "date": "2024-02-01"}}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Fatalf("vaccines (-want +got):\n%s", diff)
	}
	draft, _ := s.Read(MustPath("environment.newVaccine"))
	if diff := cmp.Diff(map[string]any{"name": "", "date": ""}, draft); diff != "" {
		t.Fatalf("draft not cleared (-want +got):\n%s", diff)
	}
}

func TestAppendItemNotifiesFinalStateOnly(t *testing.T) {
	s := NewStore(nil)
	s.Update(MustPath("environment.newVaccine.name"), "rabies")
	s.Update(MustPath("environment.newVaccine.date"), "2024-02-01")

	var drafts []any
	s.Subscribe(func(r Record) {
		d, _ := Get(r, MustPath("environment.newVaccine.name"))
		drafts = append(drafts, d)
	})
	if errs, err := AppendItem(s, ItemVaccine, NewMessages(language.English)); err != nil || len(errs) != 0 {
		t.Fatalf("append failed: %v %v", errs, err)
	}
	if diff := cmp.Diff([]any{""}, drafts); diff != "" {
		t.Fatalf("observed drafts (-want +got):\n%s", diff)
	}
}

func TestAppendItemRejectsIncompleteDraft(t *testing.T) {
	s := NewStore(nil)
	msgs := NewMessages(language.English)
	s.Update(MustPath("treatment.newTreatment.medicine"), "amoxicillin")

	errs, err := AppendItem(s, ItemTreatment, msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ItemErrors{"dosage": msgs.Required(), "administrationMethod": msgs.Required()}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("item errors (-want +got):\n%s", diff)
	}
	list, _ := s.Read(MustPath("treatment.treatments"))
	if l, _ := list.([]any); len(l) != 0 {
		t.Fatalf("list must be unchanged, got %v", list)
	}
	if got, _ := s.Read(MustPath("treatment.newTreatment.medicine")); got != "amoxicillin" {
		t.Fatalf("draft must be kept on failure, got %v", got)
	}
}

func TestAppendItemUnknownKind(t *testing.T) {
	if _, err := AppendItem(NewStore(nil), ItemKind("pony"), Messages{}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if err := RemoveItem(NewStore(nil), ItemKind("pony"), 0); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestRemoveItem(t *testing.T) {
	s := NewStore(nil)
	s.Update(MustPath("environment.animals"), []any{
		map[string]any{"type": "dog", "count": "1"},
		map[string]any{"type": "cat", "count": "2"},
		map[string]any{"type": "bird", "count": "3"},
	})
	if err := RemoveItem(s, ItemAnimal, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := RemoveItem(s, ItemAnimal, 7); err != nil {
		t.Fatalf("out of range remove: %v", err)
	}
	got, _ := s.Read(MustPath("environment.animals"))
	want := []any{
		map[string]any{"type": "dog", "count": "1"},
		map[string]any{"type": "bird", "count": "3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("animals (-want +got):\n%s", diff)
	}
}

func TestFormAppendItemLeavesFieldErrors(t *testing.T) {
	f := NewForm(WithMessages(NewMessages(language.English)))
	f.Errors().Set(PathPetName, "required")
	errs, err := f.AppendItem(ItemPreviousCondition)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 2 {
		t.Fatalf("expected name and date errors, got %v", errs)
	}
	all := f.Errors().All()
	if diff := cmp.Diff(map[string]string{PathPetName.String(): "required"}, all); diff != "" {
		t.Fatalf("form errors changed (-want +got):\n%s", diff)
	}
}

func TestItemSchemasPointAtInitialShape(t *testing.T) {
	r := NewRecord()
	for kind, schema := range itemSchemas {
		draft, ok := Get(r, schema.Template)
		if !ok {
			t.Fatalf("%s template missing", kind)
		}
		fields, _ := draft.(map[string]any)
		for _, req := range schema.Required {
			if _, ok := fields[req]; !ok {
				t.Fatalf("%s template lacks %s", kind, req)
			}
		}
		if _, ok := Get(r, schema.List); !ok {
			t.Fatalf("%s list missing", kind)
		}
	}
}
