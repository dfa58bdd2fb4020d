package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"vetclinic/pkg/domain"
	"vetclinic/pkg/examination"
)

func samplePayload(pet string) examination.Payload {
	return examination.Payload{
		examination.SectionBasicInformation: map[string]any{
			"petName":   pet,
			"ownerName": "Samir",
			"species":   "cat",
		},
		examination.SectionVisitInformation: map[string]any{"visitDate": "2024-03-01"},
	}
}

func TestStoreRunInTransactionAndSnapshots(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	var id string
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindExamination("missing"); ok {
			t.Fatalf("expected missing examination lookup")
		}
		created, err := tx.CreateExamination(domain.Examination{Payload: samplePayload("Fulla")})
		if err != nil {
			return err
		}
		if created.ID == "" {
			t.Fatalf("expected generated ID")
		}
		if created.Revision != 1 || created.PetName != "Fulla" {
			t.Fatalf("expected revision 1 and summary, got %+v", created)
		}
		id = created.ID
		if len(tx.Snapshot().ListExaminations()) != 1 {
			t.Fatalf("snapshot mismatch")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
	if len(store.ListExaminations()) != 1 {
		t.Fatalf("expected persisted examination")
	}
	snapshot := store.ExportState()
	store.ImportState(Snapshot{})
	if len(store.ListExaminations()) != 0 {
		t.Fatalf("expected cleared state")
	}
	store.ImportState(snapshot)
	got, ok := store.GetExamination(id)
	if !ok {
		t.Fatalf("expected restored state")
	}
	if diff := cmp.Diff(snapshot.Examinations[id], got); diff != "" {
		t.Fatalf("restored examination mismatch (-want +got):\n%s", diff)
	}
	if store.RulesEngine() == nil {
		t.Fatalf("expected rules engine")
	}
	if store.NowFunc() == nil {
		t.Fatalf("expected now func")
	}
}

func TestUpdateBumpsRevisionAndKeepsCreatedAt(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store.SetNowFunc(func() time.Time { return clock })

	var created domain.Examination
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateExamination(domain.Examination{Payload: samplePayload("Fulla")})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	clock = clock.Add(time.Hour)
	var updated domain.Examination
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateExamination(created.ID, func(e *domain.Examination) error {
			e.Payload = samplePayload("Fulla Jr")
			e.Revision = 99
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", updated.Revision)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) || !updated.UpdatedAt.Equal(clock) {
		t.Fatalf("unexpected timestamps %+v", updated.Base)
	}
	if updated.PetName != "Fulla Jr" {
		t.Fatalf("expected refreshed summary, got %q", updated.PetName)
	}
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateExamination("missing", func(*domain.Examination) error { return nil })
		return err
	})
	var notFound domain.ErrNotFound
	if !errors.As(err, &notFound) || notFound.ID != "missing" {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := func() error {
		_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
			return tx.DeleteExamination("missing")
		})
		return err
	}(); !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound from delete, got %v", err)
	}
}

func TestMutatorErrorDiscardsTransaction(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	var id string
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		created, err := tx.CreateExamination(domain.Examination{Payload: samplePayload("Fulla")})
		id = created.ID
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateExamination(id, func(e *domain.Examination) error {
			e.Payload = samplePayload("changed")
			return fmt.Errorf("boom")
		})
		return err
	})
	if err == nil {
		t.Fatalf("expected mutator error")
	}
	got, _ := store.GetExamination(id)
	if got.PetName != "Fulla" || got.Revision != 1 {
		t.Fatalf("expected unchanged examination, got %+v", got)
	}
}

func TestDuplicateIDRejected(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	create := func() error {
		_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.CreateExamination(domain.Examination{Base: domain.Base{ID: "fixed"}})
			return err
		})
		return err
	}
	if err := create(); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := create(); err == nil {
		t.Fatalf("expected duplicate ID error")
	}
}

func TestStoreRuleViolation(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	store.RulesEngine().Register(blockingRule{})
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateExamination(domain.Examination{Payload: samplePayload("Fail")})
		return e
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if len(store.ListExaminations()) != 0 {
		t.Fatalf("blocked transaction must not commit")
	}
}

func TestRulesSeeStagedChanges(t *testing.T) {
	engine := domain.NewRulesEngine()
	rule := &recordingRule{}
	engine.Register(rule)
	store := NewStore(engine)
	res, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateExamination(domain.Examination{Payload: samplePayload("Fulla")})
		return e
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Severity != domain.SeverityWarn {
		t.Fatalf("expected warning to be returned, got %+v", res)
	}
	if rule.seen != 1 || rule.changes != 1 {
		t.Fatalf("expected rule to see staged examination and change, got %+v", rule)
	}
}

func TestViewAndListOrdering(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, pet := range []string{"b", "a", "c"} {
		at := base.Add(time.Duration(i) * time.Minute)
		store.SetNowFunc(func() time.Time { return at })
		if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.CreateExamination(domain.Examination{Payload: samplePayload(pet)})
			return err
		}); err != nil {
			t.Fatalf("create %s: %v", pet, err)
		}
	}
	err := store.View(ctx, func(view domain.TransactionView) error {
		list := view.ListExaminations()
		var pets []string
		for _, e := range list {
			pets = append(pets, e.PetName)
		}
		if diff := cmp.Diff([]string{"b", "a", "c"}, pets); diff != "" {
			t.Fatalf("unexpected order (-want +got):\n%s", diff)
		}
		list[0].Payload[examination.SectionBasicInformation] = nil
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if store.ListExaminations()[0].PetName != "b" {
		t.Fatalf("view mutation leaked into store")
	}
}

func TestImportStateMigratesRecords(t *testing.T) {
	store := NewStore(nil)
	created := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	store.ImportState(Snapshot{Examinations: map[string]domain.Examination{
		"e1": {Base: domain.Base{ID: "stale", CreatedAt: created}, Payload: samplePayload("Fulla")},
		"":   {Payload: samplePayload("dropped")},
	}})
	list := store.ListExaminations()
	if len(list) != 1 {
		t.Fatalf("expected one migrated record, got %d", len(list))
	}
	got := list[0]
	if got.ID != "e1" || got.Revision != 1 || got.PetName != "Fulla" || !got.UpdatedAt.Equal(created) {
		t.Fatalf("unexpected migrated record %+v", got)
	}
}

func TestDeleteExamination(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	var id string
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		created, err := tx.CreateExamination(domain.Examination{})
		id = created.ID
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteExamination(id)
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := store.GetExamination(id); ok {
		t.Fatalf("expected examination to be deleted")
	}
}

type blockingRule struct{}

func (blockingRule) Name() string { return "block" }

func (blockingRule) Evaluate(context.Context, domain.RuleView, []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{Rule: "block", Severity: domain.SeverityBlock}}}, nil
}

type recordingRule struct {
	seen    int
	changes int
}

func (r *recordingRule) Name() string { return "recording" }

func (r *recordingRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	r.seen = len(view.ListExaminations())
	r.changes = len(changes)
	return domain.Result{Violations: []domain.Violation{{Rule: "recording", Severity: domain.SeverityWarn}}}, nil
}
