// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vetclinic/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Examination aliases domain.Examination for in-memory persistence operations.
	Examination = domain.Examination
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	examinations map[string]Examination
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Examinations map[string]Examination `json:"examinations"`
}

func newMemoryState() memoryState {
	return memoryState{examinations: make(map[string]Examination)}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{Examinations: make(map[string]Examination, len(state.examinations))}
	for k, v := range state.examinations {
		s.Examinations[k] = v.Clone()
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Examinations {
		state.examinations[k] = v.Clone()
	}
	return state
}

// migrateSnapshot normalises persisted records written by older builds:
// keys win over embedded IDs, summaries are rebuilt from the payload and
// every record carries at least revision 1.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	out := Snapshot{Examinations: make(map[string]Examination, len(snapshot.Examinations))}
	for id, exam := range snapshot.Examinations {
		if id == "" {
			continue
		}
		exam.ID = id
		if exam.Revision < 1 {
			exam.Revision = 1
		}
		if exam.UpdatedAt.IsZero() {
			exam.UpdatedAt = exam.CreatedAt
		}
		exam.Summarize()
		out.Examinations[id] = exam
	}
	return out
}

func (s memoryState) clone() memoryState {
	return memoryStateFromSnapshot(Snapshot{Examinations: s.examinations})
}

func sortedExaminations(m map[string]Examination) []Examination {
	out := make([]Examination, 0, len(m))
	for _, e := range m {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Store is an in-memory transactional store that enforces domain rules.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc replaces the time provider. A nil function restores the wall clock.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		fn = func() time.Time { return time.Now().UTC() }
	}
	s.nowFn = fn
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListExaminations() []Examination {
	return sortedExaminations(v.state.examinations)
}

func (v transactionView) FindExamination(id string) (Examination, bool) {
	e, ok := v.state.examinations[id]
	if !ok {
		return Examination{}, false
	}
	return e.Clone(), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Rules are evaluated against the staged state before commit; blocking
// violations discard the transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindExamination exposes examination lookup within the transaction scope.
func (tx *transaction) FindExamination(id string) (Examination, bool) {
	e, ok := tx.state.examinations[id]
	if !ok {
		return Examination{}, false
	}
	return e.Clone(), true
}

// CreateExamination stores a new examination at revision 1.
func (tx *transaction) CreateExamination(e Examination) (Examination, error) {
	if e.ID == "" {
		e.ID = tx.store.newID()
	}
	if _, exists := tx.state.examinations[e.ID]; exists {
		return Examination{}, fmt.Errorf("examination %q already exists", e.ID)
	}
	e.CreatedAt = tx.now
	e.UpdatedAt = tx.now
	e.Revision = 1
	e.Summarize()
	tx.state.examinations[e.ID] = e.Clone()
	tx.recordChange(Change{Entity: domain.EntityExamination, Action: domain.ActionCreate, After: e.Clone()})
	return e.Clone(), nil
}

// UpdateExamination mutates an examination and bumps its revision.
func (tx *transaction) UpdateExamination(id string, mutator func(*Examination) error) (Examination, error) {
	current, ok := tx.state.examinations[id]
	if !ok {
		return Examination{}, domain.ErrNotFound{Entity: domain.EntityExamination, ID: id}
	}
	before := current.Clone()
	current = current.Clone()
	if err := mutator(&current); err != nil {
		return Examination{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	current.Revision = before.Revision + 1
	current.Summarize()
	tx.state.examinations[id] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityExamination, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeleteExamination removes an examination from the transaction state.
func (tx *transaction) DeleteExamination(id string) error {
	current, ok := tx.state.examinations[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityExamination, ID: id}
	}
	delete(tx.state.examinations, id)
	tx.recordChange(Change{Entity: domain.EntityExamination, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// GetExamination retrieves an examination by ID from committed state.
func (s *Store) GetExamination(id string) (Examination, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.state.examinations[id]
	if !ok {
		return Examination{}, false
	}
	return e.Clone(), true
}

// ListExaminations returns committed examinations ordered by creation time.
func (s *Store) ListExaminations() []Examination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedExaminations(s.state.examinations)
}
