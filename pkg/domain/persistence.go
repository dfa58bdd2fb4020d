package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateExamination(Examination) (Examination, error)
	UpdateExamination(id string, mutator func(*Examination) error) (Examination, error)
	DeleteExamination(id string) error
	FindExamination(id string) (Examination, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListExaminations() []Examination
	FindExamination(id string) (Examination, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetExamination(id string) (Examination, bool)
	ListExaminations() []Examination
}
