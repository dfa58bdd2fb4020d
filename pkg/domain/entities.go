// Package domain defines the persistent examination entity, the change and
// violation records produced by transactions, and the rule evaluation
// primitives used by vetclinic.
package domain

import (
	"fmt"
	"strconv"
	"time"

	"vetclinic/pkg/examination"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityExamination identifies a submitted examination payload.
	EntityExamination EntityType = "examination"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Examination is a stored examination. Payload is the transformed submission
// exactly as received; the summary fields are derived from it on every write.
type Examination struct {
	Base
	PetName   string              `json:"pet_name"`
	OwnerName string              `json:"owner_name"`
	Species   string              `json:"species"`
	VisitDate string              `json:"visit_date"`
	Revision  int                 `json:"revision"`
	Payload   examination.Payload `json:"payload"`
}

// Summarize refreshes the summary fields from the payload.
func (e *Examination) Summarize() {
	rec := examination.Record(e.Payload)
	e.PetName = leafText(rec, examination.PathPetName)
	e.OwnerName = leafText(rec, examination.PathOwnerName)
	e.Species = leafText(rec, examination.PathSpecies)
	e.VisitDate = leafText(rec, examination.PathVisitDate)
}

// Clone returns a deep copy of the examination.
func (e Examination) Clone() Examination {
	e.Payload = e.Payload.Clone()
	return e
}

func leafText(r examination.Record, p examination.Path) string {
	v, _ := examination.Get(r, p)
	switch typed := v.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation. Field is the dotted payload
// path the violation refers to, when there is one.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity,omitempty"`
	EntityID string     `json:"entity_id,omitempty"`
	Field    string     `json:"field,omitempty"`
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation `json:"violations"`
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

// ErrNotFound is returned when a referenced record does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
