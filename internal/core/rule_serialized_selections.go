package core

import (
	"context"
	"fmt"

	"vetclinic/pkg/domain"
	"vetclinic/pkg/examination"
)

// NewSerializedSelectionsRule requires multi-selects with a custom "other"
// option to be stored as delimited strings.
func NewSerializedSelectionsRule() domain.Rule {
	return serializedSelectionsRule{}
}

type serializedSelectionsRule struct{}

func (serializedSelectionsRule) Name() string { return "serialized_selections" }

func (r serializedSelectionsRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, exam := range writtenExaminations(changes) {
		record := examination.Record(exam.Payload)
		for _, sel := range examination.CustomSelections {
			path := sel.Section + "." + sel.Field
			value, ok := examination.Get(record, examination.ParsePath(path))
			if !ok || value == nil {
				continue
			}
			if _, isString := value.(string); isString {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("examination %s: %s must be a %q separated string, got %T", exam.ID, path, examination.SelectionDelimiter, value),
				Entity:   domain.EntityExamination,
				EntityID: exam.ID,
				Field:    path,
			})
		}
	}
	return res, nil
}
