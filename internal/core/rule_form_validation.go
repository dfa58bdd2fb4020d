package core

import (
	"context"

	"vetclinic/pkg/domain"
	"vetclinic/pkg/examination"
)

// NewFormValidationRule re-applies the form field rules to stored payloads so
// clients that skip client-side validation cannot persist incomplete records.
func NewFormValidationRule(rules examination.RuleSet, msgs examination.Messages) domain.Rule {
	return formValidationRule{rules: rules, messages: msgs}
}

type formValidationRule struct {
	rules    examination.RuleSet
	messages examination.Messages
}

func (formValidationRule) Name() string { return "form_validation" }

func (r formValidationRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, exam := range writtenExaminations(changes) {
		validator := examination.NewValidator(nil, r.messages)
		if validator.ValidateForm(examination.NewStore(examination.Record(exam.Payload)), r.rules) {
			continue
		}
		failures := validator.Errors().All()
		for _, path := range sortedKeys(failures) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  failures[path],
				Entity:   domain.EntityExamination,
				EntityID: exam.ID,
				Field:    path,
			})
		}
	}
	return res, nil
}
