package core

import (
	"context"
	"fmt"
	"sort"

	"vetclinic/pkg/domain"
	"vetclinic/pkg/examination"
)

// NewTransientFieldsRule rejects payloads that still carry widget-only keys
// such as show flags, custom text holders or new-entry templates.
func NewTransientFieldsRule() domain.Rule {
	return transientFieldsRule{}
}

type transientFieldsRule struct{}

func (transientFieldsRule) Name() string { return "transient_fields" }

func (r transientFieldsRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, exam := range writtenExaminations(changes) {
		for _, section := range sortedKeys(map[string]any(exam.Payload)) {
			fields, ok := exam.Payload[section].(map[string]any)
			if !ok {
				continue
			}
			for _, key := range sortedKeys(fields) {
				if !examination.IsTransientKey(key) {
					continue
				}
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     r.Name(),
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("examination %s carries transient field %s.%s", exam.ID, section, key),
					Entity:   domain.EntityExamination,
					EntityID: exam.ID,
					Field:    section + "." + key,
				})
			}
		}
	}
	return res, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
