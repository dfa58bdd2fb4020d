package core

import (
	"vetclinic/pkg/domain"
	"vetclinic/pkg/examination"
)

// RuleOptions configures the built-in policy set.
type RuleOptions struct {
	// FormRules are re-checked against every stored payload. Empty disables the check.
	FormRules examination.RuleSet
	Messages  examination.Messages
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine(opts RuleOptions) *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewTransientFieldsRule())
	engine.Register(NewSerializedSelectionsRule())
	if len(opts.FormRules) > 0 {
		engine.Register(NewFormValidationRule(opts.FormRules, opts.Messages))
	}
	engine.Register(NewFollowUpConsistencyRule())
	return engine
}

// writtenExaminations returns the post-change state of every created or
// updated examination in changes.
func writtenExaminations(changes []domain.Change) []domain.Examination {
	var out []domain.Examination
	for _, change := range changes {
		if change.Entity != domain.EntityExamination || change.Action == domain.ActionDelete {
			continue
		}
		if exam, ok := change.After.(domain.Examination); ok {
			out = append(out, exam)
		}
	}
	return out
}
