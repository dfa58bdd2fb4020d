package core

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"vetclinic/pkg/domain"
	"vetclinic/pkg/examination"
)

const dateLayout = "2006-01-02"

// NewFollowUpConsistencyRule warns when the follow-up date precedes the
// visit or disagrees with the follow-up interval.
func NewFollowUpConsistencyRule() domain.Rule {
	return followUpRule{}
}

type followUpRule struct{}

func (followUpRule) Name() string { return "follow_up_consistency" }

func (r followUpRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, exam := range writtenExaminations(changes) {
		record := examination.Record(exam.Payload)
		visit, okVisit := dateAt(record, examination.PathVisitDate)
		followUp, okFollow := dateAt(record, examination.PathFollowUpDate)
		if !okVisit || !okFollow {
			continue
		}
		warn := func(msg string) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityWarn,
				Message:  msg,
				Entity:   domain.EntityExamination,
				EntityID: exam.ID,
				Field:    examination.FieldFollowUpDate,
			})
		}
		if followUp.Before(visit) {
			warn(fmt.Sprintf("follow-up date %s precedes visit date %s", followUp.Format(dateLayout), visit.Format(dateLayout)))
			continue
		}
		if days, ok := daysAt(record, examination.PathFollowUpDays); ok {
			if want := visit.AddDate(0, 0, days); !want.Equal(followUp) {
				warn(fmt.Sprintf("follow-up date %s does not match %d days after visit (%s)", followUp.Format(dateLayout), days, want.Format(dateLayout)))
			}
		}
	}
	return res, nil
}

func dateAt(r examination.Record, p examination.Path) (time.Time, bool) {
	v, _ := examination.Get(r, p)
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func daysAt(r examination.Record, p examination.Path) (int, bool) {
	v, _ := examination.Get(r, p)
	switch typed := v.(type) {
	case float64:
		return int(typed), typed > 0
	case string:
		n, err := strconv.Atoi(typed)
		return n, err == nil && n > 0
	default:
		return 0, false
	}
}
