package core

import (
	"context"
	"strings"
	"usercore/pkg/domain"
)

// NewRequiredFirstnameRule warns when a created or updated user has a blank first name.
func NewRequiredFirstnameRule() domain.Rule {
	return requiredFirstnameRule{}
}

type requiredFirstnameRule struct{}

func (requiredFirstnameRule) Name() string { return "required_firstname" }

func (r requiredFirstnameRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.After == nil || strings.TrimSpace(change.After.Firstname) != "" {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityWarn,
			Message:  "user has no first name",
			Entity:   domain.EntityUser,
			EntityID: change.After.ID,
		})
	}
	return res, nil
}
