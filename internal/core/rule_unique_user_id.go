package core

import (
	"context"
	"fmt"
	"usercore/pkg/domain"
)

// NewUniqueUserIDRule returns the rule enforcing identifier uniqueness across the store.
func NewUniqueUserIDRule() domain.Rule {
	return uniqueUserIDRule{}
}

type uniqueUserIDRule struct{}

func (uniqueUserIDRule) Name() string { return "unique_user_id" }

func (r uniqueUserIDRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	seen := make(map[string]int)
	res := domain.Result{}
	for _, user := range view.ListUsers() {
		seen[user.ID]++
		if seen[user.ID] == 2 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("user id %q is not unique", user.ID),
				Entity:   domain.EntityUser,
				EntityID: user.ID,
			})
		}
	}
	return res, nil
}
