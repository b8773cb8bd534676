package core

import (
	"context"
	"fmt"
	"usercore/pkg/domain"
)

// NewImmutableUserIDRule blocks updates that rewrite a tracked user's identifier.
func NewImmutableUserIDRule() domain.Rule {
	return immutableUserIDRule{}
}

type immutableUserIDRule struct{}

func (immutableUserIDRule) Name() string { return "immutable_user_id" }

func (r immutableUserIDRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action != domain.ActionUpdate || change.Before == nil || change.After == nil {
			continue
		}
		if change.Before.ID != change.After.ID {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("user id changed from %q to %q", change.Before.ID, change.After.ID),
				Entity:   domain.EntityUser,
				EntityID: change.Before.ID,
			})
		}
	}
	return res, nil
}
