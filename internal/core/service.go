package core

import (
	"context"
	"fmt"
	"usercore/internal/fixtures"
)

// Service composes a data context with a mediator that has the
// MarkActionPerformed handler registered.
type Service struct {
	data     DataContext
	mediator *Mediator
	logger   Logger
}

// NewService constructs a service over data. Options configure logging and
// metrics for both the service and its mediator.
func NewService(data DataContext, opts ...Option) *Service {
	o := applyOptions(opts)
	m := NewMediator(opts...)
	mustRegister(Register[MarkActionPerformed](m, NewMarkActionPerformedHandler(data)))
	return &Service{data: data, mediator: m, logger: o.logger}
}

func mustRegister(err error) {
	if err != nil {
		panic(fmt.Sprintf("core: register handler: %v", err))
	}
}

// Data returns the underlying data context.
func (s *Service) Data() DataContext { return s.data }

// Mediator returns the dispatcher used by the service.
func (s *Service) Mediator() *Mediator { return s.mediator }

// MarkActionPerformed dispatches a MarkActionPerformed request for firstname.
func (s *Service) MarkActionPerformed(ctx context.Context, firstname string) error {
	return s.mediator.Send(ctx, MarkActionPerformed{Firstname: firstname})
}

// Seed adds users and commits once. Rule warnings from the commit are logged.
func (s *Service) Seed(ctx context.Context, users []User) (int, error) {
	n, err := fixtures.Seed(ctx, s.data, users)
	if err != nil {
		return 0, err
	}
	s.logWarnings()
	s.logger.Info("users seeded", "count", n)
	return n, nil
}

// ListUsers returns a snapshot of all users in insertion order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	tracked, err := s.data.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]User, 0, len(tracked))
	for _, u := range tracked {
		out = append(out, *u)
	}
	return out, nil
}

func (s *Service) logWarnings() {
	tracked, ok := s.data.(TrackedContext)
	if !ok {
		return
	}
	for _, v := range tracked.LastResult().Violations {
		s.logger.Warn("rule violation", "rule", v.Rule, "severity", v.Severity, "entity_id", v.EntityID, "message", v.Message)
	}
}
