package core

import (
	"context"
	"fmt"
	"usercore/pkg/domain"
)

// MarkActionPerformed asks for the first user with the given first name to be
// flagged as having had the action performed.
type MarkActionPerformed struct {
	Firstname string
}

// RequestName implements Request.
func (MarkActionPerformed) RequestName() string { return "mark_action_performed" }

// ErrNotFound is returned when no record matches a lookup.
type ErrNotFound struct {
	Entity EntityType
	Key    string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// MarkActionPerformedHandler handles MarkActionPerformed against a data context.
type MarkActionPerformedHandler struct {
	data domain.DataContext
}

// NewMarkActionPerformedHandler binds the handler to data.
func NewMarkActionPerformedHandler(data domain.DataContext) *MarkActionPerformedHandler {
	return &MarkActionPerformedHandler{data: data}
}

// Handle finds the first user (insertion order) whose first name equals
// req.Firstname, sets its flag and commits once. When nothing matches it
// returns ErrNotFound without committing.
func (h *MarkActionPerformedHandler) Handle(ctx context.Context, req MarkActionPerformed) error {
	user, err := h.data.Users().FirstOrDefault(ctx, func(u *domain.User) bool {
		return u.Firstname == req.Firstname
	})
	if err != nil {
		return fmt.Errorf("find user %q: %w", req.Firstname, err)
	}
	if user == nil {
		return ErrNotFound{Entity: EntityUser, Key: req.Firstname}
	}

	user.SomeActionHasBeenPerformed = true

	if _, err := h.data.SaveChanges(ctx); err != nil {
		return fmt.Errorf("save changes: %w", err)
	}
	return nil
}
