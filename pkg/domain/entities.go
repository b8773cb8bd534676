// Package domain defines the persistent entities, change records, and rule
// evaluation primitives used by usercore.
package domain

// EntityType identifies the type of record stored in the domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence tables.
const (
	// EntityUser identifies a user record.
	EntityUser EntityType = "user"
)

// Severity captures rule violation severity.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks the commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
)

// User is the single tracked entity. ID is opaque and unique within a store.
type User struct {
	ID                         string `json:"id"`
	Firstname                  string `json:"firstname"`
	Lastname                   string `json:"lastname"`
	SomeActionHasBeenPerformed bool   `json:"some_action_has_been_performed"`
}

// Change describes a mutation detected when pending changes are saved.
type Change struct {
	Entity EntityType
	Action Action
	Before *User
	After  *User
}

// EntityID returns the identifier of the changed record.
func (c Change) EntityID() string {
	if c.After != nil {
		return c.After.ID
	}
	if c.Before != nil {
		return c.Before.ID
	}
	return ""
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations.
const (
	// ActionCreate indicates an entity was added.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was modified.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return "save changes blocked by rule " + v.Rule + ": " + v.Message
		}
	}
	return "save changes blocked by rules"
}
