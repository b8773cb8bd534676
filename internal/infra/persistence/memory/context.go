// Package memory provides an in-memory, change-tracking implementation of the
// domain data context used for tests, ephemeral environments, and as the
// tracking layer underneath the durable backends.
package memory

import (
	"context"
	"fmt"
	"sync"
	"usercore/pkg/domain"

	"github.com/google/uuid"
)

// Compile-time contract assertions.
var (
	_ domain.DataContext            = (*Context)(nil)
	_ domain.EntitySet[domain.User] = (*userSet)(nil)
)

type (
	// User aliases domain.User for in-memory persistence operations.
	User = domain.User
	// Change aliases domain.Change produced when pending changes are detected.
	Change = domain.Change
	// RulesEngine aliases domain.RulesEngine evaluated on SaveChanges.
	RulesEngine = domain.RulesEngine
)

// CommitFunc persists detected changes to a durable backend. It runs after
// rules have passed and before the changes are accepted; an error leaves them pending.
type CommitFunc func(ctx context.Context, changes []Change) error

type entryState int

const (
	stateUnchanged entryState = iota
	stateAdded
	stateDeleted
)

type entry struct {
	current  *User
	original User
	state    entryState
}

// Context tracks users in insertion order and commits detected changes on
// SaveChanges. A Context is owned by one operation at a time; the mutex only
// guards the bookkeeping, not callers mutating tracked entities concurrently.
type Context struct {
	mu      sync.Mutex
	entries []*entry
	engine  *RulesEngine
	commit  CommitFunc
	saves   int
	last    domain.Result
	newID   func() string
}

// Option customises a Context.
type Option func(*Context)

// WithCommitFunc installs a hook invoked with the detected changes before they are accepted.
func WithCommitFunc(fn CommitFunc) Option {
	return func(c *Context) { c.commit = fn }
}

// WithIDGenerator overrides the identifier generator used by Add.
func WithIDGenerator(fn func() string) Option {
	return func(c *Context) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewContext constructs an empty context. A nil engine skips rule evaluation.
func NewContext(engine *RulesEngine, opts ...Option) *Context {
	c := &Context{engine: engine, newID: uuid.NewString}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewContextWithUsers returns a context already tracking users as unchanged rows.
func NewContextWithUsers(engine *RulesEngine, users []User, opts ...Option) *Context {
	c := NewContext(engine, opts...)
	c.ImportState(users)
	return c
}

// Users returns the typed user set.
func (c *Context) Users() domain.EntitySet[User] {
	return &userSet{ctx: c}
}

// RulesEngine returns the engine evaluated on SaveChanges.
func (c *Context) RulesEngine() *RulesEngine {
	return c.engine
}

// SaveCount reports how many SaveChanges calls committed at least one change.
func (c *Context) SaveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

// LastResult returns the rule result of the most recent SaveChanges that
// evaluated rules; non-blocking warnings surface here.
func (c *Context) LastResult() domain.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// PendingChanges returns the changes SaveChanges would commit right now.
func (c *Context) PendingChanges() []Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detectChanges()
}

// HasChanges reports whether any tracked entity differs from its committed state.
func (c *Context) HasChanges() bool {
	return len(c.PendingChanges()) > 0
}

// SaveChanges detects pending changes, evaluates rules against the resulting
// state, runs the commit hook, and accepts the changes. It returns the number
// of affected rows.
func (c *Context) SaveChanges(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	changes := c.detectChanges()
	if err := checkKeys(changes); err != nil {
		return 0, err
	}
	if len(changes) == 0 {
		return 0, nil
	}
	c.last = domain.Result{}
	if c.engine != nil {
		res, err := c.engine.Evaluate(ctx, c.view(), changes)
		if err != nil {
			return 0, err
		}
		if res.HasBlocking() {
			return 0, domain.RuleViolationError{Result: res}
		}
		c.last = res
	}
	if c.commit != nil {
		if err := c.commit(ctx, changes); err != nil {
			return 0, err
		}
	}
	c.acceptChanges()
	c.saves++
	return len(changes), nil
}

// ExportState returns copies of the committed-or-pending users in insertion order,
// excluding users marked for deletion.
func (c *Context) ExportState() []User {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]User, 0, len(c.entries))
	for _, e := range c.entries {
		if e.state == stateDeleted {
			continue
		}
		out = append(out, *e.current)
	}
	return out
}

// ImportState replaces all tracked users with the supplied rows, marked unchanged.
func (c *Context) ImportState(users []User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make([]*entry, 0, len(users))
	for _, u := range users {
		current := u
		c.entries = append(c.entries, &entry{current: &current, original: u, state: stateUnchanged})
	}
}

func (c *Context) detectChanges() []Change {
	var changes []Change
	for _, e := range c.entries {
		switch e.state {
		case stateAdded:
			after := *e.current
			changes = append(changes, Change{Entity: domain.EntityUser, Action: domain.ActionCreate, After: &after})
		case stateDeleted:
			before := e.original
			changes = append(changes, Change{Entity: domain.EntityUser, Action: domain.ActionDelete, Before: &before})
		default:
			if *e.current != e.original {
				before, after := e.original, *e.current
				changes = append(changes, Change{Entity: domain.EntityUser, Action: domain.ActionUpdate, Before: &before, After: &after})
			}
		}
	}
	return changes
}

func checkKeys(changes []Change) error {
	for _, ch := range changes {
		if ch.Action == domain.ActionUpdate && ch.Before.ID != ch.After.ID {
			return fmt.Errorf("user %q renamed to %q: %w", ch.Before.ID, ch.After.ID, domain.ErrKeyModified)
		}
	}
	return nil
}

func (c *Context) acceptChanges() {
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.state == stateDeleted {
			continue
		}
		e.original = *e.current
		e.state = stateUnchanged
		kept = append(kept, e)
	}
	for i := len(kept); i < len(c.entries); i++ {
		c.entries[i] = nil
	}
	c.entries = kept
}

// view exposes the state the pending changes would produce.
func (c *Context) view() domain.RuleView {
	users := make([]User, 0, len(c.entries))
	for _, e := range c.entries {
		if e.state != stateDeleted {
			users = append(users, *e.current)
		}
	}
	return ruleView{users: users}
}

type ruleView struct {
	users []User
}

func (v ruleView) ListUsers() []User {
	out := make([]User, len(v.users))
	copy(out, v.users)
	return out
}

func (v ruleView) FindUser(id string) (User, bool) {
	for _, u := range v.users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

type userSet struct {
	ctx *Context
}

func (s *userSet) FirstOrDefault(ctx context.Context, predicate func(*User) bool) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	for _, e := range s.ctx.entries {
		if e.state == stateDeleted {
			continue
		}
		if predicate == nil || predicate(e.current) {
			return e.current, nil
		}
	}
	return nil, nil
}

func (s *userSet) Add(user User) *User {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	if user.ID == "" {
		user.ID = s.ctx.newID()
	}
	current := user
	s.ctx.entries = append(s.ctx.entries, &entry{current: &current, state: stateAdded})
	return &current
}

func (s *userSet) Remove(user *User) bool {
	if user == nil {
		return false
	}
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	for i, e := range s.ctx.entries {
		if e.current != user {
			continue
		}
		switch e.state {
		case stateAdded:
			s.ctx.entries = append(s.ctx.entries[:i], s.ctx.entries[i+1:]...)
		case stateDeleted:
			return false
		default:
			e.state = stateDeleted
		}
		return true
	}
	return false
}

func (s *userSet) List(ctx context.Context) ([]*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	out := make([]*User, 0, len(s.ctx.entries))
	for _, e := range s.ctx.entries {
		if e.state != stateDeleted {
			out = append(out, e.current)
		}
	}
	return out, nil
}

func (s *userSet) Count(ctx context.Context) (int, error) {
	users, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}
