package domain

import (
	"context"
	"errors"
)

// EntitySet is a typed, change-tracked collection of entities. Pointers handed
// out by a set refer to tracked instances: mutating them records a pending
// change that the owning DataContext commits on SaveChanges.
type EntitySet[T any] interface {
	// FirstOrDefault scans in insertion order and returns the first entity
	// matching predicate, or nil when nothing matches.
	FirstOrDefault(ctx context.Context, predicate func(*T) bool) (*T, error)
	// Add starts tracking a new entity and returns the tracked instance.
	Add(entity T) *T
	// Remove marks a tracked entity for deletion.
	Remove(entity *T) bool
	List(ctx context.Context) ([]*T, error)
	Count(ctx context.Context) (int, error)
}

// DataContext is the unit-of-work boundary handed to request handlers.
// Implementations include the in-memory, SQLite and Postgres contexts as well
// as test doubles.
type DataContext interface {
	Users() EntitySet[User]
	// SaveChanges commits pending mutations and returns the number of affected rows.
	SaveChanges(ctx context.Context) (int, error)
}

// ErrConcurrencyConflict is returned by durable contexts when an update or
// delete matched no stored row, meaning the row changed underneath the context.
var ErrConcurrencyConflict = errors.New("save changes: stored row was modified or removed concurrently")

// ErrKeyModified is returned by SaveChanges when a tracked entity's ID was
// changed. IDs are keys and cannot be rewritten in place.
var ErrKeyModified = errors.New("save changes: entity id cannot be modified")
