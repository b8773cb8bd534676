// Package sqlite provides a SQLite-backed data context. Users are loaded into
// an in-memory tracking context on open; SaveChanges writes the detected
// changes through to the users table inside a single SQL transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"usercore/internal/infra/persistence/memory"
	"usercore/pkg/domain"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the context satisfies the domain interface.
var _ domain.DataContext = (*Context)(nil)

const (
	driverName  = "sqlite"
	defaultPath = "usercore.db"
	usersTable  = "users"
)

const schemaDDL = `CREATE TABLE IF NOT EXISTS users (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	firstname TEXT NOT NULL,
	lastname TEXT NOT NULL,
	some_action_has_been_performed INTEGER NOT NULL DEFAULT 0
)`

var userColumns = []string{"id", "firstname", "lastname", "some_action_has_been_performed"}

// Context persists users to SQLite while reusing the in-memory context for change tracking.
type Context struct {
	*memory.Context
	db   *sql.DB
	path string
}

// NewContext opens (or creates) the database at path, applies the schema and
// hydrates the tracking context from the stored rows.
func NewContext(ctx context.Context, path string, engine *domain.RulesEngine) (*Context, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	c, err := NewContextFromDB(ctx, db, engine)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.path = path
	return c, nil
}

// NewContextFromDB wraps an already opened database handle.
func NewContextFromDB(ctx context.Context, db *sql.DB, engine *domain.RulesEngine) (*Context, error) {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return nil, fmt.Errorf("create users table: %w", err)
	}
	users, err := loadUsers(ctx, db)
	if err != nil {
		return nil, err
	}
	c := &Context{db: db}
	c.Context = memory.NewContextWithUsers(engine, users, memory.WithCommitFunc(c.persist))
	return c, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (c *Context) DB() *sql.DB { return c.db }

// Path returns the configured database path; empty when built from an existing handle.
func (c *Context) Path() string { return c.path }

// Close releases the database handle.
func (c *Context) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func loadUsers(ctx context.Context, db *sql.DB) ([]domain.User, error) {
	query, args, err := sq.Select(userColumns...).From(usersTable).OrderBy("seq ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Firstname, &u.Lastname, &u.SomeActionHasBeenPerformed); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (c *Context) persist(ctx context.Context, changes []domain.Change) (retErr error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, change := range changes {
		builder, err := statementFor(change)
		if err != nil {
			return err
		}
		query, args, err := builder.ToSql()
		if err != nil {
			return fmt.Errorf("build %s: %w", change.Action, err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%s user %s: %w", change.Action, change.EntityID(), err)
		}
		if change.Action == domain.ActionCreate {
			continue
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected != 1 {
			return fmt.Errorf("%s user %s: %w", change.Action, change.EntityID(), domain.ErrConcurrencyConflict)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func statementFor(change domain.Change) (sq.Sqlizer, error) {
	switch change.Action {
	case domain.ActionCreate:
		u := change.After
		return sq.Insert(usersTable).Columns(userColumns...).
			Values(u.ID, u.Firstname, u.Lastname, u.SomeActionHasBeenPerformed), nil
	case domain.ActionUpdate:
		u := change.After
		return sq.Update(usersTable).
			Set("firstname", u.Firstname).
			Set("lastname", u.Lastname).
			Set("some_action_has_been_performed", u.SomeActionHasBeenPerformed).
			Where(sq.Eq{"id": change.Before.ID}), nil
	case domain.ActionDelete:
		return sq.Delete(usersTable).Where(sq.Eq{"id": change.Before.ID}), nil
	default:
		return nil, fmt.Errorf("unsupported change action %q", change.Action)
	}
}
