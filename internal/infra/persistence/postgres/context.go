// Package postgres provides a Postgres-backed data context that mirrors the
// in-memory change tracking and writes committed changes through pgx.
package postgres

import (
	"context"
	"fmt"
	"sync"
	"usercore/internal/infra/persistence/memory"
	"usercore/pkg/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time contract assertion ensuring the context satisfies the domain interface.
var _ domain.DataContext = (*Context)(nil)

const (
	// Default DSN keeps parity with the config defaults while allowing overrides via env.
	defaultDSN = "postgres://localhost/usercore?sslmode=disable"
	usersTable = "users"
)

const schemaDDL = `CREATE TABLE IF NOT EXISTS users (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	firstname TEXT NOT NULL,
	lastname TEXT NOT NULL,
	some_action_has_been_performed BOOLEAN NOT NULL DEFAULT FALSE
)`

var userColumns = []string{"id", "firstname", "lastname", "some_action_has_been_performed"}

// DBInterface is the subset of *pgxpool.Pool used by the context. pgxmock
// pools satisfy it in tests.
type DBInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

var (
	newPool = func(ctx context.Context, dsn string) (DBInterface, error) {
		return pgxpool.New(ctx, dsn)
	}
	openMu sync.Mutex
)

// Context persists users to Postgres while reusing the in-memory context for change tracking.
type Context struct {
	*memory.Context
	db DBInterface
}

// NewContext connects using dsn (falls back to defaultDSN), ensures the users
// table exists and hydrates the tracking context.
func NewContext(ctx context.Context, dsn string, engine *domain.RulesEngine) (*Context, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := newPool(ctx, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	c, err := NewContextFromDB(ctx, db, engine)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewContextFromDB wraps an existing pool.
func NewContextFromDB(ctx context.Context, db DBInterface, engine *domain.RulesEngine) (*Context, error) {
	if _, err := db.Exec(ctx, schemaDDL); err != nil {
		return nil, fmt.Errorf("ensure users table: %w", err)
	}
	users, err := loadUsers(ctx, db)
	if err != nil {
		return nil, err
	}
	c := &Context{db: db}
	c.Context = memory.NewContextWithUsers(engine, users, memory.WithCommitFunc(c.persist))
	return c, nil
}

// DB exposes the underlying pool for integration testing hooks.
func (c *Context) DB() DBInterface { return c.db }

// Close releases the pool.
func (c *Context) Close() {
	if c.db != nil {
		c.db.Close()
	}
}

func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func loadUsers(ctx context.Context, db DBInterface) ([]domain.User, error) {
	query, args, err := builder().Select(userColumns...).From(usersTable).OrderBy("seq ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()
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
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	for _, change := range changes {
		stmt, err := statementFor(change)
		if err != nil {
			return err
		}
		query, args, err := stmt.ToSql()
		if err != nil {
			return fmt.Errorf("build %s: %w", change.Action, err)
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%s user %s: %w", change.Action, change.EntityID(), err)
		}
		if change.Action != domain.ActionCreate && tag.RowsAffected() != 1 {
			return fmt.Errorf("%s user %s: %w", change.Action, change.EntityID(), domain.ErrConcurrencyConflict)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func statementFor(change domain.Change) (sq.Sqlizer, error) {
	switch change.Action {
	case domain.ActionCreate:
		u := change.After
		return builder().Insert(usersTable).Columns(userColumns...).
			Values(u.ID, u.Firstname, u.Lastname, u.SomeActionHasBeenPerformed), nil
	case domain.ActionUpdate:
		u := change.After
		return builder().Update(usersTable).
			Set("firstname", u.Firstname).
			Set("lastname", u.Lastname).
			Set("some_action_has_been_performed", u.SomeActionHasBeenPerformed).
			Where(sq.Eq{"id": change.Before.ID}), nil
	case domain.ActionDelete:
		return builder().Delete(usersTable).Where(sq.Eq{"id": change.Before.ID}), nil
	default:
		return nil, fmt.Errorf("unsupported change action %q", change.Action)
	}
}

// OverrideNewPool swaps the pool constructor for tests and returns a restore function.
func OverrideNewPool(fn func(ctx context.Context, dsn string) (DBInterface, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := newPool
	newPool = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		newPool = prev
	}
}
