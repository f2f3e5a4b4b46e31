package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// querier is the subset of sqlx shared by *sqlx.DB, *sqlx.Conn and *sqlx.Tx.
type querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type beginner func(ctx context.Context) (*sqlx.Tx, error)

// Queries carries every statement the application runs. The same methods
// work against the pool, a pinned session connection or an open transaction.
type Queries struct {
	q     querier
	begin beginner
}

// RunInTx runs fn inside one transaction. Nested calls reuse the outer transaction.
func (qs *Queries) RunInTx(ctx context.Context, fn func(tx *Queries) error) error {
	if qs.begin == nil {
		return fn(qs)
	}
	tx, err := qs.begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(&Queries{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type DB struct {
	*sqlx.DB
	*Queries
}

func NewSQLiteDB(path string) (*DB, error) {
	db, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	out := &DB{DB: db}
	out.Queries = &Queries{
		q: db,
		begin: func(ctx context.Context) (*sqlx.Tx, error) {
			return db.BeginTxx(ctx, nil)
		},
	}
	return out, nil
}

// dsn applies the pragmas on every pooled connection, not just the first.
func dsn(path string) string {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "busy_timeout(30000)")
	params.Set("_txlock", "immediate")

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + params.Encode()
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// Session is one independent unit of persistence: a pinned connection that
// belongs to a single work item and is released by Close.
type Session struct {
	*Queries
	conn *sqlx.Conn
}

// Session opens a fresh persistence session.
func (db *DB) Session(ctx context.Context) (*Session, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return &Session{
		conn: conn,
		Queries: &Queries{
			q: conn,
			begin: func(ctx context.Context) (*sqlx.Tx, error) {
				return conn.BeginTxx(ctx, nil)
			},
		},
	}, nil
}

func (s *Session) Close() error {
	return s.conn.Close()
}
