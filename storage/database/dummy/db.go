package dummydb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/kusoma/backend/core"
	"github.com/kusoma/backend/core/course"
	"github.com/kusoma/backend/core/enroll"
	"github.com/kusoma/backend/core/user"
)

type DB struct {
	noopExecutor

	mu       sync.RWMutex
	users    map[string]*user.User
	progress map[string]*course.ProgressDoc
	pending  map[string]*enroll.PendingPurchase
}

var _ core.DB = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	db := &DB{
		users:    make(map[string]*user.User),
		progress: make(map[string]*course.ProgressDoc),
		pending:  make(map[string]*enroll.PendingPurchase),
	}
	return db, nil
}

// BeginTx takes the store-wide write lock; Commit/Rollback release it. Writes
// apply eagerly, so a rolled back transaction is not undone. Good enough for
// exercising the services' transaction plumbing in tests.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	db.mu.Lock()
	return &Tx{db: db}, nil
}

type Tx struct {
	noopExecutor

	db   *DB
	done bool
}

var _ core.DBTransactor = (*Tx)(nil) // interface compliance check

func (tx *Tx) Commit() error {
	if tx.done {
		return sql.ErrTxDone
	}
	tx.done = true
	tx.db.mu.Unlock()
	return nil
}

func (tx *Tx) Rollback() error {
	if tx.done {
		return sql.ErrTxDone
	}
	tx.done = true
	tx.db.mu.Unlock()
	return nil
}

// lock returns the store lock, or a no-op when the caller already holds an
// open transaction.
func (db *DB) lock(exec []core.DBExecutor) sync.Locker {
	if len(exec) > 0 {
		return nopLocker{}
	}
	return &db.mu
}

func (db *DB) rlock(exec []core.DBExecutor) sync.Locker {
	if len(exec) > 0 {
		return nopLocker{}
	}
	return db.mu.RLocker()
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// noopExecutor satisfies core.DBExecutor; the dummy store is accessed through
// its maps, never through SQL.
type noopExecutor struct{}

func (noopExecutor) Exec(query string, args ...interface{}) (sql.Result, error) { return nil, nil }
func (noopExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (noopExecutor) Query(query string, args ...interface{}) (*sql.Rows, error) { return nil, nil }
func (noopExecutor) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (noopExecutor) QueryRow(query string, args ...interface{}) *sql.Row { return nil }
func (noopExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}
