// Package engine executes playground SQL statements against an in-memory store.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/sql"
)

// Engine owns one store and executes statements against it one at a time.
type Engine struct {
	mu      sync.Mutex
	store   *Store
	initial *schema.Snapshot
	groupBy bool
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithGroupBy enables or disables GROUP BY/HAVING. When disabled both clauses
// are rejected and aggregates collapse the filtered rows into a single group.
func WithGroupBy(enabled bool) Option {
	return func(e *Engine) {
		e.groupBy = enabled
	}
}

// WithClock sets the clock used to measure execution time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an engine holding a deep copy of the initial snapshot.
func New(initial *schema.Snapshot, opts ...Option) *Engine {
	e := &Engine{
		initial: initial.Clone(),
		groupBy: true,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.store = NewStore(e.initial)
	return e
}

// Execute runs one statement. Failures are reported in QueryResult.Error and
// leave the store untouched.
func (e *Engine) Execute(query string) *QueryResult {
	res, err := e.Exec(query)
	if err != nil {
		if res == nil {
			res = &QueryResult{}
		}
		res.Columns, res.Rows, res.Message = nil, nil, ""
		res.Error = err.Error()
	}
	return res
}

// Exec runs one statement and returns the typed error, if any, alongside a
// result carrying the execution time.
func (e *Engine) Exec(query string) (res *QueryResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stmt, err := sql.Parse(query)
	if errors.Is(err, sql.ErrEmpty) {
		return &QueryResult{}, ErrEmptyQuery
	}

	start := e.now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
		if res == nil {
			res = &QueryResult{}
		}
		res.ExecutionTime = e.now().Sub(start)
		res.timed = true
	}()

	if err != nil {
		return nil, err
	}
	return e.run(stmt)
}

func (e *Engine) run(stmt sql.Statement) (*QueryResult, error) {
	switch s := stmt.(type) {
	case *sql.CreateTableStmt:
		return e.executeCreateTable(s)
	case *sql.DropTableStmt:
		return e.executeDropTable(s)
	case *sql.AlterTableStmt:
		return e.executeAlterTable(s)
	case *sql.InsertStmt:
		return e.executeInsert(s)
	case *sql.UpdateStmt:
		return e.executeUpdate(s)
	case *sql.DeleteStmt:
		return e.executeDelete(s)
	case *sql.SelectStmt:
		return e.executeSelect(s)
	default:
		return nil, sql.ErrUnsupported
	}
}

// Snapshot returns a deep copy of the current store.
func (e *Engine) Snapshot() *schema.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot()
}

// Replace swaps the whole store for a deep copy of snap.
func (e *Engine) Replace(snap *schema.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = NewStore(snap)
}

// Reset restores the snapshot the engine was created with.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = NewStore(e.initial)
}

// Tables returns the table names in store order.
func (e *Engine) Tables() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.snap.TableNames()
}

// Table returns a deep copy of one table.
func (e *Engine) Table(name string) (*schema.Table, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, _ := e.store.snap.Table(name)
	if t == nil {
		return nil, false
	}
	return t.Clone(), true
}
