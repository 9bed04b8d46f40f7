package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/sql"
)

// ErrEmptyQuery is reported for input holding nothing but whitespace and comments.
var ErrEmptyQuery = sql.ErrEmpty

// QueryResult is the outcome of one statement: rows for SELECT, a message for
// DDL/DML, or an error. Never both an error and data.
type QueryResult struct {
	Columns       []string
	Rows          []schema.Row
	Message       string
	Error         string
	ExecutionTime time.Duration

	timed bool
}

// IsError reports whether the statement failed.
func (r *QueryResult) IsError() bool {
	return r.Error != ""
}

// IsQuery reports whether the result carries a row set.
func (r *QueryResult) IsQuery() bool {
	return r.Error == "" && r.Message == ""
}

// ExecutionTimeMs returns the execution time in fractional milliseconds.
func (r *QueryResult) ExecutionTimeMs() float64 {
	return float64(r.ExecutionTime) / float64(time.Millisecond)
}

type queryResultJSON struct {
	Columns         []string     `json:"columns"`
	Rows            []schema.Row `json:"rows"`
	Message         string       `json:"message,omitempty"`
	Error           string       `json:"error,omitempty"`
	ExecutionTimeMs *float64     `json:"executionTimeMs,omitempty"`
}

// MarshalJSON encodes the result as {columns, rows, message, error, executionTimeMs}.
func (r *QueryResult) MarshalJSON() ([]byte, error) {
	out := queryResultJSON{
		Columns: r.Columns,
		Rows:    r.Rows,
		Message: r.Message,
		Error:   r.Error,
	}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	if out.Rows == nil {
		out.Rows = []schema.Row{}
	}
	if r.timed || r.ExecutionTime > 0 {
		ms := r.ExecutionTimeMs()
		out.ExecutionTimeMs = &ms
	}
	return json.Marshal(out)
}

// SemanticError reports a reference to a missing table or column, or the
// creation of one that already exists.
type SemanticError struct {
	Msg string
}

func (e *SemanticError) Error() string {
	return e.Msg
}

func tableNotFound(name string) error {
	return &SemanticError{Msg: fmt.Sprintf("Table '%s' not found", name)}
}

func tableExists(name string) error {
	return &SemanticError{Msg: fmt.Sprintf("Table '%s' already exists", name)}
}

func columnNotFound(name string) error {
	return &SemanticError{Msg: fmt.Sprintf("Column '%s' not found", name)}
}

func columnExists(column, table string) error {
	return &SemanticError{Msg: fmt.Sprintf("Column '%s' already exists in table '%s'", column, table)}
}

// ConstraintError reports a NOT NULL, UNIQUE or PRIMARY KEY violation.
type ConstraintError struct {
	Constraint string
	Column     string
	Value      schema.Value
}

func (e *ConstraintError) Error() string {
	if e.Constraint == "NOT NULL" {
		return fmt.Sprintf("NOT NULL constraint violation: Column '%s' cannot be null", e.Column)
	}
	return fmt.Sprintf("%s constraint violation: Duplicate value '%s' in column '%s'", e.Constraint, e.Value.String(), e.Column)
}
