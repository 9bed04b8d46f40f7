package engine

import (
	"fmt"
	"strings"

	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/sql"
)

func (e *Engine) executeCreateTable(s *sql.CreateTableStmt) (*QueryResult, error) {
	if e.store.exists(s.Name) {
		if s.IfNotExists {
			return &QueryResult{Message: fmt.Sprintf("Table '%s' already exists, skipped.", s.Name)}, nil
		}
		return nil, tableExists(s.Name)
	}

	t := &schema.Table{Name: s.Name, Data: []schema.Row{}}
	for _, col := range s.Columns {
		if c, _ := t.Column(col.Name); c != nil {
			return nil, columnExists(col.Name, s.Name)
		}
		t.Columns = append(t.Columns, col.Clone())
	}
	e.store.add(t)

	return &QueryResult{Message: fmt.Sprintf("Table '%s' created successfully.", s.Name)}, nil
}

func (e *Engine) executeDropTable(s *sql.DropTableStmt) (*QueryResult, error) {
	t, idx, err := e.store.lookup(s.Name)
	if err != nil {
		if s.IfExists {
			return &QueryResult{Message: fmt.Sprintf("Table '%s' does not exist, skipped.", s.Name)}, nil
		}
		return nil, err
	}
	e.store.remove(idx)

	return &QueryResult{Message: fmt.Sprintf("Table '%s' dropped successfully.", t.Name)}, nil
}

func (e *Engine) executeAlterTable(s *sql.AlterTableStmt) (*QueryResult, error) {
	t, idx, err := e.store.lookup(s.Name)
	if err != nil {
		return nil, err
	}

	switch s.Action {
	case sql.AlterAddColumn:
		return e.addColumn(t, idx, s.Column)
	case sql.AlterDropColumn:
		return e.dropColumn(t, idx, s.OldColumn)
	case sql.AlterRenameTable:
		return e.renameTable(t, idx, s.NewName)
	case sql.AlterRenameColumn:
		return e.renameColumn(t, idx, s.OldColumn, s.NewName)
	default:
		return nil, &sql.SyntaxError{Msg: "Syntax error in ALTER TABLE. Supported: ADD COLUMN, DROP COLUMN, RENAME TO, RENAME COLUMN"}
	}
}

func (e *Engine) addColumn(t *schema.Table, idx int, col schema.Column) (*QueryResult, error) {
	if c, _ := t.Column(col.Name); c != nil {
		return nil, columnExists(col.Name, t.Name)
	}
	if col.NotNull && (!col.HasDefault() || col.Default.IsNull()) && len(t.Data) > 0 {
		return nil, &ConstraintError{Constraint: "NOT NULL", Column: col.Name}
	}
	if (col.Unique || col.PrimaryKey) && col.HasDefault() && !col.Default.IsNull() && len(t.Data) > 1 {
		return nil, &ConstraintError{Constraint: uniqueConstraint(col), Column: col.Name, Value: *col.Default}
	}

	next := t.Clone()
	next.Columns = append(next.Columns, col.Clone())
	fill := schema.Null()
	if col.HasDefault() {
		fill = *col.Default
	}
	for _, row := range next.Data {
		row[col.Name] = fill
	}
	e.store.put(idx, next)

	return &QueryResult{Message: fmt.Sprintf("Column '%s' added to table '%s' successfully.", col.Name, t.Name)}, nil
}

func (e *Engine) dropColumn(t *schema.Table, idx int, name string) (*QueryResult, error) {
	c, pos := t.Column(name)
	if c == nil {
		return nil, columnNotFound(name)
	}
	if len(t.Columns) == 1 {
		return nil, &SemanticError{Msg: fmt.Sprintf("Cannot drop column '%s': table '%s' must keep at least one column", c.Name, t.Name)}
	}

	next := t.Clone()
	next.Columns = append(next.Columns[:pos:pos], next.Columns[pos+1:]...)
	for _, row := range next.Data {
		deleteKey(row, c.Name)
	}
	e.store.put(idx, next)

	return &QueryResult{Message: fmt.Sprintf("Column '%s' dropped from table '%s' successfully.", c.Name, t.Name)}, nil
}

func (e *Engine) renameTable(t *schema.Table, idx int, name string) (*QueryResult, error) {
	if other, otherIdx := e.store.snap.Table(name); other != nil && otherIdx != idx {
		return nil, tableExists(name)
	}

	next := t.Clone()
	next.Name = name
	e.store.put(idx, next)

	return &QueryResult{Message: fmt.Sprintf("Table '%s' renamed to '%s' successfully.", t.Name, name)}, nil
}

func (e *Engine) renameColumn(t *schema.Table, idx int, from, to string) (*QueryResult, error) {
	c, pos := t.Column(from)
	if c == nil {
		return nil, columnNotFound(from)
	}
	if other, otherPos := t.Column(to); other != nil && otherPos != pos {
		return nil, columnExists(to, t.Name)
	}

	old := c.Name
	next := t.Clone()
	next.Columns[pos].Name = to
	for _, row := range next.Data {
		v, _ := row.Get(old)
		deleteKey(row, old)
		row[to] = v
	}
	e.store.put(idx, next)

	return &QueryResult{Message: fmt.Sprintf("Column '%s' renamed to '%s' in table '%s' successfully.", old, to, t.Name)}, nil
}

// deleteKey removes every key of row matching name case-insensitively
func deleteKey(row schema.Row, name string) {
	for k := range row {
		if strings.EqualFold(k, name) {
			delete(row, k)
		}
	}
}
