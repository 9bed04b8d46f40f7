package engine

import (
	"fmt"

	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/sql"
)

func (e *Engine) executeInsert(s *sql.InsertStmt) (*QueryResult, error) {
	t, idx, err := e.store.lookup(s.Table)
	if err != nil {
		return nil, err
	}

	targets, err := resolveColumns(t, s.Columns)
	if err != nil {
		return nil, err
	}

	next := t.Clone()
	for i, tuple := range s.Rows {
		if len(tuple) != len(targets) {
			return nil, &SemanticError{Msg: fmt.Sprintf("Column count (%d) does not match value count (%d) in tuple: %s",
				len(targets), len(tuple), s.RowText[i])}
		}

		row := make(schema.Row, len(t.Columns))
		for _, col := range t.Columns {
			row[col.Name] = defaultValue(col)
		}
		for j, expr := range tuple {
			if _, ok := expr.(*sql.DefaultExpr); ok {
				continue
			}
			row[targets[j].Name] = eval(&env{}, expr)
		}

		if err := checkRow(next, next.Data, -1, row); err != nil {
			return nil, err
		}
		next.Data = append(next.Data, row)
	}
	e.store.put(idx, next)

	return &QueryResult{Message: fmt.Sprintf("%d row(s) inserted into '%s'.", len(s.Rows), t.Name)}, nil
}

func (e *Engine) executeUpdate(s *sql.UpdateStmt) (*QueryResult, error) {
	t, idx, err := e.store.lookup(s.Table)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(s.Assignments))
	for i, a := range s.Assignments {
		names[i] = a.Column
	}
	targets, err := resolveColumns(t, names)
	if err != nil {
		return nil, err
	}

	next := t.Clone()
	var touched []int
	for i, row := range t.Data {
		ev := &env{row: row}
		if !test(ev, s.Where) {
			continue
		}
		updated := row.Clone()
		for j, a := range s.Assignments {
			updated[targets[j].Name] = eval(ev, a.Value)
		}
		next.Data[i] = updated
		touched = append(touched, i)
	}

	for _, i := range touched {
		if err := checkRow(next, next.Data, i, next.Data[i]); err != nil {
			return nil, err
		}
	}
	e.store.put(idx, next)

	return &QueryResult{Message: fmt.Sprintf("%d row(s) updated in '%s'.", len(touched), t.Name)}, nil
}

func (e *Engine) executeDelete(s *sql.DeleteStmt) (*QueryResult, error) {
	t, idx, err := e.store.lookup(s.Table)
	if err != nil {
		return nil, err
	}

	next := &schema.Table{Name: t.Name, Data: []schema.Row{}}
	for _, col := range t.Columns {
		next.Columns = append(next.Columns, col.Clone())
	}
	deleted := 0
	for _, row := range t.Data {
		if test(&env{row: row}, s.Where) {
			deleted++
			continue
		}
		next.Data = append(next.Data, row.Clone())
	}
	e.store.put(idx, next)

	return &QueryResult{Message: fmt.Sprintf("%d row(s) deleted from '%s'.", deleted, t.Name)}, nil
}

// resolveColumns maps names to column definitions. No names means every column.
func resolveColumns(t *schema.Table, names []string) ([]*schema.Column, error) {
	if len(names) == 0 {
		cols := make([]*schema.Column, len(t.Columns))
		for i := range t.Columns {
			cols[i] = &t.Columns[i]
		}
		return cols, nil
	}
	cols := make([]*schema.Column, len(names))
	for i, name := range names {
		c, _ := t.Column(name)
		if c == nil {
			return nil, columnNotFound(name)
		}
		cols[i] = c
	}
	return cols, nil
}

func defaultValue(col schema.Column) schema.Value {
	if col.Default != nil {
		return *col.Default
	}
	return schema.Null()
}

func uniqueConstraint(col schema.Column) string {
	if col.PrimaryKey {
		return "PRIMARY KEY"
	}
	return "UNIQUE"
}

// checkRow validates NOT NULL and UNIQUE/PRIMARY KEY for row against rows,
// skipping rows[self]. NULLs never collide.
func checkRow(t *schema.Table, rows []schema.Row, self int, row schema.Row) error {
	for _, col := range t.Columns {
		v, _ := row.Get(col.Name)
		if v.IsNull() {
			if col.NotNull || col.PrimaryKey {
				return &ConstraintError{Constraint: "NOT NULL", Column: col.Name}
			}
			continue
		}
		if !col.Unique && !col.PrimaryKey {
			continue
		}
		for i, other := range rows {
			if i == self {
				continue
			}
			if ov, _ := other.Get(col.Name); schema.LooseEqual(v, ov) {
				return &ConstraintError{Constraint: uniqueConstraint(col), Column: col.Name, Value: v}
			}
		}
	}
	return nil
}
