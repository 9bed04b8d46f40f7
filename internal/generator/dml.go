package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/koba/sqlplay/internal/diff"
	"github.com/koba/sqlplay/internal/schema"
)

// DMLGenerator generates DML statements
type DMLGenerator struct {
	dialect string
}

// NewDMLGenerator creates a new DML generator
func NewDMLGenerator(dialect string) *DMLGenerator {
	return &DMLGenerator{dialect: dialect}
}

// Generate generates DML for a data diff. columns, when known, is the
// table's column order after the schema changes; row keys outside it are
// left out.
func (g *DMLGenerator) Generate(dataDiff *diff.DataDiff, columns []string) string {
	var statements []string

	// Generate DELETE statements
	for _, row := range dataDiff.RowsDeleted {
		statements = append(statements, g.generateDelete(dataDiff.TableName, dataDiff.KeyColumn, row, columns))
	}

	// Generate INSERT statements
	for _, row := range dataDiff.RowsAdded {
		statements = append(statements, g.generateInsert(dataDiff.TableName, row, columns))
	}

	// Generate UPDATE statements
	for _, mod := range dataDiff.RowsModified {
		if stmt := g.generateUpdate(dataDiff.TableName, dataDiff.KeyColumn, mod.OldRow, mod.NewRow, columns); stmt != "" {
			statements = append(statements, stmt)
		}
	}

	return strings.Join(statements, "\n")
}

// generateInserts emits one INSERT per row of table in declared column order
func (g *DMLGenerator) generateInserts(table *schema.Table) string {
	columns := table.ColumnNames()
	statements := make([]string, 0, len(table.Data))
	for _, row := range table.Data {
		statements = append(statements, g.generateInsert(table.Name, row, columns))
	}
	return strings.Join(statements, "\n")
}

func (g *DMLGenerator) generateInsert(tableName string, row schema.Row, columns []string) string {
	names := rowColumns(row, columns)
	values := make([]string, len(names))
	for i, name := range names {
		v, _ := row.Get(name)
		values[i] = formatValue(g.dialect, v)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		g.quoteIdentifier(tableName),
		strings.Join(quoteIdentifiers(g.dialect, names), ", "),
		strings.Join(values, ", "),
	)
}

func (g *DMLGenerator) generateDelete(tableName, keyColumn string, row schema.Row, columns []string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s;",
		g.quoteIdentifier(tableName),
		g.buildWhereClause(keyColumn, row, columns),
	)
}

func (g *DMLGenerator) generateUpdate(tableName, keyColumn string, oldRow, newRow schema.Row, columns []string) string {
	var setClauses []string

	for _, col := range rowColumns(newRow, columns) {
		newVal, _ := newRow.Get(col)
		oldVal, exists := oldRow.Get(col)
		if !exists || !valuesEqual(oldVal, newVal) {
			setClauses = append(setClauses,
				fmt.Sprintf("%s = %s", g.quoteIdentifier(col), formatValue(g.dialect, newVal)),
			)
		}
	}

	if len(setClauses) == 0 {
		return ""
	}

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s;",
		g.quoteIdentifier(tableName),
		strings.Join(setClauses, ", "),
		g.buildWhereClause(keyColumn, oldRow, columns),
	)
}

// buildWhereClause matches row by its key, or by every column when the table has none
func (g *DMLGenerator) buildWhereClause(keyColumn string, row schema.Row, columns []string) string {
	names := []string{keyColumn}
	if keyColumn == "" {
		names = rowColumns(row, columns)
	}

	var conditions []string
	for _, col := range names {
		val, _ := row.Get(col)
		if val.IsNull() {
			conditions = append(conditions,
				fmt.Sprintf("%s IS NULL", g.quoteIdentifier(col)),
			)
		} else {
			conditions = append(conditions,
				fmt.Sprintf("%s = %s", g.quoteIdentifier(col), formatValue(g.dialect, val)),
			)
		}
	}

	return strings.Join(conditions, " AND ")
}

func (g *DMLGenerator) quoteIdentifier(name string) string {
	return quoteIdentifier(g.dialect, name)
}

// rowColumns returns the columns to write for row: the known column order,
// or the row's own keys sorted by name
func rowColumns(row schema.Row, columns []string) []string {
	if columns != nil {
		return columns
	}
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func valuesEqual(a, b schema.Value) bool {
	return a.Kind == b.Kind && schema.LooseEqual(a, b)
}
