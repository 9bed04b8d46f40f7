package generator

import (
	"fmt"
	"strings"

	"github.com/koba/sqlplay/internal/diff"
	"github.com/koba/sqlplay/internal/schema"
)

// DDLGenerator generates DDL statements
type DDLGenerator struct {
	dialect string
}

// NewDDLGenerator creates a new DDL generator
func NewDDLGenerator(dialect string) *DDLGenerator {
	return &DDLGenerator{dialect: dialect}
}

// Generate generates DDL for a schema diff
func (g *DDLGenerator) Generate(schemaDiff *diff.SchemaDiff) string {
	switch schemaDiff.Action {
	case diff.ActionAdd:
		return g.generateCreateTable(schemaDiff.NewTable)
	case diff.ActionDrop:
		return g.generateDropTable(schemaDiff.TableName)
	case diff.ActionModify:
		return g.generateAlterTable(schemaDiff)
	}
	return ""
}

// needsRebuild reports whether the playground has to recreate the table to
// apply the diff. Its ALTER TABLE cannot change a column in place or attach a
// constraint to a column holding data.
func (g *DDLGenerator) needsRebuild(schemaDiff *diff.SchemaDiff) bool {
	if g.dialect != DialectSQLPlay || schemaDiff.Action != diff.ActionModify {
		return false
	}
	for _, change := range schemaDiff.ColumnChanges {
		switch change.Action {
		case diff.ActionModify:
			return true
		case diff.ActionAdd:
			col := change.NewColumn
			if col.NotNull || col.Unique || col.PrimaryKey {
				return true
			}
		}
	}
	return false
}

// generateRebuild drops and recreates table. The rows are inserted separately.
func (g *DDLGenerator) generateRebuild(table *schema.Table) string {
	return g.generateDropTable(table.Name) + "\n" + g.generateCreateTable(table)
}

func (g *DDLGenerator) generateCreateTable(table *schema.Table) string {
	var columnDefs []string
	for i := range table.Columns {
		columnDefs = append(columnDefs, g.columnDefinition(&table.Columns[i]))
	}

	if g.dialect == DialectSQLPlay {
		return fmt.Sprintf("CREATE TABLE %s (%s);",
			g.quoteIdentifier(table.Name),
			strings.Join(columnDefs, ", "),
		)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);",
		g.quoteIdentifier(table.Name),
		strings.Join(columnDefs, ",\n  "),
	)
}

func (g *DDLGenerator) generateDropTable(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", g.quoteIdentifier(tableName))
}

func (g *DDLGenerator) generateAlterTable(schemaDiff *diff.SchemaDiff) string {
	var statements []string

	for _, change := range schemaDiff.ColumnChanges {
		switch change.Action {
		case diff.ActionAdd:
			statements = append(statements, g.generateAddColumn(schemaDiff.TableName, change.NewColumn))
		case diff.ActionDrop:
			statements = append(statements, g.generateDropColumn(schemaDiff.TableName, change.ColumnName))
		case diff.ActionModify:
			statements = append(statements, g.generateModifyColumn(schemaDiff.TableName, change.NewColumn))
		}
	}

	return strings.Join(statements, "\n")
}

func (g *DDLGenerator) generateAddColumn(tableName string, col *schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;",
		g.quoteIdentifier(tableName),
		g.columnDefinition(col),
	)
}

func (g *DDLGenerator) generateDropColumn(tableName, columnName string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;",
		g.quoteIdentifier(tableName),
		g.quoteIdentifier(columnName),
	)
}

func (g *DDLGenerator) generateModifyColumn(tableName string, col *schema.Column) string {
	if g.dialect == DialectPostgres {
		stmts := []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;",
			g.quoteIdentifier(tableName),
			g.quoteIdentifier(col.Name),
			g.columnType(col.Type),
		)}
		nullability := "DROP NOT NULL"
		if col.NotNull {
			nullability = "SET NOT NULL"
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s;",
			g.quoteIdentifier(tableName),
			g.quoteIdentifier(col.Name),
			nullability,
		))
		defaultClause := "DROP DEFAULT"
		if col.Default != nil {
			defaultClause = "SET DEFAULT " + formatValue(g.dialect, *col.Default)
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s;",
			g.quoteIdentifier(tableName),
			g.quoteIdentifier(col.Name),
			defaultClause,
		))
		return strings.Join(stmts, "\n")
	}
	// MySQL
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;",
		g.quoteIdentifier(tableName),
		g.columnDefinition(col),
	)
}

func (g *DDLGenerator) columnDefinition(col *schema.Column) string {
	def := g.quoteIdentifier(col.Name) + " " + g.columnType(col.Type)

	if col.PrimaryKey {
		def += " PRIMARY KEY"
	} else {
		if col.NotNull {
			def += " NOT NULL"
		}
		if col.Unique {
			def += " UNIQUE"
		}
	}

	if col.Default != nil {
		def += " DEFAULT " + formatValue(g.dialect, *col.Default)
	}

	return def
}

// columnType maps the free-form type tag to one the dialect accepts
func (g *DDLGenerator) columnType(typ string) string {
	typ = strings.ToUpper(strings.TrimSpace(typ))
	if typ == "" {
		return "TEXT"
	}

	switch g.dialect {
	case DialectMySQL:
		if typ == "VARCHAR" {
			return "VARCHAR(255)"
		}
	case DialectPostgres:
		switch typ {
		case "DATETIME":
			return "TIMESTAMP"
		case "TINYINT(1)":
			return "BOOLEAN"
		case "DOUBLE":
			return "DOUBLE PRECISION"
		}
	default:
		// the playground reads one word with an optional size
		typ = strings.ReplaceAll(typ, ", ", ",")
		return strings.Join(strings.Fields(typ), "_")
	}
	return typ
}

func (g *DDLGenerator) quoteIdentifier(name string) string {
	return quoteIdentifier(g.dialect, name)
}
