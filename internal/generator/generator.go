// Package generator renders workspace snapshots and diffs as SQL scripts.
package generator

import (
	"fmt"
	"strings"

	"github.com/koba/sqlplay/internal/diff"
	"github.com/koba/sqlplay/internal/schema"
	sqlparse "github.com/koba/sqlplay/internal/sql"
)

// Supported dialects
const (
	DialectSQLPlay  = "sqlplay"
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

// Dialects lists the accepted dialect names
var Dialects = []string{DialectSQLPlay, DialectMySQL, DialectPostgres}

// ParseDialect normalizes a dialect name. An empty name selects sqlplay.
func ParseDialect(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlplay", "playground":
		return DialectSQLPlay, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported dialect: %s (expected one of %s)", name, strings.Join(Dialects, ", "))
}

// GenerateScript generates CREATE TABLE and INSERT statements rebuilding snap.
// The sqlplay dialect can be fed back to the engine statement by statement.
func GenerateScript(snap *schema.Snapshot, dialect string) string {
	ddlGen := NewDDLGenerator(dialect)
	dmlGen := NewDMLGenerator(dialect)

	var sqlStatements []string
	for _, table := range snap.Tables {
		sqlStatements = append(sqlStatements, ddlGen.generateCreateTable(table))
		if inserts := dmlGen.generateInserts(table); inserts != "" {
			sqlStatements = append(sqlStatements, inserts)
		}
	}
	return strings.Join(sqlStatements, "\n\n")
}

// GenerateSQL generates migration SQL turning the old side of result into the new one
func GenerateSQL(result *diff.Result, dialect string) string {
	var sqlStatements []string

	ddlGen := NewDDLGenerator(dialect)
	dmlGen := NewDMLGenerator(dialect)

	// tables rebuilt from scratch carry their data along
	rebuilt := make(map[string]bool)
	columns := make(map[string][]string)

	// Generate DDL first
	for _, schemaDiff := range result.SchemaDiffs {
		key := strings.ToLower(schemaDiff.TableName)
		if schemaDiff.NewTable != nil {
			columns[key] = schemaDiff.NewTable.ColumnNames()
		}
		if ddlGen.needsRebuild(schemaDiff) {
			rebuilt[key] = true
			sqlStatements = append(sqlStatements, ddlGen.generateRebuild(schemaDiff.NewTable))
			if inserts := dmlGen.generateInserts(schemaDiff.NewTable); inserts != "" {
				sqlStatements = append(sqlStatements, inserts)
			}
			continue
		}
		if sql := ddlGen.Generate(schemaDiff); sql != "" {
			sqlStatements = append(sqlStatements, sql)
		}
	}

	// Generate DML
	for _, dataDiff := range result.DataDiffs {
		key := strings.ToLower(dataDiff.TableName)
		if rebuilt[key] {
			continue
		}
		if sql := dmlGen.Generate(dataDiff, columns[key]); sql != "" {
			sqlStatements = append(sqlStatements, sql)
		}
	}

	return strings.Join(sqlStatements, "\n\n")
}

// quoteIdentifier quotes a table or column name for the dialect. The
// playground only quotes names its parser would not read as identifiers.
func quoteIdentifier(dialect, name string) string {
	switch dialect {
	case DialectPostgres:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	case DialectMySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	if isPlainIdentifier(name) {
		return name
	}
	return "`" + name + "`"
}

func quoteIdentifiers(dialect string, names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdentifier(dialect, name)
	}
	return quoted
}

func isPlainIdentifier(name string) bool {
	if name == "" || sqlparse.IsReserved(name) {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// formatValue renders v as a SQL literal
func formatValue(dialect string, v schema.Value) string {
	switch v.Kind {
	case schema.KindNull:
		return "NULL"
	case schema.KindNumber:
		return v.String()
	case schema.KindBoolean:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case schema.KindDate:
		if dialect == DialectSQLPlay {
			return "DATE '" + v.String() + "'"
		}
		return "'" + v.String() + "'"
	}

	// Escape single quotes
	escaped := strings.ReplaceAll(v.Str, "'", "''")
	if dialect == DialectMySQL {
		escaped = strings.ReplaceAll(escaped, `\`, `\\`)
	}
	return "'" + escaped + "'"
}
