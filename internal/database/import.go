package database

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/koba/sqlplay/internal/schema"
	sqlparse "github.com/koba/sqlplay/internal/sql"
)

// workspaceTablePrefix marks the tables the workspace store manages itself
const workspaceTablePrefix = "sqlplay_"

// ImportTables reads tables from db into a snapshot. With no tables given,
// every table except the workspace store's own is imported. A positive limit
// caps the rows read per table.
func ImportTables(ctx context.Context, db Introspector, tables []string, limit int) (*schema.Snapshot, error) {
	if len(tables) == 0 {
		all, err := db.GetAllTables(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get all tables: %w", err)
		}
		for _, name := range all {
			if !strings.HasPrefix(strings.ToLower(name), workspaceTablePrefix) {
				tables = append(tables, name)
			}
		}
	}

	snap := schema.NewSnapshot()
	for _, tableName := range tables {
		t, err := db.GetTableSchema(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to import table %s: %w", tableName, err)
		}
		if len(t.Columns) == 0 {
			return nil, fmt.Errorf("failed to import table %s: table not found", tableName)
		}
		data, err := db.GetTableData(ctx, tableName, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to import table %s: %w", tableName, err)
		}
		t.Data = data
		snap.Tables = append(snap.Tables, t)
		log.Printf("database: imported %s (%d rows)", tableName, len(data))
	}
	return snap, nil
}

// keySet collects the columns of unique indexes by index name
type keySet map[string]*keyIndex

type keyIndex struct {
	columns []string
	primary bool
}

func (k keySet) add(index, column string, primary bool) {
	idx, ok := k[index]
	if !ok {
		idx = &keyIndex{primary: primary}
		k[index] = idx
	}
	idx.columns = append(idx.columns, column)
}

// apply marks the columns of single-column keys. Composite keys have no
// column-level equivalent and are skipped.
func (k keySet) apply(columns []schema.Column) {
	names := make([]string, 0, len(k))
	for name := range k {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		idx := k[name]
		if len(idx.columns) != 1 {
			continue
		}
		for i := range columns {
			if !strings.EqualFold(columns[i].Name, idx.columns[0]) {
				continue
			}
			columns[i].Unique = true
			if idx.primary {
				columns[i].PrimaryKey = true
				columns[i].NotNull = true
			}
		}
	}
}

var columnTypeAliases = map[string]string{
	"CHARACTER VARYING":           "VARCHAR",
	"CHARACTER":                   "CHAR",
	"DOUBLE PRECISION":            "DOUBLE",
	"TIMESTAMP WITHOUT TIME ZONE": "TIMESTAMP",
	"TIMESTAMP WITH TIME ZONE":    "TIMESTAMPTZ",
}

func normalizeColumnType(typ string) string {
	typ = strings.ToUpper(strings.TrimSpace(typ))
	if alias, ok := columnTypeAliases[typ]; ok {
		return alias
	}
	if typ == "" {
		return "TEXT"
	}
	return typ
}

// parseDefault converts a column default reported by the server into a
// literal. Expressions such as CURRENT_TIMESTAMP or nextval(...) have no
// literal form and yield nil.
func parseDefault(raw string) *schema.Value {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "::"); i >= 0 {
		raw = raw[:i]
	}
	upper := strings.ToUpper(raw)
	if raw == "" || upper == "NULL" || strings.HasPrefix(upper, "CURRENT_") || strings.Contains(raw, "(") {
		return nil
	}
	v := sqlparse.ParseValue(raw)
	switch upper {
	case "TRUE":
		v = schema.Boolean(true)
	case "FALSE":
		v = schema.Boolean(false)
	}
	return &v
}
