// Package diff compares two workspace snapshots table by table.
package diff

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/koba/sqlplay/internal/schema"
)

// Result holds the complete comparison result, sorted by table name
type Result struct {
	SchemaDiffs []*SchemaDiff
	DataDiffs   []*DataDiff
}

// Empty reports whether the snapshots are identical
func (r *Result) Empty() bool {
	return len(r.SchemaDiffs) == 0 && len(r.DataDiffs) == 0
}

// Compare compares two snapshots and returns the differences. Tables are
// paired by name case-insensitively. Rows of added tables are reported as
// added data.
func Compare(old, new *schema.Snapshot) *Result {
	old, new = old.Clone(), new.Clone()
	result := &Result{
		SchemaDiffs: []*SchemaDiff{},
		DataDiffs:   []*DataDiff{},
	}

	// Find all unique table names
	tableNames := make(map[string]bool)
	for _, t := range old.Tables {
		tableNames[strings.ToLower(t.Name)] = true
	}
	for _, t := range new.Tables {
		tableNames[strings.ToLower(t.Name)] = true
	}
	names := make([]string, 0, len(tableNames))
	for name := range tableNames {
		names = append(names, name)
	}
	sort.Strings(names)

	// Compare each table
	for _, name := range names {
		table1, _ := old.Table(name)
		table2, _ := new.Table(name)

		if table1 == nil {
			// Table added in the new snapshot
			result.SchemaDiffs = append(result.SchemaDiffs, &SchemaDiff{
				TableName: table2.Name,
				Action:    ActionAdd,
				NewTable:  table2,
			})
			if len(table2.Data) > 0 {
				result.DataDiffs = append(result.DataDiffs, &DataDiff{
					TableName:    table2.Name,
					RowsAdded:    table2.Data,
					RowsDeleted:  []schema.Row{},
					RowsModified: []RowModification{},
				})
			}
			continue
		}

		if table2 == nil {
			// Table removed in the new snapshot
			result.SchemaDiffs = append(result.SchemaDiffs, &SchemaDiff{
				TableName: table1.Name,
				Action:    ActionDrop,
				OldTable:  table1,
			})
			continue
		}

		if schemaDiff := compareSchemas(table1, table2); schemaDiff != nil {
			result.SchemaDiffs = append(result.SchemaDiffs, schemaDiff)
		}
		if dataDiff := compareData(table1, table2); dataDiff != nil {
			result.DataDiffs = append(result.DataDiffs, dataDiff)
		}
	}

	return result
}

// Display prints the diff result in a human-readable format
func Display(w io.Writer, result *Result) {
	if result.Empty() {
		fmt.Fprintln(w, "No differences found.")
		return
	}

	// Display schema differences
	if len(result.SchemaDiffs) > 0 {
		fmt.Fprintln(w, "=== Schema Differences ===")
		fmt.Fprintln(w)
		for _, schemaDiff := range result.SchemaDiffs {
			displaySchemaDiff(w, schemaDiff)
		}
	}

	// Display data differences
	if len(result.DataDiffs) > 0 {
		if len(result.SchemaDiffs) > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "=== Data Differences ===")
		fmt.Fprintln(w)
		for _, dataDiff := range result.DataDiffs {
			displayDataDiff(w, dataDiff)
		}
	}
}

func displaySchemaDiff(w io.Writer, diff *SchemaDiff) {
	fmt.Fprintf(w, "Table: %s\n", diff.TableName)

	switch diff.Action {
	case ActionAdd:
		fmt.Fprintf(w, "  Action: ADD (new table)\n")
		fmt.Fprintf(w, "  Columns: %d\n", len(diff.NewTable.Columns))
	case ActionDrop:
		fmt.Fprintf(w, "  Action: DROP (removed table)\n")
	case ActionModify:
		fmt.Fprintf(w, "  Action: MODIFY\n")
		fmt.Fprintf(w, "  Column changes:\n")
		for _, change := range diff.ColumnChanges {
			fmt.Fprintf(w, "    - %s: %s\n", change.ColumnName, change.Action)
		}
	}
	fmt.Fprintln(w)
}

func displayDataDiff(w io.Writer, diff *DataDiff) {
	fmt.Fprintf(w, "Table: %s\n", diff.TableName)
	fmt.Fprintf(w, "  Rows added: %d\n", len(diff.RowsAdded))
	fmt.Fprintf(w, "  Rows deleted: %d\n", len(diff.RowsDeleted))
	fmt.Fprintf(w, "  Rows modified: %d\n", len(diff.RowsModified))
	fmt.Fprintln(w)
}
