package diff

import (
	"encoding/json"
	"fmt"

	"github.com/koba/sqlplay/internal/schema"
)

// DataDiff represents data differences for a table
type DataDiff struct {
	TableName    string
	KeyColumn    string // primary key the rows were matched on, empty for whole-row matching
	RowsAdded    []schema.Row
	RowsDeleted  []schema.Row
	RowsModified []RowModification
}

// RowModification represents a modified row
type RowModification struct {
	OldRow schema.Row
	NewRow schema.Row
}

// compareData compares the rows of two versions of a table. Rows are paired
// by the new table's primary key when both versions have it; otherwise they
// are matched as whole rows and modifications show up as delete plus add.
func compareData(oldTable, newTable *schema.Table) *DataDiff {
	diff := &DataDiff{
		TableName:    newTable.Name,
		RowsAdded:    []schema.Row{},
		RowsDeleted:  []schema.Row{},
		RowsModified: []RowModification{},
	}

	pk := newTable.PrimaryKey()
	if pk != nil {
		if c, _ := oldTable.Column(pk.Name); c == nil {
			pk = nil
		}
	}

	if pk != nil {
		diff.KeyColumn = pk.Name
		compareByKey(diff, oldTable.Data, newTable.Data, pk.Name)
	} else {
		compareRows(diff, oldTable.Data, newTable.Data)
	}

	// Return nil if no changes
	if len(diff.RowsAdded) == 0 && len(diff.RowsDeleted) == 0 && len(diff.RowsModified) == 0 {
		return nil
	}

	return diff
}

func compareByKey(diff *DataDiff, oldData, newData []schema.Row, key string) {
	oldRows := make(map[string]schema.Row)
	for _, row := range oldData {
		oldRows[rowKey(row, key)] = row
	}

	newKeys := make(map[string]bool)
	for _, newRow := range newData {
		k := rowKey(newRow, key)
		newKeys[k] = true
		if oldRow, exists := oldRows[k]; exists {
			if !rowsEqual(oldRow, newRow) {
				diff.RowsModified = append(diff.RowsModified, RowModification{
					OldRow: oldRow,
					NewRow: newRow,
				})
			}
		} else {
			diff.RowsAdded = append(diff.RowsAdded, newRow)
		}
	}

	for _, oldRow := range oldData {
		if !newKeys[rowKey(oldRow, key)] {
			diff.RowsDeleted = append(diff.RowsDeleted, oldRow)
		}
	}
}

func compareRows(diff *DataDiff, oldData, newData []schema.Row) {
	unmatched := make(map[string]int)
	for _, row := range oldData {
		unmatched[rowSignature(row)]++
	}

	for _, row := range newData {
		sig := rowSignature(row)
		if unmatched[sig] > 0 {
			unmatched[sig]--
			continue
		}
		diff.RowsAdded = append(diff.RowsAdded, row)
	}

	for _, row := range oldData {
		sig := rowSignature(row)
		if unmatched[sig] > 0 {
			unmatched[sig]--
			diff.RowsDeleted = append(diff.RowsDeleted, row)
		}
	}
}

// rowKey generates a key for a row based on its primary key value
func rowKey(row schema.Row, column string) string {
	v, _ := row.Get(column)

	// Use JSON encoding for consistent key generation
	keyJSON, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v.Interface())
	}

	return string(keyJSON)
}

// rowSignature encodes a whole row. Map keys marshal in sorted order.
func rowSignature(row schema.Row) string {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Sprintf("%v", row)
	}
	return string(data)
}

// rowsEqual checks if two rows are equal
func rowsEqual(a, b schema.Row) bool {
	if len(a) != len(b) {
		return false
	}

	for key, valA := range a {
		valB, exists := b.Get(key)
		if !exists || !valuesEqual(valA, valB) {
			return false
		}
	}

	return true
}
