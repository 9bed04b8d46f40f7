package diff

import (
	"strings"

	"github.com/koba/sqlplay/internal/schema"
)

// Action represents the type of change
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionDrop   Action = "DROP"
	ActionModify Action = "MODIFY"
)

// SchemaDiff represents schema differences for a table
type SchemaDiff struct {
	TableName     string
	Action        Action
	OldTable      *schema.Table
	NewTable      *schema.Table
	ColumnChanges []ColumnChange
}

// ColumnChange represents a change to a column
type ColumnChange struct {
	ColumnName string
	Action     Action
	OldColumn  *schema.Column
	NewColumn  *schema.Column
}

// compareSchemas compares the column definitions of two versions of a table.
// Changes are listed in the new table's column order, drops last.
func compareSchemas(old, new *schema.Table) *SchemaDiff {
	diff := &SchemaDiff{
		TableName:     new.Name,
		Action:        ActionModify,
		OldTable:      old,
		NewTable:      new,
		ColumnChanges: []ColumnChange{},
	}

	for i := range new.Columns {
		newCol := &new.Columns[i]
		oldCol, _ := old.Column(newCol.Name)
		switch {
		case oldCol == nil:
			diff.ColumnChanges = append(diff.ColumnChanges, ColumnChange{
				ColumnName: newCol.Name,
				Action:     ActionAdd,
				NewColumn:  newCol,
			})
		case !columnsEqual(oldCol, newCol):
			diff.ColumnChanges = append(diff.ColumnChanges, ColumnChange{
				ColumnName: newCol.Name,
				Action:     ActionModify,
				OldColumn:  oldCol,
				NewColumn:  newCol,
			})
		}
	}

	for i := range old.Columns {
		oldCol := &old.Columns[i]
		if c, _ := new.Column(oldCol.Name); c == nil {
			diff.ColumnChanges = append(diff.ColumnChanges, ColumnChange{
				ColumnName: oldCol.Name,
				Action:     ActionDrop,
				OldColumn:  oldCol,
			})
		}
	}

	// Return nil if no changes
	if len(diff.ColumnChanges) == 0 {
		return nil
	}

	return diff
}

func columnsEqual(a, b *schema.Column) bool {
	if !strings.EqualFold(a.Type, b.Type) || a.NotNull != b.NotNull || a.Unique != b.Unique || a.PrimaryKey != b.PrimaryKey {
		return false
	}

	// Compare default values
	if (a.Default == nil) != (b.Default == nil) {
		return false
	}
	if a.Default != nil && !valuesEqual(*a.Default, *b.Default) {
		return false
	}

	return true
}

func valuesEqual(a, b schema.Value) bool {
	return a.Kind == b.Kind && schema.LooseEqual(a, b)
}
