package schema

import "strings"

// Column represents a table column definition
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"notNull,omitempty"`
	Unique     bool   `json:"unique,omitempty"`
	PrimaryKey bool   `json:"primaryKey,omitempty"`
	Default    *Value `json:"defaultValue,omitempty"`
}

// HasDefault reports whether the column declares a DEFAULT
func (c Column) HasDefault() bool {
	return c.Default != nil
}

// Clone returns a copy that shares nothing with c
func (c Column) Clone() Column {
	if c.Default != nil {
		d := *c.Default
		c.Default = &d
	}
	return c
}

// Row represents a single row of data keyed by column name
type Row map[string]Value

// Get looks up a column case-insensitively. Missing keys read as NULL.
func (r Row) Get(name string) (Value, bool) {
	if v, ok := r[name]; ok {
		return v, true
	}
	for key, v := range r {
		if strings.EqualFold(key, name) {
			return v, true
		}
	}
	return Null(), false
}

// Clone returns a copy of the row. The copy is never nil.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table represents a table with its columns and data
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Data    []Row    `json:"data"`
}

// Column returns the column definition matching name case-insensitively
func (t *Table) Column(name string) (*Column, int) {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i], i
		}
	}
	return nil, -1
}

// ColumnNames returns the declared column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// PrimaryKey returns the primary key column, if any
func (t *Table) PrimaryKey() *Column {
	for i := range t.Columns {
		if t.Columns[i].PrimaryKey {
			return &t.Columns[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := &Table{
		Name:    t.Name,
		Columns: make([]Column, len(t.Columns)),
		Data:    make([]Row, len(t.Data)),
	}
	for i, col := range t.Columns {
		out.Columns[i] = col.Clone()
	}
	for i, row := range t.Data {
		out.Data[i] = row.Clone()
	}
	return out
}

// Snapshot is an ordered collection of tables
type Snapshot struct {
	Tables []*Table `json:"tables"`
}

// NewSnapshot builds a snapshot from the given tables without copying them
func NewSnapshot(tables ...*Table) *Snapshot {
	return &Snapshot{Tables: tables}
}

// Table finds a table by name case-insensitively
func (s *Snapshot) Table(name string) (*Table, int) {
	for i, t := range s.Tables {
		if strings.EqualFold(t.Name, name) {
			return t, i
		}
	}
	return nil, -1
}

// TableNames returns table names in store order
func (s *Snapshot) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// Clone returns a deep copy of the snapshot. A nil snapshot clones to an empty one.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{Tables: []*Table{}}
	if s == nil {
		return out
	}
	for _, t := range s.Tables {
		out.Tables = append(out.Tables, t.Clone())
	}
	return out
}
