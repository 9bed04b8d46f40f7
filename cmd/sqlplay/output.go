package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/koba/sqlplay/internal/engine"
	"github.com/koba/sqlplay/internal/schema"
)

// printer renders query results as tables or JSON
type printer struct {
	out        io.Writer
	jsonOutput bool
	quiet      bool
	timing     bool // print "Query executed in ..." after each statement
}

// printResult renders one statement result
func (p *printer) printResult(res *engine.QueryResult) error {
	if p.jsonOutput {
		return p.printJSON(res)
	}

	if res.IsQuery() {
		p.printTable(res)
	} else if !p.quiet {
		fmt.Fprintln(p.out, res.Message)
	}

	if p.timing && !p.quiet {
		fmt.Fprintf(p.out, "Query executed in %v\n", res.ExecutionTime)
	}
	return nil
}

func (p *printer) printTable(res *engine.QueryResult) {
	if len(res.Columns) > 0 {
		t := p.configureTable()

		headerRow := make(table.Row, len(res.Columns))
		for i, col := range res.Columns {
			headerRow[i] = col
		}
		t.AppendHeader(headerRow)

		for _, row := range res.Rows {
			t.AppendRow(tableRow(res.Columns, row))
		}
		t.Render()
	}

	rowText := "rows"
	if len(res.Rows) == 1 {
		rowText = "row"
	}
	fmt.Fprintf(p.out, "%d %s in set\n", len(res.Rows), rowText)
}

// configureTable creates a table writer with the rounded style
func (p *printer) configureTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	t.SetAutoIndex(false)
	t.Style().Options.SeparateRows = false
	return t
}

func tableRow(columns []string, row schema.Row) table.Row {
	out := make(table.Row, len(columns))
	for i, col := range columns {
		v, _ := row.Get(col)
		out[i] = formatCell(v)
	}
	return out
}

// formatCell formats a value for display
func formatCell(v schema.Value) string {
	if v.IsNull() {
		return "NULL"
	}
	return v.String()
}

func (p *printer) printJSON(res *engine.QueryResult) error {
	var result map[string]interface{}
	if res.IsQuery() {
		rows := make([][]schema.Value, len(res.Rows))
		for i, row := range res.Rows {
			rows[i] = make([]schema.Value, len(res.Columns))
			for j, col := range res.Columns {
				rows[i][j], _ = row.Get(col)
			}
		}
		result = map[string]interface{}{
			"columns": nonNil(res.Columns),
			"rows":    rows,
			"count":   len(res.Rows),
		}
	} else {
		result = map[string]interface{}{
			"message":         res.Message,
			"executionTimeMs": res.ExecutionTimeMs(),
		}
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(p.out, string(jsonBytes))
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
