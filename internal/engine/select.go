package engine

import (
	"sort"
	"strings"

	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/sql"
)

// outputRow is one row of a SELECT before projection: its source row, the
// group it stands for when aggregating, and the value of every select item.
type outputRow struct {
	src    schema.Row
	group  []schema.Row
	values []schema.Value
}

// scope merges the source columns with the select item values computed so
// far, so later clauses can refer to either. Item names win.
func (r *outputRow) scope(items []sql.SelectItem) *env {
	row := r.src.Clone()
	for i, item := range items {
		if _, ok := item.Expr.(*sql.WindowExpr); ok && r.values[i].IsNull() {
			continue
		}
		row[item.Name()] = r.values[i]
	}
	return &env{row: row, group: r.group}
}

func (e *Engine) executeSelect(s *sql.SelectStmt) (*QueryResult, error) {
	if !e.groupBy && (len(s.GroupBy) > 0 || s.Having != nil) {
		return nil, &sql.SyntaxError{Msg: "GROUP BY and HAVING are not enabled"}
	}

	t, _, err := e.store.lookup(s.Table)
	if err != nil {
		return nil, err
	}

	items := s.Items
	if s.Star {
		items = starItems(t)
	}

	aggregated := len(s.GroupBy) > 0 || s.Having != nil
	for _, item := range items {
		switch x := item.Expr.(type) {
		case *sql.WindowExpr:
			continue
		case *sql.ColumnRef:
			if c, _ := t.Column(x.Name); c == nil {
				return nil, columnNotFound(x.Name)
			}
		}
		if sql.ContainsAggregate(item.Expr) {
			aggregated = true
		}
	}

	var rows []schema.Row
	for _, row := range t.Data {
		full := completeRow(t, row)
		if test(&env{row: full}, s.Where) {
			rows = append(rows, full)
		}
	}

	var out []*outputRow
	if aggregated {
		for _, g := range groupRows(rows, s.GroupBy) {
			src := schema.Row{}
			if len(g) > 0 {
				src = g[0]
			}
			r := project(items, src, g)
			if s.Having != nil && !test(r.scope(items), s.Having) {
				continue
			}
			out = append(out, r)
		}
	} else {
		for _, row := range rows {
			out = append(out, project(items, row, nil))
		}
	}

	for i, item := range items {
		if w, ok := item.Expr.(*sql.WindowExpr); ok {
			computeWindow(w, out, items, i)
		}
	}

	if len(s.OrderBy) > 0 {
		sortOutput(out, items, s.OrderBy)
	}
	out = paginate(out, s.Offset, s.Limit)

	res := &QueryResult{Columns: make([]string, len(items)), Rows: make([]schema.Row, 0, len(out))}
	for i, item := range items {
		res.Columns[i] = item.Name()
	}
	for _, r := range out {
		row := make(schema.Row, len(items))
		for i, name := range res.Columns {
			row[name] = r.values[i]
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

// completeRow copies row, filling columns missing from it with NULL
func completeRow(t *schema.Table, row schema.Row) schema.Row {
	out := row.Clone()
	for _, col := range t.Columns {
		if _, ok := out.Get(col.Name); !ok {
			out[col.Name] = schema.Null()
		}
	}
	return out
}

func starItems(t *schema.Table) []sql.SelectItem {
	items := make([]sql.SelectItem, len(t.Columns))
	for i, col := range t.Columns {
		items[i] = sql.SelectItem{Expr: &sql.ColumnRef{Name: col.Name}, Text: col.Name}
	}
	return items
}

// groupRows splits rows by the stringified GROUP BY values in first-seen
// order. Without keys every row lands in one group, which may be empty.
func groupRows(rows []schema.Row, keys []sql.Expr) [][]schema.Row {
	if len(keys) == 0 {
		return [][]schema.Row{rows}
	}
	var order []string
	groups := make(map[string][]schema.Row)
	for _, row := range rows {
		key := groupKey(&env{row: row}, keys)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}
	out := make([][]schema.Row, len(order))
	for i, key := range order {
		out[i] = groups[key]
	}
	return out
}

// project evaluates every non-window item for one row or group
func project(items []sql.SelectItem, src schema.Row, group []schema.Row) *outputRow {
	r := &outputRow{src: src, group: group, values: make([]schema.Value, len(items))}
	ev := &env{row: src, group: group}
	for i, item := range items {
		if _, ok := item.Expr.(*sql.WindowExpr); ok {
			continue
		}
		r.values[i] = eval(ev, item.Expr)
	}
	return r
}

func sortOutput(out []*outputRow, items []sql.SelectItem, order []sql.OrderItem) {
	keys := make(map[*outputRow][]schema.Value, len(out))
	for _, r := range out {
		ev := r.scope(items)
		k := make([]schema.Value, len(order))
		for i, o := range order {
			if pos := itemIndex(items, o.Text); pos >= 0 {
				k[i] = r.values[pos]
			} else {
				k[i] = eval(ev, o.Expr)
			}
		}
		keys[r] = k
	}
	sort.SliceStable(out, func(a, b int) bool {
		return compareKeys(keys[out[a]], keys[out[b]], order) < 0
	})
}

// itemIndex finds the select item whose alias or text is name
func itemIndex(items []sql.SelectItem, name string) int {
	for i, item := range items {
		if strings.EqualFold(item.Alias, name) {
			return i
		}
	}
	for i, item := range items {
		if strings.EqualFold(item.Text, name) {
			return i
		}
	}
	return -1
}

func paginate(out []*outputRow, offset, limit *int) []*outputRow {
	if offset != nil {
		if *offset >= len(out) {
			return nil
		}
		if *offset > 0 {
			out = out[*offset:]
		}
	}
	if limit != nil && *limit >= 0 && *limit < len(out) {
		out = out[:*limit]
	}
	return out
}
