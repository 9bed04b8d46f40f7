package engine

import (
	"sort"
	"strings"

	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/sql"
)

// computeWindow fills values[col] of every output row with the window
// function w evaluated over its partition.
func computeWindow(w *sql.WindowExpr, rows []*outputRow, items []sql.SelectItem, col int) {
	scopes := make([]*env, len(rows))
	for i, r := range rows {
		scopes[i] = r.scope(items)
	}

	var order []string
	partitions := make(map[string][]int)
	for i, ev := range scopes {
		key := groupKey(ev, w.PartitionBy)
		if _, ok := partitions[key]; !ok {
			order = append(order, key)
		}
		partitions[key] = append(partitions[key], i)
	}

	for _, key := range order {
		idx := partitions[key]
		if len(w.OrderBy) > 0 {
			keys := make(map[int][]schema.Value, len(idx))
			for _, i := range idx {
				keys[i] = orderKeys(scopes[i], w.OrderBy)
			}
			sort.SliceStable(idx, func(a, b int) bool {
				return compareKeys(keys[idx[a]], keys[idx[b]], w.OrderBy) < 0
			})
		}
		fillPartition(w, idx, rows, scopes, col)
	}
}

func fillPartition(w *sql.WindowExpr, idx []int, rows []*outputRow, scopes []*env, col int) {
	call := w.Func
	if call.Name == "ROW_NUMBER" {
		for n, i := range idx {
			rows[i].values[col] = schema.Number(float64(n + 1))
		}
		return
	}

	if len(w.OrderBy) == 0 {
		group := make([]schema.Row, len(idx))
		for n, i := range idx {
			group[n] = scopes[i].row
		}
		total := aggregate(call, group)
		for _, i := range idx {
			rows[i].values[col] = total
		}
		return
	}

	sum := 0.0
	for n, i := range idx {
		if !call.Star {
			if v, ok := eval(scopes[i], call.Args[0]).AsNumber(); ok {
				sum += v
			}
		}
		count := float64(n + 1)
		switch call.Name {
		case "SUM":
			rows[i].values[col] = schema.Number(sum)
		case "AVG":
			rows[i].values[col] = schema.Number(sum / count)
		case "COUNT":
			rows[i].values[col] = schema.Number(count)
		}
	}
}

// groupKey stringifies the values of exprs so equal tuples share a key
func groupKey(ev *env, exprs []sql.Expr) string {
	var b strings.Builder
	for _, e := range exprs {
		v := eval(ev, e)
		if v.IsNull() {
			b.WriteString("\x01")
		} else {
			b.WriteString(v.String())
		}
		b.WriteByte(0)
	}
	return b.String()
}

func orderKeys(ev *env, items []sql.OrderItem) []schema.Value {
	keys := make([]schema.Value, len(items))
	for i, item := range items {
		keys[i] = eval(ev, item.Expr)
	}
	return keys
}

// compareKeys orders two key tuples with NULLs first; DESC reverses a key
func compareKeys(a, b []schema.Value, items []sql.OrderItem) int {
	for i, item := range items {
		c := schema.SortCompare(a[i], b[i])
		if item.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}
