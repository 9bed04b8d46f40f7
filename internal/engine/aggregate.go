package engine

import (
	"strings"

	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/sql"
)

// aggregate folds call over rows. NULL inputs are ignored except by COUNT(*).
func aggregate(call *sql.FuncCall, rows []schema.Row) schema.Value {
	if call.Star {
		return schema.Number(float64(len(rows)))
	}

	var values []schema.Value
	for _, row := range rows {
		v := eval(&env{row: row, group: rows}, call.Args[0])
		if !v.IsNull() {
			values = append(values, v)
		}
	}

	switch call.Name {
	case "COUNT":
		return schema.Number(float64(len(values)))
	case "SUM":
		sum := 0.0
		for _, v := range values {
			if n, ok := v.AsNumber(); ok {
				sum += n
			}
		}
		return schema.Number(sum)
	case "AVG":
		sum, n := 0.0, 0
		for _, v := range values {
			if f, ok := v.AsNumber(); ok {
				sum += f
				n++
			}
		}
		if n == 0 {
			return schema.Null()
		}
		return schema.Number(sum / float64(n))
	case "MIN":
		return extreme(values, -1)
	case "MAX":
		return extreme(values, 1)
	}
	return schema.Null()
}

// extreme returns the smallest (dir < 0) or largest (dir > 0) value. Values
// compare numerically only when all of them are numeric.
func extreme(values []schema.Value, dir int) schema.Value {
	if len(values) == 0 {
		return schema.Null()
	}
	numeric := true
	nums := make([]float64, len(values))
	for i, v := range values {
		n, ok := v.AsNumber()
		if !ok {
			numeric = false
			break
		}
		nums[i] = n
	}

	best := 0
	for i := 1; i < len(values); i++ {
		var c int
		if numeric {
			switch {
			case nums[i] < nums[best]:
				c = -1
			case nums[i] > nums[best]:
				c = 1
			}
		} else {
			c = strings.Compare(values[i].String(), values[best].String())
		}
		if c*dir > 0 {
			best = i
		}
	}
	return values[best]
}
