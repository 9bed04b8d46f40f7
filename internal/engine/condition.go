package engine

import (
	"strings"

	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/sql"
)

// test evaluates a condition. A missing condition matches every row.
func test(ev *env, cond sql.Expr) bool {
	if cond == nil {
		return true
	}
	return eval(ev, cond).Truthy()
}

func evalBinary(ev *env, x *sql.BinaryExpr) schema.Value {
	switch x.Op {
	case "AND":
		return schema.Boolean(test(ev, x.Left) && test(ev, x.Right))
	case "OR":
		return schema.Boolean(test(ev, x.Left) || test(ev, x.Right))
	}

	l, r := eval(ev, x.Left), eval(ev, x.Right)
	switch x.Op {
	case "=":
		return schema.Boolean(schema.LooseEqual(l, r))
	case "!=":
		return schema.Boolean(!schema.LooseEqual(l, r))
	case "<", "<=", ">", ">=":
		c, ok := schema.Compare(l, r)
		if !ok {
			return schema.Boolean(false)
		}
		switch x.Op {
		case "<":
			return schema.Boolean(c < 0)
		case "<=":
			return schema.Boolean(c <= 0)
		case ">":
			return schema.Boolean(c > 0)
		default:
			return schema.Boolean(c >= 0)
		}
	}
	return arithmetic(x.Op, l, r)
}

// like matches %x% (contains), %x (suffix), x% (prefix) or x (exact).
// NULL on either side matches as the empty string.
func like(v, pattern schema.Value) bool {
	s, p := v.String(), pattern.String()
	switch {
	case len(p) >= 2 && strings.HasPrefix(p, "%") && strings.HasSuffix(p, "%"):
		return strings.Contains(s, p[1:len(p)-1])
	case strings.HasPrefix(p, "%"):
		return strings.HasSuffix(s, p[1:])
	case strings.HasSuffix(p, "%"):
		return strings.HasPrefix(s, p[:len(p)-1])
	}
	return s == p
}
