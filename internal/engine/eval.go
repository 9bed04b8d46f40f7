package engine

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/sql"
)

// env is what an expression is evaluated against: the current row and, for
// aggregates, the rows of its group.
type env struct {
	row   schema.Row
	group []schema.Row
}

func eval(ev *env, expr sql.Expr) schema.Value {
	switch x := expr.(type) {
	case nil:
		return schema.Null()
	case *sql.Literal:
		return x.Value
	case *sql.ColumnRef:
		if v, ok := ev.row.Get(x.Name); ok {
			return v
		}
		return sql.ParseValue(x.Name)
	case *sql.UnaryExpr:
		v := eval(ev, x.Expr)
		if x.Op == "NOT" {
			return schema.Boolean(!v.Truthy())
		}
		if n, ok := v.AsNumber(); ok {
			return schema.Number(-n)
		}
		return schema.Null()
	case *sql.BinaryExpr:
		return evalBinary(ev, x)
	case *sql.LikeExpr:
		ok := like(eval(ev, x.Expr), eval(ev, x.Pattern))
		return schema.Boolean(ok != x.Not)
	case *sql.BetweenExpr:
		v := eval(ev, x.Expr)
		lo, okLo := schema.Compare(v, eval(ev, x.Low))
		hi, okHi := schema.Compare(v, eval(ev, x.High))
		if !okLo || !okHi {
			return schema.Boolean(false)
		}
		return schema.Boolean((lo >= 0 && hi <= 0) != x.Not)
	case *sql.InExpr:
		v := eval(ev, x.Expr)
		if v.IsNull() {
			return schema.Boolean(false)
		}
		found := false
		for _, item := range x.List {
			if schema.LooseEqual(v, eval(ev, item)) {
				found = true
				break
			}
		}
		return schema.Boolean(found != x.Not)
	case *sql.IsNullExpr:
		return schema.Boolean(eval(ev, x.Expr).IsNull() != x.Not)
	case *sql.CaseExpr:
		return evalCase(ev, x)
	case *sql.ExtractExpr:
		return extract(x.Part, eval(ev, x.From))
	case *sql.FuncCall:
		if sql.IsAggregate(x.Name) {
			return aggregate(x, ev.group)
		}
		return callScalar(ev, x)
	default:
		// DEFAULT and window expressions are resolved before evaluation
		return schema.Null()
	}
}

func arithmetic(op string, l, r schema.Value) schema.Value {
	a, okA := l.AsNumber()
	b, okB := r.AsNumber()
	if !okA || !okB {
		return schema.Null()
	}
	switch op {
	case "+":
		return schema.Number(a + b)
	case "-":
		return schema.Number(a - b)
	case "*":
		return schema.Number(a * b)
	case "/":
		if b == 0 {
			return schema.Null()
		}
		return schema.Number(a / b)
	case "%":
		if b == 0 {
			return schema.Null()
		}
		return schema.Number(math.Mod(a, b))
	}
	return schema.Null()
}

func evalCase(ev *env, x *sql.CaseExpr) schema.Value {
	if x.Operand != nil {
		operand := eval(ev, x.Operand)
		for _, w := range x.Whens {
			if schema.LooseEqual(operand, eval(ev, w.Cond)) {
				return eval(ev, w.Result)
			}
		}
	} else {
		for _, w := range x.Whens {
			if test(ev, w.Cond) {
				return eval(ev, w.Result)
			}
		}
	}
	return eval(ev, x.Else)
}

func extract(part string, v schema.Value) schema.Value {
	t, ok := v.AsDate()
	if !ok {
		return schema.Null()
	}
	switch part {
	case "YEAR":
		return schema.Number(float64(t.Year()))
	case "MONTH":
		return schema.Number(float64(t.Month()))
	case "DAY":
		return schema.Number(float64(t.Day()))
	}
	return schema.Null()
}

func callScalar(ev *env, call *sql.FuncCall) schema.Value {
	args := make([]schema.Value, len(call.Args))
	for i, a := range call.Args {
		args[i] = eval(ev, a)
	}
	if call.Name == "COALESCE" {
		for _, v := range args {
			if !v.IsNull() {
				return v
			}
		}
		return schema.Null()
	}
	if len(args) == 0 || args[0].IsNull() {
		return schema.Null()
	}

	switch call.Name {
	case "UPPER":
		return schema.Text(strings.ToUpper(args[0].String()))
	case "LOWER":
		return schema.Text(strings.ToLower(args[0].String()))
	case "LENGTH":
		return schema.Number(float64(utf8.RuneCountInString(args[0].String())))
	case "ABS":
		if n, ok := args[0].AsNumber(); ok {
			return schema.Number(math.Abs(n))
		}
	case "ROUND":
		n, ok := args[0].AsNumber()
		if !ok {
			return schema.Null()
		}
		digits := 0.0
		if len(args) > 1 {
			if d, ok := args[1].AsNumber(); ok {
				digits = math.Trunc(d)
			}
		}
		scale := math.Pow(10, digits)
		if math.IsInf(scale, 0) || math.IsInf(n*scale, 0) {
			return schema.Number(n)
		}
		if scale == 0 {
			return schema.Number(0)
		}
		return schema.Number(math.Round(n*scale) / scale)
	}
	return schema.Null()
}
