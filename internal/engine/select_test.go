package engine

import (
	"testing"

	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/seed"
)

func TestSelectWhereOrderBy(t *testing.T) {
	e := New(seed.Snapshot())

	res := mustExec(t, e, "SELECT name FROM products WHERE price > 50 AND category = 'Electronics' ORDER BY price DESC")
	expectTexts(t, column(res, "name"), "Monitor 24inch", "Mechanical Keyboard")

	res = mustExec(t, e, "SELECT id FROM products ORDER BY id DESC LIMIT 2 OFFSET 1")
	expectNumbers(t, column(res, "id"), 104, 103)

	res = mustExec(t, e, "SELECT id FROM products LIMIT 2 OFFSET 10")
	if len(res.Rows) != 0 {
		t.Fatalf("expected no rows past the end, got %d", len(res.Rows))
	}
}

func TestSelectLike(t *testing.T) {
	e := New(seed.Snapshot())
	cases := []struct {
		pattern string
		want    int
	}{
		{"%example.com", 5},
		{"alice%", 1},
		{"%o%", 3},
		{"bob@example.com", 1},
		{"ALICE%", 0},
	}
	for _, c := range cases {
		field := "email"
		if c.pattern == "%o%" {
			field = "name"
		}
		res := mustExec(t, e, "SELECT id FROM customers WHERE "+field+" LIKE '"+c.pattern+"'")
		if len(res.Rows) != c.want {
			t.Fatalf("LIKE %q: expected %d rows, got %d", c.pattern, c.want, len(res.Rows))
		}
	}

	res := mustExec(t, e, "SELECT id FROM customers WHERE name NOT LIKE '%o%'")
	expectNumbers(t, column(res, "id"), 4, 5)
}

func TestSelectPredicates(t *testing.T) {
	e := New(seed.Snapshot())

	res := mustExec(t, e, "SELECT id FROM orders WHERE total BETWEEN 29.99 AND 102.49")
	expectNumbers(t, column(res, "id"), 1001, 1002, 1005)

	res = mustExec(t, e, "SELECT id FROM orders WHERE status IN ('pending', 'shipped')")
	expectNumbers(t, column(res, "id"), 1002, 1004)

	res = mustExec(t, e, "SELECT id FROM orders WHERE status NOT IN ('pending', 'shipped') AND customer_id != 1")
	expectNumbers(t, column(res, "id"), 1005)

	res = mustExec(t, e, "SELECT name FROM products WHERE category = Kitchen")
	expectTexts(t, column(res, "name"), "Coffee Mug")

	res = mustExec(t, e, "SELECT id FROM orders WHERE created_at >= '2023-10-05' AND NOT status = 'cancelled'")
	expectNumbers(t, column(res, "id"), 1003, 1004)
}

func TestSelectNulls(t *testing.T) {
	e := New(schema.NewSnapshot())
	mustExec(t, e, "CREATE TABLE t (id INT, v INT)")
	mustExec(t, e, "INSERT INTO t VALUES (1, 10), (2, NULL), (3, 30)")

	res := mustExec(t, e, "SELECT id FROM t WHERE v IS NULL")
	expectNumbers(t, column(res, "id"), 2)

	res = mustExec(t, e, "SELECT id FROM t WHERE v < 100")
	expectNumbers(t, column(res, "id"), 1, 3)

	res = mustExec(t, e, "SELECT id FROM t ORDER BY v")
	expectNumbers(t, column(res, "id"), 2, 1, 3)

	res = mustExec(t, e, "SELECT COALESCE(v, 0) AS v FROM t")
	expectNumbers(t, column(res, "v"), 10, 0, 30)
}

func TestSelectStarFillsMissingKeys(t *testing.T) {
	e := New(schema.NewSnapshot(&schema.Table{
		Name:    "t",
		Columns: []schema.Column{{Name: "a", Type: "INT"}, {Name: "b", Type: "INT"}},
		Data:    []schema.Row{{"a": schema.Number(1)}},
	}))

	res := mustExec(t, e, "SELECT * FROM t")
	if len(res.Columns) != 2 || res.Columns[1] != "b" {
		t.Fatalf("unexpected columns %v", res.Columns)
	}
	if v, ok := res.Rows[0]["b"]; !ok || !v.IsNull() {
		t.Fatalf("expected b to be NULL, got %#v", v)
	}

	res = mustExec(t, e, "SELECT a FROM t WHERE b IS NULL")
	expectNumbers(t, column(res, "a"), 1)
}

func TestSelectErrors(t *testing.T) {
	e := New(seed.Snapshot())
	expectError(t, e, "SELECT nope FROM products", "Column 'nope' not found")
	expectError(t, e, "SELECT * FROM nope", "Table 'nope' not found")
	expectError(t, e, "SELECT 1", "Syntax error: Missing FROM clause")

	res := mustExec(t, e, "SELECT id, name FROM products WHERE id = 0")
	if len(res.Rows) != 0 || len(res.Columns) != 2 {
		t.Fatalf("expected empty result keeping its columns, got %#v", res)
	}
}

func TestSelectExpressions(t *testing.T) {
	e := New(seed.Snapshot())

	res := mustExec(t, e, "SELECT name, CASE WHEN price > 100 THEN 'high' WHEN price > 20 THEN 'mid' ELSE 'low' END AS band FROM products ORDER BY id")
	expectTexts(t, column(res, "band"), "mid", "mid", "high", "low", "low")

	res = mustExec(t, e, "SELECT CASE status WHEN 'completed' THEN 1 ELSE 0 END AS done FROM orders")
	expectNumbers(t, column(res, "done"), 1, 0, 1, 0, 0)

	res = mustExec(t, e, "SELECT EXTRACT(MONTH FROM created_at) AS m, EXTRACT(DAY FROM created_at) AS d FROM orders WHERE id = 1003")
	expectNumbers(t, column(res, "m"), 10)
	expectNumbers(t, column(res, "d"), 5)

	res = mustExec(t, e, "SELECT EXTRACT(YEAR FROM status) AS y FROM orders WHERE id = 1001")
	if v := res.Rows[0]["y"]; !v.IsNull() {
		t.Fatalf("expected NULL for an invalid date, got %#v", v)
	}

	res = mustExec(t, e, "SELECT UPPER(name) AS u, LENGTH(name) AS l, ROUND(price, 1) AS r, stock % 7 AS m FROM products WHERE id = 101")
	expectTexts(t, column(res, "u"), "WIRELESS MOUSE")
	expectNumbers(t, column(res, "l"), 14)
	expectNumbers(t, column(res, "r"), 30)
	expectNumbers(t, column(res, "m"), 3)

	res = mustExec(t, e, "SELECT ROUND(price, 400) AS big, ROUND(price, -400) AS tiny FROM products WHERE id = 101")
	expectNumbers(t, column(res, "big"), 29.99)
	expectNumbers(t, column(res, "tiny"), 0)

	res = mustExec(t, e, "SELECT price / 0 AS a, name * 2 AS b, stock - 50 AS c FROM products WHERE id = 102")
	if !res.Rows[0]["a"].IsNull() || !res.Rows[0]["b"].IsNull() {
		t.Fatalf("expected NULL arithmetic results, got %#v", res.Rows[0])
	}
	expectNumbers(t, column(res, "c"), 25)
}

func TestSelectOutputNames(t *testing.T) {
	e := New(seed.Snapshot())
	res := mustExec(t, e, "SELECT id, price * stock, name AS label FROM products LIMIT 1")
	want := []string{"id", "price * stock", "label"}
	for i, c := range want {
		if res.Columns[i] != c {
			t.Fatalf("expected columns %v, got %v", want, res.Columns)
		}
	}
}

func TestAggregatesWithoutGroupBy(t *testing.T) {
	e := New(seed.Snapshot())

	res := mustExec(t, e, "SELECT COUNT(*), SUM(amount), AVG(amount), MIN(amount), MAX(region) FROM sales")
	if len(res.Rows) != 1 {
		t.Fatalf("expected one row, got %d", len(res.Rows))
	}
	expectNumbers(t, column(res, "COUNT(*)"), 6)
	expectNumbers(t, column(res, "SUM(amount)"), 900)
	expectNumbers(t, column(res, "AVG(amount)"), 150)
	expectNumbers(t, column(res, "MIN(amount)"), 50)
	expectTexts(t, column(res, "MAX(region)"), "South")

	res = mustExec(t, e, "SELECT COUNT(*) AS c, SUM(amount) AS s, AVG(amount) AS a, MAX(amount) AS m FROM sales WHERE amount > 1000")
	if len(res.Rows) != 1 {
		t.Fatalf("expected one row for an empty group, got %d", len(res.Rows))
	}
	expectNumbers(t, column(res, "c"), 0)
	expectNumbers(t, column(res, "s"), 0)
	if !res.Rows[0]["a"].IsNull() || !res.Rows[0]["m"].IsNull() {
		t.Fatalf("expected NULL AVG and MAX, got %#v", res.Rows[0])
	}

	res = mustExec(t, e, "SELECT salesperson, COUNT(*) AS n FROM sales")
	expectTexts(t, column(res, "salesperson"), "Alice")
	expectNumbers(t, column(res, "n"), 6)
}

func TestAggregatesIgnoreNulls(t *testing.T) {
	e := New(schema.NewSnapshot())
	mustExec(t, e, "CREATE TABLE t (v INT)")
	mustExec(t, e, "INSERT INTO t VALUES (1), (NULL), (3)")

	res := mustExec(t, e, "SELECT COUNT(*) AS a, COUNT(v) AS b, AVG(v) AS c, MIN(v) AS d FROM t")
	expectNumbers(t, column(res, "a"), 3)
	expectNumbers(t, column(res, "b"), 2)
	expectNumbers(t, column(res, "c"), 2)
	expectNumbers(t, column(res, "d"), 1)
}

func TestGroupByHaving(t *testing.T) {
	e := New(seed.Snapshot())

	res := mustExec(t, e, "SELECT region, COUNT(*) AS n, SUM(amount) AS total FROM sales GROUP BY region ORDER BY n DESC, region")
	expectTexts(t, column(res, "region"), "North", "South", "East")
	expectNumbers(t, column(res, "n"), 3, 2, 1)
	expectNumbers(t, column(res, "total"), 300, 300, 300)

	res = mustExec(t, e, "SELECT region FROM sales GROUP BY region HAVING COUNT(*) > 1")
	expectTexts(t, column(res, "region"), "North", "South")

	res = mustExec(t, e, "SELECT status, COUNT(*) AS n FROM orders GROUP BY status HAVING n = 2")
	expectTexts(t, column(res, "status"), "completed")

	disabled := New(seed.Snapshot(), WithGroupBy(false))
	if res := disabled.Execute("SELECT region, COUNT(*) FROM sales GROUP BY region"); !res.IsError() {
		t.Fatalf("expected GROUP BY to be rejected when disabled")
	}
	res = mustExec(t, disabled, "SELECT COUNT(*) AS n FROM sales")
	expectNumbers(t, column(res, "n"), 6)
}

func TestSelectQuotedColumnNames(t *testing.T) {
	e := New(schema.NewSnapshot())
	mustExec(t, e, "CREATE TABLE kw (`order` INT, `end` TEXT)")
	mustExec(t, e, "INSERT INTO kw VALUES (2, 'b'), (1, 'a')")

	res := mustExec(t, e, "SELECT `order`, `end` FROM kw ORDER BY `order`")
	if len(res.Columns) != 2 || res.Columns[0] != "order" || res.Columns[1] != "end" {
		t.Fatalf("expected bare column names, got %v", res.Columns)
	}
	expectNumbers(t, column(res, "order"), 1, 2)
	expectTexts(t, column(res, "end"), "a", "b")
}
