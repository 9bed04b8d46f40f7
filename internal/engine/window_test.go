package engine

import (
	"testing"

	"github.com/koba/sqlplay/internal/seed"
)

func TestRowNumberPartitioned(t *testing.T) {
	e := New(seed.Snapshot())
	res := mustExec(t, e, "SELECT id, region, ROW_NUMBER() OVER (PARTITION BY region ORDER BY amount DESC) AS rn FROM sales ORDER BY id")
	expectNumbers(t, column(res, "rn"), 2, 1, 1, 1, 2, 3)
}

func TestRunningWindowAggregates(t *testing.T) {
	e := New(seed.Snapshot())

	res := mustExec(t, e, "SELECT id, SUM(amount) OVER (ORDER BY sale_date) AS running FROM sales ORDER BY id")
	expectNumbers(t, column(res, "running"), 100, 300, 450, 750, 850, 900)

	res = mustExec(t, e, "SELECT id, AVG(amount) OVER (PARTITION BY region ORDER BY id) AS a, COUNT(*) OVER (PARTITION BY region ORDER BY id) AS c FROM sales WHERE region = 'North'")
	expectNumbers(t, column(res, "a"), 100, 125, 100)
	expectNumbers(t, column(res, "c"), 1, 2, 3)
}

func TestBroadcastWindowAggregates(t *testing.T) {
	e := New(seed.Snapshot())

	res := mustExec(t, e, "SELECT id, SUM(amount) OVER (PARTITION BY region) AS total, COUNT(*) OVER () AS n FROM sales ORDER BY id")
	expectNumbers(t, column(res, "total"), 300, 300, 300, 300, 300, 300)
	expectNumbers(t, column(res, "n"), 6, 6, 6, 6, 6, 6)

	res = mustExec(t, e, "SELECT id, AVG(price) OVER (PARTITION BY category) AS a FROM products WHERE category != 'Electronics' ORDER BY id")
	expectNumbers(t, column(res, "a"), 12.5, 5.99)
}

func TestWindowOverGroups(t *testing.T) {
	e := New(seed.Snapshot())
	res := mustExec(t, e, "SELECT region, SUM(amount) AS total, ROW_NUMBER() OVER (ORDER BY region) AS rn FROM sales GROUP BY region")
	expectTexts(t, column(res, "region"), "North", "South", "East")
	expectNumbers(t, column(res, "rn"), 2, 3, 1)
}

func TestWindowOrderByAlias(t *testing.T) {
	e := New(seed.Snapshot())
	res := mustExec(t, e, "SELECT name, ROW_NUMBER() OVER (ORDER BY price DESC) AS rank FROM products ORDER BY rank LIMIT 2")
	expectTexts(t, column(res, "name"), "Monitor 24inch", "Mechanical Keyboard")
}
