package sql

import (
	"errors"
	"strings"
	"testing"

	"github.com/koba/sqlplay/internal/schema"
)

func mustParse(t *testing.T, q string) Statement {
	t.Helper()
	stmt, err := Parse(q)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", q, err)
	}
	return stmt
}

func TestParseCreateTable(t *testing.T) {
	stmt := mustParse(t, "CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(50) NOT NULL, email TEXT UNIQUE, score DECIMAL(10,2) DEFAULT -1.5, note VARCHAR DEFAULT 'n/a');")

	ct, ok := stmt.(*CreateTableStmt)
	if !ok {
		t.Fatalf("expected *CreateTableStmt, got %T", stmt)
	}
	if ct.Name != "users" {
		t.Fatalf("expected table name users, got %s", ct.Name)
	}
	if len(ct.Columns) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(ct.Columns))
	}

	id := ct.Columns[0]
	if !id.PrimaryKey || !id.NotNull || !id.Unique || id.Type != "INT" {
		t.Fatalf("unexpected id column: %#v", id)
	}
	if name := ct.Columns[1]; !name.NotNull || name.Type != "VARCHAR(50)" {
		t.Fatalf("unexpected name column: %#v", name)
	}
	if email := ct.Columns[2]; !email.Unique || email.NotNull {
		t.Fatalf("unexpected email column: %#v", email)
	}
	if score := ct.Columns[3]; score.Type != "DECIMAL(10,2)" || score.Default == nil || score.Default.Num != -1.5 {
		t.Fatalf("unexpected score column: %#v", score)
	}
	if note := ct.Columns[4]; note.Default == nil || note.Default.Str != "n/a" {
		t.Fatalf("unexpected note column: %#v", note)
	}
}

func TestParseCreateTableConstraintClause(t *testing.T) {
	stmt := mustParse(t, "CREATE TABLE IF NOT EXISTS t (a INT, b INT, PRIMARY KEY (a), UNIQUE (b))")
	ct := stmt.(*CreateTableStmt)
	if !ct.IfNotExists {
		t.Fatalf("expected IF NOT EXISTS to be set")
	}
	if !ct.Columns[0].PrimaryKey || !ct.Columns[1].Unique {
		t.Fatalf("expected table constraints to apply, got %#v", ct.Columns)
	}
}

func TestParseCreateTableErrors(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"CREATE TABLE t", "Syntax error in CREATE TABLE"},
		{"CREATE TABLE t ()", "Syntax error in CREATE TABLE"},
		{"CREATE TABLE t (id INT BOGUS)", "Invalid column definition: id INT BOGUS"},
		{"CREATE TABLE t (id)", "Invalid column definition: id"},
	}
	for _, c := range cases {
		_, err := Parse(c.query)
		var syntaxErr *SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Fatalf("Parse(%q): expected SyntaxError, got %v", c.query, err)
		}
		if !strings.HasPrefix(err.Error(), c.want) {
			t.Fatalf("Parse(%q): expected error starting with %q, got %q", c.query, c.want, err.Error())
		}
	}
}

func TestParseInsert(t *testing.T) {
	stmt := mustParse(t, "INSERT INTO t (id, \"name\") VALUES (1, 'a(b), c'), (2, DEFAULT)")
	ins := stmt.(*InsertStmt)
	if ins.Table != "t" || len(ins.Columns) != 2 || ins.Columns[1] != "name" {
		t.Fatalf("unexpected insert: %#v", ins)
	}
	if len(ins.Rows) != 2 {
		t.Fatalf("expected 2 tuples, got %d", len(ins.Rows))
	}
	if lit, ok := ins.Rows[0][1].(*Literal); !ok || lit.Value.Str != "a(b), c" {
		t.Fatalf("expected text literal, got %#v", ins.Rows[0][1])
	}
	if _, ok := ins.Rows[1][1].(*DefaultExpr); !ok {
		t.Fatalf("expected DEFAULT, got %#v", ins.Rows[1][1])
	}
	if ins.RowText[0] != "(1, 'a(b), c')" {
		t.Fatalf("unexpected tuple text %q", ins.RowText[0])
	}
}

func TestParseInsertWithoutValues(t *testing.T) {
	_, err := Parse("INSERT INTO t VALUES")
	if err == nil || err.Error() != "No values provided for insertion" {
		t.Fatalf("expected no values error, got %v", err)
	}
}

func TestParseUpdate(t *testing.T) {
	stmt := mustParse(t, "UPDATE products SET price = price * 1.1, category = 'X' WHERE id = 101")
	up := stmt.(*UpdateStmt)
	if len(up.Assignments) != 2 || up.Assignments[1].Column != "category" {
		t.Fatalf("unexpected assignments: %#v", up.Assignments)
	}
	if _, ok := up.Assignments[0].Value.(*BinaryExpr); !ok {
		t.Fatalf("expected arithmetic assignment, got %#v", up.Assignments[0].Value)
	}
	if up.Where == nil {
		t.Fatalf("expected WHERE clause")
	}

	_, err := Parse("UPDATE products SET price 5")
	if err == nil || !strings.HasPrefix(err.Error(), "Invalid SET clause") {
		t.Fatalf("expected invalid SET clause error, got %v", err)
	}
}

func TestParseSelect(t *testing.T) {
	stmt := mustParse(t, `SELECT name, SUM(total) AS revenue, ROW_NUMBER() OVER (PARTITION BY region ORDER BY amount DESC) rn
		FROM sales WHERE amount BETWEEN 50 AND 200 AND region != 'East'
		GROUP BY name HAVING COUNT(*) > 1 ORDER BY revenue DESC, name LIMIT 3 OFFSET 1`)
	sel := stmt.(*SelectStmt)

	if sel.Table != "sales" || len(sel.Items) != 3 {
		t.Fatalf("unexpected select: %#v", sel)
	}
	if sel.Items[1].Name() != "revenue" || sel.Items[1].Text != "SUM(total)" {
		t.Fatalf("unexpected aggregate item: %#v", sel.Items[1])
	}
	w, ok := sel.Items[2].Expr.(*WindowExpr)
	if !ok || sel.Items[2].Alias != "rn" {
		t.Fatalf("expected window item with alias rn, got %#v", sel.Items[2])
	}
	if len(w.PartitionBy) != 1 || len(w.OrderBy) != 1 || !w.OrderBy[0].Desc {
		t.Fatalf("unexpected window spec: %#v", w)
	}
	if len(sel.GroupBy) != 1 || sel.Having == nil || len(sel.OrderBy) != 2 {
		t.Fatalf("unexpected clauses: %#v", sel)
	}
	if !sel.OrderBy[0].Desc || sel.OrderBy[1].Desc {
		t.Fatalf("unexpected order directions: %#v", sel.OrderBy)
	}
	if sel.Limit == nil || *sel.Limit != 3 || sel.Offset == nil || *sel.Offset != 1 {
		t.Fatalf("unexpected limit/offset")
	}
}

func TestParseSelectExtractIsNotFrom(t *testing.T) {
	_, err := Parse("SELECT EXTRACT(YEAR FROM created_at)")
	if err == nil || err.Error() != "Syntax error: Missing FROM clause" {
		t.Fatalf("expected missing FROM error, got %v", err)
	}

	stmt := mustParse(t, "SELECT EXTRACT(year FROM created_at) AS y FROM orders")
	item := stmt.(*SelectStmt).Items[0]
	ex, ok := item.Expr.(*ExtractExpr)
	if !ok || ex.Part != "YEAR" {
		t.Fatalf("expected EXTRACT(YEAR ...), got %#v", item.Expr)
	}
}

func TestParseArithmeticPrecedence(t *testing.T) {
	e, err := ParseExpr("1 + 2 * 3 - -4")
	if err != nil {
		t.Fatalf("ParseExpr failed: %v", err)
	}
	top, ok := e.(*BinaryExpr)
	if !ok || top.Op != "-" {
		t.Fatalf("expected top-level subtraction, got %#v", e)
	}
	if lit, ok := top.Right.(*Literal); !ok || lit.Value != schema.Number(-4) {
		t.Fatalf("expected folded -4, got %#v", top.Right)
	}
	left := top.Left.(*BinaryExpr)
	if left.Op != "+" {
		t.Fatalf("expected +, got %s", left.Op)
	}
	if mul, ok := left.Right.(*BinaryExpr); !ok || mul.Op != "*" {
		t.Fatalf("expected multiplication to bind tighter, got %#v", left.Right)
	}
}

func TestParseWindowRestrictions(t *testing.T) {
	bad := []string{
		"SELECT ROW_NUMBER() OVER () + 1 FROM t",
		"SELECT * FROM t WHERE ROW_NUMBER() OVER () = 1",
		"SELECT RANK() OVER (ORDER BY a) FROM t",
		"SELECT ROW_NUMBER() FROM t",
	}
	for _, q := range bad {
		if _, err := Parse(q); err == nil {
			t.Fatalf("Parse(%q): expected an error", q)
		}
	}
	mustParse(t, "SELECT SUM(amount) OVER (ORDER BY id ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW) FROM sales")
}

func TestParseUnsupported(t *testing.T) {
	for _, q := range []string{"BEGIN", "SELECT 1 FROM t; SELECT 2 FROM t", "INSERT t VALUES (1)", "SHOW TABLES"} {
		if _, err := Parse(q); !errors.Is(err, ErrUnsupported) {
			t.Fatalf("Parse(%q): expected ErrUnsupported, got %v", q, err)
		}
	}
	if _, err := Parse("  -- only a comment\n"); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestParseAlterTable(t *testing.T) {
	cases := []struct {
		query  string
		action AlterAction
	}{
		{"ALTER TABLE orders ADD COLUMN note VARCHAR DEFAULT 'n/a'", AlterAddColumn},
		{"ALTER TABLE orders ADD note VARCHAR", AlterAddColumn},
		{"ALTER TABLE orders DROP COLUMN note", AlterDropColumn},
		{"ALTER TABLE orders RENAME TO purchases", AlterRenameTable},
		{"ALTER TABLE orders RENAME COLUMN total TO amount", AlterRenameColumn},
	}
	for _, c := range cases {
		stmt := mustParse(t, c.query)
		if alt := stmt.(*AlterTableStmt); alt.Action != c.action {
			t.Fatalf("Parse(%q): expected action %d, got %d", c.query, c.action, alt.Action)
		}
	}

	_, err := Parse("ALTER TABLE orders TRUNCATE")
	if err == nil || err.Error() != usageAlterTable {
		t.Fatalf("expected ALTER usage error, got %v", err)
	}
}

func TestParseSelectQuotedItemNames(t *testing.T) {
	sel := mustParse(t, "SELECT `order`, `end` AS e, `order` + 1 FROM kw").(*SelectStmt)

	names := []string{sel.Items[0].Name(), sel.Items[1].Name(), sel.Items[2].Name()}
	if names[0] != "order" || names[1] != "e" || names[2] != "`order` + 1" {
		t.Fatalf("unexpected item names %q", names)
	}
}
