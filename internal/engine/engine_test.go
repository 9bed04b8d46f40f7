package engine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/seed"
	"github.com/koba/sqlplay/internal/sql"
)

func mustExec(t *testing.T, e *Engine, query string) *QueryResult {
	t.Helper()
	res := e.Execute(query)
	if res.IsError() {
		t.Fatalf("Execute(%q) failed: %s", query, res.Error)
	}
	return res
}

func expectError(t *testing.T, e *Engine, query, want string) {
	t.Helper()
	res := e.Execute(query)
	if res.Error != want {
		t.Fatalf("Execute(%q): expected error %q, got %q", query, want, res.Error)
	}
	if res.Rows != nil || res.Columns != nil || res.Message != "" {
		t.Fatalf("Execute(%q): expected no data alongside the error, got %#v", query, res)
	}
}

func expectMessage(t *testing.T, e *Engine, query, want string) {
	t.Helper()
	res := mustExec(t, e, query)
	if res.Message != want {
		t.Fatalf("Execute(%q): expected message %q, got %q", query, want, res.Message)
	}
}

// column returns the values of one output column in row order
func column(res *QueryResult, name string) []schema.Value {
	out := make([]schema.Value, len(res.Rows))
	for i, row := range res.Rows {
		out[i] = row[name]
	}
	return out
}

func expectNumbers(t *testing.T, got []schema.Value, want ...float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d: %v", len(want), len(got), got)
	}
	for i, v := range got {
		if v.Kind != schema.KindNumber || v.Num != want[i] {
			t.Fatalf("value %d: expected %v, got %#v", i, want[i], v)
		}
	}
}

func expectTexts(t *testing.T, got []schema.Value, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d: %v", len(want), len(got), got)
	}
	for i, v := range got {
		if v.Kind != schema.KindText || v.Str != want[i] {
			t.Fatalf("value %d: expected %q, got %#v", i, want[i], v)
		}
	}
}

func usersEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(schema.NewSnapshot())
	expectMessage(t, e, "CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR NOT NULL, email VARCHAR UNIQUE, active BOOLEAN DEFAULT TRUE)",
		"Table 'users' created successfully.")
	expectMessage(t, e, "INSERT INTO users (id, name, email) VALUES (1, 'a', 'a@x'), (2, 'b', 'b@x');",
		"2 row(s) inserted into 'users'.")
	return e
}

func TestEmptyQuery(t *testing.T) {
	e := New(seed.Snapshot())
	for _, q := range []string{"", "   \n", "-- nothing here", "/* block */"} {
		res := e.Execute(q)
		if res.Error != "Query is empty" {
			t.Fatalf("Execute(%q): expected empty query error, got %q", q, res.Error)
		}
		if res.ExecutionTime != 0 {
			t.Fatalf("Execute(%q): expected no execution time, got %v", q, res.ExecutionTime)
		}
	}
	if _, err := e.Exec(" "); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestCreateInsertSelect(t *testing.T) {
	e := usersEngine(t)

	res := mustExec(t, e, "SELECT * FROM users")
	want := []string{"id", "name", "email", "active"}
	if len(res.Columns) != len(want) {
		t.Fatalf("expected columns %v, got %v", want, res.Columns)
	}
	for i, c := range want {
		if res.Columns[i] != c {
			t.Fatalf("expected columns %v, got %v", want, res.Columns)
		}
	}
	expectNumbers(t, column(res, "id"), 1, 2)
	for _, v := range column(res, "active") {
		if v.Kind != schema.KindBoolean || !v.Bool {
			t.Fatalf("expected default TRUE, got %#v", v)
		}
	}

	expectError(t, e, "CREATE TABLE users (id INT)", "Table 'users' already exists")
	expectMessage(t, e, "CREATE TABLE IF NOT EXISTS users (id INT)", "Table 'users' already exists, skipped.")
	expectError(t, e, "CREATE TABLE dup (a INT, A TEXT)", "Column 'A' already exists in table 'dup'")
}

func TestInsertIsAllOrNothing(t *testing.T) {
	e := usersEngine(t)

	expectError(t, e, "INSERT INTO users (id, name, email) VALUES (3, 'c', 'c@x'), (3, 'd', 'd@x')",
		"PRIMARY KEY constraint violation: Duplicate value '3' in column 'id'")
	expectError(t, e, "INSERT INTO users (id, name, email) VALUES (4, 'e', 'a@x')",
		"UNIQUE constraint violation: Duplicate value 'a@x' in column 'email'")
	expectError(t, e, "INSERT INTO users (id, email) VALUES (5, 'z@x')",
		"NOT NULL constraint violation: Column 'name' cannot be null")
	expectError(t, e, "INSERT INTO users (id, name) VALUES (6)",
		"Column count (2) does not match value count (1) in tuple: (6)")
	expectError(t, e, "INSERT INTO users (nope) VALUES (1)", "Column 'nope' not found")
	expectError(t, e, "INSERT INTO ghosts VALUES (1)", "Table 'ghosts' not found")

	res := mustExec(t, e, "SELECT COUNT(*) AS n FROM users")
	expectNumbers(t, column(res, "n"), 2)
}

func TestInsertDefaultsAndBareWords(t *testing.T) {
	e := usersEngine(t)
	mustExec(t, e, "INSERT INTO users VALUES (3, carol, NULL, DEFAULT)")

	res := mustExec(t, e, "SELECT name, email, active FROM users WHERE id = 3")
	expectTexts(t, column(res, "name"), "carol")
	if v := res.Rows[0]["email"]; !v.IsNull() {
		t.Fatalf("expected NULL email, got %#v", v)
	}
	if v := res.Rows[0]["active"]; v.Kind != schema.KindBoolean || !v.Bool {
		t.Fatalf("expected DEFAULT to select TRUE, got %#v", v)
	}
}

func TestUpdate(t *testing.T) {
	e := New(seed.Snapshot())
	expectMessage(t, e, "UPDATE products SET price = price * 2, category = 'Sale' WHERE id = 101",
		"1 row(s) updated in 'products'.")

	res := mustExec(t, e, "SELECT price, category FROM products WHERE id = 101")
	expectNumbers(t, column(res, "price"), 59.98)
	expectTexts(t, column(res, "category"), "Sale")

	expectMessage(t, e, "UPDATE products SET stock = 0 WHERE id > 1000", "0 row(s) updated in 'products'.")
	expectError(t, e, "UPDATE products SET nope = 1", "Column 'nope' not found")
}

func TestUpdateTwiceMatchesOnce(t *testing.T) {
	for _, query := range []string{
		"UPDATE products SET category = 'Sale' WHERE price > 50",
		"UPDATE orders SET status = 'archived', total = 0 WHERE status = 'completed'",
		"UPDATE customers SET email = NULL",
	} {
		e := New(seed.Snapshot())
		mustExec(t, e, query)
		once := e.Snapshot()
		mustExec(t, e, query)

		if result := e.Snapshot(); !reflect.DeepEqual(once, result) {
			t.Fatalf("%s: expected a second run to change nothing\nonce:  %+v\ntwice: %+v", query, once, result)
		}
	}
}

func TestUpdateUniqueness(t *testing.T) {
	e := usersEngine(t)

	expectError(t, e, "UPDATE users SET email = 'a@x' WHERE id = 2",
		"UNIQUE constraint violation: Duplicate value 'a@x' in column 'email'")
	expectMessage(t, e, "UPDATE users SET email = email", "2 row(s) updated in 'users'.")
	expectError(t, e, "UPDATE users SET id = 7", "PRIMARY KEY constraint violation: Duplicate value '7' in column 'id'")
	expectError(t, e, "UPDATE users SET name = NULL WHERE id = 1", "NOT NULL constraint violation: Column 'name' cannot be null")

	res := mustExec(t, e, "SELECT id, email FROM users ORDER BY id")
	expectNumbers(t, column(res, "id"), 1, 2)
	expectTexts(t, column(res, "email"), "a@x", "b@x")
}

func TestDelete(t *testing.T) {
	e := New(seed.Snapshot())
	expectMessage(t, e, "DELETE FROM orders WHERE status = 'completed'", "2 row(s) deleted from 'orders'.")

	res := mustExec(t, e, "SELECT id FROM orders")
	expectNumbers(t, column(res, "id"), 1002, 1004, 1005)

	expectMessage(t, e, "DELETE FROM orders", "3 row(s) deleted from 'orders'.")
	res = mustExec(t, e, "SELECT id FROM orders")
	if len(res.Rows) != 0 || len(res.Columns) != 1 {
		t.Fatalf("expected an empty result with one column, got %#v", res)
	}
}

func TestDropTable(t *testing.T) {
	e := New(seed.Snapshot())
	expectMessage(t, e, "DROP TABLE Sales", "Table 'sales' dropped successfully.")
	expectError(t, e, "DROP TABLE sales", "Table 'sales' not found")
	expectMessage(t, e, "DROP TABLE IF EXISTS sales", "Table 'sales' does not exist, skipped.")

	for _, name := range e.Tables() {
		if name == "sales" {
			t.Fatalf("expected sales to be gone, got %v", e.Tables())
		}
	}
}

func TestAlterTable(t *testing.T) {
	e := New(seed.Snapshot())

	expectMessage(t, e, "ALTER TABLE orders ADD COLUMN note VARCHAR DEFAULT 'n/a'",
		"Column 'note' added to table 'orders' successfully.")
	res := mustExec(t, e, "SELECT note FROM orders")
	expectTexts(t, column(res, "note"), "n/a", "n/a", "n/a", "n/a", "n/a")

	expectError(t, e, "ALTER TABLE orders ADD COLUMN note TEXT", "Column 'note' already exists in table 'orders'")
	expectError(t, e, "ALTER TABLE orders ADD COLUMN code INT NOT NULL",
		"NOT NULL constraint violation: Column 'code' cannot be null")
	expectError(t, e, "ALTER TABLE orders ADD COLUMN code INT UNIQUE DEFAULT 1",
		"UNIQUE constraint violation: Duplicate value '1' in column 'code'")

	expectMessage(t, e, "ALTER TABLE orders RENAME COLUMN total TO amount",
		"Column 'total' renamed to 'amount' in table 'orders' successfully.")
	res = mustExec(t, e, "SELECT amount FROM orders WHERE id = 1001")
	expectNumbers(t, column(res, "amount"), 29.99)
	expectError(t, e, "SELECT total FROM orders", "Column 'total' not found")

	expectMessage(t, e, "ALTER TABLE orders DROP COLUMN note", "Column 'note' dropped from table 'orders' successfully.")
	expectError(t, e, "ALTER TABLE orders DROP COLUMN note", "Column 'note' not found")

	expectError(t, e, "ALTER TABLE orders RENAME TO sales", "Table 'sales' already exists")
	expectMessage(t, e, "ALTER TABLE orders RENAME TO purchases", "Table 'orders' renamed to 'purchases' successfully.")
	expectError(t, e, "SELECT * FROM orders", "Table 'orders' not found")
	mustExec(t, e, "SELECT * FROM purchases")
}

func TestAlterAddNotNullColumnWithNullDefault(t *testing.T) {
	e := New(seed.Snapshot())
	expectError(t, e, "ALTER TABLE orders ADD COLUMN must INT NOT NULL DEFAULT NULL",
		"NOT NULL constraint violation: Column 'must' cannot be null")
	expectError(t, e, "SELECT must FROM orders", "Column 'must' not found")

	expectMessage(t, e, "UPDATE orders SET status = 'x' WHERE id = 1001", "1 row(s) updated in 'orders'.")
	expectMessage(t, e, "ALTER TABLE orders ADD COLUMN must INT NOT NULL DEFAULT 0",
		"Column 'must' added to table 'orders' successfully.")
}

func TestAlterAddColumnOnEmptyTable(t *testing.T) {
	e := New(schema.NewSnapshot())
	mustExec(t, e, "CREATE TABLE t (id INT)")
	expectMessage(t, e, "ALTER TABLE t ADD COLUMN code INT NOT NULL", "Column 'code' added to table 't' successfully.")
}

func TestTypedErrors(t *testing.T) {
	e := usersEngine(t)

	_, err := e.Exec("SELECT * FROM ghosts")
	var semantic *SemanticError
	if !errors.As(err, &semantic) {
		t.Fatalf("expected SemanticError, got %v", err)
	}

	_, err = e.Exec("INSERT INTO users (id, name) VALUES (1, 'dup')")
	var constraint *ConstraintError
	if !errors.As(err, &constraint) || constraint.Column != "id" {
		t.Fatalf("expected ConstraintError on id, got %v", err)
	}

	_, err = e.Exec("SELECT name users")
	var syntax *sql.SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}

	if _, err := e.Exec("GRANT ALL ON users"); !errors.Is(err, sql.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestSnapshotReplaceReset(t *testing.T) {
	e := New(seed.Snapshot())
	mustExec(t, e, "DELETE FROM products")

	snap := e.Snapshot()
	snap.Tables[0].Name = "mutated"
	if e.Tables()[0] != "departments" {
		t.Fatalf("expected snapshot to be a copy, got %v", e.Tables())
	}

	e.Replace(schema.NewSnapshot(&schema.Table{Name: "only", Columns: []schema.Column{{Name: "x", Type: "INT"}}}))
	if names := e.Tables(); len(names) != 1 || names[0] != "only" {
		t.Fatalf("expected replaced store, got %v", names)
	}

	e.Reset()
	res := mustExec(t, e, "SELECT COUNT(*) AS n FROM products")
	expectNumbers(t, column(res, "n"), 5)
}

func TestExecutionTime(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := New(seed.Snapshot(), WithClock(func() time.Time {
		clock = clock.Add(5 * time.Millisecond)
		return clock
	}))

	res := e.Execute("SELECT id FROM products")
	if res.ExecutionTime != 5*time.Millisecond || res.ExecutionTimeMs() != 5 {
		t.Fatalf("expected 5ms, got %v", res.ExecutionTime)
	}

	res = e.Execute("SELECT id FROM nowhere")
	if !res.IsError() || res.ExecutionTime != 5*time.Millisecond {
		t.Fatalf("expected a timed error, got %#v", res)
	}
}

func TestQueryResultJSON(t *testing.T) {
	res := &QueryResult{Message: "done", ExecutionTime: 1500 * time.Microsecond}
	data, err := res.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	want := `{"columns":[],"rows":[],"message":"done","executionTimeMs":1.5}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}
}
