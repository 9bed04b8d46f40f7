package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/seed"
)

func openSQLite(t *testing.T) *SQLite {
	t.Helper()
	db := NewSQLite(Config{Type: "sqlite", Database: filepath.Join(t.TempDir(), "workspace.db")})
	if err := db.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_TYPE", "PostgreSQL")
	t.Setenv("DB_NAME", "play")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_USER", "koba")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("SQLPLAY_USER", "")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}
	want := Config{Type: "postgres", Host: "localhost", Port: "5432", Database: "play", User: "koba", Password: "secret", Owner: "local"}
	if cfg != want {
		t.Fatalf("expected %+v, got %+v", want, cfg)
	}

	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("SQLPLAY_USER", "alice")
	cfg, err = LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}
	if cfg.Port != "3306" || cfg.Owner != "alice" {
		t.Fatalf("unexpected mysql config: %+v", cfg)
	}
}

func TestLoadConfigFromEnvErrors(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	t.Setenv("DB_NAME", "play")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatalf("expected an error without DB_TYPE")
	}

	t.Setenv("DB_TYPE", "oracle")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatalf("expected an error for an unsupported type")
	}

	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_NAME", "")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatalf("expected an error without DB_NAME")
	}
}

func TestNewDatabase(t *testing.T) {
	for typ, want := range map[string]string{"mysql": "*database.MySQL", "postgres": "*database.Postgres", "sqlite3": "*database.SQLite"} {
		db, err := NewDatabase(Config{Type: typ})
		if err != nil {
			t.Fatalf("NewDatabase(%s) failed: %v", typ, err)
		}
		if got := typeName(db); got != want {
			t.Fatalf("NewDatabase(%s): expected %s, got %s", typ, want, got)
		}
	}
	if _, err := NewDatabase(Config{Type: "mssql"}); err == nil {
		t.Fatalf("expected an error for an unsupported type")
	}
}

func typeName(db Connection) string {
	switch db.(type) {
	case *MySQL:
		return "*database.MySQL"
	case *Postgres:
		return "*database.Postgres"
	case *SQLite:
		return "*database.SQLite"
	}
	return "unknown"
}

func TestRebind(t *testing.T) {
	got := postgresDialect.rebind("SELECT a FROM t WHERE b = ? AND c = ?")
	if got != "SELECT a FROM t WHERE b = $1 AND c = $2" {
		t.Fatalf("unexpected rebind: %s", got)
	}
	if got := mysqlDialect.rebind("x = ?"); got != "x = ?" {
		t.Fatalf("expected mysql to keep ?, got %s", got)
	}
}

func TestStoreBeforeConnect(t *testing.T) {
	db := NewSQLite(Config{Database: filepath.Join(t.TempDir(), "never.db")})
	if _, err := db.LoadTables(context.Background(), "local"); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestSaveLoadTables(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	snap, err := db.LoadTables(ctx, "local")
	if err != nil || snap != nil {
		t.Fatalf("expected no stored tables, got %v, %v", snap, err)
	}

	if err := db.SaveTables(ctx, "local", seed.Snapshot()); err != nil {
		t.Fatalf("SaveTables failed: %v", err)
	}
	snap, err = db.LoadTables(ctx, "local")
	if err != nil {
		t.Fatalf("LoadTables failed: %v", err)
	}
	want := []string{"customers", "departments", "orders", "products", "sales"}
	names := snap.TableNames()
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected tables ordered by name %v, got %v", want, names)
		}
	}
	products, _ := snap.Table("products")
	if len(products.Data) != 5 || products.Data[0]["price"].Num != 29.99 {
		t.Fatalf("unexpected products data: %v", products.Data)
	}

	// saving a smaller workspace drops the tables that are gone
	less := seed.Snapshot()
	less.Tables = less.Tables[:1]
	less.Tables[0].Data = less.Tables[0].Data[:2]
	if err := db.SaveTables(ctx, "local", less); err != nil {
		t.Fatalf("SaveTables failed: %v", err)
	}
	snap, err = db.LoadTables(ctx, "local")
	if err != nil {
		t.Fatalf("LoadTables failed: %v", err)
	}
	if len(snap.Tables) != 1 || len(snap.Tables[0].Data) != 2 {
		t.Fatalf("expected one table with two rows, got %v", snap.TableNames())
	}

	other, err := db.LoadTables(ctx, "someone-else")
	if err != nil || other != nil {
		t.Fatalf("expected workspaces to be isolated per owner, got %v, %v", other, err)
	}
}

func TestSaveTablesRenamedByCase(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	if err := db.SaveTables(ctx, "local", seed.Snapshot()); err != nil {
		t.Fatalf("SaveTables failed: %v", err)
	}

	renamed := seed.Snapshot()
	orders, _ := renamed.Table("orders")
	orders.Name = "Orders"
	if err := db.SaveTables(ctx, "local", renamed); err != nil {
		t.Fatalf("SaveTables failed: %v", err)
	}

	snap, err := db.LoadTables(ctx, "local")
	if err != nil {
		t.Fatalf("LoadTables failed: %v", err)
	}
	if len(snap.Tables) != 5 {
		t.Fatalf("expected 5 tables, got %v", snap.TableNames())
	}
	var found *schema.Table
	for _, tbl := range snap.Tables {
		if tbl.Name == "Orders" {
			found = tbl
		}
	}
	if found == nil || len(found.Data) != 5 {
		t.Fatalf("expected the renamed table with its rows, got %v", snap.TableNames())
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, q := range []string{"SELECT 1 FROM t", "DELETE FROM t", "SELECT * FROM nope"} {
		item := NewHistoryItem(q, StatusSuccess, "ok")
		item.ExecutedAt = base.Add(time.Duration(i) * time.Minute)
		if err := db.AppendHistory(ctx, "local", item); err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}
	}
	if err := db.AppendHistory(ctx, "other", NewHistoryItem("SELECT 2 FROM t", StatusError, "boom")); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	items, err := db.History(ctx, "local", 2)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(items) != 2 || items[0].Query != "SELECT * FROM nope" || items[1].Query != "DELETE FROM t" {
		t.Fatalf("expected the two most recent entries first, got %+v", items)
	}
	if !items[0].ExecutedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("unexpected executed_at %v", items[0].ExecutedAt)
	}

	if err := db.DeleteHistory(ctx, "local", items[0].ID); err != nil {
		t.Fatalf("DeleteHistory failed: %v", err)
	}
	items, err = db.History(ctx, "local", 0)
	if err != nil || len(items) != 2 {
		t.Fatalf("expected two entries after delete, got %d (%v)", len(items), err)
	}

	if err := db.ClearHistory(ctx, "local"); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}
	items, err = db.History(ctx, "local", 0)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected no entries after clear, got %d (%v)", len(items), err)
	}
	items, err = db.History(ctx, "other", 0)
	if err != nil || len(items) != 1 || items[0].Status != StatusError {
		t.Fatalf("expected the other owner's history to survive, got %+v (%v)", items, err)
	}
}

func TestImportTables(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	raw, err := sql.Open("sqlite", db.config.Database)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer raw.Close()
	for _, stmt := range []string{
		`CREATE TABLE items (id INTEGER PRIMARY KEY, code TEXT NOT NULL UNIQUE, label VARCHAR(20) DEFAULT 'none', price REAL, seen_at TEXT DEFAULT CURRENT_TIMESTAMP)`,
		`INSERT INTO items (id, code, price) VALUES (1, 'a', 1.5), (2, 'b', NULL), (3, 'c', 3)`,
		`CREATE TABLE tags (name TEXT)`,
	} {
		if _, err := raw.Exec(stmt); err != nil {
			t.Fatalf("setup %q failed: %v", stmt, err)
		}
	}
	raw.Close()

	snap, err := ImportTables(ctx, db, nil, 2)
	if err != nil {
		t.Fatalf("ImportTables failed: %v", err)
	}
	if names := snap.TableNames(); len(names) != 2 || names[0] != "items" || names[1] != "tags" {
		t.Fatalf("expected items and tags only, got %v", names)
	}

	items := snap.Tables[0]
	id, _ := items.Column("id")
	code, _ := items.Column("code")
	label, _ := items.Column("label")
	seen, _ := items.Column("seen_at")
	if !id.PrimaryKey || !id.NotNull {
		t.Fatalf("expected id to be the primary key, got %+v", id)
	}
	if !code.Unique || !code.NotNull || code.PrimaryKey {
		t.Fatalf("expected code to be unique and not null, got %+v", code)
	}
	if label.Type != "VARCHAR(20)" || label.Default == nil || label.Default.Str != "none" {
		t.Fatalf("unexpected label column %+v", label)
	}
	if seen.Default != nil {
		t.Fatalf("expected CURRENT_TIMESTAMP to have no literal default, got %+v", seen.Default)
	}

	if len(items.Data) != 2 {
		t.Fatalf("expected the row limit to apply, got %d rows", len(items.Data))
	}
	if v := items.Data[0]["price"]; v.Kind != schema.KindNumber || v.Num != 1.5 {
		t.Fatalf("unexpected price %#v", v)
	}
	if v := items.Data[1]["price"]; !v.IsNull() {
		t.Fatalf("expected NULL price, got %#v", v)
	}
}

func TestParseDefault(t *testing.T) {
	cases := []struct {
		raw  string
		want *schema.Value
	}{
		{"'pending'::character varying", valuePtr(schema.Text("pending"))},
		{"0", valuePtr(schema.Number(0))},
		{"true", valuePtr(schema.Boolean(true))},
		{"nextval('items_id_seq'::regclass)", nil},
		{"CURRENT_TIMESTAMP", nil},
		{"NULL", nil},
	}
	for _, c := range cases {
		got := parseDefault(c.raw)
		if (got == nil) != (c.want == nil) {
			t.Fatalf("parseDefault(%q): expected %v, got %v", c.raw, c.want, got)
		}
		if got != nil && (got.Kind != c.want.Kind || !schema.LooseEqual(*got, *c.want)) {
			t.Fatalf("parseDefault(%q): expected %#v, got %#v", c.raw, *c.want, *got)
		}
	}
}

func valuePtr(v schema.Value) *schema.Value {
	return &v
}
