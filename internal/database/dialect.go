package database

import (
	"strconv"
	"strings"
)

// dialect holds the statements that differ between backends. Queries are
// written with ? placeholders and rebound per dialect.
type dialect struct {
	name         string
	numbered     bool // $1, $2, ... instead of ?
	createTables []string
	upsertTable  string
}

var mysqlDialect = dialect{
	name: "mysql",
	createTables: []string{
		`CREATE TABLE IF NOT EXISTS sqlplay_tables (
			user_id VARCHAR(191) NOT NULL,
			name VARCHAR(191) NOT NULL,
			columns_json LONGTEXT NOT NULL,
			data_json LONGTEXT NOT NULL,
			updated_at BIGINT NOT NULL,
			PRIMARY KEY (user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS sqlplay_history (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(191) NOT NULL,
			query TEXT NOT NULL,
			status VARCHAR(16) NOT NULL,
			executed_at BIGINT NOT NULL,
			result TEXT NOT NULL,
			INDEX idx_sqlplay_history_user (user_id, executed_at)
		)`,
	},
	upsertTable: `INSERT INTO sqlplay_tables (user_id, name, columns_json, data_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE columns_json = VALUES(columns_json), data_json = VALUES(data_json), updated_at = VALUES(updated_at)`,
}

var postgresDialect = dialect{
	name:     "postgres",
	numbered: true,
	createTables: []string{
		`CREATE TABLE IF NOT EXISTS sqlplay_tables (
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			columns_json TEXT NOT NULL,
			data_json TEXT NOT NULL,
			updated_at BIGINT NOT NULL,
			PRIMARY KEY (user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS sqlplay_history (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			query TEXT NOT NULL,
			status TEXT NOT NULL,
			executed_at BIGINT NOT NULL,
			result TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sqlplay_history_user ON sqlplay_history (user_id, executed_at)`,
	},
	upsertTable: `INSERT INTO sqlplay_tables (user_id, name, columns_json, data_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, name) DO UPDATE SET columns_json = EXCLUDED.columns_json, data_json = EXCLUDED.data_json, updated_at = EXCLUDED.updated_at`,
}

var sqliteDialect = dialect{
	name: "sqlite",
	createTables: []string{
		`CREATE TABLE IF NOT EXISTS sqlplay_tables (
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			columns_json TEXT NOT NULL,
			data_json TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS sqlplay_history (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			query TEXT NOT NULL,
			status TEXT NOT NULL,
			executed_at INTEGER NOT NULL,
			result TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sqlplay_history_user ON sqlplay_history (user_id, executed_at)`,
	},
	upsertTable: `INSERT INTO sqlplay_tables (user_id, name, columns_json, data_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, name) DO UPDATE SET columns_json = excluded.columns_json, data_json = excluded.data_json, updated_at = excluded.updated_at`,
}

// rebind rewrites ? placeholders for the dialect
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
