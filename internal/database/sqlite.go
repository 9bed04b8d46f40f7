package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"

	"github.com/koba/sqlplay/internal/schema"
)

// SQLite implements Connection for a local SQLite file
type SQLite struct {
	sqlStore
	config Config
}

// NewSQLite creates a new SQLite connection. Config.Database is the file path.
func NewSQLite(config Config) *SQLite {
	return &SQLite{config: config, sqlStore: sqlStore{dialect: sqliteDialect}}
}

// Connect opens the SQLite file and creates the workspace tables
func (s *SQLite) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// one connection serialises writers; every query below reads its rows
	// fully before issuing the next one
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping SQLite: %w", err)
	}

	s.db = db
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	log.Printf("database: opened sqlite %s", s.config.Database)
	return nil
}

// Close closes the SQLite database
func (s *SQLite) Close() error {
	return s.close()
}

// GetAllTables retrieves all user table names
func (s *SQLite) GetAllTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// GetTableSchema retrieves the column definitions of a table, with primary
// and unique keys folded into the columns.
func (s *SQLite) GetTableSchema(ctx context.Context, tableName string) (*schema.Table, error) {
	columns, primary, err := s.getColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	keys, err := s.getKeys(ctx, tableName)
	if err != nil {
		return nil, err
	}
	for _, name := range primary {
		keys.add("pk", name, true)
	}
	keys.apply(columns)

	return &schema.Table{Name: tableName, Columns: columns, Data: []schema.Row{}}, nil
}

func (s *SQLite) getColumns(ctx context.Context, tableName string) ([]schema.Column, []string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get columns: %w", err)
	}
	defer rows.Close()

	var columns []schema.Column
	var primary []string
	for rows.Next() {
		var col schema.Column
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Type = normalizeColumnType(col.Type)
		col.NotNull = notNull != 0
		if defaultValue.Valid {
			col.Default = parseDefault(defaultValue.String)
		}
		if pk > 0 {
			primary = append(primary, col.Name)
		}

		columns = append(columns, col)
	}

	return columns, primary, rows.Err()
}

func (s *SQLite) getKeys(ctx context.Context, tableName string) (keySet, error) {
	indexes, err := s.uniqueIndexes(ctx, tableName)
	if err != nil {
		return nil, err
	}

	keys := keySet{}
	for _, indexName := range indexes {
		rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_index_info(?) ORDER BY seqno", indexName)
		if err != nil {
			return nil, fmt.Errorf("failed to get index columns: %w", err)
		}
		for rows.Next() {
			var columnName string
			if err := rows.Scan(&columnName); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan index column: %w", err)
			}
			keys.add(indexName, columnName, false)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func (s *SQLite) uniqueIndexes(ctx context.Context, tableName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_index_list(?) WHERE "unique" = 1 AND origin != 'pk'`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetTableData retrieves the rows of a table, at most limit when limit > 0
func (s *SQLite) GetTableData(ctx context.Context, tableName string, limit int) ([]schema.Row, error) {
	query := fmt.Sprintf("SELECT * FROM \"%s\"", tableName)
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get table data: %w", err)
	}
	defer rows.Close()

	return scanData(rows)
}
