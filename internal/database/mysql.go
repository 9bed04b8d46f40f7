package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql"

	"github.com/koba/sqlplay/internal/schema"
)

// MySQL implements Connection for MySQL
type MySQL struct {
	sqlStore
	config Config
}

// NewMySQL creates a new MySQL database connection
func NewMySQL(config Config) *MySQL {
	return &MySQL{config: config, sqlStore: sqlStore{dialect: mysqlDialect}}
}

// Connect establishes a connection to MySQL and creates the workspace tables
func (m *MySQL) Connect(ctx context.Context) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		m.config.User,
		m.config.Password,
		m.config.Host,
		m.config.Port,
		m.config.Database,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping MySQL: %w", err)
	}

	m.db = db
	if err := m.ensureSchema(ctx); err != nil {
		return err
	}
	log.Printf("database: connected to mysql %s:%s/%s", m.config.Host, m.config.Port, m.config.Database)
	return nil
}

// Close closes the MySQL connection
func (m *MySQL) Close() error {
	return m.close()
}

// GetAllTables retrieves all table names in the database
func (m *MySQL) GetAllTables(ctx context.Context) ([]string, error) {
	query := "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME"
	rows, err := m.db.QueryContext(ctx, query, m.config.Database)
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
func (m *MySQL) GetTableSchema(ctx context.Context, tableName string) (*schema.Table, error) {
	columns, err := m.getColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	keys, err := m.getKeys(ctx, tableName)
	if err != nil {
		return nil, err
	}
	keys.apply(columns)

	return &schema.Table{Name: tableName, Columns: columns, Data: []schema.Row{}}, nil
}

func (m *MySQL) getColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			COLUMN_NAME,
			COLUMN_TYPE,
			IS_NULLABLE,
			COLUMN_DEFAULT
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`
	rows, err := m.db.QueryContext(ctx, query, m.config.Database, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var nullable string
		var defaultValue sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &nullable, &defaultValue); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Type = normalizeColumnType(col.Type)
		col.NotNull = nullable == "NO"
		if defaultValue.Valid {
			col.Default = parseDefault(defaultValue.String)
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (m *MySQL) getKeys(ctx context.Context, tableName string) (keySet, error) {
	query := `
		SELECT
			INDEX_NAME,
			COLUMN_NAME,
			NON_UNIQUE
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX
	`
	rows, err := m.db.QueryContext(ctx, query, m.config.Database, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}
	defer rows.Close()

	keys := keySet{}
	for rows.Next() {
		var indexName, columnName string
		var nonUnique int

		if err := rows.Scan(&indexName, &columnName, &nonUnique); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		if nonUnique == 0 {
			keys.add(indexName, columnName, indexName == "PRIMARY")
		}
	}

	return keys, rows.Err()
}

// GetTableData retrieves the rows of a table, at most limit when limit > 0
func (m *MySQL) GetTableData(ctx context.Context, tableName string, limit int) ([]schema.Row, error) {
	query := fmt.Sprintf("SELECT * FROM `%s`", tableName)
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get table data: %w", err)
	}
	defer rows.Close()

	return scanData(rows)
}
