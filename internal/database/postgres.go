package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"github.com/koba/sqlplay/internal/schema"
)

// Postgres implements Connection for PostgreSQL
type Postgres struct {
	sqlStore
	config Config
}

// NewPostgres creates a new PostgreSQL database connection
func NewPostgres(config Config) *Postgres {
	return &Postgres{config: config, sqlStore: sqlStore{dialect: postgresDialect}}
}

// Connect establishes a connection to PostgreSQL and creates the workspace tables
func (p *Postgres) Connect(ctx context.Context) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		p.config.Host,
		p.config.Port,
		p.config.User,
		p.config.Password,
		p.config.Database,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	p.db = db
	if err := p.ensureSchema(ctx); err != nil {
		return err
	}
	log.Printf("database: connected to postgres %s:%s/%s", p.config.Host, p.config.Port, p.config.Database)
	return nil
}

// Close closes the PostgreSQL connection
func (p *Postgres) Close() error {
	return p.close()
}

// GetAllTables retrieves all table names in the public schema
func (p *Postgres) GetAllTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	rows, err := p.db.QueryContext(ctx, query)
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
func (p *Postgres) GetTableSchema(ctx context.Context, tableName string) (*schema.Table, error) {
	columns, err := p.getColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	keys, err := p.getKeys(ctx, tableName)
	if err != nil {
		return nil, err
	}
	keys.apply(columns)

	return &schema.Table{Name: tableName, Columns: columns, Data: []schema.Row{}}, nil
}

func (p *Postgres) getColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`
	rows, err := p.db.QueryContext(ctx, query, tableName)
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

func (p *Postgres) getKeys(ctx context.Context, tableName string) (keySet, error) {
	query := `
		SELECT
			i.relname AS index_name,
			a.attname AS column_name,
			ix.indisprimary AS is_primary
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE t.relname = $1 AND t.relkind = 'r' AND ix.indisunique
		ORDER BY i.relname, a.attnum
	`
	rows, err := p.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}
	defer rows.Close()

	keys := keySet{}
	for rows.Next() {
		var indexName, columnName string
		var isPrimary bool

		if err := rows.Scan(&indexName, &columnName, &isPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		keys.add(indexName, columnName, isPrimary)
	}

	return keys, rows.Err()
}

// GetTableData retrieves the rows of a table, at most limit when limit > 0
func (p *Postgres) GetTableData(ctx context.Context, tableName string, limit int) ([]schema.Row, error) {
	query := fmt.Sprintf("SELECT * FROM \"%s\"", tableName)
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get table data: %w", err)
	}
	defer rows.Close()

	return scanData(rows)
}
