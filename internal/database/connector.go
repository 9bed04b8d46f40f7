// Package database persists playground workspaces in MySQL, PostgreSQL or
// SQLite and imports tables from a live database.
package database

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/koba/sqlplay/internal/schema"
)

// Config holds database connection configuration
type Config struct {
	Type     string // "mysql", "postgres" or "sqlite"
	Host     string
	Port     string
	Database string // database name, or file path for sqlite
	User     string
	Password string
	// Owner is the workspace owner rows are stored under
	Owner string
}

// Database is a workspace store
type Database interface {
	Connect(ctx context.Context) error
	Close() error

	SaveTables(ctx context.Context, owner string, snap *schema.Snapshot) error
	LoadTables(ctx context.Context, owner string) (*schema.Snapshot, error)

	AppendHistory(ctx context.Context, owner string, item HistoryItem) error
	History(ctx context.Context, owner string, limit int) ([]HistoryItem, error)
	DeleteHistory(ctx context.Context, owner, id string) error
	ClearHistory(ctx context.Context, owner string) error
}

// Introspector reads table definitions and rows from a live database
type Introspector interface {
	GetAllTables(ctx context.Context) ([]string, error)
	GetTableSchema(ctx context.Context, tableName string) (*schema.Table, error)
	GetTableData(ctx context.Context, tableName string, limit int) ([]schema.Row, error)
}

// Connection is both a workspace store and an introspector. Every backend
// returned by NewDatabase implements it.
type Connection interface {
	Database
	Introspector
}

// NewDatabase creates a new database connection based on type
func NewDatabase(config Config) (Connection, error) {
	switch normalizeType(config.Type) {
	case "mysql":
		return NewMySQL(config), nil
	case "postgres":
		return NewPostgres(config), nil
	case "sqlite":
		return NewSQLite(config), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

func normalizeType(dbType string) string {
	switch strings.ToLower(dbType) {
	case "mysql":
		return "mysql"
	case "postgres", "postgresql":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	}
	return ""
}

// LoadConfigFromEnv loads database configuration from environment variables
func LoadConfigFromEnv() (Config, error) {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		return Config{}, fmt.Errorf("DB_TYPE environment variable is required")
	}
	kind := normalizeType(dbType)
	if kind == "" {
		return Config{}, fmt.Errorf("unsupported database type: %s", dbType)
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}

	database := os.Getenv("DB_NAME")
	if database == "" {
		return Config{}, fmt.Errorf("DB_NAME environment variable is required")
	}

	port := os.Getenv("DB_PORT")
	if port == "" {
		switch kind {
		case "mysql":
			port = "3306"
		case "postgres":
			port = "5432"
		}
	}

	owner := os.Getenv("SQLPLAY_USER")
	if owner == "" {
		owner = "local"
	}

	return Config{
		Type:     kind,
		Host:     host,
		Port:     port,
		Database: database,
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Owner:    owner,
	}, nil
}
