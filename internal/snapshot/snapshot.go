// Package snapshot stores playground tables in a single SQLite file.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/koba/sqlplay/internal/schema"
)

// File is a loaded snapshot file
type File struct {
	Metadata map[string]string
	Snapshot *schema.Snapshot
}

// tableSchema is the JSON stored per table in table_schemas
type tableSchema struct {
	Name    string          `json:"name"`
	Columns []schema.Column `json:"columns"`
}

// Save writes snap to outputPath, replacing any existing file. The entries
// of metadata are stored next to created_at and table_count.
func Save(snap *schema.Snapshot, outputPath string, metadata map[string]string) error {
	// Ensure output directory exists
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Remove existing snapshot file if it exists
	if _, err := os.Stat(outputPath); err == nil {
		if err := os.Remove(outputPath); err != nil {
			return fmt.Errorf("failed to remove existing snapshot: %w", err)
		}
	}

	db, err := sql.Open("sqlite", outputPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot database: %w", err)
	}
	defer db.Close()

	if err := initializeSchema(db); err != nil {
		return fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}

	if snap == nil {
		snap = schema.NewSnapshot()
	}
	meta := map[string]string{
		"created_at":  time.Now().UTC().Format(time.RFC3339),
		"table_count": fmt.Sprint(len(snap.Tables)),
	}
	for key, value := range metadata {
		meta[key] = value
	}
	for key, value := range meta {
		if _, err := db.Exec("INSERT INTO metadata (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("failed to insert metadata: %w", err)
		}
	}

	for i, t := range snap.Tables {
		if err := saveTable(db, i, t); err != nil {
			return fmt.Errorf("failed to snapshot table %s: %w", t.Name, err)
		}
	}

	log.Printf("snapshot: wrote %d tables to %s", len(snap.Tables), outputPath)
	return nil
}

func saveTable(db *sql.DB, position int, t *schema.Table) error {
	schemaJSON, err := json.Marshal(tableSchema{Name: t.Name, Columns: t.Columns})
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO table_schemas (table_name, position, schema_json) VALUES (?, ?, ?)",
		t.Name,
		position,
		string(schemaJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert schema: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO table_data (table_name, row_json) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range t.Data {
		rowJSON, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to marshal row: %w", err)
		}
		if _, err := stmt.Exec(t.Name, string(rowJSON)); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load reads a snapshot file written by Save. Tables come back in their
// saved order and rows in insertion order.
func Load(snapshotPath string) (*File, error) {
	if _, err := os.Stat(snapshotPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("snapshot file does not exist: %s", snapshotPath)
	}

	db, err := sql.Open("sqlite", snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	defer db.Close()

	file := &File{
		Metadata: make(map[string]string),
		Snapshot: schema.NewSnapshot(),
	}

	if err := loadMetadata(db, file.Metadata); err != nil {
		return nil, err
	}

	schemaRows, err := db.Query("SELECT schema_json FROM table_schemas ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query table schemas: %w", err)
	}
	defer schemaRows.Close()

	for schemaRows.Next() {
		var schemaJSON string
		if err := schemaRows.Scan(&schemaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan table schema: %w", err)
		}
		var ts tableSchema
		if err := json.Unmarshal([]byte(schemaJSON), &ts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
		}
		file.Snapshot.Tables = append(file.Snapshot.Tables, &schema.Table{
			Name:    ts.Name,
			Columns: ts.Columns,
			Data:    []schema.Row{},
		})
	}
	if err := schemaRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table schemas: %w", err)
	}

	for _, t := range file.Snapshot.Tables {
		if err := loadRows(db, t); err != nil {
			return nil, fmt.Errorf("failed to load table %s: %w", t.Name, err)
		}
	}

	return file, nil
}

func loadMetadata(db *sql.DB, into map[string]string) error {
	rows, err := db.Query("SELECT key, value FROM metadata")
	if err != nil {
		return fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("failed to scan metadata: %w", err)
		}
		into[key] = value
	}
	return rows.Err()
}

func loadRows(db *sql.DB, t *schema.Table) error {
	rows, err := db.Query("SELECT row_json FROM table_data WHERE table_name = ? ORDER BY id", t.Name)
	if err != nil {
		return fmt.Errorf("failed to query table data: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rowJSON string
		if err := rows.Scan(&rowJSON); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		row := schema.Row{}
		if err := json.Unmarshal([]byte(rowJSON), &row); err != nil {
			return fmt.Errorf("failed to unmarshal row: %w", err)
		}
		t.Data = append(t.Data, row)
	}
	return rows.Err()
}
