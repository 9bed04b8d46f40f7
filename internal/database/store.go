package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/koba/sqlplay/internal/schema"
)

// ErrNotConnected is returned by store operations before Connect succeeds
var ErrNotConnected = errors.New("database is not connected")

// sqlStore implements the workspace operations shared by every backend
type sqlStore struct {
	db      *sql.DB
	dialect dialect
}

func (s *sqlStore) ensureSchema(ctx context.Context) error {
	for _, ddl := range s.dialect.createTables {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create workspace tables: %w", err)
		}
	}
	return nil
}

func (s *sqlStore) close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveTables replaces the owner's tables with those of snap. Rows whose name
// is no longer present are removed first, so a table renamed only by case is
// rewritten on case-insensitive collations too.
func (s *sqlStore) SaveTables(ctx context.Context, owner string, snap *schema.Snapshot) error {
	if s.db == nil {
		return ErrNotConnected
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tables := snap.Clone().Tables
	keep := make(map[string]bool, len(tables))
	for _, t := range tables {
		keep[t.Name] = true
	}

	existing, err := s.tableNames(ctx, tx, owner)
	if err != nil {
		return err
	}
	for _, name := range existing {
		if keep[name] {
			continue
		}
		if _, err := tx.ExecContext(ctx, s.dialect.rebind("DELETE FROM sqlplay_tables WHERE user_id = ? AND name = ?"), owner, name); err != nil {
			return fmt.Errorf("failed to delete table %s: %w", name, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(s.dialect.upsertTable))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for _, t := range tables {
		columnsJSON, err := json.Marshal(t.Columns)
		if err != nil {
			return fmt.Errorf("failed to marshal columns of %s: %w", t.Name, err)
		}
		data := t.Data
		if data == nil {
			data = []schema.Row{}
		}
		dataJSON, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal data of %s: %w", t.Name, err)
		}
		if _, err := stmt.ExecContext(ctx, owner, t.Name, string(columnsJSON), string(dataJSON), now); err != nil {
			return fmt.Errorf("failed to save table %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *sqlStore) tableNames(ctx context.Context, tx *sql.Tx, owner string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, s.dialect.rebind("SELECT name FROM sqlplay_tables WHERE user_id = ?"), owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LoadTables returns the owner's tables ordered by name, or nil when the
// owner has none stored.
func (s *sqlStore) LoadTables(ctx context.Context, owner string) (*schema.Snapshot, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}

	rows, err := s.db.QueryContext(ctx,
		s.dialect.rebind("SELECT name, columns_json, data_json FROM sqlplay_tables WHERE user_id = ? ORDER BY name"), owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	snap := schema.NewSnapshot()
	for rows.Next() {
		var name, columnsJSON, dataJSON string
		if err := rows.Scan(&name, &columnsJSON, &dataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		t := &schema.Table{Name: name}
		if err := json.Unmarshal([]byte(columnsJSON), &t.Columns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal columns of %s: %w", name, err)
		}
		if err := json.Unmarshal([]byte(dataJSON), &t.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data of %s: %w", name, err)
		}
		if t.Data == nil {
			t.Data = []schema.Row{}
		}
		snap.Tables = append(snap.Tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snap.Tables) == 0 {
		return nil, nil
	}
	return snap, nil
}

// AppendHistory stores one history entry
func (s *sqlStore) AppendHistory(ctx context.Context, owner string, item HistoryItem) error {
	if s.db == nil {
		return ErrNotConnected
	}
	_, err := s.db.ExecContext(ctx,
		s.dialect.rebind("INSERT INTO sqlplay_history (id, user_id, query, status, executed_at, result) VALUES (?, ?, ?, ?, ?, ?)"),
		item.ID, owner, item.Query, item.Status, item.ExecutedAt.UnixMilli(), item.Result)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// History returns the owner's most recent entries first. A limit of zero or
// less returns all of them.
func (s *sqlStore) History(ctx context.Context, owner string, limit int) ([]HistoryItem, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}

	query := "SELECT id, query, status, executed_at, result FROM sqlplay_history WHERE user_id = ? ORDER BY executed_at DESC, id"
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var items []HistoryItem
	for rows.Next() {
		var item HistoryItem
		var executedAt int64
		if err := rows.Scan(&item.ID, &item.Query, &item.Status, &executedAt, &item.Result); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		item.ExecutedAt = time.UnixMilli(executedAt).UTC()
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteHistory removes one entry
func (s *sqlStore) DeleteHistory(ctx context.Context, owner, id string) error {
	if s.db == nil {
		return ErrNotConnected
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind("DELETE FROM sqlplay_history WHERE user_id = ? AND id = ?"), owner, id); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}

// ClearHistory removes every entry of the owner
func (s *sqlStore) ClearHistory(ctx context.Context, owner string) error {
	if s.db == nil {
		return ErrNotConnected
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind("DELETE FROM sqlplay_history WHERE user_id = ?"), owner); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// scanData reads every row of rows into Values keyed by column name
func scanData(rows *sql.Rows) ([]schema.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	data := []schema.Row{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(schema.Row, len(columns))
		for i, col := range columns {
			row[col] = schema.FromInterface(values[i])
		}
		data = append(data, row)
	}
	return data, rows.Err()
}
