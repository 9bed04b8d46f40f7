package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/koba/sqlplay/internal/database"
	"github.com/koba/sqlplay/internal/diff"
	"github.com/koba/sqlplay/internal/engine"
	"github.com/koba/sqlplay/internal/generator"
	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/snapshot"
	sqlparse "github.com/koba/sqlplay/internal/sql"
)

// errNoSync is returned by workspace commands when --sync is off
var errNoSync = errors.New("no workspace database configured (run with --sync)")

// session is one playground run: an engine, the tables it started from and
// the optional workspace database
type session struct {
	ctx    context.Context
	engine *engine.Engine
	start  *schema.Snapshot
	out    io.Writer
	output *printer

	store database.Database // nil without --sync
	owner string
}

func newSession(ctx context.Context, e *engine.Engine, p *printer) *session {
	return &session{
		ctx:    ctx,
		engine: e,
		start:  e.Snapshot(),
		out:    p.out,
		output: p,
	}
}

// execute runs one statement and prints its result
func (s *session) execute(query string) error {
	res, err := s.engine.Exec(query)
	if errors.Is(err, engine.ErrEmptyQuery) {
		return nil
	}
	s.recordHistory(query, res, err)
	if err != nil {
		return err
	}
	return s.output.printResult(res)
}

// runScript executes statements separated by ';' and stops at the first failure
func (s *session) runScript(script string) error {
	for _, stmt := range sqlparse.Split(script, ';') {
		if err := s.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) recordHistory(query string, res *engine.QueryResult, execErr error) {
	if s.store == nil {
		return
	}

	item := database.NewHistoryItem(query, database.StatusSuccess, "")
	switch {
	case execErr != nil:
		item.Status, item.Result = database.StatusError, execErr.Error()
	case res.IsQuery():
		item.Result = fmt.Sprintf("%d rows", len(res.Rows))
	default:
		item.Result = res.Message
	}

	if err := s.store.AppendHistory(s.ctx, s.owner, item); err != nil {
		log.Printf("history: failed to record query: %v", err)
	}
}

// push saves the current tables to the workspace database
func (s *session) push() error {
	if s.store == nil {
		return errNoSync
	}
	if err := s.store.SaveTables(s.ctx, s.owner, s.engine.Snapshot()); err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}
	log.Printf("workspace: saved tables for %s", s.owner)
	return nil
}

// pull replaces the current tables with the saved workspace, if there is one
func (s *session) pull() (bool, error) {
	if s.store == nil {
		return false, errNoSync
	}
	snap, err := s.store.LoadTables(s.ctx, s.owner)
	if err != nil {
		return false, fmt.Errorf("failed to load workspace: %w", err)
	}
	if snap == nil {
		return false, nil
	}
	s.engine.Replace(snap)
	return true, nil
}

// meta runs a dot command or help. handled is false when line is not one.
func (s *session) meta(line string) (handled bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "\\h", "\\?":
		printHelp(s.out)
	case ".tables":
		s.printTables()
	case ".schema":
		return true, s.printSchema(args)
	case ".reset":
		s.engine.Reset()
		fmt.Fprintln(s.out, "Tables reset to their initial state.")
	case ".save":
		if len(args) != 1 {
			return true, errors.New("usage: .save <file>")
		}
		if err := snapshot.Save(s.engine.Snapshot(), args[0], map[string]string{"source": "sqlplay"}); err != nil {
			return true, fmt.Errorf("failed to save snapshot: %w", err)
		}
		fmt.Fprintf(s.out, "Snapshot saved: %s\n", args[0])
	case ".load":
		if len(args) != 1 {
			return true, errors.New("usage: .load <file>")
		}
		file, err := snapshot.Load(args[0])
		if err != nil {
			return true, fmt.Errorf("failed to load snapshot: %w", err)
		}
		s.engine.Replace(file.Snapshot)
		fmt.Fprintf(s.out, "Snapshot loaded: %s (%d tables)\n", args[0], len(file.Snapshot.Tables))
	case ".dump":
		dialect, err := generator.ParseDialect(strings.Join(args, " "))
		if err != nil {
			return true, err
		}
		if script := generator.GenerateScript(s.engine.Snapshot(), dialect); script != "" {
			fmt.Fprintln(s.out, script)
		}
	case ".diff":
		diff.Display(s.out, diff.Compare(s.start, s.engine.Snapshot()))
	case ".history":
		return true, s.history(args)
	case ".push":
		if err := s.push(); err != nil {
			return true, err
		}
		fmt.Fprintln(s.out, "Workspace saved.")
	case ".pull":
		found, err := s.pull()
		if err != nil {
			return true, err
		}
		if !found {
			fmt.Fprintln(s.out, "No saved workspace.")
		} else {
			fmt.Fprintln(s.out, "Workspace loaded.")
		}
	default:
		if strings.HasPrefix(cmd, ".") {
			return true, fmt.Errorf("unknown command: %s (type 'help' for a list)", fields[0])
		}
		return false, nil
	}
	return true, nil
}

func (s *session) printTables() {
	snap := s.engine.Snapshot()
	if len(snap.Tables) == 0 {
		fmt.Fprintln(s.out, "No tables.")
		return
	}
	for _, t := range snap.Tables {
		fmt.Fprintf(s.out, "%s (%d rows)\n", t.Name, len(t.Data))
	}
}

func (s *session) printSchema(args []string) error {
	snap := s.engine.Snapshot()
	if len(args) > 0 {
		t, _ := snap.Table(args[0])
		if t == nil {
			return fmt.Errorf("table '%s' does not exist", args[0])
		}
		snap = schema.NewSnapshot(t)
	}
	for _, t := range snap.Tables {
		shape := &schema.Table{Name: t.Name, Columns: t.Columns}
		fmt.Fprintln(s.out, generator.GenerateScript(schema.NewSnapshot(shape), generator.DialectSQLPlay))
	}
	return nil
}

// history lists recent queries. ".history clear" and ".history delete <id>"
// edit the stored history.
func (s *session) history(args []string) error {
	if s.store == nil {
		return errNoSync
	}

	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "clear":
			if err := s.store.ClearHistory(s.ctx, s.owner); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(s.out, "History cleared.")
			return nil
		case "delete":
			if len(args) != 2 {
				return errors.New("usage: .history delete <id>")
			}
			if err := s.store.DeleteHistory(s.ctx, s.owner, args[1]); err != nil {
				return fmt.Errorf("failed to delete history entry: %w", err)
			}
			fmt.Fprintln(s.out, "History entry deleted.")
			return nil
		}
	}

	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid history limit: %s", args[0])
		}
		limit = n
	}

	items, err := s.store.History(s.ctx, s.owner, limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(items) == 0 {
		fmt.Fprintln(s.out, "No history.")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(s.out, "%s  %s  %-7s  %s  -- %s\n",
			item.ID,
			item.ExecutedAt.Local().Format("2006-01-02 15:04:05"),
			item.Status,
			strings.Join(strings.Fields(item.Query), " "),
			item.Result,
		)
	}
	return nil
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "SQL statements (end with ';'):")
	fmt.Fprintln(w, "  SELECT, INSERT, UPDATE, DELETE, CREATE TABLE, DROP TABLE, ALTER TABLE")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  .tables                 List tables")
	fmt.Fprintln(w, "  .schema [table]         Show table definitions")
	fmt.Fprintln(w, "  .reset                  Restore the initial tables")
	fmt.Fprintln(w, "  .save <file>            Save the tables to a snapshot file")
	fmt.Fprintln(w, "  .load <file>            Replace the tables with a snapshot file")
	fmt.Fprintln(w, "  .dump [dialect]         Print a SQL script (sqlplay, mysql, postgres)")
	fmt.Fprintln(w, "  .diff                   Show changes since the session started")
	fmt.Fprintln(w, "  .history [n|clear]      Show or clear the query history (--sync)")
	fmt.Fprintln(w, "  .push, .pull            Save or load the workspace (--sync)")
	fmt.Fprintln(w, "  help                    Show this help message")
	fmt.Fprintln(w, "  exit, quit              Exit")
}
