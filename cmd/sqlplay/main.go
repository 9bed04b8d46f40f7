package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/koba/sqlplay/internal/database"
	"github.com/koba/sqlplay/internal/diff"
	"github.com/koba/sqlplay/internal/engine"
	"github.com/koba/sqlplay/internal/generator"
	"github.com/koba/sqlplay/internal/schema"
	"github.com/koba/sqlplay/internal/seed"
	"github.com/koba/sqlplay/internal/snapshot"
)

var (
	// root flags
	execute      string
	scriptFile   string
	jsonOutput   bool
	snapshotPath string
	empty        bool
	noGroupBy    bool
	quiet        bool
	syncSpace    bool
	verbose      bool

	// subcommand flags
	dialect   string
	tables    []string
	limit     int
	outputDir string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sqlplay",
	Short: "In-memory SQL playground",
	Long: `An in-memory SQL playground with a sample dataset.
Run statements interactively, from a file, from stdin or with --execute.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRun:  func(cmd *cobra.Command, args []string) { configureLogging(verbose) },
	RunE:              runRoot,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <snapshot>",
	Short: "Print a snapshot as a SQL script",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

var diffCmd = &cobra.Command{
	Use:   "diff <snapshot1> <snapshot2>",
	Short: "Compare two snapshots",
	Long:  `Compare two snapshot files and display the differences.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <snapshot1> <snapshot2>",
	Short: "Generate migration SQL",
	Long:  `Generate DDL and DML statements to migrate from snapshot1 to snapshot2.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runMigrate,
}

var importCmd = &cobra.Command{
	Use:   "import [name]",
	Short: "Import tables from a live database into a snapshot",
	Long:  `Read tables from the database configured through DB_* environment variables and save them as a snapshot file.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runImport,
}

var pushCmd = &cobra.Command{
	Use:   "push <snapshot>",
	Short: "Save a snapshot as the workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runPush,
}

var pullCmd = &cobra.Command{
	Use:   "pull <output>",
	Short: "Save the workspace as a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runPull,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics to stderr")
	rootCmd.Flags().StringVarP(&execute, "execute", "e", "", "Execute statements and exit")
	rootCmd.Flags().StringVarP(&scriptFile, "file", "f", "", "Execute statements from a file")
	rootCmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output results in JSON format")
	rootCmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Start from a snapshot file instead of the sample tables")
	rootCmd.Flags().BoolVar(&empty, "empty", false, "Start with no tables")
	rootCmd.Flags().BoolVar(&noGroupBy, "no-group-by", false, "Reject GROUP BY and HAVING")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print query results")
	rootCmd.Flags().BoolVar(&syncSpace, "sync", false, "Load and save the workspace through the DB_* database")

	for _, cmd := range []*cobra.Command{dumpCmd, migrateCmd} {
		cmd.Flags().StringVar(&dialect, "dialect", generator.DialectSQLPlay, "SQL dialect (sqlplay, mysql, postgres)")
	}

	importCmd.Flags().StringSliceVar(&tables, "tables", nil, "Comma-separated list of tables to import (default: all tables)")
	importCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows per table (default: unlimited)")
	importCmd.Flags().StringVar(&outputDir, "output-dir", "./snapshots", "Output directory for snapshots")

	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
}

// configureLogging sends diagnostics to stderr with --verbose and drops them otherwise
func configureLogging(verbose bool) {
	log.SetPrefix("sqlplay: ")
	log.SetFlags(log.LstdFlags)
	if verbose {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if empty && snapshotPath != "" {
		return fmt.Errorf("--empty and --snapshot cannot be combined")
	}
	initial, err := initialTables()
	if err != nil {
		return err
	}

	var store database.Database
	var owner string
	if syncSpace {
		config, conn, err := connectDatabase(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		store, owner = conn, config.Owner

		saved, err := conn.LoadTables(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to load workspace: %w", err)
		}
		if saved != nil {
			initial = saved
			log.Printf("workspace: loaded %d tables for %s", len(saved.Tables), owner)
		}
	}

	// Check if we're getting input from a pipe
	piped := false
	if stat, err := os.Stdin.Stat(); err == nil {
		piped = (stat.Mode() & os.ModeCharDevice) == 0
	}
	interactive := execute == "" && scriptFile == "" && !piped

	e := engine.New(initial, engine.WithGroupBy(!noGroupBy))
	s := newSession(ctx, e, &printer{
		out:        os.Stdout,
		jsonOutput: jsonOutput,
		quiet:      quiet,
		timing:     interactive,
	})
	s.store, s.owner = store, owner

	runErr := run(s, interactive)

	if syncSpace {
		if err := s.push(); err != nil {
			if runErr == nil {
				runErr = err
			} else {
				log.Printf("workspace: %v", err)
			}
		}
	}
	return runErr
}

func run(s *session, interactive bool) error {
	switch {
	case execute != "":
		return s.runScript(execute)
	case scriptFile != "":
		data, err := os.ReadFile(scriptFile)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", scriptFile, err)
		}
		return s.runScript(string(data))
	case !interactive:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		return s.runScript(string(data))
	}

	cli, err := NewCLI(s)
	if err != nil {
		return err
	}
	defer cli.Close()
	return cli.Run()
}

// initialTables picks the tables a session starts with
func initialTables() (*schema.Snapshot, error) {
	switch {
	case empty:
		return schema.NewSnapshot(), nil
	case snapshotPath != "":
		file, err := snapshot.Load(snapshotPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
		return file.Snapshot, nil
	}
	return seed.Snapshot(), nil
}

// connectDatabase opens the database configured through the environment
func connectDatabase(ctx context.Context) (database.Config, database.Connection, error) {
	// Load database configuration
	config, err := database.LoadConfigFromEnv()
	if err != nil {
		return config, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Create database connection
	db, err := database.NewDatabase(config)
	if err != nil {
		return config, nil, fmt.Errorf("failed to create database: %w", err)
	}

	// Connect to database
	if err := db.Connect(ctx); err != nil {
		return config, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return config, db, nil
}

func runDump(cmd *cobra.Command, args []string) error {
	d, err := generator.ParseDialect(dialect)
	if err != nil {
		return err
	}

	file, err := snapshot.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "-- Dump of %s\n", filepath.Base(args[0]))
	fmt.Fprintf(cmd.OutOrStdout(), "-- Generated at: %s\n\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(cmd.OutOrStdout(), generator.GenerateScript(file.Snapshot, d))
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	snapshot1Path := args[0]
	snapshot2Path := args[1]
	out := cmd.OutOrStdout()

	// Load snapshots
	fmt.Fprintf(out, "Loading snapshot: %s\n", snapshot1Path)
	snap1, err := snapshot.Load(snapshot1Path)
	if err != nil {
		return fmt.Errorf("failed to load snapshot1: %w", err)
	}

	fmt.Fprintf(out, "Loading snapshot: %s\n", snapshot2Path)
	snap2, err := snapshot.Load(snapshot2Path)
	if err != nil {
		return fmt.Errorf("failed to load snapshot2: %w", err)
	}

	// Compare snapshots
	fmt.Fprintf(out, "\n=== Comparing snapshots ===\n\n")
	diff.Display(out, diff.Compare(snap1.Snapshot, snap2.Snapshot))
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	snapshot1Path := args[0]
	snapshot2Path := args[1]
	out := cmd.OutOrStdout()

	d, err := generator.ParseDialect(dialect)
	if err != nil {
		return err
	}

	// Load snapshots
	snap1, err := snapshot.Load(snapshot1Path)
	if err != nil {
		return fmt.Errorf("failed to load snapshot1: %w", err)
	}

	snap2, err := snapshot.Load(snapshot2Path)
	if err != nil {
		return fmt.Errorf("failed to load snapshot2: %w", err)
	}

	result := diff.Compare(snap1.Snapshot, snap2.Snapshot)

	// Generate migration SQL
	fmt.Fprintf(out, "-- Migration SQL from %s to %s\n", filepath.Base(snapshot1Path), filepath.Base(snapshot2Path))
	fmt.Fprintf(out, "-- Generated at: %s\n\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(out, generator.GenerateSQL(result, d))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config, db, err := connectDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	// Generate snapshot filename
	var filename string
	if len(args) > 0 {
		filename = args[0]
		if !strings.HasSuffix(filename, ".db") {
			filename += ".db"
		}
	} else {
		timestamp := time.Now().Format("2006-01-02-15-04-05")
		filename = fmt.Sprintf("%s-%s.db", filepath.Base(config.Database), timestamp)
	}
	outputPath := filepath.Join(outputDir, filename)

	fmt.Fprintf(cmd.OutOrStdout(), "Creating snapshot: %s\n", outputPath)
	snap, err := database.ImportTables(ctx, db, tables, limit)
	if err != nil {
		return fmt.Errorf("failed to import tables: %w", err)
	}

	metadata := map[string]string{
		"database_type": config.Type,
		"database_name": config.Database,
	}
	if err := snapshot.Save(snap, outputPath, metadata); err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot created successfully: %s\n", outputPath)
	return nil
}

func runPush(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	file, err := snapshot.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	config, db, err := connectDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SaveTables(ctx, config.Owner, file.Snapshot); err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Workspace for %s replaced with %s (%d tables)\n", config.Owner, args[0], len(file.Snapshot.Tables))
	return nil
}

func runPull(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	config, db, err := connectDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := db.LoadTables(ctx, config.Owner)
	if err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}
	if snap == nil {
		return fmt.Errorf("no saved workspace for %s", config.Owner)
	}

	if err := snapshot.Save(snap, args[0], map[string]string{"source": "workspace", "owner": config.Owner}); err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot created successfully: %s\n", args[0])
	return nil
}
