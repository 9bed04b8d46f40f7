package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	sqlparse "github.com/koba/sqlplay/internal/sql"
)

const (
	prompt         = "sqlplay> "
	continuePrompt = "     ->  "
)

// CLI is the interactive shell around a session
type CLI struct {
	session  *session
	readline *readline.Instance

	// Multi-line query state
	currentQuery strings.Builder
	inMultiLine  bool
}

// NewCLI creates a new CLI instance
func NewCLI(s *session) (*CLI, error) {
	// Determine history file location (in user's home directory)
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       filepath.Join(homeDir, ".sqlplay_history"),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}

	return &CLI{session: s, readline: rl}, nil
}

// Run reads statements until exit or EOF
func (c *CLI) Run() error {
	fmt.Println("SQL playground. Enter statements ending with ';', 'help' for commands, or 'exit' to quit.")
	fmt.Println()

	for {
		line, err := c.readline.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if !c.inMultiLine {
			if line == "" {
				continue
			}
			switch strings.ToLower(strings.TrimSuffix(line, ";")) {
			case "exit", "quit", "\\q":
				return nil
			}
			if handled, err := c.session.meta(strings.TrimSuffix(line, ";")); handled {
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				}
				continue
			}
		}

		// Add line to current query (preserve line breaks for history)
		if c.currentQuery.Len() > 0 {
			c.currentQuery.WriteString("\n")
		}
		c.currentQuery.WriteString(line)

		fullQuery := strings.TrimSpace(c.currentQuery.String())
		if !strings.HasSuffix(fullQuery, ";") {
			c.inMultiLine = true
			c.readline.SetPrompt(continuePrompt)
			continue
		}

		c.readline.SaveHistory(strings.ReplaceAll(fullQuery, "\n", " "))
		c.currentQuery.Reset()
		c.inMultiLine = false
		c.readline.SetPrompt(prompt)

		// Statements are executed one by one; a failure does not stop the rest
		for _, stmt := range sqlparse.Split(fullQuery, ';') {
			if err := c.session.execute(stmt); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}
}

// Close closes the CLI and cleans up resources
func (c *CLI) Close() error {
	if c.readline != nil {
		return c.readline.Close()
	}
	return nil
}
