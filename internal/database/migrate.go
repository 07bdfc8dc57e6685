package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/iliyamo/cafe-table-reservation/internal/logging"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, in file name order.
func Migrate(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	return migrate(ctx, db, migrationFS, "migrations", logging.OrDiscard(log))
}

func migrate(ctx context.Context, db *sql.DB, fsys fs.FS, dir string, log *slog.Logger) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			migration_name VARCHAR(255) NOT NULL PRIMARY KEY,
			applied_at     DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	files, err := migrationFiles(fsys, dir)
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	for _, name := range files {
		if applied[name] {
			continue
		}
		raw, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		for _, stmt := range SplitStatements(string(raw)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("run migration %s: %w", name, err)
			}
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO schema_migrations (migration_name) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		log.Info("migration applied", "name", name)
	}
	return nil
}

func migrationFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT migration_name FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// SplitStatements breaks a migration file into single statements. The
// driver runs one statement per Exec unless multiStatements is enabled.
// Line comments are dropped; semicolons inside quotes are kept.
func SplitStatements(src string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
	)
	lines := strings.Split(src, "\n")
	for _, line := range lines {
		if quote == 0 && strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for _, r := range line {
			switch {
			case quote != 0:
				if r == quote {
					quote = 0
				}
			case r == '\'' || r == '"' || r == '`':
				quote = r
			case r == ';':
				if s := strings.TrimSpace(cur.String()); s != "" {
					out = append(out, s)
				}
				cur.Reset()
				continue
			}
			cur.WriteRune(r)
		}
		cur.WriteByte('\n')
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}
