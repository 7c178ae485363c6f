// Package migrations embeds the SQL schema for the succession service.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.sql
var FS embed.FS

// Execer is the minimal surface shared by pgxpool.Pool and database/sql.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) error
}

// UpFiles returns the ascending list of *_up.sql migration names.
func UpFiles() ([]string, error) {
	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), "_up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Apply runs every up migration in order through the given execer.
func Apply(ctx context.Context, db Execer) error {
	names, err := UpFiles()
	if err != nil {
		return err
	}
	for _, name := range names {
		sqlBytes, err := FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := db.Exec(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
