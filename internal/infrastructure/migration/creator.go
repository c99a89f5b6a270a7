package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"

	// versionFormat sorts lexically, which is how the migrate runner orders files
	versionFormat = "20060102150405"
)

// MigrationFile identifies a scaffolded up/down pair
type MigrationFile struct {
	Version  string
	Slug     string
	UpPath   string
	DownPath string
}

// CreateMigration scaffolds an empty up/down pair in the project's SQL
// conventions. The scaffold refuses to overwrite existing files.
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	if err := os.MkdirAll(migrationsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q reduces to an empty slug", name)
	}
	if description == "" {
		description = name
	}

	version := time.Now().Format(versionFormat)
	base := filepath.Join(migrationsDir, version+"_"+slug)

	mf := &MigrationFile{
		Version:  version,
		Slug:     slug,
		UpPath:   base + upSuffix,
		DownPath: base + downSuffix,
	}

	up := fmt.Sprintf(`-- %s
--
-- Keep statements idempotent (CREATE ... IF NOT EXISTS) so a partially
-- applied migration can be rerun.

`, description)

	down := fmt.Sprintf(`-- Revert: %s
--
-- Drop objects in reverse order of the up migration (DROP ... IF EXISTS).

`, description)

	if err := writeScaffold(mf.UpPath, up); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := writeScaffold(mf.DownPath, down); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}

	return mf, nil
}

func writeScaffold(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// sanitizeName lowercases a migration name and collapses runs of spaces,
// dashes and underscores into single underscores. Anything else is dropped.
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// ListMigrations returns the base names of the up/down pairs in a directory.
// A missing directory is treated as having no migrations.
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), upSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), upSuffix))
	}
	return names, nil
}
