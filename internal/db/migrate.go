package db

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"
)

const seedReasonsVersion = "seed_reasons"

// Migrate applies migrations and optional seed files.
// It creates a `schema_migrations` table to track applied migrations and applies
// any SQL files under `migrations/` in migrationFS that have not yet been
// recorded. Seed files in seedFS (may be nil) are applied once per database.
func Migrate(ctx context.Context, d *DB, migrationFS fs.FS, seedFS fs.FS) error {
	// ensure migrations table exists
	if _, err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	migDir := "migrations"

	entries, err := fs.ReadDir(migrationFS, migDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// collect .sql files and sort
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	for _, fname := range files {
		// use filename (without extension) as migration version key
		version := strings.TrimSuffix(fname, path.Ext(fname))

		applied, err := isApplied(ctx, d, version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		b, err := fs.ReadFile(migrationFS, path.Join(migDir, fname))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", fname, err)
		}

		err = d.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(b)); err != nil {
				return fmt.Errorf("exec migration %s: %w", fname, err)
			}
			return record(ctx, tx, version)
		})
		if err != nil {
			return err
		}
		d.logger.Info("migration applied", slog.String("version", version))
	}

	if seedFS == nil {
		return nil
	}

	return seedReasons(ctx, d, seedFS)
}

// seedReasons inserts the default contact reasons from seed/reasons.txt.
// Blank lines and lines starting with '#' are skipped.
func seedReasons(ctx context.Context, d *DB, seedFS fs.FS) error {
	b, err := fs.ReadFile(seedFS, path.Join("seed", "reasons.txt"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read reasons seed: %w", err)
	}

	applied, err := isApplied(ctx, d, seedReasonsVersion)
	if err != nil || applied {
		return err
	}

	var purposes []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		purposes = append(purposes, line)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan reasons seed: %w", err)
	}

	return d.WithTx(ctx, func(tx *sql.Tx) error {
		for _, p := range purposes {
			if _, err := tx.ExecContext(ctx, `INSERT INTO reasons (purpose) VALUES (?)`, p); err != nil {
				return fmt.Errorf("seed reason %q: %w", p, err)
			}
		}
		return record(ctx, tx, seedReasonsVersion)
	})
}

func isApplied(ctx context.Context, d *DB, version string) (bool, error) {
	var count int
	row := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE version = ?`, version)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("scan migration applied count: %w", err)
	}
	return count > 0, nil
}

func record(ctx context.Context, tx *sql.Tx, version string) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied) VALUES (?, ?)`, version, time.Now().UTC().Unix()); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	return nil
}
