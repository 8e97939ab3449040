package db

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestBootstrapAppliesMigrationsOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "marquee.db")

	database, err := Bootstrap(ctx, path)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer database.Close()

	if err := RunMigrations(ctx, database); err != nil {
		t.Fatalf("rerun migrations: %v", err)
	}

	applied, err := AppliedMigrations(ctx, database)
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}

	want := []string{"migrations/0001_overrides.sql", "migrations/0002_palette_cache.sql"}
	if !reflect.DeepEqual(applied, want) {
		t.Fatalf("unexpected migrations: got %v, want %v", applied, want)
	}

	for _, table := range []string{"movie_overrides", "palette_cache"} {
		var count int
		if err := database.QueryRowContext(ctx, "SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&count); err != nil {
			t.Fatalf("check table %s: %v", table, err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestOpenAppliesConnectionPragmas(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database, err := Open(ctx, filepath.Join(t.TempDir(), "pragmas.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	var journalMode string
	if err := database.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Fatalf("expected wal journal mode, got %q", journalMode)
	}

	var busyTimeout int
	if err := database.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("read busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Fatalf("expected busy_timeout 5000, got %d", busyTimeout)
	}

	if err := Vacuum(ctx, database); err != nil {
		t.Fatalf("vacuum: %v", err)
	}
}
