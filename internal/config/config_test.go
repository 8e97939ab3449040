package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	config := Default()
	if err := config.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if config.Server.Port != 8787 {
		t.Fatalf("unexpected default port %d", config.Server.Port)
	}
	if config.Cache.MaxEntries != 96 {
		t.Fatalf("unexpected default cache size %d", config.Cache.MaxEntries)
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[server]\nport = 9000\n\n[log]\nlevel = \"debug\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	config, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if config.Server.Port != 9000 {
		t.Fatalf("expected port from file, got %d", config.Server.Port)
	}
	if config.Server.Host != "127.0.0.1" {
		t.Fatalf("expected default host to survive, got %q", config.Server.Host)
	}
	if config.Log.Level != "debug" {
		t.Fatalf("expected debug level, got %q", config.Log.Level)
	}
	if config.Fetch.MaxBytes != 20971520 {
		t.Fatalf("expected default fetch limit, got %d", config.Fetch.MaxBytes)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestResolvePathsUsesConfiguredDataDir(t *testing.T) {
	t.Parallel()

	dataDir := filepath.Join(t.TempDir(), "data")
	paths, err := ResolvePaths("marquee", PathsConfig{DataDir: dataDir})
	if err != nil {
		t.Fatalf("resolve paths: %v", err)
	}

	if paths.DBPath != filepath.Join(dataDir, "marquee.db") {
		t.Fatalf("unexpected db path %q", paths.DBPath)
	}
	if info, err := os.Stat(paths.PosterCacheDir); err != nil || !info.IsDir() {
		t.Fatalf("expected poster cache dir to exist: %v", err)
	}
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write default: %v", err)
	}
	if err := WriteDefault(path); err == nil {
		t.Fatal("expected second write to fail")
	}
}
