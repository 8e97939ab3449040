package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Paths struct {
	BaseDir        string
	DBPath         string
	PosterCacheDir string
}

// ResolvePaths fills in the on-disk layout. Empty fields in cfg fall back to
// a directory named after appSlug under the user config dir.
func ResolvePaths(appSlug string, cfg PathsConfig) (Paths, error) {
	baseDir := strings.TrimSpace(cfg.DataDir)
	if baseDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolve user config dir: %w", err)
		}
		baseDir = filepath.Join(configDir, appSlug)
	}

	posterCacheDir := strings.TrimSpace(cfg.PosterCacheDir)
	if posterCacheDir == "" {
		posterCacheDir = filepath.Join(baseDir, "posters")
	}

	dbPath := strings.TrimSpace(cfg.DBPath)
	if dbPath == "" {
		dbPath = filepath.Join(baseDir, "marquee.db")
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create app data dir: %w", err)
	}

	if err := os.MkdirAll(posterCacheDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create poster cache dir: %w", err)
	}

	return Paths{
		BaseDir:        filepath.Clean(baseDir),
		DBPath:         filepath.Clean(dbPath),
		PosterCacheDir: filepath.Clean(posterCacheDir),
	}, nil
}
