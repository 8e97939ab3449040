package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"marquee/internal/config"
	"marquee/internal/db"
	"marquee/internal/overrides"
	"marquee/internal/palettecache"
	"marquee/internal/poster"
	"marquee/internal/shared"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

const appSlug = "marquee"

// App holds the wired dependencies shared by every command.
type App struct {
	Config    *config.Config
	Paths     config.Paths
	Logger    *log.Logger
	DB        *sql.DB
	Resolver  *poster.Resolver
	Memory    *palettecache.Memory
	Store     *palettecache.Store
	Overrides *overrides.Repository
}

type appOptions struct {
	configPath   string
	logLevel     string
	logOutput    io.Writer
	allowAnyPath bool
}

func openApp(ctx context.Context, opts appOptions) (*App, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if strings.TrimSpace(opts.logLevel) != "" {
		level = opts.logLevel
	}
	logger := shared.NewLogger(opts.logOutput, level)

	paths, err := config.ResolvePaths(appSlug, cfg.Paths)
	if err != nil {
		return nil, err
	}

	database, err := db.Bootstrap(ctx, paths.DBPath)
	if err != nil {
		return nil, err
	}

	resolver := poster.NewResolver(poster.Options{
		CacheDir:      paths.PosterCacheDir,
		LibraryDirs:   cfg.Paths.LibraryDirs,
		AllowAnyPath:  opts.allowAnyPath,
		RatePerSecond: cfg.Fetch.RatePerSecond,
		Burst:         cfg.Fetch.Burst,
		Timeout:       cfg.Fetch.Timeout(),
		MaxBytes:      cfg.Fetch.MaxBytes,
		Logger:        logger,
	})

	logger.Debug("app ready", "db", paths.DBPath, "posters", paths.PosterCacheDir)

	return &App{
		Config:    cfg,
		Paths:     paths,
		Logger:    logger,
		DB:        database,
		Resolver:  resolver,
		Memory:    palettecache.NewMemory(cfg.Cache.MaxEntries),
		Store:     palettecache.NewStore(database),
		Overrides: overrides.NewRepository(database),
	}, nil
}

func (a *App) PaletteService() *PaletteService {
	return NewPaletteService(a.Resolver, a.Memory, a.Store, a.Overrides, a.Logger)
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// loadConfig reads an explicit path, or the default location when it exists,
// or falls back to the embedded defaults.
func loadConfig(path string) (*config.Config, error) {
	if strings.TrimSpace(path) != "" {
		return config.Load(path)
	}

	defaultPath, err := defaultConfigPath()
	if err == nil {
		if _, statErr := os.Stat(defaultPath); statErr == nil {
			return config.Load(defaultPath)
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config file: %w", statErr)
		}
	}

	return config.Load("")
}

func defaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appSlug, "config.toml"), nil
}
