package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"marquee/internal/config"
	"marquee/internal/db"
	"marquee/internal/shared"
	"marquee/internal/watcher"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

type runner struct {
	stdout io.Writer
	stderr io.Writer
}

func newRunner(stdout io.Writer, stderr io.Writer) *runner {
	return &runner{stdout: stdout, stderr: stderr}
}

func (r *runner) register() []*cli.Command {
	return []*cli.Command{
		serveCommand(r),
		extractCommand(r),
		overrideCommand(r),
		cacheCommand(r),
		configCommand(r),
	}
}

func (r *runner) open(ctx context.Context, cmd *cli.Command, allowAnyPath bool) (*App, error) {
	return openApp(ctx, appOptions{
		configPath:   cmd.String("config"),
		logLevel:     cmd.String("log-level"),
		logOutput:    r.stderr,
		allowAnyPath: allowAnyPath,
	})
}

func (r *runner) printf(format string, args ...any) {
	fmt.Fprintf(r.stdout, format, args...)
}

func (r *runner) printJSON(value any) error {
	encoder := json.NewEncoder(r.stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func serveCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the palette HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overriding server.host and server.port",
			},
		},
		Action: r.Serve,
	}
}

func (r *runner) Serve(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	if maxAge := app.Config.Cache.MaxAge(); maxAge > 0 {
		if removed, err := app.Store.Prune(ctx, maxAge); err != nil {
			app.Logger.Warn("prune palette cache", "err", err)
		} else if removed > 0 {
			app.Logger.Info("pruned palette cache", "entries", removed)
		}
	}

	palettes := app.PaletteService()

	var watcherService *watcher.Service
	if app.Config.Cache.Watch {
		watcherService = watcher.NewService(palettes.Invalidate, app.Logger)
		if err := watcherService.Start(ctx, app.Resolver.Roots()); err != nil {
			app.Logger.Warn("poster watcher disabled", "err", err)
			watcherService = nil
		} else {
			defer watcherService.Close()
		}
	}

	server := NewServer(
		palettes,
		NewOverrideService(app.Overrides),
		NewPosterService(app.Resolver, app.Logger),
		NewStatusService(app.Memory, app.Store, watcherService),
		app.Logger,
	)

	addr := strings.TrimSpace(cmd.String("addr"))
	if addr == "" {
		addr = app.Config.Server.Addr()
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	app.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

func extractCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract the palette of a poster file or URL",
		ArgsUsage: "<poster>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "movie",
				Usage: "Apply the stored overrides of this movie",
			},
			&cli.BoolFlag{
				Name:  "enhance",
				Usage: "Apply the presentation boost to every colour",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Extract,
	}
}

func (r *runner) Extract(ctx context.Context, cmd *cli.Command) error {
	reference := strings.TrimSpace(cmd.Args().First())
	if reference == "" {
		return fmt.Errorf("%w: poster", shared.ErrMissingArgument)
	}

	app, err := r.open(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer app.Close()

	result := app.PaletteService().Generate(ctx, PaletteRequest{
		Poster:  reference,
		MovieID: cmd.String("movie"),
		Enhance: cmd.Bool("enhance"),
	})

	if cmd.Bool("json") {
		return r.printJSON(result)
	}

	r.printf("%s\n", reference)
	r.printf("%s", renderSwatches(result))
	return nil
}

func overrideCommand(r *runner) *cli.Command {
	slotFlags := []cli.Flag{
		&cli.StringFlag{Name: "dominant1", Usage: `First dominant colour, "r,g,b" or "#rrggbb"`},
		&cli.StringFlag{Name: "dominant2", Usage: "Second dominant colour"},
		&cli.StringFlag{Name: "accent-tl", Usage: "Top-left accent"},
		&cli.StringFlag{Name: "accent-tr", Usage: "Top-right accent"},
		&cli.StringFlag{Name: "accent-br", Usage: "Bottom-right accent"},
		&cli.StringFlag{Name: "accent-bl", Usage: "Bottom-left accent"},
	}

	return &cli.Command{
		Name:  "override",
		Usage: "Manage per-movie palette overrides",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Replace the overrides of a movie",
				ArgsUsage: "<movie-id>",
				Flags:     slotFlags,
				Action:    r.OverrideSet,
			},
			{
				Name:      "show",
				Usage:     "Show the overrides of a movie",
				ArgsUsage: "<movie-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.OverrideShow,
			},
			{
				Name:      "clear",
				Usage:     "Remove the overrides of a movie",
				ArgsUsage: "<movie-id>",
				Action:    r.OverrideClear,
			},
			{
				Name:   "list",
				Usage:  "List every movie with overrides",
				Action: r.OverrideList,
			},
		},
	}
}

func (r *runner) OverrideSet(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	input := OverrideInput{}
	for name, slot := range map[string]*any{
		"dominant1": &input.Dominant1,
		"dominant2": &input.Dominant2,
		"accent-tl": &input.AccentTL,
		"accent-tr": &input.AccentTR,
		"accent-br": &input.AccentBR,
		"accent-bl": &input.AccentBL,
	} {
		if value := cmd.String(name); strings.TrimSpace(value) != "" {
			*slot = value
		}
	}

	view, err := NewOverrideService(app.Overrides).Save(ctx, cmd.Args().First(), input)
	if err != nil {
		return err
	}

	if view.Record.UpdatedAt == "" {
		r.printf("cleared overrides for %s\n", view.Record.MovieID)
		return nil
	}
	r.printf("%s\n", renderOverrides([]OverrideView{view}))
	return nil
}

func (r *runner) OverrideShow(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	view, err := NewOverrideService(app.Overrides).Get(ctx, cmd.Args().First())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.printJSON(view)
	}
	r.printf("%s\n", renderOverrides([]OverrideView{view}))
	return nil
}

func (r *runner) OverrideClear(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	movieID := cmd.Args().First()
	if err := NewOverrideService(app.Overrides).Clear(ctx, movieID); err != nil {
		return err
	}
	r.printf("cleared overrides for %s\n", strings.TrimSpace(movieID))
	return nil
}

func (r *runner) OverrideList(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	views, err := NewOverrideService(app.Overrides).List(ctx)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		r.printf("no overrides stored\n")
		return nil
	}
	r.printf("%s\n", renderOverrides(views))
	return nil
}

func renderOverrides(views []OverrideView) string {
	rows := make([][]string, 0, len(views))
	for _, view := range views {
		record := view.Record
		parsed := view.Parsed
		rows = append(rows, []string{
			record.MovieID,
			slotCell(record.Dominant1, parsed.Dominant1),
			slotCell(record.Dominant2, parsed.Dominant2),
			slotCell(record.AccentTL, parsed.AccentTL),
			slotCell(record.AccentTR, parsed.AccentTR),
			slotCell(record.AccentBR, parsed.AccentBR),
			slotCell(record.AccentBL, parsed.AccentBL),
			record.UpdatedAt,
		})
	}

	return renderTable(
		[]string{"Movie", "Dominant 1", "Dominant 2", "TL", "TR", "BR", "BL", "Updated"},
		rows,
	)
}

func cacheCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Maintain the persistent palette cache",
		Commands: []*cli.Command{
			{
				Name:  "prune",
				Usage: "Remove palettes not used recently",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-age-days",
						Usage: "Age threshold, defaulting to cache.max_age_days",
					},
				},
				Action: r.CachePrune,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached palette",
				Action: r.CacheClear,
			},
			{
				Name:   "stats",
				Usage:  "Show palette cache statistics",
				Action: r.CacheStats,
			},
		},
	}
}

func (r *runner) CachePrune(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	maxAge := app.Config.Cache.MaxAge()
	if days := cmd.Int("max-age-days"); days > 0 {
		maxAge = time.Duration(days) * 24 * time.Hour
	}
	if maxAge <= 0 {
		return fmt.Errorf("%w: max age must be positive", shared.ErrInvalidInput)
	}

	removed, err := app.Store.Prune(ctx, maxAge)
	if err != nil {
		return err
	}
	r.printf("pruned %d cached palettes\n", removed)
	return nil
}

func (r *runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	removed, err := app.Store.Clear(ctx)
	if err != nil {
		return err
	}
	if err := db.Vacuum(ctx, app.DB); err != nil {
		app.Logger.Warn("vacuum after clear", "err", err)
	}
	r.printf("cleared %d cached palettes\n", removed)
	return nil
}

func (r *runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	stats, err := app.Store.Stats(ctx)
	if err != nil {
		return err
	}

	applied, err := db.AppliedMigrations(ctx, app.DB)
	if err != nil {
		return err
	}
	schema := "none"
	if len(applied) > 0 {
		last := filepath.Base(applied[len(applied)-1])
		schema = strings.TrimSuffix(last, filepath.Ext(last))
	}

	r.printf("%s\n", renderTable(
		[]string{"Entries", "Oldest use", "Newest use", "Schema", "Database"},
		[][]string{{fmt.Sprintf("%d", stats.Entries), stats.OldestUsed, stats.NewestUsed, schema, app.Paths.DBPath}},
	))
	return nil
}

func configCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration helpers",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Destination, defaulting to the user config dir",
					},
				},
				Action: r.ConfigInit,
			},
		},
	}
}

func (r *runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.String("path"))
	if path == "" {
		defaultPath, err := defaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}

	r.printf("wrote %s\n", path)
	return nil
}
