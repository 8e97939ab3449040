package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"marquee/internal/palette"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"
)

func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()

	dataDir := t.TempDir()
	configPath := filepath.Join(dataDir, "config.toml")
	body := fmt.Sprintf("[paths]\ndata_dir = %q\n\n[log]\nlevel = \"error\"\n", filepath.ToSlash(dataDir))
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, dataDir
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()

	var stdout, stderr bytes.Buffer
	r := newRunner(&stdout, &stderr)
	app := &cli.Command{
		Name: appSlug,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
			&cli.StringFlag{Name: "log-level"},
		},
		Commands: r.register(),
	}

	if err := app.Run(context.Background(), append([]string{appSlug}, args...)); err != nil {
		t.Fatalf("run %v: %v (stderr: %s)", args, err, stderr.String())
	}
	return stdout.String()
}

func TestOpenAppUsesConfiguredDataDir(t *testing.T) {
	t.Parallel()

	configPath, dataDir := writeTestConfig(t)
	app, err := openApp(context.Background(), appOptions{configPath: configPath})
	if err != nil {
		t.Fatalf("open app: %v", err)
	}
	defer app.Close()

	if app.Paths.DBPath != filepath.Join(dataDir, "marquee.db") {
		t.Fatalf("unexpected db path %s", app.Paths.DBPath)
	}
	if info, err := os.Stat(app.Paths.PosterCacheDir); err != nil || !info.IsDir() {
		t.Fatalf("expected poster cache dir to exist: %v", err)
	}
}

func TestOverrideCommands(t *testing.T) {
	t.Parallel()

	configPath, _ := writeTestConfig(t)

	out := runCLI(t, "--config", configPath, "override", "set", "--dominant1", "#ff8800", "--accent-bl", "bogus", "tt01")
	if !strings.Contains(out, "tt01") || !strings.Contains(out, "#ff8800") || !strings.Contains(out, "bogus (ignored)") {
		t.Fatalf("unexpected set output:\n%s", out)
	}

	out = runCLI(t, "--config", configPath, "override", "show", "--json", "tt01")
	var view OverrideView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode show output: %v\n%s", err, out)
	}
	if view.Parsed.Dominant1 == nil || *view.Parsed.Dominant1 != (palette.RGB{R: 255, G: 136, B: 0}) {
		t.Fatalf("unexpected parsed dominant: %+v", view.Parsed)
	}

	out = runCLI(t, "--config", configPath, "override", "list")
	if !strings.Contains(out, "tt01") {
		t.Fatalf("expected list to include movie:\n%s", out)
	}

	out = runCLI(t, "--config", configPath, "override", "clear", "tt01")
	if !strings.Contains(out, "cleared overrides for tt01") {
		t.Fatalf("unexpected clear output:\n%s", out)
	}

	out = runCLI(t, "--config", configPath, "override", "list")
	if !strings.Contains(out, "no overrides stored") {
		t.Fatalf("expected empty list:\n%s", out)
	}
}

func TestExtractAndCacheCommands(t *testing.T) {
	t.Parallel()

	configPath, _ := writeTestConfig(t)
	posterPath := filepath.Join(t.TempDir(), "poster.png")
	writeSolidPNG(t, posterPath, color.NRGBA{R: 30, G: 60, B: 200, A: 255})

	out := runCLI(t, "--config", configPath, "extract", "--json", posterPath)
	var result palette.Palette
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode extract output: %v\n%s", err, out)
	}
	if result.Corners == nil || result.Dominants == nil {
		t.Fatalf("expected full palette, got %+v", result)
	}

	out = runCLI(t, "--config", configPath, "extract", posterPath)
	if !strings.Contains(out, "dominant 1") || !strings.Contains(out, "top left") {
		t.Fatalf("unexpected swatch output:\n%s", out)
	}

	out = runCLI(t, "--config", configPath, "cache", "stats")
	if !strings.Contains(out, "ENTRIES") || !strings.Contains(out, "0002_palette_cache") {
		t.Fatalf("unexpected stats output:\n%s", out)
	}

	out = runCLI(t, "--config", configPath, "cache", "clear")
	if !strings.Contains(out, "cleared 1 cached palettes") {
		t.Fatalf("unexpected clear output:\n%s", out)
	}

	out = runCLI(t, "--config", configPath, "cache", "prune", "--max-age-days", "1")
	if !strings.Contains(out, "pruned 0 cached palettes") {
		t.Fatalf("unexpected prune output:\n%s", out)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out := runCLI(t, "config", "init", "--path", target)
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected init output:\n%s", out)
	}

	var stdout, stderr bytes.Buffer
	r := newRunner(&stdout, &stderr)
	app := &cli.Command{Name: appSlug, Commands: r.register()}
	if err := app.Run(context.Background(), []string{appSlug, "config", "init", "--path", target}); err == nil {
		t.Fatalf("expected second init to fail")
	}
}
