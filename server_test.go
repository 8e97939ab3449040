package main

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"marquee/internal/db"
	"marquee/internal/overrides"
	"marquee/internal/palette"
	"marquee/internal/palettecache"
	"marquee/internal/poster"
	"marquee/internal/shared"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testHarness struct {
	server    *httptest.Server
	palettes  *PaletteService
	store     *palettecache.Store
	memory    *palettecache.Memory
	cacheDir  string
	posterRef string
}

func writeSolidPNG(t *testing.T, path string, fill color.NRGBA) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, fill)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create poster: %v", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		t.Fatalf("encode poster: %v", err)
	}
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	ctx := context.Background()
	database, err := db.Bootstrap(ctx, filepath.Join(t.TempDir(), "marquee.db"))
	if err != nil {
		t.Fatalf("bootstrap db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cacheDir := t.TempDir()
	writeSolidPNG(t, filepath.Join(cacheDir, "red.png"), color.NRGBA{R: 200, G: 30, B: 40, A: 255})
	if err := os.WriteFile(filepath.Join(cacheDir, "broken.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatalf("write broken poster: %v", err)
	}

	logger := shared.DiscardLogger()
	resolver := poster.NewResolver(poster.Options{CacheDir: cacheDir, Logger: logger})
	memory := palettecache.NewMemory(8)
	store := palettecache.NewStore(database)
	repo := overrides.NewRepository(database)
	palettes := NewPaletteService(resolver, memory, store, repo, logger)

	server := NewServer(
		palettes,
		NewOverrideService(repo),
		NewPosterService(resolver, logger),
		NewStatusService(memory, store, nil),
		logger,
	)

	httpServer := httptest.NewServer(server.Routes())
	t.Cleanup(httpServer.Close)

	return &testHarness{
		server:    httpServer,
		palettes:  palettes,
		store:     store,
		memory:    memory,
		cacheDir:  cacheDir,
		posterRef: "red.png",
	}
}

func (h *testHarness) getPalette(t *testing.T, query url.Values) palette.Palette {
	t.Helper()

	resp, err := http.Get(h.server.URL + "/api/palette?" + query.Encode())
	if err != nil {
		t.Fatalf("get palette: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var result palette.Palette
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode palette: %v", err)
	}
	return result
}

func doRequest(t *testing.T, method string, target string, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, target, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	return resp
}

func TestPaletteEndpointExtractsAndCaches(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	result := h.getPalette(t, url.Values{"poster": {h.posterRef}})
	if result.Corners == nil || result.Dominants == nil {
		t.Fatalf("expected full palette, got %+v", result)
	}

	stats, err := h.store.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Entries != 1 {
		t.Fatalf("expected one persisted palette, got %d", stats.Entries)
	}
	if h.memory.Len() != 1 {
		t.Fatalf("expected one memory entry, got %d", h.memory.Len())
	}

	again := h.getPalette(t, url.Values{"poster": {h.posterRef}})
	if *again.Corners != *result.Corners || *again.Dominants != *result.Dominants {
		t.Fatalf("expected cached palette to match: %+v vs %+v", again, result)
	}
}

func TestPaletteEndpointFailuresYieldNullPalette(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	for _, ref := range []string{"broken.png", "missing.png", "../../outside.png"} {
		result := h.getPalette(t, url.Values{"poster": {ref}})
		if !result.Empty() {
			t.Fatalf("expected null palette for %s, got %+v", ref, result)
		}
	}

	resp := doRequest(t, http.MethodGet, h.server.URL+"/api/palette", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without poster or movie, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, h.server.URL+"/api/palette?poster=red.png&enhance=maybe", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad enhance flag, got %d", resp.StatusCode)
	}
}

func TestOverridesEndpointsRoundTrip(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	target := h.server.URL + "/api/movies/tt42/overrides"

	resp := doRequest(t, http.MethodGet, target, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before save, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodPut, target, `{"dominant1":[1,2,3],"accentTl":"#00ff00","accentBr":"junk"}`)
	var view OverrideView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode override view: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on save, got %d", resp.StatusCode)
	}
	if view.Record.Dominant1 != "1,2,3" || view.Record.AccentBR != "junk" || view.Parsed.AccentBR != nil {
		t.Fatalf("unexpected saved view: %+v", view)
	}

	withOverrides := h.getPalette(t, url.Values{"poster": {h.posterRef}, "movie": {"tt42"}})
	if withOverrides.Dominants == nil || withOverrides.Dominants[0] != (palette.RGB{R: 1, G: 2, B: 3}) {
		t.Fatalf("expected dominant override, got %+v", withOverrides.Dominants)
	}
	if withOverrides.Corners == nil || withOverrides.Corners.TL != (palette.RGB{R: 0, G: 255, B: 0}) {
		t.Fatalf("expected corner override, got %+v", withOverrides.Corners)
	}

	movieOnly := h.getPalette(t, url.Values{"movie": {"tt42"}})
	if movieOnly.Corners == nil || movieOnly.Corners.BL != (palette.RGB{R: 0, G: 255, B: 0}) {
		t.Fatalf("expected mirrored corner overrides, got %+v", movieOnly.Corners)
	}
	if movieOnly.Dominants == nil || movieOnly.Dominants[1] != (palette.RGB{R: 1, G: 2, B: 3}) {
		t.Fatalf("expected mirrored dominant overrides, got %+v", movieOnly.Dominants)
	}

	resp = doRequest(t, http.MethodPut, target, `{"dominant1":`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed payload, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodDelete, target, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodDelete, target, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", resp.StatusCode)
	}
}

func TestEnhanceLeavesOverridesUntouched(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	resp := doRequest(t, http.MethodPut, h.server.URL+"/api/movies/m1/overrides", `{"accentTr":"10,20,30"}`)
	resp.Body.Close()

	plain := h.getPalette(t, url.Values{"poster": {h.posterRef}, "movie": {"m1"}})
	enhanced := h.getPalette(t, url.Values{"poster": {h.posterRef}, "movie": {"m1"}, "enhance": {"true"}})

	if enhanced.Corners.TR != (palette.RGB{R: 10, G: 20, B: 30}) {
		t.Fatalf("expected override to bypass enhancement, got %+v", enhanced.Corners.TR)
	}
	if want := palette.EnhanceColor(plain.Corners.TL); enhanced.Corners.TL != want {
		t.Fatalf("expected enhanced corner %+v, got %+v", want, enhanced.Corners.TL)
	}
}

func TestInvalidateDropsMemoryEntry(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.getPalette(t, url.Values{"poster": {h.posterRef}})
	if h.memory.Len() != 1 {
		t.Fatalf("expected memory entry")
	}

	h.palettes.Invalidate(filepath.Join(h.cacheDir, h.posterRef))
	if h.memory.Len() != 0 {
		t.Fatalf("expected memory entry to be invalidated")
	}
}

func TestPosterAndHealthEndpoints(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)

	resp := doRequest(t, http.MethodGet, h.server.URL+"/posters?path=red.png", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("expected png poster, got %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	for _, path := range []string{"../secret.png", "missing.png"} {
		resp = doRequest(t, http.MethodGet, h.server.URL+"/posters?path="+url.QueryEscape(path), "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 for %s, got %d", path, resp.StatusCode)
		}
	}

	resp = doRequest(t, http.MethodGet, h.server.URL+"/posters", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without path, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, h.server.URL+"/healthz", "")
	var snapshot StatusSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	resp.Body.Close()
	if snapshot.Status != "ok" || snapshot.Store == nil {
		t.Fatalf("unexpected health snapshot: %+v", snapshot)
	}
}
