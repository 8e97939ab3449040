package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestServiceReportsChangedFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "movie-a")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	changed := make(chan string, 16)
	service := NewService(func(path string) { changed <- path }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := service.Start(ctx, []string{root, filepath.Join(root, "missing")}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer service.Close()

	status := service.GetStatus()
	if !status.Running || len(status.Directories) != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}

	target := filepath.Join(nested, "poster.jpg")
	if err := os.WriteFile(target, []byte("poster"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case path := <-changed:
			if path == target {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change event on %s", target)
		}
	}
}

func TestServiceStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	service := NewService(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	if err := service.Start(ctx, []string{t.TempDir()}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := service.Start(ctx, nil); err == nil {
		t.Fatalf("expected second start to fail")
	}

	cancel()

	deadline := time.Now().Add(5 * time.Second)
	for service.GetStatus().Running {
		if time.Now().After(deadline) {
			t.Fatalf("watcher still running after cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
