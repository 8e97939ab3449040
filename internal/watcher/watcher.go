// Package watcher reports changes to poster files so cached palettes for them
// can be dropped.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"marquee/internal/shared"
)

// Handler receives the absolute path of a file that changed or went away.
type Handler func(path string)

type Status struct {
	Running     bool     `json:"running"`
	Directories []string `json:"directories"`
	Events      int      `json:"events"`
	LastEventAt string   `json:"lastEventAt,omitempty"`
	LastError   string   `json:"lastError,omitempty"`
}

type Service struct {
	logger  *log.Logger
	handler Handler

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	directories map[string]struct{}
	running     bool
	events      int
	lastEvent   time.Time
	lastError   string
}

func NewService(handler Handler, logger *log.Logger) *Service {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Service{
		logger:      logger,
		handler:     handler,
		directories: make(map[string]struct{}),
	}
}

// Start watches every directory under roots and returns once they are
// registered. Events are delivered until ctx is cancelled or Close is called.
func (s *Service) Start(ctx context.Context, roots []string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("watcher already running")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("create fs watcher: %w", err)
	}
	s.watcher = fsWatcher
	s.running = true
	s.mu.Unlock()

	for _, root := range roots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		if err := s.addTree(root); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.Warn("skipping missing watch root", "path", root)
				continue
			}
			s.Close()
			return err
		}
	}

	go s.loop(ctx, fsWatcher)
	return nil
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	s.directories = make(map[string]struct{})
	return s.watcher.Close()
}

func (s *Service) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	directories := make([]string, 0, len(s.directories))
	for dir := range s.directories {
		directories = append(directories, dir)
	}
	sort.Strings(directories)

	status := Status{
		Running:     s.running,
		Directories: directories,
		Events:      s.events,
		LastError:   s.lastError,
	}
	if !s.lastEvent.IsZero() {
		status.LastEventAt = s.lastEvent.UTC().Format(time.RFC3339)
	}
	return status
}

func (s *Service) loop(ctx context.Context, fsWatcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			s.mu.Lock()
			s.lastError = err.Error()
			s.mu.Unlock()
			s.logger.Warn("poster watcher error", "err", err)
		}
	}
}

func (s *Service) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	path, err := filepath.Abs(event.Name)
	if err != nil {
		path = filepath.Clean(event.Name)
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := s.addTree(path); err != nil {
				s.logger.Warn("watch new directory", "path", path, "err", err)
			}
			return
		}
	}

	s.mu.Lock()
	s.events++
	s.lastEvent = time.Now()
	s.mu.Unlock()

	s.logger.Debug("poster changed", "path", path, "op", event.Op.String())
	if s.handler != nil {
		s.handler(path)
	}
}

func (s *Service) addTree(root string) error {
	absRoot, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return fmt.Errorf("resolve watch root %s: %w", root, err)
	}

	return filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == absRoot {
				return fmt.Errorf("walk watch root %s: %w", absRoot, walkErr)
			}
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != absRoot && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.running {
			return filepath.SkipAll
		}
		if _, ok := s.directories[path]; ok {
			return nil
		}
		if err := s.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		s.directories[path] = struct{}{}
		return nil
	})
}
