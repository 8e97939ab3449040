package main

import (
	"context"
	"marquee/internal/palettecache"
	"marquee/internal/watcher"
	"time"
)

type StatusSnapshot struct {
	Status        string                   `json:"status"`
	StartedAt     string                   `json:"startedAt"`
	MemoryEntries int                      `json:"memoryEntries"`
	Store         *palettecache.StoreStats `json:"store,omitempty"`
	StoreError    string                   `json:"storeError,omitempty"`
	Watcher       *watcher.Status          `json:"watcher,omitempty"`
}

type StatusService struct {
	startedAt time.Time
	memory    *palettecache.Memory
	store     *palettecache.Store
	watcher   *watcher.Service
}

func NewStatusService(memory *palettecache.Memory, store *palettecache.Store, watcherService *watcher.Service) *StatusService {
	return &StatusService{
		startedAt: time.Now().UTC(),
		memory:    memory,
		store:     store,
		watcher:   watcherService,
	}
}

func (s *StatusService) Snapshot(ctx context.Context) StatusSnapshot {
	snapshot := StatusSnapshot{
		Status:    "ok",
		StartedAt: s.startedAt.Format(time.RFC3339),
	}

	if s.memory != nil {
		snapshot.MemoryEntries = s.memory.Len()
	}

	if s.store != nil {
		stats, err := s.store.Stats(ctx)
		if err != nil {
			snapshot.Status = "degraded"
			snapshot.StoreError = err.Error()
		} else {
			snapshot.Store = &stats
		}
	}

	if s.watcher != nil {
		status := s.watcher.GetStatus()
		snapshot.Watcher = &status
	}

	return snapshot
}
