// Package palettecache keeps extracted palettes around so a poster is analyzed
// once per change.
package palettecache

import (
	"sync"
	"time"

	"marquee/internal/palette"
)

const DefaultMaxEntries = 96

type memoryEntry struct {
	palette           palette.Palette
	sourceModUnixNano int64
	cachedAt          time.Time
}

// Memory is keyed by resolved poster path. An entry is only returned while
// the source mtime matches the one it was stored with.
type Memory struct {
	maxEntries int
	now        func() time.Time

	mu    sync.RWMutex
	cache map[string]memoryEntry
}

func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	return &Memory{
		maxEntries: maxEntries,
		now:        time.Now,
		cache:      make(map[string]memoryEntry),
	}
}

func (m *Memory) Load(path string, sourceModUnixNano int64) (palette.Palette, bool) {
	m.mu.RLock()
	entry, ok := m.cache[path]
	m.mu.RUnlock()
	if !ok || entry.sourceModUnixNano != sourceModUnixNano {
		return palette.Palette{}, false
	}

	return entry.palette, true
}

// Store records the palette for path and evicts the oldest entry once the
// cache grows past its limit.
func (m *Memory) Store(path string, sourceModUnixNano int64, value palette.Palette) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache[path] = memoryEntry{
		palette:           value,
		sourceModUnixNano: sourceModUnixNano,
		cachedAt:          m.now(),
	}

	if len(m.cache) <= m.maxEntries {
		return
	}

	oldestKey := ""
	var oldestAt time.Time
	for key, entry := range m.cache {
		if oldestKey == "" || entry.cachedAt.Before(oldestAt) || (entry.cachedAt.Equal(oldestAt) && key < oldestKey) {
			oldestKey = key
			oldestAt = entry.cachedAt
		}
	}

	if oldestKey != "" {
		delete(m.cache, oldestKey)
	}
}

// InvalidatePath drops the entry for path and reports whether one existed.
func (m *Memory) InvalidatePath(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cache[path]; !ok {
		return false
	}
	delete(m.cache, path)
	return true
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}
