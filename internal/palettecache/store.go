package palettecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"marquee/internal/palette"
)

var ErrEntryNotFound = errors.New("palette cache entry not found")

// Store persists raw extraction results by poster content hash. Overrides
// and enhancement are never stored; they are applied per request.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(database *sql.DB) *Store {
	return &Store{db: database, now: time.Now}
}

type StoreStats struct {
	Entries    int    `json:"entries"`
	OldestUsed string `json:"oldestUsed,omitempty"`
	NewestUsed string `json:"newestUsed,omitempty"`
}

func (s *Store) Get(ctx context.Context, contentHash string) (palette.Palette, error) {
	contentHash = normalizeHash(contentHash)
	if contentHash == "" {
		return palette.Palette{}, ErrEntryNotFound
	}

	var payload string
	err := s.db.QueryRowContext(
		ctx,
		"SELECT palette_json FROM palette_cache WHERE content_hash = ?",
		contentHash,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return palette.Palette{}, ErrEntryNotFound
		}
		return palette.Palette{}, fmt.Errorf("get cached palette %s: %w", contentHash, err)
	}

	var cached palette.Palette
	if err := json.Unmarshal([]byte(payload), &cached); err != nil {
		return palette.Palette{}, fmt.Errorf("decode cached palette %s: %w", contentHash, err)
	}

	if _, err := s.db.ExecContext(
		ctx,
		"UPDATE palette_cache SET last_used_at = ? WHERE content_hash = ?",
		s.timestamp(),
		contentHash,
	); err != nil {
		return palette.Palette{}, fmt.Errorf("touch cached palette %s: %w", contentHash, err)
	}

	return cached, nil
}

func (s *Store) Put(ctx context.Context, contentHash string, value palette.Palette) error {
	contentHash = normalizeHash(contentHash)
	if contentHash == "" {
		return errors.New("content hash is required")
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode palette: %w", err)
	}

	now := s.timestamp()
	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO palette_cache(content_hash, palette_json, created_at, last_used_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(content_hash) DO UPDATE SET
			palette_json = excluded.palette_json,
			last_used_at = excluded.last_used_at`,
		contentHash,
		string(payload),
		now,
		now,
	); err != nil {
		return fmt.Errorf("store cached palette %s: %w", contentHash, err)
	}

	return nil
}

// Prune removes entries not used within maxAge and returns how many went.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	cutoff := s.now().UTC().Add(-maxAge).Format(timestampLayout)
	result, err := s.db.ExecContext(ctx, "DELETE FROM palette_cache WHERE last_used_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune palette cache: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read pruned palette count: %w", err)
	}
	return removed, nil
}

func (s *Store) Clear(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM palette_cache")
	if err != nil {
		return 0, fmt.Errorf("clear palette cache: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read cleared palette count: %w", err)
	}
	return removed, nil
}

func (s *Store) Stats(ctx context.Context) (StoreStats, error) {
	var stats StoreStats
	var oldest, newest sql.NullString
	if err := s.db.QueryRowContext(
		ctx,
		"SELECT COUNT(1), MIN(last_used_at), MAX(last_used_at) FROM palette_cache",
	).Scan(&stats.Entries, &oldest, &newest); err != nil {
		return StoreStats{}, fmt.Errorf("read palette cache stats: %w", err)
	}

	stats.OldestUsed = oldest.String
	stats.NewestUsed = newest.String
	return stats, nil
}

// Fixed width so that string comparison orders timestamps.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

func normalizeHash(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
