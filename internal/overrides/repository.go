// Package overrides persists the admin-entered palette overrides per movie.
package overrides

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"marquee/internal/palette"
)

var ErrOverrideNotFound = errors.New("override not found")

var ErrMovieIDRequired = errors.New("movie id is required")

// Record keeps slot values exactly as entered. Parsing happens on read so a
// malformed value never blocks the editor; it is just ignored.
type Record struct {
	MovieID   string `json:"movieId"`
	Dominant1 string `json:"dominant1,omitempty"`
	Dominant2 string `json:"dominant2,omitempty"`
	AccentTL  string `json:"accentTl,omitempty"`
	AccentTR  string `json:"accentTr,omitempty"`
	AccentBR  string `json:"accentBr,omitempty"`
	AccentBL  string `json:"accentBl,omitempty"`
	UpdatedAt string `json:"updatedAt"`
}

func (r Record) Overrides() palette.Overrides {
	return palette.Overrides{
		Dominant1: palette.ParseOverridePointer(r.Dominant1),
		Dominant2: palette.ParseOverridePointer(r.Dominant2),
		AccentTL:  palette.ParseOverridePointer(r.AccentTL),
		AccentTR:  palette.ParseOverridePointer(r.AccentTR),
		AccentBR:  palette.ParseOverridePointer(r.AccentBR),
		AccentBL:  palette.ParseOverridePointer(r.AccentBL),
	}
}

// Empty reports whether every slot is blank.
func (r Record) Empty() bool {
	for _, value := range []string{r.Dominant1, r.Dominant2, r.AccentTL, r.AccentTR, r.AccentBR, r.AccentBL} {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// SlotValue turns an editor value into its stored form. Strings are kept
// trimmed; numeric triples become "r,g,b".
func SlotValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		parsed, ok := palette.ParseOverride(v)
		if !ok {
			return ""
		}
		return parsed.String()
	}
}

type Repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) *Repository {
	return &Repository{db: database}
}

const selectColumns = "movie_id, dominant1, dominant2, accent_tl, accent_tr, accent_br, accent_bl, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var record Record
	var dominant1, dominant2, accentTL, accentTR, accentBR, accentBL sql.NullString
	if err := row.Scan(
		&record.MovieID,
		&dominant1,
		&dominant2,
		&accentTL,
		&accentTR,
		&accentBR,
		&accentBL,
		&record.UpdatedAt,
	); err != nil {
		return Record{}, err
	}

	record.Dominant1 = dominant1.String
	record.Dominant2 = dominant2.String
	record.AccentTL = accentTL.String
	record.AccentTR = accentTR.String
	record.AccentBR = accentBR.String
	record.AccentBL = accentBL.String
	return record, nil
}

func (r *Repository) Get(ctx context.Context, movieID string) (Record, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return Record{}, ErrMovieIDRequired
	}

	record, err := scanRecord(r.db.QueryRowContext(
		ctx,
		"SELECT "+selectColumns+" FROM movie_overrides WHERE movie_id = ?",
		movieID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrOverrideNotFound
		}
		return Record{}, fmt.Errorf("get override %s: %w", movieID, err)
	}

	return record, nil
}

func (r *Repository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+selectColumns+" FROM movie_overrides ORDER BY movie_id")
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan override row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate override rows: %w", err)
	}

	return records, nil
}

// Save replaces the whole record for the movie. Saving an all-blank record
// removes it.
func (r *Repository) Save(ctx context.Context, record Record) (Record, error) {
	record.MovieID = strings.TrimSpace(record.MovieID)
	if record.MovieID == "" {
		return Record{}, ErrMovieIDRequired
	}

	if record.Empty() {
		if err := r.Delete(ctx, record.MovieID); err != nil && !errors.Is(err, ErrOverrideNotFound) {
			return Record{}, err
		}
		return Record{MovieID: record.MovieID}, nil
	}

	if _, err := r.db.ExecContext(
		ctx,
		`INSERT INTO movie_overrides(movie_id, dominant1, dominant2, accent_tl, accent_tr, accent_br, accent_bl, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(movie_id) DO UPDATE SET
			dominant1 = excluded.dominant1,
			dominant2 = excluded.dominant2,
			accent_tl = excluded.accent_tl,
			accent_tr = excluded.accent_tr,
			accent_br = excluded.accent_br,
			accent_bl = excluded.accent_bl,
			updated_at = excluded.updated_at`,
		record.MovieID,
		nullableString(record.Dominant1),
		nullableString(record.Dominant2),
		nullableString(record.AccentTL),
		nullableString(record.AccentTR),
		nullableString(record.AccentBR),
		nullableString(record.AccentBL),
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return Record{}, fmt.Errorf("upsert override %s: %w", record.MovieID, err)
	}

	return r.Get(ctx, record.MovieID)
}

func (r *Repository) Delete(ctx context.Context, movieID string) error {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return ErrMovieIDRequired
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM movie_overrides WHERE movie_id = ?", movieID)
	if err != nil {
		return fmt.Errorf("delete override %s: %w", movieID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read deleted override count: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOverrideNotFound
	}

	return nil
}

// Lookup returns the parsed overrides for a movie, or zero overrides when
// none are stored.
func (r *Repository) Lookup(ctx context.Context, movieID string) (palette.Overrides, error) {
	record, err := r.Get(ctx, movieID)
	if err != nil {
		if errors.Is(err, ErrOverrideNotFound) || errors.Is(err, ErrMovieIDRequired) {
			return palette.Overrides{}, nil
		}
		return palette.Overrides{}, err
	}

	return record.Overrides(), nil
}

func nullableString(value string) any {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return trimmed
}
