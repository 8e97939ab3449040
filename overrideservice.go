package main

import (
	"context"
	"errors"
	"fmt"
	"marquee/internal/overrides"
	"marquee/internal/palette"
	"marquee/internal/shared"
	"strings"
)

// OverrideInput is the editor payload. Each slot may be a string ("r,g,b" or
// "#rrggbb"), a three-number array, or null.
type OverrideInput struct {
	Dominant1 any `json:"dominant1"`
	Dominant2 any `json:"dominant2"`
	AccentTL  any `json:"accentTl"`
	AccentTR  any `json:"accentTr"`
	AccentBR  any `json:"accentBr"`
	AccentBL  any `json:"accentBl"`
}

// OverrideView pairs the stored raw values with what they parse to.
type OverrideView struct {
	Record overrides.Record  `json:"record"`
	Parsed palette.Overrides `json:"parsed"`
}

type OverrideService struct {
	repo *overrides.Repository
}

func NewOverrideService(repo *overrides.Repository) *OverrideService {
	return &OverrideService{repo: repo}
}

func (s *OverrideService) Get(ctx context.Context, movieID string) (OverrideView, error) {
	record, err := s.repo.Get(ctx, movieID)
	if err != nil {
		return OverrideView{}, mapOverrideError(movieID, err)
	}
	return OverrideView{Record: record, Parsed: record.Overrides()}, nil
}

func (s *OverrideService) List(ctx context.Context) ([]OverrideView, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]OverrideView, 0, len(records))
	for _, record := range records {
		views = append(views, OverrideView{Record: record, Parsed: record.Overrides()})
	}
	return views, nil
}

func (s *OverrideService) Save(ctx context.Context, movieID string, input OverrideInput) (OverrideView, error) {
	record, err := s.repo.Save(ctx, overrides.Record{
		MovieID:   movieID,
		Dominant1: overrides.SlotValue(input.Dominant1),
		Dominant2: overrides.SlotValue(input.Dominant2),
		AccentTL:  overrides.SlotValue(input.AccentTL),
		AccentTR:  overrides.SlotValue(input.AccentTR),
		AccentBR:  overrides.SlotValue(input.AccentBR),
		AccentBL:  overrides.SlotValue(input.AccentBL),
	})
	if err != nil {
		return OverrideView{}, mapOverrideError(movieID, err)
	}
	return OverrideView{Record: record, Parsed: record.Overrides()}, nil
}

func (s *OverrideService) Clear(ctx context.Context, movieID string) error {
	return mapOverrideError(movieID, s.repo.Delete(ctx, movieID))
}

func mapOverrideError(movieID string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, overrides.ErrOverrideNotFound):
		return fmt.Errorf("%w: overrides for movie %q", shared.ErrNotFound, strings.TrimSpace(movieID))
	case errors.Is(err, overrides.ErrMovieIDRequired):
		return fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	default:
		return err
	}
}
