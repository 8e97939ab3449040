package main

import (
	"context"
	"errors"
	"marquee/internal/palette"
	"marquee/internal/palettecache"
	"marquee/internal/poster"
	"strings"

	"github.com/charmbracelet/log"
)

type PaletteRequest struct {
	Poster  string
	MovieID string
	Enhance bool
}

type overrideLookup interface {
	Lookup(ctx context.Context, movieID string) (palette.Overrides, error)
}

// PaletteService resolves a poster, extracts or loads its palette, and layers
// the per-movie overrides on top. It never fails: any problem along the way
// is logged and yields the all-null palette so pages fall back to defaults.
type PaletteService struct {
	resolver  *poster.Resolver
	extractor *palette.Extractor
	memory    *palettecache.Memory
	store     *palettecache.Store
	overrides overrideLookup
	logger    *log.Logger
}

func NewPaletteService(
	resolver *poster.Resolver,
	memory *palettecache.Memory,
	store *palettecache.Store,
	overrides overrideLookup,
	logger *log.Logger,
) *PaletteService {
	if memory == nil {
		memory = palettecache.NewMemory(palettecache.DefaultMaxEntries)
	}
	return &PaletteService{
		resolver:  resolver,
		extractor: palette.NewExtractor(),
		memory:    memory,
		store:     store,
		overrides: overrides,
		logger:    logger,
	}
}

func (s *PaletteService) Generate(ctx context.Context, req PaletteRequest) palette.Palette {
	extracted := palette.Palette{}
	if strings.TrimSpace(req.Poster) != "" {
		extracted = s.extract(ctx, req.Poster)
	}

	if req.Enhance {
		extracted = palette.EnhancePalette(extracted)
	}

	movieID := strings.TrimSpace(req.MovieID)
	if movieID == "" || s.overrides == nil {
		return extracted
	}

	overrides, err := s.overrides.Lookup(ctx, movieID)
	if err != nil {
		s.logger.Warn("load palette overrides", "movie", movieID, "err", err)
		return extracted
	}

	return overrides.Apply(extracted)
}

// Invalidate drops in-memory palettes for a poster file that changed. The
// persistent layer is keyed by content and needs no invalidation.
func (s *PaletteService) Invalidate(path string) {
	if s.memory.InvalidatePath(path) {
		s.logger.Debug("invalidated cached palette", "path", path)
	}
}

func (s *PaletteService) extract(ctx context.Context, reference string) palette.Palette {
	source, err := s.resolver.Resolve(ctx, reference)
	if err != nil {
		s.logger.Warn("resolve poster", "poster", reference, "err", err)
		return palette.Palette{}
	}

	if cached, ok := s.memory.Load(source.Path, source.ModUnixNano); ok {
		return cached
	}
	s.logger.Debug("palette memory miss", "path", source.Path)

	data, err := poster.Load(source)
	if err != nil {
		s.logger.Warn("load poster", "path", source.Path, "err", err)
		return palette.Palette{}
	}

	contentHash := poster.ContentHash(data)
	if s.store != nil {
		cached, err := s.store.Get(ctx, contentHash)
		if err == nil {
			s.memory.Store(source.Path, source.ModUnixNano, cached)
			return cached
		}
		if !errors.Is(err, palettecache.ErrEntryNotFound) {
			s.logger.Warn("read palette cache", "hash", contentHash, "err", err)
		} else {
			s.logger.Debug("palette store miss", "hash", contentHash)
		}
	}

	img, format, err := poster.Decode(data)
	if err != nil {
		s.logger.Warn("decode poster", "path", source.Path, "err", err)
		s.memory.Store(source.Path, source.ModUnixNano, palette.Palette{})
		return palette.Palette{}
	}

	extracted, err := s.extractor.ExtractFromImage(img)
	if err != nil {
		s.logger.Warn("extract palette", "path", source.Path, "format", format, "err", err)
		s.memory.Store(source.Path, source.ModUnixNano, palette.Palette{})
		return palette.Palette{}
	}

	if s.store != nil {
		if err := s.store.Put(ctx, contentHash, extracted); err != nil {
			s.logger.Warn("write palette cache", "hash", contentHash, "err", err)
		}
	}
	s.memory.Store(source.Path, source.ModUnixNano, extracted)

	return extracted
}
