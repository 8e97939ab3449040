package main

import (
	"errors"
	"marquee/internal/poster"
	"marquee/internal/shared"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
)

// PosterService serves local poster files and embedded artwork. Remote URLs
// are not proxied; only files under the configured roots are reachable.
type PosterService struct {
	resolver *poster.Resolver
	logger   *log.Logger
}

func NewPosterService(resolver *poster.Resolver, logger *log.Logger) *PosterService {
	return &PosterService{resolver: resolver, logger: logger}
}

func (s *PosterService) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		rw.Header().Set("Allow", "GET, HEAD")
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	posterPath := strings.TrimSpace(req.URL.Query().Get("path"))
	if posterPath == "" {
		http.Error(rw, "missing poster path", http.StatusBadRequest)
		return
	}
	if strings.Contains(posterPath, "://") {
		http.Error(rw, "remote posters are not served", http.StatusBadRequest)
		return
	}

	source, err := s.resolver.Resolve(req.Context(), posterPath)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, poster.ErrOutsideRoots) {
			s.logger.Warn("resolve poster for serving", "path", posterPath, "err", err)
		}
		http.Error(rw, "poster not found", http.StatusNotFound)
		return
	}

	rw.Header().Set("Cache-Control", "public, max-age=86400")

	if source.Kind != poster.KindEmbedded {
		http.ServeFile(rw, req, source.Path)
		return
	}

	imageData, err := poster.Load(source)
	if err != nil {
		s.logger.Warn("read embedded poster", "path", source.Path, "err", err)
		http.Error(rw, "poster not found", http.StatusNotFound)
		return
	}

	rw.Header().Set("Content-Type", http.DetectContentType(imageData))
	if req.Method == http.MethodHead {
		return
	}

	if _, err := rw.Write(imageData); err != nil {
		s.logger.Debug("write embedded poster", "path", source.Path, "err", err)
	}
}
