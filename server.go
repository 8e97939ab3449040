package main

import (
	"encoding/json"
	"errors"
	"marquee/internal/shared"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxOverrideBodyBytes = 64 << 10

type Server struct {
	palettes  *PaletteService
	overrides *OverrideService
	posters   *PosterService
	status    *StatusService
	logger    *log.Logger
}

func NewServer(
	palettes *PaletteService,
	overrides *OverrideService,
	posters *PosterService,
	status *StatusService,
	logger *log.Logger,
) *Server {
	return &Server{
		palettes:  palettes,
		overrides: overrides,
		posters:   posters,
		status:    status,
		logger:    logger,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/posters", s.posters)
	r.Method(http.MethodHead, "/posters", s.posters)

	r.Route("/api", func(r chi.Router) {
		r.Get("/palette", s.handlePalette)
		r.Get("/overrides", s.handleListOverrides)
		r.Get("/movies/{id}/overrides", s.handleGetOverrides)
		r.Put("/movies/{id}/overrides", s.handlePutOverrides)
		r.Delete("/movies/{id}/overrides", s.handleDeleteOverrides)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug(
			"http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(started),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Snapshot(r.Context()))
}

func (s *Server) handlePalette(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := PaletteRequest{
		Poster:  strings.TrimSpace(query.Get("poster")),
		MovieID: strings.TrimSpace(query.Get("movie")),
	}
	if req.Poster == "" && req.MovieID == "" {
		errorJSON(w, http.StatusBadRequest, "poster or movie is required")
		return
	}

	if raw := strings.TrimSpace(query.Get("enhance")); raw != "" {
		enhance, err := strconv.ParseBool(raw)
		if err != nil {
			errorJSON(w, http.StatusBadRequest, "enhance must be a boolean")
			return
		}
		req.Enhance = enhance
	}

	writeJSON(w, http.StatusOK, s.palettes.Generate(r.Context(), req))
}

func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	views, err := s.overrides.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetOverrides(w http.ResponseWriter, r *http.Request) {
	view, err := s.overrides.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePutOverrides(w http.ResponseWriter, r *http.Request) {
	var input OverrideInput
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOverrideBodyBytes))
	if err := decoder.Decode(&input); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid override payload")
		return
	}

	view, err := s.overrides.Save(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteOverrides(w http.ResponseWriter, r *http.Request) {
	if err := s.overrides.Clear(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		errorJSON(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidInput):
		errorJSON(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "err", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
