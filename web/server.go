package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fileindex/app"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Server exposes the analytical queries over a scanned database as JSON.
// It never writes; scans run through the CLI pipeline, not through here.
type Server struct {
	stats *app.StatsReader
	log   zerolog.Logger
}

func NewServer(stats *app.StatsReader, log zerolog.Logger) *Server {
	return &Server{stats: stats, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/stats", s.handleStats)
	r.Get("/duplicates", s.handleDuplicates)
	return r
}

// Listen serves the router until the listener fails.
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("report server listening")
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	table, err := s.stats.TableStats()
	if err != nil {
		s.renderError(w, err)
		return
	}
	extensions, err := s.stats.TopExtensions(15)
	if err != nil {
		s.renderError(w, err)
		return
	}
	sizes, err := s.stats.SizeDistribution()
	if err != nil {
		s.renderError(w, err)
		return
	}
	lengths, err := s.stats.PathLengthDistribution()
	if err != nil {
		s.renderError(w, err)
		return
	}

	s.renderJSON(w, map[string]any{
		"table":        table,
		"extensions":   extensions,
		"sizes":        sizes,
		"path_lengths": lengths,
	})
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	groups, err := s.stats.DuplicateGroups(limit)
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.renderJSON(w, map[string]any{"duplicates": groups})
}

func (s *Server) renderJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("stats query failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
