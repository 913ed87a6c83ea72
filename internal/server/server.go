// Package server exposes the explorer over HTTP: filtered school search,
// school and team detail, geocoding, saved lists, fit classifications and
// the AI recommendation endpoints.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"scoutdeck/internal/dataset"
	"scoutdeck/internal/geo"
	"scoutdeck/internal/recommend"
	"scoutdeck/internal/store"
)

// Server wires the domain services behind the HTTP API.
type Server struct {
	source   *dataset.Source
	store    *store.Store
	engine   *recommend.Engine
	geocoder *geo.Geocoder
	logger   *zap.Logger
	metrics  *httpMetrics
}

// New builds a server. engine may be nil when no LLM backend is configured;
// the AI endpoints then answer 503.
func New(source *dataset.Source, st *store.Store, engine *recommend.Engine,
	geocoder *geo.Geocoder, logger *zap.Logger) *Server {

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		source:   source,
		store:    st,
		engine:   engine,
		geocoder: geocoder,
		logger:   logger,
		metrics:  newHTTPMetrics(),
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/options", s.handleOptions)
		r.Post("/schools/search", s.handleSearch)
		r.Get("/schools/{unitid}", s.handleSchoolDetail)
		r.Get("/schools/{unitid}/team", s.handleTeamDetail)
		r.Get("/geocode", s.handleGeocode)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handlePutProfile)
			r.Get("/searches", s.handleListSearches)
			r.Get("/saved", s.handleListSaved)
			r.Post("/saved", s.handleAddSaved)
			r.Delete("/saved/{unitid}", s.handleRemoveSaved)
			r.Get("/classifications", s.handleListClassifications)
			r.Post("/classifications/{unitid}", s.handleClassify)
		})

		r.Post("/recommendations", s.handleRecommendations)
		r.Post("/emails", s.handleEmail)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"schools": s.source.Table().Len(),
	})
}
