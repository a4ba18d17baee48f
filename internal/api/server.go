package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/signalsfoundry/geointel-engine/core"
	"github.com/signalsfoundry/geointel-engine/internal/catalog"
	"github.com/signalsfoundry/geointel-engine/internal/logging"
	"github.com/signalsfoundry/geointel-engine/internal/observability"
	"github.com/signalsfoundry/geointel-engine/internal/stream"
)

// Server exposes the analytics engine to the presentation layer as a
// plain-JSON HTTP API plus a websocket stream. It holds no analytic
// state of its own.
type Server struct {
	engine *core.Engine
	store  *catalog.Catalog
	hub    *stream.Hub
	log    logging.Logger

	metrics *observability.AnalyticsCollector
}

// Option customises Server construction.
type Option func(*Server)

// WithHub attaches the websocket stream hub. Without it the stream
// endpoints respond 503.
func WithHub(h *stream.Hub) Option {
	return func(s *Server) {
		s.hub = h
	}
}

// WithCollector attaches HTTP metrics instrumentation.
func WithCollector(c *observability.AnalyticsCollector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// NewServer wires the API in front of the engine and element catalog.
func NewServer(engine *core.Engine, store *catalog.Catalog, log logging.Logger, opts ...Option) *Server {
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{
		engine: engine,
		store:  store,
		log:    log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Routes assembles the chi router with request-ID, tracing, CORS, and
// metrics middleware.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		MaxAge:         300,
	}))
	r.Use(RequestIDMiddleware(s.log))
	r.Use(TracingMiddleware())

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.With(s.instrument("/v1/hotspots")).Post("/hotspots", s.handleHotSpots)
		r.With(s.instrument("/v1/scores")).Post("/scores", s.handleScores)
		r.With(s.instrument("/v1/tracks")).Post("/tracks", s.handleTracks)

		r.With(s.instrument("/v1/elements")).Get("/elements", s.handleListElements)
		r.With(s.instrument("/v1/elements")).Post("/elements", s.handleUpsertElement)
		r.With(s.instrument("/v1/elements/position")).Get("/elements/{id}/position", s.handlePosition)

		r.Post("/selection", s.handleSelection)
		r.Get("/stream", s.handleStream)
	})

	return r
}

func (s *Server) instrument(route string) func(http.Handler) http.Handler {
	if s.metrics == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.metrics.Middleware(route)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, r, http.StatusServiceUnavailable, "stream hub not configured")
		return
	}
	s.hub.ServeWS(w, r)
}
