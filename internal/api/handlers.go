package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/signalsfoundry/geointel-engine/core"
	"github.com/signalsfoundry/geointel-engine/internal/catalog"
	"github.com/signalsfoundry/geointel-engine/internal/logging"
	"github.com/signalsfoundry/geointel-engine/model"
)

type hotSpotRequest struct {
	Samples []model.SpatialSample `json:"samples"`
	Config  *hotSpotConfig        `json:"config,omitempty"`
}

type hotSpotConfig struct {
	NeighborhoodRadiusKm float64               `json:"neighborhood_radius_km,omitempty"`
	ZThreshold           float64               `json:"z_threshold,omitempty"`
	MinClusterSize       int                   `json:"min_cluster_size,omitempty"`
	TrendChangeFraction  float64               `json:"trend_change_fraction,omitempty"`
	PriorWindow          []model.SpatialSample `json:"prior_window,omitempty"`
}

func (c *hotSpotConfig) toCore() core.HotSpotConfig {
	if c == nil {
		return core.HotSpotConfig{}
	}
	return core.HotSpotConfig{
		NeighborhoodRadiusKm: c.NeighborhoodRadiusKm,
		ZThreshold:           c.ZThreshold,
		MinClusterSize:       c.MinClusterSize,
		TrendChangeFraction:  c.TrendChangeFraction,
		PriorWindow:          c.PriorWindow,
	}
}

// handleHotSpots runs hot/cold spot detection over a submitted sample
// batch. ?format=geojson returns a FeatureCollection for the map
// surface; the default is the full report.
func (s *Server) handleHotSpots(w http.ResponseWriter, r *http.Request) {
	var req hotSpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	r, span := StartChildSpan(r, "engine.AnalyzeSamples", "sample_batch", "")
	report, err := s.engine.AnalyzeSamples(r.Context(), req.Samples, req.Config.toCore())
	span.End()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	if s.hub != nil && len(report.HotSpots) > 0 {
		s.hub.BroadcastHotSpots(report)
	}

	if r.URL.Query().Get("format") == "geojson" {
		writeJSON(w, http.StatusOK, hotSpotsToGeoJSON(report))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type scoreRequest struct {
	Locations []model.Location `json:"locations"`
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Locations) == 0 {
		writeError(w, r, http.StatusBadRequest, "at least one location is required")
		return
	}

	report, err := s.engine.ScoreSites(r.Context(), req.Locations)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type trackRequest struct {
	// Elements to propagate; when empty the whole catalog is used.
	Elements    []model.OrbitalElement `json:"elements,omitempty"`
	Start       time.Time              `json:"start"`
	End         time.Time              `json:"end"`
	StepSeconds int                    `json:"step_seconds"`
	// Selection is the identifier of the highlighted object, owned by
	// the caller and echoed into the rendering output only.
	Selection string `json:"selection,omitempty"`
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.StepSeconds <= 0 {
		writeError(w, r, http.StatusBadRequest, "step_seconds must be positive")
		return
	}

	elements := req.Elements
	if len(elements) == 0 && s.store != nil {
		elements = s.store.ListElements()
	}
	if len(elements) == 0 {
		writeError(w, r, http.StatusBadRequest, "no orbital elements supplied or catalogued")
		return
	}

	window := core.TimeWindow{
		Start: req.Start,
		End:   req.End,
		Step:  time.Duration(req.StepSeconds) * time.Second,
	}

	r, span := StartChildSpan(r, "engine.GenerateTracks", "element_batch", "")
	report, err := s.engine.GenerateTracks(r.Context(), elements, window)
	span.End()
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	if s.hub != nil && len(report.Tracks) > 0 {
		s.hub.BroadcastTracks(report)
	}

	if r.URL.Query().Get("format") == "geojson" {
		writeJSON(w, http.StatusOK, tracksToGeoJSON(report, req.Selection))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListElements(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "element catalog not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.store.ListElements())
}

func (s *Server) handleUpsertElement(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "element catalog not configured")
		return
	}

	var el model.OrbitalElement
	if err := json.NewDecoder(r.Body).Decode(&el); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.store.UpsertElement(el); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if log := logging.LoggerFromContext(r.Context()); log != nil {
		log.Info(r.Context(), "catalogued orbital element", logging.String("element_id", el.ID))
	}
	writeJSON(w, http.StatusOK, el)
}

// handlePosition propagates one catalogued element to a single
// timestamp, defaulting to now.
func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "element catalog not configured")
		return
	}

	id := chi.URLParam(r, "id")
	el, err := s.store.GetElement(id)
	if err != nil {
		if errors.Is(err, catalog.ErrElementNotFound) {
			writeError(w, r, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	at := time.Now().UTC()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "at must be RFC3339")
			return
		}
		at = parsed
	}

	point, err := s.engine.Position(r.Context(), el, at)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, point)
}

type selectionRequest struct {
	ID string `json:"id"`
}

// handleSelection relays the presentation layer's highlight change to
// stream clients. The identifier passes through unchanged; the engine
// stores nothing.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, r, http.StatusServiceUnavailable, "stream hub not configured")
		return
	}

	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	s.hub.Select(req.ID)
	writeJSON(w, http.StatusOK, map[string]string{"selected": req.ID})
}
