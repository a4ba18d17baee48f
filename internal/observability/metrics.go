package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AnalyticsCollector bundles Prometheus metrics for the analytics engine
// and its HTTP surface, and provides helpers to wire them into the
// router.
type AnalyticsCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	SamplesProcessed prometheus.Counter
	HotSpotsEmitted  prometheus.Counter
	ScoresComputed   prometheus.Counter
	TracksGenerated  prometheus.Counter

	CatalogElements prometheus.Gauge
	StreamClients   prometheus.Gauge
}

// NewAnalyticsCollector registers engine Prometheus metrics against the
// provided registerer, defaulting to the global registry when nil.
func NewAnalyticsCollector(reg prometheus.Registerer) (*AnalyticsCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_http_requests_total",
		Help: "Total number of handled analytics HTTP requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "analytics_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analytics_http_request_duration_seconds",
		Help:    "Analytics HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"})
	durations, err = registerHistogramVec(reg, durations, "analytics_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	samples, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analytics_samples_processed_total",
		Help: "Spatial samples accepted into hotspot analysis.",
	}), "analytics_samples_processed_total")
	if err != nil {
		return nil, err
	}
	hotspots, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analytics_hotspots_emitted_total",
		Help: "Hot/cold spots emitted by the detector.",
	}), "analytics_hotspots_emitted_total")
	if err != nil {
		return nil, err
	}
	scores, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analytics_scores_computed_total",
		Help: "Site suitability scores computed.",
	}), "analytics_scores_computed_total")
	if err != nil {
		return nil, err
	}
	tracks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analytics_tracks_generated_total",
		Help: "Satellite ground tracks generated.",
	}), "analytics_tracks_generated_total")
	if err != nil {
		return nil, err
	}

	elements, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_orbital_elements",
		Help: "Current number of orbital elements in the catalog.",
	}), "catalog_orbital_elements")
	if err != nil {
		return nil, err
	}
	clients, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stream_connected_clients",
		Help: "Currently connected websocket stream clients.",
	}), "stream_connected_clients")
	if err != nil {
		return nil, err
	}

	return &AnalyticsCollector{
		gatherer:         gatherer,
		HTTPRequests:     requests,
		HTTPDurations:    durations,
		SamplesProcessed: samples,
		HotSpotsEmitted:  hotspots,
		ScoresComputed:   scores,
		TracksGenerated:  tracks,
		CatalogElements:  elements,
		StreamClients:    clients,
	}, nil
}

// Middleware records request counts and durations per route. The route
// label should be the registered pattern, not the raw URL, to keep
// cardinality bounded.
func (c *AnalyticsCollector) Middleware(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if c.HTTPRequests != nil {
				c.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
			}
			if c.HTTPDurations != nil {
				c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
			}
		})
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *AnalyticsCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// AddSamplesProcessed satisfies core.AnalyticsRecorder.
func (c *AnalyticsCollector) AddSamplesProcessed(n int) {
	if c != nil && c.SamplesProcessed != nil {
		c.SamplesProcessed.Add(float64(n))
	}
}

// AddHotSpotsEmitted satisfies core.AnalyticsRecorder.
func (c *AnalyticsCollector) AddHotSpotsEmitted(n int) {
	if c != nil && c.HotSpotsEmitted != nil {
		c.HotSpotsEmitted.Add(float64(n))
	}
}

// AddScoresComputed satisfies core.AnalyticsRecorder.
func (c *AnalyticsCollector) AddScoresComputed(n int) {
	if c != nil && c.ScoresComputed != nil {
		c.ScoresComputed.Add(float64(n))
	}
}

// AddTracksGenerated satisfies core.AnalyticsRecorder.
func (c *AnalyticsCollector) AddTracksGenerated(n int) {
	if c != nil && c.TracksGenerated != nil {
		c.TracksGenerated.Add(float64(n))
	}
}

// SetCatalogElements drives the catalog gauge from its mutators.
func (c *AnalyticsCollector) SetCatalogElements(n int) {
	if c != nil && c.CatalogElements != nil {
		c.CatalogElements.Set(float64(n))
	}
}

// SetStreamClients drives the websocket client gauge from the hub.
func (c *AnalyticsCollector) SetStreamClients(n int) {
	if c != nil && c.StreamClients != nil {
		c.StreamClients.Set(float64(n))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
