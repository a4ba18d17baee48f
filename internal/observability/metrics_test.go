package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAnalyticsCollector(reg)
	if err != nil {
		t.Fatalf("NewAnalyticsCollector: %v", err)
	}

	handler := collector.Middleware("/v1/hotspots")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/hotspots", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/v1/hotspots", "POST", "201")); got != 1 {
		t.Fatalf("analytics_http_requests_total = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "analytics_http_request_duration_seconds", map[string]string{
		"route":  "/v1/hotspots",
		"method": "POST",
	}); count != 1 {
		t.Fatalf("analytics_http_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestMiddlewareDefaultsStatusToOK(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAnalyticsCollector(reg)
	if err != nil {
		t.Fatalf("NewAnalyticsCollector: %v", err)
	}

	handler := collector.Middleware("/healthz")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/healthz", "GET", "200")); got != 1 {
		t.Fatalf("analytics_http_requests_total = %v, want 1", got)
	}
}

func TestRecorderCountersAndGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAnalyticsCollector(reg)
	if err != nil {
		t.Fatalf("NewAnalyticsCollector: %v", err)
	}

	collector.AddSamplesProcessed(10)
	collector.AddHotSpotsEmitted(2)
	collector.AddScoresComputed(3)
	collector.AddTracksGenerated(4)
	collector.SetCatalogElements(7)
	collector.SetStreamClients(1)

	if got := testutil.ToFloat64(collector.SamplesProcessed); got != 10 {
		t.Errorf("analytics_samples_processed_total = %v, want 10", got)
	}
	if got := testutil.ToFloat64(collector.HotSpotsEmitted); got != 2 {
		t.Errorf("analytics_hotspots_emitted_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.ScoresComputed); got != 3 {
		t.Errorf("analytics_scores_computed_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.TracksGenerated); got != 4 {
		t.Errorf("analytics_tracks_generated_total = %v, want 4", got)
	}
	if got := testutil.ToFloat64(collector.CatalogElements); got != 7 {
		t.Errorf("catalog_orbital_elements = %v, want 7", got)
	}
	if got := testutil.ToFloat64(collector.StreamClients); got != 1 {
		t.Errorf("stream_connected_clients = %v, want 1", got)
	}
}

func TestMetricsHandlerExposesEngineCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAnalyticsCollector(reg)
	if err != nil {
		t.Fatalf("NewAnalyticsCollector: %v", err)
	}
	collector.AddSamplesProcessed(5)
	collector.SetCatalogElements(2)
	collector.HTTPRequests.WithLabelValues("/v1/scores", "POST", "200").Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"analytics_http_requests_total",
		"analytics_samples_processed_total",
		"analytics_hotspots_emitted_total",
		"analytics_scores_computed_total",
		"analytics_tracks_generated_total",
		"catalog_orbital_elements",
		"stream_connected_clients",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestNewAnalyticsCollectorToleratesReRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewAnalyticsCollector(reg)
	if err != nil {
		t.Fatalf("first NewAnalyticsCollector: %v", err)
	}
	second, err := NewAnalyticsCollector(reg)
	if err != nil {
		t.Fatalf("second NewAnalyticsCollector: %v", err)
	}

	first.AddSamplesProcessed(1)
	second.AddSamplesProcessed(1)
	if got := testutil.ToFloat64(first.SamplesProcessed); got != 2 {
		t.Fatalf("expected shared counter across collectors, got %v", got)
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
