package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/geointel-engine/model"
)

// backgroundField returns a scattered low-intensity field far from the
// cluster under test so the global statistics have contrast.
func backgroundField() []model.SpatialSample {
	return []model.SpatialSample{
		{Latitude: -30.0, Longitude: 10.0, Intensity: 2},
		{Latitude: -28.0, Longitude: 12.0, Intensity: 3},
		{Latitude: 55.0, Longitude: -100.0, Intensity: 2},
		{Latitude: 52.0, Longitude: -97.0, Intensity: 1},
		{Latitude: 5.0, Longitude: 60.0, Intensity: 3},
		{Latitude: 8.0, Longitude: 63.0, Intensity: 2},
		{Latitude: -45.0, Longitude: 170.0, Intensity: 2},
	}
}

func TestDetectHotSpots_TightHighIntensityCluster(t *testing.T) {
	samples := append(backgroundField(),
		model.SpatialSample{Latitude: 34.00, Longitude: -118.00, Intensity: 40},
		model.SpatialSample{Latitude: 34.05, Longitude: -118.05, Intensity: 38},
		model.SpatialSample{Latitude: 34.08, Longitude: -118.02, Intensity: 42},
	)

	spots := DetectHotSpots(samples, HotSpotConfig{})
	if len(spots) == 0 {
		t.Fatalf("expected at least one hotspot for a tight high-intensity cluster")
	}

	var hot *model.HotSpot
	for i := range spots {
		if spots[i].Type == model.HotSpotHot {
			hot = &spots[i]
			break
		}
	}
	if hot == nil {
		t.Fatalf("expected a hot cluster, got %+v", spots)
	}
	if hot.Confidence <= 0.5 {
		t.Errorf("confidence = %v, want > 0.5", hot.Confidence)
	}
	if hot.RadiusKm <= 0 {
		t.Errorf("radius = %v, want > 0", hot.RadiusKm)
	}
	if hot.CenterLat < 33.5 || hot.CenterLat > 34.5 {
		t.Errorf("center latitude = %v, want near 34", hot.CenterLat)
	}
	if hot.ZScore <= 0 {
		t.Errorf("z-score = %v, want positive for a hot cluster", hot.ZScore)
	}
}

func TestDetectHotSpots_IsolatedSamplesEmitNothing(t *testing.T) {
	samples := []model.SpatialSample{
		{Latitude: 10.0, Longitude: 120.0, Intensity: 3},
		{Latitude: 45.0, Longitude: -50.0, Intensity: 2},
	}

	spots := DetectHotSpots(samples, HotSpotConfig{})
	if len(spots) != 0 {
		t.Fatalf("expected no hotspots for two isolated single samples, got %+v", spots)
	}
}

func TestDetectHotSpots_EmptyInput(t *testing.T) {
	spots := DetectHotSpots(nil, HotSpotConfig{})
	if len(spots) != 0 {
		t.Fatalf("empty input should yield empty output, got %+v", spots)
	}
}

func TestDetectHotSpots_FlatFieldEmitsNothing(t *testing.T) {
	var samples []model.SpatialSample
	for i := 0; i < 6; i++ {
		samples = append(samples, model.SpatialSample{
			Latitude:  20.0 + float64(i)*0.01,
			Longitude: 30.0 + float64(i)*0.01,
			Intensity: 10,
		})
	}
	if spots := DetectHotSpots(samples, HotSpotConfig{}); len(spots) != 0 {
		t.Fatalf("uniform intensity field should emit nothing, got %+v", spots)
	}
}

func TestDetectHotSpots_ClusterSpanningWholeFieldEmitsNothing(t *testing.T) {
	// A dense cluster with no surrounding samples: the lone neighborhood
	// covers the entire field, so there is no background to deviate from
	// and the statistic degenerates rather than firing.
	samples := []model.SpatialSample{
		{Latitude: 34.00, Longitude: -118.00, Intensity: 40},
		{Latitude: 34.01, Longitude: -118.01, Intensity: 38},
		{Latitude: 34.02, Longitude: -117.99, Intensity: 42},
	}
	if spots := DetectHotSpots(samples, HotSpotConfig{}); len(spots) != 0 {
		t.Fatalf("cluster without background contrast should emit nothing, got %+v", spots)
	}
}

func TestDetectHotSpots_ColdCluster(t *testing.T) {
	// A tight near-zero cluster inside a field of moderate activity.
	samples := []model.SpatialSample{
		{Latitude: 0.00, Longitude: 0.00, Intensity: 0},
		{Latitude: 0.05, Longitude: 0.05, Intensity: 1},
		{Latitude: 0.08, Longitude: 0.02, Intensity: 0},
		{Latitude: 30.0, Longitude: 60.0, Intensity: 20},
		{Latitude: -25.0, Longitude: 100.0, Intensity: 22},
		{Latitude: 48.0, Longitude: -90.0, Intensity: 21},
		{Latitude: -40.0, Longitude: -20.0, Intensity: 19},
		{Latitude: 15.0, Longitude: 140.0, Intensity: 20},
	}

	spots := DetectHotSpots(samples, HotSpotConfig{})
	foundCold := false
	for _, s := range spots {
		if s.Type == model.HotSpotCold {
			foundCold = true
			if s.ZScore >= 0 {
				t.Errorf("cold cluster z-score = %v, want negative", s.ZScore)
			}
		}
	}
	if !foundCold {
		t.Fatalf("expected a cold cluster, got %+v", spots)
	}
}

func TestDetectHotSpots_ConfidenceMonotonicInZ(t *testing.T) {
	prev := 0.0
	for _, z := range []float64{0.5, 1, 2, 4, 8, 16} {
		c := hotSpotConfidence(z)
		if c < prev {
			t.Fatalf("confidence not monotonic: conf(%v) = %v < %v", z, c, prev)
		}
		if c < 0 || c > 1 {
			t.Fatalf("confidence out of range: %v", c)
		}
		prev = c
	}
	if c := hotSpotConfidence(50); c < 0.999 {
		t.Errorf("confidence should saturate toward 1, got %v", c)
	}
}

func TestClassifyTrend(t *testing.T) {
	cluster := []model.SpatialSample{
		{Latitude: 10.0, Longitude: 10.0, Intensity: 10},
		{Latitude: 10.01, Longitude: 10.01, Intensity: 10},
	}

	cases := []struct {
		name    string
		prior   []model.SpatialSample
		current float64
		want    model.Trend
	}{
		{"no prior window", nil, 20, model.TrendStable},
		{"rising", cluster, 40, model.TrendRising},
		{"falling", cluster, 10, model.TrendFalling},
		{"within threshold", cluster, 21, model.TrendStable},
		{"empty region prior", []model.SpatialSample{{Latitude: -60, Longitude: 120, Intensity: 50}}, 20, model.TrendRising},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := HotSpotConfig{PriorWindow: tc.prior}.withDefaults()
			got := classifyTrend(10.0, 10.0, 5.0, tc.current, cfg)
			if got != tc.want {
				t.Errorf("classifyTrend = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIntensityStats(t *testing.T) {
	samples := []model.SpatialSample{
		{Intensity: 2}, {Intensity: 4}, {Intensity: 4}, {Intensity: 4},
		{Intensity: 5}, {Intensity: 5}, {Intensity: 7}, {Intensity: 9},
	}
	mean, std := intensityStats(samples)
	if mean != 5 {
		t.Errorf("mean = %v, want 5", mean)
	}
	if math.Abs(std-2) > 1e-9 {
		t.Errorf("std = %v, want 2", std)
	}
}
