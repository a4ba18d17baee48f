package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/geointel-engine/internal/logging"
	"github.com/signalsfoundry/geointel-engine/model"
)

// AnalyticsRecorder receives throughput counts from the engine. Satisfied
// by the observability collector; optional.
type AnalyticsRecorder interface {
	AddSamplesProcessed(n int)
	AddHotSpotsEmitted(n int)
	AddScoresComputed(n int)
	AddTracksGenerated(n int)
}

// ItemError reports one rejected batch item alongside its position, so a
// partial-success batch still identifies every failure.
type ItemError struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// HotSpotReport is a partial-success batch result for hotspot detection.
type HotSpotReport struct {
	BatchID     string          `json:"batch_id"`
	HotSpots    []model.HotSpot `json:"hotspots"`
	Rejected    []ItemError     `json:"rejected,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// ScoreReport holds one ScoringResult per accepted location, in input
// order of the accepted items.
type ScoreReport struct {
	BatchID     string                `json:"batch_id"`
	Results     []model.ScoringResult `json:"results"`
	Rejected    []ItemError           `json:"rejected,omitempty"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// TrackReport holds one GroundTrack per successfully propagated element.
type TrackReport struct {
	BatchID     string              `json:"batch_id"`
	Tracks      []model.GroundTrack `json:"tracks"`
	Rejected    []ItemError         `json:"rejected,omitempty"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// TimeWindow bounds a track generation request.
type TimeWindow struct {
	Start time.Time     `json:"start"`
	End   time.Time     `json:"end"`
	Step  time.Duration `json:"-"`
}

// Engine is the thin composition layer in front of the analytic
// functions: it validates input batches, dispatches, and aggregates
// results. No retries, no caching, no persisted state; concurrent calls
// for different inputs are safe.
type Engine struct {
	log     logging.Logger
	metrics AnalyticsRecorder
}

// EngineOption customises Engine construction.
type EngineOption func(*Engine)

// WithMetricsRecorder attaches an optional throughput recorder.
func WithMetricsRecorder(m AnalyticsRecorder) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine constructs the analytics facade.
func NewEngine(log logging.Logger, opts ...EngineOption) *Engine {
	if log == nil {
		log = logging.Noop()
	}
	e := &Engine{log: log}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// AnalyzeSamples validates a sample batch, drops and reports malformed
// items, and runs hotspot detection over the survivors. Validation
// failures never abort sibling computations.
func (e *Engine) AnalyzeSamples(ctx context.Context, samples []model.SpatialSample, cfg HotSpotConfig) (HotSpotReport, error) {
	if err := ctx.Err(); err != nil {
		return HotSpotReport{}, err
	}

	report := HotSpotReport{BatchID: uuid.NewString(), GeneratedAt: time.Now().UTC()}

	valid := make([]model.SpatialSample, 0, len(samples))
	for i, s := range samples {
		if !model.ValidCoordinates(s.Latitude, s.Longitude) {
			report.Rejected = append(report.Rejected, ItemError{
				Index:  i,
				Reason: fmt.Sprintf("%v: coordinates (%.4f, %.4f) out of range", ErrInvalidInput, s.Latitude, s.Longitude),
			})
			continue
		}
		valid = append(valid, s)
	}

	report.HotSpots = DetectHotSpots(valid, cfg)

	if e.metrics != nil {
		e.metrics.AddSamplesProcessed(len(valid))
		e.metrics.AddHotSpotsEmitted(len(report.HotSpots))
	}
	e.log.Debug(ctx, "analyzed sample batch",
		logging.String("batch_id", report.BatchID),
		logging.Int("samples", len(valid)),
		logging.Int("rejected", len(report.Rejected)),
		logging.Int("hotspots", len(report.HotSpots)),
	)
	return report, nil
}

// ScoreSites scores each valid candidate location independently.
func (e *Engine) ScoreSites(ctx context.Context, locations []model.Location) (ScoreReport, error) {
	if err := ctx.Err(); err != nil {
		return ScoreReport{}, err
	}

	report := ScoreReport{BatchID: uuid.NewString(), GeneratedAt: time.Now().UTC()}
	for i, loc := range locations {
		if !model.ValidCoordinates(loc.Latitude, loc.Longitude) {
			report.Rejected = append(report.Rejected, ItemError{
				Index:  i,
				Reason: fmt.Sprintf("%v: coordinates (%.4f, %.4f) out of range", ErrInvalidInput, loc.Latitude, loc.Longitude),
			})
			continue
		}
		report.Results = append(report.Results, ScoreSite(loc))
	}

	if e.metrics != nil {
		e.metrics.AddScoresComputed(len(report.Results))
	}
	return report, nil
}

// GenerateTracks propagates each element across the window. Elements
// whose TLEs fail to parse are reported per-item; siblings still
// propagate.
func (e *Engine) GenerateTracks(ctx context.Context, elements []model.OrbitalElement, window TimeWindow) (TrackReport, error) {
	if err := ctx.Err(); err != nil {
		return TrackReport{}, err
	}
	if window.Step <= 0 {
		return TrackReport{}, fmt.Errorf("%w: window step must be positive", ErrInvalidInput)
	}
	if window.End.Before(window.Start) {
		return TrackReport{}, fmt.Errorf("%w: window end before start", ErrInvalidInput)
	}

	report := TrackReport{BatchID: uuid.NewString(), GeneratedAt: time.Now().UTC()}
	for i, el := range elements {
		track, err := ComputeGroundTrack(el, window.Start, window.End, window.Step)
		if err != nil {
			report.Rejected = append(report.Rejected, ItemError{
				Index:  i,
				ID:     el.ID,
				Reason: err.Error(),
			})
			e.log.Warn(ctx, "element rejected",
				logging.String("element_id", el.ID),
				logging.String("error", err.Error()),
			)
			continue
		}
		report.Tracks = append(report.Tracks, track)
	}

	if e.metrics != nil {
		e.metrics.AddTracksGenerated(len(report.Tracks))
	}
	return report, nil
}

// Position propagates a single catalogued element to one timestamp.
func (e *Engine) Position(ctx context.Context, el model.OrbitalElement, at time.Time) (model.GroundTrackPoint, error) {
	if err := ctx.Err(); err != nil {
		return model.GroundTrackPoint{}, err
	}
	return ComputePosition(el, at)
}

// DescribeItemErrors renders a compact summary of rejected items for
// logs.
func DescribeItemErrors(errs []ItemError) string {
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("[%d] %s", e.Index, e.Reason))
	}
	return strings.Join(parts, "; ")
}
