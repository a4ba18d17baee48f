package core

import (
	"math"
	"sort"

	"github.com/signalsfoundry/geointel-engine/model"
)

// HotSpotConfig tunes the hot/cold spot detector. Zero values fall back
// to the defaults below; the thresholds are deliberately explicit
// configuration rather than hidden constants.
type HotSpotConfig struct {
	// NeighborhoodRadiusKm bounds proximity grouping: samples within this
	// great-circle distance of a seed belong to its neighborhood.
	NeighborhoodRadiusKm float64

	// ZThreshold is the minimum |z| for a neighborhood to be emitted.
	ZThreshold float64

	// MinClusterSize is the minimum neighborhood size (seed included)
	// before a statistic is computed. Isolated points never emit.
	MinClusterSize int

	// TrendChangeFraction is the relative intensity change separating
	// rising/falling from stable when a prior window is supplied.
	TrendChangeFraction float64

	// PriorWindow holds the previous observation window's samples for
	// temporal trend classification. Empty means no trend data; clusters
	// are then reported as stable.
	PriorWindow []model.SpatialSample
}

const (
	defaultNeighborhoodRadiusKm = 50.0
	defaultZThreshold           = 1.96
	defaultMinClusterSize       = 2
	defaultTrendChangeFraction  = 0.10

	// minHotSpotRadiusKm keeps HotSpot.RadiusKm strictly positive even
	// when all contributing samples share one coordinate.
	minHotSpotRadiusKm = 1.0
)

func (c HotSpotConfig) withDefaults() HotSpotConfig {
	if c.NeighborhoodRadiusKm <= 0 {
		c.NeighborhoodRadiusKm = defaultNeighborhoodRadiusKm
	}
	if c.ZThreshold <= 0 {
		c.ZThreshold = defaultZThreshold
	}
	if c.MinClusterSize < defaultMinClusterSize {
		c.MinClusterSize = defaultMinClusterSize
	}
	if c.TrendChangeFraction <= 0 {
		c.TrendChangeFraction = defaultTrendChangeFraction
	}
	return c
}

// DetectHotSpots computes a Getis-Ord-style local spatial association
// statistic for every sample neighborhood and returns the clusters whose
// z-score clears the configured threshold. Hot clusters deviate above the
// global mean, cold clusters below. Empty input yields empty output.
//
// The statistic measures a neighborhood against the rest of the field,
// so it needs background contrast: if a single neighborhood spans every
// sample (or the intensity field is flat), there is no "rest of the
// field" to deviate from and nothing is emitted. A dense cluster
// submitted without any surrounding samples is therefore not a missed
// detection.
//
// The function is pure: it holds no state between calls and is safe to
// run concurrently for different inputs.
func DetectHotSpots(samples []model.SpatialSample, cfg HotSpotConfig) []model.HotSpot {
	cfg = cfg.withDefaults()

	n := len(samples)
	if n < cfg.MinClusterSize {
		return nil
	}

	mean, std := intensityStats(samples)
	if std == 0 {
		// A flat intensity field has no local deviations to flag.
		return nil
	}

	type candidate struct {
		z       float64
		members []int
	}

	var candidates []candidate
	for i := range samples {
		members := neighborhood(samples, i, cfg.NeighborhoodRadiusKm)
		if len(members) < cfg.MinClusterSize {
			continue
		}

		k := float64(len(members))
		localSum := 0.0
		for _, idx := range members {
			localSum += float64(samples[idx].Intensity)
		}

		// Getis-Ord Gi*: standardised local sum under a null of uniform
		// intensity. The denominator vanishes when the neighborhood spans
		// the whole field, in which case no local deviation exists.
		nf := float64(n)
		denom := std * math.Sqrt(k*(nf-k)/(nf-1))
		if denom == 0 {
			continue
		}
		z := (localSum - mean*k) / denom

		if math.Abs(z) < cfg.ZThreshold {
			continue
		}
		candidates = append(candidates, candidate{z: z, members: members})
	}

	if len(candidates) == 0 {
		return nil
	}

	// Strongest deviations claim their samples first so overlapping
	// neighborhoods collapse into a single reported cluster.
	sort.Slice(candidates, func(a, b int) bool {
		return math.Abs(candidates[a].z) > math.Abs(candidates[b].z)
	})

	claimed := make([]bool, n)
	var spots []model.HotSpot
	for _, c := range candidates {
		if claimedAny(claimed, c.members) {
			continue
		}
		for _, idx := range c.members {
			claimed[idx] = true
		}
		spots = append(spots, buildHotSpot(samples, c.members, c.z, cfg))
	}
	return spots
}

func buildHotSpot(samples []model.SpatialSample, members []int, z float64, cfg HotSpotConfig) model.HotSpot {
	centerLat, centerLon := centroid(samples, members)

	radius := minHotSpotRadiusKm
	currentSum := 0.0
	for _, idx := range members {
		s := samples[idx]
		currentSum += float64(s.Intensity)
		if d := HaversineKm(centerLat, centerLon, s.Latitude, s.Longitude); d > radius {
			radius = d
		}
	}

	kind := model.HotSpotHot
	if z < 0 {
		kind = model.HotSpotCold
	}

	return model.HotSpot{
		Type:       kind,
		CenterLat:  centerLat,
		CenterLon:  centerLon,
		RadiusKm:   radius,
		ZScore:     z,
		Confidence: hotSpotConfidence(z),
		Trend:      classifyTrend(centerLat, centerLon, radius, currentSum, cfg),
		Samples:    len(members),
	}
}

// hotSpotConfidence maps |z| onto [0,1] monotonically, saturating for
// extreme deviations.
func hotSpotConfidence(z float64) float64 {
	return clamp01(1 - math.Exp(-math.Abs(z)/2))
}

// classifyTrend compares the cluster region's aggregate intensity against
// the prior window for the same region. Without prior data the cluster is
// reported stable.
func classifyTrend(lat, lon, radiusKm, currentSum float64, cfg HotSpotConfig) model.Trend {
	if len(cfg.PriorWindow) == 0 {
		return model.TrendStable
	}

	priorSum := 0.0
	for _, s := range cfg.PriorWindow {
		if HaversineKm(lat, lon, s.Latitude, s.Longitude) <= radiusKm {
			priorSum += float64(s.Intensity)
		}
	}

	if priorSum == 0 {
		if currentSum > 0 {
			return model.TrendRising
		}
		return model.TrendStable
	}

	change := (currentSum - priorSum) / priorSum
	switch {
	case change > cfg.TrendChangeFraction:
		return model.TrendRising
	case change < -cfg.TrendChangeFraction:
		return model.TrendFalling
	default:
		return model.TrendStable
	}
}

func intensityStats(samples []model.SpatialSample) (mean, std float64) {
	n := float64(len(samples))
	sum := 0.0
	for _, s := range samples {
		sum += float64(s.Intensity)
	}
	mean = sum / n

	variance := 0.0
	for _, s := range samples {
		d := float64(s.Intensity) - mean
		variance += d * d
	}
	variance /= n
	return mean, math.Sqrt(variance)
}

func neighborhood(samples []model.SpatialSample, seed int, radiusKm float64) []int {
	var members []int
	for j := range samples {
		if HaversineKm(samples[seed].Latitude, samples[seed].Longitude,
			samples[j].Latitude, samples[j].Longitude) <= radiusKm {
			members = append(members, j)
		}
	}
	return members
}

func centroid(samples []model.SpatialSample, members []int) (lat, lon float64) {
	for _, idx := range members {
		lat += samples[idx].Latitude
		lon += samples[idx].Longitude
	}
	k := float64(len(members))
	return lat / k, lon / k
}

func claimedAny(claimed []bool, members []int) bool {
	for _, idx := range members {
		if claimed[idx] {
			return true
		}
	}
	return false
}
