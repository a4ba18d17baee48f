package core

import (
	"math"

	"github.com/signalsfoundry/geointel-engine/model"
)

// Composite weights for the site suitability score.
const (
	weightOrbital  = 0.4
	weightWeather  = 0.2
	weightTerrain  = 0.2
	weightLatitude = 0.2
)

// referenceSite is a known-good ground location used by the terrain
// factor's proximity lookup.
type referenceSite struct {
	name     string
	lat, lon float64
	terrain  float64
}

// referenceSites are established launch/ground segment locations with
// validated terrain. A candidate within refSiteMaxDistanceDeg of one
// inherits its terrain score.
var referenceSites = []referenceSite{
	{"Cape Canaveral", 28.5, -80.6, 0.9},
	{"Vandenberg", 34.7, -120.6, 0.85},
	{"Kourou", 5.2, -52.8, 0.9},
	{"Baikonur", 45.9, 63.3, 0.85},
	{"Tanegashima", 30.4, 131.0, 0.85},
	{"Sriharikota", 13.7, 80.2, 0.9},
}

// refSiteMaxDistanceDeg is a combined lat/lon Euclidean distance in
// degrees, coarse on purpose: the table is a proximity heuristic, not a
// geodetic search.
const refSiteMaxDistanceDeg = 2.0

// mountainRegion is a lat/lon bounding box with a fixed terrain penalty.
type mountainRegion struct {
	name           string
	latMin, latMax float64
	lonMin, lonMax float64
	terrain        float64
}

var mountainRegions = []mountainRegion{
	{"Rocky Mountains", 35, 60, -120, -105, 0.4},
	{"Himalayas", 26, 36, 70, 95, 0.3},
	{"Andes", -40, 10, -80, -62, 0.4},
}

const defaultTerrainScore = 0.7

// ScoreSite evaluates a candidate ground location against static
// geographic and orbital heuristics. The function is pure and
// deterministic: identical inputs always yield identical outputs, with
// no randomness and no I/O.
func ScoreSite(loc model.Location) model.ScoringResult {
	absLat := math.Abs(loc.Latitude)

	factors := model.ScoreFactors{
		Orbital:             orbitalFactor(absLat),
		Weather:             weatherFactor(absLat),
		Terrain:             terrainFactor(loc),
		LatitudeSuitability: latitudeFactor(absLat),
	}

	score := weightOrbital*factors.Orbital +
		weightWeather*factors.Weather +
		weightTerrain*factors.Terrain +
		weightLatitude*factors.LatitudeSuitability

	return model.ScoringResult{
		Score:      clamp01(score),
		Confidence: scoreConfidence(absLat),
		Factors:    factors,
	}
}

// orbitalFactor rewards equatorial sites for orbital access, on top of a
// fixed baseline for uniform low-orbit coverage.
func orbitalFactor(absLat float64) float64 {
	equatorialBonus := (90 - absLat) / 90
	return clamp01(0.7*equatorialBonus + 0.3)
}

// weatherFactor is banded by absolute latitude: tropical sites suffer
// storms and cloud cover, subtropics are driest, polar sites lose
// observation windows to weather.
func weatherFactor(absLat float64) float64 {
	switch {
	case absLat < 23.5:
		return 0.6
	case absLat < 35:
		return 0.85
	case absLat < 60:
		return 0.75
	default:
		return 0.5
	}
}

func terrainFactor(loc model.Location) float64 {
	for _, site := range referenceSites {
		dLat := loc.Latitude - site.lat
		dLon := loc.Longitude - site.lon
		if math.Sqrt(dLat*dLat+dLon*dLon) <= refSiteMaxDistanceDeg {
			return site.terrain
		}
	}
	for _, r := range mountainRegions {
		if loc.Latitude >= r.latMin && loc.Latitude <= r.latMax &&
			loc.Longitude >= r.lonMin && loc.Longitude <= r.lonMax {
			return r.terrain
		}
	}
	return defaultTerrainScore
}

// latitudeFactor is a step function over absolute latitude bands.
func latitudeFactor(absLat float64) float64 {
	switch {
	case absLat < 10:
		return 0.95
	case absLat < 30:
		return 0.9
	case absLat < 45:
		return 0.85
	case absLat < 60:
		return 0.7
	case absLat < 70:
		return 0.5
	default:
		return 0.3
	}
}

// scoreConfidence reflects validation-data density: dense toward the
// equator, sparse above the polar threshold.
func scoreConfidence(absLat float64) float64 {
	if absLat < 60 {
		return clamp01(0.75 + 0.15*(1-absLat/60))
	}
	return clamp01(0.4 + 0.2*(absLat-60)/30)
}
