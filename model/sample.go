package model

// SpatialSample is a single geo-tagged observation aggregate: how much
// activity was seen at a point, and how fast/strong it was on average.
// Samples are immutable once created; analytic code never mutates them.
type SpatialSample struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Intensity    int     `json:"intensity"`
	AvgSpeed     float64 `json:"avg_speed"`
	AvgMagnitude float64 `json:"avg_magnitude"`
}

// Location is a candidate ground location to be scored.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ValidCoordinates reports whether lat/lon are inside the valid degree
// ranges. Out-of-range samples are rejected, never clamped.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
