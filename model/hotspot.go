package model

// HotSpotType classifies a cluster's deviation from the global mean.
type HotSpotType string

const (
	HotSpotHot  HotSpotType = "hot"
	HotSpotCold HotSpotType = "cold"
)

// Trend describes how a cluster's aggregate intensity moved relative to
// the prior observation window.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// HotSpot is a spatial cluster whose local intensity statistic deviates
// significantly from the global mean. Derived output; never persisted.
type HotSpot struct {
	Type       HotSpotType `json:"type"`
	CenterLat  float64     `json:"center_lat"`
	CenterLon  float64     `json:"center_lon"`
	RadiusKm   float64     `json:"radius_km"` // always > 0
	ZScore     float64     `json:"z_score"`
	Confidence float64     `json:"confidence"` // [0,1]
	Trend      Trend       `json:"trend"`
	Samples    int         `json:"samples"` // contributing sample count
}
