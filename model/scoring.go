package model

// ScoreFactors are the per-factor sub-scores behind a composite site
// score. Each factor is in [0,1].
type ScoreFactors struct {
	Orbital             float64 `json:"orbital"`
	Weather             float64 `json:"weather"`
	Terrain             float64 `json:"terrain"`
	LatitudeSuitability float64 `json:"latitude_suitability"`
}

// ScoringResult is the composite suitability verdict for one Location.
// One result per location per invocation; nothing is cached.
type ScoringResult struct {
	Score      float64      `json:"score"`      // [0,1]
	Confidence float64      `json:"confidence"` // [0,1]
	Factors    ScoreFactors `json:"factors"`
}
