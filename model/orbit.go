package model

import "time"

// OrbitalElement carries the parameters needed to propagate one object's
// sub-satellite point: a two-line element set plus identity. Owned by the
// caller; the track generator only reads it.
type OrbitalElement struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Line1 string `json:"tle_line1"`
	Line2 string `json:"tle_line2"`
}

// GroundTrackPoint is one sampled sub-satellite position.
type GroundTrackPoint struct {
	Longitude  float64   `json:"longitude"`
	Latitude   float64   `json:"latitude"`
	AltitudeKm float64   `json:"altitude_km"`
	Timestamp  time.Time `json:"timestamp"`
}

// GroundTrack is the time-ordered path traced on the surface by one
// object's sub-satellite point. Points are non-empty when returned.
type GroundTrack struct {
	ObjectID string             `json:"object_id"`
	Points   []GroundTrackPoint `json:"points"`
}

// Start returns the timestamp of the first track point.
func (t GroundTrack) Start() time.Time {
	if len(t.Points) == 0 {
		return time.Time{}
	}
	return t.Points[0].Timestamp
}

// End returns the timestamp of the last track point.
func (t GroundTrack) End() time.Time {
	if len(t.Points) == 0 {
		return time.Time{}
	}
	return t.Points[len(t.Points)-1].Timestamp
}
