package core

import (
	"fmt"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/geointel-engine/model"
)

// ComputeGroundTrack samples the sub-satellite geodetic position of one
// orbital element across [start, end] at the given cadence and returns
// the time-ordered track. When step divides the window evenly the track
// has windowDuration/step + 1 points.
//
// The generator is stateless and re-entrant; selection/highlight state
// belongs to the caller and is passed into render calls, never retained
// here.
func ComputeGroundTrack(el model.OrbitalElement, start, end time.Time, step time.Duration) (model.GroundTrack, error) {
	if step <= 0 {
		return model.GroundTrack{}, fmt.Errorf("%w: step must be positive", ErrInvalidInput)
	}
	if end.Before(start) {
		return model.GroundTrack{}, fmt.Errorf("%w: window end before start", ErrInvalidInput)
	}

	sat, err := satFromElement(el)
	if err != nil {
		return model.GroundTrack{}, err
	}

	track := model.GroundTrack{ObjectID: el.ID}
	for t := start; !t.After(end); t = t.Add(step) {
		track.Points = append(track.Points, subSatellitePoint(sat, t))
	}
	return track, nil
}

// ComputePosition propagates a single element to one timestamp.
func ComputePosition(el model.OrbitalElement, at time.Time) (model.GroundTrackPoint, error) {
	sat, err := satFromElement(el)
	if err != nil {
		return model.GroundTrackPoint{}, err
	}
	return subSatellitePoint(sat, at), nil
}

// satFromElement parses the element's TLE into an SGP4 satellite record.
// go-satellite panics on structurally broken TLE lines, so lines are
// sanity-checked first and the parse is fenced.
func satFromElement(el model.OrbitalElement) (sat satellite.Satellite, err error) {
	if err = validateTLE(el); err != nil {
		return sat, err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: element %s: %v", ErrElementPropagation, el.ID, r)
		}
	}()

	sat = satellite.TLEToSat(el.Line1, el.Line2, satellite.GravityWGS72)
	return sat, nil
}

func validateTLE(el model.OrbitalElement) error {
	if strings.TrimSpace(el.ID) == "" {
		return fmt.Errorf("%w: element id is required", ErrInvalidInput)
	}
	if len(el.Line1) < 69 || len(el.Line2) < 69 {
		return fmt.Errorf("%w: element %s: TLE lines must be at least 69 characters", ErrElementPropagation, el.ID)
	}
	if !strings.HasPrefix(el.Line1, "1 ") || !strings.HasPrefix(el.Line2, "2 ") {
		return fmt.Errorf("%w: element %s: TLE line numbers are malformed", ErrElementPropagation, el.ID)
	}
	return nil
}

// subSatellitePoint propagates the satellite to t, rotates ECI into ECEF
// using Greenwich sidereal time, and projects down to geodetic
// coordinates. go-satellite works in kilometres throughout.
func subSatellitePoint(sat satellite.Satellite, t time.Time) model.GroundTrackPoint {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	lat, lon, alt := ecefToGeodetic(Vec3{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z})
	return model.GroundTrackPoint{
		Longitude:  lon,
		Latitude:   lat,
		AltitudeKm: alt,
		Timestamp:  t,
	}
}
