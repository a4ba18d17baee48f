package api

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/signalsfoundry/geointel-engine/core"
	"github.com/signalsfoundry/geointel-engine/model"
)

// hotSpotsToGeoJSON renders a hotspot batch as a FeatureCollection of
// points for the map surface. Cluster geometry rides in properties; the
// renderer draws the radius itself.
func hotSpotsToGeoJSON(report core.HotSpotReport) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(report.HotSpots))}
	for _, h := range report.HotSpots {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{h.CenterLon, h.CenterLat}),
			Properties: map[string]interface{}{
				"type":       string(h.Type),
				"radius_km":  h.RadiusKm,
				"z_score":    h.ZScore,
				"confidence": h.Confidence,
				"trend":      string(h.Trend),
				"samples":    h.Samples,
			},
		})
	}
	return fc
}

// tracksToGeoJSON renders ground tracks as XYZ line strings (longitude,
// latitude, altitude km). The selected object's feature is flagged so
// the renderer can style it differently; the selection itself is the
// caller's state, passed through per call.
func tracksToGeoJSON(report core.TrackReport, selection string) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(report.Tracks))}
	for _, t := range report.Tracks {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       t.ObjectID,
			Geometry: trackLineString(t),
			Properties: map[string]interface{}{
				"object_id": t.ObjectID,
				"selected":  selection != "" && selection == t.ObjectID,
				"start":     t.Start(),
				"end":       t.End(),
			},
		})
	}
	return fc
}

func trackLineString(t model.GroundTrack) *geom.LineString {
	flat := make([]float64, 0, len(t.Points)*3)
	for _, p := range t.Points {
		flat = append(flat, p.Longitude, p.Latitude, p.AltitudeKm)
	}
	return geom.NewLineStringFlat(geom.XYZ, flat)
}
