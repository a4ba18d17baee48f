package core

import "math"

// EarthRadiusKm is the mean Earth radius used for all simple geometry
// calculations in the analytics layer (kilometres).
const EarthRadiusKm = 6371.0

const degToRad = math.Pi / 180.0

// Vec3 is an ECEF-style vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// HaversineKm returns the great-circle distance between two points given
// in degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lon2 - lon1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// ecefToGeodetic converts an ECEF position in kilometres to spherical
// geodetic latitude/longitude (degrees) and altitude above the mean
// radius (kilometres). A spherical Earth is sufficient for ground-track
// visualisation; no ellipsoid correction is applied.
func ecefToGeodetic(p Vec3) (latDeg, lonDeg, altKm float64) {
	r := p.Norm()
	if r == 0 {
		return 0, 0, -EarthRadiusKm
	}
	latDeg = math.Asin(p.Z/r) / degToRad
	lonDeg = math.Atan2(p.Y, p.X) / degToRad
	altKm = r - EarthRadiusKm
	return latDeg, lonDeg, altKm
}

// clamp01 pins a value to [0,1]. All scores and confidences leave the
// core already clamped to their documented ranges.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
