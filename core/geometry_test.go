package core

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	// Same point.
	if d := HaversineKm(48.85, 2.35, 48.85, 2.35); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}

	// One degree of latitude along a meridian is ~111.2 km.
	d := HaversineKm(0, 0, 1, 0)
	if math.Abs(d-111.19) > 0.5 {
		t.Errorf("one degree of latitude = %v km, want ~111.2", d)
	}

	// Quarter of the circumference: equator to pole.
	quarter := math.Pi * EarthRadiusKm / 2
	if d := HaversineKm(0, 0, 90, 0); math.Abs(d-quarter) > 1 {
		t.Errorf("equator to pole = %v km, want %v", d, quarter)
	}

	// Symmetry.
	ab := HaversineKm(10, 20, -30, 140)
	ba := HaversineKm(-30, 140, 10, 20)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestECEFToGeodetic(t *testing.T) {
	// A point 400 km above the equator at the prime meridian.
	lat, lon, alt := ecefToGeodetic(Vec3{X: EarthRadiusKm + 400, Y: 0, Z: 0})
	if math.Abs(lat) > 1e-9 || math.Abs(lon) > 1e-9 {
		t.Errorf("lat/lon = %v/%v, want 0/0", lat, lon)
	}
	if math.Abs(alt-400) > 1e-9 {
		t.Errorf("altitude = %v, want 400", alt)
	}

	// Directly above the north pole.
	lat, _, _ = ecefToGeodetic(Vec3{X: 0, Y: 0, Z: EarthRadiusKm + 500})
	if math.Abs(lat-90) > 1e-9 {
		t.Errorf("polar latitude = %v, want 90", lat)
	}

	// Degenerate origin.
	_, _, alt = ecefToGeodetic(Vec3{})
	if alt != -EarthRadiusKm {
		t.Errorf("origin altitude = %v, want %v", alt, -EarthRadiusKm)
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}
	for _, tc := range cases {
		if got := clamp01(tc.in); got != tc.want {
			t.Errorf("clamp01(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
