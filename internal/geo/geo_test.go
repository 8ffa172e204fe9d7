package geo

import (
	"math"
	"testing"
)

func TestDistanceKmKnownPairs(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolerance              float64
	}{
		{"same point", 10.762622, 106.660172, 10.762622, 106.660172, 0, 0.0001},
		// District 1 to Tan Son Nhat airport, Ho Chi Minh City
		{"across town", 10.7769, 106.7009, 10.8188, 106.6520, 7.1, 0.5},
		// Ho Chi Minh City to Hanoi
		{"long haul", 10.7769, 106.7009, 21.0278, 105.8342, 1137, 15},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanceKm(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if math.Abs(got-tc.wantKm) > tc.tolerance {
				t.Errorf("DistanceKm = %.3f, want %.3f ± %.3f", got, tc.wantKm, tc.tolerance)
			}
		})
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	a := Coordinate{Lat: 10.7769, Lng: 106.7009}
	b := Coordinate{Lat: 10.8188, Lng: 106.6520}

	if d1, d2 := Distance(a, b), Distance(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		km   float64
		want string
	}{
		{0.35, "350m"},
		{0.999, "999m"},
		{0, "0m"},
		{1.0, "1.0km"},
		{4.23, "4.2km"},
		{12.55, "12.6km"},
	}

	for _, tc := range tests {
		if got := FormatDistance(tc.km); got != tc.want {
			t.Errorf("FormatDistance(%v) = %q, want %q", tc.km, got, tc.want)
		}
	}
}
