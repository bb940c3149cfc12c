package radar

import (
	"math"
	"testing"
)

func TestPointRecordValid(t *testing.T) {
	base := PointRecord{Range: 1000, Azimuth: 45, Elevation: 3}
	if !base.Valid() {
		t.Fatal("baseline point rejected")
	}

	mutations := []struct {
		name string
		mut  func(*PointRecord)
	}{
		{"nan range", func(p *PointRecord) { p.Range = float32(math.NaN()) }},
		{"nan azimuth", func(p *PointRecord) { p.Azimuth = float32(math.NaN()) }},
		{"nan elevation", func(p *PointRecord) { p.Elevation = float32(math.NaN()) }},
		{"negative range", func(p *PointRecord) { p.Range = -0.1 }},
		{"absurd range", func(p *PointRecord) { p.Range = 1e6 + 1 }},
		{"azimuth at 360", func(p *PointRecord) { p.Azimuth = 360 }},
		{"negative azimuth", func(p *PointRecord) { p.Azimuth = -1 }},
		{"elevation below", func(p *PointRecord) { p.Elevation = -90.1 }},
		{"elevation above", func(p *PointRecord) { p.Elevation = 90.1 }},
	}
	for _, tc := range mutations {
		p := base
		tc.mut(&p)
		if p.Valid() {
			t.Errorf("%s: point accepted", tc.name)
		}
	}

	edges := []PointRecord{
		{Range: 0, Azimuth: 0, Elevation: 0},
		{Range: 1e6, Azimuth: 359.999, Elevation: 90},
		{Range: 10, Azimuth: 10, Elevation: -90},
	}
	for i, p := range edges {
		if !p.Valid() {
			t.Errorf("edge point %d rejected: %+v", i, p)
		}
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		360:  0,
		-10:  350,
		730:  10,
		-370: 350,
	}
	for in, want := range cases {
		if got := NormalizeAngle(in); got != want {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestInSector(t *testing.T) {
	cases := []struct {
		azi, lo, hi float64
		want        bool
	}{
		{45, 0, 90, true},
		// Bounds are inclusive at both ends.
		{0, 0, 90, true},
		{90, 0, 90, true},
		{91, 0, 90, false},
		// Sectors wrap through north; the complement flips membership.
		{5, 350, 10, true},
		{355, 350, 10, true},
		{180, 350, 10, false},
		{180, 10, 350, true},
		{5, 10, 350, false},
		// Unnormalised bounds wrap the same way.
		{5, -10, 370, true},
	}
	for _, tc := range cases {
		if got := InSector(tc.azi, tc.lo, tc.hi); got != tc.want {
			t.Errorf("InSector(%v, %v, %v) = %v, want %v", tc.azi, tc.lo, tc.hi, got, tc.want)
		}
	}
}
