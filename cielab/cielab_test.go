package cielab_test

import (
	"math"
	"testing"

	"knitchart/cielab"
)

func TestFromRGBReferenceValues(t *testing.T) {
	cases := []struct {
		name    string
		r, g, b uint8
		want    cielab.Lab
	}{
		{"white", 255, 255, 255, cielab.Lab{L: 100, A: 0, B: 0}},
		{"black", 0, 0, 0, cielab.Lab{L: 0, A: 0, B: 0}},
		{"red", 255, 0, 0, cielab.Lab{L: 53.24, A: 80.09, B: 67.20}},
		{"green", 0, 255, 0, cielab.Lab{L: 87.73, A: -86.18, B: 83.18}},
		{"blue", 0, 0, 255, cielab.Lab{L: 32.30, A: 79.19, B: -107.86}},
		{"mid gray", 119, 119, 119, cielab.Lab{L: 50.03, A: 0, B: 0}},
	}

	const tol = 0.05
	for _, tc := range cases {
		got := cielab.FromRGB(tc.r, tc.g, tc.b)
		if math.Abs(got.L-tc.want.L) > tol ||
			math.Abs(got.A-tc.want.A) > tol ||
			math.Abs(got.B-tc.want.B) > tol {
			t.Errorf("%s: FromRGB(%d,%d,%d) = %+v, want %+v",
				tc.name, tc.r, tc.g, tc.b, got, tc.want)
		}
	}
}

func TestDistanceProperties(t *testing.T) {
	a := cielab.FromRGB(200, 30, 70)
	b := cielab.FromRGB(10, 180, 90)

	if d := a.DistanceTo(a); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}
	if ab, ba := a.DistanceTo(b), b.DistanceTo(a); ab != ba {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}
	if d := a.DistanceTo(b); d <= 0 {
		t.Errorf("distance between distinct colors = %v, want > 0", d)
	}

	if d, sq := a.DistanceTo(b), a.DistanceSq(b); math.Abs(d*d-sq) > 1e-9 {
		t.Errorf("DistanceSq inconsistent: %v vs %v", d*d, sq)
	}
}

func TestDistanceOrdersPerceptually(t *testing.T) {
	// A slightly lighter red should sit far closer to red than blue does.
	near := cielab.Distance(255, 0, 0, 230, 20, 20)
	far := cielab.Distance(255, 0, 0, 0, 0, 255)
	if near >= far {
		t.Errorf("near-red distance %v not smaller than red-blue distance %v", near, far)
	}
}
