// based on:
// http://www.brucelindbloom.com/index.html?Eqn_RGB_to_XYZ.html
// http://www.easyrgb.com/en/math.php

package cielab

import "math"

// D65 reference white.
const (
	refX = 95.047
	refY = 100.0
	refZ = 108.883
)

type Lab struct {
	L float64 // perceived lightness
	A float64 // how green/red the color is
	B float64 // how blue/yellow the color is
}

// FromRGB converts an 8-bit sRGB triple to CIE L*a*b* relative to D65.
func FromRGB(r, g, b uint8) Lab {
	lr := toLinear(float64(r) / 255)
	lg := toLinear(float64(g) / 255)
	lb := toLinear(float64(b) / 255)

	x := (0.4124564*lr + 0.3575761*lg + 0.1804375*lb) * 100
	y := (0.2126729*lr + 0.7151522*lg + 0.0721750*lb) * 100
	z := (0.0193339*lr + 0.1191920*lg + 0.9503041*lb) * 100

	fx := labCurve(x / refX)
	fy := labCurve(y / refY)
	fz := labCurve(z / refZ)

	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

func toLinear(x float64) float64 {
	if x >= 0.04045 {
		return math.Pow((x+0.055)/1.055, 2.4)
	} else {
		return x / 12.92
	}
}

const third float64 = 1.0 / 3.0

func labCurve(t float64) float64 {
	if t > 0.008856 {
		return math.Pow(t, third)
	}
	return 7.787*t + 16.0/116.0
}

// DistanceTo is the Euclidean distance between the two Lab triples.
func (lc Lab) DistanceTo(o Lab) float64 {
	dL := lc.L - o.L
	da := lc.A - o.A
	db := lc.B - o.B
	return math.Sqrt(dL*dL + da*da + db*db)
}

// DistanceSq is DistanceTo without the square root, for comparisons.
func (lc Lab) DistanceSq(o Lab) float64 {
	dL := lc.L - o.L
	da := lc.A - o.A
	db := lc.B - o.B
	return dL*dL + da*da + db*db
}

// Distance compares two 8-bit sRGB triples in L*a*b* space.
func Distance(r1, g1, b1, r2, g2, b2 uint8) float64 {
	return FromRGB(r1, g1, b1).DistanceTo(FromRGB(r2, g2, b2))
}
