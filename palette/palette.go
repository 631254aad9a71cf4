// Package palette selects and holds the reduced color set a chart is
// knitted from.
package palette

import (
	"image/color"
	"math"
	"slices"

	"knitchart/cielab"
	"knitchart/raster"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette is an ordered set of chart colors. Order is frequency order from
// extraction (or insertion order for fixed palettes) and is significant:
// index positions identify swatches for recoloring.
type Palette []raster.Color

// Colors converts the palette to the standard library representation.
func (p Palette) Colors() color.Palette {
	pal := make(color.Palette, len(p))
	for i, c := range p {
		pal[i] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
	}
	return pal
}

// Hex returns the palette as hex strings ordered darkest to brightest.
func (p Palette) Hex() []string {
	cols := make([]colorful.Color, len(p))
	for i, c := range p {
		cols[i] = colorful.Color{
			R: float64(c.R) / 255,
			G: float64(c.G) / 255,
			B: float64(c.B) / 255,
		}
	}
	slices.SortFunc(cols, func(a, b colorful.Color) int {
		ri, gi, bi := a.LinearRgb()
		rj, gj, bj := b.LinearRgb()
		yi := 0.2126*ri + 0.7152*gi + 0.0722*bi
		yj := 0.2126*rj + 0.7152*gj + 0.0722*bj
		switch {
		case yi < yj:
			return -1
		case yi > yj:
			return 1
		}
		return 0
	})
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Hex()
	}
	return out
}

// LabIndex is a palette with precomputed L*a*b* values for nearest-color
// lookups.
type LabIndex struct {
	colors Palette
	labs   []cielab.Lab
}

func NewLabIndex(p Palette) *LabIndex {
	ix := &LabIndex{
		colors: p,
		labs:   make([]cielab.Lab, len(p)),
	}
	for i, c := range p {
		ix.labs[i] = cielab.FromRGB(c.R, c.G, c.B)
	}
	return ix
}

func (ix *LabIndex) Len() int {
	return len(ix.colors)
}

func (ix *LabIndex) Color(i int) raster.Color {
	return ix.colors[i]
}

// Nearest returns the index of the palette color perceptually closest to c.
// The index is 0 for an empty palette; callers must check Len first.
func (ix *LabIndex) Nearest(c raster.Color) int {
	lc := cielab.FromRGB(c.R, c.G, c.B)
	ret, bestSum := 0, math.MaxFloat64
	for i, v := range ix.labs {
		sum := lc.DistanceSq(v)
		if sum < bestSum {
			if sum == 0 {
				return i
			}
			ret, bestSum = i, sum
		}
	}
	return ret
}
