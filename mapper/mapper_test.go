package mapper_test

import (
	"math"
	"slices"
	"testing"

	"knitchart/mapper"
	"knitchart/palette"
	"knitchart/raster"

	"github.com/google/go-cmp/cmp"
)

var (
	red   = raster.Color{R: 255, A: 255}
	blue  = raster.Color{B: 255, A: 255}
	white = raster.Color{R: 255, G: 255, B: 255, A: 255}
	black = raster.Color{A: 255}
)

func gradient(width, height int) *raster.Bitmap {
	b := raster.New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			b.Set(x, y, raster.Color{
				R: uint8(x * 255 / max(width-1, 1)),
				G: uint8(y * 255 / max(height-1, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return b
}

func TestQuantizeMapsEveryVisiblePixelOntoPalette(t *testing.T) {
	pal := palette.Palette{black, white, red, blue}
	src := gradient(8, 8)
	src.Set(3, 3, raster.Color{R: 9, G: 9, B: 9, A: 70}) // invisible

	got := mapper.Quantize(src, pal)

	for y := 0; y < got.Height; y++ {
		for x := 0; x < got.Width; x++ {
			in, out := src.At(x, y), got.At(x, y)
			if out.A != in.A {
				t.Fatalf("(%d,%d): alpha changed %d -> %d", x, y, in.A, out.A)
			}
			if in.A <= raster.VisibleAlpha {
				if out != in {
					t.Fatalf("(%d,%d): invisible pixel changed %+v -> %+v", x, y, in, out)
				}
				continue
			}
			rgb := raster.Color{R: out.R, G: out.G, B: out.B, A: 255}
			if !slices.Contains(pal, rgb) {
				t.Fatalf("(%d,%d): %+v is not a palette color", x, y, rgb)
			}
		}
	}
}

func TestQuantizeEmptyPaletteIsNoOp(t *testing.T) {
	src := gradient(4, 4)
	got := mapper.Quantize(src, nil)
	if diff := cmp.Diff(src, got); diff != "" {
		t.Errorf("empty palette modified pixels (-want +got):\n%s", diff)
	}
}

func TestQuantizeDoesNotAliasInput(t *testing.T) {
	src := gradient(4, 4)
	got := mapper.Quantize(src, palette.Palette{black})
	got.Set(0, 0, white)
	if src.At(0, 0) == white {
		t.Error("quantize output shares pixel memory with its input")
	}
}

func TestFloydSteinbergConservesBrightness(t *testing.T) {
	// A uniform tone between two palette grays must dither to a mix whose
	// average stays within one palette step of the original.
	src := raster.New(16, 16)
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 100, 100, 100, 255
	}
	pal := palette.Palette{
		{R: 96, G: 96, B: 96, A: 255},
		{R: 104, G: 104, B: 104, A: 255},
	}

	mapper.FloydSteinberg(src, pal)

	var sum float64
	for i := 0; i < len(src.Pix); i += 4 {
		c := raster.Color{R: src.Pix[i], G: src.Pix[i+1], B: src.Pix[i+2], A: 255}
		if !slices.Contains(pal, c) {
			t.Fatalf("pixel %+v is not a palette color", c)
		}
		sum += float64(src.Pix[i])
	}

	const step = 8 // distance between the two palette grays
	avg := sum / float64(16*16)
	if math.Abs(avg-100) > step {
		t.Errorf("dithered average %v drifted more than one palette step from 100", avg)
	}
}

func TestFloydSteinbergSkipsInvisiblePixels(t *testing.T) {
	src := raster.New(4, 1)
	src.Set(0, 0, raster.Color{R: 100, G: 100, B: 100, A: 255})
	src.Set(1, 0, raster.Color{R: 50, G: 60, B: 70, A: 0})
	src.Set(2, 0, raster.Color{R: 100, G: 100, B: 100, A: 255})
	src.Set(3, 0, raster.Color{R: 100, G: 100, B: 100, A: 255})

	mapper.FloydSteinberg(src, palette.Palette{black, white})

	if got := src.At(1, 0); got != (raster.Color{R: 50, G: 60, B: 70, A: 0}) {
		t.Errorf("invisible pixel modified: %+v", got)
	}
}

func TestFloydSteinbergEmptyPaletteIsNoOp(t *testing.T) {
	src := gradient(4, 4)
	want := src.Clone()
	mapper.FloydSteinberg(src, nil)
	if diff := cmp.Diff(want, src); diff != "" {
		t.Errorf("empty palette modified pixels (-want +got):\n%s", diff)
	}
}

func TestBayerSnapsSemiTransparentPixelsOntoPalette(t *testing.T) {
	pal := palette.Palette{black, white}
	src := gradient(4, 4)
	src.Set(1, 1, raster.Color{R: 200, G: 40, B: 180, A: 200})
	src.Set(2, 2, raster.Color{R: 30, G: 220, B: 90, A: 129}) // just visible

	got := mapper.Bayer(src, pal)

	for _, p := range []struct{ x, y int }{{1, 1}, {2, 2}} {
		in, out := src.At(p.x, p.y), got.At(p.x, p.y)
		if out.A != in.A {
			t.Errorf("(%d,%d): alpha changed %d -> %d", p.x, p.y, in.A, out.A)
		}
		rgb := raster.Color{R: out.R, G: out.G, B: out.B, A: 255}
		if !slices.Contains(pal, rgb) {
			t.Errorf("(%d,%d): %+v is not a palette color", p.x, p.y, rgb)
		}
	}
}

func TestBayerMapsOntoPaletteAndKeepsAlpha(t *testing.T) {
	pal := palette.Palette{black, white}
	src := gradient(8, 8)
	src.Set(0, 0, raster.Color{R: 1, G: 2, B: 3, A: 50}) // invisible

	got := mapper.Bayer(src, pal)

	if got.At(0, 0) != src.At(0, 0) {
		t.Errorf("invisible pixel changed: %+v", got.At(0, 0))
	}
	for y := 0; y < got.Height; y++ {
		for x := 0; x < got.Width; x++ {
			in, out := src.At(x, y), got.At(x, y)
			if out.A != in.A {
				t.Fatalf("(%d,%d): alpha changed %d -> %d", x, y, in.A, out.A)
			}
			if in.A <= raster.VisibleAlpha {
				continue
			}
			rgb := raster.Color{R: out.R, G: out.G, B: out.B, A: 255}
			if !slices.Contains(pal, rgb) {
				t.Fatalf("(%d,%d): %+v is not a palette color", x, y, rgb)
			}
		}
	}
}
