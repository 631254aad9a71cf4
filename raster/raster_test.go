package raster_test

import (
	"image"
	"image/color"
	"testing"

	"knitchart/raster"

	"github.com/google/go-cmp/cmp"
)

// fill builds a bitmap from one color per cell, row-major.
func fill(width, height int, cells ...raster.Color) *raster.Bitmap {
	b := raster.New(width, height)
	for i, c := range cells {
		b.Set(i%width, i/width, c)
	}
	return b
}

var (
	red   = raster.Color{R: 255, A: 255}
	blue  = raster.Color{B: 255, A: 255}
	white = raster.Color{R: 255, G: 255, B: 255, A: 255}
)

func TestFromImageRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	b := raster.FromImage(img)
	if diff := cmp.Diff(img.Pix, b.Image().Pix); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDownsampleIdempotentAtTargetResolution(t *testing.T) {
	src := fill(2, 2,
		raster.Color{R: 10, G: 200, B: 30, A: 255},
		raster.Color{R: 250, G: 1, B: 99, A: 255},
		raster.Color{R: 77, G: 77, B: 77, A: 200},
		raster.Color{R: 0, G: 0, B: 255, A: 255},
	)
	got := raster.Downsample(src, 2, 2)
	if diff := cmp.Diff(src, got); diff != "" {
		t.Errorf("downsample changed an at-resolution image (-want +got):\n%s", diff)
	}
}

func TestDownsampleAlphaWeightedAverage(t *testing.T) {
	// The transparent blue pixel must contribute nothing to RGB; alpha
	// averages over the whole rectangle.
	src := fill(2, 1, red, raster.Color{B: 255, A: 0})
	got := raster.Downsample(src, 1, 1)

	want := raster.Color{R: 255, G: 0, B: 0, A: 128}
	if got.At(0, 0) != want {
		t.Errorf("averaged cell = %+v, want %+v", got.At(0, 0), want)
	}
}

func TestDownsampleZeroAlphaRectangle(t *testing.T) {
	src := fill(2, 2,
		raster.Color{R: 50, A: 0}, raster.Color{G: 60, A: 0},
		raster.Color{B: 70, A: 0}, raster.Color{R: 80, A: 0},
	)
	got := raster.Downsample(src, 1, 1)
	if got.At(0, 0) != (raster.Color{}) {
		t.Errorf("zero-alpha rectangle produced %+v, want transparent black", got.At(0, 0))
	}
}

func TestDownsampleBoxAverage(t *testing.T) {
	// Four opaque pixels collapse to their channel means.
	src := fill(2, 2,
		raster.Color{R: 100, A: 255}, raster.Color{R: 200, A: 255},
		raster.Color{R: 100, A: 255}, raster.Color{R: 200, A: 255},
	)
	got := raster.Downsample(src, 1, 1)
	want := raster.Color{R: 150, A: 255}
	if got.At(0, 0) != want {
		t.Errorf("averaged cell = %+v, want %+v", got.At(0, 0), want)
	}
}

func TestSharpenUniformImageUnchanged(t *testing.T) {
	src := raster.New(5, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			src.Set(x, y, raster.Color{R: 90, G: 120, B: 60, A: 255})
		}
	}
	got := raster.Sharpen(src)
	if diff := cmp.Diff(src, got); diff != "" {
		t.Errorf("sharpen changed a uniform image (-want +got):\n%s", diff)
	}
}

func TestSharpenBoostsAndClampsInterior(t *testing.T) {
	src := raster.New(5, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			src.Set(x, y, raster.Color{R: 40, G: 40, B: 40, A: 255})
		}
	}
	src.Set(2, 2, white)

	got := raster.Sharpen(src)

	// Center: 5*255 - 4*40 clamps to 255.
	if c := got.At(2, 2); c != white {
		t.Errorf("center = %+v, want clamped white", c)
	}
	// Orthogonal neighbor: 5*40 - (255 + 3*40) clamps to 0, alpha kept.
	if c := got.At(2, 1); c != (raster.Color{A: 255}) {
		t.Errorf("neighbor = %+v, want clamped black with source alpha", c)
	}
	// Untouched interior cell away from the spike: 5*40 - 4*40 = 40.
	if c := got.At(1, 3); c.R != 40 || c.A != 255 {
		t.Errorf("flat interior = %+v, want unchanged 40", c)
	}
}

func TestSharpenBordersCopiedThrough(t *testing.T) {
	src := fill(3, 3,
		red, blue, red,
		blue, white, blue,
		red, blue, red,
	)
	got := raster.Sharpen(src)

	for _, xy := range [][2]int{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {2, 1}, {0, 2}, {1, 2}, {2, 2}} {
		if got.At(xy[0], xy[1]) != src.At(xy[0], xy[1]) {
			t.Errorf("border (%d,%d) = %+v, want source %+v",
				xy[0], xy[1], got.At(xy[0], xy[1]), src.At(xy[0], xy[1]))
		}
	}
}
