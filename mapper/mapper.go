// Package mapper assigns every visible grid cell to a palette color,
// either directly or with error-diffusion dithering.
package mapper

import (
	"image/color"

	"knitchart/palette"
	"knitchart/raster"

	"github.com/makeworld-the-better-one/dither/v2"
)

// Quantize returns a copy of b with every visible pixel's RGB replaced by
// its perceptually nearest palette color. Alpha is untouched. An empty
// palette returns an unmodified copy.
func Quantize(b *raster.Bitmap, pal palette.Palette) *raster.Bitmap {
	out := b.Clone()
	if len(pal) == 0 {
		return out
	}

	ix := palette.NewLabIndex(pal)
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i+3] <= raster.VisibleAlpha {
			continue
		}
		c := ix.Color(ix.Nearest(raster.Color{
			R: out.Pix[i], G: out.Pix[i+1], B: out.Pix[i+2],
		}))
		out.Pix[i] = c.R
		out.Pix[i+1] = c.G
		out.Pix[i+2] = c.B
	}
	return out
}

// Floyd-Steinberg error weights, sixteenths.
var fsWeights = [4]struct {
	dx, dy int
	w      float64
}{
	{1, 0, 7.0 / 16},
	{-1, 1, 3.0 / 16},
	{0, 1, 5.0 / 16},
	{1, 1, 1.0 / 16},
}

// FloydSteinberg dithers b in place against pal. Pixels are processed in
// strict row-major order: each visible pixel is snapped to its nearest
// palette color and the signed per-channel error is spread to the four
// classic neighbors, skipping invisible ones and clamping every update to
// [0,255]. Later pixels depend on earlier error, so the order is a
// correctness requirement. An empty palette leaves b unchanged.
func FloydSteinberg(b *raster.Bitmap, pal palette.Palette) {
	if len(pal) == 0 {
		return
	}
	ix := palette.NewLabIndex(pal)

	// Channel values drift off the 8-bit lattice as error accumulates,
	// so the working copy is float per channel.
	buf := make([]float64, b.Width*b.Height*3)
	for i, j := 0, 0; i < len(b.Pix); i, j = i+4, j+3 {
		buf[j] = float64(b.Pix[i])
		buf[j+1] = float64(b.Pix[i+1])
		buf[j+2] = float64(b.Pix[i+2])
	}

	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if !b.Visible(x, y) {
				continue
			}
			j := (y*b.Width + x) * 3
			old := raster.Color{
				R: round8(buf[j]),
				G: round8(buf[j+1]),
				B: round8(buf[j+2]),
			}
			chosen := ix.Color(ix.Nearest(old))

			i := b.Offset(x, y)
			b.Pix[i] = chosen.R
			b.Pix[i+1] = chosen.G
			b.Pix[i+2] = chosen.B

			errR := float64(old.R) - float64(chosen.R)
			errG := float64(old.G) - float64(chosen.G)
			errB := float64(old.B) - float64(chosen.B)

			for _, n := range fsWeights {
				nx, ny := x+n.dx, y+n.dy
				if !b.In(nx, ny) || !b.Visible(nx, ny) {
					continue
				}
				nj := (ny*b.Width + nx) * 3
				buf[nj] = clampf(buf[nj] + errR*n.w)
				buf[nj+1] = clampf(buf[nj+1] + errG*n.w)
				buf[nj+2] = clampf(buf[nj+2] + errB*n.w)
			}
		}
	}
}

// Bayer maps b through a 4x4 ordered-dither matrix using the dither
// library. Invisible pixels are restored from the input afterwards since
// the library has no notion of the visibility threshold.
func Bayer(b *raster.Bitmap, pal palette.Palette) *raster.Bitmap {
	if len(pal) == 0 {
		return b.Clone()
	}

	cols := make([]color.Color, len(pal))
	for i, c := range pal {
		cols[i] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
	}
	d := dither.NewDitherer(cols)
	d.Mapper = dither.Bayer(4, 4, 1.0)

	ix := palette.NewLabIndex(pal)
	out := raster.FromImage(d.Dither(b.Image()))
	for i := 0; i < len(b.Pix); i += 4 {
		if b.Pix[i+3] <= raster.VisibleAlpha {
			copy(out.Pix[i:i+4], b.Pix[i:i+4])
			continue
		}
		out.Pix[i+3] = b.Pix[i+3]
		if b.Pix[i+3] < 255 {
			// The library round-trips through premultiplied alpha, which
			// shifts the RGB of semi-transparent pixels off the palette.
			// Snap them back.
			c := ix.Color(ix.Nearest(raster.Color{
				R: out.Pix[i], G: out.Pix[i+1], B: out.Pix[i+2],
			}))
			out.Pix[i] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
		}
	}
	return out
}

func round8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func clampf(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
