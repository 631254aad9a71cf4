// Package raster holds the flat RGBA bitmap the chart pipeline works on,
// plus the resolution-reducing and pre-filter passes that feed it.
package raster

import (
	"image"
	"image/color"
)

// Color is one non-premultiplied RGBA pixel value. Equality is exact
// per-channel comparison.
type Color struct {
	R, G, B, A uint8
}

// VisibleAlpha is the threshold above which a pixel counts as visible
// for palette extraction and color mapping.
const VisibleAlpha = 128

// Bitmap is a width x height grid of non-premultiplied RGBA pixels.
// Pix holds interleaved R, G, B, A bytes; len(Pix) = Width*Height*4.
type Bitmap struct {
	Width  int
	Height int
	Pix    []uint8
}

func New(width, height int) *Bitmap {
	return &Bitmap{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// FromImage copies any decoded image into a Bitmap, normalizing to
// non-premultiplied 8-bit channels.
func FromImage(img image.Image) *Bitmap {
	bounds := img.Bounds()
	b := New(bounds.Dx(), bounds.Dy())
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			b.Pix[i] = c.R
			b.Pix[i+1] = c.G
			b.Pix[i+2] = c.B
			b.Pix[i+3] = c.A
			i += 4
		}
	}
	return b
}

// Image returns the bitmap as an *image.NRGBA sharing no memory with it.
func (b *Bitmap) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}

func (b *Bitmap) Clone() *Bitmap {
	c := &Bitmap{
		Width:  b.Width,
		Height: b.Height,
		Pix:    make([]uint8, len(b.Pix)),
	}
	copy(c.Pix, b.Pix)
	return c
}

// In reports whether (x, y) is inside the bitmap.
func (b *Bitmap) In(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

func (b *Bitmap) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

func (b *Bitmap) At(x, y int) Color {
	i := b.Offset(x, y)
	return Color{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

func (b *Bitmap) Set(x, y int, c Color) {
	i := b.Offset(x, y)
	b.Pix[i] = c.R
	b.Pix[i+1] = c.G
	b.Pix[i+2] = c.B
	b.Pix[i+3] = c.A
}

// Visible reports whether the pixel at (x, y) is above the visibility
// threshold.
func (b *Bitmap) Visible(x, y int) bool {
	return b.Pix[b.Offset(x, y)+3] > VisibleAlpha
}
