package raster

import "math"

// Downsample reduces src to a width x height grid with an alpha-weighted
// box average. Each target cell covers the source rectangle spanned by the
// linear ratios floor(x*rx)..ceil((x+1)*rx) (same for y). RGB channels are
// weighted by each source pixel's own alpha so fully transparent pixels
// contribute nothing; output alpha is the plain average over the rectangle.
// A rectangle with zero total alpha produces a transparent black cell.
func Downsample(src *Bitmap, width, height int) *Bitmap {
	dst := New(width, height)
	xRatio := float64(src.Width) / float64(width)
	yRatio := float64(src.Height) / float64(height)

	for y := 0; y < height; y++ {
		sy1 := int(math.Floor(float64(y) * yRatio))
		sy2 := int(math.Ceil(float64(y+1) * yRatio))
		if sy2 > src.Height {
			sy2 = src.Height
		}
		for x := 0; x < width; x++ {
			sx1 := int(math.Floor(float64(x) * xRatio))
			sx2 := int(math.Ceil(float64(x+1) * xRatio))
			if sx2 > src.Width {
				sx2 = src.Width
			}

			var rSum, gSum, bSum, aSum float64
			count := 0
			for sy := sy1; sy < sy2; sy++ {
				i := src.Offset(sx1, sy)
				for sx := sx1; sx < sx2; sx++ {
					a := float64(src.Pix[i+3])
					rSum += float64(src.Pix[i]) * a
					gSum += float64(src.Pix[i+1]) * a
					bSum += float64(src.Pix[i+2]) * a
					aSum += a
					count++
					i += 4
				}
			}

			if aSum > 0 {
				dst.Set(x, y, Color{
					R: uint8(math.Round(rSum / aSum)),
					G: uint8(math.Round(gSum / aSum)),
					B: uint8(math.Round(bSum / aSum)),
					A: uint8(math.Round(aSum / float64(count))),
				})
			}
		}
	}
	return dst
}
