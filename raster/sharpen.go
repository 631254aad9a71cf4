package raster

// Sharpen applies a fixed 3x3 sharpening kernel (center 5, orthogonal
// neighbors -1, corners 0) to the RGB channels of every interior pixel,
// clamped to [0,255]. Alpha is copied from the source. Border pixels are
// backfilled from the source wherever the convolution left a raw zero;
// border handling is copy-through, not a padded convolution.
func Sharpen(src *Bitmap) *Bitmap {
	dst := New(src.Width, src.Height)

	for y := 1; y < src.Height-1; y++ {
		for x := 1; x < src.Width-1; x++ {
			i := src.Offset(x, y)
			up := src.Offset(x, y-1)
			down := src.Offset(x, y+1)
			left := src.Offset(x-1, y)
			right := src.Offset(x+1, y)
			for ch := 0; ch < 3; ch++ {
				v := 5*int(src.Pix[i+ch]) -
					int(src.Pix[up+ch]) - int(src.Pix[down+ch]) -
					int(src.Pix[left+ch]) - int(src.Pix[right+ch])
				dst.Pix[i+ch] = clamp8(v)
			}
			dst.Pix[i+3] = src.Pix[i+3]
		}
	}

	// Backfill untouched (all-zero) pixels, which covers the borders.
	for i := 0; i < len(dst.Pix); i += 4 {
		if dst.Pix[i] == 0 && dst.Pix[i+1] == 0 && dst.Pix[i+2] == 0 && dst.Pix[i+3] == 0 {
			copy(dst.Pix[i:i+4], src.Pix[i:i+4])
		}
	}
	return dst
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
