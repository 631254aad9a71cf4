package chart

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"knitchart/palette"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// DestName derives the chart filename from a source image name.
func DestName(srcName, format string) string {
	oldExt := filepath.Ext(srcName)
	return fmt.Sprintf("%s-chart.%s", srcName[:len(srcName)-len(oldExt)], format)
}

// save encodes the rendered chart into destDir, writing through a
// temporary file so a failed encode never leaves a partial chart behind.
func save(img image.Image, format, destDir, srcName string) (err error) {
	destName := DestName(srcName, format)

	outFile, err := os.CreateTemp(destDir, destName)
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", destName, defErr)
		}
		if defErr := outFile.Close(); defErr != nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", destName, defErr)
		}

		if canRename {
			if defErr := os.Rename(outFile.Name(), filepath.Join(destDir, destName)); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", destName, defErr)
			}
		} else {
			os.Remove(outFile.Name())
		}
	}()

	switch format {
	case "png":
		enc := png.Encoder{
			CompressionLevel: png.BestCompression,
			BufferPool:       pngPool,
		}
		if err = enc.Encode(outFile, img); err != nil {
			return fmt.Errorf("could not encode PNG destination %q: %w", destName, err)
		}
	case "bmp":
		if err = bmp.Encode(outFile, img); err != nil {
			return fmt.Errorf("could not encode BMP destination %q: %w", destName, err)
		}
	case "tiff":
		if err = tiff.Encode(outFile, img, nil); err != nil {
			return fmt.Errorf("could not encode TIFF destination %q: %w", destName, err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}

	canRename = true
	return err
}

// savePalette writes the chart's palette next to it as a RIFF PAL file,
// reusable later via --palette.
func savePalette(pal palette.Palette, destDir, srcName string) (err error) {
	destName := DestName(srcName, "pal")

	outFile, err := os.Create(filepath.Join(destDir, destName))
	if err != nil {
		return fmt.Errorf("could not create palette file %q: %w", destName, err)
	}
	defer func() {
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close palette file %q: %w", destName, defErr)
		}
	}()

	if err = palette.WriteRIFF(outFile, pal); err != nil {
		return fmt.Errorf("could not write palette %q: %w", destName, err)
	}
	return nil
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
