// Package chart implements the batch command that turns every image in a
// folder into a knitting chart.
package chart

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"knitchart/palette"
	"knitchart/parallel"
	"knitchart/raster"
	"knitchart/session"

	"github.com/alecthomas/kong"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
)

type CLICmd struct {
	Scan             string `help:"Source folder to scan" default:"."`
	Dest             string `help:"Destination folder for charts. Relative to scan dir if not absolute." default:"charts"`
	Resolution       int    `help:"Grid coarseness in cells per side (8-128)" default:"48" group:"pipeline"`
	Colors           int    `help:"Palette size (2-16)" default:"8" group:"pipeline"`
	Dither           string `help:"Palette mapping mode" enum:"none,floyd,bayer" default:"none" group:"pipeline"`
	EnhanceEdges     bool   `help:"Sharpen the source before downsampling" default:"false" group:"pipeline"`
	Method           string `help:"Palette extraction method" enum:"weighted,kmeans,dominant" default:"weighted" group:"palette"`
	Seed             uint64 `help:"Extraction seed, 0 for time-based" default:"0" group:"palette"`
	Palette          string `help:"Fixed yarn palette: a name (bw, natural, wool8) or RIFF PAL file" group:"palette"`
	SavePalette      bool   `help:"Write each chart's palette next to it as a RIFF PAL file" default:"false" group:"palette"`
	RemoveBackground bool   `help:"Key out the corner-sampled background color" default:"false" group:"edit"`
	Transparent      string `help:"Hex color to make fully transparent, e.g. '#ffffff'" group:"edit"`
	Scale            int    `help:"Export upscale factor per grid cell" default:"8"`
	MaxInput         int    `help:"Sources larger than this are thumbnailed before processing" default:"1024"`
	Format           string `help:"Output image format" enum:"png,bmp,tiff" default:"png"`

	fixedPalette   palette.Palette
	transparent    raster.Color
	hasTransparent bool
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	switch {
	case c.Resolution < 8 || c.Resolution > 128:
		return fmt.Errorf("invalid resolution: %d", c.Resolution)
	case c.Colors < 2 || c.Colors > 16:
		return fmt.Errorf("invalid palette size: %d", c.Colors)
	case c.Scale < 1:
		return fmt.Errorf("invalid scale factor: %d", c.Scale)
	case c.MaxInput < 16:
		return fmt.Errorf("invalid input size cap: %d", c.MaxInput)
	}

	if c.Palette != "" {
		if c.fixedPalette, err = palette.Load(c.Palette); err != nil {
			return err
		}
		if len(c.fixedPalette) == 0 {
			return fmt.Errorf("palette %q has no colors", c.Palette)
		}
	}

	if c.Transparent != "" {
		col, err := colorful.Hex(c.Transparent)
		if err != nil {
			return fmt.Errorf("invalid transparent color %q: %w", c.Transparent, err)
		}
		r, g, b := col.RGB255()
		c.transparent = raster.Color{R: r, G: g, B: b, A: 255}
		c.hasTransparent = true
	}

	return nil
}

func (c *CLICmd) Run(worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	if err := os.MkdirAll(c.Dest, os.ModeDir); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	var processedCount, errCount atomic.Uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		worker(func(fileName string) func() {
			return func() {
				if err := c.process(fileName); err != nil {
					errCount.Add(1)
					slog.Error("could not chart image", "file", fileName, "error", err)
					return
				}
				processedCount.Add(1)
			}
		}(file.Name()))
	}

	wait(true)

	processed := processedCount.Load()
	errors := errCount.Load()
	slog.Info("stats", "processed", processed, "errors", errors,
		"total", processed+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d files", errors)
	}
	return nil
}

func (c *CLICmd) process(fileName string) error {
	filePath := filepath.Join(c.Scan, fileName)
	logger := slog.Default().With("file", filePath)

	imgFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("could not open image: %w", err)
	}
	defer imgFile.Close()

	img, _, err := image.Decode(imgFile)
	if err != nil {
		return fmt.Errorf("could not decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > c.MaxInput || bounds.Dy() > c.MaxInput {
		img = resize.Thumbnail(uint(c.MaxInput), uint(c.MaxInput), img, resize.Lanczos3)
		logger.Info("thumbnailed oversized source",
			"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	}

	sess, err := session.New(session.Config{
		Resolution:   c.Resolution,
		MaxColors:    c.Colors,
		Dither:       session.DitherMode(c.Dither),
		EnhanceEdges: c.EnhanceEdges,
		Method:       palette.Method(c.Method),
		Seed:         c.Seed,
		Fixed:        c.fixedPalette,
	})
	if err != nil {
		return err
	}
	if err = sess.Load(img); err != nil {
		return fmt.Errorf("could not build chart: %w", err)
	}

	if c.RemoveBackground {
		sess.RemoveBackground()
	}
	if c.hasTransparent {
		sess.RemoveColor(c.transparent)
	}

	logger.Info("charted", "cells", c.Resolution, "palette", sess.Swatches())

	if err = save(sess.Render(c.Scale), c.Format, c.Dest, fileName); err != nil {
		return fmt.Errorf("could not save chart to %q: %w", c.Dest, err)
	}

	if c.SavePalette {
		if err = savePalette(sess.Palette(), c.Dest, fileName); err != nil {
			return fmt.Errorf("could not save palette to %q: %w", c.Dest, err)
		}
	}
	return nil
}
