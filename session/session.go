// Package session owns the working chart: the downsampled grid bitmap,
// its palette, and the interactive edits layered on top. No caller
// touches raw pixel memory; every mutation goes through the session API
// and is committed to a linear undo history.
package session

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"knitchart/mapper"
	"knitchart/palette"
	"knitchart/raster"

	"golang.org/x/image/draw"
)

// DitherMode selects how grid cells are mapped onto the palette.
type DitherMode string

const (
	DitherNone  DitherMode = "none"
	DitherFloyd DitherMode = "floyd"
	DitherBayer DitherMode = "bayer"
)

// DefaultExportName is the filename offered when the caller has none.
const DefaultExportName = "knitting-pattern.png"

// Corner pixels within this device-RGB Euclidean distance of a sampled
// background reference are keyed out by RemoveBackground.
const backgroundThreshold = 40

// Config holds the user-adjustable pipeline parameters. Any change
// triggers a full re-run, which regenerates the grid and palette; manual
// pixel edits do not survive a re-run since the grid itself is rebuilt.
type Config struct {
	Resolution   int // grid coarseness, 8-128 cells per side
	MaxColors    int // palette size, 2-16
	Dither       DitherMode
	EnhanceEdges bool
	Method       palette.Method
	Seed         uint64
	// Fixed, when non-empty, is used as the palette instead of
	// extracting one from the image.
	Fixed palette.Palette
}

func (cfg *Config) validate() error {
	if cfg.Resolution < 8 || cfg.Resolution > 128 {
		return fmt.Errorf("resolution %d out of range [8,128]", cfg.Resolution)
	}
	if cfg.MaxColors < 2 || cfg.MaxColors > 16 {
		return fmt.Errorf("max colors %d out of range [2,16]", cfg.MaxColors)
	}
	switch cfg.Dither {
	case "":
		cfg.Dither = DitherNone
	case DitherNone, DitherFloyd, DitherBayer:
	default:
		return fmt.Errorf("unknown dither mode %q", cfg.Dither)
	}
	return nil
}

// Session is the single owner of the working bitmap, palette, and history.
// It is not safe for concurrent use; edits are expected to arrive one at a
// time from a single event loop.
type Session struct {
	cfg    Config
	source *raster.Bitmap // full-resolution, read-only after load
	grid   *raster.Bitmap // working bitmap, Resolution x Resolution
	pal    palette.Palette
	hist   history
}

func New(cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Session{cfg: cfg}, nil
}

// Load replaces the source image and runs the full pipeline. On failure
// the previous working state is left untouched.
func (s *Session) Load(img image.Image) error {
	if img == nil {
		return fmt.Errorf("no image")
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())
	}
	src := raster.FromImage(img)
	s.source = src
	s.rerun()
	return nil
}

// rerun executes the whole pipeline against the current source and
// parameters: optional edge enhancement, downsampling, palette extraction,
// palette mapping. The new grid and palette replace the old ones wholesale
// and history restarts at the mapped result.
func (s *Session) rerun() {
	src := s.source
	if s.cfg.EnhanceEdges {
		src = raster.Sharpen(src)
	}

	grid := raster.Downsample(src, s.cfg.Resolution, s.cfg.Resolution)

	var pal palette.Palette
	if len(s.cfg.Fixed) > 0 {
		pal = make(palette.Palette, len(s.cfg.Fixed))
		copy(pal, s.cfg.Fixed)
	} else {
		ex := palette.Extractor{Method: s.cfg.Method, Seed: s.cfg.Seed}
		pal = ex.Extract(grid, s.cfg.MaxColors)
	}

	switch s.cfg.Dither {
	case DitherFloyd:
		mapper.FloydSteinberg(grid, pal)
	case DitherBayer:
		grid = mapper.Bayer(grid, pal)
	default:
		grid = mapper.Quantize(grid, pal)
	}

	s.grid = grid
	s.pal = pal
	s.hist.reset()
	s.hist.push(grid)
}

// SetResolution changes the grid coarseness and re-runs the pipeline.
func (s *Session) SetResolution(n int) error {
	return s.update(func(cfg *Config) { cfg.Resolution = n })
}

// SetMaxColors changes the palette size and re-runs the pipeline.
func (s *Session) SetMaxColors(n int) error {
	return s.update(func(cfg *Config) { cfg.MaxColors = n })
}

// SetDither changes the mapping mode and re-runs the pipeline.
func (s *Session) SetDither(mode DitherMode) error {
	return s.update(func(cfg *Config) { cfg.Dither = mode })
}

// SetEnhanceEdges toggles the pre-sharpen pass and re-runs the pipeline.
func (s *Session) SetEnhanceEdges(on bool) error {
	return s.update(func(cfg *Config) { cfg.EnhanceEdges = on })
}

func (s *Session) update(apply func(*Config)) error {
	next := s.cfg
	apply(&next)
	if err := next.validate(); err != nil {
		return err
	}
	s.cfg = next
	if s.source != nil {
		s.rerun()
	}
	return nil
}

// Paint writes c at full opacity into the grid cell at (x, y).
// Out-of-bounds coordinates are ignored. Paint does not commit; callers
// batch a gesture's worth of paints and call Commit at the end so undo
// stays at gesture granularity.
func (s *Session) Paint(x, y int, c raster.Color) {
	if s.grid == nil || !s.grid.In(x, y) {
		return
	}
	s.grid.Set(x, y, raster.Color{R: c.R, G: c.G, B: c.B, A: 255})
}

// Commit snapshots the current grid onto the history.
func (s *Session) Commit() {
	if s.grid == nil {
		return
	}
	s.hist.push(s.grid)
}

// RemoveBackground samples three corners (top-left, top-right,
// bottom-left) as background references and makes every pixel within the
// keying threshold of any reference fully transparent. Corners already
// keyed transparent carry stale RGB and are skipped. Single pass,
// order-independent; references are fixed before the sweep.
func (s *Session) RemoveBackground() {
	if s.grid == nil {
		return
	}
	g := s.grid
	refs := make([]raster.Color, 0, 3)
	for _, c := range []raster.Color{
		g.At(0, 0),
		g.At(g.Width-1, 0),
		g.At(0, g.Height-1),
	} {
		if c.A != 0 {
			refs = append(refs, c)
		}
	}

	for i := 0; i < len(g.Pix); i += 4 {
		for _, ref := range refs {
			dr := float64(g.Pix[i]) - float64(ref.R)
			dg := float64(g.Pix[i+1]) - float64(ref.G)
			db := float64(g.Pix[i+2]) - float64(ref.B)
			if math.Sqrt(dr*dr+dg*dg+db*db) <= backgroundThreshold {
				g.Pix[i+3] = 0
				break
			}
		}
	}
	s.hist.push(g)
}

// RemoveColor makes every pixel whose RGB exactly matches c fully
// transparent.
func (s *Session) RemoveColor(c raster.Color) {
	if s.grid == nil {
		return
	}
	g := s.grid
	for i := 0; i < len(g.Pix); i += 4 {
		if g.Pix[i] == c.R && g.Pix[i+1] == c.G && g.Pix[i+2] == c.B {
			g.Pix[i+3] = 0
		}
	}
	s.hist.push(g)
}

// RecolorPalette replaces the palette entry at index with c and repaints
// every grid pixel whose RGB exactly equals the old entry. If two palette
// entries hold the same color both end up repainted; the extractor
// deduplicates so that only happens with hand-built palettes.
func (s *Session) RecolorPalette(index int, c raster.Color) {
	if s.grid == nil || index < 0 || index >= len(s.pal) {
		return
	}
	old := s.pal[index]
	next := raster.Color{R: c.R, G: c.G, B: c.B, A: 255}
	s.pal[index] = next

	g := s.grid
	for i := 0; i < len(g.Pix); i += 4 {
		if g.Pix[i] == old.R && g.Pix[i+1] == old.G && g.Pix[i+2] == old.B {
			g.Pix[i] = next.R
			g.Pix[i+1] = next.G
			g.Pix[i+2] = next.B
		}
	}
	s.hist.push(g)
}

// Undo restores the previous history snapshot. It reports whether a
// snapshot was restored; at the initial snapshot it is a no-op.
func (s *Session) Undo() bool {
	prev := s.hist.undo()
	if prev == nil {
		return false
	}
	s.grid = prev
	return true
}

// Reset discards the source, working bitmap, palette, and history,
// returning the session to its pre-load state.
func (s *Session) Reset() {
	s.source = nil
	s.grid = nil
	s.pal = nil
	s.hist.reset()
}

// Grid returns the working bitmap, or nil before the first Load. Callers
// must treat it as read-only and mutate through the session API.
func (s *Session) Grid() *raster.Bitmap {
	return s.grid
}

// Palette returns a copy of the current palette in extraction order.
func (s *Session) Palette() palette.Palette {
	out := make(palette.Palette, len(s.pal))
	copy(out, s.pal)
	return out
}

// Swatches returns the palette as hex strings, darkest first.
func (s *Session) Swatches() []string {
	return s.pal.Hex()
}

// Render scales the grid up by an integer factor with nearest-neighbor
// sampling so every grid cell becomes a crisp scale x scale block.
func (s *Session) Render(scale int) *image.NRGBA {
	if s.grid == nil {
		return nil
	}
	if scale < 1 {
		scale = 1
	}
	src := s.grid.Image()
	dst := image.NewNRGBA(image.Rect(0, 0, s.grid.Width*scale, s.grid.Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Export writes the rendered chart to w as PNG.
func (s *Session) Export(w io.Writer, scale int) error {
	img := s.Render(scale)
	if img == nil {
		return fmt.Errorf("nothing to export")
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("could not encode chart: %w", err)
	}
	return nil
}
