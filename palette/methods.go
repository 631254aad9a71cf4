package palette

import (
	"math"
	"slices"

	"knitchart/raster"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// extractKMeansLib clusters visible pixels with the muesli/kmeans library.
// Pixels are subsampled to keep partitioning tractable on large grids.
func extractKMeansLib(b *raster.Bitmap, k int) Palette {
	const maxSamples = 12000
	step := 1
	if n := b.Width * b.Height; n > maxSamples {
		step = int(math.Sqrt(float64(n)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, maxSamples)
	for y := 0; y < b.Height; y += step {
		for x := 0; x < b.Width; x += step {
			c := b.At(x, y)
			if c.A <= raster.VisibleAlpha {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255,
				float64(c.G) / 255,
				float64(c.B) / 255,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}
	if k > len(dataset) {
		k = len(dataset)
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, k)
	if err != nil || len(cc) == 0 {
		return nil
	}

	// Dominant clusters first, mirroring the frequency order of the
	// native extractor.
	slices.SortFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	pal := make(Palette, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		r, g, bl := col.RGB255()
		entry := raster.Color{R: r, G: g, B: bl, A: 255}
		if !slices.Contains(pal, entry) {
			pal = append(pal, entry)
		}
	}
	return pal
}

// extractDominant picks the strongest dominantcolor candidates, greedily
// spread apart in L*a*b* so near-duplicates do not crowd out distinct hues.
func extractDominant(b *raster.Bitmap, k int) Palette {
	candidates := dominantcolor.FindWeight(b.Image(), max(24, k*8))
	if len(candidates) == 0 {
		return nil
	}

	type item struct {
		color   raster.Color
		lab     [3]float64
		weight  float64
		claimed bool
	}
	items := make([]item, 0, len(candidates))
	for _, cand := range candidates {
		col, ok := colorful.MakeColor(cand.RGBA)
		if !ok {
			continue
		}
		l, a, bb := col.Lab()
		w := cand.Weight
		if w <= 0 {
			w = 1e-6
		}
		items = append(items, item{
			color:  raster.Color{R: cand.RGBA.R, G: cand.RGBA.G, B: cand.RGBA.B, A: 255},
			lab:    [3]float64{l, a, bb},
			weight: w,
		})
	}
	if len(items) == 0 {
		return nil
	}
	if k > len(items) {
		k = len(items)
	}

	// Seed with the heaviest candidate, then maximize weighted spread.
	best := 0
	for i := 1; i < len(items); i++ {
		if items[i].weight > items[best].weight {
			best = i
		}
	}
	items[best].claimed = true
	pal := Palette{items[best].color}

	for len(pal) < k {
		bestIdx, bestScore := -1, -1.0
		for i, it := range items {
			if it.claimed {
				continue
			}
			minD := math.MaxFloat64
			for j, other := range items {
				if !other.claimed {
					continue
				}
				d := 0.0
				for ch := 0; ch < 3; ch++ {
					diff := it.lab[ch] - items[j].lab[ch]
					d += diff * diff
				}
				if d < minD {
					minD = d
				}
			}
			score := math.Sqrt(minD) * math.Sqrt(it.weight)
			if score > bestScore {
				bestScore, bestIdx = score, i
			}
		}
		if bestIdx < 0 {
			break
		}
		items[bestIdx].claimed = true
		if !slices.Contains(pal, items[bestIdx].color) {
			pal = append(pal, items[bestIdx].color)
		}
	}
	return pal
}
