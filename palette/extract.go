package palette

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"knitchart/cielab"
	"knitchart/raster"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// Method selects the palette extraction algorithm.
type Method string

const (
	// MethodWeighted is the native frequency-weighted k-means extractor.
	MethodWeighted Method = "weighted"
	// MethodKMeans clusters with the muesli/kmeans library.
	MethodKMeans Method = "kmeans"
	// MethodDominant picks dominant colors with cenkalti/dominantcolor.
	MethodDominant Method = "dominant"
)

// Lloyd iteration cap for the weighted extractor.
const maxIterations = 16

// Extractor derives a palette of representative colors from the visible
// pixels of a bitmap.
type Extractor struct {
	Method Method
	// Seed fixes the centroid sampling sequence. Zero means time-based;
	// two runs may then produce different but comparably good palettes.
	Seed uint64
}

// Extract returns at most k representative colors in frequency order.
// Images with no visible pixels produce an empty palette.
func (e Extractor) Extract(b *raster.Bitmap, k int) Palette {
	if k < 1 {
		return nil
	}
	switch e.Method {
	case MethodKMeans:
		p := extractKMeansLib(b, k)
		if len(p) > 0 {
			return p
		}
		return extractDominant(b, k)
	case MethodDominant:
		return extractDominant(b, k)
	default:
		return e.extractWeighted(b, k)
	}
}

type freqEntry struct {
	color raster.Color
	lab   cielab.Lab
	count int
}

// extractWeighted runs a seeded, frequency-weighted k-means over the
// distinct visible colors: k-means++ style seeding spread by squared
// perceptual distance, Lloyd iterations with frequency-weighted means,
// then a dedup pass that keeps the k most populous surviving colors.
func (e Extractor) extractWeighted(b *raster.Bitmap, k int) Palette {
	entries := countColors(b)
	if len(entries) == 0 {
		return nil
	}
	if len(entries) <= k {
		pal := make(Palette, len(entries))
		for i, en := range entries {
			pal[i] = en.color
		}
		return pal
	}

	centroids := e.seedCentroids(entries, k)

	assign := make([]int, len(entries))
	for iter := 0; iter < maxIterations; iter++ {
		labs := centroidLabs(centroids)
		for i, en := range entries {
			assign[i] = nearestLab(en.lab, labs)
		}

		sums := make([][4]float64, len(centroids)) // r, g, b, weight
		for i, en := range entries {
			w := float64(en.count)
			s := &sums[assign[i]]
			s[0] += float64(en.color.R) * w
			s[1] += float64(en.color.G) * w
			s[2] += float64(en.color.B) * w
			s[3] += w
		}

		moved := 0.0
		for ci := range centroids {
			if sums[ci][3] == 0 {
				continue
			}
			next := [3]float64{
				sums[ci][0] / sums[ci][3],
				sums[ci][1] / sums[ci][3],
				sums[ci][2] / sums[ci][3],
			}
			for ch := 0; ch < 3; ch++ {
				moved = math.Max(moved, math.Abs(next[ch]-centroids[ci][ch]))
			}
			centroids[ci] = next
		}
		if moved <= 1 {
			break
		}
	}

	// Reassign and merge centroids that converged to the same color.
	labs := centroidLabs(centroids)
	members := map[raster.Color]int{}
	for _, en := range entries {
		c := roundCentroid(centroids[nearestLab(en.lab, labs)])
		members[c] += en.count
	}
	final := make([]freqEntry, 0, len(members))
	for c, n := range members {
		final = append(final, freqEntry{color: c, count: n})
	}
	sortByFrequency(final)
	if len(final) > k {
		final = final[:k]
	}

	pal := make(Palette, 0, k)
	for _, en := range final {
		pal = append(pal, en.color)
	}
	// Converged centroids can leave the palette short; top up from the
	// most frequent source colors so k visible colors always yield k.
	for _, en := range entries {
		if len(pal) == k {
			break
		}
		if !slices.Contains(pal, en.color) {
			pal = append(pal, en.color)
		}
	}
	return pal
}

// seedCentroids picks the first centroid from the most frequent color and
// each following one by sampling pixels with probability proportional to
// frequency times squared perceptual distance to the nearest chosen seed.
func (e Extractor) seedCentroids(entries []freqEntry, k int) [][3]float64 {
	seed := e.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed)

	chosen := make([]int, 0, k)
	chosen = append(chosen, 0)
	minDist := make([]float64, len(entries))
	for i := range minDist {
		minDist[i] = math.MaxFloat64
	}

	weights := make([]float64, len(entries))
	for len(chosen) < k {
		last := entries[chosen[len(chosen)-1]].lab
		for i, en := range entries {
			if d := en.lab.DistanceSq(last); d < minDist[i] {
				minDist[i] = d
			}
			weights[i] = minDist[i] * float64(en.count)
		}

		sampler := sampleuv.NewWeighted(weights, src)
		idx, ok := sampler.Take()
		if !ok {
			// All remaining pixels sit on chosen centroids.
			idx = -1
			for i := range entries {
				if !slices.Contains(chosen, i) {
					idx = i
					break
				}
			}
			if idx < 0 {
				break
			}
		}
		chosen = append(chosen, idx)
	}

	centroids := make([][3]float64, len(chosen))
	for i, ei := range chosen {
		c := entries[ei].color
		centroids[i] = [3]float64{float64(c.R), float64(c.G), float64(c.B)}
	}
	return centroids
}

// countColors builds the frequency table of distinct visible colors,
// ordered most frequent first.
func countColors(b *raster.Bitmap) []freqEntry {
	counts := map[raster.Color]int{}
	for i := 0; i < len(b.Pix); i += 4 {
		if b.Pix[i+3] <= raster.VisibleAlpha {
			continue
		}
		c := raster.Color{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: 255}
		counts[c]++
	}

	entries := make([]freqEntry, 0, len(counts))
	for c, n := range counts {
		entries = append(entries, freqEntry{
			color: c,
			lab:   cielab.FromRGB(c.R, c.G, c.B),
			count: n,
		})
	}
	sortByFrequency(entries)
	return entries
}

// sortByFrequency orders by descending count with a fixed RGB tie-break so
// extraction order never depends on map iteration.
func sortByFrequency(entries []freqEntry) {
	slices.SortFunc(entries, func(a, b freqEntry) int {
		if a.count != b.count {
			if a.count > b.count {
				return -1
			}
			return 1
		}
		ka := uint32(a.color.R)<<16 | uint32(a.color.G)<<8 | uint32(a.color.B)
		kb := uint32(b.color.R)<<16 | uint32(b.color.G)<<8 | uint32(b.color.B)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
}

func centroidLabs(centroids [][3]float64) []cielab.Lab {
	labs := make([]cielab.Lab, len(centroids))
	for i, c := range centroids {
		rc := roundCentroid(c)
		labs[i] = cielab.FromRGB(rc.R, rc.G, rc.B)
	}
	return labs
}

func roundCentroid(c [3]float64) raster.Color {
	return raster.Color{
		R: uint8(math.Round(c[0])),
		G: uint8(math.Round(c[1])),
		B: uint8(math.Round(c[2])),
		A: 255,
	}
}

func nearestLab(lc cielab.Lab, labs []cielab.Lab) int {
	ret, bestSum := 0, math.MaxFloat64
	for i, v := range labs {
		if sum := lc.DistanceSq(v); sum < bestSum {
			ret, bestSum = i, sum
		}
	}
	return ret
}
