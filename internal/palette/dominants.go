package palette

import (
	"image"
	"math"
	"sort"
)

const (
	dominantHueBins        = 36
	dominantHueBinWidth    = 360.0 / dominantHueBins
	dominantSaturationBins = 6
	dominantLightnessBins  = 6
	dominantMinHueDistance = 35.0
)

var dominantHueWeights = map[HueFamily]float64{
	FamilyRed:     1.12,
	FamilyBlue:    1.12,
	FamilyPurple:  1.12,
	FamilyMagenta: 1.12,
	FamilyGreen:   1.06,
	FamilyOrange:  1.04,
	FamilyCyan:    1.02,
	FamilyYellow:  0.95,
}

type clusterKey struct {
	hue        int
	saturation int
	lightness  int
}

func (k clusterKey) less(other clusterKey) bool {
	if k.hue != other.hue {
		return k.hue < other.hue
	}
	if k.saturation != other.saturation {
		return k.saturation < other.saturation
	}
	return k.lightness < other.lightness
}

type colorCluster struct {
	key    clusterKey
	count  int
	weight float64
	sumR   float64
	sumG   float64
	sumB   float64
	sumH   float64
	sumS   float64
	sumL   float64
}

func (c *colorCluster) averageHSL() HSL {
	if c.weight <= 0 {
		return HSL{}
	}
	return HSL{
		H: normalizeHue(c.sumH / c.weight),
		S: clampFloat(c.sumS/c.weight, 0, 1),
		L: clampFloat(c.sumL/c.weight, 0, 1),
	}
}

func saturationWeight(s float64) float64 {
	if s < 0.12 {
		return 0.25 + 0.5*s
	}
	return math.Pow(s, 0.85)
}

func lightnessWeight(l float64) float64 {
	return clampFloat(1-1.8*math.Abs(l-0.56), 0.25, 1)
}

func hueWeight(h float64) float64 {
	return dominantHueWeights[ClassifyHueFamily(h)]
}

func pixelWeight(hsl HSL) float64 {
	return saturationWeight(hsl.S) * lightnessWeight(hsl.L) * hueWeight(hsl.H)
}

func isDominantBackground(hsl HSL) bool {
	return (hsl.S < 0.08 && hsl.L > 0.92) || (hsl.S < 0.06 && hsl.L < 0.12)
}

func binIndex(value float64, bins int) int {
	index := int(math.Floor(clampFloat(value, 0, 1) * float64(bins)))
	if index >= bins {
		index = bins - 1
	}
	return index
}

// EstimateDominants picks the two heaviest, clearly different colour themes of
// the whole image. Both come back hue-family enhanced.
func EstimateDominants(img *image.NRGBA) *[2]RGB {
	clusters := buildClusters(img)
	if len(clusters) == 0 {
		return nil
	}

	first := clusters[0].averageHSL()
	firstFamily := ClassifyHueFamily(first.H)

	var second *colorCluster
	for _, cluster := range clusters[1:] {
		candidate := cluster.averageHSL()
		if HueDistance(candidate.H, first.H) >= dominantMinHueDistance && ClassifyHueFamily(candidate.H) != firstFamily {
			second = cluster
			break
		}
	}
	if second == nil && len(clusters) > 1 {
		second = clusters[1]
	}

	d1 := enhanceDominant(first)
	d2 := d1
	if second != nil {
		d2 = enhanceDominant(second.averageHSL())
	}

	return &[2]RGB{d1, d2}
}

// buildClusters returns clusters sorted by total weight, heaviest first.
func buildClusters(img *image.NRGBA) []*colorCluster {
	if img == nil {
		return nil
	}

	bounds := img.Bounds()
	clusters := make(map[clusterKey]*colorCluster)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px, ok := opaquePixel(img, x, y)
			if !ok || isDominantBackground(px.hsl) {
				continue
			}

			hue := normalizeHue(px.hsl.H)
			key := clusterKey{
				hue:        int(math.Floor(hue/dominantHueBinWidth)) % dominantHueBins,
				saturation: binIndex(px.hsl.S, dominantSaturationBins),
				lightness:  binIndex(px.hsl.L, dominantLightnessBins),
			}
			cluster, exists := clusters[key]
			if !exists {
				cluster = &colorCluster{key: key}
				clusters[key] = cluster
			}

			weight := pixelWeight(px.hsl)
			cluster.count++
			cluster.weight += weight
			cluster.sumR += float64(px.rgb.R) * weight
			cluster.sumG += float64(px.rgb.G) * weight
			cluster.sumB += float64(px.rgb.B) * weight
			cluster.sumH += hue * weight
			cluster.sumS += px.hsl.S * weight
			cluster.sumL += px.hsl.L * weight
		}
	}

	ordered := make([]*colorCluster, 0, len(clusters))
	for _, cluster := range clusters {
		if cluster.weight > 0 {
			ordered = append(ordered, cluster)
		}
	}

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].weight != ordered[j].weight {
			return ordered[i].weight > ordered[j].weight
		}
		return ordered[i].key.less(ordered[j].key)
	})

	return ordered
}
