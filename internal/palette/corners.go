package palette

import (
	"image"
	"math"
	"sort"
)

const (
	cornerMarginRatio     = 0.08
	cornerChannelBinWidth = 24
	cornerMinBucketShare  = 0.005
	cornerNeutralWinner   = 0.12
	cornerAltSaturation   = 0.3
	cornerAltMinShare     = 0.01
)

// Corners holds one accent colour per image quadrant.
type Corners struct {
	TL RGB `json:"tl"`
	TR RGB `json:"tr"`
	BR RGB `json:"br"`
	BL RGB `json:"bl"`
}

type quadrant int

const (
	quadrantTopLeft quadrant = iota
	quadrantTopRight
	quadrantBottomRight
	quadrantBottomLeft
)

type cornerKey struct {
	r uint8
	g uint8
	b uint8
}

func (k cornerKey) less(other cornerKey) bool {
	if k.r != other.r {
		return k.r < other.r
	}
	if k.g != other.g {
		return k.g < other.g
	}
	return k.b < other.b
}

type cornerBucket struct {
	key   cornerKey
	count int
	sumR  float64
	sumG  float64
	sumB  float64
	sumS  float64
	sumL  float64
}

func (b *cornerBucket) saturation() float64 {
	if b.count == 0 {
		return 0
	}
	return b.sumS / float64(b.count)
}

func (b *cornerBucket) score() float64 {
	return float64(b.count) * (0.7 + 0.6*math.Pow(b.saturation(), 1.1))
}

func (b *cornerBucket) average() RGB {
	return averageRGB(b.sumR, b.sumG, b.sumB, float64(b.count))
}

// EstimateCorners computes the four refined corner accents. When the image has
// a global tone, that tone replaces all four. A quadrant with nothing
// analyzable and no global tone to fall back on yields nil.
func EstimateCorners(img *image.NRGBA) *Corners {
	if img == nil {
		return nil
	}

	if tone := ClassifyTone(img); tone != nil {
		refined := RefineColor(tone.Color)
		return &Corners{TL: refined, TR: refined, BR: refined, BL: refined}
	}

	accents := [4]RGB{}
	for q := quadrantTopLeft; q <= quadrantBottomLeft; q++ {
		accent, ok := quadrantAccent(img, quadrantRect(img.Bounds(), q))
		if !ok {
			return nil
		}
		accents[q] = RefineColor(accent)
	}

	return &Corners{
		TL: accents[quadrantTopLeft],
		TR: accents[quadrantTopRight],
		BR: accents[quadrantBottomRight],
		BL: accents[quadrantBottomLeft],
	}
}

// quadrantRect returns the quadrant with its outer edges trimmed by the margin.
func quadrantRect(bounds image.Rectangle, q quadrant) image.Rectangle {
	width := bounds.Dx()
	height := bounds.Dy()
	marginX := int(math.Floor(float64(width) * cornerMarginRatio))
	marginY := int(math.Floor(float64(height) * cornerMarginRatio))
	midX := bounds.Min.X + width/2
	midY := bounds.Min.Y + height/2

	switch q {
	case quadrantTopLeft:
		return image.Rect(bounds.Min.X+marginX, bounds.Min.Y+marginY, midX, midY)
	case quadrantTopRight:
		return image.Rect(midX, bounds.Min.Y+marginY, bounds.Max.X-marginX, midY)
	case quadrantBottomRight:
		return image.Rect(midX, midY, bounds.Max.X-marginX, bounds.Max.Y-marginY)
	default:
		return image.Rect(bounds.Min.X+marginX, midY, midX, bounds.Max.Y-marginY)
	}
}

func isCornerBackground(hsl HSL) bool {
	return (hsl.S < 0.08 && hsl.L > 0.9) || (hsl.S < 0.06 && hsl.L < 0.12)
}

func quadrantAccent(img *image.NRGBA, rect image.Rectangle) (RGB, bool) {
	rect = rect.Intersect(img.Bounds())
	buckets := make(map[cornerKey]*cornerBucket)
	sampled := 0

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			px, ok := opaquePixel(img, x, y)
			if !ok || isCornerBackground(px.hsl) {
				continue
			}

			key := cornerKey{
				r: px.rgb.R / cornerChannelBinWidth,
				g: px.rgb.G / cornerChannelBinWidth,
				b: px.rgb.B / cornerChannelBinWidth,
			}
			bucket, exists := buckets[key]
			if !exists {
				bucket = &cornerBucket{key: key}
				buckets[key] = bucket
			}

			bucket.count++
			bucket.sumR += float64(px.rgb.R)
			bucket.sumG += float64(px.rgb.G)
			bucket.sumB += float64(px.rgb.B)
			bucket.sumS += px.hsl.S
			bucket.sumL += px.hsl.L
			sampled++
		}
	}

	if sampled == 0 {
		return RGB{}, false
	}

	ordered := make([]*cornerBucket, 0, len(buckets))
	for _, bucket := range buckets {
		ordered = append(ordered, bucket)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].key.less(ordered[j].key)
	})

	minCount := float64(sampled) * cornerMinBucketShare
	pool := make([]*cornerBucket, 0, len(ordered))
	for _, bucket := range ordered {
		if float64(bucket.count) >= minCount {
			pool = append(pool, bucket)
		}
	}
	if len(pool) == 0 {
		pool = ordered
	}

	winner := pool[0]
	for _, bucket := range pool[1:] {
		if bucket.score() > winner.score() {
			winner = bucket
		}
	}

	if winner.saturation() < cornerNeutralWinner {
		altMinCount := float64(sampled) * cornerAltMinShare
		var alternative *cornerBucket
		for _, bucket := range pool {
			if bucket == winner || bucket.saturation() < cornerAltSaturation || float64(bucket.count) < altMinCount {
				continue
			}
			if alternative == nil || bucket.score() > alternative.score() {
				alternative = bucket
			}
		}
		if alternative != nil {
			winner = alternative
		}
	}

	return winner.average(), true
}
