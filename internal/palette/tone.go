package palette

import (
	"image"
	"math"
)

type ToneMode string

const (
	ToneNeutral ToneMode = "neutral"
	ToneColored ToneMode = "colored"
)

const (
	toneNeutralSaturation = 0.12
	toneNeutralShare      = 0.6
	toneColoredShare      = 0.25
	toneHueBins           = 12
	toneHueBinWidth       = 360.0 / toneHueBins
)

// Tone is a single colour that stands for the whole image when it is either
// mostly grayscale or mostly one hue.
type Tone struct {
	Mode  ToneMode `json:"mode"`
	Color RGB      `json:"color"`
}

type toneBin struct {
	count int
	sumR  float64
	sumG  float64
	sumB  float64
	sumS  float64
	sumL  float64
}

func (b *toneBin) add(px samplePixel) {
	b.count++
	b.sumR += float64(px.rgb.R)
	b.sumG += float64(px.rgb.G)
	b.sumB += float64(px.rgb.B)
	b.sumS += px.hsl.S
	b.sumL += px.hsl.L
}

func (b *toneBin) average() RGB {
	return averageRGB(b.sumR, b.sumG, b.sumB, float64(b.count))
}

// ClassifyTone returns nil when the image has no single unifying tone.
func ClassifyTone(img *image.NRGBA) *Tone {
	if img == nil {
		return nil
	}

	bounds := img.Bounds()
	total := 0
	coloredCount := 0
	neutral := toneBin{}
	hueBins := make([]toneBin, toneHueBins)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px, ok := opaquePixel(img, x, y)
			if !ok {
				continue
			}

			total++
			if px.hsl.S < toneNeutralSaturation {
				neutral.add(px)
				continue
			}

			bin := int(math.Floor(normalizeHue(px.hsl.H)/toneHueBinWidth)) % toneHueBins
			hueBins[bin].add(px)
			coloredCount++
		}
	}

	if total == 0 {
		return nil
	}

	if float64(neutral.count)/float64(total) >= toneNeutralShare {
		return &Tone{Mode: ToneNeutral, Color: neutral.average()}
	}

	topBin := 0
	for i := 1; i < len(hueBins); i++ {
		if hueBins[i].count > hueBins[topBin].count {
			topBin = i
		}
	}

	if coloredCount > 0 && float64(hueBins[topBin].count)/float64(total) >= toneColoredShare {
		return &Tone{Mode: ToneColored, Color: hueBins[topBin].average()}
	}

	return nil
}
