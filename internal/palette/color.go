package palette

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit colour. It encodes to JSON as [r,g,b].
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// HSL has hue in degrees [0,360) and saturation/lightness in [0,1].
type HSL struct {
	H float64
	S float64
	L float64
}

type HueFamily string

const (
	FamilyRed     HueFamily = "red"
	FamilyOrange  HueFamily = "orange"
	FamilyYellow  HueFamily = "yellow"
	FamilyGreen   HueFamily = "green"
	FamilyCyan    HueFamily = "cyan"
	FamilyBlue    HueFamily = "blue"
	FamilyPurple  HueFamily = "purple"
	FamilyMagenta HueFamily = "magenta"
)

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{int(c.R), int(c.G), int(c.B)})
}

func (c *RGB) UnmarshalJSON(data []byte) error {
	var channels [3]float64
	if err := json.Unmarshal(data, &channels); err != nil {
		return fmt.Errorf("decode rgb: %w", err)
	}

	c.R = clampChannel(channels[0])
	c.G = clampChannel(channels[1])
	c.B = clampChannel(channels[2])
	return nil
}

func (c RGB) toColorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func RGBToHSL(c RGB) HSL {
	h, s, l := c.toColorful().Hsl()
	return HSL{H: normalizeHue(h), S: clampFloat(s, 0, 1), L: clampFloat(l, 0, 1)}
}

func HSLToRGB(hsl HSL) RGB {
	converted := colorful.Hsl(normalizeHue(hsl.H), clampFloat(hsl.S, 0, 1), clampFloat(hsl.L, 0, 1))
	r, g, b := converted.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// ClassifyHueFamily buckets a hue into its family. Any real hue is accepted;
// it is reduced modulo 360 first.
func ClassifyHueFamily(hue float64) HueFamily {
	h := normalizeHue(hue)
	switch {
	case h >= 345 || h < 15:
		return FamilyRed
	case h < 45:
		return FamilyOrange
	case h < 75:
		return FamilyYellow
	case h < 165:
		return FamilyGreen
	case h < 195:
		return FamilyCyan
	case h < 255:
		return FamilyBlue
	case h < 285:
		return FamilyPurple
	default:
		return FamilyMagenta
	}
}

// HueDistance is the circular distance between two hues, in [0,180].
func HueDistance(a float64, b float64) float64 {
	d := math.Abs(normalizeHue(a) - normalizeHue(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

func normalizeHue(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}

	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

func averageRGB(sumR, sumG, sumB float64, count float64) RGB {
	if count <= 0 {
		return RGB{}
	}

	return RGB{
		R: clampChannel(sumR / count),
		G: clampChannel(sumG / count),
		B: clampChannel(sumB / count),
	}
}

func clampChannel(value float64) uint8 {
	if math.IsNaN(value) {
		return 0
	}
	return uint8(math.Round(clampFloat(value, 0, 255)))
}

func clampFloat(value, minValue, maxValue float64) float64 {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}
	return value
}
