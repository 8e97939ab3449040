package palette

import "math"

type familyAdjustment struct {
	saturation float64
	lightness  float64
	minLight   float64
	maxLight   float64
}

// Tuned by eye against real posters; keep the values as they are.
var dominantAdjustments = map[HueFamily]familyAdjustment{
	FamilyRed:     {saturation: 0.15, lightness: 0.08, minLight: 0, maxLight: 0.85},
	FamilyOrange:  {saturation: 0.12, lightness: 0.06, minLight: 0, maxLight: 0.85},
	FamilyYellow:  {saturation: 0.05, lightness: -0.04, minLight: 0.15, maxLight: 0.78},
	FamilyGreen:   {saturation: 0.10, lightness: 0.05, minLight: 0, maxLight: 0.85},
	FamilyCyan:    {saturation: 0.08, lightness: 0.05, minLight: 0, maxLight: 0.85},
	FamilyBlue:    {saturation: 0.10, lightness: 0.12, minLight: 0, maxLight: 0.82},
	FamilyPurple:  {saturation: 0.12, lightness: 0.08, minLight: 0, maxLight: 0.83},
	FamilyMagenta: {saturation: 0.12, lightness: 0.06, minLight: 0, maxLight: 0.83},
}

const (
	refineMinSaturation  = 0.2
	refineSaturationGain = 1.3
	refineHighLightness  = 0.88
	refineHighTarget     = 0.75
	refineLowLightness   = 0.18
	refineLowTarget      = 0.25

	displayGrayThreshold = 0.1
)

// RefineColor keeps a corner accent visible against dark backgrounds: faint
// saturation is lifted and extreme lightness is pulled back into range.
// Colours already inside the safe band come back untouched.
func RefineColor(c RGB) RGB {
	hsl := RGBToHSL(c)
	changed := false

	if hsl.S < refineMinSaturation {
		hsl.S = math.Min(1, hsl.S*refineSaturationGain)
		changed = true
	}

	if hsl.L > refineHighLightness {
		hsl.L = refineHighTarget
		changed = true
	} else if hsl.L < refineLowLightness {
		hsl.L = refineLowTarget
		changed = true
	}

	if !changed {
		return c
	}
	return HSLToRGB(hsl)
}

// EnhanceDominantHSL applies the per-family saturation/lightness nudge used
// for the two global dominants.
func EnhanceDominantHSL(hsl HSL) HSL {
	adjustment := dominantAdjustments[ClassifyHueFamily(hsl.H)]

	return HSL{
		H: normalizeHue(hsl.H),
		S: math.Min(1, clampFloat(hsl.S, 0, 1)+adjustment.saturation),
		L: clampFloat(clampFloat(hsl.L, 0, 1)+adjustment.lightness, adjustment.minLight, adjustment.maxLight),
	}
}

func enhanceDominant(hsl HSL) RGB {
	return HSLToRGB(EnhanceDominantHSL(hsl))
}

// EnhanceColor is the display-time boost applied by callers that ask for it.
// Near-gray colours only get lighter; anything else gets more saturated too.
func EnhanceColor(c RGB) RGB {
	hsl := RGBToHSL(c)
	if hsl.S < displayGrayThreshold {
		hsl.L = math.Min(1, hsl.L+0.1)
		return HSLToRGB(hsl)
	}

	hsl.S = math.Min(1, hsl.S+0.3)
	hsl.L = math.Min(0.8, hsl.L+0.2)
	return HSLToRGB(hsl)
}

// EnhancePalette runs EnhanceColor over every populated slot.
func EnhancePalette(p Palette) Palette {
	out := Palette{}
	if p.Corners != nil {
		out.Corners = &Corners{
			TL: EnhanceColor(p.Corners.TL),
			TR: EnhanceColor(p.Corners.TR),
			BR: EnhanceColor(p.Corners.BR),
			BL: EnhanceColor(p.Corners.BL),
		}
	}
	if p.Dominants != nil {
		out.Dominants = &[2]RGB{EnhanceColor(p.Dominants[0]), EnhanceColor(p.Dominants[1])}
	}
	return out
}
