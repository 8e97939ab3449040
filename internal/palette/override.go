package palette

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	rgbTriplePattern = regexp.MustCompile(`^\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*$`)
	hexColorPattern  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// Overrides are operator-supplied colours for individual palette slots. A set
// slot is final: it bypasses extraction and refinement.
type Overrides struct {
	Dominant1 *RGB `json:"dominant1,omitempty"`
	Dominant2 *RGB `json:"dominant2,omitempty"`
	AccentTL  *RGB `json:"accentTl,omitempty"`
	AccentTR  *RGB `json:"accentTr,omitempty"`
	AccentBR  *RGB `json:"accentBr,omitempty"`
	AccentBL  *RGB `json:"accentBl,omitempty"`
}

func (o Overrides) Empty() bool {
	return o.Dominant1 == nil && o.Dominant2 == nil &&
		o.AccentTL == nil && o.AccentTR == nil && o.AccentBR == nil && o.AccentBL == nil
}

// Apply overlays the set slots on p. When p has no value for a field, its
// unset slots mirror the first set slot of that field.
func (o Overrides) Apply(p Palette) Palette {
	out := Palette{}

	cornerSlots := []*RGB{o.AccentTL, o.AccentTR, o.AccentBR, o.AccentBL}
	if p.Corners != nil {
		corners := *p.Corners
		out.Corners = &corners
	} else if fallback := firstSet(cornerSlots); fallback != nil {
		out.Corners = &Corners{TL: *fallback, TR: *fallback, BR: *fallback, BL: *fallback}
	}
	if out.Corners != nil {
		overrideSlot(&out.Corners.TL, o.AccentTL)
		overrideSlot(&out.Corners.TR, o.AccentTR)
		overrideSlot(&out.Corners.BR, o.AccentBR)
		overrideSlot(&out.Corners.BL, o.AccentBL)
	}

	dominantSlots := []*RGB{o.Dominant1, o.Dominant2}
	if p.Dominants != nil {
		dominants := *p.Dominants
		out.Dominants = &dominants
	} else if fallback := firstSet(dominantSlots); fallback != nil {
		out.Dominants = &[2]RGB{*fallback, *fallback}
	}
	if out.Dominants != nil {
		overrideSlot(&out.Dominants[0], o.Dominant1)
		overrideSlot(&out.Dominants[1], o.Dominant2)
	}

	return out
}

func firstSet(slots []*RGB) *RGB {
	for _, slot := range slots {
		if slot != nil {
			return slot
		}
	}
	return nil
}

func overrideSlot(dst *RGB, value *RGB) {
	if value != nil {
		*dst = *value
	}
}

// ParseOverride accepts "r,g,b", "#rrggbb" or a three-element numeric slice.
// Anything else reports false and must be treated as absent.
func ParseOverride(value any) (RGB, bool) {
	switch v := value.(type) {
	case nil:
		return RGB{}, false
	case RGB:
		return v, true
	case *RGB:
		if v == nil {
			return RGB{}, false
		}
		return *v, true
	case string:
		return parseOverrideString(v)
	case []int:
		if len(v) != 3 {
			return RGB{}, false
		}
		return parseChannels(float64(v[0]), float64(v[1]), float64(v[2]))
	case [3]int:
		return parseChannels(float64(v[0]), float64(v[1]), float64(v[2]))
	case []float64:
		if len(v) != 3 {
			return RGB{}, false
		}
		return parseChannels(v[0], v[1], v[2])
	case []any:
		if len(v) != 3 {
			return RGB{}, false
		}
		channels := [3]float64{}
		for i, item := range v {
			number, ok := toFloat(item)
			if !ok {
				return RGB{}, false
			}
			channels[i] = number
		}
		return parseChannels(channels[0], channels[1], channels[2])
	default:
		return RGB{}, false
	}
}

// ParseOverridePointer is ParseOverride for optional slots.
func ParseOverridePointer(value any) *RGB {
	parsed, ok := ParseOverride(value)
	if !ok {
		return nil
	}
	return &parsed
}

func parseOverrideString(value string) (RGB, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return RGB{}, false
	}

	if match := rgbTriplePattern.FindStringSubmatch(trimmed); match != nil {
		channels := [3]float64{}
		for i := 0; i < 3; i++ {
			number, err := strconv.Atoi(match[i+1])
			if err != nil {
				return RGB{}, false
			}
			channels[i] = float64(number)
		}
		return parseChannels(channels[0], channels[1], channels[2])
	}

	if hexColorPattern.MatchString(trimmed) {
		parsed, err := colorful.Hex(trimmed)
		if err != nil {
			return RGB{}, false
		}
		r, g, b := parsed.Clamped().RGB255()
		return RGB{R: r, G: g, B: b}, true
	}

	return RGB{}, false
}

func parseChannels(r, g, b float64) (RGB, bool) {
	for _, channel := range []float64{r, g, b} {
		if math.IsNaN(channel) || math.IsInf(channel, 0) {
			return RGB{}, false
		}
	}
	return RGB{R: clampChannel(r), G: clampChannel(g), B: clampChannel(b)}, true
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint8:
		return float64(v), true
	default:
		return 0, false
	}
}
