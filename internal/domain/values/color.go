package values

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGBA color with components in [0,1].
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
	A float64 `json:"a" yaml:"a"`
}

// White is the default tint.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa".
func ParseHexColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return Color{}, fmt.Errorf("invalid hex color: %q", s)
	}
	if len(h) == 6 {
		h += "ff"
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color: %q", s)
	}
	return Color{
		R: float64((n>>24)&0xff) / 255,
		G: float64((n>>16)&0xff) / 255,
		B: float64((n>>8)&0xff) / 255,
		A: float64(n&0xff) / 255,
	}, nil
}

// Clamped returns the color with every component clamped to [0,1].
func (c Color) Clamped() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(c.A)}
}

// Hex returns "#rrggbbaa".
func (c Color) Hex() string {
	c = c.Clamped()
	return fmt.Sprintf("#%02x%02x%02x%02x",
		int(c.R*255+0.5), int(c.G*255+0.5), int(c.B*255+0.5), int(c.A*255+0.5))
}

// Map returns the {r,g,b,a} record form handed to scripts.
func (c Color) Map() map[string]any {
	return map[string]any{"r": c.R, "g": c.G, "b": c.B, "a": c.A}
}

// ColorFromAny accepts a Color, an {r,g,b[,a]} map, a 3/4-element list or a hex string.
func ColorFromAny(v any) (Color, error) {
	switch t := v.(type) {
	case Color:
		return t, nil
	case string:
		return ParseHexColor(t)
	case map[string]any:
		r, okr := toFloat(t["r"])
		g, okg := toFloat(t["g"])
		b, okb := toFloat(t["b"])
		if !okr || !okg || !okb {
			return Color{}, fmt.Errorf("color record needs numeric r, g and b")
		}
		a, ok := toFloat(t["a"])
		if !ok {
			a = 1
		}
		return Color{r, g, b, a}, nil
	case []any:
		if len(t) != 3 && len(t) != 4 {
			return Color{}, fmt.Errorf("color list needs 3 or 4 elements, got %d", len(t))
		}
		out := [4]float64{0, 0, 0, 1}
		for i, e := range t {
			f, ok := toFloat(e)
			if !ok {
				return Color{}, fmt.Errorf("color element %d is not a number", i)
			}
			out[i] = f
		}
		return Color{out[0], out[1], out[2], out[3]}, nil
	default:
		return Color{}, fmt.Errorf("cannot convert %T to color", v)
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
