package values

import (
	"fmt"
	"math"
)

// Vector3 is a 3-component floating point vector used for position,
// rotation (Euler degrees) and scale.
type Vector3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Vec3 is shorthand for Vector3{x, y, z}.
func Vec3(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// One is the unit scale.
var One = Vector3{X: 1, Y: 1, Z: 1}

// Add returns v + o
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * f
func (v Vector3) Scale(f float64) Vector3 {
	return Vector3{v.X * f, v.Y * f, v.Z * f}
}

// Length returns the Euclidean length
func (v Vector3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance returns the distance between v and o
func (v Vector3) Distance(o Vector3) float64 {
	return o.Sub(v).Length()
}

// Normalized returns the unit vector, or the zero vector for a zero-length input.
func (v Vector3) Normalized() Vector3 {
	l := v.Length()
	if l == 0 {
		return Vector3{}
	}
	return v.Scale(1 / l)
}

// MoveTowards moves v toward target by at most maxDelta without overshooting.
func (v Vector3) MoveTowards(target Vector3, maxDelta float64) Vector3 {
	diff := target.Sub(v)
	dist := diff.Length()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	return v.Add(diff.Scale(maxDelta / dist))
}

// Lerp interpolates between v and o; t is clamped to [0,1].
func (v Vector3) Lerp(o Vector3, t float64) Vector3 {
	t = math.Max(0, math.Min(1, t))
	return v.Add(o.Sub(v).Scale(t))
}

// ApproxEqual compares component-wise within eps.
func (v Vector3) ApproxEqual(o Vector3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

// Map returns the {x,y,z} record form handed to scripts.
func (v Vector3) Map() map[string]any {
	return map[string]any{"x": v.X, "y": v.Y, "z": v.Z}
}

// Vector3FromAny accepts a Vector3, an {x,y,z} map or a 3-element list.
func Vector3FromAny(v any) (Vector3, error) {
	switch t := v.(type) {
	case Vector3:
		return t, nil
	case *Vector3:
		if t == nil {
			return Vector3{}, fmt.Errorf("nil vector")
		}
		return *t, nil
	case map[string]any:
		x, okx := toFloat(t["x"])
		y, oky := toFloat(t["y"])
		z, okz := toFloat(t["z"])
		if !okx || !oky || !okz {
			return Vector3{}, fmt.Errorf("vector record needs numeric x, y and z")
		}
		return Vector3{x, y, z}, nil
	case []any:
		if len(t) != 3 {
			return Vector3{}, fmt.Errorf("vector list needs 3 elements, got %d", len(t))
		}
		var out [3]float64
		for i, e := range t {
			f, ok := toFloat(e)
			if !ok {
				return Vector3{}, fmt.Errorf("vector element %d is not a number", i)
			}
			out[i] = f
		}
		return Vector3{out[0], out[1], out[2]}, nil
	default:
		return Vector3{}, fmt.Errorf("cannot convert %T to vector", v)
	}
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
