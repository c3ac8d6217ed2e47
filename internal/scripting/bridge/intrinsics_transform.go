package bridge

import (
	"errors"
	"math"

	"github.com/assetkit-dev/assetkit/internal/domain/traits"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
)

// ErrNoTrait is the precondition failure when the target lacks the trait an operation needs.
var ErrNoTrait = errors.New("target has no such trait")

// vectorTrait is satisfied by Position, Rotation and Scale.
type vectorTrait interface {
	traits.Trait
	Get() values.Vector3
	Set(values.Vector3)
}

func lookupVector[T vectorTrait](c *Call) (vectorTrait, error) {
	if c.Target == nil {
		return nil, ErrNoTarget
	}
	t, ok := traits.Get[T](c.traitSet())
	if !ok {
		return nil, ErrNoTrait
	}
	return t, nil
}

func vectorGetter[T vectorTrait](name string) Intrinsic {
	return Intrinsic{
		Name: name, Category: CategoryTransform,
		Handler: func(c *Call) (any, error) {
			t, err := lookupVector[T](c)
			if err != nil {
				return nil, err
			}
			return t.Get(), nil
		},
	}
}

func vectorSetter[T vectorTrait](name string, apply func(cur, arg values.Vector3) values.Vector3) Intrinsic {
	return Intrinsic{
		Name: name, Category: CategoryTransform, Params: xyz(), Placeholder: false,
		Handler: func(c *Call) (any, error) {
			t, err := lookupVector[T](c)
			if err != nil {
				return nil, err
			}
			t.Set(apply(t.Get(), c.Vector(0)))
			return true, nil
		},
	}
}

func replace(_, arg values.Vector3) values.Vector3 {
	return arg
}

func offset(cur, arg values.Vector3) values.Vector3 {
	return cur.Add(arg)
}

func transformIntrinsics() []Intrinsic {
	return []Intrinsic{
		vectorGetter[*traits.Position]("getPosition"),
		vectorSetter[*traits.Position]("setPosition", replace),
		vectorGetter[*traits.Rotation]("getRotation"),
		vectorSetter[*traits.Rotation]("setRotation", replace),
		vectorGetter[*traits.Scale]("getScale"),
		vectorSetter[*traits.Scale]("setScale", replace),
		vectorSetter[*traits.Position]("translate", offset),
		vectorSetter[*traits.Rotation]("rotate", offset),
		{
			Name: "moveToward", Category: CategoryTransform, Placeholder: false,
			Params: append(xyz(), opt("speed", KindNumber, 1.0)),
			Handler: func(c *Call) (any, error) {
				t, err := lookupVector[*traits.Position](c)
				if err != nil {
					return nil, err
				}
				step := c.Number(3) * c.Env.DeltaTime()
				t.Set(t.Get().MoveTowards(c.Vector(0), step))
				return true, nil
			},
		},
		{
			Name: "rotateToward", Category: CategoryTransform, Placeholder: false,
			Params: append(xyz(), opt("speed", KindNumber, 90.0)),
			Handler: func(c *Call) (any, error) {
				t, err := lookupVector[*traits.Rotation](c)
				if err != nil {
					return nil, err
				}
				step := c.Number(3) * c.Env.DeltaTime()
				cur, target := t.Get(), c.Vector(0)
				t.Set(values.Vec3(
					moveAngle(cur.X, target.X, step),
					moveAngle(cur.Y, target.Y, step),
					moveAngle(cur.Z, target.Z, step),
				))
				return true, nil
			},
		},
		{
			Name: "lookAt", Category: CategoryTransform, Params: xyz(), Placeholder: false,
			Handler: func(c *Call) (any, error) {
				pos, err := lookupVector[*traits.Position](c)
				if err != nil {
					return nil, err
				}
				rot, err := lookupVector[*traits.Rotation](c)
				if err != nil {
					return nil, err
				}
				d := c.Vector(0).Sub(pos.Get())
				if d.Length() == 0 {
					return true, nil
				}
				yaw := math.Atan2(d.X, d.Z) * 180 / math.Pi
				pitch := -math.Atan2(d.Y, math.Hypot(d.X, d.Z)) * 180 / math.Pi
				rot.Set(values.Vec3(pitch, yaw, rot.Get().Z))
				return true, nil
			},
		},
		{
			Name: "getDirectionTo", Category: CategoryTransform, Params: xyz(),
			Handler: func(c *Call) (any, error) {
				pos, err := lookupVector[*traits.Position](c)
				if err != nil {
					return nil, err
				}
				return c.Vector(0).Sub(pos.Get()).Normalized(), nil
			},
		},
		{
			Name: "getDistanceTo", Category: CategoryTransform, Params: xyz(), Placeholder: -1.0,
			Handler: func(c *Call) (any, error) {
				pos, err := lookupVector[*traits.Position](c)
				if err != nil {
					return nil, err
				}
				return pos.Get().Distance(c.Vector(0)), nil
			},
		},
	}
}

// moveAngle moves current toward target by at most step degrees along the shortest arc.
func moveAngle(current, target, step float64) float64 {
	delta := math.Mod(target-current, 360)
	if delta > 180 {
		delta -= 360
	} else if delta < -180 {
		delta += 360
	}
	if math.Abs(delta) <= step {
		return target
	}
	return current + math.Copysign(step, delta)
}
