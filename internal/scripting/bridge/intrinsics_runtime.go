package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
)

func timingIntrinsics() []Intrinsic {
	return []Intrinsic{
		{
			Name: "getTime", Category: CategoryTiming, Placeholder: 0.0,
			Handler: func(c *Call) (any, error) { return c.Env.Elapsed(), nil },
		},
		{
			Name: "getDeltaTime", Category: CategoryTiming, Placeholder: 0.0,
			Handler: func(c *Call) (any, error) { return c.Env.DeltaTime(), nil },
		},
		{
			Name: "getFrameCount", Category: CategoryTiming, Placeholder: 0.0,
			Handler: func(c *Call) (any, error) { return float64(c.Env.FrameCount()), nil },
		},
		{
			Name: "wait", Category: CategoryTiming, Placeholder: false,
			Params: []Param{opt("seconds", KindNumber, 0.0)},
			Handler: func(c *Call) (any, error) {
				delay, err := durationOf(c.Number(0), time.Second)
				if err != nil {
					return nil, err
				}
				c.Suspend(Suspension{Delay: delay})
				return true, nil
			},
		},
		{
			Name: "nextFrame", Category: CategoryTiming, Placeholder: false,
			Handler: func(c *Call) (any, error) {
				c.Suspend(Suspension{NextFrame: true})
				return true, nil
			},
		},
		schedule("setTimeout", false),
		cancel("clearTimeout"),
		schedule("setInterval", true),
		cancel("clearInterval"),
		{
			Name: "setTimeScale", Category: CategoryTiming, Placeholder: false,
			Params: []Param{req("scale", KindNumber)},
			Handler: func(c *Call) (any, error) {
				if c.Number(0) < 0 {
					return nil, fmt.Errorf("time scale must not be negative")
				}
				c.Env.SetTimeScale(c.Number(0))
				return true, nil
			},
		},
	}
}

func schedule(name string, repeat bool) Intrinsic {
	return Intrinsic{
		Name: name, Category: CategoryTiming, Placeholder: 0.0,
		Params: []Param{req("callback", KindFunction), opt("ms", KindNumber, 0.0)},
		Handler: func(c *Call) (any, error) {
			fn, _ := c.Callable(0)
			delay, err := durationOf(c.Number(1), time.Millisecond)
			if err != nil {
				return nil, err
			}
			if repeat && delay == 0 {
				return nil, fmt.Errorf("interval must be positive")
			}
			id := c.Env.Schedule(fn, delay, repeat)
			if id == 0 {
				return nil, fmt.Errorf("scheduling unavailable")
			}
			return float64(id), nil
		},
	}
}

// durationOf converts n units to a duration. Negative values clamp to zero
// and values past the representable range clamp to the maximum duration.
func durationOf(n float64, unit time.Duration) (time.Duration, error) {
	if math.IsNaN(n) {
		return 0, errors.New("duration must be a number")
	}
	if n <= 0 {
		return 0, nil
	}
	d := n * float64(unit)
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64), nil
	}
	return time.Duration(d), nil
}

func cancel(name string) Intrinsic {
	return Intrinsic{
		Name: name, Category: CategoryTiming, Placeholder: false,
		Params: []Param{req("id", KindNumber)},
		Handler: func(c *Call) (any, error) {
			return c.Env.Cancel(int(c.Number(0))), nil
		},
	}
}

// ErrUnknownScope is returned for state scopes other than local, asset, scene and global.
var ErrUnknownScope = errors.New("unknown state scope")

func (c *Call) store(scope string) (hostenv.StateStore, error) {
	switch scope {
	case hostenv.ScopeLocal:
		return c.Env.LocalState(), nil
	case hostenv.ScopeAsset:
		return c.Env.AssetState(), nil
	case hostenv.ScopeScene:
		return c.Services.SceneState, nil
	case hostenv.ScopeGlobal:
		return c.Services.GlobalState, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
}

func scoped(name string, placeholder any, params []Param, fn func(c *Call, s hostenv.StateStore) (any, error)) Intrinsic {
	scopeIdx := len(params)
	params = append(params, opt("scope", KindString, hostenv.ScopeLocal))
	return Intrinsic{
		Name: name, Category: CategoryState, Params: params, Placeholder: placeholder,
		Handler: func(c *Call) (any, error) {
			s, err := c.store(c.String(scopeIdx))
			if err != nil {
				return nil, err
			}
			return fn(c, s)
		},
	}
}

func stateIntrinsics() []Intrinsic {
	return []Intrinsic{
		scoped("setState", false, []Param{req("key", KindString), opt("value", KindAny, nil)},
			func(c *Call, s hostenv.StateStore) (any, error) {
				if _, isFn := c.Arg(1).(Callable); isFn {
					return nil, fmt.Errorf("functions cannot be stored in state")
				}
				if err := s.Set(c.Ctx, c.String(0), c.Arg(1)); err != nil {
					return nil, err
				}
				return true, nil
			}),
		scoped("getState", nil, []Param{req("key", KindString)},
			func(c *Call, s hostenv.StateStore) (any, error) {
				v, _, err := s.Get(c.Ctx, c.String(0))
				if err != nil {
					return nil, err
				}
				return Normalize(v), nil
			}),
		scoped("hasState", false, []Param{req("key", KindString)},
			func(c *Call, s hostenv.StateStore) (any, error) {
				_, ok, err := s.Get(c.Ctx, c.String(0))
				return ok, err
			}),
		scoped("deleteState", false, []Param{req("key", KindString)},
			func(c *Call, s hostenv.StateStore) (any, error) {
				return s.Delete(c.Ctx, c.String(0))
			}),
		scoped("clearStates", false, nil,
			func(c *Call, s hostenv.StateStore) (any, error) {
				if err := s.Clear(c.Ctx); err != nil {
					return nil, err
				}
				return true, nil
			}),
		scoped("listStates", []any{}, nil,
			func(c *Call, s hostenv.StateStore) (any, error) {
				keys, err := s.Keys(c.Ctx)
				if err != nil {
					return nil, err
				}
				return Normalize(keys), nil
			}),
	}
}

func apiIntrinsics() []Intrinsic {
	return []Intrinsic{
		forward(CategoryAPI, "httpGet", nil, req("url", KindString), opt("headers", KindTable, nil)),
		forward(CategoryAPI, "httpPost", nil, req("url", KindString), opt("body", KindAny, nil), opt("headers", KindTable, nil)),
		{
			Name: "parseJson", Category: CategoryAPI,
			Params: []Param{req("text", KindString)},
			Handler: func(c *Call) (any, error) {
				var out any
				if err := json.Unmarshal([]byte(c.String(0)), &out); err != nil {
					return nil, fmt.Errorf("parse json: %w", err)
				}
				return out, nil
			},
		},
		{
			Name: "stringifyJson", Category: CategoryAPI, Placeholder: "",
			Params: []Param{opt("value", KindAny, nil), opt("pretty", KindBool, false)},
			Handler: func(c *Call) (any, error) {
				if _, isFn := c.Arg(0).(Callable); isFn {
					return nil, fmt.Errorf("functions cannot be encoded")
				}
				var data []byte
				var err error
				if c.Bool(1) {
					data, err = json.MarshalIndent(c.Arg(0), "", "  ")
				} else {
					data, err = json.Marshal(c.Arg(0))
				}
				if err != nil {
					return nil, fmt.Errorf("stringify json: %w", err)
				}
				return string(data), nil
			},
		},
		{
			Name: "urlEncode", Category: CategoryAPI, Placeholder: "",
			Params: []Param{req("text", KindString)},
			Handler: func(c *Call) (any, error) {
				return url.QueryEscape(c.String(0)), nil
			},
		},
		forward(CategoryAPI, "cloudSave", false, req("key", KindString), opt("value", KindAny, nil)),
		forward(CategoryAPI, "cloudLoad", nil, req("key", KindString)),
		forward(CategoryAPI, "getServerTime", 0.0),
	}
}

func mathIntrinsics() []Intrinsic {
	return []Intrinsic{
		{
			Name: "vector3", Category: CategoryMath,
			Params: []Param{opt("x", KindNumber, 0.0), opt("y", KindNumber, 0.0), opt("z", KindNumber, 0.0)},
			Handler: func(c *Call) (any, error) { return c.Vector(0), nil },
		},
		{
			Name: "distance", Category: CategoryMath, Placeholder: -1.0,
			Params: []Param{req("a", KindVector), req("b", KindVector)},
			Handler: func(c *Call) (any, error) {
				a, _ := c.Arg(0).(values.Vector3)
				b, _ := c.Arg(1).(values.Vector3)
				return a.Distance(b), nil
			},
		},
		{
			Name: "lerp", Category: CategoryMath, Placeholder: 0.0,
			Params: []Param{req("a", KindNumber), req("b", KindNumber), req("t", KindNumber)},
			Handler: func(c *Call) (any, error) {
				t := math.Max(0, math.Min(1, c.Number(2)))
				return c.Number(0) + (c.Number(1)-c.Number(0))*t, nil
			},
		},
		{
			Name: "clamp", Category: CategoryMath, Placeholder: 0.0,
			Params: []Param{req("value", KindNumber), req("min", KindNumber), req("max", KindNumber)},
			Handler: func(c *Call) (any, error) {
				if c.Number(1) > c.Number(2) {
					return nil, fmt.Errorf("min greater than max")
				}
				return math.Max(c.Number(1), math.Min(c.Number(2), c.Number(0))), nil
			},
		},
		{
			Name: "random", Category: CategoryMath, Placeholder: 0.0,
			Params: []Param{opt("min", KindNumber, 0.0), opt("max", KindNumber, 1.0)},
			Handler: func(c *Call) (any, error) {
				lo, hi := c.Number(0), c.Number(1)
				return lo + (hi-lo)*c.Services.Random(), nil
			},
		},
	}
}
