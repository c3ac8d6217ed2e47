package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
)

// Kind is the declared type of an intrinsic parameter.
type Kind int

const (
	KindAny Kind = iota
	KindNumber
	KindString
	KindBool
	KindTable
	KindVector
	KindColor
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindTable:
		return "table"
	case KindVector:
		return "vector"
	case KindColor:
		return "color"
	case KindFunction:
		return "function"
	default:
		return "any"
	}
}

// Param declares one positional parameter.
type Param struct {
	Name     string
	Kind     Kind
	Default  any
	Required bool
}

// Handler implements an intrinsic. A returned error means a precondition
// failed; the caller then receives the intrinsic's placeholder.
type Handler func(c *Call) (any, error)

// Intrinsic is one row of the capability table.
type Intrinsic struct {
	Name     string
	Category string
	Params   []Param
	// Handler is nil for operations forwarded to the host.
	Handler Handler
	// Placeholder is returned when a precondition fails or the host has not
	// wired the operation.
	Placeholder any
}

// Forwarded reports whether the intrinsic is delegated to the host.
func (in *Intrinsic) Forwarded() bool {
	return in.Handler == nil
}

// Signature renders the intrinsic as name(a, b=default).
func (in *Intrinsic) Signature() string {
	parts := make([]string, len(in.Params))
	for i, p := range in.Params {
		switch {
		case p.Required:
			parts[i] = p.Name
		case p.Default == nil:
			parts[i] = p.Name + "?"
		default:
			parts[i] = fmt.Sprintf("%s=%v", p.Name, p.Default)
		}
	}
	return in.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Callable is an opaque handle to a script function, created and consumed
// by the interpreter session.
type Callable struct {
	fn any
}

// NewCallable wraps an interpreter function value.
func NewCallable(fn any) Callable {
	return Callable{fn: fn}
}

// Func returns the wrapped interpreter value.
func (c Callable) Func() any {
	return c.fn
}

// Suspension asks the session to park the calling task.
type Suspension struct {
	Delay     time.Duration
	NextFrame bool
}

// Result is the outcome of one intrinsic invocation.
type Result struct {
	Value       any
	Suspend     *Suspension
	Err         error
	Forwarded   bool
	Placeholder bool
}

// Env is the per-session view the bridge needs from the interpreter session.
type Env interface {
	ScriptID() values.ScriptID
	Elapsed() float64
	DeltaTime() float64
	FrameCount() int
	SetTimeScale(scale float64)
	Schedule(fn Callable, delay time.Duration, repeat bool) int
	Cancel(id int) bool
	LocalState() hostenv.StateStore
	AssetState() hostenv.StateStore
	EventData() any
	Emit(name string, data any) int
	Output(line string)
	ErrorOutput(line string)
}

// Call carries one invocation's bound arguments and collaborators.
type Call struct {
	Ctx       context.Context
	Env       Env
	Target    Target
	Services  *hostenv.Services
	Intrinsic *Intrinsic

	args    []any
	suspend *Suspension
}

// Arg returns the bound argument at i.
func (c *Call) Arg(i int) any {
	if i < 0 || i >= len(c.args) {
		return nil
	}
	return c.args[i]
}

// Number returns argument i as a float64.
func (c *Call) Number(i int) float64 {
	f, _ := c.Arg(i).(float64)
	return f
}

// String returns argument i as a string.
func (c *Call) String(i int) string {
	s, _ := c.Arg(i).(string)
	return s
}

// Bool returns argument i as a bool.
func (c *Call) Bool(i int) bool {
	b, _ := c.Arg(i).(bool)
	return b
}

// Vector returns the three number arguments starting at i as a vector.
func (c *Call) Vector(i int) values.Vector3 {
	if v, ok := c.Arg(i).(values.Vector3); ok {
		return v
	}
	return values.Vec3(c.Number(i), c.Number(i+1), c.Number(i+2))
}

// Callable returns argument i as a script function handle.
func (c *Call) Callable(i int) (Callable, bool) {
	fn, ok := c.Arg(i).(Callable)
	return fn, ok
}

// Named returns the bound arguments keyed by parameter name.
func (c *Call) Named() map[string]any {
	out := make(map[string]any, len(c.args))
	for i, p := range c.Intrinsic.Params {
		v := c.Arg(i)
		if _, isFn := v.(Callable); isFn {
			continue
		}
		out[p.Name] = v
	}
	return out
}

// Suspend parks the calling task after the intrinsic returns.
func (c *Call) Suspend(s Suspension) {
	c.suspend = &s
}

// Logger returns a logger annotated with the intrinsic and script.
func (c *Call) Logger() *slog.Logger {
	l := c.Services.Logger.With("intrinsic", c.Intrinsic.Name)
	if c.Env != nil {
		l = l.With("script", c.Env.ScriptID().Short())
	}
	return l
}

// bind matches raw positional arguments against params. When the first three
// parameters are x, y, z numbers, a single vector argument is spread across them.
func bind(params []Param, raw []any) ([]any, error) {
	raw = spreadVector(params, raw)
	out := make([]any, len(params))
	for i, p := range params {
		var v any
		if i < len(raw) {
			v = raw[i]
		}
		if v == nil {
			if p.Required {
				return nil, fmt.Errorf("missing required argument %q", p.Name)
			}
			out[i] = p.Default
			continue
		}
		coerced, err := coerce(p.Kind, v)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", p.Name, err)
		}
		out[i] = coerced
	}
	return out, nil
}

func spreadVector(params []Param, raw []any) []any {
	if len(params) < 3 || len(raw) == 0 {
		return raw
	}
	if params[0].Name != "x" || params[1].Name != "y" || params[2].Name != "z" {
		return raw
	}
	switch raw[0].(type) {
	case values.Vector3, map[string]any:
	default:
		return raw
	}
	v, err := values.Vector3FromAny(raw[0])
	if err != nil {
		return raw
	}
	spread := []any{v.X, v.Y, v.Z}
	return append(spread, raw[1:]...)
}

func coerce(kind Kind, v any) (any, error) {
	switch kind {
	case KindAny:
		return v, nil
	case KindNumber:
		if f, ok := toNumber(v); ok {
			return f, nil
		}
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindTable:
		switch v.(type) {
		case map[string]any, []any:
			return v, nil
		}
	case KindVector:
		vec, err := values.Vector3FromAny(v)
		if err != nil {
			return nil, err
		}
		return vec, nil
	case KindColor:
		c, err := values.ColorFromAny(v)
		if err != nil {
			return nil, err
		}
		return c, nil
	case KindFunction:
		if fn, ok := v.(Callable); ok {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("want %s, got %s", kind, TypeName(v))
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// TypeName returns the script-facing type name of a neutral value.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case float64, float32, int, int64:
		return "number"
	case string:
		return "string"
	case []any, map[string]any:
		return "table"
	case values.Vector3:
		return "vector"
	case values.Color:
		return "color"
	case Callable:
		return "function"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Param helpers used by the catalogue.

func req(name string, kind Kind) Param {
	return Param{Name: name, Kind: kind, Required: true}
}

func opt(name string, kind Kind, def any) Param {
	return Param{Name: name, Kind: kind, Default: def}
}

func xyz() []Param {
	return []Param{req("x", KindNumber), req("y", KindNumber), req("z", KindNumber)}
}

// forward declares an operation that is delegated to the host.
func forward(category, name string, placeholder any, params ...Param) Intrinsic {
	return Intrinsic{Name: name, Category: category, Params: params, Placeholder: placeholder}
}
