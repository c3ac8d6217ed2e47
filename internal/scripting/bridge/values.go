package bridge

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
)

// Normalize converts host values into the neutral set the interpreter
// understands: nil, bool, float64, string, []any, map[string]any,
// values.Vector3, values.Color and Callable.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil, bool, float64, string, values.Vector3, values.Color, Callable:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case hostenv.AssetInfo:
		return map[string]any{"guid": t.GUID, "name": t.Name, "type": t.Type}
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Sprint(t)
		}
		return out
	}
}

// Stringify renders a neutral value the way log/print show it.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case values.Vector3:
		return t.String()
	case values.Color:
		return t.Hex()
	case Callable:
		return "function"
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = Stringify(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := slices.Sorted(maps.Keys(t))
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + Stringify(t[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(t)
	}
}

// DetachedEnv is an Env for invocations outside a session, such as the REPL
// inspector or tests. Scheduling is unavailable.
type DetachedEnv struct {
	ID     values.ScriptID
	Local  hostenv.StateStore
	Asset  hostenv.StateStore
	Data   any
	Lines  []string
	Errors []string
}

var _ Env = (*DetachedEnv)(nil)

// NewDetachedEnv creates an env with fresh in-process stores.
func NewDetachedEnv() *DetachedEnv {
	return &DetachedEnv{Local: hostenv.NewMapStore(), Asset: hostenv.NewMapStore()}
}

func (d *DetachedEnv) ScriptID() values.ScriptID                  { return d.ID }
func (d *DetachedEnv) Elapsed() float64                           { return 0 }
func (d *DetachedEnv) DeltaTime() float64                         { return 0 }
func (d *DetachedEnv) FrameCount() int                            { return 0 }
func (d *DetachedEnv) SetTimeScale(float64)                       {}
func (d *DetachedEnv) Schedule(Callable, time.Duration, bool) int { return 0 }
func (d *DetachedEnv) Cancel(int) bool                            { return false }
func (d *DetachedEnv) LocalState() hostenv.StateStore             { return d.Local }
func (d *DetachedEnv) AssetState() hostenv.StateStore             { return d.Asset }
func (d *DetachedEnv) EventData() any                             { return d.Data }
func (d *DetachedEnv) Emit(string, any) int                       { return 0 }
func (d *DetachedEnv) Output(line string)                         { d.Lines = append(d.Lines, line) }
func (d *DetachedEnv) ErrorOutput(line string)                    { d.Errors = append(d.Errors, line) }
