package session

import (
	"fmt"
	"strconv"

	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/scripting/bridge"
	lua "github.com/yuin/gopher-lua"
)

// maxTableDepth bounds conversion of nested or self-referencing tables.
const maxTableDepth = 32

// toLua converts a neutral bridge value into a Lua value.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case values.Vector3:
		tbl := L.NewTable()
		L.SetField(tbl, "x", lua.LNumber(val.X))
		L.SetField(tbl, "y", lua.LNumber(val.Y))
		L.SetField(tbl, "z", lua.LNumber(val.Z))
		return tbl
	case values.Color:
		tbl := L.NewTable()
		L.SetField(tbl, "r", lua.LNumber(val.R))
		L.SetField(tbl, "g", lua.LNumber(val.G))
		L.SetField(tbl, "b", lua.LNumber(val.B))
		L.SetField(tbl, "a", lua.LNumber(val.A))
		return tbl
	case bridge.Callable:
		if fn, ok := val.Func().(*lua.LFunction); ok {
			return fn
		}
		return lua.LNil
	case []any:
		tbl := L.CreateTable(len(val), 0)
		for i, item := range val {
			L.RawSetInt(tbl, i+1, toLua(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.CreateTable(0, len(val))
		for k, item := range val {
			L.SetField(tbl, k, toLua(L, item))
		}
		return tbl
	default:
		return toLua(L, bridge.Normalize(val))
	}
}

// fromLua converts a Lua value into a neutral bridge value. Array-like
// tables become []any, everything else map[string]any.
func fromLua(v lua.LValue) (any, error) {
	return fromLuaDepth(v, 0)
}

func fromLuaDepth(v lua.LValue, depth int) (any, error) {
	switch val := v.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(val), nil
	case lua.LNumber:
		return float64(val), nil
	case lua.LString:
		return string(val), nil
	case *lua.LFunction:
		return bridge.NewCallable(val), nil
	case *lua.LTable:
		if depth >= maxTableDepth {
			return nil, fmt.Errorf("table nested deeper than %d levels", maxTableDepth)
		}
		return tableFromLua(val, depth+1)
	default:
		return nil, fmt.Errorf("unsupported value of type %s", v.Type())
	}
}

func tableFromLua(tbl *lua.LTable, depth int) (any, error) {
	n := tbl.MaxN()
	count := 0
	tbl.ForEach(func(lua.LValue, lua.LValue) { count++ })

	if n > 0 && n == count {
		out := make([]any, n)
		for i := 1; i <= n; i++ {
			item, err := fromLuaDepth(tbl.RawGetInt(i), depth)
			if err != nil {
				return nil, err
			}
			out[i-1] = item
		}
		return out, nil
	}

	out := make(map[string]any, count)
	var convErr error
	tbl.ForEach(func(key, value lua.LValue) {
		if convErr != nil {
			return
		}
		var k string
		switch kv := key.(type) {
		case lua.LString:
			k = string(kv)
		case lua.LNumber:
			k = strconv.FormatFloat(float64(kv), 'f', -1, 64)
		default:
			convErr = fmt.Errorf("unsupported table key of type %s", key.Type())
			return
		}
		item, err := fromLuaDepth(value, depth)
		if err != nil {
			convErr = err
			return
		}
		out[k] = item
	})
	if convErr != nil {
		return nil, convErr
	}
	return out, nil
}
