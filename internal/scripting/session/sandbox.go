package session

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// SDKTable is the global table that holds every intrinsic, including those
// whose names are shadowed by the Lua base library.
const SDKTable = "sdk"

// removedGlobals are base library functions that reach the file system or
// compile arbitrary chunks.
var removedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "require", "module"}

func (s *Session) newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	L.SetTop(0)

	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(s.print))
	s.guardNested(L, L.G.Global, "pcall", "xpcall")
	if tbl, ok := L.GetGlobal("table").(*lua.LTable); ok {
		s.guardNested(L, tbl, "sort")
	}
	if str, ok := L.GetGlobal("string").(*lua.LTable); ok {
		s.guardNested(L, str, "gsub")
	}

	sdk := L.NewTable()
	for _, in := range s.bridge.Intrinsics() {
		fn := L.NewFunction(s.intrinsic(in.Name))
		L.SetField(sdk, in.Name, fn)
		if L.GetGlobal(in.Name) == lua.LNil {
			L.SetGlobal(in.Name, fn)
		}
	}
	L.SetGlobal(SDKTable, sdk)
	// error() stays the Lua builtin; the logging intrinsic is reachable as logError.
	if fn := L.GetField(sdk, "error"); fn != lua.LNil {
		L.SetGlobal("logError", fn)
	}
	return L
}

// guardNested wraps library functions that call back into Lua from Go. A
// coroutine cannot yield through such a call, so intrinsics running inside
// one neither yield on an exhausted slice nor suspend.
func (s *Session) guardNested(L *lua.LState, tbl *lua.LTable, names ...string) {
	for _, name := range names {
		fn, ok := L.GetField(tbl, name).(*lua.LFunction)
		if !ok || !fn.IsG {
			continue
		}
		inner := fn.GFunction
		L.SetField(tbl, name, L.NewFunction(func(L *lua.LState) int {
			s.nested++
			defer func() { s.nested-- }()
			return inner(L)
		}))
	}
}

func (s *Session) print(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	s.Output(strings.Join(parts, "\t"))
	return 0
}

// intrinsic adapts one bridge intrinsic to a Lua function. A suspension or an
// exhausted time slice yields the calling coroutine; the result is delivered
// when the task resumes. Inside a nested call a suspension raises a Lua error
// and the slice check is skipped; the hard limit still applies there.
func (s *Session) intrinsic(name string) lua.LGFunction {
	return func(L *lua.LState) int {
		top := L.GetTop()
		args := make([]any, 0, top)
		for i := 1; i <= top; i++ {
			v, err := fromLua(L.Get(i))
			if err != nil {
				s.log.Warn("dropping unconvertible argument", "intrinsic", name, "position", i, "error", err)
			}
			args = append(args, v)
		}

		res := s.bridge.Invoke(s.ctx(), s, name, args)
		ret := toLua(L, res.Value)

		if s.current == nil || s.current.co != L {
			L.Push(ret)
			return 1
		}
		if res.Suspend != nil && s.nested > 0 {
			L.RaiseError("%s cannot suspend inside pcall, xpcall, table.sort or string.gsub", name)
			return 0
		}
		if res.Suspend != nil {
			s.suspend(*res.Suspend)
			s.current.pending = []lua.LValue{ret}
			return L.Yield()
		}
		if s.nested == 0 && s.overBudget() {
			s.current.frame = s.frame + 1
			s.current.pending = []lua.LValue{ret}
			return L.Yield()
		}
		L.Push(ret)
		return 1
	}
}
