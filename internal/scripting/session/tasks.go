package session

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/scripting/bridge"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
	lua "github.com/yuin/gopher-lua"
)

// task is one coroutine: the main chunk or a fired timer callback.
type task struct {
	co     *lua.LState
	cancel context.CancelFunc
	fn     *lua.LFunction

	// pending is handed to the coroutine on its next resume and becomes the
	// result of the intrinsic call that suspended it.
	pending []lua.LValue
	wakeAt  float64
	frame   int
	done    bool
}

func (t *task) release() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

type timer struct {
	id       int
	fn       *lua.LFunction
	fireAt   float64
	interval float64
	repeat   bool
	running  *task
}

func (s *Session) spawn(fn *lua.LFunction) *task {
	co, cancel := s.L.NewThread()
	t := &task{co: co, cancel: cancel, fn: fn, frame: s.frame}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *Session) runnable(t *task) bool {
	return s.frame >= t.frame && s.elapsed >= t.wakeAt
}

// resume runs t until it yields or returns. The slice context aborts runaway
// code that never reaches an intrinsic. An interpreter panic ends the task
// with an error instead of reaching the caller.
func (s *Session) resume(ctx context.Context, t *task) (rets []lua.LValue, err error) {
	args := t.pending
	t.pending = nil

	t.co.SetContext(ctx)
	prev := s.current
	s.current = t
	defer func() {
		s.current = prev
		s.nested = 0
		t.co.RemoveContext()
		if r := recover(); r != nil {
			s.log.Error("interpreter panicked", "panic", r)
			t.done = true
			rets, err = nil, fmt.Errorf("interpreter panic: %v", r)
		}
	}()

	st, resumeErr, out := s.L.Resume(t.co, t.fn, args...)
	switch st {
	case lua.ResumeError:
		t.done = true
		return nil, resumeErr
	case lua.ResumeOK:
		t.done = true
	}
	return out, nil
}

// reap drops finished tasks and releases their threads.
func (s *Session) reap() {
	s.tasks = slices.DeleteFunc(s.tasks, func(t *task) bool {
		if t.done {
			t.release()
		}
		return t.done
	})
}

// advance moves the script clock forward by the scaled host time since the
// previous step or, for the first step, since the session was created.
func (s *Session) advance() {
	now := s.services.Clock.Now()
	s.delta = max(now.Sub(s.lastTick).Seconds(), 0) * s.timeScale
	s.lastTick = now
	s.elapsed += s.delta
	s.frame++
}

// fireTimers spawns a task for every due timer. An interval whose previous
// run is still suspended skips the firing.
func (s *Session) fireTimers() {
	for _, tm := range slices.Clone(s.timers) {
		if tm.fireAt > s.elapsed {
			continue
		}
		if tm.running == nil || tm.running.done {
			tm.running = s.spawn(tm.fn)
		}
		if !tm.repeat {
			s.dropTimer(tm.id)
			continue
		}
		tm.fireAt += tm.interval
		if tm.fireAt <= s.elapsed && tm.interval > 0 {
			tm.fireAt = s.elapsed + tm.interval
		}
	}
}

func (s *Session) dropTimer(id int) bool {
	n := len(s.timers)
	s.timers = slices.DeleteFunc(s.timers, func(tm *timer) bool { return tm.id == id })
	return len(s.timers) != n
}

// suspend parks the running task according to a bridge suspension.
func (s *Session) suspend(sp bridge.Suspension) {
	t := s.current
	t.frame = s.frame + 1
	if !sp.NextFrame && sp.Delay > 0 {
		t.wakeAt = s.elapsed + sp.Delay.Seconds()
	}
}

func (s *Session) overBudget() bool {
	return s.current != nil && !s.deadline.IsZero() && time.Now().After(s.deadline)
}

func (s *Session) ctx() context.Context {
	if s.stepCtx != nil {
		return s.stepCtx
	}
	return context.Background()
}

// ScriptID returns the id of the running script.
func (s *Session) ScriptID() values.ScriptID { return s.script.ID }

// Elapsed returns scaled seconds since the first step.
func (s *Session) Elapsed() float64 { return s.elapsed }

// DeltaTime returns the scaled seconds covered by the current step.
func (s *Session) DeltaTime() float64 { return s.delta }

// FrameCount returns the number of steps taken.
func (s *Session) FrameCount() int { return s.frame }

// SetTimeScale changes how fast script time advances. Negative scales clamp to zero.
func (s *Session) SetTimeScale(scale float64) {
	s.timeScale = max(scale, 0)
}

// Schedule registers fn to run after delay, repeatedly when repeat is set.
// It returns 0 when fn is not a function of this session.
func (s *Session) Schedule(fn bridge.Callable, delay time.Duration, repeat bool) int {
	lf, ok := fn.Func().(*lua.LFunction)
	if !ok || s.closed {
		return 0
	}
	s.nextTimerID++
	interval := max(delay.Seconds(), 0)
	s.timers = append(s.timers, &timer{
		id:       s.nextTimerID,
		fn:       lf,
		fireAt:   s.elapsed + interval,
		interval: interval,
		repeat:   repeat,
	})
	return s.nextTimerID
}

// Cancel removes a pending timer. A callback already running finishes.
func (s *Session) Cancel(id int) bool {
	return s.dropTimer(id)
}

// LocalState is the session-private store.
func (s *Session) LocalState() hostenv.StateStore { return s.local }

// AssetState is shared by every script of the asset.
func (s *Session) AssetState() hostenv.StateStore { return s.assetState }

// EventData is the payload of the custom event that started the session.
func (s *Session) EventData() any { return s.opts.EventData }

// Emit raises a custom event on the owning engine.
func (s *Session) Emit(name string, data any) int {
	if s.opts.Emit == nil {
		return 0
	}
	return s.opts.Emit(name, data)
}

// Output writes a redacted line to the output channel.
func (s *Session) Output(line string) {
	line = s.services.Redactor.Redact(line)
	s.log.Debug("script output", "line", line)
	if s.opts.Sink != nil {
		s.opts.Sink.Output(s.script.ID, line)
	}
}

// ErrorOutput writes a redacted line to the error channel.
func (s *Session) ErrorOutput(line string) {
	line = s.services.Redactor.Redact(line)
	if s.opts.Sink != nil {
		s.opts.Sink.Error(s.script.ID, line)
	}
}
