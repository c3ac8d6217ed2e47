// Package session runs one script inside its own sandboxed Lua state.
//
// A session is a cooperative unit: the engine calls Step once per host frame
// and the session resumes every runnable task (the main chunk plus timer
// callbacks) for at most one time slice. Sessions are not safe for concurrent
// use; they belong to the goroutine driving the engine.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	apperrors "github.com/assetkit-dev/assetkit/internal/application/errors"
	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/scripting/bridge"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
	lua "github.com/yuin/gopher-lua"
)

const (
	// DefaultBudget is the soft time slice granted to a session per step.
	DefaultBudget = 5 * time.Millisecond
	// DefaultHardLimit is the ceiling after which a slice is aborted.
	DefaultHardLimit = 250 * time.Millisecond
)

// StepResult reports what a session did during one step.
type StepResult int

const (
	// Continue means the session has more work for later steps.
	Continue StepResult = iota
	// Done means the main chunk and every timer finished.
	Done
	// Failed means compilation or execution raised an error.
	Failed
	// Stopped means a stop request was honored.
	Stopped
)

func (r StepResult) String() string {
	switch r {
	case Continue:
		return "continue"
	case Done:
		return "done"
	case Failed:
		return "failed"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("StepResult(%d)", int(r))
	}
}

// OutputSink receives script output and error text, keyed by script.
type OutputSink interface {
	Output(id values.ScriptID, line string)
	Error(id values.ScriptID, line string)
}

// Options tune a session.
type Options struct {
	Budget    time.Duration
	HardLimit time.Duration
	Sink      OutputSink

	// AssetState backs the "asset" state scope. A private store is used when nil.
	AssetState hostenv.StateStore
	// Emit dispatches a custom event raised by the script.
	Emit func(name string, data any) int
	// EventData is what getEventData() returns.
	EventData any

	// Persistent keeps the session running after its tasks drain. Used by
	// interactive shells that feed chunks through Eval.
	Persistent bool
}

func (o Options) withDefaults() Options {
	if o.Budget <= 0 {
		o.Budget = DefaultBudget
	}
	if o.HardLimit <= 0 {
		o.HardLimit = DefaultHardLimit
	}
	if o.HardLimit < o.Budget {
		o.HardLimit = o.Budget
	}
	return o
}

// Session is one script's interpreter instance.
type Session struct {
	script   *entities.Script
	bridge   *bridge.Bridge
	services *hostenv.Services
	opts     Options
	log      *slog.Logger

	L     *lua.LState
	chunk *lua.LFunction

	state   values.SessionState
	message string
	closed  bool

	tasks       []*task
	timers      []*timer
	current     *task
	nextTimerID int
	// nested counts active Go library calls that re-enter Lua.
	nested int

	local      hostenv.StateStore
	assetState hostenv.StateStore

	elapsed   float64
	delta     float64
	timeScale float64
	frame     int
	lastTick  time.Time

	stopRequested bool
	stepCtx       context.Context
	deadline      time.Time
}

var _ bridge.Env = (*Session)(nil)

// New creates a session for script. Nothing runs until Compile or Step.
func New(script *entities.Script, b *bridge.Bridge, services *hostenv.Services, opts Options) (*Session, error) {
	if script == nil {
		return nil, errors.New("session requires a script")
	}
	if b == nil {
		return nil, errors.New("session requires a bridge")
	}
	services = services.WithDefaults()
	opts = opts.withDefaults()

	s := &Session{
		script:    script,
		bridge:    b,
		services:  services,
		opts:      opts,
		log:       services.Logger.With("script", script.ID.String(), "name", script.Name),
		state:     values.SessionCreated,
		local:     hostenv.NewMapStore(),
		timeScale: 1,
		lastTick:  services.Clock.Now(),
	}
	s.assetState = opts.AssetState
	if s.assetState == nil {
		s.assetState = hostenv.NewMapStore()
	}
	s.L = s.newState()
	return s, nil
}

// Script returns the script this session runs.
func (s *Session) Script() *entities.Script { return s.script }

// State returns the lifecycle state.
func (s *Session) State() values.SessionState { return s.state }

// Message returns the failure or stop message of a finished session.
func (s *Session) Message() string { return s.message }

// Compile parses the script source. A syntax error moves the session to
// Errored, is written to the error channel and is returned as a ScriptError.
func (s *Session) Compile() error {
	switch s.state {
	case values.SessionCreated:
	case values.SessionCompiled, values.SessionRunning:
		return nil
	default:
		return fmt.Errorf("cannot compile a session in state %s", s.state)
	}

	fn, err := s.L.Load(strings.NewReader(s.script.Content), s.script.Label())
	if err != nil {
		msg := luaMessage(err)
		s.fail(msg)
		return apperrors.NewScriptError(s.script.ID.String(), apperrors.PhaseCompile, msg)
	}
	s.chunk = fn
	s.transition(values.SessionCompiled)
	return nil
}

// Stop requests a cooperative stop. The next Step returns Stopped.
func (s *Session) Stop() {
	if !s.state.IsTerminal() {
		s.stopRequested = true
	}
}

// Step resumes every runnable task once within the session's time slice.
func (s *Session) Step(ctx context.Context) StepResult {
	if s.state == values.SessionCreated && !s.stopRequested {
		if err := s.Compile(); err != nil {
			return Failed
		}
	}
	if s.state.IsTerminal() {
		return s.result()
	}
	if s.stopRequested || ctx.Err() != nil {
		s.finish(values.SessionStopped, "stopped")
		return Stopped
	}

	if s.state == values.SessionCompiled {
		s.transition(values.SessionRunning)
		s.spawn(s.chunk)
	}
	s.advance()

	slice, cancel := context.WithTimeout(ctx, s.opts.HardLimit)
	defer cancel()
	s.stepCtx = slice
	s.deadline = time.Now().Add(s.opts.Budget)
	defer func() { s.stepCtx = nil }()

	s.fireTimers()

	ran := 0
	for _, t := range slices.Clone(s.tasks) {
		if t.done || !s.runnable(t) {
			continue
		}
		if ran > 0 && time.Now().After(s.deadline) {
			break
		}
		if _, err := s.resume(slice, t); err != nil {
			if ctx.Err() != nil {
				s.finish(values.SessionStopped, "stopped")
				return Stopped
			}
			if errors.Is(slice.Err(), context.DeadlineExceeded) {
				s.fail(fmt.Sprintf("script exceeded the %s execution limit", s.opts.HardLimit))
				return Failed
			}
			s.fail(luaMessage(err))
			return Failed
		}
		ran++
		if s.stopRequested {
			break
		}
	}
	s.reap()

	if s.stopRequested {
		s.finish(values.SessionStopped, "stopped")
		return Stopped
	}
	if !s.opts.Persistent && len(s.tasks) == 0 && len(s.timers) == 0 {
		s.finish(values.SessionDone, "")
		return Done
	}
	return Continue
}

// Eval runs chunk on this session's state and returns its results. A chunk
// that suspends keeps running on later steps; pending is then true.
func (s *Session) Eval(ctx context.Context, chunk string) (results []any, pending bool, err error) {
	if s.state.IsTerminal() {
		return nil, false, fmt.Errorf("session is %s", s.state)
	}
	if err := s.Compile(); err != nil {
		return nil, false, err
	}
	if s.state == values.SessionCompiled {
		s.transition(values.SessionRunning)
		s.spawn(s.chunk)
	}

	fn, err := s.L.Load(strings.NewReader(chunk), "eval")
	if err != nil {
		return nil, false, errors.New(luaMessage(err))
	}

	slice, cancel := context.WithTimeout(ctx, s.opts.HardLimit)
	defer cancel()
	s.stepCtx = slice
	s.deadline = time.Now().Add(s.opts.HardLimit)
	defer func() { s.stepCtx = nil }()

	t := s.spawn(fn)
	t.frame = s.frame
	rets, err := s.resume(slice, t)
	if err != nil {
		s.reap()
		return nil, false, errors.New(luaMessage(err))
	}
	s.reap()
	if !t.done {
		return nil, true, nil
	}

	results = make([]any, 0, len(rets))
	for _, v := range rets {
		conv, convErr := fromLua(v)
		if convErr != nil {
			conv = v.String()
		}
		results = append(results, conv)
	}
	return results, false, nil
}

// Close releases the Lua state. Finished sessions are closed already.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, t := range s.tasks {
		t.release()
	}
	s.tasks = nil
	s.timers = nil
	s.L.Close()
}

func (s *Session) result() StepResult {
	switch s.state {
	case values.SessionDone:
		return Done
	case values.SessionStopped:
		return Stopped
	case values.SessionErrored:
		return Failed
	default:
		return Continue
	}
}

func (s *Session) transition(next values.SessionState) {
	if !s.state.CanTransitionTo(next) {
		s.log.Debug("ignoring invalid session transition", "from", s.state, "to", next)
		return
	}
	s.state = next
}

func (s *Session) fail(msg string) {
	s.ErrorOutput(msg)
	s.log.Warn("script failed", "error", msg)
	s.finish(values.SessionErrored, msg)
}

func (s *Session) finish(state values.SessionState, msg string) {
	s.transition(state)
	s.message = msg
	s.Close()
}

// luaMessage strips the Go stack trace gopher-lua attaches to API errors.
func luaMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}
