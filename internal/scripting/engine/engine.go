// Package engine coordinates the script sessions of a single asset.
//
// The engine is single-goroutine: every method must be called from the
// goroutine that drives the host update loop. It holds no locks.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/services"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/scripting/bridge"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
	"github.com/assetkit-dev/assetkit/internal/scripting/session"
)

// ErrEngineClosed is returned by operations on a closed engine.
var ErrEngineClosed = errors.New("script engine closed")

// Gate reports whether scripts may execute right now.
type Gate func() bool

// Config controls execution behavior.
type Config struct {
	// Budget is the soft time slice per session step (0 = session default)
	Budget time.Duration
	// HardLimit aborts a slice that never yields (0 = session default)
	HardLimit time.Duration

	// Gate is consulted before any session is created. Nil allows everything.
	Gate Gate
	// Filter restricts which scripts dispatch. Nil allows everything.
	Filter *services.ScriptFilter

	// RestartRunning stops a running session when its script is dispatched again.
	RestartRunning bool
}

// Completion is published when a session leaves the active set.
type Completion struct {
	ScriptID values.ScriptID
	Name     string
	Success  bool
	Stopped  bool
	Message  string
}

type running struct {
	script *entities.Script
	sess   *session.Session
	// retiring sessions were replaced by a restart and leave on their next step.
	retiring bool
}

// Engine owns the sessions of one asset.
type Engine struct {
	asset    *entities.Asset
	services *hostenv.Services
	config   Config
	log      *slog.Logger

	bridge *bridge.Bridge

	active     []*running
	assetState *hostenv.MapStore
	buffers    *buffers

	listeners map[int]func(Completion)
	nextSub   int

	// stepping is non-zero while sessions are being stepped; sessions started
	// in that window run from the next Tick.
	stepping int
	closed   bool
}

// New creates an engine for asset. The bridge is created on first dispatch.
func New(asset *entities.Asset, svc *hostenv.Services, cfg Config) *Engine {
	svc = svc.WithDefaults()
	e := &Engine{
		asset:      asset,
		services:   svc,
		config:     cfg,
		log:        svc.Logger,
		assetState: hostenv.NewMapStore(),
		buffers:    newBuffers(),
		listeners:  make(map[int]func(Completion)),
	}
	if asset != nil {
		e.log = svc.Logger.With("asset", asset.GUID().String())
	}
	return e
}

// Asset returns the asset this engine drives.
func (e *Engine) Asset() *entities.Asset { return e.asset }

// AssetState is the store behind the "asset" state scope.
func (e *Engine) AssetState() hostenv.StateStore { return e.assetState }

// Bridge returns the engine's bridge, creating it if needed.
func (e *Engine) Bridge() (*bridge.Bridge, error) {
	if e.bridge != nil {
		return e.bridge, nil
	}
	if e.closed {
		return nil, ErrEngineClosed
	}
	b, err := bridge.New(e.asset, e.services)
	if err != nil {
		return nil, err
	}
	e.bridge = b
	return b, nil
}

// RunScript starts a session for script. It returns false when nothing was
// started: disabled script, missing or destroyed asset, denied permission,
// filtered out, already running or failed to compile.
func (e *Engine) RunScript(ctx context.Context, script *entities.Script) bool {
	return e.start(ctx, script, nil)
}

// RunTrigger starts every enabled script bound to trigger, in script order,
// and returns how many started.
func (e *Engine) RunTrigger(ctx context.Context, trigger values.TriggerType) int {
	if !e.dispatchable() {
		return 0
	}
	started := 0
	for _, s := range e.asset.Scripts() {
		if s.RunsOn(trigger) && e.start(ctx, s, nil) {
			started++
		}
	}
	return started
}

// RunCustomEvent starts every enabled OnCustomEvent script whose event name
// equals name exactly.
func (e *Engine) RunCustomEvent(ctx context.Context, name string, data any) int {
	if !e.dispatchable() {
		return 0
	}
	started := 0
	for _, s := range e.asset.Scripts() {
		if s.RunsOnEvent(name) && e.start(ctx, s, data) {
			started++
		}
	}
	e.log.Debug("custom event dispatched", "event", name, "started", started)
	return started
}

// Tick steps every active session once, in start order. Sessions that finish
// leave the active set and publish a Completion.
func (e *Engine) Tick(ctx context.Context) {
	if e.closed {
		return
	}
	e.stepping++
	for _, r := range slices.Clone(e.active) {
		if !e.isActive(r) {
			continue
		}
		e.step(ctx, r)
	}
	e.stepping--
}

// StopAll stops every active session. Each publishes a stopped Completion.
func (e *Engine) StopAll() {
	for _, r := range slices.Clone(e.active) {
		r.sess.Stop()
		e.step(context.Background(), r)
	}
}

// Stop stops the session of one script.
func (e *Engine) Stop(id values.ScriptID) bool {
	r := e.find(id)
	if r == nil {
		return false
	}
	r.sess.Stop()
	e.step(context.Background(), r)
	return true
}

// IsRunning reports whether a session for id is active.
func (e *Engine) IsRunning(id values.ScriptID) bool {
	return e.find(id) != nil
}

// Active returns the ids of active sessions in start order.
func (e *Engine) Active() []values.ScriptID {
	ids := make([]values.ScriptID, 0, len(e.active))
	for _, r := range e.active {
		if !r.retiring {
			ids = append(ids, r.script.ID)
		}
	}
	return ids
}

// Subscribe registers fn for completion events.
func (e *Engine) Subscribe(fn func(Completion)) (unsubscribe func()) {
	id := e.nextSub
	e.nextSub++
	e.listeners[id] = fn
	return func() { delete(e.listeners, id) }
}

// Output returns the output lines written by a script.
func (e *Engine) Output(id values.ScriptID) []string { return e.buffers.lines(e.buffers.out, id) }

// Errors returns the error lines written by a script.
func (e *Engine) Errors(id values.ScriptID) []string { return e.buffers.lines(e.buffers.errs, id) }

// ClearOutput drops both buffers of a script.
func (e *Engine) ClearOutput(id values.ScriptID) { e.buffers.clear(id) }

// Close stops every session and refuses further dispatch.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.StopAll()
	e.closed = true
	clear(e.listeners)
}

func (e *Engine) dispatchable() bool {
	switch {
	case e.closed:
		e.log.Warn("dispatch on closed engine")
		return false
	case e.asset == nil:
		e.log.Warn("cannot run scripts: no asset")
		return false
	case e.asset.IsDestroyed():
		e.log.Warn("cannot run scripts: asset destroyed")
		return false
	case e.config.Gate != nil && !e.config.Gate():
		e.log.Warn("script execution not permitted in this context")
		return false
	}
	return true
}

func (e *Engine) start(ctx context.Context, script *entities.Script, data any) bool {
	if script == nil {
		return false
	}
	if !script.Enabled {
		e.log.Debug("script disabled", "script", script.ID.String())
		return false
	}
	if !e.dispatchable() {
		return false
	}
	log := e.log.With("script", script.ID.String(), "name", script.Name)

	if ok, reason := e.config.Filter.ShouldRun(script); !ok {
		log.Debug("script skipped", "reason", reason)
		return false
	}
	if r := e.find(script.ID); r != nil {
		if !e.config.RestartRunning {
			log.Debug("script already running")
			return false
		}
		r.sess.Stop()
		if e.stepping > 0 {
			// r may be the session whose code is raising this event.
			r.retiring = true
		} else {
			e.step(ctx, r)
		}
	}

	b, err := e.Bridge()
	if err != nil {
		log.Error("failed to create bridge", "error", err)
		return false
	}
	sess, err := session.New(script, b, e.services, session.Options{
		Budget:     e.config.Budget,
		HardLimit:  e.config.HardLimit,
		Sink:       e.buffers,
		AssetState: e.assetState,
		EventData:  data,
		Emit: func(name string, payload any) int {
			return e.RunCustomEvent(ctx, name, payload)
		},
	})
	if err != nil {
		log.Error("failed to create session", "error", err)
		return false
	}
	if err := sess.Compile(); err != nil {
		log.Warn("script failed to compile", "error", err)
		e.publish(Completion{ScriptID: script.ID, Name: script.Name, Message: sess.Message()})
		return false
	}

	r := &running{script: script, sess: sess}
	e.active = append(e.active, r)
	log.Debug("script started", "trigger", script.Trigger.String())

	if e.stepping == 0 {
		e.stepping++
		e.step(ctx, r)
		e.stepping--
	}
	return true
}

// step advances r once and retires it when it reached a terminal state.
func (e *Engine) step(ctx context.Context, r *running) {
	res := r.sess.Step(ctx)
	if res == session.Continue || !e.remove(r) {
		return
	}
	c := Completion{
		ScriptID: r.script.ID,
		Name:     r.script.Name,
		Success:  res == session.Done,
		Stopped:  res == session.Stopped,
		Message:  r.sess.Message(),
	}
	if res == session.Failed {
		e.log.Warn("script failed", "script", r.script.ID.String(), "name", r.script.Name, "error", c.Message)
	}
	e.publish(c)
}

func (e *Engine) publish(c Completion) {
	ids := make([]int, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if fn, ok := e.listeners[id]; ok {
			fn(c)
		}
	}
}

func (e *Engine) find(id values.ScriptID) *running {
	for _, r := range e.active {
		if r.script.ID == id && !r.retiring {
			return r
		}
	}
	return nil
}

func (e *Engine) isActive(r *running) bool {
	return slices.Contains(e.active, r)
}

// remove drops r from the active set and reports whether it was there.
func (e *Engine) remove(r *running) bool {
	n := len(e.active)
	e.active = slices.DeleteFunc(e.active, func(x *running) bool { return x == r })
	return len(e.active) != n
}
