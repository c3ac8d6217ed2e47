// Package host adapts an asset and its script engine to a host update loop.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/traits"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/scripting/engine"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
)

var (
	// ErrNotAttached is returned when no asset is attached.
	ErrNotAttached = errors.New("no asset attached")
	// ErrAlreadyAttached is returned by a second Attach.
	ErrAlreadyAttached = errors.New("asset already attached")
)

// Options configure a wrapper.
type Options struct {
	Mode    values.ExecutionMode
	Context values.HostContext
	// UpdateScripts dispatches OnUpdate scripts every frame.
	UpdateScripts bool
	// Engine is passed to the script engine. Its Gate is replaced by the
	// wrapper's mode check.
	Engine engine.Config
	// Observer, when set, receives every completion including those of
	// OnLoad scripts that finish during Attach.
	Observer func(engine.Completion)
}

// Wrapper owns one asset on behalf of the host. Like the engine it must be
// driven from a single goroutine; Interactable events must be fired from
// that goroutine too.
type Wrapper struct {
	services *hostenv.Services
	opts     Options
	log      *slog.Logger

	asset     *entities.Asset
	engine    *engine.Engine
	listeners map[*traits.Interactable]func()
	unobserve func()

	frames    int
	destroyed bool
}

// New creates an empty wrapper.
func New(svc *hostenv.Services, opts Options) *Wrapper {
	svc = svc.WithDefaults()
	return &Wrapper{
		services:  svc,
		opts:      opts,
		log:       svc.Logger,
		listeners: make(map[*traits.Interactable]func()),
	}
}

// ExecutionAllowed applies the mode by context table.
func (w *Wrapper) ExecutionAllowed() bool {
	return w.opts.Mode.Allows(w.opts.Context)
}

// Asset returns the attached asset, or nil.
func (w *Wrapper) Asset() *entities.Asset { return w.asset }

// Engine returns the script engine, or nil before Attach.
func (w *Wrapper) Engine() *engine.Engine { return w.engine }

// Frames returns how many updates ran.
func (w *Wrapper) Frames() int { return w.frames }

// Attach binds asset, wires its interactables to custom events and
// dispatches OnLoad scripts once.
func (w *Wrapper) Attach(ctx context.Context, asset *entities.Asset) error {
	switch {
	case w.destroyed:
		return errors.New("wrapper destroyed")
	case w.asset != nil:
		return ErrAlreadyAttached
	case asset == nil:
		return errors.New("attach requires an asset")
	case asset.IsDestroyed():
		return entities.ErrAssetDestroyed
	}

	w.asset = asset
	w.log = w.services.Logger.With("asset", asset.GUID().String(), "name", asset.Name())

	cfg := w.opts.Engine
	cfg.Gate = w.ExecutionAllowed
	w.engine = engine.New(asset, w.services, cfg)
	if w.opts.Observer != nil {
		w.engine.Subscribe(w.opts.Observer)
	}

	for _, it := range traits.OfType[*traits.Interactable](asset.Traits()) {
		w.listen(it)
	}
	w.unobserve = asset.Traits().Observe(func(ev traits.SetEvent) {
		it, ok := ev.Trait.(*traits.Interactable)
		if !ok {
			return
		}
		switch ev.Kind {
		case traits.TraitAdded:
			w.listen(it)
		case traits.TraitRemoved:
			if stop, ok := w.listeners[it]; ok {
				stop()
				delete(w.listeners, it)
			}
		}
	})

	if !w.ExecutionAllowed() {
		w.log.Info("scripts disabled in this context", "mode", w.opts.Mode.String(), "context", w.opts.Context.String())
		return nil
	}
	started := w.engine.RunTrigger(ctx, values.TriggerOnLoad)
	w.log.Debug("asset attached", "onload_scripts", started)
	return nil
}

func (w *Wrapper) listen(it *traits.Interactable) {
	if _, ok := w.listeners[it]; ok {
		return
	}
	w.listeners[it] = it.Listen(func(name string, data any) {
		if w.engine != nil {
			w.engine.RunCustomEvent(context.Background(), name, data)
		}
	})
}

// Update runs one host frame: active sessions advance, then OnUpdate
// scripts are dispatched when enabled.
func (w *Wrapper) Update(ctx context.Context) {
	if w.engine == nil || w.destroyed {
		return
	}
	w.frames++
	w.engine.Tick(ctx)
	if w.opts.UpdateScripts && w.ExecutionAllowed() {
		w.engine.RunTrigger(ctx, values.TriggerOnUpdate)
	}
}

// TriggerEvent forwards an external custom event to the engine.
func (w *Wrapper) TriggerEvent(ctx context.Context, name string, data any) (int, error) {
	if w.engine == nil {
		return 0, ErrNotAttached
	}
	return w.engine.RunCustomEvent(ctx, name, data), nil
}

// Run drives Update on a ticker until ctx ends or frames updates ran.
// frames <= 0 runs until ctx ends.
func (w *Wrapper) Run(ctx context.Context, frames int, interval time.Duration) error {
	if w.engine == nil {
		return ErrNotAttached
	}
	if interval <= 0 {
		return fmt.Errorf("invalid frame interval %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; frames <= 0 || n < frames; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Update(ctx)
		}
	}
	return nil
}

// Destroy tears down in order: sessions stop, subscriptions detach, the
// engine closes and the asset is destroyed last.
func (w *Wrapper) Destroy() error {
	if w.destroyed {
		return nil
	}
	w.destroyed = true
	if w.engine != nil {
		w.engine.StopAll()
	}
	for it, stop := range w.listeners {
		stop()
		delete(w.listeners, it)
	}
	if w.unobserve != nil {
		w.unobserve()
	}
	if w.engine != nil {
		w.engine.Close()
	}
	if w.asset == nil {
		return nil
	}
	if err := w.asset.Destroy(); err != nil && !errors.Is(err, entities.ErrAssetDestroyed) {
		return fmt.Errorf("destroy asset: %w", err)
	}
	return nil
}
