// Package bridge is the capability registry: the fixed vocabulary of named
// operations a script may call against its bound target.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/traits"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
)

// ErrUnknownIntrinsic is returned for names outside the table.
var ErrUnknownIntrinsic = errors.New("unknown intrinsic")

// ErrNoTarget is the precondition failure for asset-dependent operations without a bound target.
var ErrNoTarget = errors.New("no bound target")

// Target is what the bridge needs from the object scripts act upon.
type Target interface {
	Name() string
	GUID() values.AssetGUID
	TypeName() string
	Traits() *traits.Set
	MetadataValue(key string) (any, bool)
}

var _ Target = (*entities.Asset)(nil)

// HostObject is a lightweight Target for host objects that are not assets.
type HostObject struct {
	label string
	kind  string
	set   *traits.Set
}

var _ Target = (*HostObject)(nil)

// NewHostObject creates a host object. A nil set means the object has no traits.
func NewHostObject(label, kind string, set *traits.Set) *HostObject {
	return &HostObject{label: label, kind: kind, set: set}
}

// Name returns the label
func (h *HostObject) Name() string { return h.label }

// GUID returns the zero GUID
func (h *HostObject) GUID() values.AssetGUID { return values.AssetGUID{} }

// TypeName returns the raw host type name
func (h *HostObject) TypeName() string { return h.kind }

// Traits returns the optional trait set
func (h *HostObject) Traits() *traits.Set { return h.set }

// MetadataValue always misses
func (h *HostObject) MetadataValue(string) (any, bool) { return nil, false }

// Bridge maps intrinsic names to handlers closed over one target.
// It is immutable after New and is used from the host update goroutine only.
type Bridge struct {
	target   Target
	services *hostenv.Services
	table    []Intrinsic
	byName   map[string]*Intrinsic
}

// New builds the capability table for target. target may be nil; asset
// dependent operations then degrade to their placeholders.
func New(target Target, services *hostenv.Services) (*Bridge, error) {
	if a, ok := target.(*entities.Asset); ok && a == nil {
		target = nil
	}
	b := &Bridge{
		target:   target,
		services: services.WithDefaults(),
		table:    Catalogue(),
	}
	b.byName = make(map[string]*Intrinsic, len(b.table))
	for i := range b.table {
		in := &b.table[i]
		if _, dup := b.byName[in.Name]; dup {
			return nil, fmt.Errorf("duplicate intrinsic %q", in.Name)
		}
		b.byName[in.Name] = in
	}
	return b, nil
}

// Catalogue returns the full intrinsic table in category order.
func Catalogue() []Intrinsic {
	var table []Intrinsic
	for _, group := range [][]Intrinsic{
		loggingIntrinsics(),
		assetInfoIntrinsics(),
		transformIntrinsics(),
		animationIntrinsics(),
		eventIntrinsics(),
		assetManagementIntrinsics(),
		physicsIntrinsics(),
		visualIntrinsics(),
		audioIntrinsics(),
		sceneIntrinsics(),
		inputIntrinsics(),
		timingIntrinsics(),
		stateIntrinsics(),
		traitIntrinsics(),
		cameraIntrinsics(),
		networkIntrinsics(),
		apiIntrinsics(),
		mathIntrinsics(),
	} {
		table = append(table, group...)
	}
	return table
}

// Target returns the bound target, which may be nil.
func (b *Bridge) Target() Target { return b.target }

// Services returns the collaborators the bridge was built with.
func (b *Bridge) Services() *hostenv.Services { return b.services }

// Intrinsics returns the table.
func (b *Bridge) Intrinsics() []Intrinsic {
	return slices.Clone(b.table)
}

// Lookup finds an intrinsic by name.
func (b *Bridge) Lookup(name string) (*Intrinsic, bool) {
	in, ok := b.byName[name]
	return in, ok
}

// Names returns every intrinsic name sorted.
func (b *Bridge) Names() []string {
	names := make([]string, 0, len(b.table))
	for _, in := range b.table {
		names = append(names, in.Name)
	}
	sort.Strings(names)
	return names
}

// Categories returns the category names in table order.
func (b *Bridge) Categories() []string {
	var out []string
	for _, in := range b.table {
		if !slices.Contains(out, in.Category) {
			out = append(out, in.Category)
		}
	}
	return out
}

// Invoke runs an intrinsic. It never panics: argument errors, precondition
// failures and handler panics all produce the intrinsic's placeholder.
func (b *Bridge) Invoke(ctx context.Context, env Env, name string, args []any) (res Result) {
	in, ok := b.byName[name]
	if !ok {
		return Result{Err: fmt.Errorf("%w: %s", ErrUnknownIntrinsic, name)}
	}
	if env == nil {
		env = NewDetachedEnv()
	}
	log := b.services.Logger.With("intrinsic", name, "script", env.ScriptID().Short())

	bound, err := bind(in.Params, args)
	if err != nil {
		log.Warn("invalid intrinsic arguments", "error", err)
		return Result{Value: in.Placeholder, Err: err, Placeholder: true}
	}

	call := &Call{
		Ctx:       ctx,
		Env:       env,
		Target:    b.target,
		Services:  b.services,
		Intrinsic: in,
		args:      bound,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("intrinsic panicked", "panic", r)
			res = Result{Value: in.Placeholder, Err: fmt.Errorf("intrinsic %s panicked: %v", name, r), Placeholder: true}
		}
	}()

	if in.Forwarded() {
		return b.forward(call, log)
	}

	v, err := in.Handler(call)
	if err != nil {
		log.Debug("intrinsic precondition failed", "error", err)
		return Result{Value: in.Placeholder, Err: err, Suspend: call.suspend, Placeholder: true}
	}
	return Result{Value: v, Suspend: call.suspend}
}

func (b *Bridge) forward(call *Call, log *slog.Logger) Result {
	in := call.Intrinsic
	fwd := b.services.Forwarder
	if fwd == nil {
		log.Debug("operation not yet wired to host", "category", in.Category)
		return Result{Value: in.Placeholder, Placeholder: true}
	}

	req := hostenv.Request{
		Category:  in.Category,
		Operation: in.Name,
		Script:    call.Env.ScriptID().String(),
		Args:      call.Named(),
	}
	if b.target != nil && !b.target.GUID().IsZero() {
		req.Target = b.target.GUID().String()
	}

	v, err := fwd.Forward(call.Ctx, req)
	switch {
	case errors.Is(err, hostenv.ErrNotWired):
		log.Debug("operation not yet wired to host", "category", in.Category)
		return Result{Value: in.Placeholder, Placeholder: true}
	case err != nil:
		log.Warn("host collaborator failed", "category", in.Category, "error", err)
		return Result{Value: in.Placeholder, Err: err, Placeholder: true}
	}
	return Result{Value: Normalize(v), Forwarded: true}
}

// traitSet returns the target's traits or nil.
func (c *Call) traitSet() *traits.Set {
	if c.Target == nil {
		return nil
	}
	return c.Target.Traits()
}
