package bridge_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/services"
	"github.com/assetkit-dev/assetkit/internal/domain/traits"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/scripting/bridge"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAsset(t *testing.T, typ entities.AssetType) *entities.Asset {
	t.Helper()
	a, err := entities.NewAsset(
		entities.NewComponent(entities.ComponentModel, "crate.glb", []byte("glTF")),
		entities.NewComponent(entities.ComponentPreview, "crate.png", []byte("png")),
		&entities.Metadata{
			GUID:       values.MustParseAssetGUID("6f1c2a34-5b6d-4e7f-8a9b-0c1d2e3f4a5b"),
			Name:       "Crate",
			Properties: map[string]any{"weight": 3},
		},
	)
	require.NoError(t, err)
	if typ != nil {
		require.NoError(t, a.Initialize(typ))
	}
	return a
}

// bareType adds no traits at all.
type bareType struct{}

func (bareType) Name() string                   { return "bare" }
func (bareType) Initialize(*entities.Asset) error { return nil }

func newBridge(t *testing.T, target bridge.Target, s *hostenv.Services) *bridge.Bridge {
	t.Helper()
	b, err := bridge.New(target, s)
	require.NoError(t, err)
	return b
}

func Test_Catalogue_Shape(t *testing.T) {
	b := newBridge(t, nil, nil)

	assert.GreaterOrEqual(t, len(b.Intrinsics()), 150)
	assert.Equal(t, []string{
		"logging", "asset", "transform", "animation", "events", "assets", "physics", "visual",
		"audio", "scene", "input", "timing", "state", "traits", "camera", "network", "api", "math",
	}, b.Categories())

	for _, name := range []string{
		"debug", "warn", "error", "getAssetName", "getAssetGuid", "getAssetType",
		"getPosition", "setPosition", "moveToward", "lookAt", "playAnimation", "triggerEvent",
		"findAsset", "raycast", "setColor", "playSound", "loadScene", "isKeyPressed",
		"setTimeout", "clearInterval", "nextFrame", "setState", "clearStates", "listTraits",
		"setCameraFOV", "connectToServer", "sendToPlayer", "httpGet", "parseJson", "cloudLoad",
	} {
		_, ok := b.Lookup(name)
		assert.True(t, ok, name)
	}
}

func Test_Intrinsic_Signature(t *testing.T) {
	b := newBridge(t, nil, nil)
	in, ok := b.Lookup("playAnimation")
	require.True(t, ok)
	assert.Equal(t, "playAnimation(name, loop=false, speed=1)", in.Signature())
	assert.True(t, in.Forwarded())
}

func Test_Invoke_SetPositionAppliesToTrait(t *testing.T) {
	a := newAsset(t, services.PropType{})
	b := newBridge(t, a, nil)

	res := b.Invoke(context.Background(), nil, "setPosition", []any{1.0, 2.0, 3.0})
	require.NoError(t, res.Err)
	assert.Equal(t, true, res.Value)

	pos, ok := traits.Get[*traits.Position](a.Traits())
	require.True(t, ok)
	assert.Equal(t, values.Vec3(1, 2, 3), pos.Get())

	res = b.Invoke(context.Background(), nil, "getPosition", nil)
	assert.Equal(t, values.Vec3(1, 2, 3), res.Value)
}

func Test_Invoke_SetPositionWithoutTraitIsNotApplied(t *testing.T) {
	a := newAsset(t, bareType{})
	b := newBridge(t, a, nil)

	res := b.Invoke(context.Background(), nil, "setPosition", []any{1.0, 2.0, 3.0})
	assert.Equal(t, false, res.Value)
	assert.ErrorIs(t, res.Err, bridge.ErrNoTrait)
	assert.True(t, res.Placeholder)

	res = b.Invoke(context.Background(), nil, "getPosition", nil)
	assert.Nil(t, res.Value)
}

func Test_Invoke_NoTarget(t *testing.T) {
	b := newBridge(t, nil, nil)
	ctx := context.Background()

	assert.Equal(t, "", b.Invoke(ctx, nil, "getAssetName", nil).Value)
	assert.Equal(t, "", b.Invoke(ctx, nil, "getAssetGuid", nil).Value)
	assert.Equal(t, false, b.Invoke(ctx, nil, "setRotation", []any{0.0, 90.0, 0.0}).Value)
	assert.Equal(t, -1.0, b.Invoke(ctx, nil, "getDistanceTo", []any{1.0, 1.0, 1.0}).Value)

	var nilAsset *entities.Asset
	b = newBridge(t, nilAsset, nil)
	assert.Nil(t, b.Target(), "typed nil asset counts as no target")
}

func Test_Invoke_HostObjectFallback(t *testing.T) {
	b := newBridge(t, bridge.NewHostObject("Lamp", "LightFixture", nil), nil)
	ctx := context.Background()

	assert.Equal(t, "Lamp", b.Invoke(ctx, nil, "getAssetName", nil).Value)
	assert.Equal(t, "LightFixture", b.Invoke(ctx, nil, "getAssetType", nil).Value)
	assert.Equal(t, "", b.Invoke(ctx, nil, "getAssetGuid", nil).Value)
	assert.Equal(t, false, b.Invoke(ctx, nil, "setScale", []any{2.0, 2.0, 2.0}).Value)
}

func Test_Invoke_ArgumentBinding(t *testing.T) {
	a := newAsset(t, services.PropType{})
	b := newBridge(t, a, &hostenv.Services{Random: func() float64 { return 0.5 }})
	ctx := context.Background()

	tests := []struct {
		name    string
		op      string
		args    []any
		want    any
		wantErr bool
	}{
		{"vector record spreads", "setRotation", []any{map[string]any{"x": 0.0, "y": 90.0, "z": 0.0}}, true, false},
		{"vector value spreads", "setScale", []any{values.Vec3(2, 2, 2)}, true, false},
		{"missing required", "setPosition", []any{1.0}, false, true},
		{"wrong kind", "setPosition", []any{"a", "b", "c"}, false, true},
		{"optional default", "random", []any{5.0}, 3.0, false},
		{"extra args ignored", "getAssetName", []any{"ignored"}, "Crate", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := b.Invoke(ctx, nil, tt.op, tt.args)
			if tt.wantErr {
				assert.Error(t, res.Err)
			} else {
				assert.NoError(t, res.Err)
			}
			assert.Equal(t, tt.want, res.Value)
		})
	}
}

func Test_Invoke_UnknownIntrinsic(t *testing.T) {
	b := newBridge(t, nil, nil)
	res := b.Invoke(context.Background(), nil, "selfDestruct", nil)
	assert.ErrorIs(t, res.Err, bridge.ErrUnknownIntrinsic)
}

func Test_Invoke_ForwardedWithoutHost(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	b := newBridge(t, nil, &hostenv.Services{Logger: logger})

	res := b.Invoke(context.Background(), nil, "getConnectionState", nil)
	assert.Equal(t, "disconnected", res.Value)
	assert.True(t, res.Placeholder)
	assert.NoError(t, res.Err)
	assert.Contains(t, buf.String(), "not yet wired to host")
}

func Test_Invoke_ForwardedToHost(t *testing.T) {
	a := newAsset(t, services.PropType{})
	fwd := hostenv.NewRecordingForwarder(map[string]any{"getMass": 12})
	b := newBridge(t, a, &hostenv.Services{Forwarder: fwd})
	ctx := context.Background()

	res := b.Invoke(ctx, nil, "playAnimation", []any{"wave"})
	assert.Equal(t, false, res.Value, "unwired operations answer with the placeholder")
	assert.True(t, res.Placeholder)

	res = b.Invoke(ctx, nil, "getMass", nil)
	assert.Equal(t, 12.0, res.Value)
	assert.True(t, res.Forwarded)

	reqs := fwd.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "animation", reqs[0].Category)
	assert.Equal(t, "playAnimation", reqs[0].Operation)
	assert.Equal(t, a.GUID().String(), reqs[0].Target)
	assert.Equal(t, map[string]any{"name": "wave", "loop": false, "speed": 1.0}, reqs[0].Args)
}

func Test_Invoke_ForwarderFailure(t *testing.T) {
	fwd := hostenv.ForwarderFunc(func(context.Context, hostenv.Request) (any, error) {
		return nil, errors.New("socket closed")
	})
	b := newBridge(t, nil, &hostenv.Services{Forwarder: fwd})

	res := b.Invoke(context.Background(), nil, "sendToServer", []any{"hello"})
	assert.Equal(t, false, res.Value)
	assert.ErrorContains(t, res.Err, "socket closed")
}

type panickyTarget struct{ bridge.HostObject }

func (panickyTarget) Traits() *traits.Set { panic("scene graph gone") }

func Test_Invoke_RecoversPanics(t *testing.T) {
	b := newBridge(t, &panickyTarget{}, nil)

	var res bridge.Result
	assert.NotPanics(t, func() {
		res = b.Invoke(context.Background(), nil, "setPosition", []any{1.0, 1.0, 1.0})
	})
	assert.Equal(t, false, res.Value)
	assert.ErrorContains(t, res.Err, "panicked")
}

func Test_Invoke_Logging(t *testing.T) {
	env := bridge.NewDetachedEnv()
	b := newBridge(t, nil, nil)
	ctx := context.Background()

	b.Invoke(ctx, env, "log", []any{"hello"})
	b.Invoke(ctx, env, "warn", []any{42.0})
	b.Invoke(ctx, env, "error", []any{"bad"})

	assert.Equal(t, []string{"hello", "[WARN] 42"}, env.Lines)
	assert.Equal(t, []string{"bad"}, env.Errors)
}

func Test_Invoke_Timing(t *testing.T) {
	b := newBridge(t, nil, nil)
	ctx := context.Background()

	res := b.Invoke(ctx, nil, "wait", []any{1.5})
	require.NotNil(t, res.Suspend)
	assert.Equal(t, 1500*time.Millisecond, res.Suspend.Delay)

	res = b.Invoke(ctx, nil, "nextFrame", nil)
	require.NotNil(t, res.Suspend)
	assert.True(t, res.Suspend.NextFrame)

	res = b.Invoke(ctx, nil, "setTimeout", []any{bridge.NewCallable("fn"), 10.0})
	assert.Equal(t, 0.0, res.Value, "detached env cannot schedule")
	assert.Error(t, res.Err)
}

func Test_Invoke_TimingOutOfRange(t *testing.T) {
	b := newBridge(t, nil, nil)
	ctx := context.Background()

	res := b.Invoke(ctx, nil, "wait", []any{math.Inf(1)})
	require.NotNil(t, res.Suspend)
	assert.Equal(t, time.Duration(math.MaxInt64), res.Suspend.Delay)

	res = b.Invoke(ctx, nil, "wait", []any{-3.0})
	require.NotNil(t, res.Suspend)
	assert.Zero(t, res.Suspend.Delay)

	res = b.Invoke(ctx, nil, "wait", []any{math.NaN()})
	assert.Nil(t, res.Suspend)
	assert.Equal(t, false, res.Value)
	assert.ErrorContains(t, res.Err, "duration must be a number")

	res = b.Invoke(ctx, nil, "setInterval", []any{bridge.NewCallable("fn"), math.NaN()})
	assert.Equal(t, 0.0, res.Value)
	assert.ErrorContains(t, res.Err, "duration must be a number")
}

func Test_Invoke_StateScopes(t *testing.T) {
	shared := &hostenv.Services{}
	shared = shared.WithDefaults()
	b := newBridge(t, nil, shared)
	ctx := context.Background()
	env := bridge.NewDetachedEnv()

	for _, scope := range []string{"local", "asset", "scene", "global"} {
		assert.Equal(t, true, b.Invoke(ctx, env, "setState", []any{"score", 10.0, scope}).Value, scope)
		assert.Equal(t, 10.0, b.Invoke(ctx, env, "getState", []any{"score", scope}).Value, scope)
		assert.Equal(t, true, b.Invoke(ctx, env, "hasState", []any{"score", scope}).Value, scope)
	}

	v, ok, err := shared.GlobalState.Get(ctx, "score")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)

	assert.Equal(t, []any{"score"}, b.Invoke(ctx, env, "listStates", nil).Value)
	assert.Equal(t, true, b.Invoke(ctx, env, "deleteState", []any{"score"}).Value)
	assert.Equal(t, false, b.Invoke(ctx, env, "hasState", []any{"score"}).Value)
	assert.Equal(t, true, b.Invoke(ctx, env, "clearStates", []any{"scene"}).Value)

	res := b.Invoke(ctx, env, "setState", []any{"k", 1.0, "galaxy"})
	assert.Equal(t, false, res.Value)
	assert.ErrorIs(t, res.Err, bridge.ErrUnknownScope)
}

func Test_Invoke_TraitManagement(t *testing.T) {
	a := newAsset(t, services.PropType{})
	b := newBridge(t, a, nil)
	ctx := context.Background()

	assert.Equal(t, true, b.Invoke(ctx, nil, "addTrait", []any{"health", 50.0}).Value)
	assert.Equal(t, false, b.Invoke(ctx, nil, "addTrait", []any{"health", 60.0}).Value, "duplicates are rejected")
	assert.Equal(t, true, b.Invoke(ctx, nil, "hasTrait", []any{"health"}).Value)
	assert.Equal(t, true, b.Invoke(ctx, nil, "setTrait", []any{"health", 25.0}).Value)
	assert.Equal(t, 25.0, b.Invoke(ctx, nil, "getTrait", []any{"health"}).Value)
	assert.Equal(t, false, b.Invoke(ctx, nil, "setTrait", []any{"visibility", "nope"}).Value)
	assert.Equal(t, []any{"position", "rotation", "scale", "visibility", "tint", "health"},
		b.Invoke(ctx, nil, "listTraits", nil).Value)
	assert.Equal(t, true, b.Invoke(ctx, nil, "removeTrait", []any{"health"}).Value)
	assert.Equal(t, nil, b.Invoke(ctx, nil, "getTrait", []any{"health"}).Value)
}

func Test_Invoke_ColorAndVisibility(t *testing.T) {
	a := newAsset(t, services.PropType{})
	b := newBridge(t, a, nil)
	ctx := context.Background()

	assert.Equal(t, true, b.Invoke(ctx, nil, "setColor", []any{1.0, 0.0, 0.0}).Value)
	assert.Equal(t, values.Color{R: 1, A: 1}, b.Invoke(ctx, nil, "getColor", nil).Value)

	assert.Equal(t, true, b.Invoke(ctx, nil, "setVisible", []any{false}).Value)
	assert.Equal(t, false, b.Invoke(ctx, nil, "isVisible", nil).Value)
}

func Test_Invoke_LookAtAndDirections(t *testing.T) {
	a := newAsset(t, services.PropType{})
	b := newBridge(t, a, nil)
	ctx := context.Background()

	require.Equal(t, true, b.Invoke(ctx, nil, "lookAt", []any{10.0, 0.0, 0.0}).Value)
	rot := b.Invoke(ctx, nil, "getRotation", nil).Value.(values.Vector3)
	assert.InDelta(t, 90.0, rot.Y, 1e-9)
	assert.InDelta(t, 0.0, rot.X, 1e-9)

	dir := b.Invoke(ctx, nil, "getDirectionTo", []any{0.0, 0.0, 5.0}).Value
	assert.Equal(t, values.Vec3(0, 0, 1), dir)
	assert.Equal(t, 5.0, b.Invoke(ctx, nil, "getDistanceTo", []any{0.0, 0.0, 5.0}).Value)

	assert.Equal(t, true, b.Invoke(ctx, nil, "translate", []any{1.0, 0.0, 0.0}).Value)
	assert.Equal(t, values.Vec3(1, 0, 0), b.Invoke(ctx, nil, "getPosition", nil).Value)
}

func Test_Invoke_JSON(t *testing.T) {
	b := newBridge(t, nil, nil)
	ctx := context.Background()

	res := b.Invoke(ctx, nil, "parseJson", []any{`{"a":[1,true,"x"]}`})
	require.NoError(t, res.Err)
	assert.Equal(t, map[string]any{"a": []any{1.0, true, "x"}}, res.Value)

	res = b.Invoke(ctx, nil, "parseJson", []any{`{broken`})
	assert.Nil(t, res.Value)
	assert.Error(t, res.Err)

	res = b.Invoke(ctx, nil, "stringifyJson", []any{map[string]any{"b": 1.0}})
	assert.Equal(t, `{"b":1}`, res.Value)
}

func Test_Invoke_Metadata(t *testing.T) {
	a := newAsset(t, services.PropType{})
	b := newBridge(t, a, nil)
	ctx := context.Background()

	assert.Equal(t, 3.0, b.Invoke(ctx, nil, "getMetadata", []any{"weight"}).Value)
	assert.Equal(t, "Crate", b.Invoke(ctx, nil, "getMetadata", []any{"name"}).Value)
	assert.Nil(t, b.Invoke(ctx, nil, "getMetadata", []any{"missing"}).Value)
}

func Test_Invoke_AssetDirectory(t *testing.T) {
	dir := staticDirectory{{GUID: "g1", Name: "Door", Type: "interactive"}}
	b := newBridge(t, nil, &hostenv.Services{Assets: dir})
	ctx := context.Background()

	assert.Equal(t, map[string]any{"guid": "g1", "name": "Door", "type": "interactive"},
		b.Invoke(ctx, nil, "findAsset", []any{"Door"}).Value)
	assert.Nil(t, b.Invoke(ctx, nil, "findAssetByGuid", []any{"nope"}).Value)
	assert.Len(t, b.Invoke(ctx, nil, "getAllAssets", nil).Value, 1)
}

type staticDirectory []hostenv.AssetInfo

func (d staticDirectory) Find(name string) (hostenv.AssetInfo, bool) {
	for _, a := range d {
		if a.Name == name {
			return a, true
		}
	}
	return hostenv.AssetInfo{}, false
}

func (d staticDirectory) FindByGUID(guid string) (hostenv.AssetInfo, bool) {
	for _, a := range d {
		if a.GUID == guid {
			return a, true
		}
	}
	return hostenv.AssetInfo{}, false
}

func (d staticDirectory) All() []hostenv.AssetInfo { return d }
