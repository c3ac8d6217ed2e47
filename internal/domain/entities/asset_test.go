package entities_test

import (
	"errors"
	"testing"

	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/traits"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubType struct {
	err   error
	calls int
}

func (s *stubType) Name() string { return "stub" }

func (s *stubType) Initialize(a *entities.Asset) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return a.Traits().Add(traits.NewPosition(values.Vector3{}))
}

func testMetadata() *entities.Metadata {
	return &entities.Metadata{
		GUID:    values.MustParseAssetGUID("6f1c2a34-5b6d-4e7f-8a9b-0c1d2e3f4a5b"),
		Name:    "Crate",
		Type:    "prop",
		Version: "1.2.0",
		Scripts: []*entities.Script{
			entities.NewScript("first", values.TriggerOnLoad, ""),
			entities.NewScript("second", values.TriggerOnUpdate, ""),
		},
		Properties: map[string]any{"weight": 12.5},
	}
}

func testComponents() (*entities.Component, *entities.Component) {
	return entities.NewComponent(entities.ComponentModel, "crate.glb", []byte("glTF")),
		entities.NewComponent(entities.ComponentPreview, "crate.png", []byte{0x89, 'P', 'N', 'G'})
}

func Test_NewAsset_RequiresCoreElements(t *testing.T) {
	model, preview := testComponents()

	tests := []struct {
		name    string
		model   *entities.Component
		preview *entities.Component
		meta    *entities.Metadata
		kind    entities.ComponentKind
	}{
		{"no model", nil, preview, testMetadata(), entities.ComponentModel},
		{"empty model", entities.NewComponent(entities.ComponentModel, "x.glb", nil), preview, testMetadata(), entities.ComponentModel},
		{"no preview", model, nil, testMetadata(), entities.ComponentPreview},
		{"no metadata", model, preview, nil, entities.ComponentMetadata},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := entities.NewAsset(tt.model, tt.preview, tt.meta)
			require.Error(t, err)
			assert.Nil(t, a)

			var missing *entities.MissingComponentError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tt.kind, missing.Kind)
		})
	}
}

func Test_Asset_InitializeOnce(t *testing.T) {
	model, preview := testComponents()
	a, err := entities.NewAsset(model, preview, testMetadata())
	require.NoError(t, err)
	assert.False(t, a.IsInitialized())

	typ := &stubType{}
	require.NoError(t, a.Initialize(typ))
	assert.True(t, a.IsInitialized())
	assert.Equal(t, "stub", a.TypeName())
	assert.Error(t, a.Initialize(typ))
	assert.Equal(t, 1, typ.calls)
}

func Test_Asset_InitializeFailure(t *testing.T) {
	model, preview := testComponents()
	a, err := entities.NewAsset(model, preview, testMetadata())
	require.NoError(t, err)

	err = a.Initialize(&stubType{err: errors.New("boom")})
	assert.ErrorContains(t, err, "boom")
	assert.False(t, a.IsInitialized())
}

func Test_Asset_Scripts(t *testing.T) {
	model, preview := testComponents()
	meta := testMetadata()
	a, err := entities.NewAsset(model, preview, meta)
	require.NoError(t, err)

	scripts := a.Scripts()
	require.Len(t, scripts, 2)
	assert.Equal(t, "first", scripts[0].Name)
	assert.NotSame(t, meta.Scripts[0], scripts[0], "asset owns its own script records")

	extra := entities.NewEventScript("third", "jump", "")
	require.NoError(t, a.AddScript(extra))

	var dup *entities.DuplicateScriptError
	assert.ErrorAs(t, a.AddScript(extra), &dup)

	got, ok := a.Script(extra.ID)
	require.True(t, ok)
	assert.Same(t, extra, got)

	assert.True(t, a.RemoveScript(extra.ID))
	assert.False(t, a.RemoveScript(extra.ID))
	assert.Len(t, a.Scripts(), 2)
}

func Test_Asset_Destroy(t *testing.T) {
	model, preview := testComponents()
	a, err := entities.NewAsset(model, preview, testMetadata())
	require.NoError(t, err)
	require.NoError(t, a.Initialize(&stubType{}))

	var removed []string
	a.Traits().Observe(func(e traits.SetEvent) {
		if e.Kind == traits.TraitRemoved {
			removed = append(removed, e.Trait.Name())
		}
	})

	require.NoError(t, a.Destroy())
	assert.True(t, a.IsDestroyed())
	assert.Equal(t, []string{"position"}, removed)
	assert.Nil(t, a.Model())
	assert.Nil(t, model.Data)
	assert.Equal(t, 0, a.Traits().Len())

	assert.ErrorIs(t, a.Destroy(), entities.ErrAssetDestroyed)
	assert.ErrorIs(t, a.AddScript(entities.NewScript("late", values.TriggerOnLoad, "")), entities.ErrAssetDestroyed)
}

func Test_Asset_ApplyMetadataTraits(t *testing.T) {
	model, preview := testComponents()
	meta := testMetadata()
	meta.Traits = map[string]any{
		"health":   100.0,
		"position": []any{0.0, 1.0, 0.0},
		"tint":     "#ff0000",
	}
	a, err := entities.NewAsset(model, preview, meta)
	require.NoError(t, err)
	require.NoError(t, a.Initialize(&stubType{}))
	require.NoError(t, a.ApplyMetadataTraits())

	assert.Equal(t, []string{"position", "tint", "health"}, a.Traits().Names())
	pos, ok := traits.Get[*traits.Position](a.Traits())
	require.True(t, ok)
	assert.Equal(t, values.Vec3(0, 1, 0), pos.Get())
}

func Test_Metadata_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *entities.Metadata)
		wantErr string
	}{
		{"valid", func(*entities.Metadata) {}, ""},
		{"missing name", func(m *entities.Metadata) { m.Name = "" }, "name is required"},
		{"missing guid", func(m *entities.Metadata) { m.GUID = values.AssetGUID{} }, "guid is required"},
		{"bad version", func(m *entities.Metadata) { m.Version = "one" }, "invalid version"},
		{"bad constraint", func(m *entities.Metadata) { m.SDKVersion = "banana" }, "invalid sdkVersion"},
		{"bad script", func(m *entities.Metadata) { m.Scripts[0].Trigger = 9 }, "scripts[0]"},
		{"duplicate script", func(m *entities.Metadata) { m.Scripts[1].ID = m.Scripts[0].ID }, "already attached"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMetadata()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func Test_Metadata_CompatibleWith(t *testing.T) {
	m := testMetadata()
	m.SDKVersion = ">= 1.0.0, < 2.0.0"

	assert.NoError(t, m.CompatibleWith("1.4.2"))
	assert.Error(t, m.CompatibleWith("2.1.0"))
	assert.NoError(t, m.CompatibleWith("dev"))
}

func Test_Metadata_Value(t *testing.T) {
	m := testMetadata()

	v, ok := m.Value("name")
	require.True(t, ok)
	assert.Equal(t, "Crate", v)

	v, ok = m.Value("weight")
	require.True(t, ok)
	assert.Equal(t, 12.5, v)

	_, ok = m.Value("colour")
	assert.False(t, ok)
}
