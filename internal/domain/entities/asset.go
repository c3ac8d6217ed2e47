package entities

import (
	"fmt"

	"github.com/assetkit-dev/assetkit/internal/domain/traits"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
)

// AssetType is the typed behavior resolved from the metadata "type" key.
// Initialize runs once before the asset is handed to callers.
type AssetType interface {
	Name() string
	Initialize(a *Asset) error
}

// Asset is the aggregate root: one model, one preview, one metadata record,
// an ordered trait set and an ordered script list.
//
// Assets are mutated from the host's update goroutine only; the trait set
// carries its own lock because loaders populate it from worker goroutines.
type Asset struct {
	guid     values.AssetGUID
	typeName string
	model    *Component
	preview  *Component
	metadata *Metadata
	traits   *traits.Set
	scripts  []*Script

	initialized bool
	destroyed   bool
}

// NewAsset validates the three core elements and builds an uninitialized asset.
// Scripts persisted in the metadata are attached in order.
func NewAsset(model, preview *Component, metadata *Metadata) (*Asset, error) {
	if model == nil || len(model.Data) == 0 {
		return nil, &MissingComponentError{Kind: ComponentModel}
	}
	if preview == nil || len(preview.Data) == 0 {
		return nil, &MissingComponentError{Kind: ComponentPreview}
	}
	if metadata == nil {
		return nil, &MissingComponentError{Kind: ComponentMetadata}
	}
	if err := metadata.Validate(); err != nil {
		return nil, err
	}

	a := &Asset{
		guid:     metadata.GUID,
		typeName: metadata.Type,
		model:    model,
		preview:  preview,
		metadata: metadata,
		traits:   traits.NewSet(),
	}
	for _, s := range metadata.Scripts {
		a.scripts = append(a.scripts, s.Clone())
	}
	return a, nil
}

// Initialize runs the type hook. It must be called exactly once.
func (a *Asset) Initialize(t AssetType) error {
	if a.destroyed {
		return ErrAssetDestroyed
	}
	if a.initialized {
		return fmt.Errorf("asset %s already initialized", a.guid)
	}
	if t == nil {
		return fmt.Errorf("asset %s: nil asset type", a.guid)
	}
	if err := t.Initialize(a); err != nil {
		return fmt.Errorf("initialize %s asset: %w", t.Name(), err)
	}
	a.typeName = t.Name()
	a.initialized = true
	return nil
}

// ApplyMetadataTraits adds or updates traits from the metadata's initial values.
func (a *Asset) ApplyMetadataTraits() error {
	for _, name := range a.metadata.TraitOrder() {
		raw := a.metadata.Traits[name]
		if existing, ok := a.traits.ByName(name); ok {
			if raw == nil {
				continue
			}
			if _, isInteractable := existing.(*traits.Interactable); isInteractable {
				continue
			}
			if err := existing.SetValue(raw); err != nil {
				return fmt.Errorf("trait %s: %w", name, err)
			}
			continue
		}
		t, err := traits.FromValue(name, raw)
		if err != nil {
			return err
		}
		if err := a.traits.Add(t); err != nil {
			return err
		}
	}
	return nil
}

// GUID returns the asset identifier
func (a *Asset) GUID() values.AssetGUID { return a.guid }

// Name returns the display name from metadata
func (a *Asset) Name() string { return a.metadata.Name }

// TypeName returns the resolved asset type key
func (a *Asset) TypeName() string { return a.typeName }

// Model returns the model component
func (a *Asset) Model() *Component { return a.model }

// Preview returns the preview component
func (a *Asset) Preview() *Component { return a.preview }

// Metadata returns the metadata record
func (a *Asset) Metadata() *Metadata { return a.metadata }

// Traits returns the trait set
func (a *Asset) Traits() *traits.Set { return a.traits }

// MetadataValue looks up a metadata field or property.
func (a *Asset) MetadataValue(key string) (any, bool) {
	if a.metadata == nil {
		return nil, false
	}
	return a.metadata.Value(key)
}

// IsInitialized reports whether the type hook ran.
func (a *Asset) IsInitialized() bool { return a.initialized }

// IsDestroyed reports whether Destroy was called.
func (a *Asset) IsDestroyed() bool { return a.destroyed }

// Scripts returns the scripts in list order.
func (a *Asset) Scripts() []*Script {
	out := make([]*Script, len(a.scripts))
	copy(out, a.scripts)
	return out
}

// Script finds a script by id.
func (a *Asset) Script(id values.ScriptID) (*Script, bool) {
	for _, s := range a.scripts {
		if s.ID.Equals(id) {
			return s, true
		}
	}
	return nil, false
}

// AddScript validates and appends a script.
func (a *Asset) AddScript(s *Script) error {
	if a.destroyed {
		return ErrAssetDestroyed
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if _, ok := a.Script(s.ID); ok {
		return &DuplicateScriptError{ID: s.ID.String()}
	}
	a.scripts = append(a.scripts, s)
	return nil
}

// RemoveScript removes a script by id.
func (a *Asset) RemoveScript(id values.ScriptID) bool {
	for i, s := range a.scripts {
		if s.ID.Equals(id) {
			a.scripts = append(a.scripts[:i], a.scripts[i+1:]...)
			return true
		}
	}
	return false
}

// Destroy detaches every trait and releases the core elements.
// A second call returns ErrAssetDestroyed.
func (a *Asset) Destroy() error {
	if a.destroyed {
		return ErrAssetDestroyed
	}
	a.traits.DetachAll()
	a.model.Release()
	a.preview.Release()
	a.model = nil
	a.preview = nil
	a.scripts = nil
	a.destroyed = true
	return nil
}
