package services

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/traits"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
)

// AssetTypeFactory creates the typed behavior for one asset.
type AssetTypeFactory func() entities.AssetType

// AssetTypeRegistry maps metadata type keys to factories. Keys are matched
// case-insensitively; there is no fallback for unknown keys.
type AssetTypeRegistry struct {
	mu          sync.RWMutex
	factories   map[string]AssetTypeFactory
	defaultType string
}

// NewAssetTypeRegistry creates an empty registry. defaultType is used only
// when metadata carries no type at all.
func NewAssetTypeRegistry(defaultType string) *AssetTypeRegistry {
	return &AssetTypeRegistry{
		factories:   make(map[string]AssetTypeFactory),
		defaultType: strings.ToLower(defaultType),
	}
}

// NewDefaultAssetTypeRegistry registers the built-in prop, interactive and character types.
func NewDefaultAssetTypeRegistry(defaultType string) *AssetTypeRegistry {
	r := NewAssetTypeRegistry(defaultType)
	r.MustRegister(TypeProp, func() entities.AssetType { return PropType{} })
	r.MustRegister(TypeInteractive, func() entities.AssetType { return InteractiveType{} })
	r.MustRegister(TypeCharacter, func() entities.AssetType { return CharacterType{} })
	return r
}

// Register adds a factory. Registering the same key twice is an error.
func (r *AssetTypeRegistry) Register(key string, f AssetTypeFactory) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return fmt.Errorf("asset type key is required")
	}
	if f == nil {
		return fmt.Errorf("asset type %q: nil factory", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[key]; ok {
		return fmt.Errorf("asset type %q already registered", key)
	}
	r.factories[key] = f
	return nil
}

// MustRegister registers or panics (start-up wiring only)
func (r *AssetTypeRegistry) MustRegister(key string, f AssetTypeFactory) {
	if err := r.Register(key, f); err != nil {
		panic(err)
	}
}

// Resolve returns a fresh AssetType for key.
func (r *AssetTypeRegistry) Resolve(key string) (entities.AssetType, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		key = r.defaultType
	}
	r.mu.RLock()
	f, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, &entities.UnknownAssetTypeError{Type: key, Known: r.Keys()}
	}
	return f(), nil
}

// Keys returns the registered keys sorted.
func (r *AssetTypeRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// Built-in asset type keys.
const (
	TypeProp        = "prop"
	TypeInteractive = "interactive"
	TypeCharacter   = "character"
)

// PropType is a static object with a transform, visibility and tint.
type PropType struct{}

// Name returns the type key
func (PropType) Name() string { return TypeProp }

// Initialize adds the base traits and applies metadata values.
func (PropType) Initialize(a *entities.Asset) error {
	if err := addBaseTraits(a); err != nil {
		return err
	}
	return a.ApplyMetadataTraits()
}

// InteractiveType is a prop that accepts named interaction events.
// The accepted names come from metadata traits.interactable; scripts bound
// to OnCustomEvent are accepted too.
type InteractiveType struct{}

// Name returns the type key
func (InteractiveType) Name() string { return TypeInteractive }

// Initialize adds the base traits plus an interactable trait.
func (InteractiveType) Initialize(a *entities.Asset) error {
	if err := addBaseTraits(a); err != nil {
		return err
	}
	if _, ok := a.Metadata().Traits[traits.NameInteractable]; !ok {
		if err := a.Traits().Add(traits.NewInteractable()); err != nil {
			return err
		}
	}
	return a.ApplyMetadataTraits()
}

// CharacterType is an interactive asset with a health value.
type CharacterType struct{}

// Name returns the type key
func (CharacterType) Name() string { return TypeCharacter }

// Initialize adds the interactive traits plus health.
func (CharacterType) Initialize(a *entities.Asset) error {
	if err := (InteractiveType{}).Initialize(a); err != nil {
		return err
	}
	if !a.Traits().Has("health") {
		return a.Traits().Add(traits.NewCustom("health", 100.0))
	}
	return nil
}

func addBaseTraits(a *entities.Asset) error {
	for _, t := range []traits.Trait{
		traits.NewPosition(values.Vector3{}),
		traits.NewRotation(values.Vector3{}),
		traits.NewScale(values.One),
		traits.NewVisibility(true),
		traits.NewTint(values.White),
	} {
		if err := a.Traits().Add(t); err != nil {
			return err
		}
	}
	return nil
}
