package entities

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Masterminds/semver/v3"
	"github.com/assetkit-dev/assetkit/internal/domain/traits"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
)

// Metadata is the parsed metadata document of an asset.
type Metadata struct {
	GUID        values.AssetGUID `json:"guid" yaml:"guid"`
	Name        string           `json:"name" yaml:"name"`
	Type        string           `json:"type,omitempty" yaml:"type,omitempty"`
	Version     string           `json:"version,omitempty" yaml:"version,omitempty"`
	SDKVersion  string           `json:"sdkVersion,omitempty" yaml:"sdkVersion,omitempty"`
	Author      string           `json:"author,omitempty" yaml:"author,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
	Scripts     []*Script        `json:"scripts,omitempty" yaml:"scripts,omitempty"`
	Traits      map[string]any   `json:"traits,omitempty" yaml:"traits,omitempty"`
	Properties  map[string]any   `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Validate checks required fields, the version strings and every script record.
func (m *Metadata) Validate() error {
	if m.GUID.IsZero() {
		return fmt.Errorf("metadata: guid is required")
	}
	if m.Name == "" {
		return fmt.Errorf("metadata: name is required")
	}
	if m.Version != "" {
		if _, err := semver.NewVersion(m.Version); err != nil {
			return fmt.Errorf("metadata: invalid version %q: %w", m.Version, err)
		}
	}
	if m.SDKVersion != "" {
		if _, err := semver.NewConstraint(m.SDKVersion); err != nil {
			return fmt.Errorf("metadata: invalid sdkVersion %q: %w", m.SDKVersion, err)
		}
	}
	seen := make(map[values.ScriptID]bool, len(m.Scripts))
	for i, s := range m.Scripts {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("metadata: scripts[%d]: %w", i, err)
		}
		if seen[s.ID] {
			return fmt.Errorf("metadata: scripts[%d]: %w", i, &DuplicateScriptError{ID: s.ID.String()})
		}
		seen[s.ID] = true
	}
	return nil
}

// CompatibleWith checks the sdkVersion constraint against the running SDK version.
// An empty constraint or an unparsable SDK version (development builds) is accepted.
func (m *Metadata) CompatibleWith(sdk string) error {
	if m.SDKVersion == "" {
		return nil
	}
	v, err := semver.NewVersion(sdk)
	if err != nil {
		return nil
	}
	c, err := semver.NewConstraint(m.SDKVersion)
	if err != nil {
		return fmt.Errorf("invalid sdkVersion %q: %w", m.SDKVersion, err)
	}
	if ok, errs := c.Validate(v); !ok {
		if len(errs) > 0 {
			return fmt.Errorf("asset requires sdk %s: %w", m.SDKVersion, errs[0])
		}
		return fmt.Errorf("asset requires sdk %s, running %s", m.SDKVersion, sdk)
	}
	return nil
}

// Value looks up a well-known field by its wire name, then the free-form properties.
func (m *Metadata) Value(key string) (any, bool) {
	switch key {
	case "guid":
		return m.GUID.String(), true
	case "name":
		return m.Name, true
	case "type":
		return m.Type, true
	case "version":
		return m.Version, true
	case "sdkVersion":
		return m.SDKVersion, true
	case "author":
		return m.Author, true
	case "description":
		return m.Description, true
	case "tags":
		out := make([]any, len(m.Tags))
		for i, t := range m.Tags {
			out[i] = t
		}
		return out, true
	}
	v, ok := m.Properties[key]
	return v, ok
}

// TraitOrder returns the initial trait names in application order:
// built-in traits first in a fixed order, then custom traits sorted by name.
func (m *Metadata) TraitOrder() []string {
	builtin := []string{
		traits.NamePosition, traits.NameRotation, traits.NameScale,
		traits.NameVisibility, traits.NameTint, traits.NameInteractable,
	}
	var out []string
	for _, name := range builtin {
		if _, ok := m.Traits[name]; ok {
			out = append(out, name)
		}
	}
	custom := slices.Sorted(maps.Keys(m.Traits))
	for _, name := range custom {
		if !slices.Contains(builtin, name) {
			out = append(out, name)
		}
	}
	return out
}
