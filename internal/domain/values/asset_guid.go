// Package values contains domain value objects that encapsulate
// primitive types with validation.
package values

import (
	"fmt"

	"github.com/google/uuid"
)

// AssetGUID uniquely identifies an asset across local and remote sources.
// Remote assets are fetched from the CDN by this identifier.
type AssetGUID struct {
	value uuid.UUID
}

// NewAssetGUID creates a new random asset GUID
func NewAssetGUID() AssetGUID {
	return AssetGUID{value: uuid.New()}
}

// ParseAssetGUID parses a string into an AssetGUID
func ParseAssetGUID(s string) (AssetGUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AssetGUID{}, fmt.Errorf("invalid asset GUID: %w", err)
	}
	return AssetGUID{value: id}, nil
}

// MustParseAssetGUID parses a string or panics (for tests only)
func MustParseAssetGUID(s string) AssetGUID {
	id, err := ParseAssetGUID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the string representation
func (g AssetGUID) String() string {
	return g.value.String()
}

// UUID returns the underlying uuid.UUID
func (g AssetGUID) UUID() uuid.UUID {
	return g.value
}

// IsZero returns true if this is the zero value
func (g AssetGUID) IsZero() bool {
	return g.value == uuid.Nil
}

// Equals checks if two GUIDs are equal
func (g AssetGUID) Equals(other AssetGUID) bool {
	return g.value == other.value
}

// MarshalText implements encoding.TextMarshaler
func (g AssetGUID) MarshalText() ([]byte, error) {
	return []byte(g.value.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty string
// decodes to the zero value.
func (g *AssetGUID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*g = AssetGUID{}
		return nil
	}
	id, err := ParseAssetGUID(string(data))
	if err != nil {
		return err
	}
	*g = id
	return nil
}
