package values

import (
	"fmt"

	"github.com/google/uuid"
)

// ScriptID identifies a script within its owning asset.
// Output and error channels are keyed by it so concurrently running
// scripts can be told apart.
type ScriptID struct {
	value uuid.UUID
}

// NewScriptID creates a new random script ID
func NewScriptID() ScriptID {
	return ScriptID{value: uuid.New()}
}

// ParseScriptID parses a string into a ScriptID
func ParseScriptID(s string) (ScriptID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ScriptID{}, fmt.Errorf("invalid script ID: %w", err)
	}
	return ScriptID{value: id}, nil
}

// MustParseScriptID parses a string or panics (for tests only)
func MustParseScriptID(s string) ScriptID {
	id, err := ParseScriptID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the string representation
func (s ScriptID) String() string {
	return s.value.String()
}

// Short returns the first eight characters, used in log lines and tables.
func (s ScriptID) Short() string {
	return s.value.String()[:8]
}

// IsZero returns true if this is the zero value
func (s ScriptID) IsZero() bool {
	return s.value == uuid.Nil
}

// Equals checks if two ScriptIDs are equal
func (s ScriptID) Equals(other ScriptID) bool {
	return s.value == other.value
}

// MarshalText implements encoding.TextMarshaler
func (s ScriptID) MarshalText() ([]byte, error) {
	return []byte(s.value.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty string
// decodes to the zero value.
func (s *ScriptID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*s = ScriptID{}
		return nil
	}
	id, err := ParseScriptID(string(data))
	if err != nil {
		return err
	}
	*s = id
	return nil
}
