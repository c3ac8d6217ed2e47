package entities

import (
	"encoding/json"
	"fmt"

	"github.com/assetkit-dev/assetkit/internal/domain/values"
)

// Script is a named, independently toggleable unit of source code owned by one asset.
type Script struct {
	ID          values.ScriptID    `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	Enabled     bool               `json:"enabled" yaml:"enabled"`
	Trigger     values.TriggerType `json:"triggerType" yaml:"triggerType"`
	CustomEvent string             `json:"customEventName" yaml:"customEventName"`
	Content     string             `json:"scriptContent" yaml:"scriptContent"`
}

// NewScript creates an enabled script with a fresh identifier.
func NewScript(name string, trigger values.TriggerType, content string) *Script {
	return &Script{
		ID:      values.NewScriptID(),
		Name:    name,
		Enabled: true,
		Trigger: trigger,
		Content: content,
	}
}

// NewEventScript creates an enabled OnCustomEvent script.
func NewEventScript(name, event, content string) *Script {
	s := NewScript(name, values.TriggerOnCustomEvent, content)
	s.CustomEvent = event
	return s
}

// UnmarshalJSON decodes a script record. A record without "enabled" is enabled.
func (s *Script) UnmarshalJSON(data []byte) error {
	type plain Script
	p := plain{Enabled: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Script(p)
	return nil
}

// Validate checks the record is usable.
func (s *Script) Validate() error {
	if s == nil {
		return fmt.Errorf("script is nil")
	}
	if s.ID.IsZero() {
		return fmt.Errorf("script %q: id is required", s.Name)
	}
	if err := s.Trigger.Validate(); err != nil {
		return fmt.Errorf("script %q: %w", s.Name, err)
	}
	if s.Trigger == values.TriggerOnCustomEvent && s.CustomEvent == "" {
		return fmt.Errorf("script %q: custom event name is required for OnCustomEvent", s.Name)
	}
	return nil
}

// RunsOn reports whether the script is enabled and bound to trigger.
func (s *Script) RunsOn(trigger values.TriggerType) bool {
	return s != nil && s.Enabled && s.Trigger == trigger
}

// RunsOnEvent reports whether the script is enabled and bound to the custom
// event name. Matching is exact and case-sensitive.
func (s *Script) RunsOnEvent(name string) bool {
	return s.RunsOn(values.TriggerOnCustomEvent) && s.CustomEvent == name
}

// Label returns the display name, falling back to the short id.
func (s *Script) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID.Short()
}

// Clone returns a copy of the record.
func (s *Script) Clone() *Script {
	c := *s
	return &c
}
