package values

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// TriggerType decides when a script is eligible to run.
// It is persisted as a small integer.
type TriggerType int

const (
	// TriggerOnLoad runs once after the asset becomes available
	TriggerOnLoad TriggerType = 0
	// TriggerOnUpdate runs on every host frame tick
	TriggerOnUpdate TriggerType = 1
	// TriggerOnCustomEvent runs when a named custom event fires
	TriggerOnCustomEvent TriggerType = 2
)

var triggerNames = map[TriggerType]string{
	TriggerOnLoad:        "OnLoad",
	TriggerOnUpdate:      "OnUpdate",
	TriggerOnCustomEvent: "OnCustomEvent",
}

// ParseTriggerType accepts either the integer form ("2") or the name ("OnCustomEvent").
func ParseTriggerType(s string) (TriggerType, error) {
	for t, name := range triggerNames {
		if name == s {
			return t, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid trigger type: %q", s)
	}
	t := TriggerType(n)
	if err := t.Validate(); err != nil {
		return 0, err
	}
	return t, nil
}

// String returns the trigger name
func (t TriggerType) String() string {
	if name, ok := triggerNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TriggerType(%d)", int(t))
}

// Validate returns an error if the trigger value is invalid
func (t TriggerType) Validate() error {
	if _, ok := triggerNames[t]; !ok {
		return fmt.Errorf("invalid trigger type: %d", int(t))
	}
	return nil
}

// MarshalJSON writes the integer form.
func (t TriggerType) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(t))), nil
}

// UnmarshalJSON accepts the integer form or the trigger name.
func (t *TriggerType) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		parsed := TriggerType(n)
		if err := parsed.Validate(); err != nil {
			return err
		}
		*t = parsed
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid trigger type: %s", data)
	}
	parsed, err := ParseTriggerType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
