// Package apperrors defines application-level error types.
package apperrors

import (
	"fmt"
)

// Construction stages, in pipeline order.
const (
	StageResolve    = "resolve"
	StageDecrypt    = "decrypt"
	StageExtract    = "extract"
	StageLocate     = "locate"
	StageMetadata   = "metadata"
	StageType       = "type"
	StageInitialize = "initialize"
)

// ConstructionError indicates the asset pipeline failed. The asset is never
// returned alongside it.
type ConstructionError struct {
	Cause  error
	Stage  string
	Source string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("asset construction failed at %s stage for %s: %v", e.Stage, e.Source, e.Cause)
}

func (e *ConstructionError) Unwrap() error {
	return e.Cause
}

// NewConstructionError creates a new construction error.
func NewConstructionError(stage, source string, cause error) *ConstructionError {
	return &ConstructionError{
		Stage:  stage,
		Source: source,
		Cause:  cause,
	}
}

// PermissionError indicates a remote service refused access to an asset or its key.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// NewPermissionError creates a new permission error.
func NewPermissionError(reason string) *PermissionError {
	return &PermissionError{Reason: reason}
}

// Script failure phases.
const (
	PhaseCompile = "compile"
	PhaseRuntime = "runtime"
)

// ScriptError indicates a script failed to compile or run.
type ScriptError struct {
	ScriptID string
	Phase    string
	Message  string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s %s error: %s", e.ScriptID, e.Phase, e.Message)
}

// NewScriptError creates a new script error.
func NewScriptError(scriptID, phase, message string) *ScriptError {
	return &ScriptError{
		ScriptID: scriptID,
		Phase:    phase,
		Message:  message,
	}
}

// ValidationError indicates metadata, script or filter validation failed.
type ValidationError struct {
	Field   string   // Field that failed validation
	Message string   // Error message
	Details []string // Additional details
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s (%d issues)", e.Field, e.Message, len(e.Details))
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, details ...string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: details,
	}
}

// ConfigurationError indicates system config or setup issue.
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Aspect, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Aspect, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Aspect:  aspect,
		Message: message,
		Cause:   cause,
	}
}
