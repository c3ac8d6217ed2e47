// Package dto contains data transfer objects for application layer use cases.
package dto

import (
	"time"

	"github.com/assetkit-dev/assetkit/internal/domain/values"
)

// RequestMetadata contains metadata for request tracking.
type RequestMetadata struct {
	// RequestID uniquely identifies this request
	RequestID string
}

// LoadAssetRequest identifies an asset by local path or GUID.
type LoadAssetRequest struct {
	Ref string
	// Password overrides the configured password providers.
	Password string
}

// FilterOptions restricts which scripts are dispatched.
type FilterOptions struct {
	// FilterExpression is an expr-lang boolean over the script fields
	FilterExpression string
	// ExcludeScripts lists script names or ids that never run
	ExcludeScripts []string
}

// ExecutionOptions controls how scripts execute.
type ExecutionOptions struct {
	Mode    values.ExecutionMode
	Context values.HostContext

	// Budget is the soft time slice per session step (0 = default)
	Budget time.Duration
	// HardLimit aborts a slice that never yields (0 = default)
	HardLimit time.Duration

	RestartRunning bool
	UpdateScripts  bool
}

// EventRequest is a custom event fired during a run.
type EventRequest struct {
	Name string
	Data any
	// Frame is the update after which the event fires; 0 fires right after OnLoad.
	Frame int
}

// RunAssetRequest encapsulates all inputs needed to run an asset.
type RunAssetRequest struct {
	Asset     LoadAssetRequest
	Metadata  RequestMetadata
	Filters   FilterOptions
	Execution ExecutionOptions
	Events    []EventRequest

	// Frames is the number of host updates to run after OnLoad.
	Frames int
	// Interval paces updates; 0 runs them back to back.
	Interval time.Duration
}

// CheckScriptsRequest encapsulates inputs for compiling every script of an asset.
type CheckScriptsRequest struct {
	Asset    LoadAssetRequest
	Metadata RequestMetadata
}

// InspectAssetRequest encapsulates inputs for describing an asset.
type InspectAssetRequest struct {
	Asset    LoadAssetRequest
	Metadata RequestMetadata
}

// PackAssetRequest describes an archive to build from a directory.
type PackAssetRequest struct {
	SourceDir  string
	OutputPath string
	// Password seals the archive when non-empty.
	Password string
}
