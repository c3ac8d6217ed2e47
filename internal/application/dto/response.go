package dto

import (
	"time"
)

// ResponseMetadata contains metadata about the response.
type ResponseMetadata struct {
	// RequestID from the original request
	RequestID string `json:"request_id,omitempty" yaml:"request_id,omitempty"`

	// ProcessedAt is when the request was processed
	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`

	// Duration is how long the request took
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Diagnostics contains diagnostic information about execution.
type Diagnostics struct {
	// Warnings are non-fatal issues encountered
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// AssetSummary describes a constructed asset.
type AssetSummary struct {
	GUID         string   `json:"guid" yaml:"guid"`
	Name         string   `json:"name" yaml:"name"`
	Type         string   `json:"type" yaml:"type"`
	Version      string   `json:"version,omitempty" yaml:"version,omitempty"`
	Author       string   `json:"author,omitempty" yaml:"author,omitempty"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Origin       string   `json:"origin" yaml:"origin"`
	ModelFile    string   `json:"model_file" yaml:"model_file"`
	ModelBytes   int      `json:"model_bytes" yaml:"model_bytes"`
	PreviewFile  string   `json:"preview_file" yaml:"preview_file"`
	PreviewBytes int      `json:"preview_bytes" yaml:"preview_bytes"`
}

// TraitView is one trait and its current value.
type TraitView struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

// ScriptView describes a script record.
type ScriptView struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Trigger string `json:"trigger" yaml:"trigger"`
	Event   string `json:"event,omitempty" yaml:"event,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Lines   int    `json:"lines" yaml:"lines"`
}

// InspectAssetResponse describes an asset without running it.
type InspectAssetResponse struct {
	Asset      AssetSummary     `json:"asset" yaml:"asset"`
	Traits     []TraitView      `json:"traits" yaml:"traits"`
	Scripts    []ScriptView     `json:"scripts" yaml:"scripts"`
	Properties map[string]any   `json:"properties,omitempty" yaml:"properties,omitempty"`
	Metadata   ResponseMetadata `json:"metadata" yaml:"metadata"`
}

// ScriptStatus is the final state of a script during a run.
type ScriptStatus string

// Script statuses.
const (
	ScriptNotRun  ScriptStatus = "not_run"
	ScriptRunning ScriptStatus = "running"
	ScriptDone    ScriptStatus = "done"
	ScriptFailed  ScriptStatus = "failed"
	ScriptStopped ScriptStatus = "stopped"
)

// ScriptRun is what one script did during a run.
type ScriptRun struct {
	ID      string       `json:"id" yaml:"id"`
	Name    string       `json:"name" yaml:"name"`
	Trigger string       `json:"trigger" yaml:"trigger"`
	Event   string       `json:"event,omitempty" yaml:"event,omitempty"`
	Status  ScriptStatus `json:"status" yaml:"status"`
	Runs    int          `json:"runs" yaml:"runs"`
	Message string       `json:"message,omitempty" yaml:"message,omitempty"`
	Output  []string     `json:"output,omitempty" yaml:"output,omitempty"`
	Errors  []string     `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// EventDispatch records a custom event fired during a run.
type EventDispatch struct {
	Name    string `json:"name" yaml:"name"`
	Frame   int    `json:"frame" yaml:"frame"`
	Started int    `json:"started" yaml:"started"`
}

// RunAssetResponse contains the result of running an asset.
type RunAssetResponse struct {
	Asset       AssetSummary     `json:"asset" yaml:"asset"`
	Frames      int              `json:"frames" yaml:"frames"`
	Allowed     bool             `json:"execution_allowed" yaml:"execution_allowed"`
	Events      []EventDispatch  `json:"events,omitempty" yaml:"events,omitempty"`
	Scripts     []ScriptRun      `json:"scripts" yaml:"scripts"`
	Traits      []TraitView      `json:"traits" yaml:"traits"`
	Metadata    ResponseMetadata `json:"metadata" yaml:"metadata"`
	Diagnostics Diagnostics      `json:"diagnostics" yaml:"diagnostics"`
}

// Failed reports how many scripts ended in failure.
func (r *RunAssetResponse) Failed() int {
	n := 0
	for _, s := range r.Scripts {
		if s.Status == ScriptFailed {
			n++
		}
	}
	return n
}

// ScriptCheck is the compile result of one script.
type ScriptCheck struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Trigger string `json:"trigger" yaml:"trigger"`
	Event   string `json:"event,omitempty" yaml:"event,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Valid   bool   `json:"valid" yaml:"valid"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
	// Line is the 1-based source line of a compile error, 0 when unknown.
	Line int `json:"line,omitempty" yaml:"line,omitempty"`
}

// CheckScriptsResponse contains the compile results of an asset's scripts.
type CheckScriptsResponse struct {
	Asset       AssetSummary     `json:"asset" yaml:"asset"`
	Scripts     []ScriptCheck    `json:"scripts" yaml:"scripts"`
	Metadata    ResponseMetadata `json:"metadata" yaml:"metadata"`
	Diagnostics Diagnostics      `json:"diagnostics" yaml:"diagnostics"`
}

// Failures counts scripts that did not compile.
func (r *CheckScriptsResponse) Failures() int {
	n := 0
	for _, s := range r.Scripts {
		if !s.Valid {
			n++
		}
	}
	return n
}

// PackAssetResponse describes a written archive.
type PackAssetResponse struct {
	OutputPath  string           `json:"output_path" yaml:"output_path"`
	Files       []string         `json:"files" yaml:"files"`
	Bytes       int              `json:"bytes" yaml:"bytes"`
	Sealed      bool             `json:"sealed" yaml:"sealed"`
	ContentHash string           `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`
	Metadata    ResponseMetadata `json:"metadata" yaml:"metadata"`
}
