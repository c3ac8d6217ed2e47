// Package hostenv holds the explicitly constructed context object that the
// scripting engine, its sessions and the bridge receive instead of reaching
// for process-wide singletons.
package hostenv

import (
	"log/slog"
	"math/rand/v2"
	"time"
)

// Services owns every host-side collaborator a script can reach.
type Services struct {
	Logger      *slog.Logger
	Clock       Clock
	Forwarder   Forwarder
	Assets      AssetDirectory
	SceneState  StateStore
	GlobalState StateStore
	Redactor    Redactor

	// Random returns a number in [0,1). Tests swap it for a fixed sequence.
	Random func() float64
}

// WithDefaults returns a copy where every nil collaborator is replaced by an
// in-process default. A nil Forwarder is kept: it selects the placeholder contract.
// Missing scene and global stores are created on s itself, so every copy taken
// from the same Services shares those scopes. Call it from the goroutine that
// owns s.
func (s *Services) WithDefaults() *Services {
	out := &Services{}
	if s != nil {
		if s.SceneState == nil {
			s.SceneState = NewMapStore()
		}
		if s.GlobalState == nil {
			s.GlobalState = NewMapStore()
		}
		*out = *s
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Clock == nil {
		out.Clock = SystemClock{}
	}
	if out.Assets == nil {
		out.Assets = emptyDirectory{}
	}
	if out.SceneState == nil {
		out.SceneState = NewMapStore()
	}
	if out.GlobalState == nil {
		out.GlobalState = NewMapStore()
	}
	if out.Redactor == nil {
		out.Redactor = NopRedactor{}
	}
	if out.Random == nil {
		out.Random = rand.Float64
	}
	return out
}

// Clock supplies the host time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// Redactor scrubs secrets from script output before it is stored or logged.
type Redactor interface {
	Redact(s string) string
}

// NopRedactor returns its input unchanged.
type NopRedactor struct{}

// Redact returns s
func (NopRedactor) Redact(s string) string { return s }

// AssetInfo describes an asset known to the host.
type AssetInfo struct {
	GUID string `json:"guid"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// AssetDirectory lets scripts look up other assets loaded by the host.
type AssetDirectory interface {
	Find(name string) (AssetInfo, bool)
	FindByGUID(guid string) (AssetInfo, bool)
	All() []AssetInfo
}

type emptyDirectory struct{}

func (emptyDirectory) Find(string) (AssetInfo, bool)       { return AssetInfo{}, false }
func (emptyDirectory) FindByGUID(string) (AssetInfo, bool) { return AssetInfo{}, false }
func (emptyDirectory) All() []AssetInfo                    { return nil }
