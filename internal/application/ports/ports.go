// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - the application layer
// defines what it needs, infrastructure provides implementations.
package ports

import (
	"context"
	"errors"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
	"github.com/assetkit-dev/assetkit/internal/domain/entities"
)

// ErrNoPassword is returned by a PasswordProvider that has no password for an envelope.
var ErrNoPassword = errors.New("no password available")

// RawAsset is what a source delivers: either archive bytes or the files of
// an unpacked asset directory, keyed by base name.
type RawAsset struct {
	Origin  string
	Archive []byte
	Files   map[string][]byte
}

// AssetSource fetches raw asset bytes.
type AssetSource interface {
	// Name identifies the source in errors and logs.
	Name() string
	// Accepts reports whether ref is something this source can resolve.
	Accepts(ref string) bool
	// Fetch resolves ref to a raw asset.
	Fetch(ctx context.Context, ref string) (*RawAsset, error)
}

// PasswordProvider supplies the password for an encrypted archive, keyed by
// the SHA-256 hex digest of the envelope.
type PasswordProvider interface {
	Password(ctx context.Context, contentHash string) (string, error)
}

// Envelope opens and seals encrypted archives.
type Envelope interface {
	IsSealed(data []byte) bool
	Open(data []byte, password string) ([]byte, error)
	Seal(data []byte, password string) ([]byte, error)
}

// ArchiveCodec reads and writes asset archives.
type ArchiveCodec interface {
	// Extract returns the top-level files of an archive.
	Extract(data []byte) (map[string][]byte, error)
	// Build writes files into a new archive.
	Build(files map[string][]byte) ([]byte, error)
}

// ComponentSet holds the three core files of an asset.
type ComponentSet struct {
	Model    *entities.Component
	Preview  *entities.Component
	Metadata *entities.Component
}

// ComponentLocator picks the model, preview and metadata files.
type ComponentLocator interface {
	Locate(files map[string][]byte) (*ComponentSet, error)
}

// MetadataParser decodes and validates a metadata document.
type MetadataParser interface {
	Parse(data []byte) (*entities.Metadata, error)
}

// AssetCache stores fully constructed assets.
type AssetCache interface {
	Get(key string) (*entities.Asset, bool)
	Put(key string, asset *entities.Asset)
	Delete(key string) bool
	Len() int
}

// AssetProvider returns constructed assets, from cache or the pipeline.
type AssetProvider interface {
	Load(ctx context.Context, req dto.LoadAssetRequest) (*entities.Asset, error)
}
