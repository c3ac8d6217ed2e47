// Package services contains application use cases.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
	apperrors "github.com/assetkit-dev/assetkit/internal/application/errors"
	"github.com/assetkit-dev/assetkit/internal/application/ports"
	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/services"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
)

// Construction pipeline stages, reported in ConstructionError.Stage.
const (
	StageResolve    = "resolve"
	StageDecrypt    = "decrypt"
	StageExtract    = "extract"
	StageLocate     = "locate"
	StageMetadata   = "metadata"
	StageType       = "type"
	StageInitialize = "initialize"
)

// LoaderOptions tune the asset loader.
type LoaderOptions struct {
	// SDKVersion is checked against each asset's sdkVersion constraint.
	SDKVersion string
	// MaxConcurrent bounds LoadMany (0 = 4)
	MaxConcurrent int
}

// AssetLoader runs the asset construction pipeline: resolve, decrypt,
// extract, locate, parse metadata, resolve the type and initialize.
// Only fully initialized assets reach the cache. It is safe for concurrent use.
type AssetLoader struct {
	sources   []ports.AssetSource
	envelope  ports.Envelope
	passwords ports.PasswordProvider
	codec     ports.ArchiveCodec
	locator   ports.ComponentLocator
	parser    ports.MetadataParser
	types     *services.AssetTypeRegistry
	cache     ports.AssetCache
	opts      LoaderOptions
	logger    *slog.Logger

	inflight singleflight.Group
}

// NewAssetLoader creates a new asset loader. Sources are tried in order;
// the first that accepts a reference resolves it.
func NewAssetLoader(
	sources []ports.AssetSource,
	envelope ports.Envelope,
	passwords ports.PasswordProvider,
	codec ports.ArchiveCodec,
	locator ports.ComponentLocator,
	parser ports.MetadataParser,
	types *services.AssetTypeRegistry,
	cache ports.AssetCache,
	opts LoaderOptions,
	logger *slog.Logger,
) *AssetLoader {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}

	return &AssetLoader{
		sources:   sources,
		envelope:  envelope,
		passwords: passwords,
		codec:     codec,
		locator:   locator,
		parser:    parser,
		types:     types,
		cache:     cache,
		opts:      opts,
		logger:    logger,
	}
}

// Load returns the asset for req.Ref, constructing it when it is not cached.
// Concurrent loads of the same reference share one construction, which is
// detached from the first caller's cancellation. On failure the error is a *apperrors.ConstructionError and the asset is nil.
func (l *AssetLoader) Load(ctx context.Context, req dto.LoadAssetRequest) (*entities.Asset, error) {
	key := CacheKey(req.Ref)
	if key == "" {
		return nil, apperrors.NewConstructionError(StageResolve, req.Ref, errors.New("empty asset reference"))
	}
	if a, ok := l.cached(key); ok {
		l.logger.Debug("asset cache hit", "asset", key)
		return a, nil
	}

	v, err, shared := l.inflight.Do(key, func() (any, error) {
		if a, ok := l.cached(key); ok {
			return a, nil
		}
		return l.construct(context.WithoutCancel(ctx), key, req)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.logger.Debug("asset load shared with concurrent caller", "asset", key)
	}
	return v.(*entities.Asset), nil
}

// LoadMany loads every request in parallel, bounded by MaxConcurrent.
// The first failure cancels the remaining loads.
func (l *AssetLoader) LoadMany(ctx context.Context, reqs []dto.LoadAssetRequest) ([]*entities.Asset, error) {
	out := make([]*entities.Asset, len(reqs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.MaxConcurrent)

	for i, req := range reqs {
		g.Go(func() error {
			a, err := l.Load(gCtx, req)
			if err != nil {
				return err
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Evict drops a cached asset. It reports whether one was cached.
func (l *AssetLoader) Evict(ref string) bool {
	return l.cache.Delete(CacheKey(ref))
}

func (l *AssetLoader) cached(key string) (*entities.Asset, bool) {
	a, ok := l.cache.Get(key)
	if !ok {
		return nil, false
	}
	if a.IsDestroyed() {
		l.cache.Delete(key)
		return nil, false
	}
	return a, true
}

func (l *AssetLoader) construct(ctx context.Context, key string, req dto.LoadAssetRequest) (*entities.Asset, error) {
	log := l.logger.With("asset", req.Ref)
	fail := func(stage string, err error) (*entities.Asset, error) {
		log.Error("asset construction failed", "stage", stage, "error", err)
		return nil, apperrors.NewConstructionError(stage, req.Ref, err)
	}

	// 1. Resolve source bytes
	raw, err := l.resolve(ctx, req.Ref)
	if err != nil {
		return fail(StageResolve, err)
	}
	log.Debug("asset resolved", "origin", raw.Origin)

	files := raw.Files
	if raw.Archive != nil {
		data := raw.Archive

		// 2. Decrypt sealed archives
		if l.envelope != nil && l.envelope.IsSealed(data) {
			if data, err = l.decrypt(ctx, data, req.Password); err != nil {
				return fail(StageDecrypt, err)
			}
			log.Debug("archive decrypted")
		}

		// 3. Extract top-level entries
		if files, err = l.codec.Extract(data); err != nil {
			return fail(StageExtract, err)
		}
	}

	// 4. Locate components
	set, err := l.locator.Locate(files)
	if err != nil {
		return fail(StageLocate, err)
	}

	// 5. Parse metadata
	meta, err := l.parser.Parse(set.Metadata.Data)
	if err != nil {
		return fail(StageMetadata, err)
	}
	if err := meta.CompatibleWith(l.opts.SDKVersion); err != nil {
		return fail(StageMetadata, err)
	}

	// 6. Resolve the runtime type
	typ, err := l.types.Resolve(meta.Type)
	if err != nil {
		return fail(StageType, err)
	}

	// 7. Instantiate and initialize
	asset, err := entities.NewAsset(set.Model, set.Preview, meta)
	if err != nil {
		return fail(StageInitialize, err)
	}
	if err := asset.Initialize(typ); err != nil {
		return fail(StageInitialize, err)
	}

	// 8. Cache
	l.cache.Put(key, asset)
	log.Info("asset loaded",
		"guid", asset.GUID().String(),
		"name", asset.Name(),
		"type", asset.TypeName(),
		"scripts", len(asset.Scripts()),
	)
	return asset, nil
}

func (l *AssetLoader) resolve(ctx context.Context, ref string) (*ports.RawAsset, error) {
	for _, src := range l.sources {
		if !src.Accepts(ref) {
			continue
		}
		raw, err := src.Fetch(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("%s source: %w", src.Name(), err)
		}
		if raw.Archive == nil && len(raw.Files) == 0 {
			return nil, fmt.Errorf("%s source returned no content", src.Name())
		}
		return raw, nil
	}
	return nil, fmt.Errorf("no source accepts %q", ref)
}

func (l *AssetLoader) decrypt(ctx context.Context, data []byte, override string) ([]byte, error) {
	password := override
	if password == "" {
		if l.passwords == nil {
			return nil, ports.ErrNoPassword
		}
		hash := ContentHash(data)
		var err error
		if password, err = l.passwords.Password(ctx, hash); err != nil {
			return nil, fmt.Errorf("password for %s: %w", hash[:12], err)
		}
	}
	return l.envelope.Open(data, password)
}

// ContentHash is the SHA-256 hex digest used to key archive passwords.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CacheKey normalizes an asset reference: GUIDs by their canonical form,
// paths by their cleaned absolute form.
func CacheKey(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if guid, err := values.ParseAssetGUID(ref); err == nil {
		return guid.String()
	}
	if abs, err := filepath.Abs(ref); err == nil {
		return abs
	}
	return filepath.Clean(ref)
}
