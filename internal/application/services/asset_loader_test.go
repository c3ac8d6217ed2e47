package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
	apperrors "github.com/assetkit-dev/assetkit/internal/application/errors"
	"github.com/assetkit-dev/assetkit/internal/application/ports"
	"github.com/assetkit-dev/assetkit/internal/application/services"
	domainservices "github.com/assetkit-dev/assetkit/internal/domain/services"
	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/archive"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/archive/archivetest"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/persistence/memory"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/sources"
)

func requireStage(t *testing.T, err error, stage string) *apperrors.ConstructionError {
	t.Helper()
	require.Error(t, err)
	var ce *apperrors.ConstructionError
	require.True(t, errors.As(err, &ce), "expected ConstructionError, got %T: %v", err, err)
	assert.Equal(t, stage, ce.Stage)
	return ce
}

func TestAssetLoader_LoadDirectory(t *testing.T) {
	t.Parallel()
	f := newLoaderFixture(t, nil, services.LoaderOptions{})
	meta := archivetest.Metadata("Crate", "prop",
		entities.NewScript("spin", values.TriggerOnLoad, `setRotation(0, 90, 0)`))
	f.source.addFiles("crate", archivetest.Files(t, meta))

	a, err := f.loader.Load(context.Background(), dto.LoadAssetRequest{Ref: "crate"})
	require.NoError(t, err)
	assert.Equal(t, "Crate", a.Name())
	assert.Equal(t, meta.GUID, a.GUID())
	assert.True(t, a.IsInitialized())
	assert.Len(t, a.Scripts(), 1)
	assert.Equal(t, 1, f.cache.Len())

	again, err := f.loader.Load(context.Background(), dto.LoadAssetRequest{Ref: "crate"})
	require.NoError(t, err)
	assert.Same(t, a, again)
	assert.Equal(t, 1, f.source.fetches("crate"))
}

func TestAssetLoader_SealedArchive(t *testing.T) {
	t.Parallel()
	zipped := buildArchive(t, archivetest.Files(t, archivetest.Metadata("Vault", "prop")))
	sealed, err := fastEnvelope().Seal(zipped, "hunter2")
	require.NoError(t, err)

	t.Run("password override", func(t *testing.T) {
		t.Parallel()
		f := newLoaderFixture(t, nil, services.LoaderOptions{})
		f.source.addArchive("vault", sealed)

		a, err := f.loader.Load(context.Background(), dto.LoadAssetRequest{Ref: "vault", Password: "hunter2"})
		require.NoError(t, err)
		assert.Equal(t, "Vault", a.Name())
	})

	t.Run("password provider keyed by content hash", func(t *testing.T) {
		t.Parallel()
		f := newLoaderFixture(t, sources.StaticPasswords{services.ContentHash(sealed): "hunter2"}, services.LoaderOptions{})
		f.source.addArchive("vault", sealed)

		a, err := f.loader.Load(context.Background(), dto.LoadAssetRequest{Ref: "vault"})
		require.NoError(t, err)
		assert.Equal(t, "Vault", a.Name())
	})

	t.Run("no password", func(t *testing.T) {
		t.Parallel()
		f := newLoaderFixture(t, nil, services.LoaderOptions{})
		f.source.addArchive("vault", sealed)

		a, err := f.loader.Load(context.Background(), dto.LoadAssetRequest{Ref: "vault"})
		requireStage(t, err, services.StageDecrypt)
		assert.ErrorIs(t, err, ports.ErrNoPassword)
		assert.Nil(t, a)
		assert.Zero(t, f.cache.Len())
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		f := newLoaderFixture(t, nil, services.LoaderOptions{})
		f.source.addArchive("vault", sealed)

		_, err := f.loader.Load(context.Background(), dto.LoadAssetRequest{Ref: "vault", Password: "nope"})
		requireStage(t, err, services.StageDecrypt)
		assert.ErrorIs(t, err, archive.ErrWrongPassword)
	})
}

func TestAssetLoader_PlainArchive(t *testing.T) {
	t.Parallel()
	f := newLoaderFixture(t, nil, services.LoaderOptions{})
	f.source.addArchive("plain", buildArchive(t, archivetest.Files(t, archivetest.Metadata("Plain", ""))))

	a, err := f.loader.Load(context.Background(), dto.LoadAssetRequest{Ref: "plain"})
	require.NoError(t, err)
	assert.Equal(t, "prop", a.TypeName())
}

func TestAssetLoader_MissingPreviewCachesNothing(t *testing.T) {
	t.Parallel()
	f := newLoaderFixture(t, nil, services.LoaderOptions{})
	files := archivetest.Files(t, archivetest.Metadata("Crate", "prop"))
	delete(files, "preview.png")
	f.source.addArchive("crate", buildArchive(t, files))

	a, err := f.loader.Load(context.Background(), dto.LoadAssetRequest{Ref: "crate"})
	requireStage(t, err, services.StageLocate)
	var missing *entities.MissingComponentError
	assert.True(t, errors.As(err, &missing))
	assert.Nil(t, a)
	assert.Zero(t, f.cache.Len())
}

func TestAssetLoader_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(t *testing.T, f *loaderFixture)
		ref   string
		sdk   string
		stage string
	}{
		{
			name:  "empty reference",
			setup: func(*testing.T, *loaderFixture) {},
			ref:   "  ",
			stage: services.StageResolve,
		},
		{
			name:  "no source accepts",
			setup: func(*testing.T, *loaderFixture) {},
			ref:   "missing",
			stage: services.StageResolve,
		},
		{
			name: "corrupt archive",
			setup: func(t *testing.T, f *loaderFixture) {
				f.source.addArchive("bad", []byte("not a zip"))
			},
			ref:   "bad",
			stage: services.StageExtract,
		},
		{
			name: "invalid metadata",
			setup: func(t *testing.T, f *loaderFixture) {
				files := archivetest.Files(t, archivetest.Metadata("Crate", "prop"))
				files["metadata.json"] = []byte(`{"name": "no guid"}`)
				f.source.addFiles("bad", files)
			},
			ref:   "bad",
			stage: services.StageMetadata,
		},
		{
			name: "sdk constraint",
			setup: func(t *testing.T, f *loaderFixture) {
				meta := archivetest.Metadata("Future", "prop")
				meta.SDKVersion = ">= 2.0.0"
				f.source.addFiles("bad", archivetest.Files(t, meta))
			},
			ref:   "bad",
			sdk:   "1.4.0",
			stage: services.StageMetadata,
		},
		{
			name: "unknown type",
			setup: func(t *testing.T, f *loaderFixture) {
				f.source.addFiles("bad", archivetest.Files(t, archivetest.Metadata("Ship", "spaceship")))
			},
			ref:   "bad",
			stage: services.StageType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newLoaderFixture(t, nil, services.LoaderOptions{SDKVersion: tt.sdk})
			tt.setup(t, f)

			a, err := f.loader.Load(context.Background(), dto.LoadAssetRequest{Ref: tt.ref})
			requireStage(t, err, tt.stage)
			assert.Nil(t, a)
			assert.Zero(t, f.cache.Len())
		})
	}
}

func TestAssetLoader_ConcurrentLoadsShareConstruction(t *testing.T) {
	t.Parallel()
	f := newLoaderFixture(t, nil, services.LoaderOptions{})
	f.source.addFiles("crate", archivetest.Files(t, archivetest.Metadata("Crate", "prop")))

	const callers = 8
	results := make([]*entities.Asset, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := f.loader.Load(context.Background(), dto.LoadAssetRequest{Ref: "crate"})
			assert.NoError(t, err)
			results[i] = a
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.source.fetches("crate"))
	for _, a := range results {
		assert.Same(t, results[0], a)
	}
}

// gatedSource holds Fetch until release is closed, then reports the
// caller's context state.
type gatedSource struct {
	*memSource
	started chan struct{}
	release chan struct{}
}

func (s *gatedSource) Fetch(ctx context.Context, ref string) (*ports.RawAsset, error) {
	close(s.started)
	<-s.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.memSource.Fetch(ctx, ref)
}

func TestAssetLoader_ConstructionSurvivesCallerCancel(t *testing.T) {
	t.Parallel()
	src := &gatedSource{memSource: newMemSource(), started: make(chan struct{}), release: make(chan struct{})}
	src.addFiles("crate", archivetest.Files(t, archivetest.Metadata("Crate", "prop")))
	cache := memory.NewAssetCache()
	loader := services.NewAssetLoader(
		[]ports.AssetSource{src}, fastEnvelope(), nil,
		archive.NewZipCodec(0, 0), archive.Locator{}, archive.MetadataParser{},
		domainservices.NewDefaultAssetTypeRegistry("prop"), cache,
		services.LoaderOptions{}, quietLogger(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := loader.Load(ctx, dto.LoadAssetRequest{Ref: "crate"})
		done <- err
	}()

	<-src.started
	cancel()
	close(src.release)

	require.NoError(t, <-done)
	assert.Equal(t, 1, cache.Len(), "a construction shared by other callers is not abandoned")
}

func TestAssetLoader_LoadMany(t *testing.T) {
	t.Parallel()
	f := newLoaderFixture(t, nil, services.LoaderOptions{MaxConcurrent: 2})
	for _, name := range []string{"a", "b", "c"} {
		f.source.addFiles(name, archivetest.Files(t, archivetest.Metadata(strings.ToUpper(name), "prop")))
	}

	assets, err := f.loader.LoadMany(context.Background(), []dto.LoadAssetRequest{{Ref: "a"}, {Ref: "b"}, {Ref: "c"}})
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, "A", assets[0].Name())
	assert.Equal(t, "B", assets[1].Name())
	assert.Equal(t, "C", assets[2].Name())

	_, err = f.loader.LoadMany(context.Background(), []dto.LoadAssetRequest{{Ref: "a"}, {Ref: "missing"}})
	requireStage(t, err, services.StageResolve)
}

func TestAssetLoader_DestroyedAssetIsReconstructed(t *testing.T) {
	t.Parallel()
	f := newLoaderFixture(t, nil, services.LoaderOptions{})
	f.source.addFiles("crate", archivetest.Files(t, archivetest.Metadata("Crate", "prop")))
	ctx := context.Background()

	first, err := f.loader.Load(ctx, dto.LoadAssetRequest{Ref: "crate"})
	require.NoError(t, err)
	require.NoError(t, first.Destroy())

	second, err := f.loader.Load(ctx, dto.LoadAssetRequest{Ref: "crate"})
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.False(t, second.IsDestroyed())
	assert.Equal(t, 2, f.source.fetches("crate"))

	assert.True(t, f.loader.Evict("crate"))
	assert.False(t, f.loader.Evict("crate"))
}

func TestCacheKey(t *testing.T) {
	t.Parallel()
	guid := values.NewAssetGUID()

	assert.Equal(t, guid.String(), services.CacheKey(strings.ToUpper(guid.String())))
	assert.Equal(t, guid.String(), services.CacheKey(" "+guid.String()+" "))
	assert.Equal(t, services.CacheKey("assets/crate"), services.CacheKey("./assets/../assets/crate"))
	assert.Empty(t, services.CacheKey(""))
}

func TestContentHash(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		services.ContentHash([]byte("test")))
}
