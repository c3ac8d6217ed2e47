package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assetkit-dev/assetkit/internal/application/ports"
	"github.com/assetkit-dev/assetkit/internal/application/services"
	domainservices "github.com/assetkit-dev/assetkit/internal/domain/services"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/archive"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/persistence/memory"
)

var errUnavailable = errors.New("source unavailable")

// memSource serves raw assets from memory and counts fetches per ref.
type memSource struct {
	mu     sync.Mutex
	assets map[string]*ports.RawAsset
	calls  map[string]int
}

func newMemSource() *memSource {
	return &memSource{
		assets: make(map[string]*ports.RawAsset),
		calls:  make(map[string]int),
	}
}

func (s *memSource) addFiles(ref string, files map[string][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[ref] = &ports.RawAsset{Origin: ref, Files: maps.Clone(files)}
}

func (s *memSource) addArchive(ref string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[ref] = &ports.RawAsset{Origin: ref, Archive: data}
}

func (s *memSource) fetches(ref string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[ref]
}

func (s *memSource) Name() string { return "memory" }

func (s *memSource) Accepts(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.assets[ref]
	return ok
}

func (s *memSource) Fetch(_ context.Context, ref string) (*ports.RawAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[ref]++
	raw, ok := s.assets[ref]
	if !ok {
		return nil, errUnavailable
	}
	return raw, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastEnvelope keeps key derivation cheap in tests.
func fastEnvelope() *archive.Envelope {
	return &archive.Envelope{KDF: archive.KDFParams{Time: 1, Memory: 8 * 1024, Threads: 1}}
}

type loaderFixture struct {
	source *memSource
	cache  *memory.AssetCache
	loader *services.AssetLoader
}

func newLoaderFixture(t *testing.T, passwords ports.PasswordProvider, opts services.LoaderOptions) *loaderFixture {
	t.Helper()
	f := &loaderFixture{
		source: newMemSource(),
		cache:  memory.NewAssetCache(),
	}
	f.loader = services.NewAssetLoader(
		[]ports.AssetSource{f.source},
		fastEnvelope(),
		passwords,
		archive.NewZipCodec(0, 0),
		archive.Locator{},
		archive.MetadataParser{},
		domainservices.NewDefaultAssetTypeRegistry("prop"),
		f.cache,
		opts,
		quietLogger(),
	)
	return f
}

func buildArchive(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	data, err := archive.NewZipCodec(0, 0).Build(files)
	require.NoError(t, err)
	return data
}
