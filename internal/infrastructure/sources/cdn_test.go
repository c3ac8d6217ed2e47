package sources_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/assetkit-dev/assetkit/internal/application/errors"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/sources"
)

var fastRetries = sources.HTTPConfig{
	Timeout:      time.Second,
	MaxRetries:   3,
	RetryWaitMin: time.Millisecond,
	RetryWaitMax: 5 * time.Millisecond,
}

func TestCDNSource_Fetch(t *testing.T) {
	t.Parallel()
	guid := values.NewAssetGUID()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/assets/"+guid.String() {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("archive"))
	}))
	defer srv.Close()

	src, err := sources.NewCDNSource(srv.URL+"/v1/", 0, fastRetries)
	require.NoError(t, err)
	assert.True(t, src.Accepts(guid.String()))
	assert.False(t, src.Accepts("./crate.zip"))

	raw, err := src.Fetch(context.Background(), guid.String())
	require.NoError(t, err)
	assert.Equal(t, []byte("archive"), raw.Archive)

	_, err = src.Fetch(context.Background(), values.NewAssetGUID().String())
	assert.ErrorIs(t, err, sources.ErrNotFound)
}

func TestCDNSource_RetriesTransientFailures(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	src, err := sources.NewCDNSource(srv.URL, 0, fastRetries)
	require.NoError(t, err)

	raw, err := src.Fetch(context.Background(), values.NewAssetGUID().String())
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), raw.Archive)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCDNSource_GivesUp(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := fastRetries
	cfg.MaxRetries = 1
	src, err := sources.NewCDNSource(srv.URL, 0, cfg)
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), values.NewAssetGUID().String())
	assert.ErrorContains(t, err, "503")
	assert.Equal(t, int32(2), calls.Load())
}

func TestCDNSource_SizeLimit(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	src, err := sources.NewCDNSource(srv.URL, 4, fastRetries)
	require.NoError(t, err)
	_, err = src.Fetch(context.Background(), values.NewAssetGUID().String())
	assert.ErrorContains(t, err, "limit")
}

func TestCDNSource_Config(t *testing.T) {
	t.Parallel()
	src, err := sources.NewCDNSource("", 0, sources.HTTPConfig{})
	require.NoError(t, err)
	assert.False(t, src.Accepts(values.NewAssetGUID().String()))

	_, err = sources.NewCDNSource("ftp://cdn.example", 0, sources.HTTPConfig{})
	assert.Error(t, err)
}

func TestCDNSource_AccessDenied(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src, err := sources.NewCDNSource(srv.URL, 0, fastRetries)
	require.NoError(t, err)
	_, err = src.Fetch(context.Background(), values.NewAssetGUID().String())

	var permErr *apperrors.PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Contains(t, permErr.Reason, "403")
	assert.Equal(t, int32(1), hits.Load(), "4xx is not retried")
}
