package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	apperrors "github.com/assetkit-dev/assetkit/internal/application/errors"
	"github.com/assetkit-dev/assetkit/internal/application/ports"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
)

// ErrNotFound is returned when the CDN has no asset for a GUID.
var ErrNotFound = errors.New("asset not found")

// HTTPConfig configures the retrying HTTP client shared by the CDN source
// and the key service.
type HTTPConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Backoff      BackoffType
	Logger       *slog.Logger
}

func newHTTPClient(cfg HTTPConfig) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = cfg.Timeout
	if cfg.Timeout <= 0 {
		client.HTTPClient.Timeout = 30 * time.Second
	}
	client.RetryMax = max(cfg.MaxRetries, 0)
	if cfg.RetryWaitMin > 0 {
		client.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		client.RetryWaitMax = cfg.RetryWaitMax
	}
	strategy := cfg.Backoff
	if strategy == "" {
		strategy = BackoffExponential
	}
	client.Backoff = retryBackoff(strategy)
	client.CheckRetry = checkRetry
	client.ErrorHandler = finalResponse
	client.Logger = nil
	if cfg.Logger != nil {
		client.Logger = cfg.Logger
	}
	return client
}

// finalResponse hands the last response to the caller so it can report the
// status once retries are exhausted.
func finalResponse(resp *http.Response, err error, attempts int) (*http.Response, error) {
	if resp != nil {
		return resp, nil
	}
	return nil, fmt.Errorf("giving up after %d attempt(s): %w", attempts, err)
}

// CDNSource downloads archives from GET {base}/assets/{guid}.
type CDNSource struct {
	base     *url.URL
	client   *retryablehttp.Client
	maxBytes int64
}

var _ ports.AssetSource = (*CDNSource)(nil)

// NewCDNSource creates a CDN source. An empty base URL yields a source that
// accepts nothing.
func NewCDNSource(baseURL string, maxBytes int64, cfg HTTPConfig) (*CDNSource, error) {
	s := &CDNSource{client: newHTTPClient(cfg), maxBytes: maxBytes}
	if s.maxBytes <= 0 {
		s.maxBytes = DefaultMaxBytes
	}
	if baseURL == "" {
		return s, nil
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid cdn base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid cdn base url %q: scheme must be http or https", baseURL)
	}
	s.base = u
	return s, nil
}

// Name returns "cdn"
func (s *CDNSource) Name() string { return "cdn" }

// Accepts reports whether a base URL is configured and ref is a GUID.
func (s *CDNSource) Accepts(ref string) bool {
	if s.base == nil {
		return false
	}
	_, err := values.ParseAssetGUID(ref)
	return err == nil
}

// Fetch downloads the archive for the GUID in ref.
func (s *CDNSource) Fetch(ctx context.Context, ref string) (*ports.RawAsset, error) {
	if s.base == nil {
		return nil, errors.New("cdn base url not configured")
	}
	guid, err := values.ParseAssetGUID(ref)
	if err != nil {
		return nil, err
	}
	endpoint := s.base.JoinPath("assets", guid.String()).String()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/zip, application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, guid)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.NewPermissionError(fmt.Sprintf("cdn answered %s for %s", resp.Status, guid))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("download %s: unexpected status %s", endpoint, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("asset %s exceeds the %d byte limit", guid, s.maxBytes)
	}
	return &ports.RawAsset{Origin: endpoint, Archive: data}, nil
}
