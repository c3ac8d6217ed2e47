package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	apperrors "github.com/assetkit-dev/assetkit/internal/application/errors"
	"github.com/assetkit-dev/assetkit/internal/application/ports"
)

// StaticPasswords maps content hashes to passwords, typically from the
// system config.
type StaticPasswords map[string]string

var _ ports.PasswordProvider = StaticPasswords(nil)

// Password looks up the hash case-insensitively.
func (p StaticPasswords) Password(_ context.Context, contentHash string) (string, error) {
	for hash, pw := range p {
		if strings.EqualFold(hash, contentHash) {
			return pw, nil
		}
	}
	return "", ports.ErrNoPassword
}

// KeyService fetches passwords from GET {base}/keys/{hash}, which answers
// {"password": "..."}.
type KeyService struct {
	base   *url.URL
	client *retryablehttp.Client
}

var _ ports.PasswordProvider = (*KeyService)(nil)

// NewKeyService creates a key service client.
func NewKeyService(baseURL string, cfg HTTPConfig) (*KeyService, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid key service url %q", baseURL)
	}
	return &KeyService{base: u, client: newHTTPClient(cfg)}, nil
}

type keyResponse struct {
	Password string `json:"password"`
}

// Password asks the key service for the password of contentHash.
func (k *KeyService) Password(ctx context.Context, contentHash string) (string, error) {
	endpoint := k.base.JoinPath("keys", strings.ToLower(contentHash)).String()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("key service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ports.ErrNoPassword
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", apperrors.NewPermissionError("key service answered " + resp.Status)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("key service: unexpected status %s", resp.Status)
	}

	var body keyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return "", fmt.Errorf("key service: decode response: %w", err)
	}
	if body.Password == "" {
		return "", ports.ErrNoPassword
	}
	return body.Password, nil
}

// ChainPasswords asks each provider in order until one has a password.
type ChainPasswords []ports.PasswordProvider

var _ ports.PasswordProvider = ChainPasswords(nil)

// Password returns the first password found. Errors other than
// ErrNoPassword stop the chain.
func (c ChainPasswords) Password(ctx context.Context, contentHash string) (string, error) {
	for _, p := range c {
		if p == nil {
			continue
		}
		pw, err := p.Password(ctx, contentHash)
		if err == nil {
			return pw, nil
		}
		if !errors.Is(err, ports.ErrNoPassword) {
			return "", err
		}
	}
	return "", ports.ErrNoPassword
}
