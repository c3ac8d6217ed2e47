// Package secrets resolves the "secret:NAME" references that the system
// config may use in place of literal archive passwords.
package secrets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/assetkit-dev/assetkit/internal/application/ports"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/system"
)

// ReferencePrefix marks a config value as a secret reference.
const ReferencePrefix = "secret:"

// Resolver implements ports.SecretResolver.
// Resolved values are cached and tracked for redaction.
type Resolver struct {
	config   *system.SecretsConfig
	provider ports.SensitiveValueProvider
	cache    map[string]string
	mu       sync.RWMutex
}

var _ ports.SecretResolver = (*Resolver)(nil)

// NewResolver creates a new secret resolver.
func NewResolver(config *system.SecretsConfig, provider ports.SensitiveValueProvider) *Resolver {
	return &Resolver{
		config:   config,
		provider: provider,
		cache:    make(map[string]string),
	}
}

// Resolve returns the secret value by name.
// It checks sources in order: Local -> Env -> Files.
func (r *Resolver) Resolve(name string) (string, error) {
	r.mu.RLock()
	if value, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return value, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after write lock
	if value, ok := r.cache[name]; ok {
		return value, nil
	}

	value, err := r.resolveFromSources(name)
	if err != nil {
		return "", err
	}

	r.cache[name] = value
	if r.provider != nil {
		r.provider.Track(value)
	}
	return value, nil
}

// Expand resolves value when it is a reference and returns it unchanged otherwise.
func (r *Resolver) Expand(value string) (string, error) {
	name, ok := strings.CutPrefix(value, ReferencePrefix)
	if !ok {
		return value, nil
	}
	return r.Resolve(strings.TrimSpace(name))
}

func (r *Resolver) resolveFromSources(name string) (string, error) {
	if r.config == nil {
		return "", fmt.Errorf("secret %q: secrets config not present", name)
	}

	// 1. Local secrets (dev only)
	if value, ok := r.config.Local[name]; ok {
		return value, nil
	}

	// 2. Env var mapping
	if envVar, ok := r.config.Env[name]; ok {
		value := os.Getenv(envVar)
		if value == "" {
			return "", fmt.Errorf("secret %q: env var %q is not set", name, envVar)
		}
		return value, nil
	}

	// 3. File mapping, opened through os.Root to rule out traversal
	if filePath, ok := r.config.Files[name]; ok {
		root, err := os.OpenRoot(filepath.Dir(filePath))
		if err != nil {
			return "", fmt.Errorf("secret %q: failed to open directory: %w", name, err)
		}
		defer func() { _ = root.Close() }()

		f, err := root.Open(filepath.Base(filePath))
		if err != nil {
			return "", fmt.Errorf("secret %q: failed to open file: %w", name, err)
		}
		defer func() { _ = f.Close() }()

		data, err := io.ReadAll(f)
		if err != nil {
			return "", fmt.Errorf("secret %q: reading file %q: %w", name, filePath, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	return "", fmt.Errorf("secret %q not found in local, env, or files", name)
}

// Passwords wraps a password provider: references it returns are resolved
// and every password handed out is tracked for redaction.
type Passwords struct {
	next     ports.PasswordProvider
	resolver *Resolver
	provider ports.SensitiveValueProvider
}

var _ ports.PasswordProvider = (*Passwords)(nil)

// NewPasswords creates a resolving, tracking password provider.
func NewPasswords(next ports.PasswordProvider, resolver *Resolver, provider ports.SensitiveValueProvider) *Passwords {
	return &Passwords{next: next, resolver: resolver, provider: provider}
}

// Password implements ports.PasswordProvider.
func (p *Passwords) Password(ctx context.Context, contentHash string) (string, error) {
	pw, err := p.next.Password(ctx, contentHash)
	if err != nil {
		return "", err
	}
	if p.resolver != nil {
		if pw, err = p.resolver.Expand(pw); err != nil {
			return "", err
		}
	}
	if p.provider != nil {
		p.provider.Track(pw)
	}
	return pw, nil
}
