// Package sensitivedata keeps the registry of secret values the process has
// handled, so they can be scrubbed from anything it prints.
package sensitivedata

import (
	"slices"
	"strings"
	"sync"

	"github.com/assetkit-dev/assetkit/internal/application/ports"
)

// Placeholder replaces tracked values.
const Placeholder = "[REDACTED]"

// Provider is a thread-safe registry of sensitive values.
type Provider struct {
	mu     sync.RWMutex
	values []string
	seen   map[string]struct{}
}

var _ ports.SensitiveValueProvider = (*Provider)(nil)

// NewProvider creates a new sensitive data provider.
func NewProvider() *Provider {
	return &Provider{
		values: make([]string, 0, 8),
		seen:   make(map[string]struct{}),
	}
}

// Track registers a sensitive value. Empty and repeated values are ignored.
func (p *Provider) Track(value string) {
	if value == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.seen[value]; ok {
		return
	}
	p.seen[value] = struct{}{}
	p.values = append(p.values, value)
	// Longest first, so a value that contains another is replaced whole.
	slices.SortStableFunc(p.values, func(a, b string) int { return len(b) - len(a) })
}

// AllValues returns a copy of the tracked values, longest first.
func (p *Provider) AllValues() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.values)
}

// Scrub replaces every tracked value in s.
func (p *Provider) Scrub(s string) string {
	return scrub(s, p.AllValues())
}

func scrub(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret != "" && strings.Contains(s, secret) {
			s = strings.ReplaceAll(s, secret, Placeholder)
		}
	}
	return s
}
