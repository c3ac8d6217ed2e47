// Package redaction scrubs secrets from script output and report values.
package redaction

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/assetkit-dev/assetkit/internal/application/ports"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

const placeholder = "[REDACTED]"

// Redactor handles sanitization of sensitive data.
// All fields are read-only after construction, making it safe for concurrent use.
type Redactor struct {
	patterns []*regexp.Regexp
	paths    []string
	hashMode bool
	salt     string
	tracked  ports.SensitiveValueProvider

	// nil when disabled or when the bundled rules failed to load
	gitleaksDetector *detect.Detector
}

var _ hostenv.Redactor = (*Redactor)(nil)

// Config holds the configuration for the Redactor.
type Config struct {
	// Custom patterns to redact (e.g. "INT-[A-Z0-9]{16}")
	Patterns []string
	// Keys whose values are always redacted in structured values (e.g. "password")
	Paths []string
	// If true, replace with hash instead of [REDACTED]
	HashMode bool
	// Salt for hashing. If empty, hash is deterministic but unsalted.
	Salt string
	// If true, use only the regex patterns
	DisableGitleaks bool
	// Tracked supplies exact values to redact, such as resolved archive passwords
	Tracked ports.SensitiveValueProvider
}

// New creates a new Redactor with the given configuration.
func New(cfg Config) (*Redactor, error) {
	r := &Redactor{
		paths:    cfg.Paths,
		hashMode: cfg.HashMode,
		salt:     cfg.Salt,
		tracked:  cfg.Tracked,
		patterns: make([]*regexp.Regexp, 0, len(cfg.Patterns)+len(defaultPatterns)),
	}

	if !cfg.DisableGitleaks {
		if detector, err := newGitleaksDetector(); err == nil {
			r.gitleaksDetector = detector
		}
	}

	for _, p := range defaultPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile default pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile custom pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}

	return r, nil
}

// newGitleaksDetector creates a detector from the gitleaks default rules.
func newGitleaksDetector() (*detect.Detector, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(config.DefaultConfig)); err != nil {
		return nil, fmt.Errorf("failed to read gitleaks config: %w", err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gitleaks config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate gitleaks config: %w", err)
	}

	return detect.NewDetector(cfg), nil
}

// GitleaksEnabled reports whether the gitleaks rules are active.
func (r *Redactor) GitleaksEnabled() bool {
	return r.gitleaksDetector != nil
}

// Redact replaces secrets in a line of text. Tracked values are replaced
// first, then gitleaks findings, then the regex patterns.
func (r *Redactor) Redact(input string) string {
	if input == "" {
		return ""
	}

	result := input
	if r.tracked != nil {
		for _, secret := range r.tracked.AllValues() {
			if secret != "" && strings.Contains(result, secret) {
				result = strings.ReplaceAll(result, secret, r.replacement(secret))
			}
		}
	}
	if r.gitleaksDetector != nil {
		for _, finding := range r.gitleaksDetector.Detect(detect.Fragment{Raw: result}) {
			if finding.Secret == "" {
				continue
			}
			result = strings.ReplaceAll(result, finding.Secret, r.replacement(finding.Secret))
		}
	}

	for _, re := range r.patterns {
		result = re.ReplaceAllStringFunc(result, r.replacement)
	}
	return result
}

// RedactValue sanitizes a decoded value (script state, event payloads).
// Maps and slices are copied, never mutated.
func (r *Redactor) RedactValue(data any) any {
	return r.walk(data, "")
}

func (r *Redactor) walk(data any, currentPath string) any {
	switch v := data.(type) {
	case string:
		if r.isPathMatch(currentPath) {
			return r.replacement(v)
		}
		return r.Redact(v)

	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			nextPath := k
			if currentPath != "" {
				nextPath = currentPath + "." + k
			}
			out[k] = r.walk(val, nextPath)
		}
		return out

	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			// list items share the parent's path
			out[i] = r.walk(val, currentPath)
		}
		return out

	default:
		return v
	}
}

// isPathMatch matches exact paths and key suffixes: "password" matches
// "db.password".
func (r *Redactor) isPathMatch(path string) bool {
	for _, p := range r.paths {
		if p == path || strings.HasSuffix(path, "."+p) {
			return true
		}
	}
	return false
}

func (r *Redactor) replacement(secret string) string {
	if r.hashMode {
		return r.hash(secret)
	}
	return placeholder
}

// hash returns a truncated HMAC-SHA256 of the secret: [hmac:a1b2c3d4e5f6a7b8].
// Equal secrets map to equal hashes so occurrences can be correlated.
func (r *Redactor) hash(secret string) string {
	mac := hmac.New(sha256.New, []byte(r.salt))
	mac.Write([]byte(secret))
	return fmt.Sprintf("[hmac:%s]", hex.EncodeToString(mac.Sum(nil))[:16])
}

// defaultPatterns contains regexes for common secrets.
var defaultPatterns = []string{
	// AWS Access Key ID
	`\b((?:AKIA|ABIA|ACCA|ASIA)[0-9A-Z]{16})\b`,
	// Private key header
	`-----BEGIN [A-Z ]+ PRIVATE KEY-----`,
	// GitHub token
	`gh[pousr]_[A-Za-z0-9_]{36,255}`,
	// Slack token
	`xox[baprs]-([0-9a-zA-Z]{10,48})?`,
}
