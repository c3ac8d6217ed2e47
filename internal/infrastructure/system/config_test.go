package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/assetkit-dev/assetkit/internal/application/errors"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestConfigLoader_Load_FileNotExists(t *testing.T) {
	cfg, err := NewConfigLoader().Load("/nonexistent/config.yaml")

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())

	mode, err := cfg.ExecutionMode()
	require.NoError(t, err)
	assert.Equal(t, values.ModeBoth, mode)
	assert.Equal(t, 5*time.Millisecond, cfg.Budget())
	assert.Equal(t, 250*time.Millisecond, cfg.HardLimit())
}

func TestConfigLoader_Load_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
execution:
  mode: EditorOnly
  context: editor
  budget_ms: 8
  restart_running: true

cdn:
  base_url: https://cdn.example.com
  key_service_url: https://keys.example.com
  max_retries: 5

passwords:
  9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08: hunter2

state:
  backend: redis
  redis_addr: localhost:6379

redaction:
  patterns:
    - "password\\s*=\\s*\\S+"
  paths:
    - "password"
  hash_mode:
    enabled: true
    salt: "test-salt"
`)

	cfg, err := NewConfigLoader().Load(path)
	require.NoError(t, err)

	mode, err := cfg.ExecutionMode()
	require.NoError(t, err)
	assert.Equal(t, values.ModeEditorOnly, mode)
	hc, err := cfg.HostContext()
	require.NoError(t, err)
	assert.Equal(t, values.ContextEditor, hc)
	assert.Equal(t, 8*time.Millisecond, cfg.Budget())
	assert.Equal(t, 250*time.Millisecond, cfg.HardLimit(), "unset keys keep defaults")
	assert.True(t, cfg.Execution.RestartRunning)

	assert.Equal(t, "https://cdn.example.com", cfg.CDN.BaseURL)
	assert.Equal(t, 5, cfg.CDN.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.CDNTimeout())
	assert.Equal(t, "hunter2", cfg.Passwords["9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"])

	assert.Equal(t, StateBackendRedis, cfg.State.Backend)
	assert.Equal(t, "assetkit:", cfg.State.KeyPrefix)

	assert.Len(t, cfg.Redaction.Patterns, 1)
	assert.True(t, cfg.Redaction.HashMode.Enabled)
	assert.Equal(t, "test-salt", cfg.Redaction.HashMode.Salt)
}

func TestConfigLoader_Load_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		aspect string
	}{
		{"bad mode", "execution:\n  mode: sometimes\n", "execution"},
		{"bad context", "execution:\n  context: cloud\n", "execution"},
		{"redis without addr", "state:\n  backend: redis\n", "state"},
		{"unknown backend", "state:\n  backend: etcd\n", "state"},
		{"zero limit", "limits:\n  max_archive_bytes: 0\n", "limits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfigLoader().Load(writeConfig(t, tt.body))
			var cfgErr *apperrors.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.aspect, cfgErr.Aspect)
		})
	}
}

func TestConfigLoader_Load_Malformed(t *testing.T) {
	_, err := NewConfigLoader().Load(writeConfig(t, "execution: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse system config")
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(DefaultPath()))
}
