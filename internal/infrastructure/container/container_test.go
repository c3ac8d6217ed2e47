package container_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/archive/archivetest"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/container"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/system"
)

func testConfig() *system.Config {
	cfg := system.DefaultConfig()
	cfg.Redaction.DisableGitleaks = true
	return cfg
}

func newContainer(t *testing.T, cfg *system.Config) *container.Container {
	t.Helper()
	c, err := container.New(context.Background(), container.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: cfg,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNew_WiresUseCases(t *testing.T) {
	t.Parallel()
	c := newContainer(t, testConfig())

	assert.NotNil(t, c.RunAssetUseCase())
	assert.NotNil(t, c.CheckScriptsUseCase())
	assert.NotNil(t, c.InspectAssetUseCase())
	assert.NotNil(t, c.PackAssetUseCase())
	assert.NotNil(t, c.Loader())
	assert.NotNil(t, c.Prompter())
	assert.NotNil(t, c.Services().GlobalState)
	assert.Equal(t, "prop", c.SystemConfig().AssetTypes.Default)
}

func TestNew_LoadsSystemConfigFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("asset_types:\n  default: interactive\nredaction:\n  disable_gitleaks: true\n"), 0o600))

	c, err := container.New(context.Background(), container.Options{SystemConfigPath: path})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "interactive", c.SystemConfig().AssetTypes.Default)
}

func TestNew_RejectsBadCDN(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.CDN.BaseURL = "ftp://cdn.example.com"

	_, err := container.New(context.Background(), container.Options{Config: cfg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cdn")
}

func TestContainer_PackThenRun(t *testing.T) {
	t.Parallel()
	c := newContainer(t, testConfig())
	ctx := context.Background()

	dir := t.TempDir()
	meta := archivetest.Metadata("Crate", "prop",
		entities.NewScript("spin", values.TriggerOnLoad, `setRotation(0, 90, 0) log("spun")`))
	for name, data := range archivetest.Files(t, meta) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}
	out := filepath.Join(t.TempDir(), "crate.akpkg")

	_, err := c.PackAssetUseCase().Execute(ctx, dto.PackAssetRequest{SourceDir: dir, OutputPath: out})
	require.NoError(t, err)

	resp, err := c.RunAssetUseCase().Execute(ctx, dto.RunAssetRequest{
		Asset:     dto.LoadAssetRequest{Ref: out},
		Execution: dto.ExecutionOptions{Mode: values.ModeBoth, Context: values.ContextRuntime},
		Frames:    2,
	})
	require.NoError(t, err)
	require.Len(t, resp.Scripts, 1)
	assert.Equal(t, dto.ScriptDone, resp.Scripts[0].Status)
	assert.Equal(t, []string{"spun"}, resp.Scripts[0].Output)
}

func TestContainer_SecretPasswordsAreRedacted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	meta := archivetest.Metadata("Vault", "prop",
		entities.NewScript("leak", values.TriggerOnLoad, `log("password is open-sesame")`))
	for name, data := range archivetest.Files(t, meta) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}
	out := filepath.Join(t.TempDir(), "vault.akpkg")

	packer := newContainer(t, testConfig())
	packed, err := packer.PackAssetUseCase().Execute(ctx, dto.PackAssetRequest{SourceDir: dir, OutputPath: out, Password: "open-sesame"})
	require.NoError(t, err)
	require.True(t, packed.Sealed)

	cfg := testConfig()
	cfg.Passwords[packed.ContentHash] = "secret:vault"
	cfg.Secrets.Local["vault"] = "open-sesame"
	c := newContainer(t, cfg)

	resp, err := c.RunAssetUseCase().Execute(ctx, dto.RunAssetRequest{
		Asset:     dto.LoadAssetRequest{Ref: out},
		Execution: dto.ExecutionOptions{Mode: values.ModeBoth, Context: values.ContextRuntime},
	})
	require.NoError(t, err)
	require.Len(t, resp.Scripts, 1)
	assert.Equal(t, []string{"password is [REDACTED]"}, resp.Scripts[0].Output)
	assert.Contains(t, c.SensitiveValues().AllValues(), "open-sesame")
}
