// Package container provides dependency injection for the application.
package container

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/assetkit-dev/assetkit/internal/application/ports"
	"github.com/assetkit-dev/assetkit/internal/application/services"
	domainservices "github.com/assetkit-dev/assetkit/internal/domain/services"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/archive"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/persistence/memory"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/persistence/redis"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/redaction"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/secrets"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/sensitivedata"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/sources"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/system"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
	"github.com/assetkit-dev/assetkit/internal/version"
)

// Container holds all application dependencies.
type Container struct {
	systemCfg *system.Config
	logger    *slog.Logger
	services  *hostenv.Services
	cache     *memory.AssetCache
	envelope  *archive.Envelope
	codec     *archive.ZipCodec
	loader    *services.AssetLoader
	prompter  *sources.TerminalPrompter
	sensitive *sensitivedata.Provider
	redis     *goredis.Client

	runAssetUseCase     *services.RunAssetUseCase
	checkScriptsUseCase *services.CheckScriptsUseCase
	inspectAssetUseCase *services.InspectAssetUseCase
	packAssetUseCase    *services.PackAssetUseCase
}

// Options configure the container.
type Options struct {
	Logger *slog.Logger
	// SystemConfigPath defaults to ~/.assetkit/config.yaml
	SystemConfigPath string
	// Config skips loading SystemConfigPath when set
	Config *system.Config
	// Interactive enables the terminal password prompt as the last
	// password provider.
	Interactive bool
	// Forwarder receives bridge requests; nil keeps the placeholder contract
	Forwarder hostenv.Forwarder
}

// New creates a new dependency injection container.
func New(ctx context.Context, opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	// Load system config
	systemCfg := opts.Config
	if systemCfg == nil {
		path := opts.SystemConfigPath
		if path == "" {
			path = system.DefaultPath()
		}
		cfg, err := system.NewConfigLoader().Load(path)
		if err != nil {
			return nil, err
		}
		systemCfg = cfg
	}

	c := &Container{
		systemCfg: systemCfg,
		logger:    opts.Logger,
		cache:     memory.NewAssetCache(),
		envelope:  archive.NewEnvelope(),
		codec:     archive.NewZipCodec(systemCfg.Limits.MaxArchiveBytes, systemCfg.Limits.MaxUncompressedBytes),
		prompter:  sources.NewTerminalPrompter(),
		sensitive: sensitivedata.NewProvider(),
	}

	// Initialize redactor
	redactor, err := redaction.New(redaction.Config{
		Patterns:        systemCfg.Redaction.Patterns,
		Paths:           systemCfg.Redaction.Paths,
		HashMode:        systemCfg.Redaction.HashMode.Enabled,
		Salt:            systemCfg.Redaction.HashMode.Salt,
		DisableGitleaks: systemCfg.Redaction.DisableGitleaks,
		Tracked:         c.sensitive,
	})
	if err != nil {
		return nil, err
	}

	// Host services shared by every session
	c.services = &hostenv.Services{
		Logger:    opts.Logger,
		Forwarder: opts.Forwarder,
		Assets:    c.cache,
		Redactor:  redactor,
	}
	if systemCfg.State.Backend == system.StateBackendRedis {
		rdb, err := redis.Connect(ctx, redis.Options{Addr: systemCfg.State.RedisAddr})
		if err != nil {
			return nil, err
		}
		c.redis = rdb
		c.services.GlobalState = redis.NewStateStore(rdb, systemCfg.State.KeyPrefix, "global")
	}
	c.services = c.services.WithDefaults()

	// Asset sources, local first
	httpCfg := sources.HTTPConfig{
		Timeout:    systemCfg.CDNTimeout(),
		MaxRetries: systemCfg.CDN.MaxRetries,
		Logger:     opts.Logger,
	}
	assetSources := []ports.AssetSource{sources.NewLocalSource(systemCfg.Limits.MaxArchiveBytes)}
	if systemCfg.CDN.BaseURL != "" {
		cdn, err := sources.NewCDNSource(systemCfg.CDN.BaseURL, systemCfg.Limits.MaxArchiveBytes, httpCfg)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("cdn: %w", err)
		}
		assetSources = append(assetSources, cdn)
	}

	// Password providers: static, key service, terminal. Whatever they
	// return is resolved against the secrets config and tracked for redaction.
	chain := sources.ChainPasswords{sources.StaticPasswords(systemCfg.Passwords)}
	if systemCfg.CDN.KeyServiceURL != "" {
		keys, err := sources.NewKeyService(systemCfg.CDN.KeyServiceURL, httpCfg)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("key service: %w", err)
		}
		chain = append(chain, keys)
	}
	if opts.Interactive {
		chain = append(chain, c.prompter)
	}
	resolver := secrets.NewResolver(&systemCfg.Secrets, c.sensitive)
	passwords := secrets.NewPasswords(chain, resolver, c.sensitive)

	// Asset construction
	locator := archive.Locator{}
	parser := archive.MetadataParser{}
	types := domainservices.NewDefaultAssetTypeRegistry(systemCfg.AssetTypes.Default)
	c.loader = services.NewAssetLoader(
		assetSources,
		c.envelope,
		passwords,
		c.codec,
		locator,
		parser,
		types,
		c.cache,
		services.LoaderOptions{SDKVersion: version.Version},
		opts.Logger,
	)

	// Wire up use cases
	c.runAssetUseCase = services.NewRunAssetUseCase(c.loader, c.services, opts.Logger)
	c.checkScriptsUseCase = services.NewCheckScriptsUseCase(c.loader, c.services, opts.Logger)
	c.inspectAssetUseCase = services.NewInspectAssetUseCase(c.loader, redactor, opts.Logger)
	c.packAssetUseCase = services.NewPackAssetUseCase(
		sources.NewLocalSource(systemCfg.Limits.MaxArchiveBytes),
		c.codec,
		c.envelope,
		locator,
		parser,
		opts.Logger,
	)

	return c, nil
}

// Close releases external connections.
func (c *Container) Close() {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Warn("failed to close redis client", "error", err)
		}
		c.redis = nil
	}
}

// RunAssetUseCase returns the run asset use case.
func (c *Container) RunAssetUseCase() *services.RunAssetUseCase {
	return c.runAssetUseCase
}

// CheckScriptsUseCase returns the check scripts use case.
func (c *Container) CheckScriptsUseCase() *services.CheckScriptsUseCase {
	return c.checkScriptsUseCase
}

// InspectAssetUseCase returns the inspect asset use case.
func (c *Container) InspectAssetUseCase() *services.InspectAssetUseCase {
	return c.inspectAssetUseCase
}

// PackAssetUseCase returns the pack asset use case.
func (c *Container) PackAssetUseCase() *services.PackAssetUseCase {
	return c.packAssetUseCase
}

// Loader returns the asset loader.
func (c *Container) Loader() *services.AssetLoader {
	return c.loader
}

// Services returns the host services handed to scripts.
func (c *Container) Services() *hostenv.Services {
	return c.services
}

// Prompter returns the terminal password prompter.
func (c *Container) Prompter() *sources.TerminalPrompter {
	return c.prompter
}

// SystemConfig returns the system configuration.
func (c *Container) SystemConfig() *system.Config {
	return c.systemCfg
}

// SensitiveValues returns the registry of secrets handled so far.
func (c *Container) SensitiveValues() *sensitivedata.Provider {
	return c.sensitive
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}
