package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/assetkit-dev/assetkit/internal/infrastructure/container"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/sensitivedata"
	"github.com/assetkit-dev/assetkit/internal/infrastructure/sources"
)

// CommandContext provides common command dependencies.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
}

// CommandHandler is a function that executes with initialized dependencies.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withContainer wraps a command handler with container initialization:
// system config loading, logger and dependency injection.
func withContainer(handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		c, err := container.New(ctx, container.Options{
			SystemConfigPath: viper.GetString("system_config"),
			Logger:           logger,
			Interactive:      sources.NewTerminalPrompter().IsInteractive(),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer c.Close()

		err = handler(&CommandContext{
			Container: c,
			Logger:    logger,
			Context:   ctx,
		}, cmd, args)
		// Errors may quote a resolved password.
		return sensitivedata.SafeError(err, c.SensitiveValues())
	}
}
