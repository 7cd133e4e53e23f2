package main

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/addin-compat/internal/infrastructure/container"
	"github.com/spf13/cobra"
)

// CommandContext provides common command dependencies.
// Eliminates repetitive container initialization across CLI commands.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
	Globals   *globalOptions
}

// CommandHandler is a function that executes with initialized dependencies.
// Commands focus on business logic, not infrastructure setup.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withContainer wraps a command handler with container initialization.
// Handles common setup: config loading, logger creation, dependency injection.
func withContainer(g *globalOptions, handler CommandHandler) func(*cobra.Command, []string) error {
	return withContainerOptions(g, nil, handler)
}

// withContainerOptions is withContainer with a hook to adjust the container options.
func withContainerOptions(
	g *globalOptions,
	configure func(*cobra.Command, *container.Options) error,
	handler CommandHandler,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		g.bindFlags(cmd, "cache-dir", "system-config")

		// Initialize logger
		logger := slog.Default()

		opts := container.Options{
			SystemConfigPath: g.v.GetString("system-config"),
			CacheDir:         g.v.GetString("cache-dir"),
			Logger:           logger,
		}
		if configure != nil {
			if err := configure(cmd, &opts); err != nil {
				return err
			}
		}

		// Initialize container with dependencies
		c, err := container.New(opts)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		ctx := &CommandContext{
			Container: c,
			Logger:    logger,
			Context:   cmd.Context(),
			Globals:   g,
		}

		// Execute handler
		return handler(ctx, cmd, args)
	}
}
