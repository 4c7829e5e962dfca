package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/readlark/readlark/internal/decodability"
	"github.com/readlark/readlark/internal/mcptool"
	"github.com/readlark/readlark/pkg/phonics"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the authoring tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The protocol owns stdout; logs go to stderr like everywhere else.
	slog.SetDefault(newLogger(cfg.Server.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	threshold := cfg.Validation.Threshold
	if threshold == 0 {
		threshold = decodability.DefaultThreshold
	}
	opts := []mcptool.Option{mcptool.WithThreshold(threshold)}

	if cfg.Storage.PostgresDSN != "" {
		store, closePool, err := openCurriculumStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closePool()
		opts = append(opts, mcptool.WithCurriculumStore(store))
	}

	srv := mcptool.New(phonics.DefaultInventory(), opts...)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
