package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/site-crawler/pkg/config"
	"github.com/user/site-crawler/pkg/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "crawler",
		Short:        "Breadth-first site crawler that saves every page under a start URL",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "env-style config file (default .env, optional)")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(newCrawlCmd(), newServeCmd())
	return root
}

// loadConfig resolves configuration for cmd and builds its logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	file, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(cmd.Flags(), file)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cmd.OutOrStdout())
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
