package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BenWassa/hearth/internal/config"
	"github.com/BenWassa/hearth/internal/log"
	"github.com/BenWassa/hearth/internal/provider"
	"github.com/BenWassa/hearth/internal/provider/tmdb"
)

// app bundles what every command needs once configuration is loaded
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   provider.Client
	registry *provider.Registry
}

// loadApp builds the command dependencies. Tests swap it for a stub.
var loadApp = func(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := log.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	client := tmdb.NewFromConfig(cfg, logger)
	registry, err := provider.NewRegistry(client)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, client: client, registry: registry}, nil
}

// loadConfig reads the config file and env, then applies global flags
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath, config.OSEnv)
	} else {
		cfg, err = config.Load(config.OSEnv)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg, nil
}

// printJSON writes v to the command output as indented JSON
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
