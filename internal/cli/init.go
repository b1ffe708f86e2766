// Package cli wires configuration, logging and the data backend into the
// autosales commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"autosales/internal/backend"
	"autosales/internal/config"
	applog "autosales/internal/log"
)

// LoadEnvFile loads a .env file for local development. A missing default
// file is not an error; an explicitly named one must exist.
func LoadEnvFile(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// SetupLogger builds the process logger from config and makes it the
// slog default.
func SetupLogger(cfg *config.Config, cmd *cobra.Command) (*applog.Logger, error) {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
		Output:    cmd.ErrOrStderr(),
	})
	applog.SetDefault(logger)
	return logger, nil
}

// LoadAndValidateConfig reads the environment, applies flag overrides and
// validates the result.
func LoadAndValidateConfig(cmd *cobra.Command, overrides ...func(*config.Config)) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg := config.Load()
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat, _ = cmd.Flags().GetString("log-format")
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed, _ = cmd.Flags().GetUint64("seed")
	}
	if cmd.Flags().Changed("backend") {
		cfg.DataBackend, _ = cmd.Flags().GetString("backend")
	}
	for _, o := range overrides {
		o(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// InitBackend builds the sales table the config selects.
func InitBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger.Logger.With(applog.FieldComponent, applog.ComponentBackend)).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return result, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("seed", 0, "seed for the synthetic table (0 = random; overrides SEED)")
	cmd.Flags().String("backend", "", "data backend: memory or sqlite (overrides DATA_BACKEND)")
}
