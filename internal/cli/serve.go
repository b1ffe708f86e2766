package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"autosales/internal/amqp"
	"autosales/internal/cache"
	"autosales/internal/config"
	"autosales/internal/dashboard"
	apphttp "autosales/internal/http"
	applog "autosales/internal/log"
	"autosales/internal/view"
)

const (
	shutdownTimeout = 30 * time.Second
	cleanupInterval = time.Minute
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadAndValidateConfig(cmd, func(c *config.Config) {
				if cmd.Flags().Changed("port") {
					c.Port, _ = cmd.Flags().GetString("port")
				}
				if cmd.Flags().Changed("debug") {
					c.Debug, _ = cmd.Flags().GetBool("debug")
				}
			})
			if err != nil {
				return err
			}
			logger, err := SetupLogger(cfg, cmd)
			if err != nil {
				return err
			}

			ctx, stop := SignalContext(cmd.Context())
			defer stop()
			return runServer(ctx, cfg, logger)
		},
	}
	addDataFlags(cmd)
	cmd.Flags().String("port", "", "listen port (overrides PORT)")
	cmd.Flags().Bool("debug", false, "reload templates from ./web on every request (overrides DEBUG)")
	return cmd
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	result, err := InitBackend(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", applog.FieldError, err)
			}
		}
	}()

	svc := view.NewService(result.Backend, view.Options{
		CacheSize: view.DefaultOptions().CacheSize,
		CacheTTL:  cfg.ChartCacheTTL,
	})
	sessions := dashboard.NewSessionStore(cfg.SessionMax, cfg.SessionTTL)

	caches := cache.NewManager()
	caches.Register("charts", svc.Cache())
	caches.Register("sessions", sessions.Cache())
	caches.StartCleanup(cleanupInterval)
	defer caches.Stop()

	var sink dashboard.EventSink
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			return fmt.Errorf("connect event broker: %w", err)
		}
		defer client.Close()
		sink = client
		logger.WithComponent(applog.ComponentAMQP).Info("Mirroring dashboard events",
			"exchange", cfg.AMQPExchange, "routing_key", cfg.AMQPRoutingKey)
	}

	srv := apphttp.NewServer(cfg.Addr(), apphttp.Deps{
		View:               svc,
		Sessions:           sessions,
		Counter:            result.Backend,
		Sink:               sink,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Debug:              cfg.Debug,
	})

	logger.Info("Starting autosales server",
		"port", cfg.Port, "backend", cfg.DataBackend, "debug", cfg.Debug, "seed", cfg.Seed)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", "reason", context.Cause(gctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
