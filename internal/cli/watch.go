package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"autosales/internal/amqp"
	applog "autosales/internal/log"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print dashboard selection events mirrored to the broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadAndValidateConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.AMQPURL == "" {
				return errors.New("AMQP_URL is not set")
			}
			logger, err := SetupLogger(cfg, cmd)
			if err != nil {
				return err
			}

			ctx, stop := SignalContext(cmd.Context())
			defer stop()

			client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
			if err != nil {
				return fmt.Errorf("connect event broker: %w", err)
			}
			defer client.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			err = client.Consume(ctx, func(msg *amqp.SelectionChangedMessage) error {
				return enc.Encode(msg)
			})
			if ctx.Err() != nil {
				logger.WithComponent(applog.ComponentAMQP).Info("Watch stopped")
				return nil
			}
			return err
		},
	}
}
