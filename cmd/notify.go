package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/messagely/apiserver/internal/events"
	"github.com/messagely/apiserver/internal/mq"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// notifyCmd consumes message events from the broker and logs them.
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Consume message events from the broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is required for notify")
		}
		defer func() {
			_ = broker.Close()
		}()

		handler := events.LogHandler(log.With("component", "notify"))
		group, groupCtx := errgroup.WithContext(ctx)
		for _, channel := range events.Channels {
			group.Go(func() error {
				log.Info("subscribing", "channel", channel)
				err := broker.Subscribe(groupCtx, channel, handler)
				if err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("subscribe %s: %w", channel, err)
				}
				return nil
			})
		}
		return group.Wait()
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}
