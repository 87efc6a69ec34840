package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/attaboy/playerdata/internal/domain"
	"github.com/attaboy/playerdata/internal/infra"
	"github.com/spf13/cobra"
)

func newEventsCmd(s *state) *cobra.Command {
	var brokers, group, eventType string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Tail relayed player events from Kafka",
		Long: `Read events published by the outbox relay and print them as they arrive.

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := domain.OutboxDraft{AggregateType: domain.AggregatePlayer, EventType: domain.EventType(eventType)}.Topic()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			consumer := infra.NewKafkaConsumer(brokers, topic, group, slog.Default())
			defer consumer.Close()

			out := s.out(cmd)
			for {
				msg, err := consumer.ReadMessage(ctx)
				if err != nil {
					if errors.Is(err, context.Canceled) || ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("read %s: %w", topic, err)
				}
				var ev Event
				if err := json.Unmarshal(msg.Value, &ev); err != nil {
					return fmt.Errorf("decode event at offset %d: %w", msg.Offset, err)
				}
				out.Print(ev)
			}
		},
	}

	cmd.Flags().StringVar(&brokers, "brokers", getEnvOrDefault("KAFKA_BROKERS", "localhost:9092"), "Comma-separated Kafka brokers")
	cmd.Flags().StringVar(&group, "group", "", "Consumer group; empty tails from the newest offset")
	cmd.Flags().StringVar(&eventType, "type", string(domain.EventBalanceChanged), "Event type to follow")

	return cmd
}
