package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Vaibhavsh0120/Connect2Give/internal/core/logger"
	"github.com/Vaibhavsh0120/Connect2Give/internal/events"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// The notifier tails the donation event stream and turns transitions into
// notifications. It runs as its own process so a slow notification channel
// never backs up into the dispatch API.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, falling back to system environment variables.")
	}

	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		log.Fatal("KAFKA_BROKERS environment variable is not set")
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = events.DefaultTopic
	}

	appLogger := logger.NewLogger()
	defer appLogger.Sync()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(brokers, ","),
		GroupID:  "connect2give-notifier",
		Topic:    topic,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Notifier started", zap.String("topic", topic))

	for {
		message, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				appLogger.Info("Notifier stopped")
				return
			}
			appLogger.Error("failed to read event", zap.Error(err))
			continue
		}

		var event events.DonationEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			appLogger.Warn("skipping malformed event",
				zap.Error(err),
				zap.Int64("offset", message.Offset),
			)
			continue
		}

		notify(appLogger, event)
	}
}

// notify is the delivery stub. Push, SMS and email channels plug in here;
// today every transition is logged so operators can tail the stream.
func notify(log *zap.Logger, event events.DonationEvent) {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.Int("donation_id", event.DonationID),
		zap.Time("occurred_at", event.OccurredAt),
	}
	if event.ActorID != 0 {
		fields = append(fields, zap.Int("actor_id", event.ActorID))
	}

	switch event.Type {
	case events.DonationCreated:
		log.Info("New donation posted, alerting nearby volunteers", fields...)
	case events.DonationClaimed:
		log.Info("Donation claimed, notifying restaurant", fields...)
	case events.DonationCollected:
		log.Info("Donation collected, notifying restaurant", fields...)
	case events.DonationCancelled:
		log.Info("Pickup cancelled, donation returned to the open pool", fields...)
	case events.DonationDelivered:
		log.Info("Donation delivered, awaiting NGO verification", fields...)
	case events.DonationVerified:
		log.Info("Delivery verified, thanking volunteer", fields...)
	case events.DonationRejected:
		log.Info("Delivery rejected, notifying volunteer", fields...)
	case events.DonationClaimExpired:
		log.Info("Claim expired, donation reopened", fields...)
	default:
		log.Warn("Unknown event type", fields...)
	}
}
