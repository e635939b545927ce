package events

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type Producer interface {
	SendMessage(ctx context.Context, topic string, key []byte, value []byte) error
	Close() error
}

// KafkaProducer writes domain events to Kafka. Messages are keyed by
// donation id, so the Hash balancer keeps per-donation ordering.
type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string) Producer {
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaProducer) SendMessage(ctx context.Context, topic string, key []byte, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// ConsoleProducer stands in when no broker is configured (local development,
// tests). Events are printed instead of shipped.
type ConsoleProducer struct{}

func NewConsoleProducer() Producer {
	log.Println("Initialized console event producer (no KAFKA_BROKERS set)")
	return &ConsoleProducer{}
}

func (p *ConsoleProducer) SendMessage(ctx context.Context, topic string, key []byte, value []byte) error {
	log.Printf("EVENT topic=%s key=%s value=%s", topic, string(key), string(value))
	return nil
}

func (p *ConsoleProducer) Close() error {
	return nil
}

// NewProducerFromEnv picks Kafka when KAFKA_BROKERS is set (comma separated)
// and falls back to the console producer otherwise.
func NewProducerFromEnv(brokers string) Producer {
	if brokers == "" {
		return NewConsoleProducer()
	}
	return NewKafkaProducer(strings.Split(brokers, ","))
}
