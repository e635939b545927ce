package events

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/Vaibhavsh0120/Connect2Give/pkg/metrics"

	"go.uber.org/zap"
)

const DefaultTopic = "donation-events"

// Publisher decouples lifecycle transitions from event delivery. Publish
// only enqueues; a single Run loop ships the queue to the producer. When the
// buffer is full the event is dropped and counted, never blocking a
// transition.
type Publisher struct {
	producer       Producer
	topic          string
	queue          chan DonationEvent
	logger         *zap.Logger
	wg             sync.WaitGroup
	shutdownSignal chan struct{}
	stopOnce       sync.Once
}

func NewPublisher(producer Producer, topic string, bufferSize int, logger *zap.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}

	return &Publisher{
		producer:       producer,
		topic:          topic,
		queue:          make(chan DonationEvent, bufferSize),
		logger:         logger,
		shutdownSignal: make(chan struct{}),
	}
}

func (p *Publisher) Publish(event DonationEvent) {
	metrics.EventsPublished.WithLabelValues(event.Type).Inc()

	select {
	case p.queue <- event:
	default:
		metrics.EventsDropped.Inc()
		p.logger.Warn("event queue full, dropping event",
			zap.String("type", event.Type),
			zap.Int("donation_id", event.DonationID),
		)
	}
}

func (p *Publisher) Run(ctx context.Context) {
	p.wg.Add(1)
	defer p.wg.Done()

	for {
		select {
		case event := <-p.queue:
			p.send(event)
		case <-p.shutdownSignal:
			p.drain()
			return
		case <-ctx.Done():
			p.drain()
			return
		}
	}
}

// Shutdown stops the loop, flushes buffered events and closes the producer.
func (p *Publisher) Shutdown() {
	p.stopOnce.Do(func() {
		close(p.shutdownSignal)

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(10 * time.Second):
			p.logger.Warn("event publisher shutdown timed out")
		}

		if err := p.producer.Close(); err != nil {
			p.logger.Error("failed to close event producer", zap.Error(err))
		}
	})
}

func (p *Publisher) drain() {
	for {
		select {
		case event := <-p.queue:
			p.send(event)
		default:
			return
		}
	}
}

func (p *Publisher) send(event DonationEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal domain event", zap.Error(err), zap.String("type", event.Type))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := []byte(strconv.Itoa(event.DonationID))
	if err := p.producer.SendMessage(ctx, p.topic, key, payload); err != nil {
		p.logger.Error("failed to publish domain event",
			zap.Error(err),
			zap.String("type", event.Type),
			zap.Int("donation_id", event.DonationID),
		)
	}
}
