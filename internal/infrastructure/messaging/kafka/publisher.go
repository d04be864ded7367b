// Package kafka publishes fraud lifecycle events to the claim events topic.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/medledger/claimguard/internal/config"
	"github.com/medledger/claimguard/internal/domain/event"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
	"github.com/medledger/claimguard/pkg/errors"
)

// ErrPublisherClosed is returned once Close has been called.
var ErrPublisherClosed = errors.New(errors.ErrCodeMessagingError, "publisher closed")

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PublisherMetrics counts publish outcomes.
type PublisherMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
}

// Publisher is the Kafka implementation of event.Publisher.  Events are keyed
// by claim ID so all events for one claim land on the same partition in
// order.
type Publisher struct {
	writer  WriterInterface
	logger  logging.Logger
	metrics PublisherMetrics
	closed  atomic.Bool
}

// NewPublisher builds a Publisher from the Kafka configuration.
func NewPublisher(cfg config.KafkaConfig, log logging.Logger) *Publisher {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}

	acks := kafka.RequireOne
	if cfg.RequiredAcks < 0 || cfg.RequiredAcks > 1 {
		acks = kafka.RequireAll
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		RequiredAcks: acks,
		Compression:  kafka.Snappy,
	}
	return &Publisher{writer: writer, logger: log}
}

// NewPublisherWithWriter injects a writer, used by tests.
func NewPublisherWithWriter(w WriterInterface, log logging.Logger) *Publisher {
	return &Publisher{writer: w, logger: log}
}

// Publish implements event.Publisher.
func (p *Publisher) Publish(ctx context.Context, ev event.FraudEvent) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode fraud event")
	}

	msg := kafka.Message{
		Key:   []byte(ev.ClaimID),
		Value: payload,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.MessagesFailed.Add(1)
		p.logger.Error("fraud event publish failed",
			logging.String("claimId", ev.ClaimID),
			logging.String("type", string(ev.Type)),
			logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeMessagingError, "failed to publish fraud event")
	}

	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(payload)))
	p.logger.Debug("fraud event published",
		logging.String("claimId", ev.ClaimID),
		logging.String("type", string(ev.Type)))
	return nil
}

// Metrics exposes publish counters.
func (p *Publisher) Metrics() *PublisherMetrics {
	return &p.metrics
}

// Close flushes and closes the writer.  Safe to call more than once.
func (p *Publisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessagingError, "failed to close kafka writer")
	}
	return nil
}
