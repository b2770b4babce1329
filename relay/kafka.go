// Package relay publishes shipment notifications to message brokers.
// Every publisher implements scm.NotificationProcessor, so a scm.Consumer
// can drive it.
package relay

import (
	"context"
	"encoding/json"
	"fmt"

	skafka "github.com/segmentio/kafka-go"
	"github.com/vvatanabe/scm"
	"go.uber.org/zap"
)

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// KafkaPublisher is a NotificationProcessor that writes to a Kafka topic.
type KafkaPublisher struct {
	writer Writer
	logger *zap.Logger
}

// NewKafkaPublisher writes to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	w := &skafka.Writer{
		Addr:     skafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &skafka.Hash{},
	}
	return NewKafkaPublisherWithWriter(w, logger)
}

// NewKafkaPublisherWithWriter publishes through w. A nil logger discards output.
func NewKafkaPublisherWithWriter(w Writer, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// Process writes n as JSON, keyed by its related shipment so that the events of
// one shipment land on one partition.
func (p *KafkaPublisher) Process(ctx context.Context, n *scm.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("relay: marshal notification %s: %w", n.ID, err)
	}
	key := n.RelatedShipmentID
	if key == "" {
		key = n.ID
	}
	msg := skafka.Message{Key: []byte(key), Value: b}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("kafka write failed", zap.String("notification_id", n.ID), zap.Error(err))
		return fmt.Errorf("relay: write notification %s: %w", n.ID, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
