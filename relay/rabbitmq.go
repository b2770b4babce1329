package relay

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/vvatanabe/scm"
	"go.uber.org/zap"
)

// Channel is the subset of amqp.Channel the publisher needs.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher is a NotificationProcessor that publishes to a RabbitMQ queue.
type RabbitPublisher struct {
	conn   *amqp.Connection
	chn    Channel
	queue  string
	logger *zap.Logger
}

// DialRabbit connects to url and declares queue as durable.
func DialRabbit(url, queue string, logger *zap.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("relay: dial rabbitmq: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("relay: open channel: %w", err)
	}
	p, err := NewRabbitPublisherWithChannel(chn, queue, logger)
	if err != nil {
		_ = chn.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewRabbitPublisherWithChannel declares queue on chn and publishes through it.
func NewRabbitPublisherWithChannel(chn Channel, queue string, logger *zap.Logger) (*RabbitPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := chn.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("relay: declare queue %s: %w", queue, err)
	}
	return &RabbitPublisher{chn: chn, queue: queue, logger: logger}, nil
}

// Process publishes n as a persistent JSON message on the default exchange.
func (p *RabbitPublisher) Process(ctx context.Context, n *scm.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("relay: marshal notification %s: %w", n.ID, err)
	}
	err = p.chn.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID,
		Type:         string(n.Type),
		Body:         body,
	})
	if err != nil {
		p.logger.Warn("rabbitmq publish failed", zap.String("notification_id", n.ID), zap.Error(err))
		return fmt.Errorf("relay: publish notification %s: %w", n.ID, err)
	}
	return nil
}

// Close closes the channel and, when DialRabbit opened it, the connection.
func (p *RabbitPublisher) Close() error {
	if err := p.chn.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
