// Package messaging relays finance domain events to RabbitMQ for consumers
// outside this service, such as accounting exports and notifications.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/infrastructure/config"
	"github.com/trainhub/backend/internal/infrastructure/event"
	"go.uber.org/zap"
)

// RelayedEventTypes are the events published to the broker
var RelayedEventTypes = []string{
	finance.EventTypeInvoiceCreated,
	finance.EventTypeInvoiceStatusChanged,
	finance.EventTypePaymentRecorded,
	finance.EventTypeCommissionFinalized,
	finance.EventTypePayablePaid,
}

// channel is the subset of *amqp.Channel the publisher uses
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// connection is the subset of *amqp.Connection the publisher uses
type connection interface {
	OpenChannel() (channel, error)
	Close() error
}

// Dialer opens a broker connection
type Dialer func(url string) (connection, error)

type amqpConnection struct {
	conn *amqp.Connection
}

func (c amqpConnection) OpenChannel() (channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (c amqpConnection) Close() error {
	return c.conn.Close()
}

// DialAMQP is the production Dialer
func DialAMQP(url string) (connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConnection{conn: conn}, nil
}

// RabbitMQPublisher is an event handler that forwards events as persistent
// JSON envelopes to a topic exchange, routed by event type. The connection is
// opened lazily and reopened after a failed publish. Failures are returned to
// the bus, which logs them; they never fail the request that raised the event.
type RabbitMQPublisher struct {
	cfg        config.MessagingConfig
	dial       Dialer
	serializer *event.EventSerializer
	logger     *zap.Logger

	mu   sync.Mutex
	conn connection
	ch   channel
}

// NewRabbitMQPublisher creates a publisher. A nil dial uses DialAMQP.
func NewRabbitMQPublisher(cfg config.MessagingConfig, dial Dialer, logger *zap.Logger) *RabbitMQPublisher {
	if dial == nil {
		dial = DialAMQP
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	return &RabbitMQPublisher{
		cfg:        cfg,
		dial:       dial,
		serializer: event.NewEventSerializer(),
		logger:     logger,
	}
}

// EventTypes implements shared.EventHandler
func (p *RabbitMQPublisher) EventTypes() []string {
	return RelayedEventTypes
}

// Handle publishes ev to the exchange
func (p *RabbitMQPublisher) Handle(ctx context.Context, ev shared.DomainEvent) error {
	body, err := p.serializer.Encode(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
	defer cancel()

	err = ch.PublishWithContext(pubCtx, p.cfg.Exchange, ev.EventType(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID().String(),
		Type:         ev.EventType(),
		Timestamp:    ev.OccurredAt().UTC(),
		Body:         body,
	})
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("publish %s: %w", ev.EventType(), err)
	}

	p.logger.Debug("event relayed",
		zap.String("event_type", ev.EventType()),
		zap.String("event_id", ev.EventID().String()),
	)
	return nil
}

// Close releases the channel and connection
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resetLocked()
}

func (p *RabbitMQPublisher) channelLocked() (channel, error) {
	if p.ch != nil {
		return p.ch, nil
	}

	conn, err := p.dial(p.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.OpenChannel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if err := declareTopology(ch, p.cfg.Exchange, p.cfg.Queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	p.conn, p.ch = conn, ch
	p.logger.Info("rabbitmq relay connected",
		zap.String("exchange", p.cfg.Exchange),
		zap.String("queue", p.cfg.Queue),
	)
	return ch, nil
}

func (p *RabbitMQPublisher) resetLocked() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return errors.Join(errs...)
}

// declareTopology declares a durable topic exchange and, when queue is set,
// a durable queue bound to every relayed event type
func declareTopology(ch channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if queue == "" {
		return nil
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	for _, key := range RelayedEventTypes {
		if err := ch.QueueBind(queue, key, exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", queue, key, err)
		}
	}
	return nil
}

var _ shared.EventHandler = (*RabbitMQPublisher)(nil)
