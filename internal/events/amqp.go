package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type AMQPPublisher struct {
	mu       sync.Mutex
	ch       Channel
	conn     *amqp.Connection
	exchange string
}

// NewAMQPPublisher declares a durable topic exchange on ch and publishes to it.
func NewAMQPPublisher(ch Channel, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		return nil, errors.New("events: exchange name is required")
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("events: failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{ch: ch, exchange: exchange}, nil
}

// DialAMQP connects to the broker at url and returns a publisher owning the connection.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: failed to open channel: %w", err)
	}

	p, err := NewAMQPPublisher(ch, exchange)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	p.conn = conn

	log.Info().Str("exchange", exchange).Msg("Connected to AMQP broker")
	return p, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: failed to marshal %s event: %w", event.Type, err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, event.Type.String(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Timestamp:    event.OccurredAt,
		Type:         event.Type.String(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("events: failed to publish %s event: %w", event.Type, err)
	}

	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
