package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookhive/internal/events"
	"bookhive/internal/metrics"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	DefaultQueue   = "booking.events"
	publishTimeout = 5 * time.Second
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Message is the body published for every booking transition.
type Message struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// AMQPPublisher relays bus events to RabbitMQ as persistent JSON messages.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	queue    string
	logger   *zerolog.Logger
}

// DialAMQP connects to the broker and declares the durable queue. With an
// exchange set, a durable topic exchange is declared and bound to the queue
// and messages are routed by event type.
func DialAMQP(url, exchange, queue string, logger *zerolog.Logger) (*AMQPPublisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare %s: %w", queue, err)
	}
	if exchange != "" {
		if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
		if err := ch.QueueBind(queue, "#", exchange, false, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("bind %s to %s: %w", queue, exchange, err)
		}
	}

	p := newAMQPPublisher(ch, exchange, queue, logger)
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch amqpChannel, exchange, queue string, logger *zerolog.Logger) *AMQPPublisher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AMQPPublisher{ch: ch, exchange: exchange, queue: queue, logger: logger}
}

// Subscribe registers the publisher for every booking event type.
func (p *AMQPPublisher) Subscribe(bus *events.EventBus) {
	bus.Subscribe(p.Handle, events.BookingEventTypes...)
}

func (p *AMQPPublisher) Handle(event *events.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return p.Publish(ctx, event)
}

func (p *AMQPPublisher) Publish(ctx context.Context, event *events.Event) error {
	body, err := json.Marshal(Message{
		Type:       event.Type,
		OccurredAt: event.CreatedAt.UTC(),
		Payload:    event.Payload,
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.Type, err)
	}

	key := p.queue
	if p.exchange != "" {
		key = event.Type
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         event.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		metrics.IncNotification(channelAMQP, outcomeFailed)
		p.logger.Error().Err(err).Str("event_type", event.Type).Msg("amqp publish failed")
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	metrics.IncNotification(channelAMQP, outcomeSent)
	return nil
}

func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
