package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageByName/pkg/models"
)

type Publisher interface {
	PublishMissing(ctx context.Context, event models.MissingImage) error
	Close() error
}

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type AMQPPublisher struct {
	conn  *amqp.Connection
	ch    channel
	queue string
}

func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, queue: queue}, nil
}

// NewMissingImage stamps an event with a fresh id and the current time.
func NewMissingImage(kind models.ImageKind, theme, name string) models.MissingImage {
	return models.MissingImage{
		ID:         uuid.NewString(),
		Kind:       kind,
		Theme:      theme,
		Name:       name,
		OccurredAt: time.Now().UTC(),
	}
}

func (p *AMQPPublisher) PublishMissing(ctx context.Context, event models.MissingImage) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         "missing_image",
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	chErr := p.ch.Close()
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && chErr == nil {
			return err
		}
	}
	return chErr
}

type NopPublisher struct{}

func (NopPublisher) PublishMissing(context.Context, models.MissingImage) error { return nil }

func (NopPublisher) Close() error { return nil }
