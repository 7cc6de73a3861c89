package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publisherAppID = "credit-engine"

type EventPublisher interface {
	PublishCustomerRegistered(ctx context.Context, event CustomerRegisteredEvent) error
	PublishLoanCreated(ctx context.Context, event LoanCreatedEvent) error
	PublishIngestionRequested(ctx context.Context, event IngestionRequestedEvent) error
}

type RabbitMQEventPublisher struct {
	conn         *amqp.Connection
	exchangeName string
	logger       *slog.Logger
}

var _ EventPublisher = (*RabbitMQEventPublisher)(nil)

func NewRabbitMQEventPublisher(conn *amqp.Connection, exchangeName string, logger *slog.Logger) (*RabbitMQEventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection cannot be nil")
	}
	if exchangeName == "" {
		return nil, fmt.Errorf("RabbitMQ exchange name cannot be empty")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	tempCh, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary channel for exchange declaration: %w", err)
	}
	defer tempCh.Close()

	if err := declareExchange(tempCh, exchangeName); err != nil {
		return nil, err
	}
	logger.Info("Ensured RabbitMQ exchange exists", "exchange", exchangeName, "type", amqp.ExchangeTopic)

	return &RabbitMQEventPublisher{
		conn:         conn,
		exchangeName: exchangeName,
		logger:       logger.With("component", "RabbitMQEventPublisher", "exchange", exchangeName),
	}, nil
}

func declareExchange(ch *amqp.Channel, exchangeName string) error {
	err := ch.ExchangeDeclare(
		exchangeName,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}
	return nil
}

func (p *RabbitMQEventPublisher) PublishCustomerRegistered(ctx context.Context, event CustomerRegisteredEvent) error {
	return p.publish(ctx, RoutingKeyCustomerRegistered, event)
}

func (p *RabbitMQEventPublisher) PublishLoanCreated(ctx context.Context, event LoanCreatedEvent) error {
	return p.publish(ctx, RoutingKeyLoanCreated, event)
}

func (p *RabbitMQEventPublisher) PublishIngestionRequested(ctx context.Context, event IngestionRequestedEvent) error {
	return p.publish(ctx, RoutingKeyIngestionRequested, event)
}

func (p *RabbitMQEventPublisher) publish(ctx context.Context, routingKey string, payload any) error {
	logCtx := p.logger.With(slog.String("routingKey", routingKey))

	channel, err := p.conn.Channel()
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open RabbitMQ channel", slog.Any("error", err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	msg, err := newPublishing(payload)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to marshal event payload to JSON", slog.Any("error", err))
		return err
	}

	logCtx.DebugContext(ctx, "Publishing message", "bodySize", len(msg.Body))

	err = channel.PublishWithContext(
		ctx,
		p.exchangeName,
		routingKey,
		false,
		false,
		msg,
	)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to publish message to RabbitMQ", slog.Any("error", err))
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logCtx.InfoContext(ctx, "Successfully published message")
	return nil
}

func newPublishing(payload any) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
		AppId:        publisherAppID,
	}, nil
}
