package rabbitmq_consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/DaniilsFirgers/dzivoklitis/pkg/rabbitmq/rabbitmq_common"
)

// ErrPermanent помечает ошибку, которую повтор не исправит (битое сообщение).
// Такое сообщение сразу уходит в финальную DLQ.
var ErrPermanent = errors.New("permanent message failure")

// MessageHandler обрабатывает одно сообщение; ack/nack выполняет пакет
type MessageHandler func(ctx context.Context, delivery amqp.Delivery) error

// Consumer обрабатывает сообщения строго по одному в порядке поступления
type Consumer struct {
	base    *baseConsumer
	handler MessageHandler
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler, connManager *rabbitmq_common.ConnectionManager) (*Consumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("consumer: message handler is required")
	}
	bc, err := newBaseConsumer(cfg, connManager)
	if err != nil {
		return nil, fmt.Errorf("consumer: %w", err)
	}
	return &Consumer{base: bc, handler: handler}, nil
}

// StartConsuming блокируется до отмены ctx или закрытия соединения брокером
func (c *Consumer) StartConsuming(ctx context.Context) error {
	b := c.base
	if b.channel == nil || b.connection == nil || b.connection.IsClosed() {
		return fmt.Errorf("consumer: not connected")
	}

	msgs, err := b.channel.Consume(
		b.actualQueueName,
		b.config.ConsumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consumer %s: failed to register on queue '%s': %w", b.config.ConsumerTag, b.actualQueueName, err)
	}

	notifyClose := b.connection.NotifyClose(make(chan *amqp.Error, 1))
	b.Logger.Info("Waiting for messages", "queue_name", b.actualQueueName)

	for {
		select {
		case <-ctx.Done():
			b.Logger.Info("Context cancelled, stopping consumer", "queue_name", b.actualQueueName)
			return nil
		case amqpErr := <-notifyClose:
			if amqpErr == nil {
				return nil
			}
			b.Logger.Error(amqpErr, "Connection closed for consumer", "queue_name", b.actualQueueName)
			return amqpErr
		case d, ok := <-msgs:
			if !ok {
				b.Logger.Info("Deliveries channel closed", "queue_name", b.actualQueueName)
				return nil
			}
			b.wg.Add(1)
			c.handle(ctx, d)
			b.wg.Done()
		}
	}
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRetry
	outcomeDeadLetter
	outcomeDrop
)

// decide выбирает судьбу сообщения по результату обработчика
func decide(handlerErr error, deaths int64, retryEnabled bool, maxRetries int) outcome {
	switch {
	case handlerErr == nil:
		return outcomeAck
	case !retryEnabled:
		return outcomeDrop
	case errors.Is(handlerErr, ErrPermanent):
		return outcomeDeadLetter
	case deaths < int64(maxRetries):
		return outcomeRetry
	default:
		return outcomeDeadLetter
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	b := c.base
	handlerErr := c.handler(ctx, d)
	deaths := deathCount(d.Headers, b.actualQueueName)

	switch decide(handlerErr, deaths, b.config.EnableRetryMechanism, b.config.MaxRetries) {
	case outcomeAck:
		_ = d.Ack(false)
	case outcomeDrop:
		b.Logger.Error(handlerErr, "Handler failed, retries disabled, dropping message", "delivery_tag", d.DeliveryTag)
		_ = d.Nack(false, false)
	case outcomeRetry:
		b.Logger.Warn("Handler failed, scheduling retry", "delivery_tag", d.DeliveryTag, "death_count", deaths, "error", handlerErr.Error())
		_ = d.Nack(false, false)
	case outcomeDeadLetter:
		b.Logger.Error(handlerErr, "Handler failed permanently, publishing to final DLX", "delivery_tag", d.DeliveryTag, "death_count", deaths)
		err := b.finalDlxPublisher.Publish(context.WithoutCancel(ctx), b.config.FinalDLQRoutingKey, amqp.Publishing{
			ContentType:  d.ContentType,
			Body:         d.Body,
			Headers:      d.Headers,
			Timestamp:    time.Now().UTC(),
			DeliveryMode: amqp.Persistent,
		})
		if err != nil {
			b.Logger.Error(err, "Failed to publish to final DLX, returning message to retry loop", "delivery_tag", d.DeliveryTag)
			_ = d.Nack(false, false)
			return
		}
		_ = d.Ack(false)
	}
}

func (c *Consumer) Close() error {
	return c.base.Close()
}
