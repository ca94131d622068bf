package queue

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Client — тонкая обертка над соединением RabbitMQ.
// Создается в main, живет весь процесс и закрывается при shutdown —
// никаких неявных глобальных подключений.
type Client struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *zap.Logger
}

func NewClient(url string, logger *zap.Logger) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("queue: failed to dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("queue: failed to open channel: %w", err)
	}

	return &Client{
		conn:   conn,
		ch:     ch,
		logger: logger.Named("queue"),
	}, nil
}

// DeclareQueue объявляет durable-очередь; идемпотентно, зовется обоими бинарями.
func (c *Client) DeclareQueue(name string) error {
	_, err := c.ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("queue: failed to declare %q: %w", name, err)
	}
	return nil
}

// Publish отправляет persistent-сообщение в очередь.
// Fire-and-forget с точки зрения вызывающего: подтверждений не ждем.
func (c *Client) Publish(ctx context.Context, queueName string, body []byte) error {
	return c.ch.PublishWithContext(
		ctx,
		"",        // exchange (default)
		queueName, // routing key = имя очереди
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume подписывается на очередь с ручным ack.
// Повторная доставка при сбое — забота брокера, не консьюмера.
func (c *Client) Consume(queueName string) (<-chan amqp.Delivery, error) {
	msgs, err := c.ch.Consume(
		queueName,
		"",    // consumer tag
		false, // auto-ack — выключен, подтверждаем после обработки
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("queue: failed to start consuming %q: %w", queueName, err)
	}
	return msgs, nil
}

func (c *Client) Close() error {
	if err := c.ch.Close(); err != nil {
		c.logger.Warn("channel close failed", zap.Error(err))
	}
	return c.conn.Close()
}
