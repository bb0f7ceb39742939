package common

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Exchange string

type Queue string

type BindingKey string

type MessageProducer interface {
	Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error
}

type MessageConsumer interface {
	Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error)
}

// MessageSubscriber hands out short-lived subscriptions backed by exclusive
// auto-delete queues. Used by the dashboard watch stream.
type MessageSubscriber interface {
	Subscribe(key BindingKey, exchange Exchange) (<-chan amqp.Delivery, func() error, error)
}

const (
	UserExchange     Exchange   = "user_exchange"
	UserCreatedQueue Queue      = "user_created_queue"
	UserCreatedKey   BindingKey = "user.created"

	BlogExchange   Exchange   = "blog_exchange"
	BlogChangedKey BindingKey = "blog.changed"
)

type MessageBroker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewMessageBroker(URI string) (*MessageBroker, error) {
	conn, ch, err := connectAMQP(URI)
	if err != nil {
		return nil, err
	}

	return &MessageBroker{
		conn: conn,
		ch:   ch,
	}, nil
}

func connectAMQP(URI string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(URI)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not open channel: %w", err)
	}

	return conn, ch, nil
}

// Close closes the connection and channel of the message broker.
func (mb *MessageBroker) Close() error {
	err := mb.ch.Close()
	if err != nil {
		return err
	}

	err = mb.conn.Close()
	if err != nil {
		return err
	}

	return nil
}

func SetupUserExchange(mb *MessageBroker) error {
	err := mb.ch.ExchangeDeclare(string(UserExchange), "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = mb.ch.QueueDeclare(string(UserCreatedQueue), true, false, false, false, nil)
	if err != nil {
		return err
	}

	err = mb.ch.QueueBind(string(UserCreatedQueue), string(UserCreatedKey), string(UserExchange), false, nil)
	if err != nil {
		return err
	}

	return nil
}

// SetupBlogExchange declares the exchange blog mutation events are published to.
// Subscribers bind their own ephemeral queues, so no durable queue is declared here.
func SetupBlogExchange(mb *MessageBroker) error {
	return mb.ch.ExchangeDeclare(string(BlogExchange), "direct", true, false, false, false, nil)
}

func (mb *MessageBroker) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	err := mb.ch.PublishWithContext(ctx, string(exchange), string(key), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        msg,
	})
	if err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

func (mb *MessageBroker) Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error) {
	msgs, err := mb.ch.Consume(string(queue), string(key), false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("could not consume message: %w", err)
	}

	return msgs, nil
}

// Subscribe declares a server-named exclusive queue, binds it to the exchange and
// starts consuming. The returned cancel func tears the subscription down; the queue
// itself is auto-deleted once the consumer goes away.
func (mb *MessageBroker) Subscribe(key BindingKey, exchange Exchange) (<-chan amqp.Delivery, func() error, error) {
	q, err := mb.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("could not declare subscription queue: %w", err)
	}

	err = mb.ch.QueueBind(q.Name, string(key), string(exchange), false, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("could not bind subscription queue: %w", err)
	}

	msgs, err := mb.ch.Consume(q.Name, q.Name, true, true, false, false, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("could not consume subscription queue: %w", err)
	}

	cancel := func() error {
		return mb.ch.Cancel(q.Name, false)
	}

	return msgs, cancel, nil
}
