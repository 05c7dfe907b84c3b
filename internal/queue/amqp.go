package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
)

const retryHeader = "x-retry-count"

// AMQPQueue publishes to and consumes from durable RabbitMQ queues named after
// the topic. Failed deliveries are republished with an incremented
// x-retry-count header until MaxRetries, then dropped.
type AMQPQueue struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	mu     sync.Mutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger logging.Logger

	MaxRetries int
}

func DialAMQP(url string, logger logging.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set prefetch: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AMQPQueue{
		conn:       conn,
		ch:         ch,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		MaxRetries: DefaultMaxRetries,
	}, nil
}

func (q *AMQPQueue) declare(topic string) error {
	_, err := q.ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

func (q *AMQPQueue) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	return q.publish(topic, body, 0)
}

func (q *AMQPQueue) publish(topic string, body []byte, retries int32) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.declare(topic); err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	return q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{retryHeader: retries},
		Body:         body,
	})
}

func (q *AMQPQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	if err := q.declare(topic); err != nil {
		q.mu.Unlock()
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	msgs, err := q.ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	q.mu.Unlock()
	if err != nil {
		return fmt.Errorf("register consumer on %s: %w", topic, err)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for d := range msgs {
			q.deliver(topic, handler, d)
		}
	}()
	return nil
}

func (q *AMQPQueue) deliver(topic string, handler Handler, d amqp.Delivery) {
	log := q.logger.WithField("topic", topic)
	err := handler(q.ctx, d.Body)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	retries := RetryCount(d.Headers)
	if retries < q.MaxRetries {
		log.WithError(err).WithField("attempt", retries+1).Warn("Job failed, requeueing")
		if pubErr := q.publish(topic, d.Body, int32(retries+1)); pubErr != nil {
			log.WithError(pubErr).Error("Requeue failed, returning delivery to broker")
			_ = d.Nack(false, true)
			return
		}
	} else {
		log.WithError(err).WithField("payload", string(d.Body)).Error("Job permanently failed, dropping")
	}
	_ = d.Ack(false)
}

// RetryCount reads the x-retry-count header, accepting the integer widths AMQP may decode.
func RetryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (q *AMQPQueue) Close() error {
	q.cancel()
	q.mu.Lock()
	chErr := q.ch.Close()
	q.mu.Unlock()
	q.wg.Wait()
	if err := q.conn.Close(); err != nil {
		return err
	}
	return chErr
}
