package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/autobuzz-backend/internal/logging"
)

var ErrClosed = errors.New("queue closed")

// InMemoryQueue delivers jobs to subscribers in-process with retry and linear backoff.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	closed   bool
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   logging.Logger

	MaxRetries int
	Backoff    time.Duration
}

func NewInMemoryQueue(logger logging.Logger) *InMemoryQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &InMemoryQueue{
		handlers:   make(map[string][]Handler),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		MaxRetries: DefaultMaxRetries,
		Backoff:    500 * time.Millisecond,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Body       []byte
	RetryCount int
	MaxRetries int
}

// Publish hands the payload to every subscriber of topic.
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	handlers := q.handlers[topic]
	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{Topic: topic, Body: body, MaxRetries: q.MaxRetries}
		q.wg.Add(1)
		go q.processJob(handler, job)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler Handler, job JobPayload) {
	defer q.wg.Done()
	log := q.logger.WithField("topic", job.Topic)

	for job.RetryCount <= job.MaxRetries {
		err := handler(q.ctx, job.Body)
		if err == nil {
			log.Debug("Job processed")
			return
		}

		job.RetryCount++
		log.WithError(err).WithFields(logrus.Fields{
			"attempt":     job.RetryCount,
			"max_retries": job.MaxRetries,
		}).Warn("Job failed")

		if job.RetryCount > job.MaxRetries {
			log.WithField("payload", string(job.Body)).Error("Job permanently failed, dropping")
			return
		}

		select {
		case <-time.After(time.Duration(job.RetryCount) * q.Backoff):
		case <-q.ctx.Done():
			return
		}
	}
}

func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Close stops accepting jobs, cancels pending retries and waits for running handlers.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	return nil
}
