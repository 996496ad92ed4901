// Package pubsub implements the job queue on Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

// Config captures the Pub/Sub connection parameters.
type Config struct {
	ProjectID    string
	TopicID      string
	Subscription string
	// Buffer sizes the handoff channel between Receive and Dequeue.
	Buffer int
}

// Queue is a durable keyword.Queue backed by a Pub/Sub topic/subscription
// pair. Messages are acknowledged once they are handed to a worker slot;
// the worker resolves every job to a terminal keyword status itself, so no
// redelivery-on-failure is configured on top.
type Queue struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	sub    *pubsub.Subscription
	jobs   chan keyword.Job
	logger *zap.Logger
}

// New connects to Pub/Sub and prepares the queue. Call Run to start
// receiving.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Queue, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("pubsub project id is required")
	}
	if cfg.TopicID == "" {
		return nil, errors.New("pubsub topic id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 64
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	q := &Queue{
		client: client,
		topic:  client.Topic(cfg.TopicID),
		jobs:   make(chan keyword.Job, buffer),
		logger: logger,
	}
	if cfg.Subscription != "" {
		q.sub = client.Subscription(cfg.Subscription)
	}
	return q, nil
}

// Enqueue publishes the job to the topic and waits for the server ack.
func (q *Queue) Enqueue(ctx context.Context, job keyword.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	result := q.topic.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Run receives messages until the context finishes, handing each decoded job
// to Dequeue callers. A message is acked as soon as a worker slot accepts
// it, so a crash between handoff and the terminal status write loses the job
// and leaves the keyword in_progress; malformed messages are acked and
// dropped so they cannot wedge the subscription.
func (q *Queue) Run(ctx context.Context) error {
	if q.sub == nil {
		return errors.New("pubsub subscription is not configured")
	}
	err := q.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		var job keyword.Job
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			q.logger.Error("discarding malformed job message", zap.Error(err))
			msg.Ack()
			return
		}
		select {
		case q.jobs <- job:
			msg.Ack()
		case <-ctx.Done():
			msg.Nack()
		}
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("pubsub receive: %w", err)
	}
	return nil
}

// Dequeue pops the next received job, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (keyword.Job, error) {
	select {
	case <-ctx.Done():
		return keyword.Job{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case job := <-q.jobs:
		return job, nil
	}
}

// Close flushes the topic and releases the client.
func (q *Queue) Close() error {
	q.topic.Stop()
	if err := q.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
