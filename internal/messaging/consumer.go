package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

var errAlreadyStarted = errors.New("consumer already started")

// Handler processes one decoded event. A returned error nacks the message so
// the broker redelivers it.
type Handler[T any] func(ctx context.Context, event *T) error

// Stats counts what a consumer did with the messages it received.
type Stats struct {
	Handled int64
	Failed  int64
	Dropped int64
}

// Consumer decodes JSON messages from one topic into T and hands them to a
// handler, one at a time.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger

	started atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}

	handled atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewConsumer creates a consumer of topic.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
) *Consumer[T] {
	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic)),
		done:       make(chan struct{}),
	}
}

func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Stats returns a snapshot of the message counters.
func (c *Consumer[T]) Stats() Stats {
	return Stats{
		Handled: c.handled.Load(),
		Failed:  c.failed.Load(),
		Dropped: c.dropped.Load(),
	}
}

// Start subscribes and processes messages in the background until ctx is
// cancelled or Shutdown is called.
func (c *Consumer[T]) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errAlreadyStarted
	}

	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.cancel()
		close(c.done)

		return err
	}

	go c.run(ctx, msgs)

	return nil
}

func (c *Consumer[T]) run(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			c.process(ctx, msg)
		}
	}
}

func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) {
	var event T

	// A payload that does not decode never will, so it is acked and dropped
	// rather than redelivered forever.
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.dropped.Add(1)
		c.logger.Warn("dropping undecodable event",
			zap.String("message_id", msg.UUID),
			zap.Error(err),
		)
		msg.Ack()

		return
	}

	if err := c.handler(ctx, &event); err != nil {
		c.failed.Add(1)
		c.logger.Error("failed to handle event",
			zap.String("message_id", msg.UUID),
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	c.handled.Add(1)
	msg.Ack()
}

// Shutdown stops consuming and waits for the message in flight, if any.
// It is a no-op for a consumer that was never started.
func (c *Consumer[T]) Shutdown() error {
	if !c.started.Load() {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
