package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler delivers one event.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Dispatcher fans events out to a handler from a single worker goroutine.
// A full queue drops the event rather than blocking the publisher.
type Dispatcher struct {
	handler Handler
	queue   chan Event
	logger  *zap.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

func NewDispatcher(handler Handler, queueSize int, logger *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Dispatcher{
		handler:  handler,
		queue:    make(chan Event, queueSize),
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (d *Dispatcher) Publish(events ...Event) {
	for _, e := range events {
		select {
		case d.queue <- e:
		default:
			d.logger.Warn("Event queue full, dropping event",
				zap.String("event_id", e.ID.String()),
				zap.String("type", string(e.Type)),
				zap.Int64("recipient_id", e.RecipientID))
		}
	}
}

// Start runs the worker until Stop is called or ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting event dispatcher", zap.Int("queue_size", cap(d.queue)))
	go d.run(ctx)
}

// Stop delivers what is already queued, then returns.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopChan)
	})
	<-d.done
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case e := <-d.queue:
			d.deliver(ctx, e)
		case <-d.stopChan:
			d.drain(ctx)
			d.logger.Info("Event dispatcher stopped")
			return
		case <-ctx.Done():
			d.logger.Info("Event dispatcher cancelled", zap.Int("pending", len(d.queue)))
			return
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case e := <-d.queue:
			d.deliver(ctx, e)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, e Event) {
	if err := d.handler.Handle(ctx, e); err != nil {
		d.logger.Error("Failed to handle event",
			zap.String("event_id", e.ID.String()),
			zap.String("type", string(e.Type)),
			zap.Int64("recipient_id", e.RecipientID),
			zap.Error(err))
	}
}
