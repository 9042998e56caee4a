// Package eventbus provides an in-process pub/sub bus for cloud events.
// Page actions publish after the store write; subscribers process events
// asynchronously on a single goroutine.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Handler processes an event. Implementations must be safe for concurrent
// calls from different goroutines.
type Handler interface {
	HandleEvent(ctx context.Context, evt cloudevents.Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt cloudevents.Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt cloudevents.Event) error {
	return f(ctx, evt)
}

// Bus is a simple in-process event bus. Events are published to a buffered
// channel and dispatched to all subscribers in a single consumer goroutine,
// so subscribers see events in publish order.
type Bus struct {
	mu          sync.RWMutex
	subscribers []namedHandler
	events      chan cloudevents.Event
	stop        chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
	logger      *slog.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// New creates a new Bus with the given channel buffer size.
func New(bufSize int, logger *slog.Logger) *Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		events: make(chan cloudevents.Event, bufSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Subscribe registers a named handler. Must be called before Start.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, namedHandler{name: name, handler: h})
}

// Publish sends an event to the bus. Non-blocking: if the buffer is full
// the event is dropped and a warning is logged.
func (b *Bus) Publish(_ context.Context, evt cloudevents.Event) {
	select {
	case b.events <- evt:
	default:
		b.logger.Warn("eventbus buffer full, dropping event", "type", evt.Type(), "id", evt.ID())
	}
}

// Start begins the consumer goroutine. It processes events until ctx is
// cancelled or Stop is called, then drains what is buffered.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for {
			select {
			case evt := <-b.events:
				b.dispatch(ctx, evt)
			case <-ctx.Done():
				b.drain(context.WithoutCancel(ctx))
				return
			case <-b.stop:
				b.drain(ctx)
				return
			}
		}
	}()
}

// Stop waits for the consumer goroutine to finish. Start must have been
// called.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
	<-b.done
}

func (b *Bus) drain(ctx context.Context) {
	for {
		select {
		case evt := <-b.events:
			b.dispatch(ctx, evt)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, evt cloudevents.Event) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler.HandleEvent(ctx, evt); err != nil {
			b.logger.Error("eventbus handler failed", "handler", s.name, "type", evt.Type(), "error", err)
		}
	}
}
