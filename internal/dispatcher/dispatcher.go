package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/geoannot/gcptag/internal/queue"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Event is a unit of work for the loop: a UI action or the completion of
// an off-loop call.
type Event struct {
	Kind      string
	Payload   any
	Timestamp time.Time
}

// HandlerFunc processes an event on the loop goroutine.
type HandlerFunc func(Event) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher is a single-threaded event loop. Handlers registered on it
// run one at a time, in post order, on the goroutine that calls Run.
// Blocking work is started with Go and its result comes back as an event.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   Logger

	events  *queue.Queue[Event]
	wake    chan struct{}
	pending sync.WaitGroup

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	failed    metric.Int64Counter
}

// New creates a new Dispatcher with the given logger. Loop metrics go to m,
// or to the global OTel meter when m is nil.
func New(logger Logger, m metric.Meter) (*Dispatcher, error) {
	if m == nil {
		m = otel.Meter("github.com/geoannot/gcptag/internal/dispatcher")
	}
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
		events:   queue.New[Event](),
		wake:     make(chan struct{}, 1),
	}

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of events waiting for the loop"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(d.queueSize, int64(d.events.Len()))
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.events.failed",
		metric.WithDescription("Total events whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given kind with optional configuration.
func (d *Dispatcher) Register(kind string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h
	if cfg.logged {
		handler = d.withLogging(kind, handler)
	}

	d.mu.Lock()
	d.handlers[kind] = handler
	d.mu.Unlock()
}

// HasHandler returns true if a handler is registered for the kind.
func (d *Dispatcher) HasHandler(kind string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[kind]
	return ok
}

// Post enqueues an event for the loop. It never blocks.
func (d *Dispatcher) Post(e Event) error {
	if !d.HasHandler(e.Kind) {
		return fmt.Errorf("unknown event kind: %s", e.Kind)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	d.pending.Add(1)
	d.events.Push(e)

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return nil
}

// Go runs work on its own goroutine and posts its return value to the
// loop as the payload of an event of the given kind.
func (d *Dispatcher) Go(ctx context.Context, kind string, work func(context.Context) any) error {
	if !d.HasHandler(kind) {
		return fmt.Errorf("unknown event kind: %s", kind)
	}

	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		payload := work(ctx)
		if err := d.Post(Event{Kind: kind, Payload: payload}); err != nil {
			d.logger.Error("failed to post completion", "kind", kind, "error", err)
		}
	}()
	return nil
}

// Run processes events until ctx is done. Events still queued when Run
// returns are left unprocessed.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		for {
			e, ok := d.events.Pop()
			if !ok {
				break
			}
			d.handle(ctx, e)

			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wake:
		}
	}
}

// Wait blocks until every posted event and every Go call has been handled,
// including the events they post in turn. Run must be active.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// Len returns the number of events waiting for the loop.
func (d *Dispatcher) Len() int {
	return d.events.Len()
}

func (d *Dispatcher) handle(ctx context.Context, e Event) {
	defer d.pending.Done()

	d.mu.RLock()
	h := d.handlers[e.Kind]
	d.mu.RUnlock()

	kindAttr := metric.WithAttributes(attribute.String("kind", e.Kind))
	if err := h(e); err != nil {
		d.failed.Add(ctx, 1, kindAttr)
		d.logger.Error("event failed", "kind", e.Kind, "error", err)
	}
	d.processed.Add(ctx, 1, kindAttr)
}

func (d *Dispatcher) withLogging(kind string, h HandlerFunc) HandlerFunc {
	return func(e Event) error {
		start := time.Now()
		d.logger.Debug("handling event", "kind", kind, "queued", start.Sub(e.Timestamp))

		err := h(e)

		if err == nil {
			d.logger.Debug("event complete", "kind", kind, "duration", time.Since(start))
		}
		return err
	}
}
