package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sink is anything that can deliver an event synchronously.
type Sink interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

// Async decouples request handlers from broker latency.  Publish enqueues
// and returns immediately; a single worker drains the buffer into the
// wrapped Sink.  When the buffer is full the event is dropped and logged.
type Async struct {
	sink    Sink
	timeout time.Duration
	log     *slog.Logger

	ch   chan OrderEvent
	wg   sync.WaitGroup
	once sync.Once
}

// NewAsync starts the worker.  Call Close to flush on shutdown.
func NewAsync(sink Sink, buffer int, timeout time.Duration, log *slog.Logger) *Async {
	if buffer <= 0 {
		buffer = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	a := &Async{sink: sink, timeout: timeout, log: log, ch: make(chan OrderEvent, buffer)}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *Async) run() {
	defer a.wg.Done()
	for ev := range a.ch {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.sink.Publish(ctx, ev); err != nil {
			a.log.Warn("event dropped", slog.String("event", ev.Type), slog.Uint64("order_id", ev.OrderID), slog.Any("error", err))
		}
		cancel()
	}
}

// Publish never blocks and never fails the caller.
func (a *Async) Publish(_ context.Context, ev OrderEvent) error {
	select {
	case a.ch <- ev:
	default:
		a.log.Warn("event buffer full, dropping", slog.String("event", ev.Type), slog.Uint64("order_id", ev.OrderID))
	}
	return nil
}

// Close stops accepting events and waits for the worker to drain.
func (a *Async) Close() {
	a.once.Do(func() { close(a.ch) })
	a.wg.Wait()
}
