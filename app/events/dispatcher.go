package events

import (
	"context"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"
)

//go:generate moq -out mocks/handler.go -pkg mocks -skip-ensure -fmt goimports . Handler

// Handler processes a single event. Returned errors are logged by the dispatcher, never propagated.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, ev Event) error

// Handle calls f(ctx, ev)
func (f HandlerFunc) Handle(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Dispatcher fans an event out to all handlers, at most concurrency handlers at a time
type Dispatcher struct {
	handlers    []Handler
	concurrency int
}

// NewDispatcher makes a dispatcher for handlers, concurrency below 1 means one handler at a time
func NewDispatcher(concurrency int, handlers ...Handler) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{handlers: handlers, concurrency: concurrency}
}

// Notify passes the event to every handler and waits for all of them.
// Handler errors and panics are logged and swallowed.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) {
	if len(d.handlers) == 0 {
		return
	}
	gr := syncs.NewSizedGroup(d.concurrency, syncs.Context(ctx))
	for _, h := range d.handlers {
		gr.Go(func(ctx context.Context) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[WARN] event handler panic on %s: %v", ev, r)
				}
			}()
			if err := h.Handle(ctx, ev); err != nil {
				log.Printf("[WARN] event handler failed on %s: %v", ev, err)
			}
		})
	}
	gr.Wait()
}
