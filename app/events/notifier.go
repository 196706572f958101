package events

import (
	"context"
	"errors"
	"time"

	log "github.com/go-pkgz/lgr"
)

// ErrQueueFull is returned when the delivery queue can't take more events
var ErrQueueFull = errors.New("notification queue is full")

// Sender renders and delivers event messages
type Sender interface {
	MakeEventText(ev Event) (string, error)
	Send(ctx context.Context, subj, text string) error
}

// Repeater repeats failed function
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// NotifierParams configures Notifier
type NotifierParams struct {
	Sender    Sender
	Repeater  Repeater      // optional, a single attempt if nil
	QueueSize int           // pending events, 100 if not set
	Timeout   time.Duration // per event delivery timeout, 30s if not set
}

// Notifier is a handler delivering events asynchronously. Handle only enqueues, Run does the delivery.
type Notifier struct {
	sender   Sender
	repeater Repeater
	timeout  time.Duration
	queue    chan Event
}

// NewNotifier makes a notifier, Run has to be started to deliver events
func NewNotifier(p NotifierParams) *Notifier {
	res := &Notifier{sender: p.Sender, repeater: p.Repeater, timeout: p.Timeout}
	if p.QueueSize <= 0 {
		p.QueueSize = 100
	}
	if res.timeout <= 0 {
		res.timeout = 30 * time.Second
	}
	res.queue = make(chan Event, p.QueueSize)
	return res
}

// Handle enqueues the event without blocking
func (n *Notifier) Handle(_ context.Context, ev Event) error {
	select {
	case n.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers queued events until ctx is canceled
func (n *Notifier) Run(ctx context.Context) {
	log.Printf("[DEBUG] notifier started")
	for {
		select {
		case <-ctx.Done():
			log.Printf("[DEBUG] notifier stopped, %d event(s) not delivered", len(n.queue))
			return
		case ev := <-n.queue:
			if err := n.deliver(ctx, ev); err != nil {
				log.Printf("[WARN] failed to notify %s: %v", ev, err)
			}
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, ev Event) error {
	text, err := n.sender.MakeEventText(ev)
	if err != nil {
		return err
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	send := func() error { return n.sender.Send(ctxTimeout, "ardora: "+ev.Type.EventName(), text) }
	if n.repeater == nil {
		return send()
	}
	return n.repeater.Do(ctxTimeout, send)
}
