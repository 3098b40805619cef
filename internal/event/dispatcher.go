package event

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const deliveryTimeout = 30 * time.Second

// Handler consumes events. A handler that doesn't care about an event kind
// should return nil quickly.
type Handler interface {
	Name() string
	Handle(ctx context.Context, ev Event) error
}

// Dispatcher decouples "an action happened" from its side effects. Publish
// never blocks the caller: events go onto a bounded queue served by a fixed
// worker pool, and a full queue rejects instead of backing up the request
// path. Delivery is at-least-once per subscribed handler; a handler error
// or panic is logged and isolated from sibling handlers and the publisher.
type Dispatcher struct {
	queue    chan Event
	handlers []Handler
	workers  int

	wg       sync.WaitGroup
	stopOnce sync.Once
	started  bool
	mu       sync.Mutex
}

func NewDispatcher(workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 5
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Dispatcher{
		queue:   make(chan Event, queueSize),
		workers: workers,
	}
}

// Subscribe registers a handler. Must be called before Start.
func (d *Dispatcher) Subscribe(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		panic("event: Subscribe after Start")
	}
	d.handlers = append(d.handlers, h)
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Publish enqueues the event and returns immediately. false means the queue
// was saturated and the event was dropped; the producer is never blocked.
func (d *Dispatcher) Publish(ev Event) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		log.WithFields(log.Fields{"event": ev.Kind(), "event_id": ev.ID()}).
			Warn("dispatch queue saturated, event dropped")
		return false
	}
}

// Stop drains already-accepted events, then stops the workers. Publish
// after Stop will drop.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for ev := range d.queue {
		for _, h := range d.handlers {
			d.deliver(h, ev)
		}
	}
}

func (d *Dispatcher) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"handler":  h.Name(),
				"event":    ev.Kind(),
				"event_id": ev.ID(),
				"panic":    r,
			}).Error("event handler panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	if err := h.Handle(ctx, ev); err != nil {
		log.WithFields(log.Fields{
			"handler":  h.Name(),
			"event":    ev.Kind(),
			"event_id": ev.ID(),
		}).WithError(err).Error("event handler failed")
	}
}
