package crash

import (
	"sync"

	"golang.org/x/exp/slog"

	"go-crash/internal/lib/logger/sl"
)

const (
	EventBettingOpen      = "betting-open"
	EventFlightStarted    = "flight-started"
	EventMultiplierUpdate = "multiplier-update"
	EventCrashed          = "crashed"
	EventBetPlaced        = "bet-placed"
	EventCashedOut        = "cashed-out"
)

// Channel is the broadcast channel all round lifecycle events go out on.
const Channel = "crash"

type Event struct {
	Name string                 `json:"event"`
	Data map[string]interface{} `json:"data"`
}

// Publisher is the broadcast sink boundary. Publishing is fire-and-forget:
// a failing sink never feeds back into round state.
type Publisher interface {
	Publish(event Event) error
}

// dispatcher serializes event delivery through a single goroutine so that
// observers see events in exactly the order the engine generated them. The
// engine enqueues from its serialized mutation path; a multiplier update can
// therefore never be delivered after the crashed event of the same round.
type dispatcher struct {
	log    *slog.Logger
	pub    Publisher
	mu     sync.Mutex
	closed bool
	ch     chan Event
	done   chan struct{}
}

func newDispatcher(log *slog.Logger, pub Publisher) *dispatcher {
	return &dispatcher{
		log:  log,
		pub:  pub,
		ch:   make(chan Event, 1024),
		done: make(chan struct{}),
	}
}

func (d *dispatcher) start() {
	go func() {
		defer close(d.done)

		for ev := range d.ch {
			if err := d.pub.Publish(ev); err != nil {
				d.log.Error("failed to publish event",
					sl.String("event", ev.Name),
					sl.Err(err))
			}
		}
	}()
}

// enqueue never blocks the round loop; if the sink cannot keep up the event
// is dropped with a warning, which is acceptable for a fire-and-forget sink.
// Enqueueing after stop is a no-op, late player actions must not panic.
func (d *dispatcher) enqueue(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	select {
	case d.ch <- ev:
	default:
		d.log.Warn("event buffer full, dropping event", sl.String("event", ev.Name))
	}
}

func (d *dispatcher) stop() {
	d.mu.Lock()
	d.closed = true
	close(d.ch)
	d.mu.Unlock()

	<-d.done
}
