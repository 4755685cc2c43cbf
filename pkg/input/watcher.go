package input

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/padbatt/pkg/controller"
)

// DefaultScanInterval is how often a Watcher scans its Source.
const DefaultScanInterval = time.Second

// EventKind tells whether a controller appeared or went away.
type EventKind int

const (
	Attached EventKind = iota + 1
	Detached
)

func (k EventKind) String() string {
	switch k {
	case Attached:
		return "attached"
	case Detached:
		return "detached"
	default:
		return "unknown"
	}
}

// Event is emitted by a Watcher whenever the set of present controllers
// changes.
type Event struct {
	Kind   EventKind
	Handle controller.Handle
}

// Watcher scans a Source periodically and turns the differences between
// two scans into events.
type Watcher struct {
	source   Source
	interval time.Duration
	events   chan Event

	mu       sync.Mutex
	attached map[string]controller.Handle
	// order keeps IDs in attach order.
	order []string
}

// NewWatcher creates a Watcher. A non-positive interval means
// DefaultScanInterval.
func NewWatcher(source Source, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	return &Watcher{
		source:   source,
		interval: interval,
		events:   make(chan Event, 16),
		attached: map[string]controller.Handle{},
	}
}

// Events returns the channel events are delivered on. It is closed when Run
// returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Poll scans once and returns the changes since the last scan. Detaches
// come before attaches, so a controller that was replaced by another one is
// seen leaving first.
func (w *Watcher) Poll(ctx context.Context) ([]Event, error) {
	handles, err := w.source.Scan(ctx)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	present := make(map[string]controller.Handle, len(handles))
	var added []controller.Handle
	for _, h := range handles {
		if _, dup := present[h.ID()]; dup {
			continue
		}
		present[h.ID()] = h
		if _, ok := w.attached[h.ID()]; !ok {
			added = append(added, h)
		}
	}

	var evs []Event
	kept := w.order[:0]
	for _, id := range w.order {
		if _, ok := present[id]; ok {
			kept = append(kept, id)
			continue
		}
		evs = append(evs, Event{Kind: Detached, Handle: w.attached[id]})
		delete(w.attached, id)
	}
	w.order = kept

	// Stable order for devices that show up in the same scan.
	sort.SliceStable(added, func(i, j int) bool { return added[i].ID() < added[j].ID() })
	for _, h := range added {
		w.attached[h.ID()] = h
		w.order = append(w.order, h.ID())
		evs = append(evs, Event{Kind: Attached, Handle: h})
	}

	return evs, nil
}

// Run scans every interval until ctx is done. Scan errors are logged and the
// scan is retried on the next interval.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)

	log := logrus.WithField("source", w.source.Name())
	log.WithField("interval", w.interval.String()).Info("watching for controllers")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		evs, err := w.Poll(ctx)
		if err != nil {
			log.WithError(err).Warn("failed to scan for controllers")
		}
		for _, ev := range evs {
			log.WithFields(logrus.Fields{
				"event": ev.Kind.String(),
				"id":    ev.Handle.ID(),
			}).Debug("controller change")
			select {
			case w.events <- ev:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Attached returns the controllers seen in the last scan, in attach order.
func (w *Watcher) Attached() []controller.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()

	ret := make([]controller.Handle, 0, len(w.order))
	for _, id := range w.order {
		ret = append(ret, w.attached[id])
	}
	return ret
}
