package daemon

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/padbatt/pkg/controller"
	"github.com/charlie0129/padbatt/pkg/events"
	"github.com/charlie0129/padbatt/pkg/monitor"
)

// snapshotPublisher is the daemon's renderer. It forwards every changed
// snapshot to SSE subscribers.
type snapshotPublisher struct {
	hub *events.EventHub

	mu   sync.Mutex
	last controller.Snapshot
}

var _ monitor.Renderer = &snapshotPublisher{}

func newSnapshotPublisher(hub *events.EventHub) *snapshotPublisher {
	return &snapshotPublisher{hub: hub, last: controller.DefaultSnapshot()}
}

func (p *snapshotPublisher) Render(s controller.Snapshot) {
	p.mu.Lock()
	changed := s != p.last
	p.last = s
	p.mu.Unlock()

	if !changed {
		return
	}

	logrus.WithFields(logrus.Fields{
		"mode":       s.Mode.String(),
		"controller": s.ControllerID,
		"percentage": s.Percentage,
	}).Debug("snapshot changed")
	p.hub.Publish(events.SnapshotUpdated, s)
}
