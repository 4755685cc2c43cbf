// Package notify turns controller attach/detach intents into desktop
// notifications ("toasts").
package notify

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/padbatt/pkg/controller"
	"github.com/charlie0129/padbatt/pkg/events"
)

// Kind is what happened to the controller.
type Kind int

const (
	Attached Kind = iota + 1
	Detached
)

func (k Kind) String() string {
	switch k {
	case Attached:
		return "attached"
	case Detached:
		return "detached"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ErrUnsupported is returned by NewDesktop on platforms without a desktop
// notification backend.
var ErrUnsupported = errors.New("desktop notifications are not supported on this platform")

// Emitter accepts notification intents. Delivery is fire-and-forget.
type Emitter interface {
	Notify(kind Kind)
}

// Toast is a notification payload.
type Toast struct {
	Title string
	Body  string
}

// BuildToast builds the payload for kind. The title is the application's
// display name.
func BuildToast(appName string, kind Kind) (Toast, error) {
	switch kind {
	case Attached:
		return Toast{Title: appName, Body: controller.LabelControllerConnected}, nil
	case Detached:
		return Toast{Title: appName, Body: controller.LabelControllerDisconnected}, nil
	}
	return Toast{}, fmt.Errorf("unknown notification kind %d", int(kind))
}

// Deliverer shows a toast on some notification surface.
type Deliverer interface {
	Deliver(t Toast) error
}

// DelivererFunc adapts a function to a Deliverer.
type DelivererFunc func(Toast) error

func (f DelivererFunc) Deliver(t Toast) error { return f(t) }

// NewDesktop returns the notification backend of the current platform.
func NewDesktop(appName string) (Deliverer, error) {
	return newDesktop(appName)
}

// Dispatcher is the Emitter used by the daemon. Every intent is logged and
// published on the event hub. Desktop delivery happens asynchronously and can
// be switched off at runtime.
type Dispatcher struct {
	appName    string
	hub        *events.EventHub
	deliverers []Deliverer
	enabled    atomic.Bool
	log        logrus.FieldLogger

	// wg tracks in-flight deliveries.
	wg sync.WaitGroup
}

var _ Emitter = &Dispatcher{}

// NewDispatcher creates a Dispatcher. hub may be nil.
func NewDispatcher(appName string, hub *events.EventHub, deliverers ...Deliverer) *Dispatcher {
	d := &Dispatcher{
		appName:    appName,
		hub:        hub,
		deliverers: deliverers,
		log:        logrus.WithField("component", "notify"),
	}
	d.enabled.Store(true)
	return d
}

// SetEnabled switches desktop delivery on or off.
func (d *Dispatcher) SetEnabled(enabled bool) {
	d.enabled.Store(enabled)
}

// Enabled reports whether desktop delivery is on.
func (d *Dispatcher) Enabled() bool {
	return d.enabled.Load()
}

func (d *Dispatcher) Notify(kind Kind) {
	t, err := BuildToast(d.appName, kind)
	if err != nil {
		d.log.WithError(err).Error("failed to build notification")
		return
	}

	d.log.WithFields(logrus.Fields{
		"kind":  kind.String(),
		"title": t.Title,
		"body":  t.Body,
	}).Info("controller notification")

	name := events.ControllerAttached
	if kind == Detached {
		name = events.ControllerDetached
	}
	d.hub.Publish(name, events.ControllerEvent{
		Title: t.Title,
		Body:  t.Body,
		Ts:    time.Now().Unix(),
	})

	if !d.Enabled() {
		return
	}

	for _, dv := range d.deliverers {
		d.wg.Add(1)
		go func(dv Deliverer) {
			defer d.wg.Done()
			if err := dv.Deliver(t); err != nil {
				d.log.WithError(err).Warn("failed to deliver notification")
			}
		}(dv)
	}
}

// Wait blocks until all in-flight deliveries have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
