package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/padbatt/pkg/events"
)

type recordingDeliverer struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *recordingDeliverer) Deliver(t Toast) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
	return nil
}

func (r *recordingDeliverer) got() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

func TestBuildToast(t *testing.T) {
	toast, err := BuildToast("padbatt", Attached)
	require.NoError(t, err)
	assert.Equal(t, Toast{Title: "padbatt", Body: "Controller connected"}, toast)

	toast, err = BuildToast("padbatt", Detached)
	require.NoError(t, err)
	assert.Equal(t, "Controller disconnected", toast.Body)

	_, err = BuildToast("padbatt", Kind(99))
	assert.Error(t, err)
}

func TestDispatcherDeliversAndPublishes(t *testing.T) {
	hub := events.NewEventHub()
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	rec := &recordingDeliverer{}
	d := NewDispatcher("padbatt", hub, rec)

	d.Notify(Attached)
	d.Wait()

	assert.Equal(t, []Toast{{Title: "padbatt", Body: "Controller connected"}}, rec.got())

	ev := <-sub
	assert.Equal(t, events.ControllerAttached, ev.Name)
	payload, err := events.DecodeAs[events.ControllerEvent](ev)
	require.NoError(t, err)
	assert.Equal(t, "Controller connected", payload.Body)
}

func TestDispatcherDisabledStillPublishes(t *testing.T) {
	hub := events.NewEventHub()
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	rec := &recordingDeliverer{}
	d := NewDispatcher("padbatt", hub, rec)
	d.SetEnabled(false)

	d.Notify(Detached)
	d.Wait()

	assert.Empty(t, rec.got())
	ev := <-sub
	assert.Equal(t, events.ControllerDetached, ev.Name)
}

func TestDispatcherDeliveryErrorIsSwallowed(t *testing.T) {
	d := NewDispatcher("padbatt", nil, DelivererFunc(func(Toast) error {
		return assert.AnError
	}))

	assert.NotPanics(t, func() {
		d.Notify(Attached)
		d.Wait()
	})
}
