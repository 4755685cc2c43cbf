// Package monitor keeps track of the attached controllers and turns what the
// active one reports into a Snapshot on every tick.
package monitor

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/padbatt/pkg/controller"
	"github.com/charlie0129/padbatt/pkg/notify"
)

// DefaultUpdateFrequency is how often the active controller is polled.
const DefaultUpdateFrequency = 500 * time.Millisecond

// missedTickWindow is how many intervals we look back to detect missed ticks.
const missedTickWindow = 10

// Policy decides what happens while more than one controller is attached.
type Policy string

const (
	// PolicyIgnore freezes the display and suppresses notifications while
	// more than one controller is attached.
	PolicyIgnore Policy = "ignore"
	// PolicyLatest always shows the most recently attached controller.
	PolicyLatest Policy = "latest"
)

// ParsePolicy validates s.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyIgnore, PolicyLatest:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown multi-controller policy %q, must be %q or %q", s, PolicyIgnore, PolicyLatest)
}

// Renderer receives a snapshot every time the display changes.
type Renderer interface {
	Render(s controller.Snapshot)
}

// RendererFunc adapts a function to a Renderer.
type RendererFunc func(controller.Snapshot)

func (f RendererFunc) Render(s controller.Snapshot) { f(s) }

// Options configures a Monitor.
type Options struct {
	UpdateFrequency time.Duration
	Policy          Policy
	Renderer        Renderer
	Notifier        notify.Emitter
}

// Status is a point-in-time view of the monitor.
type Status struct {
	Snapshot          controller.Snapshot `json:"snapshot"`
	Attached          []string            `json:"attached"`
	ActiveID          string              `json:"activeId,omitempty"`
	Policy            Policy              `json:"policy"`
	UpdateFrequencyMs int64               `json:"updateFrequencyMs"`
	Ticks             uint64              `json:"ticks"`
	LastTick          time.Time           `json:"lastTick"`
	MissedTicks       bool                `json:"missedTicks"`
	LastError         string              `json:"lastError,omitempty"`
}

// Monitor is the controller monitor. Attach, Detach and Tick are serialized
// by one lock, so they may be called from any goroutine.
type Monitor struct {
	mu sync.Mutex

	renderer Renderer
	notifier notify.Emitter
	policy   Policy
	interval time.Duration

	// attached is ordered by attach time, oldest first.
	attached []controller.Handle
	active   controller.Handle
	last     controller.Snapshot

	ticks     uint64
	lastError error
	recorder  *TickRecorder
	intervalC chan time.Duration

	lastLogged   tickStatus
	lastLoggedAt time.Time
}

// New creates a Monitor. Nil renderer or notifier are replaced by no-ops.
func New(opts Options) *Monitor {
	if opts.UpdateFrequency <= 0 {
		opts.UpdateFrequency = DefaultUpdateFrequency
	}
	if opts.Policy == "" {
		opts.Policy = PolicyIgnore
	}
	if opts.Renderer == nil {
		opts.Renderer = RendererFunc(func(controller.Snapshot) {})
	}
	if opts.Notifier == nil {
		opts.Notifier = nopEmitter{}
	}

	return &Monitor{
		renderer:  opts.Renderer,
		notifier:  opts.Notifier,
		policy:    opts.Policy,
		interval:  opts.UpdateFrequency,
		last:      controller.DefaultSnapshot(),
		recorder:  NewTickRecorder(missedTickWindow*6, opts.UpdateFrequency),
		intervalC: make(chan time.Duration, 1),
	}
}

type nopEmitter struct{}

func (nopEmitter) Notify(notify.Kind) {}

// Attach records h as attached. The first controller becomes the active one
// and raises an Attached notification.
func (m *Monitor) Attach(h controller.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{
		"id":   h.ID(),
		"name": h.Name(),
	})

	if m.indexOf(h.ID()) >= 0 {
		log.Debug("controller already attached")
		return
	}
	m.attached = append(m.attached, h)

	if len(m.attached) > 1 && m.policy == PolicyIgnore {
		log.WithField("attached", len(m.attached)).Info("more than one controller attached, ignoring")
		return
	}

	log.Info("controller attached")
	m.active = h
	m.notifier.Notify(notify.Attached)

	// Show it right away instead of waiting for the next tick.
	if err := m.tickLocked(); err != nil {
		log.WithError(err).Warn("failed to read newly attached controller")
	}
}

// Detach forgets h. Once no controller is left, the display is reset and a
// Detached notification is raised.
func (m *Monitor) Detach(h controller.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{
		"id":   h.ID(),
		"name": h.Name(),
	})

	i := m.indexOf(h.ID())
	if i < 0 {
		log.Debug("detached controller was not attached")
		return
	}
	m.attached = append(m.attached[:i], m.attached[i+1:]...)

	wasActive := m.active != nil && m.active.ID() == h.ID()
	if wasActive {
		m.active = nil
	}

	switch {
	case len(m.attached) == 0:
		log.Info("controller detached")
		m.render(controller.DefaultSnapshot())
		m.notifier.Notify(notify.Detached)
		return
	case m.policy == PolicyLatest:
		if !wasActive {
			return
		}
		m.active = m.attached[len(m.attached)-1]
	case len(m.attached) == 1:
		// Back to a single controller: resume polling it.
		if m.active == nil {
			m.active = m.attached[0]
		}
	default:
		log.WithField("attached", len(m.attached)).Info("more than one controller still attached, ignoring")
		return
	}

	log.WithField("active", m.active.ID()).Info("controller detached, switched active controller")
	if err := m.tickLocked(); err != nil {
		log.WithError(err).Warn("failed to read active controller")
	}
}

// Tick polls the active controller once. Without an active controller, or
// while the display is frozen, it leaves the current snapshot untouched.
func (m *Monitor) Tick() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recorder.AddRecordNow()
	m.ticks++

	return m.tickLocked()
}

func (m *Monitor) tickLocked() error {
	if m.active == nil {
		return nil
	}
	if len(m.attached) > 1 && m.policy == PolicyIgnore {
		return nil
	}

	raw, err := m.active.BatteryReport()
	if err != nil {
		m.lastError = fmt.Errorf("failed to read battery report of %s: %w", m.active.ID(), err)
		return m.lastError
	}

	report, err := raw.Decode()
	if err != nil {
		m.lastError = fmt.Errorf("failed to decode battery report of %s: %w", m.active.ID(), err)
		return m.lastError
	}
	m.lastError = nil

	// Some backends only learn the transport from the report itself.
	snap := controller.BuildSnapshot(m.active, controller.ConnectionInfo{
		IsWireless:  m.active.IsWireless(),
		IsConnected: true,
	}, report)

	m.printStatus(raw, snap)
	m.render(snap)
	return nil
}

func (m *Monitor) render(s controller.Snapshot) {
	m.last = s
	m.renderer.Render(s)
}

func (m *Monitor) indexOf(id string) int {
	for i, h := range m.attached {
		if h.ID() == id {
			return i
		}
	}
	return -1
}

// Run ticks every update interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.UpdateFrequency())
	defer ticker.Stop()

	logrus.WithField("interval", m.UpdateFrequency().String()).Debug("monitor loop starts")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-m.intervalC:
			ticker.Reset(d)
			logrus.WithField("interval", d.String()).Info("update frequency changed")
		case <-ticker.C:
			if err := m.Tick(); err != nil {
				logrus.WithError(err).Error("tick failed")
			}
		}
	}
}

// UpdateFrequency returns the current poll interval.
func (m *Monitor) UpdateFrequency() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// SetUpdateFrequency changes the poll interval. A running loop picks it up
// immediately.
func (m *Monitor) SetUpdateFrequency(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("update frequency must be positive, got %s", d)
	}

	m.mu.Lock()
	m.interval = d
	m.recorder.SetInterval(d)
	m.mu.Unlock()

	// Keep only the latest value.
	select {
	case <-m.intervalC:
	default:
	}
	m.intervalC <- d
	return nil
}

// SetPolicy changes the multi-controller policy.
// The active controller is re-picked for the new policy and read at once
// if it changed.
func (m *Monitor) SetPolicy(p Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.policy = p
	if len(m.attached) == 0 {
		return
	}

	var next controller.Handle
	switch {
	case p == PolicyLatest:
		next = m.attached[len(m.attached)-1]
	case len(m.attached) == 1 && m.active == nil:
		next = m.attached[0]
	default:
		return
	}
	if m.active != nil && m.active.ID() == next.ID() {
		return
	}

	m.active = next
	logrus.WithFields(logrus.Fields{
		"policy": string(p),
		"active": next.ID(),
	}).Info("policy changed, switched active controller")
	if err := m.tickLocked(); err != nil {
		logrus.WithError(err).Warn("failed to read active controller")
	}
}

// Snapshot returns the snapshot last handed to the renderer.
func (m *Monitor) Snapshot() controller.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Status returns a view of the monitor state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.attached))
	for _, h := range m.attached {
		ids = append(ids, h.ID())
	}

	s := Status{
		Snapshot:          m.last,
		Attached:          ids,
		Policy:            m.policy,
		UpdateFrequencyMs: m.interval.Milliseconds(),
		Ticks:             m.ticks,
		LastTick:          m.recorder.GetLastRecord(),
		MissedTicks:       m.recorder.MissedTicks(missedTickWindow * m.interval),
	}
	if m.active != nil {
		s.ActiveID = m.active.ID()
	}
	if m.lastError != nil {
		s.LastError = m.lastError.Error()
	}
	return s
}

type tickStatus struct {
	id       string
	status   string
	mode     controller.Mode
	full     uint32
	remain   uint32
	wireless bool
}

// printStatus logs the tick result. Unchanged results are only logged at
// trace level unless a while has passed.
func (m *Monitor) printStatus(raw controller.RawBatteryReport, s controller.Snapshot) {
	current := tickStatus{
		id:       s.ControllerID,
		status:   raw.Status,
		mode:     s.Mode,
		full:     s.FullChargeCapacityMWh,
		remain:   s.RemainingCapacityMWh,
		wireless: s.IsWireless,
	}

	fields := logrus.Fields{
		"id":         s.ControllerID,
		"status":     raw.Status,
		"mode":       s.Mode.String(),
		"full":       s.FullChargeCapacityMWh,
		"remaining":  s.RemainingCapacityMWh,
		"percentage": s.Percentage,
		"wireless":   s.IsWireless,
	}

	if time.Since(m.lastLoggedAt) < time.Minute && reflect.DeepEqual(m.lastLogged, current) {
		logrus.WithFields(fields).Trace("tick status")
		return
	}

	logrus.WithFields(fields).Debug("tick status")
	m.lastLogged = current
	m.lastLoggedAt = time.Now()
}
