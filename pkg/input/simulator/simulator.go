// Package simulator provides scripted controllers for demos and tests. All
// behaviour is deterministic: it depends only on how often Scan and
// BatteryReport are called.
package simulator

import (
	"context"
	"sync"

	"github.com/charlie0129/padbatt/pkg/controller"
	"github.com/charlie0129/padbatt/pkg/input"
	"github.com/charlie0129/padbatt/pkg/utils/ptr"
)

type phase int

const (
	phaseDischarging phase = iota
	phaseCharging
	phaseFull
)

// PadConfig describes one simulated controller.
type PadConfig struct {
	ID       string
	Name     string
	Wireless bool
	// NoBattery makes the pad report NotPresent, like a wired-only pad.
	NoBattery bool

	// FullCapacity is the design energy in mWh.
	FullCapacity uint32
	// StartPercent is the charge the pad starts at.
	StartPercent uint32
	// StepMWh is how much energy moves per report.
	StepMWh uint32
	// LowPercent is where the pad starts charging.
	LowPercent uint32
	// FullReports is how many reports the pad stays Full before it
	// discharges again.
	FullReports int

	// The pad is unplugged for DetachFor scans out of every DetachEvery
	// scans. Zero DetachEvery keeps it attached.
	DetachEvery int
	DetachFor   int
}

// DefaultPad is a wireless DualSense that cycles quickly.
func DefaultPad() PadConfig {
	return PadConfig{
		ID:           "sim:0",
		Name:         "Simulated DualSense",
		Wireless:     true,
		FullCapacity: 5772,
		StartPercent: 80,
		StepMWh:      58,
		LowPercent:   10,
		FullReports:  5,
	}
}

// Source reports the configured pads.
type Source struct {
	mu    sync.Mutex
	scans int
	pads  []*Pad
}

var _ input.Source = &Source{}

// New creates a Source. Without configs it simulates DefaultPad.
func New(configs ...PadConfig) *Source {
	if len(configs) == 0 {
		configs = []PadConfig{DefaultPad()}
	}

	s := &Source{}
	for _, c := range configs {
		if c.FullCapacity == 0 {
			c.NoBattery = true
		}
		if c.StepMWh == 0 {
			c.StepMWh = max(c.FullCapacity/100, 1)
		}
		s.pads = append(s.pads, &Pad{
			cfg:       c,
			remaining: c.FullCapacity * min(c.StartPercent, 100) / 100,
		})
	}
	return s
}

func (s *Source) Name() string { return "simulator" }

func (s *Source) Close() error { return nil }

// Scan returns the pads that are plugged in at this scan.
func (s *Source) Scan(ctx context.Context) ([]controller.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.scans
	s.scans++

	var ret []controller.Handle
	for _, p := range s.pads {
		if p.unpluggedAt(n) {
			continue
		}
		ret = append(ret, p)
	}
	return ret, nil
}

// Pad is one simulated controller.
type Pad struct {
	cfg PadConfig

	mu        sync.Mutex
	phase     phase
	remaining uint32
	fullFor   int
}

var _ controller.Handle = &Pad{}

func (p *Pad) ID() string       { return p.cfg.ID }
func (p *Pad) Name() string     { return p.cfg.Name }
func (p *Pad) IsWireless() bool { return p.cfg.Wireless }

func (p *Pad) unpluggedAt(scan int) bool {
	if p.cfg.DetachEvery <= 0 || p.cfg.DetachFor <= 0 {
		return false
	}
	return scan%p.cfg.DetachEvery >= p.cfg.DetachEvery-p.cfg.DetachFor
}

// BatteryReport returns the current state and then advances the cycle by
// one step.
func (p *Pad) BatteryReport() (controller.RawBatteryReport, error) {
	if p.cfg.NoBattery {
		return controller.RawBatteryReport{Status: controller.NotPresent.String()}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	raw := controller.RawBatteryReport{
		FullChargeCapacity: ptr.To(p.cfg.FullCapacity),
		RemainingCapacity:  ptr.To(p.remaining),
	}

	full := p.cfg.FullCapacity
	low := full * p.cfg.LowPercent / 100

	switch p.phase {
	case phaseDischarging:
		raw.Status = "Discharging"
		if p.remaining <= low+p.cfg.StepMWh {
			p.remaining = low
			p.phase = phaseCharging
		} else {
			p.remaining -= p.cfg.StepMWh
		}
	case phaseCharging:
		raw.Status = "Charging"
		if p.remaining+p.cfg.StepMWh >= full {
			p.remaining = full
			p.phase = phaseFull
			p.fullFor = 0
		} else {
			p.remaining += p.cfg.StepMWh
		}
	case phaseFull:
		raw.Status = "Full"
		p.fullFor++
		if p.fullFor >= p.cfg.FullReports {
			p.phase = phaseDischarging
		}
	}

	return raw, nil
}
