// Package power exposes the batteries reported by the operating system as
// controllers. It is the portable fallback when no controller-specific
// backend is available.
package power

import (
	"context"
	"fmt"

	"github.com/distatus/battery"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/padbatt/pkg/controller"
	"github.com/charlie0129/padbatt/pkg/input"
	"github.com/charlie0129/padbatt/pkg/utils/ptr"
)

// Replaced in tests.
var (
	getAll = battery.GetAll
	get    = battery.Get
)

// Source lists OS batteries.
type Source struct{}

var _ input.Source = Source{}

func New() Source { return Source{} }

func (Source) Name() string { return "power" }

func (Source) Close() error { return nil }

func (Source) Scan(ctx context.Context) ([]controller.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batteries, err := getAll()
	if err != nil && len(batteries) == 0 {
		return nil, fmt.Errorf("failed to get batteries: %w", err)
	}
	if err != nil {
		// Some batteries could not be read. Keep the ones that could.
		logrus.WithError(err).Debug("partial battery read")
	}

	var ret []controller.Handle
	for i, bat := range batteries {
		if bat == nil {
			continue
		}
		ret = append(ret, &Handle{index: i})
	}
	return ret, nil
}

// Handle is the battery at an index of battery.GetAll.
type Handle struct {
	index int
}

var _ controller.Handle = &Handle{}

func (h *Handle) ID() string       { return fmt.Sprintf("power:%d", h.index) }
func (h *Handle) Name() string     { return fmt.Sprintf("Battery %d", h.index) }
func (h *Handle) IsWireless() bool { return false }

func (h *Handle) BatteryReport() (controller.RawBatteryReport, error) {
	bat, err := get(h.index)
	if err != nil && bat == nil {
		return controller.RawBatteryReport{}, fmt.Errorf("failed to get battery %d: %w", h.index, err)
	}
	return toReport(bat), nil
}

func toReport(bat *battery.Battery) controller.RawBatteryReport {
	raw := controller.RawBatteryReport{Status: stateToken(bat.State)}

	// Current and Full are reported in mWh.
	if bat.Full > 0 {
		raw.FullChargeCapacity = ptr.To(uint32(bat.Full))
		raw.RemainingCapacity = ptr.To(uint32(max(bat.Current, 0)))
	}
	return raw
}

func stateToken(s battery.State) string {
	switch s {
	case battery.Charging:
		return "Charging"
	case battery.Discharging:
		return "Discharging"
	case battery.Full:
		return "Full"
	case battery.Empty:
		return "Empty"
	}
	return fmt.Sprint(s)
}
