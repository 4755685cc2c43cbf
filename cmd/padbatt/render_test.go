package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/charlie0129/padbatt/pkg/controller"
	"github.com/charlie0129/padbatt/pkg/monitor"
	"github.com/charlie0129/padbatt/pkg/utils/ptr"
)

type pad struct{}

func (pad) ID() string       { return "sysfs:ps-controller-battery-aa" }
func (pad) Name() string     { return "Wireless Controller" }
func (pad) IsWireless() bool { return false }
func (pad) BatteryReport() (controller.RawBatteryReport, error) {
	return controller.RawBatteryReport{}, nil
}

func init() {
	color.NoColor = true
}

func TestFormatSnapshotDefault(t *testing.T) {
	out := formatSnapshot(controller.DefaultSnapshot())
	assert.Equal(t, "Controller:\n  No controller connected\n", out)
	assert.Equal(t, controller.LabelNoController, oneLine(controller.DefaultSnapshot()))
}

func TestTerminalRendererWithBattery(t *testing.T) {
	s := controller.BuildSnapshot(pad{}, controller.ConnectionInfo{}, controller.BatteryReport{
		Status:             controller.Charging,
		FullChargeCapacity: ptr.To[uint32](5772),
		RemainingCapacity:  ptr.To[uint32](2886),
	})

	var buf bytes.Buffer
	terminalRenderer{w: &buf}.Render(s)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Controller:\n  Controller connected Wireless Controller\n  Connected via cable\n"), out)
	assert.Contains(t, out, "  Battery state: Charging\n")
	assert.Contains(t, out, "  Full capacity: 5772mWh\n")
	assert.Contains(t, out, "  Remaining capacity: 2886mWh\n")
	assert.Contains(t, out, "  Percentage: 50%\n")

	assert.Equal(t, "Wireless Controller, Connected via cable, Battery state: Charging, 50%", oneLine(s))
}

func TestOneLineWithoutBattery(t *testing.T) {
	s := controller.BuildSnapshot(pad{}, controller.ConnectionInfo{}, controller.BatteryReport{
		Status: controller.NotPresent,
	})
	assert.Equal(t, "Wireless Controller, Connected via cable, Battery state: None, None", oneLine(s))
}

func TestParseIntArg(t *testing.T) {
	v, err := parseIntArg([]string{"500"}, "frequency")
	assert.NoError(t, err)
	assert.Equal(t, 500, v)

	_, err = parseIntArg(nil, "frequency")
	assert.Error(t, err)

	_, err = parseIntArg([]string{"fast"}, "frequency")
	assert.Error(t, err)
}

func TestFormatMonitorStatusMissedTicks(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	st := &monitor.Status{
		Attached:    []string{"a", "b"},
		Policy:      monitor.PolicyIgnore,
		LastTick:    now.Add(-3 * time.Second),
		MissedTicks: true,
	}

	out := formatMonitorStatus(st, now)
	assert.Contains(t, out, "  Connected controllers: 2\n")
	assert.Contains(t, out, "The display is frozen")
	assert.Contains(t, out, "  Last tick: 3s ago\n")
	assert.Contains(t, out, "  Ticks missed: yes (the daemon is falling behind)\n")
	assert.NotContains(t, out, "✘")
}

func TestFormatMonitorStatusHealthy(t *testing.T) {
	st := &monitor.Status{Attached: []string{"a"}, Policy: monitor.PolicyIgnore}

	out := formatMonitorStatus(st, time.Now())
	assert.Equal(t, "Monitor:\n  Connected controllers: 1\n", out)
}
