package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/padbatt/pkg/controller"
)

func TestPadCycle(t *testing.T) {
	s := New(PadConfig{
		ID:           "p",
		FullCapacity: 100,
		StartPercent: 30,
		StepMWh:      10,
		LowPercent:   10,
		FullReports:  2,
	})
	handles, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, handles, 1)
	pad := handles[0]

	type step struct {
		status    string
		remaining uint32
	}
	var got []step
	for i := 0; i < 16; i++ {
		raw, err := pad.BatteryReport()
		require.NoError(t, err)
		got = append(got, step{raw.Status, *raw.RemainingCapacity})
	}

	assert.Equal(t, []step{
		{"Discharging", 30},
		{"Discharging", 20},
		{"Charging", 10},
		{"Charging", 20},
		{"Charging", 30},
		{"Charging", 40},
		{"Charging", 50},
		{"Charging", 60},
		{"Charging", 70},
		{"Charging", 80},
		{"Charging", 90},
		{"Full", 100},
		{"Full", 100},
		{"Discharging", 100},
		{"Discharging", 90},
		{"Discharging", 80},
	}, got)
}

func TestPadWithoutBattery(t *testing.T) {
	s := New(PadConfig{ID: "wired", Name: "Wired pad"})
	handles, err := s.Scan(context.Background())
	require.NoError(t, err)

	raw, err := handles[0].BatteryReport()
	require.NoError(t, err)
	report, err := raw.Decode()
	require.NoError(t, err)
	assert.Equal(t, controller.NotPresent, report.Status)
}

func TestDetachWindows(t *testing.T) {
	s := New(
		PadConfig{ID: "a", FullCapacity: 100, DetachEvery: 4, DetachFor: 1},
		PadConfig{ID: "b", FullCapacity: 100},
	)

	var counts []int
	for i := 0; i < 8; i++ {
		handles, err := s.Scan(context.Background())
		require.NoError(t, err)
		counts = append(counts, len(handles))
	}
	assert.Equal(t, []int{2, 2, 2, 1, 2, 2, 2, 1}, counts)
}

func TestDefaultPad(t *testing.T) {
	handles, err := New().Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, handles, 1)
	assert.True(t, handles[0].IsWireless())
	assert.Equal(t, "sim:0", handles[0].ID())
}
