package power

import (
	"context"
	"errors"
	"testing"

	"github.com/distatus/battery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/padbatt/pkg/controller"
)

func fakeBatteries(t *testing.T, bats []*battery.Battery, err error) {
	t.Helper()
	oldGetAll, oldGet := getAll, get
	t.Cleanup(func() { getAll, get = oldGetAll, oldGet })

	getAll = func() ([]*battery.Battery, error) { return bats, err }
	get = func(i int) (*battery.Battery, error) {
		if i >= len(bats) || bats[i] == nil {
			return nil, errors.New("no such battery")
		}
		return bats[i], nil
	}
}

func TestScanAndReport(t *testing.T) {
	fakeBatteries(t, []*battery.Battery{
		{State: battery.Discharging, Current: 1234.9, Full: 5000},
		nil,
		{State: battery.Full, Current: 0, Full: 0},
	}, errors.New("battery 1 unreadable"))

	handles, err := New().Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, handles, 2)
	assert.Equal(t, "power:0", handles[0].ID())
	assert.Equal(t, "power:2", handles[1].ID())

	raw, err := handles[0].BatteryReport()
	require.NoError(t, err)
	report, err := raw.Decode()
	require.NoError(t, err)
	assert.Equal(t, controller.Discharging, report.Status)
	assert.Equal(t, uint32(5000), *report.FullChargeCapacity)
	assert.Equal(t, uint32(1234), *report.RemainingCapacity)

	raw, err = handles[1].BatteryReport()
	require.NoError(t, err)
	report, err = raw.Decode()
	require.NoError(t, err)
	assert.Equal(t, controller.Idle, report.Status)
	assert.False(t, report.HasBattery(), "no full capacity reported")
}

func TestScanFails(t *testing.T) {
	fakeBatteries(t, nil, errors.New("no power supply subsystem"))

	_, err := New().Scan(context.Background())
	assert.Error(t, err)
}

func TestBatteryGone(t *testing.T) {
	fakeBatteries(t, nil, nil)

	_, err := (&Handle{index: 3}).BatteryReport()
	assert.Error(t, err)
}
