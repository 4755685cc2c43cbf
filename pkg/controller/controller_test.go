package controller

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/padbatt/pkg/utils/ptr"
)

type stubHandle struct {
	id, name string
	wireless bool
}

func (h stubHandle) ID() string       { return h.id }
func (h stubHandle) Name() string     { return h.name }
func (h stubHandle) IsWireless() bool { return h.wireless }
func (h stubHandle) BatteryReport() (RawBatteryReport, error) {
	return RawBatteryReport{}, nil
}

func TestParseBatteryStatus(t *testing.T) {
	tests := []struct {
		token string
		want  BatteryStatus
	}{
		{"Charging", Charging},
		{"  charging\n", Charging},
		{"Discharging", Discharging},
		{"Empty", Discharging},
		{"Idle", Idle},
		{"Full", Idle},
		{"Not charging", Idle},
		{"NOT_CHARGING", Idle},
		{"NotPresent", NotPresent},
		{"not-present", NotPresent},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseBatteryStatus(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBatteryStatusUnknownToken(t *testing.T) {
	for _, token := range []string{"", "Unknown", "Error", "42"} {
		_, err := ParseBatteryStatus(token)

		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr), "token %q", token)
		assert.Equal(t, token, decodeErr.Token)
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "25%", Percentage(50, 200))
	assert.Equal(t, "100%", Percentage(3700, 3700))
	assert.Equal(t, "150%", Percentage(300, 200), "no clamping")
	assert.Equal(t, Unknown, Percentage(10, 0))
}

func TestBuildSnapshotWithBattery(t *testing.T) {
	h := stubHandle{id: "pad-1", name: "DualSense", wireless: true}
	report := BatteryReport{
		Status:             Discharging,
		FullChargeCapacity: ptr.To[uint32](200),
		RemainingCapacity:  ptr.To[uint32](50),
	}

	s := BuildSnapshot(h, ConnectionInfo{IsWireless: true, IsConnected: true}, report)

	assert.Equal(t, Snapshot{
		Mode:                  ModeWithBattery,
		ControllerID:          "pad-1",
		ControllerName:        "DualSense",
		Connection:            "Controller connected",
		ConnectionType:        "Connected via wireless",
		BatteryStatus:         "Battery state: Discharging",
		FullCapacity:          "Full capacity: 200mWh",
		RemainingCapacity:     "Remaining capacity: 50mWh",
		Percentage:            "25%",
		IsWireless:            true,
		FullChargeCapacityMWh: 200,
		RemainingCapacityMWh:  50,
	}, s)
}

func TestBuildSnapshotNotPresentIgnoresCapacities(t *testing.T) {
	h := stubHandle{id: "pad-1", name: "Wired pad"}
	report := BatteryReport{
		Status:             NotPresent,
		FullChargeCapacity: ptr.To[uint32](1000),
		RemainingCapacity:  ptr.To[uint32](900),
	}

	s := BuildSnapshot(h, ConnectionInfo{IsConnected: true}, report)

	assert.Equal(t, ModeWithoutBattery, s.Mode)
	assert.Equal(t, uint32(0), s.FullChargeCapacityMWh)
	assert.Equal(t, uint32(0), s.RemainingCapacityMWh)
	assert.Equal(t, None, s.Percentage)
	assert.Equal(t, "Connected via cable", s.ConnectionType)
	assert.Equal(t, "Full capacity: None", s.FullCapacity)
}

func TestBuildSnapshotMissingCapacity(t *testing.T) {
	h := stubHandle{id: "pad-1"}
	report := BatteryReport{Status: Charging, FullChargeCapacity: ptr.To[uint32](1000)}

	s := BuildSnapshot(h, ConnectionInfo{IsConnected: true}, report)

	assert.Equal(t, ModeWithoutBattery, s.Mode)
	assert.Equal(t, None, s.Percentage)
	assert.Equal(t, uint32(0), s.FullChargeCapacityMWh)
}

func TestDefaultSnapshotIsEmpty(t *testing.T) {
	s := DefaultSnapshot()
	for _, field := range []string{s.Connection, s.ConnectionType, s.BatteryStatus, s.FullCapacity, s.RemainingCapacity, s.Percentage} {
		assert.Empty(t, field)
	}
	assert.Equal(t, ModeDefault, s.Mode)
}

func TestRawBatteryReportDecode(t *testing.T) {
	raw := RawBatteryReport{Status: "Full", FullChargeCapacity: ptr.To[uint32](10), RemainingCapacity: ptr.To[uint32](10)}
	report, err := raw.Decode()
	require.NoError(t, err)
	assert.Equal(t, Idle, report.Status)
	assert.True(t, report.HasBattery())

	_, err = RawBatteryReport{Status: "bogus"}.Decode()
	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestSnapshotModeJSON(t *testing.T) {
	b, err := json.Marshal(Snapshot{Mode: ModeWithoutBattery})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"mode":"withoutBattery"`)

	var s Snapshot
	require.NoError(t, json.Unmarshal(b, &s))
	assert.Equal(t, ModeWithoutBattery, s.Mode)
}
