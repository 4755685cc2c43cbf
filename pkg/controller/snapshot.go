package controller

import (
	"fmt"
	"strconv"
)

// Mode is the display state a snapshot renders in.
type Mode int

const (
	// ModeDefault means no controller is shown.
	ModeDefault Mode = iota
	// ModeWithoutBattery means a controller is shown but there is no battery data.
	ModeWithoutBattery
	// ModeWithBattery means a controller is shown with full battery data.
	ModeWithBattery
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeWithoutBattery:
		return "withoutBattery"
	case ModeWithBattery:
		return "withBattery"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "default", "":
		*m = ModeDefault
	case "withoutBattery":
		*m = ModeWithoutBattery
	case "withBattery":
		*m = ModeWithBattery
	default:
		return fmt.Errorf("unknown mode %q", string(b))
	}
	return nil
}

// Display labels.
const (
	LabelControllerConnected    = "Controller connected"
	LabelControllerDisconnected = "Controller disconnected"
	LabelNoController           = "No controller connected"
	LabelViaWireless            = "Connected via wireless"
	LabelViaCable               = "Connected via cable"
	LabelBatteryState           = "Battery state:"
	LabelFullCapacity           = "Full capacity:"
	LabelRemainingCapacity      = "Remaining capacity:"

	// None is shown in place of values that are not available.
	None = "None"
	// Unknown is the percentage when the full charge capacity is zero.
	Unknown = "Unknown"

	EnergyUnit = "mWh"
)

// Snapshot is everything needed to render one poll cycle. It is computed from
// scratch every cycle and carries no state between cycles.
type Snapshot struct {
	Mode           Mode   `json:"mode"`
	ControllerID   string `json:"controllerId,omitempty"`
	ControllerName string `json:"controllerName,omitempty"`

	Connection        string `json:"connection"`
	ConnectionType    string `json:"connectionType"`
	BatteryStatus     string `json:"batteryStatus"`
	FullCapacity      string `json:"fullCapacity"`
	RemainingCapacity string `json:"remainingCapacity"`
	Percentage        string `json:"percentage"`

	// Raw values behind the labels, for API consumers.
	IsWireless            bool   `json:"isWireless"`
	FullChargeCapacityMWh uint32 `json:"fullChargeCapacityMwh"`
	RemainingCapacityMWh  uint32 `json:"remainingCapacityMwh"`
}

// DefaultSnapshot is the snapshot shown when there is no controller. All
// label fields are empty.
func DefaultSnapshot() Snapshot {
	return Snapshot{Mode: ModeDefault}
}

// BuildSnapshot projects a decoded report of controller h into a Snapshot.
func BuildSnapshot(h Handle, info ConnectionInfo, report BatteryReport) Snapshot {
	s := Snapshot{
		ControllerID:   h.ID(),
		ControllerName: h.Name(),
		Connection:     LabelControllerConnected,
		ConnectionType: LabelViaCable,
		IsWireless:     info.IsWireless,
	}
	if info.IsWireless {
		s.ConnectionType = LabelViaWireless
	}

	if !report.HasBattery() {
		s.Mode = ModeWithoutBattery
		s.BatteryStatus = LabelBatteryState + " " + None
		s.FullCapacity = LabelFullCapacity + " " + None
		s.RemainingCapacity = LabelRemainingCapacity + " " + None
		s.Percentage = None
		return s
	}

	full, remaining := *report.FullChargeCapacity, *report.RemainingCapacity

	s.Mode = ModeWithBattery
	s.FullChargeCapacityMWh = full
	s.RemainingCapacityMWh = remaining
	s.BatteryStatus = LabelBatteryState + " " + report.Status.String()
	s.FullCapacity = LabelFullCapacity + " " + FormatEnergy(full)
	s.RemainingCapacity = LabelRemainingCapacity + " " + FormatEnergy(remaining)
	s.Percentage = Percentage(remaining, full)
	return s
}

// FormatEnergy formats a capacity with its unit, e.g. "3700mWh".
func FormatEnergy(mwh uint32) string {
	return strconv.FormatUint(uint64(mwh), 10) + EnergyUnit
}

// Percentage returns remaining/full*100 with a trailing '%'. The value is
// neither rounded nor clamped. A zero full capacity yields Unknown.
func Percentage(remaining, full uint32) string {
	if full == 0 {
		return Unknown
	}
	p := float64(remaining) / float64(full) * 100
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}
