package hidpad

import (
	"fmt"

	"github.com/charlie0129/padbatt/pkg/controller"
	"github.com/charlie0129/padbatt/pkg/utils/ptr"
)

// SonyVendorID is the USB vendor ID of Sony Interactive Entertainment.
const SonyVendorID uint16 = 0x054c

// Family groups models that share an input report layout.
type Family int

const (
	DualShock4 Family = iota + 1
	DualSense
)

// Model is a supported controller.
type Model struct {
	ProductID uint16
	Name      string
	Family    Family
	// DesignEnergy is the capacity of the stock battery in mWh.
	DesignEnergy uint32
	// Dongle is true for the DS4 USB wireless adapter.
	Dongle bool
}

// Models lists the supported Sony controllers.
var Models = []Model{
	{ProductID: 0x05c4, Name: "DualShock 4", Family: DualShock4, DesignEnergy: 3700},
	{ProductID: 0x09cc, Name: "DualShock 4 (v2)", Family: DualShock4, DesignEnergy: 3700},
	{ProductID: 0x0ba0, Name: "DualShock 4 (wireless adapter)", Family: DualShock4, DesignEnergy: 3700, Dongle: true},
	{ProductID: 0x0ce6, Name: "DualSense", Family: DualSense, DesignEnergy: 5772},
	{ProductID: 0x0df2, Name: "DualSense Edge", Family: DualSense, DesignEnergy: 3885},
}

// LookupModel finds the model with product ID pid.
func LookupModel(pid uint16) (Model, bool) {
	for _, m := range Models {
		if m.ProductID == pid {
			return m, true
		}
	}
	return Model{}, false
}

// Input report IDs.
const (
	reportUSB   = 0x01
	reportDS4BT = 0x11
	reportDSBT  = 0x31
)

// Offsets of the battery byte, counting the report ID as byte 0.
const (
	ds4USBBatteryOffset = 30
	ds4BTBatteryOffset  = 32
	dsUSBStatusOffset   = 53
	dsBTStatusOffset    = 54
)

// StatusError is the token reported when the controller flags a battery
// fault. It is not a known status and fails to decode.
const StatusError = "Error"

// State is what one input report says about the battery.
type State struct {
	// Wireless is true when the report came over Bluetooth.
	Wireless bool
	// Status is a raw status token.
	Status string
	// Percent is 0-100. It is meaningless when Status is StatusError.
	Percent uint32
}

// ParseReport extracts the battery state from an input report of the given
// family. buf starts with the report ID.
func ParseReport(family Family, buf []byte) (State, error) {
	if len(buf) == 0 {
		return State{}, fmt.Errorf("empty input report")
	}

	switch family {
	case DualShock4:
		return parseDS4(buf)
	case DualSense:
		return parseDualSense(buf)
	}
	return State{}, fmt.Errorf("unknown controller family %d", family)
}

func parseDS4(buf []byte) (State, error) {
	var offset int
	var st State
	switch buf[0] {
	case reportUSB:
		offset = ds4USBBatteryOffset
	case reportDS4BT:
		offset = ds4BTBatteryOffset
		st.Wireless = true
	default:
		return State{}, fmt.Errorf("unexpected DualShock 4 report ID 0x%02x", buf[0])
	}
	if len(buf) <= offset {
		return State{}, fmt.Errorf("DualShock 4 report too short: %d bytes", len(buf))
	}

	b := buf[offset]
	cable := b&0x10 != 0
	level := uint32(b & 0x0f)

	switch {
	case cable && level > 10:
		st.Status, st.Percent = "Full", 100
	case cable:
		st.Status, st.Percent = "Charging", levelToPercent(level)
	default:
		st.Status, st.Percent = "Discharging", levelToPercent(level)
	}
	return st, nil
}

func parseDualSense(buf []byte) (State, error) {
	var offset int
	var st State
	switch buf[0] {
	case reportUSB:
		offset = dsUSBStatusOffset
	case reportDSBT:
		offset = dsBTStatusOffset
		st.Wireless = true
	default:
		return State{}, fmt.Errorf("unexpected DualSense report ID 0x%02x", buf[0])
	}
	if len(buf) <= offset {
		return State{}, fmt.Errorf("DualSense report too short: %d bytes", len(buf))
	}

	b := buf[offset]
	level := uint32(b & 0x0f)

	switch b >> 4 {
	case 0x0:
		st.Status, st.Percent = "Discharging", levelToPercent(level)
	case 0x1:
		st.Status, st.Percent = "Charging", levelToPercent(level)
	case 0x2:
		st.Status, st.Percent = "Full", 100
	default:
		st.Status = StatusError
	}
	return st, nil
}

// levelToPercent converts the 0-10 battery level to a percentage. The
// controller rounds down, so we report the middle of the step.
func levelToPercent(level uint32) uint32 {
	return min(level*10+5, 100)
}

// Report converts a parsed state into a raw report using the model's design
// energy as the full charge capacity.
func (s State) Report(m Model) controller.RawBatteryReport {
	raw := controller.RawBatteryReport{Status: s.Status}
	if s.Status == StatusError || m.DesignEnergy == 0 {
		return raw
	}
	raw.FullChargeCapacity = ptr.To(m.DesignEnergy)
	raw.RemainingCapacity = ptr.To(m.DesignEnergy * s.Percent / 100)
	return raw
}
