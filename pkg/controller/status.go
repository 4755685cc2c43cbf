package controller

import (
	"fmt"
	"strings"
)

// BatteryStatus is the charge status of a controller battery.
// The set is closed: anything a platform reports outside of it fails to
// decode with a *DecodeError.
type BatteryStatus int

const (
	// Charging indicates the battery is being charged.
	Charging BatteryStatus = iota + 1
	// Discharging indicates the controller is running on battery.
	Discharging
	// Idle indicates a battery is present but neither charging nor discharging.
	Idle
	// NotPresent indicates the controller has no battery, e.g. a wired pad.
	NotPresent
)

func (s BatteryStatus) String() string {
	switch s {
	case Charging:
		return "Charging"
	case Discharging:
		return "Discharging"
	case Idle:
		return "Idle"
	case NotPresent:
		return "Not present"
	default:
		return fmt.Sprintf("BatteryStatus(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s BatteryStatus) MarshalText() ([]byte, error) {
	switch s {
	case Charging:
		return []byte("charging"), nil
	case Discharging:
		return []byte("discharging"), nil
	case Idle:
		return []byte("idle"), nil
	case NotPresent:
		return []byte("notPresent"), nil
	}
	return nil, &DecodeError{Token: s.String()}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *BatteryStatus) UnmarshalText(b []byte) error {
	v, err := ParseBatteryStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// DecodeError is returned when a platform status token does not map to a
// BatteryStatus.
type DecodeError struct {
	Token string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unrecognized battery status %q", e.Token)
}

// ParseBatteryStatus maps a platform status token to a BatteryStatus.
// Matching ignores case, surrounding spaces, and '_'/'-'/' ' separators, so
// "Not charging", "NOT_CHARGING" and "notCharging" are the same token.
func ParseBatteryStatus(token string) (BatteryStatus, error) {
	normalized := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(token)))

	switch normalized {
	case "charging":
		return Charging, nil
	case "discharging", "empty":
		return Discharging, nil
	case "idle", "full", "notcharging":
		return Idle, nil
	case "notpresent", "absent":
		return NotPresent, nil
	}

	return 0, &DecodeError{Token: token}
}
