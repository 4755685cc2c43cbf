package controller

// Handle is a reference to one attached controller.
type Handle interface {
	// ID is stable for as long as the controller stays attached.
	ID() string
	// Name is a human readable model name.
	Name() string
	IsWireless() bool
	// BatteryReport queries the platform for a fresh report.
	BatteryReport() (RawBatteryReport, error)
}

// RawBatteryReport is a battery report as the platform delivered it.
// Capacities are in mWh and nil when the platform did not supply them.
type RawBatteryReport struct {
	Status             string  `json:"status"`
	FullChargeCapacity *uint32 `json:"fullChargeCapacity,omitempty"`
	RemainingCapacity  *uint32 `json:"remainingCapacity,omitempty"`
}

// BatteryReport is a decoded RawBatteryReport.
type BatteryReport struct {
	Status             BatteryStatus `json:"status"`
	FullChargeCapacity *uint32       `json:"fullChargeCapacity,omitempty"`
	RemainingCapacity  *uint32       `json:"remainingCapacity,omitempty"`
}

// Decode classifies the raw status token.
func (r RawBatteryReport) Decode() (BatteryReport, error) {
	status, err := ParseBatteryStatus(r.Status)
	if err != nil {
		return BatteryReport{}, err
	}

	return BatteryReport{
		Status:             status,
		FullChargeCapacity: r.FullChargeCapacity,
		RemainingCapacity:  r.RemainingCapacity,
	}, nil
}

// HasBattery reports whether the report carries usable battery data: a
// battery is present and both capacities were supplied.
func (r BatteryReport) HasBattery() bool {
	return r.Status != NotPresent && r.FullChargeCapacity != nil && r.RemainingCapacity != nil
}

// ConnectionInfo is derived on every poll.
type ConnectionInfo struct {
	IsWireless  bool `json:"isWireless"`
	IsConnected bool `json:"isConnected"`
}
