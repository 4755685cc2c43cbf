// Package sysfs finds controller batteries exposed by the Linux kernel under
// /sys/class/power_supply.
package sysfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/padbatt/pkg/controller"
	"github.com/charlie0129/padbatt/pkg/input"
	"github.com/charlie0129/padbatt/pkg/utils/ptr"
)

// DefaultRoot is where the kernel lists power supplies.
const DefaultRoot = "/sys/class/power_supply"

// busBluetooth is the HID bus number of Bluetooth devices.
const busBluetooth = "0005"

// designEnergy maps driver-specific supply name prefixes to the design
// energy (mWh) of the model. It is used when the driver only reports a
// percentage.
var designEnergy = map[string]uint32{
	"ps-controller-battery-":   5772, // hid-playstation, DualSense
	"sony_controller_battery_": 3700, // hid-sony, DualShock 4
}

// Source scans a power_supply directory.
type Source struct {
	root string
}

var _ input.Source = &Source{}

// New creates a Source reading from root. An empty root means DefaultRoot.
func New(root string) *Source {
	if root == "" {
		root = DefaultRoot
	}
	return &Source{root: root}
}

func (s *Source) Name() string { return "sysfs" }

func (s *Source) Close() error { return nil }

// Scan returns every device-scoped battery.
func (s *Source) Scan(ctx context.Context) ([]controller.Handle, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.root, err)
	}

	var ret []controller.Handle
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := filepath.Join(s.root, e.Name())
		if !isDeviceBattery(dir) {
			continue
		}

		ret = append(ret, &Handle{
			dir:      dir,
			supply:   e.Name(),
			name:     modelName(dir, e.Name()),
			wireless: isBluetooth(dir),
		})
	}

	return ret, nil
}

func isDeviceBattery(dir string) bool {
	typ, _ := readString(dir, "type")
	if typ != "Battery" {
		return false
	}
	// Laptop batteries have scope System or no scope at all.
	scope, _ := readString(dir, "scope")
	return scope == "Device"
}

func modelName(dir, supply string) string {
	if name, err := readString(dir, "model_name"); err == nil && name != "" {
		return name
	}
	if name, err := readString(filepath.Join(dir, "device"), "name"); err == nil && name != "" {
		return name
	}
	return supply
}

// isBluetooth looks up the bus in the HID_ID line of the parent's uevent,
// e.g. HID_ID=0005:0000054C:00000CE6.
func isBluetooth(dir string) bool {
	b, err := os.ReadFile(filepath.Join(dir, "device", "uevent"))
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(b), "\n") {
		v, ok := strings.CutPrefix(strings.TrimSpace(line), "HID_ID=")
		if !ok {
			continue
		}
		bus, _, _ := strings.Cut(v, ":")
		return bus == busBluetooth
	}
	return false
}

// Handle is one power_supply entry.
type Handle struct {
	dir      string
	supply   string
	name     string
	wireless bool
}

var _ controller.Handle = &Handle{}

func (h *Handle) ID() string       { return "sysfs:" + h.supply }
func (h *Handle) Name() string     { return h.name }
func (h *Handle) IsWireless() bool { return h.wireless }

// BatteryReport reads the current state of the supply.
func (h *Handle) BatteryReport() (controller.RawBatteryReport, error) {
	if present, err := readInt(h.dir, "present"); err == nil && present == 0 {
		return controller.RawBatteryReport{Status: controller.NotPresent.String()}, nil
	}

	status, err := readString(h.dir, "status")
	if err != nil {
		return controller.RawBatteryReport{}, fmt.Errorf("failed to read status of %s: %w", h.supply, err)
	}

	full, remaining := h.capacities()

	return controller.RawBatteryReport{
		Status:             status,
		FullChargeCapacity: full,
		RemainingCapacity:  remaining,
	}, nil
}

// capacities returns full and remaining energy in mWh, or nil when the
// driver does not report them.
func (h *Handle) capacities() (full, remaining *uint32) {
	// energy_* is in µWh.
	ef, errF := readInt(h.dir, "energy_full")
	en, errN := readInt(h.dir, "energy_now")
	if errF == nil && errN == nil {
		return microToMilli(ef), microToMilli(en)
	}

	// charge_* is in µAh, voltage in µV.
	cf, errF := readInt(h.dir, "charge_full")
	cn, errN := readInt(h.dir, "charge_now")
	v, errV := readInt(h.dir, "voltage_min_design")
	if errV != nil {
		v, errV = readInt(h.dir, "voltage_now")
	}
	if errF == nil && errN == nil && errV == nil {
		return ptr.To(uint32(cf * v / 1e9)), ptr.To(uint32(cn * v / 1e9))
	}

	percent, err := readInt(h.dir, "capacity")
	if err != nil {
		return nil, nil
	}
	for prefix, design := range designEnergy {
		if strings.HasPrefix(h.supply, prefix) {
			return ptr.To(design), ptr.To(uint32(int64(design) * percent / 100))
		}
	}

	logrus.WithField("supply", h.supply).Trace("battery only reports a percentage of unknown design energy")
	return nil, nil
}

func microToMilli(v int64) *uint32 {
	return ptr.To(uint32(v / 1000))
}

func readString(dir, name string) (string, error) {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func readInt(dir, name string) (int64, error) {
	s, err := readString(dir, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value in %s: %d", name, v)
	}
	return v, nil
}
