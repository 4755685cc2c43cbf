package sysfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/padbatt/pkg/controller"
)

func writeSupply(t *testing.T, root, name string, files map[string]string) {
	t.Helper()
	for file, content := range files {
		p := filepath.Join(root, name, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content+"\n"), 0o644))
	}
}

func scan(t *testing.T, root string) map[string]controller.Handle {
	t.Helper()
	handles, err := New(root).Scan(context.Background())
	require.NoError(t, err)

	ret := map[string]controller.Handle{}
	for _, h := range handles {
		ret[h.ID()] = h
	}
	return ret
}

func TestScanSkipsSystemBatteries(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "BAT0", map[string]string{"type": "Battery", "scope": "System", "status": "Charging"})
	writeSupply(t, root, "AC", map[string]string{"type": "Mains"})
	writeSupply(t, root, "hidpp_battery_0", map[string]string{"type": "Battery", "scope": "Device", "status": "Discharging"})

	got := scan(t, root)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "sysfs:hidpp_battery_0")
}

func TestDualSenseOverBluetooth(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "ps-controller-battery-aa:bb:cc:dd:ee:ff", map[string]string{
		"type":          "Battery",
		"scope":         "Device",
		"status":        "Discharging",
		"capacity":      "50",
		"device/name":   "Sony Interactive Entertainment DualSense Wireless Controller",
		"device/uevent": "DRIVER=playstation\nHID_ID=0005:0000054C:00000CE6\nHID_NAME=DualSense Wireless Controller",
	})

	h := scan(t, root)["sysfs:ps-controller-battery-aa:bb:cc:dd:ee:ff"]
	require.NotNil(t, h)
	assert.True(t, h.IsWireless())
	assert.Equal(t, "Sony Interactive Entertainment DualSense Wireless Controller", h.Name())

	raw, err := h.BatteryReport()
	require.NoError(t, err)
	assert.Equal(t, "Discharging", raw.Status)
	require.NotNil(t, raw.FullChargeCapacity)
	require.NotNil(t, raw.RemainingCapacity)
	assert.Equal(t, uint32(5772), *raw.FullChargeCapacity)
	assert.Equal(t, uint32(2886), *raw.RemainingCapacity)
}

func TestEnergyFiles(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "pad", map[string]string{
		"type":          "Battery",
		"scope":         "Device",
		"status":        "Not charging",
		"model_name":    "Xbox Wireless Controller",
		"energy_full":   "3700000",
		"energy_now":    "1850500",
		"device/uevent": "HID_ID=0003:0000045E:00000B12",
	})

	h := scan(t, root)["sysfs:pad"]
	require.NotNil(t, h)
	assert.False(t, h.IsWireless())
	assert.Equal(t, "Xbox Wireless Controller", h.Name())

	raw, err := h.BatteryReport()
	require.NoError(t, err)
	report, err := raw.Decode()
	require.NoError(t, err)
	assert.Equal(t, controller.Idle, report.Status)
	assert.Equal(t, uint32(3700), *report.FullChargeCapacity)
	assert.Equal(t, uint32(1850), *report.RemainingCapacity)
}

func TestChargeFiles(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "pad", map[string]string{
		"type":               "Battery",
		"scope":              "Device",
		"status":             "Charging",
		"charge_full":        "1000000", // 1000 mAh
		"charge_now":         "500000",
		"voltage_min_design": "3700000", // 3.7 V
	})

	raw, err := scan(t, root)["sysfs:pad"].BatteryReport()
	require.NoError(t, err)
	assert.Equal(t, uint32(3700), *raw.FullChargeCapacity)
	assert.Equal(t, uint32(1850), *raw.RemainingCapacity)
}

func TestNotPresentAndMissingCapacity(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "gone", map[string]string{"type": "Battery", "scope": "Device", "status": "Unknown", "present": "0"})
	writeSupply(t, root, "bare", map[string]string{"type": "Battery", "scope": "Device", "status": "Full"})

	got := scan(t, root)

	raw, err := got["sysfs:gone"].BatteryReport()
	require.NoError(t, err)
	report, err := raw.Decode()
	require.NoError(t, err)
	assert.Equal(t, controller.NotPresent, report.Status)

	raw, err = got["sysfs:bare"].BatteryReport()
	require.NoError(t, err)
	assert.Equal(t, "Full", raw.Status)
	assert.Nil(t, raw.FullChargeCapacity)
	assert.Nil(t, raw.RemainingCapacity)
}

func TestScanMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope")).Scan(context.Background())
	assert.Error(t, err)
}
