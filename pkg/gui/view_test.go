package gui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/charlie0129/padbatt/pkg/controller"
	"github.com/charlie0129/padbatt/pkg/utils/ptr"
)

type pad struct{}

func (pad) ID() string       { return "sim:0" }
func (pad) Name() string     { return "DualSense" }
func (pad) IsWireless() bool { return true }
func (pad) BatteryReport() (controller.RawBatteryReport, error) {
	return controller.RawBatteryReport{}, nil
}

func TestViewOfDefault(t *testing.T) {
	v := viewOf(controller.DefaultSnapshot())
	assert.Equal(t, "🎮 -", v.Title)
	assert.Equal(t, controller.LabelNoController, v.Items[0])
	for _, item := range v.Items[1:] {
		assert.Equal(t, "-", item)
	}
	assert.Equal(t, "padbatt", tooltipOf(controller.DefaultSnapshot()))
}

func TestViewOfWithBattery(t *testing.T) {
	s := controller.BuildSnapshot(pad{}, controller.ConnectionInfo{IsWireless: true}, controller.BatteryReport{
		Status:             controller.Discharging,
		FullChargeCapacity: ptr.To[uint32](200),
		RemainingCapacity:  ptr.To[uint32](50),
	})

	v := viewOf(s)
	assert.Equal(t, "🎮 25%", v.Title)
	assert.Equal(t, [itemCount]string{
		controller.LabelControllerConnected,
		controller.LabelViaWireless,
		"Battery state: Discharging",
		"Full capacity: 200mWh",
		"Remaining capacity: 50mWh",
		"Percentage: 25%",
	}, v.Items)
	assert.Equal(t, "padbatt - DualSense", tooltipOf(s))
}

func TestViewOfWithoutBattery(t *testing.T) {
	s := controller.BuildSnapshot(pad{}, controller.ConnectionInfo{}, controller.BatteryReport{
		Status: controller.NotPresent,
	})

	v := viewOf(s)
	assert.Equal(t, "🎮 None", v.Title)
	assert.Equal(t, controller.LabelViaCable, v.Items[1])
	assert.Equal(t, "Percentage: None", v.Items[5])
}

func TestOfflineView(t *testing.T) {
	v := offlineView()
	assert.Equal(t, "🚫 Offline", v.Title)
	assert.NotEqual(t, viewOf(controller.DefaultSnapshot()), v)
}
