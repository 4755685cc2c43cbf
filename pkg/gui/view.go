package gui

import (
	"github.com/charlie0129/padbatt/pkg/controller"
)

const (
	titlePrefix  = "🎮"
	titleOffline = "🚫 Offline"
	titleLoading = "🎮 Loading..."
	emptyValue   = "-"
)

// itemCount is the number of status lines in the menu.
const itemCount = 6

// view is what the tray shows for one snapshot.
type view struct {
	Title string
	Items [itemCount]string
}

// offlineView is shown when the daemon cannot be reached.
func offlineView() view {
	v := view{Title: titleOffline}
	v.Items[0] = "Daemon not reachable"
	for i := 1; i < itemCount; i++ {
		v.Items[i] = emptyValue
	}
	return v
}

// viewOf lays the snapshot fields out in menu order.
func viewOf(s controller.Snapshot) view {
	switch s.Mode {
	case controller.ModeDefault:
		v := view{Title: titlePrefix + " " + emptyValue}
		v.Items[0] = controller.LabelNoController
		for i := 1; i < itemCount; i++ {
			v.Items[i] = emptyValue
		}
		return v
	default:
		return view{
			Title: titlePrefix + " " + s.Percentage,
			Items: [itemCount]string{
				s.Connection,
				s.ConnectionType,
				s.BatteryStatus,
				s.FullCapacity,
				s.RemainingCapacity,
				"Percentage: " + s.Percentage,
			},
		}
	}
}

// tooltipOf names the shown controller, if any.
func tooltipOf(s controller.Snapshot) string {
	if s.Mode == controller.ModeDefault || s.ControllerName == "" {
		return "padbatt"
	}
	return "padbatt - " + s.ControllerName
}
