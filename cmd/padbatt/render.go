package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/charlie0129/padbatt/pkg/controller"
)

// terminalRenderer prints snapshots to a terminal. It is the CLI side of the
// presentation adapter.
type terminalRenderer struct {
	w io.Writer
}

func (r terminalRenderer) Render(s controller.Snapshot) {
	fmt.Fprint(r.w, formatSnapshot(s))
}

func formatSnapshot(s controller.Snapshot) string {
	var b strings.Builder

	b.WriteString(bold("Controller:") + "\n")
	if s.Mode == controller.ModeDefault {
		b.WriteString("  " + controller.LabelNoController + "\n")
		return b.String()
	}

	name := s.ControllerName
	if name == "" {
		name = s.ControllerID
	}
	fmt.Fprintf(&b, "  %s %s\n", color.GreenString("%s", s.Connection), bold("%s", name))
	fmt.Fprintf(&b, "  %s\n", s.ConnectionType)
	b.WriteString("\n")

	b.WriteString(bold("Battery:") + "\n")
	fmt.Fprintf(&b, "  %s\n", colorStatus(s.BatteryStatus))
	fmt.Fprintf(&b, "  %s\n", s.FullCapacity)
	fmt.Fprintf(&b, "  %s\n", s.RemainingCapacity)
	fmt.Fprintf(&b, "  Percentage: %s\n", bold("%s", s.Percentage))

	return b.String()
}

// oneLine is the compact form used by watch.
func oneLine(s controller.Snapshot) string {
	if s.Mode == controller.ModeDefault {
		return controller.LabelNoController
	}
	name := s.ControllerName
	if name == "" {
		name = s.ControllerID
	}
	return fmt.Sprintf("%s, %s, %s, %s", name, s.ConnectionType, s.BatteryStatus, s.Percentage)
}

func colorStatus(label string) string {
	switch {
	case strings.HasSuffix(label, controller.Charging.String()):
		return color.GreenString("%s", label)
	case strings.HasSuffix(label, controller.Discharging.String()):
		return color.YellowString("%s", label)
	}
	return label
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
