package daemon

import (
	"fmt"

	"github.com/charlie0129/padbatt/pkg/config"
	"github.com/charlie0129/padbatt/pkg/input"
	"github.com/charlie0129/padbatt/pkg/input/power"
	"github.com/charlie0129/padbatt/pkg/input/simulator"
	"github.com/charlie0129/padbatt/pkg/input/sysfs"
)

// newSource creates the input backend selected in conf.
func newSource(conf config.Config) (input.Source, error) {
	switch name := conf.Backend(); name {
	case input.BackendSysfs:
		return sysfs.New(conf.SysfsRoot()), nil
	case input.BackendHIDPad:
		return newHIDSource()
	case input.BackendPower:
		return power.New(), nil
	case input.BackendSimulator:
		return simulator.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", input.ErrUnknownBackend, name)
	}
}
