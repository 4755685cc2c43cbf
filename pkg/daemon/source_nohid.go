//go:build nohid

package daemon

import (
	"errors"

	"github.com/charlie0129/padbatt/pkg/input"
)

// errNoHID is returned for the hidpad backend in builds without hidapi.
var errNoHID = errors.New("padbatt was built without HID support (nohid tag)")

func newHIDSource() (input.Source, error) {
	return nil, errNoHID
}
