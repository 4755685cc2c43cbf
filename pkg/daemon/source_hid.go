//go:build !nohid

package daemon

import (
	"github.com/charlie0129/padbatt/pkg/input"
	"github.com/charlie0129/padbatt/pkg/input/hidpad"
)

func newHIDSource() (input.Source, error) {
	return hidpad.New()
}
