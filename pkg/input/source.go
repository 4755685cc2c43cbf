// Package input discovers game controllers and reports them as attached or
// detached.
package input

import (
	"context"
	"errors"
	"slices"

	"github.com/charlie0129/padbatt/pkg/controller"
)

// ErrUnknownBackend is returned for a backend name that is not supported.
var ErrUnknownBackend = errors.New("unknown input backend")

// Backend names.
const (
	BackendSysfs     = "sysfs"
	BackendHIDPad    = "hidpad"
	BackendPower     = "power"
	BackendSimulator = "simulator"
)

// Backends lists every supported backend name.
var Backends = []string{BackendSysfs, BackendHIDPad, BackendPower, BackendSimulator}

// IsBackend reports whether name is a supported backend.
func IsBackend(name string) bool {
	return slices.Contains(Backends, name)
}

// Source lists the controllers that are currently present.
type Source interface {
	Name() string
	// Scan returns all controllers present right now. IDs must be stable
	// across scans for the same physical device.
	Scan(ctx context.Context) ([]controller.Handle, error)
	Close() error
}

// ControllerInfo describes an attached controller for API consumers.
type ControllerInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsWireless bool   `json:"isWireless"`
}

// Describe returns the ControllerInfo of h.
func Describe(h controller.Handle) ControllerInfo {
	return ControllerInfo{
		ID:         h.ID(),
		Name:       h.Name(),
		IsWireless: h.IsWireless(),
	}
}
