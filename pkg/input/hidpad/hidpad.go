// Package hidpad reads the battery of Sony controllers directly from their
// HID input reports.
package hidpad

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sstallion/go-hid"

	"github.com/charlie0129/padbatt/pkg/controller"
	"github.com/charlie0129/padbatt/pkg/input"
)

const (
	readTimeout = 200 * time.Millisecond
	// maxReads bounds how many reports we skip looking for one with
	// battery data.
	maxReads   = 8
	reportSize = 78
)

// Feature reports that switch Bluetooth controllers to full input reports.
const (
	ds4CalibrationReport = 0x02
	dsCalibrationReport  = 0x05
)

// Source enumerates Sony controllers with hidapi.
type Source struct {
	mu sync.Mutex
	// handles caches open handles by ID so a device is opened once.
	handles map[string]*Handle
}

var _ input.Source = &Source{}

// New initializes hidapi and returns a Source. Close must be called to
// release it.
func New() (*Source, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize hidapi: %w", err)
	}
	return &Source{handles: map[string]*Handle{}}, nil
}

func (s *Source) Name() string { return "hidpad" }

// Scan enumerates all supported controllers.
func (s *Source) Scan(ctx context.Context) ([]controller.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var infos []hid.DeviceInfo
	err := hid.Enumerate(SonyVendorID, 0, func(info *hid.DeviceInfo) error {
		if _, ok := LookupModel(info.ProductID); ok {
			infos = append(infos, *info)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate HID devices: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{}
	var ret []controller.Handle
	for _, info := range infos {
		id := deviceID(info)
		if seen[id] {
			// Same controller on another interface.
			continue
		}
		seen[id] = true

		h, ok := s.handles[id]
		if !ok {
			model, _ := LookupModel(info.ProductID)
			h = &Handle{id: id, path: info.Path, model: model, wireless: model.Dongle}
			s.handles[id] = h
			logrus.WithFields(logrus.Fields{
				"id":    id,
				"model": model.Name,
				"path":  info.Path,
			}).Debug("found controller")
		}
		ret = append(ret, h)
	}

	for id, h := range s.handles {
		if !seen[id] {
			h.close()
			delete(s.handles, id)
		}
	}

	return ret, nil
}

// Close closes all devices and releases hidapi.
func (s *Source) Close() error {
	s.mu.Lock()
	for id, h := range s.handles {
		h.close()
		delete(s.handles, id)
	}
	s.mu.Unlock()
	return hid.Exit()
}

func deviceID(info hid.DeviceInfo) string {
	if info.SerialNbr != "" {
		return fmt.Sprintf("hid:%04x:%04x:%s", info.VendorID, info.ProductID, info.SerialNbr)
	}
	return "hid:" + info.Path
}

// Handle is one controller. The device is opened on the first read and
// reopened after an error.
type Handle struct {
	id    string
	path  string
	model Model

	mu       sync.Mutex
	dev      *hid.Device
	wireless bool
}

var _ controller.Handle = &Handle{}

func (h *Handle) ID() string   { return h.id }
func (h *Handle) Name() string { return h.model.Name }

// IsWireless reports the transport seen in the last report.
func (h *Handle) IsWireless() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.wireless
}

// BatteryReport reads input reports until one carries battery data.
func (h *Handle) BatteryReport() (controller.RawBatteryReport, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.openLocked(); err != nil {
		return controller.RawBatteryReport{}, err
	}

	buf := make([]byte, reportSize)
	var lastErr error
	for i := 0; i < maxReads; i++ {
		n, err := h.dev.ReadWithTimeout(buf, readTimeout)
		if errors.Is(err, hid.ErrTimeout) {
			// Idle controller; keep the device open.
			return controller.RawBatteryReport{}, fmt.Errorf("no input report within %s", readTimeout)
		}
		if err != nil {
			h.closeLocked()
			return controller.RawBatteryReport{}, fmt.Errorf("failed to read input report: %w", err)
		}

		st, err := ParseReport(h.model.Family, buf[:n])
		if err != nil {
			// Reduced Bluetooth reports carry no battery data.
			lastErr = err
			continue
		}

		h.wireless = st.Wireless || h.model.Dongle
		return st.Report(h.model), nil
	}

	return controller.RawBatteryReport{}, fmt.Errorf("no battery data in %d input reports: %w", maxReads, lastErr)
}

func (h *Handle) openLocked() error {
	if h.dev != nil {
		return nil
	}

	dev, err := hid.OpenPath(h.path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", h.path, err)
	}

	// Over Bluetooth, reading the calibration report makes the controller
	// send full input reports. Over USB it is harmless.
	feature := make([]byte, 64)
	feature[0] = ds4CalibrationReport
	if h.model.Family == DualSense {
		feature[0] = dsCalibrationReport
	}
	if _, err := dev.GetFeatureReport(feature); err != nil {
		logrus.WithError(err).WithField("id", h.id).Debug("failed to get calibration report")
	}

	h.dev = dev
	return nil
}

func (h *Handle) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeLocked()
}

func (h *Handle) closeLocked() {
	if h.dev == nil {
		return
	}
	if err := h.dev.Close(); err != nil {
		logrus.WithError(err).WithField("id", h.id).Debug("failed to close device")
	}
	h.dev = nil
}
