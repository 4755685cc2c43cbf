package config

import (
	"github.com/sirupsen/logrus"
)

// DefaultPath is where the daemon looks for its config file.
const DefaultPath = "/etc/padbatt.json"

// Bounds of the tunable intervals, in milliseconds.
const (
	MinUpdateFrequencyMs = 50
	MaxUpdateFrequencyMs = 60000
	MinScanIntervalMs    = 100
	MaxScanIntervalMs    = 60000
)

type Config interface {
	UpdateFrequencyMs() int
	ScanIntervalMs() int
	Backend() string
	MultiControllerPolicy() string
	Notifications() bool
	AllowNonRootAccess() bool
	AppName() string
	SysfsRoot() string

	SetUpdateFrequencyMs(int) error
	SetScanIntervalMs(int) error
	SetBackend(string) error
	SetMultiControllerPolicy(string) error
	SetNotifications(bool)
	SetAllowNonRootAccess(bool)
	SetAppName(string) error

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
