package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/charlie0129/padbatt/pkg/input"
	"github.com/charlie0129/padbatt/pkg/input/sysfs"
	"github.com/charlie0129/padbatt/pkg/monitor"
	"github.com/charlie0129/padbatt/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		UpdateFrequencyMs:     ptr.To(int(monitor.DefaultUpdateFrequency.Milliseconds())),
		ScanIntervalMs:        ptr.To(int(input.DefaultScanInterval.Milliseconds())),
		Backend:               ptr.To(defaultBackend()),
		MultiControllerPolicy: ptr.To(string(monitor.PolicyIgnore)),
		Notifications:         ptr.To(true),
		AllowNonRootAccess:    ptr.To(false),
		AppName:               ptr.To("padbatt"),
		SysfsRoot:             ptr.To(sysfs.DefaultRoot),
	}
)

func defaultBackend() string {
	return defaultBackendFor(runtime.GOOS)
}

// defaultBackendFor picks a controller backend. Only Linux exposes
// controller batteries as power supplies. Elsewhere the pads are read over
// HID, since the OS battery API only knows the host's own battery.
func defaultBackendFor(goos string) string {
	if goos == "linux" {
		return input.BackendSysfs
	}
	return input.BackendHIDPad
}

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

// NewFileFromConfig wraps c. A nil c means all defaults.
func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

// RawFileConfig is the on-disk form. Unset fields take their defaults.
type RawFileConfig struct {
	UpdateFrequencyMs     *int    `json:"updateFrequencyMs,omitempty" yaml:"updateFrequencyMs,omitempty"`
	ScanIntervalMs        *int    `json:"scanIntervalMs,omitempty" yaml:"scanIntervalMs,omitempty"`
	Backend               *string `json:"backend,omitempty" yaml:"backend,omitempty"`
	MultiControllerPolicy *string `json:"multiControllerPolicy,omitempty" yaml:"multiControllerPolicy,omitempty"`
	Notifications         *bool   `json:"notifications,omitempty" yaml:"notifications,omitempty"`
	AllowNonRootAccess    *bool   `json:"allowNonRootAccess,omitempty" yaml:"allowNonRootAccess,omitempty"`
	AppName               *string `json:"appName,omitempty" yaml:"appName,omitempty"`
	SysfsRoot             *string `json:"sysfsRoot,omitempty" yaml:"sysfsRoot,omitempty"`
}

// NewRawFileConfigFromConfig returns the effective values of c, with every
// field set.
func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	return &RawFileConfig{
		UpdateFrequencyMs:     ptr.To(c.UpdateFrequencyMs()),
		ScanIntervalMs:        ptr.To(c.ScanIntervalMs()),
		Backend:               ptr.To(c.Backend()),
		MultiControllerPolicy: ptr.To(c.MultiControllerPolicy()),
		Notifications:         ptr.To(c.Notifications()),
		AllowNonRootAccess:    ptr.To(c.AllowNonRootAccess()),
		AppName:               ptr.To(c.AppName()),
		SysfsRoot:             ptr.To(c.SysfsRoot()),
	}, nil
}

// value returns the field picked by sel, or its default when unset.
func value[T any](f *File, sel func(*RawFileConfig) *T) T {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if v := sel(f.c); v != nil {
		return *v
	}
	return *sel(defaultFileConfig)
}

func set[T any](f *File, sel func(*RawFileConfig) **T, v T) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	*sel(f.c) = &v
}

func (f *File) UpdateFrequencyMs() int {
	return value(f, func(c *RawFileConfig) *int { return c.UpdateFrequencyMs })
}

func (f *File) ScanIntervalMs() int {
	return value(f, func(c *RawFileConfig) *int { return c.ScanIntervalMs })
}

func (f *File) Backend() string {
	return value(f, func(c *RawFileConfig) *string { return c.Backend })
}

func (f *File) MultiControllerPolicy() string {
	return value(f, func(c *RawFileConfig) *string { return c.MultiControllerPolicy })
}

func (f *File) Notifications() bool {
	return value(f, func(c *RawFileConfig) *bool { return c.Notifications })
}

func (f *File) AllowNonRootAccess() bool {
	return value(f, func(c *RawFileConfig) *bool { return c.AllowNonRootAccess })
}

func (f *File) AppName() string {
	return value(f, func(c *RawFileConfig) *string { return c.AppName })
}

func (f *File) SysfsRoot() string {
	return value(f, func(c *RawFileConfig) *string { return c.SysfsRoot })
}

func (f *File) SetUpdateFrequencyMs(ms int) error {
	if err := ValidateUpdateFrequencyMs(ms); err != nil {
		return err
	}
	set(f, func(c *RawFileConfig) **int { return &c.UpdateFrequencyMs }, ms)
	return nil
}

func (f *File) SetScanIntervalMs(ms int) error {
	if ms < MinScanIntervalMs || ms > MaxScanIntervalMs {
		return fmt.Errorf("scan interval must be between %d and %d ms, got %d", MinScanIntervalMs, MaxScanIntervalMs, ms)
	}
	set(f, func(c *RawFileConfig) **int { return &c.ScanIntervalMs }, ms)
	return nil
}

func (f *File) SetBackend(name string) error {
	if !input.IsBackend(name) {
		return fmt.Errorf("%w: %q, must be one of %s", input.ErrUnknownBackend, name, strings.Join(input.Backends, ", "))
	}
	set(f, func(c *RawFileConfig) **string { return &c.Backend }, name)
	return nil
}

func (f *File) SetMultiControllerPolicy(p string) error {
	if _, err := monitor.ParsePolicy(p); err != nil {
		return err
	}
	set(f, func(c *RawFileConfig) **string { return &c.MultiControllerPolicy }, p)
	return nil
}

func (f *File) SetNotifications(b bool) {
	set(f, func(c *RawFileConfig) **bool { return &c.Notifications }, b)
}

func (f *File) SetAllowNonRootAccess(b bool) {
	set(f, func(c *RawFileConfig) **bool { return &c.AllowNonRootAccess }, b)
}

func (f *File) SetAppName(name string) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New("app name must not be empty")
	}
	set(f, func(c *RawFileConfig) **string { return &c.AppName }, name)
	return nil
}

// ValidateUpdateFrequencyMs checks ms against the allowed range.
func ValidateUpdateFrequencyMs(ms int) error {
	if ms < MinUpdateFrequencyMs || ms > MaxUpdateFrequencyMs {
		return fmt.Errorf("update frequency must be between %d and %d ms, got %d", MinUpdateFrequencyMs, MaxUpdateFrequencyMs, ms)
	}
	return nil
}

// Validate checks every value set in c.
func (c *RawFileConfig) Validate() error {
	f := NewFileFromConfig(&RawFileConfig{}, "")
	if c.UpdateFrequencyMs != nil {
		if err := f.SetUpdateFrequencyMs(*c.UpdateFrequencyMs); err != nil {
			return err
		}
	}
	if c.ScanIntervalMs != nil {
		if err := f.SetScanIntervalMs(*c.ScanIntervalMs); err != nil {
			return err
		}
	}
	if c.Backend != nil {
		if err := f.SetBackend(*c.Backend); err != nil {
			return err
		}
	}
	if c.MultiControllerPolicy != nil {
		if err := f.SetMultiControllerPolicy(*c.MultiControllerPolicy); err != nil {
			return err
		}
	}
	if c.AppName != nil {
		if err := f.SetAppName(*c.AppName); err != nil {
			return err
		}
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if len(bytes.TrimSpace(b)) == 0 {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	if isYAML(f.filepath) {
		err = yaml.Unmarshal(b, &conf)
	} else {
		err = json.Unmarshal(b, &conf)
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	if err := conf.Validate(); err != nil {
		return pkgerrors.Wrapf(err, "invalid config in file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	var b []byte
	var err error
	if isYAML(f.filepath) {
		b, err = yaml.Marshal(f.c)
	} else {
		b, err = json.MarshalIndent(f.c, "", "  ")
		b = append(b, '\n')
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config for file %s", f.filepath)
	}

	if err := os.WriteFile(f.filepath, b, 0644); err != nil {
		return pkgerrors.Wrapf(err, "failed to write file %s", f.filepath)
	}

	return nil
}

// Path returns the file the config is loaded from.
func (f *File) Path() string {
	return f.filepath
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"updateFrequencyMs":     f.UpdateFrequencyMs(),
		"scanIntervalMs":        f.ScanIntervalMs(),
		"backend":               f.Backend(),
		"multiControllerPolicy": f.MultiControllerPolicy(),
		"notifications":         f.Notifications(),
		"allowNonRootAccess":    f.AllowNonRootAccess(),
		"appName":               f.AppName(),
		"sysfsRoot":             f.SysfsRoot(),
	}
}
