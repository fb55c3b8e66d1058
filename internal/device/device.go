// Package device reports the device conditions that gate the transfer queues
package device

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

// Signals is a snapshot of device and account conditions
type Signals struct {
	Registered   bool    `yaml:"registered"`
	AppReady     bool    `yaml:"app_ready"`
	Wifi         bool    `yaml:"wifi"`
	Reachable    bool    `yaml:"reachable"`
	BatteryLevel float64 `yaml:"battery_level"`
	LowPower     bool    `yaml:"low_power"`
	Foreground   bool    `yaml:"foreground"`
}

// DefaultSignals describes a registered, plugged-in device on wifi
func DefaultSignals() Signals {
	return Signals{
		Registered:   true,
		AppReady:     true,
		Wifi:         true,
		Reachable:    true,
		BatteryLevel: 1,
		Foreground:   true,
	}
}

// Source delivers signal snapshots while started
type Source interface {
	// Start delivers the current signals and then every change until Stop or ctx is done
	Start(ctx context.Context, onChange func(Signals)) error
	Stop()
}

// StaticSource always reports the same signals
type StaticSource struct {
	Signals Signals
}

// Start implements Source
func (s *StaticSource) Start(_ context.Context, onChange func(Signals)) error {
	onChange(s.Signals)
	return nil
}

// Stop implements Source
func (s *StaticSource) Stop() {}

// DiskSpace returns the bytes available to unprivileged users on the filesystem holding path
func DiskSpace(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("failed to stat filesystem for %s: %w", path, err)
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}
