package session

import (
	"time"

	"github.com/signalsfoundry/geospatial-navigator/core"
)

// Session defaults not already owned by core.
const (
	DefaultPermissionGrace = 3 * time.Second
	DefaultPollInterval    = 50 * time.Millisecond
)

// Config tunes a Session. Zero fields fall back to defaults via ApplyDefaults.
type Config struct {
	// SettleSeconds is the warm-up wait after enabling geospatial mode.
	SettleSeconds float64

	HorizontalAccuracyMeters   float64
	YawAccuracyDegrees         float64
	LocalizationTimeoutSeconds float64

	// PermissionGrace is how long startup waits after prompting for a
	// permission before re-checking it. Negative disables the wait.
	PermissionGrace time.Duration
	// PollInterval is how often startup tasks re-check collaborator state.
	PollInterval time.Duration

	Anchors core.AnchorOptions
}

// DefaultConfig returns the standard session configuration.
func DefaultConfig() Config {
	return Config{
		SettleSeconds:              core.DefaultSettleSeconds,
		HorizontalAccuracyMeters:   core.DefaultHorizontalAccuracyMeters,
		YawAccuracyDegrees:         core.DefaultYawAccuracyDegrees,
		LocalizationTimeoutSeconds: core.DefaultLocalizationTimeout,
		PermissionGrace:            DefaultPermissionGrace,
		PollInterval:               DefaultPollInterval,
		Anchors:                    core.DefaultAnchorOptions(),
	}
}

// ApplyDefaults fills in zero fields.
func (c Config) ApplyDefaults() Config {
	d := DefaultConfig()
	if c.SettleSeconds <= 0 {
		c.SettleSeconds = d.SettleSeconds
	}
	if c.HorizontalAccuracyMeters <= 0 {
		c.HorizontalAccuracyMeters = d.HorizontalAccuracyMeters
	}
	if c.YawAccuracyDegrees <= 0 {
		c.YawAccuracyDegrees = d.YawAccuracyDegrees
	}
	if c.LocalizationTimeoutSeconds <= 0 {
		c.LocalizationTimeoutSeconds = d.LocalizationTimeoutSeconds
	}
	if c.PermissionGrace < 0 {
		c.PermissionGrace = 0
	} else if c.PermissionGrace == 0 {
		c.PermissionGrace = d.PermissionGrace
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	c.Anchors = c.Anchors.ApplyDefaults()
	return c
}
