package core

import "github.com/signalsfoundry/geospatial-navigator/model"

// DefaultSettleSeconds is how long the coordinator waits after requesting
// geospatial mode before trusting the subsystem's output.
const DefaultSettleSeconds = 3.0

// EnablementCoordinator turns the geospatial capability on once the device
// reports support, then debounces the subsystem's warm-up with a settle timer.
// It is owned by a single tick loop and is not safe for concurrent use.
type EnablementCoordinator struct {
	SettleSeconds float64

	state model.EnablementState
}

// NewEnablementCoordinator returns a coordinator in the Disabled state.
// A non-positive settle falls back to DefaultSettleSeconds.
func NewEnablementCoordinator(settleSeconds float64) *EnablementCoordinator {
	if settleSeconds <= 0 {
		settleSeconds = DefaultSettleSeconds
	}
	return &EnablementCoordinator{SettleSeconds: settleSeconds}
}

// State returns the current enablement state.
func (c *EnablementCoordinator) State() model.EnablementState { return c.state }

// Reset returns the coordinator to Disabled.
func (c *EnablementCoordinator) Reset() { c.state = model.EnablementState{} }

// Advance runs one tick of the enablement state machine. requestEnable is
// true exactly on the tick the caller must switch geospatial mode on.
//
// Unknown support leaves the state untouched. Unsupported is terminal for the
// lifetime of the coordinator. Once a request has been issued the coordinator
// never issues another, regardless of currentlyEnabled.
func (c *EnablementCoordinator) Advance(support model.FeatureSupport, currentlyEnabled bool, dt float64) (model.EnablementState, bool) {
	if c.state.Phase == model.EnablementUnsupported {
		return c.state, false
	}

	switch support {
	case model.FeatureUnknown:
		return c.state, false
	case model.FeatureUnsupported:
		c.state = model.EnablementState{Phase: model.EnablementUnsupported}
		return c.state, false
	}

	switch c.state.Phase {
	case model.EnablementDisabled:
		if currentlyEnabled {
			// Already on (e.g. configured before activation); nothing to settle.
			c.state = model.EnablementState{Phase: model.EnablementEnabled}
			return c.state, false
		}
		c.state = model.EnablementState{
			Phase:            model.EnablementRequested,
			RemainingSeconds: c.SettleSeconds,
		}
		return c.state, true

	case model.EnablementRequested, model.EnablementSettling:
		remaining := c.state.RemainingSeconds - dt
		if remaining <= 0 {
			c.state = model.EnablementState{Phase: model.EnablementEnabled}
		} else {
			c.state = model.EnablementState{
				Phase:            model.EnablementSettling,
				RemainingSeconds: remaining,
			}
		}
		return c.state, false
	}

	return c.state, false
}
