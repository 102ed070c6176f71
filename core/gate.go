package core

import "github.com/signalsfoundry/geospatial-navigator/model"

// IsTickMeaningful reports whether the rest of the per-tick pipeline should
// run for the given session status. Startup, install and fatal states
// short-circuit the loop.
func IsTickMeaningful(status model.SessionStatus) bool {
	switch status {
	case model.SessionCheckingAvailability, model.SessionTracking:
		return true
	default:
		return false
	}
}
