package device

import "github.com/signalsfoundry/geospatial-navigator/model"

// Setters used by scenarios and tests to drive the tracker.

func (t *Tracker) SetSessionStatus(s model.SessionStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// SetAvailabilityOutcome configures the status CheckAvailability and Install
// move the session to.
func (t *Tracker) SetAvailabilityOutcome(afterCheck, afterInstall model.SessionStatus) {
	t.mu.Lock()
	t.afterCheck = afterCheck
	t.afterInstall = afterInstall
	t.mu.Unlock()
}

func (t *Tracker) SetSupport(s model.FeatureSupport) {
	t.mu.Lock()
	t.support = s
	t.mu.Unlock()
}

func (t *Tracker) SetGeospatialEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
}

func (t *Tracker) SetEarthState(e model.EarthState) {
	t.mu.Lock()
	t.earth = e
	t.mu.Unlock()
}

// SetPose installs pose and marks tracking confident. A nil pose clears
// confidence.
func (t *Tracker) SetPose(pose *model.Pose) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pose == nil {
		t.pose = nil
		t.confident = false
		return
	}
	p := *pose
	t.pose = &p
	t.confident = true
}

func (t *Tracker) SetTrackingConfident(confident bool) {
	t.mu.Lock()
	t.confident = confident
	t.mu.Unlock()
}

func (t *Tracker) SetVPS(v model.VPSAvailability, err error) {
	t.mu.Lock()
	t.vps = v
	t.vpsErr = err
	t.mu.Unlock()
}

// RejectAnchorAt makes CreateAnchor fail for the exact coordinate.
func (t *Tracker) RejectAnchorAt(lat, lon float64) {
	t.mu.Lock()
	t.rejected = append(t.rejected, model.Waypoint{Latitude: lat, Longitude: lon})
	t.mu.Unlock()
}

// Localize is a convenience that puts the tracker into a fully localized
// configuration around the given coordinate.
func (t *Tracker) Localize(lat, lon float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = model.SessionTracking
	t.support = model.FeatureSupported
	t.earth = model.EarthStateEnabled()
	t.confident = true
	t.pose = &model.Pose{
		Latitude:                      lat,
		Longitude:                     lon,
		HorizontalAccuracyMeters:      3,
		OrientationYawAccuracyDegrees: 5,
		VerticalAccuracyMeters:        2,
	}
}
