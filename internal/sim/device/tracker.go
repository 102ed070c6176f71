// Package device provides scriptable, concurrency-safe stand-ins for the
// tracking subsystem, location service and permission prompts. They back the
// navigator demo binary and integration tests.
package device

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/signalsfoundry/geospatial-navigator/core"
	"github.com/signalsfoundry/geospatial-navigator/model"
)

// ErrAnchorRejected is returned by CreateAnchor for coordinates configured
// to fail.
var ErrAnchorRejected = errors.New("anchor rejected by tracking subsystem")

// Anchor is a simulated anchor resolved in the tracker's ENU frame.
type Anchor struct {
	mu       sync.Mutex
	id       string
	waypoint model.Waypoint
	pos      model.ENU
	heading  float64
}

func (a *Anchor) ID() string          { return a.id }
func (a *Anchor) Position() model.ENU { return a.pos }

func (a *Anchor) SetHeading(degrees float64) {
	a.mu.Lock()
	a.heading = degrees
	a.mu.Unlock()
}

// Heading returns the marker heading last applied.
func (a *Anchor) Heading() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.heading
}

// Tracker simulates the AR tracking subsystem. The zero value is not usable;
// construct with NewTracker.
type Tracker struct {
	mu sync.Mutex

	origin model.Waypoint

	status    model.SessionStatus
	confident bool
	pose      *model.Pose
	earth     model.EarthState
	support   model.FeatureSupport
	enabled   bool

	enableCalls int
	vps         model.VPSAvailability
	vpsErr      error
	vpsCalls    int

	// Availability/install transitions applied by CheckAvailability/Install.
	afterCheck   model.SessionStatus
	afterInstall model.SessionStatus

	rejected []model.Waypoint
	anchors  []*Anchor
}

// NewTracker returns a tracker whose ENU frame is anchored at origin.
func NewTracker(origin model.Waypoint) *Tracker {
	return &Tracker{
		origin:       origin,
		status:       model.SessionUninitialized,
		earth:        model.EarthStateNotReady(),
		afterCheck:   model.SessionCheckingAvailability,
		afterInstall: model.SessionInitializing,
		vps:          model.VPSAvailable,
	}
}

func (t *Tracker) SessionStatus() model.SessionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Tracker) TrackingConfident() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.confident
}

// Pose returns a copy of the current pose, or nil unless tracking is confident.
func (t *Tracker) Pose() *model.Pose {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.confident || t.pose == nil {
		return nil
	}
	p := *t.pose
	return &p
}

func (t *Tracker) EarthState() model.EarthState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.earth
}

func (t *Tracker) GeospatialSupport() model.FeatureSupport {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.support
}

func (t *Tracker) GeospatialEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *Tracker) EnableGeospatial() {
	t.mu.Lock()
	t.enabled = true
	t.enableCalls++
	t.mu.Unlock()
}

// EnableCalls reports how many times EnableGeospatial was invoked.
func (t *Tracker) EnableCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enableCalls
}

func (t *Tracker) CheckAvailability(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	if t.status == model.SessionUninitialized {
		t.status = t.afterCheck
	}
	t.mu.Unlock()
	return nil
}

func (t *Tracker) Install(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	if t.status == model.SessionNeedsInstall {
		t.status = t.afterInstall
	}
	t.mu.Unlock()
	return nil
}

func (t *Tracker) CheckVPSAvailability(ctx context.Context, lat, lon float64) (model.VPSAvailability, error) {
	if err := ctx.Err(); err != nil {
		return model.VPSUnknown, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.vpsCalls++
	return t.vps, t.vpsErr
}

// VPSCalls reports how many availability checks were made.
func (t *Tracker) VPSCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.vpsCalls
}

// CreateAnchor resolves the coordinate into the tracker's ENU frame.
func (t *Tracker) CreateAnchor(lat, lon, altitudeOffset, orientation float64) (model.Anchor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != model.SessionTracking {
		return nil, fmt.Errorf("create anchor: session is %s", t.status)
	}
	for _, wp := range t.rejected {
		if wp.Latitude == lat && wp.Longitude == lon {
			return nil, ErrAnchorRejected
		}
	}

	a := &Anchor{
		id:       uuid.NewString(),
		waypoint: model.Waypoint{Latitude: lat, Longitude: lon},
		pos:      core.ProjectENU(t.origin, lat, lon, altitudeOffset),
		heading:  orientation,
	}
	t.anchors = append(t.anchors, a)
	return a, nil
}

// Anchors returns the anchors created so far, in creation order.
func (t *Tracker) Anchors() []*Anchor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Anchor(nil), t.anchors...)
}
