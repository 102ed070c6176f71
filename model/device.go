package model

import "context"

// ENU is a local east-north-up position in metres relative to a reference
// origin.
type ENU struct {
	East  float64
	North float64
	Up    float64
}

// Anchor is a placed spatial anchor. Position is where the tracking subsystem
// actually resolved it, which may differ from the requested coordinate.
type Anchor interface {
	ID() string
	Position() ENU
	// SetHeading rotates the anchor's directional marker, in degrees
	// clockwise from the placement frame's forward axis.
	SetHeading(degrees float64)
}

// TrackingSubsystem is the camera/AR tracking collaborator. Pose returns nil
// whenever tracking confidence is not Tracking.
type TrackingSubsystem interface {
	SessionStatus() SessionStatus
	TrackingConfident() bool
	Pose() *Pose
	EarthState() EarthState
	GeospatialSupport() FeatureSupport
	GeospatialEnabled() bool
	EnableGeospatial()

	CheckAvailability(ctx context.Context) error
	Install(ctx context.Context) error
	CheckVPSAvailability(ctx context.Context, lat, lon float64) (VPSAvailability, error)

	// CreateAnchor places an anchor at lat/lon, altitudeOffset metres above
	// the terrain, with the given yaw in degrees.
	CreateAnchor(lat, lon, altitudeOffset, orientation float64) (Anchor, error)
}

// LocationService is the OS location provider.
type LocationService interface {
	EnabledByUser() bool
	Start()
	Stop()
	Status() LocationServiceStatus
	LastReading() (lat, lon float64)
}

// Permissions queries and requests device permissions. Request is
// fire-and-forget; its outcome is observed by polling Has.
type Permissions interface {
	Has(p Permission) bool
	Request(p Permission)
}
