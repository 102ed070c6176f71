package model

// Pose is the camera's geospatial pose as reported by the tracking subsystem.
// A Pose only exists while tracking confidence is Tracking; consumers receive
// nil otherwise and must never substitute a previous value.
type Pose struct {
	Latitude  float64 // degrees
	Longitude float64 // degrees

	HorizontalAccuracyMeters      float64
	OrientationYawAccuracyDegrees float64

	AltitudeMeters         float64
	VerticalAccuracyMeters float64

	HeadingDegrees float64
}

// EnablementPhase enumerates the geospatial enablement lifecycle.
type EnablementPhase int

const (
	EnablementDisabled EnablementPhase = iota
	EnablementRequested
	EnablementSettling
	EnablementEnabled
	// EnablementUnsupported is terminal for the session.
	EnablementUnsupported
)

func (p EnablementPhase) String() string {
	switch p {
	case EnablementDisabled:
		return "Disabled"
	case EnablementRequested:
		return "Requested"
	case EnablementSettling:
		return "Settling"
	case EnablementEnabled:
		return "Enabled"
	case EnablementUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// EnablementState is owned by the enablement coordinator. RemainingSeconds is
// only meaningful while Requested or Settling.
type EnablementState struct {
	Phase            EnablementPhase
	RemainingSeconds float64
}

// Ready reports whether downstream stages may run.
func (s EnablementState) Ready() bool { return s.Phase == EnablementEnabled }

// LocalizationPhase is either Localizing or Localized.
type LocalizationPhase int

const (
	Localizing LocalizationPhase = iota
	Localized
)

func (p LocalizationPhase) String() string {
	if p == Localized {
		return "Localized"
	}
	return "Localizing"
}

// LocalizationState is owned by the localization tracker. ElapsedSeconds is
// zero on entry to Localizing and never decreases while in it.
type LocalizationState struct {
	Phase          LocalizationPhase
	ElapsedSeconds float64
}

// InitialLocalization is the state a freshly activated session starts in.
func InitialLocalization() LocalizationState {
	return LocalizationState{Phase: Localizing}
}

// IsLocalized is shorthand for Phase == Localized.
func (s LocalizationState) IsLocalized() bool { return s.Phase == Localized }
