package model

import "fmt"

// SessionStatus is the tracking subsystem's reported session lifecycle state.
// The core only reads it.
type SessionStatus int

const (
	SessionUninitialized SessionStatus = iota
	SessionCheckingAvailability
	SessionNeedsInstall
	SessionInstalling
	SessionInitializing
	SessionTracking
	SessionErrorFatal
)

func (s SessionStatus) String() string {
	switch s {
	case SessionUninitialized:
		return "Uninitialized"
	case SessionCheckingAvailability:
		return "CheckingAvailability"
	case SessionNeedsInstall:
		return "NeedsInstall"
	case SessionInstalling:
		return "Installing"
	case SessionInitializing:
		return "Initializing"
	case SessionTracking:
		return "Tracking"
	case SessionErrorFatal:
		return "ErrorFatal"
	default:
		return fmt.Sprintf("SessionStatus(%d)", int(s))
	}
}

// LocationServiceStatus mirrors the OS location service state.
type LocationServiceStatus int

const (
	LocationStopped LocationServiceStatus = iota
	LocationInitializing
	LocationRunning
	LocationFailed
)

func (s LocationServiceStatus) String() string {
	switch s {
	case LocationStopped:
		return "Stopped"
	case LocationInitializing:
		return "Initializing"
	case LocationRunning:
		return "Running"
	case LocationFailed:
		return "Failed"
	default:
		return fmt.Sprintf("LocationServiceStatus(%d)", int(s))
	}
}

// FeatureSupport is the answer to "is geospatial mode supported on this
// device". It is queried fresh every tick and never cached.
type FeatureSupport int

const (
	FeatureUnknown FeatureSupport = iota
	FeatureUnsupported
	FeatureSupported
)

func (f FeatureSupport) String() string {
	switch f {
	case FeatureUnknown:
		return "Unknown"
	case FeatureUnsupported:
		return "Unsupported"
	case FeatureSupported:
		return "Supported"
	default:
		return fmt.Sprintf("FeatureSupport(%d)", int(f))
	}
}

// EarthStateKind classifies the geospatial backend readiness.
type EarthStateKind int

const (
	EarthNotReady EarthStateKind = iota
	EarthEnabled
	EarthError
)

// EarthState is the backend readiness plus, for EarthError, the
// subsystem-specific error code.
type EarthState struct {
	Kind EarthStateKind
	Code string
}

// EarthStateNotReady, EarthStateEnabled and EarthStateError are convenience
// constructors.
func EarthStateNotReady() EarthState { return EarthState{Kind: EarthNotReady} }
func EarthStateEnabled() EarthState  { return EarthState{Kind: EarthEnabled} }
func EarthStateError(code string) EarthState {
	return EarthState{Kind: EarthError, Code: code}
}

// IsEnabled reports whether the backend is serving poses.
func (e EarthState) IsEnabled() bool { return e.Kind == EarthEnabled }

func (e EarthState) String() string {
	switch e.Kind {
	case EarthNotReady:
		return "NotReady"
	case EarthEnabled:
		return "Enabled"
	case EarthError:
		if e.Code == "" {
			return "Error"
		}
		return "Error(" + e.Code + ")"
	default:
		return fmt.Sprintf("EarthState(%d)", int(e.Kind))
	}
}

// Permission names a device permission the session needs.
type Permission string

const (
	PermissionCamera       Permission = "camera"
	PermissionFineLocation Permission = "fine_location"
)

// VPSAvailability is the result of a visual positioning availability check.
type VPSAvailability int

const (
	VPSUnknown VPSAvailability = iota
	VPSAvailable
	VPSUnavailable
	VPSErrorNetwork
)

func (v VPSAvailability) String() string {
	switch v {
	case VPSAvailable:
		return "Available"
	case VPSUnavailable:
		return "Unavailable"
	case VPSErrorNetwork:
		return "ErrorNetworkConnection"
	default:
		return "Unknown"
	}
}
