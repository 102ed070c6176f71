package model

import "fmt"

// EventType identifies a semantic event emitted to the presentation layer.
// The core never formats user-facing text; Message carries the raw payload.
type EventType int

const (
	EventFeatureUnsupported EventType = iota
	EventEarthError
	EventLocalizationLost
	EventLocalizationTimedOut
	EventLocalizationAchieved
	EventRouteFailed
	EventAnchorPlacementFailed
	EventNoDestinationSelected
	EventNotLocalized
	EventCameraPermissionDenied
	EventLocationDisabled
	EventLocationUnavailable
	EventVPSAvailability
	EventRoutePlaced
)

var eventNames = map[EventType]string{
	EventFeatureUnsupported:     "FeatureUnsupported",
	EventEarthError:             "EarthError",
	EventLocalizationLost:       "LocalizationLost",
	EventLocalizationTimedOut:   "LocalizationTimedOut",
	EventLocalizationAchieved:   "LocalizationAchieved",
	EventRouteFailed:            "RouteFailed",
	EventAnchorPlacementFailed:  "AnchorPlacementFailed",
	EventNoDestinationSelected:  "NoDestinationSelected",
	EventNotLocalized:           "NotLocalized",
	EventCameraPermissionDenied: "CameraPermissionDenied",
	EventLocationDisabled:       "LocationDisabled",
	EventLocationUnavailable:    "LocationUnavailable",
	EventVPSAvailability:        "VPSAvailability",
	EventRoutePlaced:            "RoutePlaced",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is a single semantic notification. WaypointID is set for
// AnchorPlacementFailed; Count is set for RoutePlaced.
type Event struct {
	Type       EventType
	Message    string
	WaypointID int64
	Count      int
}

func (e Event) String() string {
	if e.Message == "" {
		return e.Type.String()
	}
	return e.Type.String() + "(" + e.Message + ")"
}
