package session

import (
	"fmt"

	"github.com/signalsfoundry/geospatial-navigator/model"
)

// DebugInfo is a read-only snapshot for a debug overlay.
type DebugInfo struct {
	SessionID      string
	Localizing     bool
	SessionStatus  model.SessionStatus
	LocationStatus model.LocationServiceStatus
	Support        model.FeatureSupport
	Earth          model.EarthState
	Enablement     model.EnablementState
	Tracking       bool
	Pose           *model.Pose
	Anchors        int
	RouteInFlight  bool
	DestinationID  int64
}

// Debug captures the collaborators' current readings alongside session
// state.
func (s *Session) Debug() DebugInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracker := s.deps.Tracker
	info := DebugInfo{
		SessionID:      s.id,
		Localizing:     !s.localization.IsLocalized(),
		SessionStatus:  tracker.SessionStatus(),
		LocationStatus: s.deps.Location.Status(),
		Support:        tracker.GeospatialSupport(),
		Earth:          tracker.EarthState(),
		Enablement:     s.enablement.State(),
		Tracking:       tracker.TrackingConfident(),
		Anchors:        len(s.anchors),
		RouteInFlight:  s.routeLookup.Outstanding(),
		DestinationID:  s.routeDest,
	}
	if info.Tracking {
		info.Pose = tracker.Pose()
	}
	return info
}

func (d DebugInfo) String() string {
	text := fmt.Sprintf("localizing=%t session=%s location=%s support=%s earth=%s enablement=%s tracking=%t anchors=%d",
		d.Localizing, d.SessionStatus, d.LocationStatus, d.Support, d.Earth, d.Enablement.Phase, d.Tracking, d.Anchors)
	if d.Pose != nil {
		text += fmt.Sprintf(" lat=%.6f lon=%.6f h_acc=%.1fm alt=%.1fm v_acc=%.1fm heading=%.1f yaw_acc=%.1f",
			d.Pose.Latitude, d.Pose.Longitude, d.Pose.HorizontalAccuracyMeters,
			d.Pose.AltitudeMeters, d.Pose.VerticalAccuracyMeters,
			d.Pose.HeadingDegrees, d.Pose.OrientationYawAccuracyDegrees)
	}
	return text
}
