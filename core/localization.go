package core

import "github.com/signalsfoundry/geospatial-navigator/model"

// Localization thresholds. Both accuracy gates must pass for a pose to count
// as good: yaw accuracy drives marker orientation, horizontal accuracy drives
// placement.
const (
	DefaultHorizontalAccuracyMeters = 20.0
	DefaultYawAccuracyDegrees       = 25.0
	DefaultLocalizationTimeout      = 180.0
)

// LocalizationEvent is the transition signal produced by a tracker tick.
type LocalizationEvent int

const (
	LocalizationNoEvent LocalizationEvent = iota
	LocalizationAchievedEvent
	LocalizationLostEvent
	LocalizationTimeoutEvent
)

func (e LocalizationEvent) String() string {
	switch e {
	case LocalizationAchievedEvent:
		return "Localized"
	case LocalizationLostEvent:
		return "Lost"
	case LocalizationTimeoutEvent:
		return "Timeout"
	default:
		return "None"
	}
}

// LocalizationTracker applies the accuracy gates to each tick's pose.
// The tracker itself is stateless; callers own the LocalizationState.
type LocalizationTracker struct {
	HorizontalAccuracyMeters float64
	YawAccuracyDegrees       float64
	TimeoutSeconds           float64
}

// NewLocalizationTracker returns a tracker with the default thresholds.
func NewLocalizationTracker() *LocalizationTracker {
	return &LocalizationTracker{
		HorizontalAccuracyMeters: DefaultHorizontalAccuracyMeters,
		YawAccuracyDegrees:       DefaultYawAccuracyDegrees,
		TimeoutSeconds:           DefaultLocalizationTimeout,
	}
}

// IsGoodPose reports whether pose passes both accuracy gates. A nil pose is
// never good.
func (t *LocalizationTracker) IsGoodPose(pose *model.Pose) bool {
	if pose == nil {
		return false
	}
	return pose.HorizontalAccuracyMeters <= t.HorizontalAccuracyMeters &&
		pose.OrientationYawAccuracyDegrees <= t.YawAccuracyDegrees
}

// Advance evaluates one tick. A tick without a fresh good pose is always
// evidence against localization; nothing carries over from earlier ticks.
//
// Timeout is advisory: it fires on every tick whose accumulated elapsed time
// exceeds the timeout, and the state stays Localizing.
func (t *LocalizationTracker) Advance(
	earth model.EarthState,
	sessionReady bool,
	pose *model.Pose,
	dt float64,
	state model.LocalizationState,
) (model.LocalizationState, LocalizationEvent) {
	trusted := earth.IsEnabled() && sessionReady && pose != nil
	if trusted && t.IsGoodPose(pose) {
		if state.Phase == model.Localized {
			return state, LocalizationNoEvent
		}
		return model.LocalizationState{Phase: model.Localized}, LocalizationAchievedEvent
	}

	if state.Phase == model.Localized {
		return model.InitialLocalization(), LocalizationLostEvent
	}

	if dt > 0 {
		state.ElapsedSeconds += dt
	}
	if state.ElapsedSeconds > t.TimeoutSeconds {
		return state, LocalizationTimeoutEvent
	}
	return state, LocalizationNoEvent
}
