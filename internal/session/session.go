// Package session owns a geospatial navigation session: activation and
// teardown, the per-tick state machines, and the background startup and
// route lookup tasks that feed them.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/signalsfoundry/geospatial-navigator/core"
	"github.com/signalsfoundry/geospatial-navigator/internal/logging"
	"github.com/signalsfoundry/geospatial-navigator/internal/task"
	"github.com/signalsfoundry/geospatial-navigator/model"
)

var (
	// ErrInactive is returned by operations that need an active session.
	ErrInactive = errors.New("session is not active")
	// ErrNoDestinationSelected rejects a route request for the "no
	// destination" sentinel.
	ErrNoDestinationSelected = errors.New("no destination selected")
	// ErrNotLocalized rejects a route request made before localization.
	ErrNotLocalized = errors.New("not localized")
	// ErrSessionFailed rejects work after the tracking session reported a
	// fatal status.
	ErrSessionFailed = errors.New("tracking session failed")
)

// Router looks up the ordered waypoints from an origin to a destination.
// *routing.Client satisfies it.
type Router interface {
	RequestRoute(ctx context.Context, originLat, originLon float64, destinationID int64) ([]model.Waypoint, error)
}

// MetricsRecorder receives session telemetry.
// *observability.NavigatorCollector satisfies it.
type MetricsRecorder interface {
	ObserveTick(enablementPhase int, localized bool, localizingSeconds float64)
	IncEvent(eventType string)
	ObserveRouteLookup(outcome string, d time.Duration)
	AddAnchors(placed, failed int)
}

// Dependencies are the platform collaborators a session drives. All are
// required.
type Dependencies struct {
	Tracker     model.TrackingSubsystem
	Location    model.LocationService
	Permissions model.Permissions
	Router      Router
}

func (d Dependencies) validate() error {
	switch {
	case d.Tracker == nil:
		return errors.New("tracker is nil")
	case d.Location == nil:
		return errors.New("location service is nil")
	case d.Permissions == nil:
		return errors.New("permissions is nil")
	case d.Router == nil:
		return errors.New("router is nil")
	}
	return nil
}

// Option customises a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(log logging.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.baseLog = log
		}
	}
}

// WithMetricsRecorder wires session telemetry.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Session) {
		if m != nil {
			s.metrics = m
		}
	}
}

// Frame is the outcome of one Tick.
type Frame struct {
	Events       []model.Event
	Status       model.SessionStatus
	Meaningful   bool
	KeepAwake    bool
	Enablement   model.EnablementState
	Localization model.LocalizationState
}

// Session is the single owner of navigation state. Its methods may be called
// from any goroutine but are serialised; background tasks only touch the
// collaborators, never session state.
type Session struct {
	mu sync.Mutex

	cfg     Config
	deps    Dependencies
	baseLog logging.Logger
	log     logging.Logger
	metrics MetricsRecorder

	id     string
	ctx    context.Context
	cancel context.CancelFunc
	active bool

	// returning is set once the session reports a fatal status; every later
	// tick is skipped until the session is reactivated.
	returning bool

	enablement   *core.EnablementCoordinator
	localizer    *core.LocalizationTracker
	localization model.LocalizationState

	unsupportedReported bool
	lastEarthError      string

	locationStartup task.Task[[]model.Event]
	availability    task.Task[[]model.Event]
	routeLookup     task.Task[routeResult]
	routeDest       int64

	anchors []core.PlacedAnchor
	pending []model.Event
}

// New builds an inactive session.
func New(cfg Config, deps Dependencies, opts ...Option) (*Session, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.ApplyDefaults()

	s := &Session{
		cfg:        cfg,
		deps:       deps,
		baseLog:    logging.Noop(),
		metrics:    noopMetrics{},
		enablement: core.NewEnablementCoordinator(cfg.SettleSeconds),
		localizer: &core.LocalizationTracker{
			HorizontalAccuracyMeters: cfg.HorizontalAccuracyMeters,
			YawAccuracyDegrees:       cfg.YawAccuracyDegrees,
			TimeoutSeconds:           cfg.LocalizationTimeoutSeconds,
		},
		localization: model.InitialLocalization(),
		routeDest:    model.NoDestination,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.baseLog
	return s, nil
}

// ID returns the identifier of the current activation, or "" when inactive.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Active reports whether the session has been activated.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Activate starts the location service and the availability check. It is a
// no-op on an already active session.
func (s *Session) Activate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, id := logging.EnsureSessionID(ctx)
	s.id = id
	s.log = s.baseLog.With(logging.String("session_id", id))
	s.ctx, s.cancel = context.WithCancel(logging.ContextWithLogger(ctx, s.log))
	s.active = true
	s.resetState()

	s.locationStartup.Start(s.ctx, s.runLocationStartup)
	s.availability.Start(s.ctx, s.runAvailability)

	s.log.Info(s.ctx, "session activated")
	return nil
}

// StartAvailabilityCheck re-runs the availability check unless one is
// already outstanding. It reports whether a new check was started.
func (s *Session) StartAvailabilityCheck() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	return s.availability.Start(s.ctx, s.runAvailability)
}

// Deactivate cancels outstanding tasks, stops the location service and
// resets both state machines. Results of cancelled tasks are discarded.
func (s *Session) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.locationStartup.Cancel()
	s.availability.Cancel()
	s.routeLookup.Cancel()
	s.cancel()
	s.deps.Location.Stop()

	s.log.Info(s.ctx, "session deactivated", logging.Int("anchors", len(s.anchors)))
	s.active = false
	s.resetState()
	s.id = ""
}

func (s *Session) resetState() {
	s.returning = false
	s.enablement.Reset()
	s.localization = model.InitialLocalization()
	s.unsupportedReported = false
	s.lastEarthError = ""
	s.routeDest = model.NoDestination
	s.anchors = nil
	s.pending = nil
}

// Tick advances the session by dt seconds. Everything observable in a frame
// is read from the collaborators on this call.
func (s *Session) Tick(dt float64) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f Frame
	if !s.active {
		return f
	}

	f.Events = append(f.Events, s.pending...)
	s.pending = nil
	s.pollStartup(&f)
	s.pollRoute(&f)

	status := s.deps.Tracker.SessionStatus()
	f.Status = status
	f.KeepAwake = status == model.SessionTracking
	if status == model.SessionErrorFatal && !s.returning {
		s.log.Error(s.ctx, "tracking session failed; navigation stopped")
		s.returning = true
		s.localization = model.InitialLocalization()
		s.routeLookup.Cancel()
		s.routeDest = model.NoDestination
	}
	if s.returning || !core.IsTickMeaningful(status) {
		f.Enablement = s.enablement.State()
		f.Localization = s.localization
		return f
	}
	f.Meaningful = true

	s.tickState(&f, status, dt)
	s.metrics.ObserveTick(int(f.Enablement.Phase), f.Localization.IsLocalized(), f.Localization.ElapsedSeconds)
	return f
}

func (s *Session) tickState(f *Frame, status model.SessionStatus, dt float64) {
	tracker := s.deps.Tracker

	prev := s.enablement.State().Phase
	enablement, request := s.enablement.Advance(tracker.GeospatialSupport(), tracker.GeospatialEnabled(), dt)
	f.Enablement = enablement
	f.Localization = s.localization
	if request {
		s.log.Info(s.ctx, "enabling geospatial mode")
		tracker.EnableGeospatial()
	}
	if enablement.Phase != prev {
		s.log.Debug(s.ctx, "enablement phase changed",
			logging.String("from", prev.String()),
			logging.String("to", enablement.Phase.String()),
		)
	}
	if enablement.Phase == model.EnablementUnsupported && !s.unsupportedReported {
		s.unsupportedReported = true
		s.emit(f, model.Event{Type: model.EventFeatureUnsupported})
	}
	if !enablement.Ready() {
		return
	}

	earth := tracker.EarthState()
	switch earth.Kind {
	case model.EarthEnabled:
		s.lastEarthError = ""
	case model.EarthError:
		if earth.Code != s.lastEarthError {
			s.lastEarthError = earth.Code
			s.emit(f, model.Event{Type: model.EventEarthError, Message: earth.Code})
		}
	}

	sessionReady := status == model.SessionTracking &&
		s.deps.Location.Status() == model.LocationRunning
	var pose *model.Pose
	if tracker.TrackingConfident() {
		pose = tracker.Pose()
	}

	next, ev := s.localizer.Advance(earth, sessionReady, pose, dt, s.localization)
	s.localization = next
	f.Localization = next

	switch ev {
	case core.LocalizationAchievedEvent:
		s.emit(f, model.Event{Type: model.EventLocalizationAchieved})
	case core.LocalizationLostEvent:
		s.emit(f, model.Event{Type: model.EventLocalizationLost})
	case core.LocalizationTimeoutEvent:
		s.emit(f, model.Event{Type: model.EventLocalizationTimedOut})
	}
}

// Localization returns the current localization state.
func (s *Session) Localization() model.LocalizationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localization
}

// Anchors returns the anchors placed for the current route.
func (s *Session) Anchors() []core.PlacedAnchor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.PlacedAnchor(nil), s.anchors...)
}

func (s *Session) emit(f *Frame, ev model.Event) {
	f.Events = append(f.Events, s.record(ev))
}

// record logs and counts ev before it is handed to the presentation layer.
func (s *Session) record(ev model.Event) model.Event {
	fields := []logging.Field{logging.String("event", ev.Type.String())}
	if ev.Message != "" {
		fields = append(fields, logging.String("message", ev.Message))
	}
	switch ev.Type {
	case model.EventLocalizationAchieved, model.EventRoutePlaced, model.EventVPSAvailability:
		s.log.Info(s.ctx, "navigation event", fields...)
	default:
		s.log.Warn(s.ctx, "navigation event", fields...)
	}
	s.metrics.IncEvent(ev.Type.String())
	return ev
}

type noopMetrics struct{}

func (noopMetrics) ObserveTick(int, bool, float64)           {}
func (noopMetrics) IncEvent(string)                          {}
func (noopMetrics) ObserveRouteLookup(string, time.Duration) {}
func (noopMetrics) AddAnchors(int, int)                      {}
