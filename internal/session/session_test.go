package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/geospatial-navigator/internal/observability"
	"github.com/signalsfoundry/geospatial-navigator/internal/routing"
	"github.com/signalsfoundry/geospatial-navigator/internal/sim/device"
	"github.com/signalsfoundry/geospatial-navigator/model"
)

const (
	originLat = 37.4220
	originLon = -122.0841
)

type fakeRouter struct {
	mu        sync.Mutex
	calls     int
	lastDest  int64
	waypoints []model.Waypoint
	err       error
	block     chan struct{}
}

func (r *fakeRouter) RequestRoute(ctx context.Context, lat, lon float64, dest int64) ([]model.Waypoint, error) {
	r.mu.Lock()
	r.calls++
	r.lastDest = dest
	block, waypoints, err := r.block, r.waypoints, r.err
	r.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return waypoints, err
}

func (r *fakeRouter) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fixture struct {
	s       *Session
	tracker *device.Tracker
	loc     *device.Location
	perms   *device.Permissions
	router  *fakeRouter
}

func newFixture(t *testing.T, router Router, opts ...Option) *fixture {
	t.Helper()
	origin := model.Waypoint{Latitude: originLat, Longitude: originLon}
	f := &fixture{
		tracker: device.NewTracker(origin),
		loc:     device.NewLocation(originLat, originLon),
		perms:   device.NewPermissions(model.PermissionCamera, model.PermissionFineLocation),
	}
	if router == nil {
		f.router = &fakeRouter{}
		router = f.router
	} else if fr, ok := router.(*fakeRouter); ok {
		f.router = fr
	}

	cfg := DefaultConfig()
	cfg.PermissionGrace = -1
	cfg.PollInterval = time.Millisecond
	s, err := New(cfg, Dependencies{
		Tracker:     f.tracker,
		Location:    f.loc,
		Permissions: f.perms,
		Router:      router,
	}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.s = s
	t.Cleanup(s.Deactivate)
	return f
}

func (f *fixture) activate(t *testing.T) {
	t.Helper()
	if err := f.s.Activate(context.Background()); err != nil {
		t.Fatalf("Activate: %v", err)
	}
}

// localize activates the session with the device already tracking and
// geospatial mode already on, then ticks once so the session localizes.
func (f *fixture) localize(t *testing.T) {
	t.Helper()
	f.tracker.Localize(originLat, originLon)
	f.tracker.SetGeospatialEnabled(true)
	f.activate(t)
	waitFor(t, "location running", func() bool { return f.loc.Status() == model.LocationRunning })

	frame := f.s.Tick(0.1)
	if !frame.Localization.IsLocalized() {
		t.Fatalf("session did not localize: %+v", frame)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// tickUntil ticks until an event of type want is emitted and returns every
// event seen on the way.
func tickUntil(t *testing.T, s *Session, want model.EventType) []model.Event {
	t.Helper()
	var seen []model.Event
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		frame := s.Tick(0.01)
		seen = append(seen, frame.Events...)
		for _, ev := range frame.Events {
			if ev.Type == want {
				return seen
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no %s event; saw %v", want, seen)
	return nil
}

func findEvent(events []model.Event, typ model.EventType) (model.Event, bool) {
	for _, ev := range events {
		if ev.Type == typ {
			return ev, true
		}
	}
	return model.Event{}, false
}

func countEvents(events []model.Event, typ model.EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func routeWaypoints() []model.Waypoint {
	return []model.Waypoint{
		{ID: 0, Name: "origin", Latitude: originLat, Longitude: originLon},
		{ID: 11, Name: "corridor", Latitude: originLat + 0.0003, Longitude: originLon},
		{ID: 12, Name: "atrium", Latitude: originLat + 0.0003, Longitude: originLon + 0.0004},
	}
}

func TestNewValidatesDependencies(t *testing.T) {
	full := Dependencies{
		Tracker:     device.NewTracker(model.Waypoint{}),
		Location:    device.NewLocation(0, 0),
		Permissions: device.NewPermissions(),
		Router:      &fakeRouter{},
	}
	cases := []struct {
		name   string
		mutate func(*Dependencies)
	}{
		{"tracker", func(d *Dependencies) { d.Tracker = nil }},
		{"location", func(d *Dependencies) { d.Location = nil }},
		{"permissions", func(d *Dependencies) { d.Permissions = nil }},
		{"router", func(d *Dependencies) { d.Router = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := full
			tc.mutate(&deps)
			if _, err := New(Config{}, deps); err == nil {
				t.Fatalf("expected error with missing %s", tc.name)
			}
		})
	}
	if _, err := New(Config{}, full); err != nil {
		t.Fatalf("New with all dependencies: %v", err)
	}
}

func TestTickBeforeActivationDoesNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.tracker.Localize(originLat, originLon)

	frame := f.s.Tick(1)
	if frame.Meaningful || len(frame.Events) != 0 {
		t.Fatalf("inactive tick produced %+v", frame)
	}
	if f.tracker.EnableCalls() != 0 {
		t.Fatalf("inactive tick touched the tracker")
	}
}

func TestActivationRunsStartupTasks(t *testing.T) {
	f := newFixture(t, nil)
	f.activate(t)
	if f.s.ID() == "" {
		t.Fatalf("expected a session id after activation")
	}

	events := tickUntil(t, f.s, model.EventVPSAvailability)
	ev, _ := findEvent(events, model.EventVPSAvailability)
	if ev.Message != "Available" {
		t.Fatalf("VPS event = %v, want Available", ev)
	}
	if got := f.tracker.SessionStatus(); got != model.SessionCheckingAvailability {
		t.Fatalf("status after availability check = %s", got)
	}
	if starts, _ := f.loc.Counts(); starts != 1 {
		t.Fatalf("location started %d times, want 1", starts)
	}
}

func TestActivateIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.activate(t)
	id := f.s.ID()
	f.activate(t)
	if f.s.ID() != id {
		t.Fatalf("second Activate replaced the session")
	}
	tickUntil(t, f.s, model.EventVPSAvailability)
	if f.tracker.VPSCalls() != 1 {
		t.Fatalf("VPS checked %d times, want 1", f.tracker.VPSCalls())
	}
}

func TestAvailabilityCheckIsIdempotentWhileOutstanding(t *testing.T) {
	f := newFixture(t, nil)
	f.loc.SetStartStatus(model.LocationInitializing)
	f.activate(t)

	// Availability is parked behind the location startup.
	if f.s.StartAvailabilityCheck() {
		t.Fatalf("started a second availability check while one is outstanding")
	}
	// Start resets the status, so only flip it once the service was started.
	waitFor(t, "location started", func() bool {
		starts, _ := f.loc.Counts()
		return starts == 1
	})
	f.loc.SetStatus(model.LocationRunning)
	tickUntil(t, f.s, model.EventVPSAvailability)

	if !f.s.StartAvailabilityCheck() {
		t.Fatalf("expected a new check once the previous one was delivered")
	}
	tickUntil(t, f.s, model.EventVPSAvailability)
	if got := f.tracker.VPSCalls(); got != 2 {
		t.Fatalf("VPS checked %d times, want 2", got)
	}
}

func TestCameraPermissionDenied(t *testing.T) {
	f := newFixture(t, nil)
	f.perms.Deny(model.PermissionCamera)
	f.activate(t)

	events := tickUntil(t, f.s, model.EventCameraPermissionDenied)
	if _, ok := findEvent(events, model.EventVPSAvailability); ok {
		t.Fatalf("VPS check ran without camera permission")
	}
	if f.perms.Requests(model.PermissionCamera) != 1 {
		t.Fatalf("camera permission requested %d times", f.perms.Requests(model.PermissionCamera))
	}
}

func TestLocationDisabledByUser(t *testing.T) {
	f := newFixture(t, nil)
	f.loc.SetEnabledByUser(false)
	f.activate(t)

	events := tickUntil(t, f.s, model.EventLocationDisabled)
	if starts, _ := f.loc.Counts(); starts != 0 {
		t.Fatalf("disabled location service was started")
	}
	if _, ok := findEvent(events, model.EventLocationUnavailable); !ok {
		events = append(events, tickUntil(t, f.s, model.EventLocationUnavailable)...)
	}
	if _, ok := findEvent(events, model.EventVPSAvailability); ok {
		t.Fatalf("VPS check ran without location")
	}
}

func TestLocationStartFailureStopsService(t *testing.T) {
	f := newFixture(t, nil)
	f.loc.SetStartStatus(model.LocationFailed)
	f.activate(t)

	events := tickUntil(t, f.s, model.EventLocationUnavailable)
	ev, _ := findEvent(events, model.EventLocationUnavailable)
	if ev.Message != model.LocationFailed.String() {
		t.Fatalf("LocationUnavailable message = %q", ev.Message)
	}
	waitFor(t, "location stopped", func() bool { return f.loc.Status() == model.LocationStopped })
}

func TestEnablementSettlesBeforeLocalizing(t *testing.T) {
	f := newFixture(t, nil)
	f.tracker.Localize(originLat, originLon)
	f.activate(t)
	waitFor(t, "location running", func() bool { return f.loc.Status() == model.LocationRunning })

	phases := []model.EnablementPhase{
		model.EnablementRequested,
		model.EnablementSettling,
		model.EnablementSettling,
		model.EnablementEnabled,
	}
	var events []model.Event
	for i, want := range phases {
		frame := f.s.Tick(1)
		events = append(events, frame.Events...)
		if frame.Enablement.Phase != want {
			t.Fatalf("tick %d: phase %s, want %s", i, frame.Enablement.Phase, want)
		}
		if want != model.EnablementEnabled && frame.Localization.IsLocalized() {
			t.Fatalf("tick %d: localized before enablement settled", i)
		}
	}
	if f.tracker.EnableCalls() != 1 {
		t.Fatalf("EnableGeospatial called %d times, want 1", f.tracker.EnableCalls())
	}
	if countEvents(events, model.EventLocalizationAchieved) != 1 {
		t.Fatalf("expected one LocalizationAchieved, got %v", events)
	}
}

func TestFeatureUnsupportedReportedOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.tracker.SetSessionStatus(model.SessionTracking)
	f.tracker.SetSupport(model.FeatureUnsupported)
	f.activate(t)

	var events []model.Event
	for range 5 {
		events = append(events, f.s.Tick(0.5).Events...)
	}
	if got := countEvents(events, model.EventFeatureUnsupported); got != 1 {
		t.Fatalf("FeatureUnsupported emitted %d times, want 1", got)
	}

	f.tracker.SetSupport(model.FeatureSupported)
	if frame := f.s.Tick(0.5); frame.Enablement.Phase != model.EnablementUnsupported {
		t.Fatalf("Unsupported should be terminal, got %s", frame.Enablement.Phase)
	}
	if f.tracker.EnableCalls() != 0 {
		t.Fatalf("EnableGeospatial called on unsupported device")
	}
}

func TestEarthErrorsReportedOncePerCode(t *testing.T) {
	f := newFixture(t, nil)
	f.localize(t)

	f.tracker.SetEarthState(model.EarthStateNotReady())
	notReady := f.s.Tick(0.1).Events
	if _, ok := findEvent(notReady, model.EventLocalizationLost); !ok {
		t.Fatalf("NotReady should lose localization, got %v", notReady)
	}
	if _, ok := findEvent(notReady, model.EventEarthError); ok {
		t.Fatalf("NotReady should not be reported as an error")
	}

	var events []model.Event
	f.tracker.SetEarthState(model.EarthStateError("ErrorInternal"))
	for range 3 {
		events = append(events, f.s.Tick(0.1).Events...)
	}
	f.tracker.SetEarthState(model.EarthStateError("ErrorNotAuthorized"))
	events = append(events, f.s.Tick(0.1).Events...)

	if got := countEvents(events, model.EventEarthError); got != 2 {
		t.Fatalf("EarthError emitted %d times, want 2: %v", got, events)
	}
	if got := countEvents(events, model.EventLocalizationLost); got != 0 {
		t.Fatalf("LocalizationLost emitted %d more times", got)
	}
}

func TestLocalizationLostOnBadPose(t *testing.T) {
	f := newFixture(t, nil)
	f.localize(t)

	f.tracker.SetPose(&model.Pose{
		Latitude:                      originLat,
		Longitude:                     originLon,
		HorizontalAccuracyMeters:      50,
		OrientationYawAccuracyDegrees: 5,
	})
	frame := f.s.Tick(0.1)
	if _, ok := findEvent(frame.Events, model.EventLocalizationLost); !ok {
		t.Fatalf("expected LocalizationLost, got %v", frame.Events)
	}
	if frame.Localization.ElapsedSeconds != 0 {
		t.Fatalf("lost localization should restart the timer, got %v", frame.Localization.ElapsedSeconds)
	}
}

func TestLocalizationTimeout(t *testing.T) {
	f := newFixture(t, nil)
	f.tracker.SetSessionStatus(model.SessionTracking)
	f.tracker.SetSupport(model.FeatureSupported)
	f.tracker.SetGeospatialEnabled(true)
	f.tracker.SetEarthState(model.EarthStateEnabled())
	f.activate(t)

	// 60, 120, 180, 240, 300: only the last two exceed the timeout.
	var events []model.Event
	for range 5 {
		events = append(events, f.s.Tick(60).Events...)
	}
	if got := countEvents(events, model.EventLocalizationTimedOut); got != 2 {
		t.Fatalf("LocalizationTimedOut emitted %d times, want 2", got)
	}
	if f.s.Localization().IsLocalized() {
		t.Fatalf("timeout must not localize")
	}
}

func TestFatalStatusStopsTheLoop(t *testing.T) {
	f := newFixture(t, nil)
	f.localize(t)

	f.tracker.SetSessionStatus(model.SessionErrorFatal)
	if frame := f.s.Tick(0.1); frame.Meaningful || frame.KeepAwake {
		t.Fatalf("fatal status frame = %+v", frame)
	}
	f.tracker.SetSessionStatus(model.SessionTracking)
	if frame := f.s.Tick(0.1); frame.Meaningful {
		t.Fatalf("session kept ticking after a fatal status")
	}
}

func TestFatalStatusRejectsRouteRequests(t *testing.T) {
	router := &fakeRouter{waypoints: routeWaypoints()}
	f := newFixture(t, router)
	f.localize(t)

	f.tracker.SetSessionStatus(model.SessionErrorFatal)
	frame := f.s.Tick(0.1)
	if frame.Localization.IsLocalized() || f.s.Localization().IsLocalized() {
		t.Fatalf("fatal status should drop localization, got %+v", frame.Localization)
	}

	started, err := f.s.RequestRoute(12)
	if started || !errors.Is(err, ErrSessionFailed) {
		t.Fatalf("RequestRoute after fatal status = %v, %v", started, err)
	}
	time.Sleep(5 * time.Millisecond)
	if router.Calls() != 0 {
		t.Fatalf("router called %d times on a failed session", router.Calls())
	}
	if f.s.RouteInFlight() {
		t.Fatalf("lookup outstanding on a failed session")
	}
}

func TestFatalStatusCancelsRouteInFlight(t *testing.T) {
	router := &fakeRouter{waypoints: routeWaypoints(), block: make(chan struct{})}
	f := newFixture(t, router)
	f.localize(t)

	if started, _ := f.s.RequestRoute(12); !started {
		t.Fatalf("request did not start")
	}
	waitFor(t, "router call", func() bool { return router.Calls() == 1 })

	f.tracker.SetSessionStatus(model.SessionErrorFatal)
	f.s.Tick(0.1)
	close(router.block)

	for range 10 {
		for _, ev := range f.s.Tick(0.1).Events {
			if ev.Type == model.EventRoutePlaced || ev.Type == model.EventRouteFailed {
				t.Fatalf("route result delivered after fatal status: %v", ev)
			}
		}
		time.Sleep(time.Millisecond)
	}
	if len(f.tracker.Anchors()) != 0 {
		t.Fatalf("anchors created after fatal status")
	}
}

func TestKeepAwakeFollowsTracking(t *testing.T) {
	f := newFixture(t, nil)
	f.tracker.SetSessionStatus(model.SessionInstalling)
	f.activate(t)
	if frame := f.s.Tick(0.1); frame.KeepAwake || frame.Meaningful {
		t.Fatalf("installing frame = %+v", frame)
	}
	f.tracker.SetSessionStatus(model.SessionTracking)
	if frame := f.s.Tick(0.1); !frame.KeepAwake || !frame.Meaningful {
		t.Fatalf("tracking frame = %+v", frame)
	}
}

func TestRequestRouteRejectsNoDestination(t *testing.T) {
	f := newFixture(t, nil)
	f.localize(t)

	started, err := f.s.RequestRoute(model.NoDestination)
	if started || !errors.Is(err, ErrNoDestinationSelected) {
		t.Fatalf("RequestRoute(-1) = %v, %v", started, err)
	}
	frame := f.s.Tick(0.1)
	if _, ok := findEvent(frame.Events, model.EventNoDestinationSelected); !ok {
		t.Fatalf("expected NoDestinationSelected, got %v", frame.Events)
	}
	time.Sleep(5 * time.Millisecond)
	if f.router.Calls() != 0 {
		t.Fatalf("router called %d times for -1", f.router.Calls())
	}
}

func TestRequestRouteRequiresLocalization(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.s.RequestRoute(3); !errors.Is(err, ErrInactive) {
		t.Fatalf("inactive RequestRoute err = %v", err)
	}

	f.activate(t)
	started, err := f.s.RequestRoute(3)
	if started || !errors.Is(err, ErrNotLocalized) {
		t.Fatalf("RequestRoute before localization = %v, %v", started, err)
	}
	if _, ok := findEvent(f.s.Tick(0.1).Events, model.EventNotLocalized); !ok {
		t.Fatalf("expected NotLocalized event")
	}
	if f.router.Calls() != 0 {
		t.Fatalf("router called before localization")
	}
}

func TestRequestRoutePlacesOrientedAnchors(t *testing.T) {
	router := &fakeRouter{waypoints: routeWaypoints()}
	reg := prometheus.NewRegistry()
	collector, err := observability.NewNavigatorCollector(reg)
	if err != nil {
		t.Fatalf("NewNavigatorCollector: %v", err)
	}
	f := newFixture(t, router, WithMetricsRecorder(collector))
	f.localize(t)

	started, err := f.s.RequestRoute(12)
	if !started || err != nil {
		t.Fatalf("RequestRoute = %v, %v", started, err)
	}
	events := tickUntil(t, f.s, model.EventRoutePlaced)
	placed, _ := findEvent(events, model.EventRoutePlaced)
	if placed.Count != 3 {
		t.Fatalf("RoutePlaced count = %d, want 3", placed.Count)
	}

	anchors := f.s.Anchors()
	if len(anchors) != 3 {
		t.Fatalf("anchors = %d, want 3", len(anchors))
	}
	// origin -> corridor heads north, corridor -> atrium heads east.
	wantHeadings := []float64{-90, 0, 90}
	for i, a := range anchors {
		got := a.Placement.HeadingDegrees
		if diff := got - wantHeadings[i]; diff > 1 || diff < -1 {
			t.Fatalf("anchor %d heading = %.2f, want ~%.0f", i, got, wantHeadings[i])
		}
		if h := a.Anchor.(*device.Anchor).Heading(); h != got {
			t.Fatalf("anchor %d marker heading %.2f != placement %.2f", i, h, got)
		}
	}

	if got := testutil.ToFloat64(collector.AnchorsPlaced); got != 3 {
		t.Fatalf("anchors placed metric = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.RouteLookups.WithLabelValues(observability.OutcomeOK)); got != 1 {
		t.Fatalf("ok route lookups = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Events.WithLabelValues("RoutePlaced")); got != 1 {
		t.Fatalf("RoutePlaced metric = %v, want 1", got)
	}
}

func TestAnchorFailureDoesNotAbortRoute(t *testing.T) {
	waypoints := routeWaypoints()
	f := newFixture(t, &fakeRouter{waypoints: waypoints})
	f.tracker.RejectAnchorAt(waypoints[1].Latitude, waypoints[1].Longitude)
	f.localize(t)

	if _, err := f.s.RequestRoute(12); err != nil {
		t.Fatalf("RequestRoute: %v", err)
	}
	events := tickUntil(t, f.s, model.EventRoutePlaced)

	failed, ok := findEvent(events, model.EventAnchorPlacementFailed)
	if !ok || failed.WaypointID != 11 {
		t.Fatalf("AnchorPlacementFailed = %+v, %v", failed, ok)
	}
	placed, _ := findEvent(events, model.EventRoutePlaced)
	if placed.Count != 2 {
		t.Fatalf("RoutePlaced count = %d, want 2", placed.Count)
	}
	anchors := f.s.Anchors()
	if got := anchors[len(anchors)-1].Placement.HeadingDegrees; got != 90 {
		t.Fatalf("last anchor heading = %v, want arrival heading", got)
	}
}

func TestInvalidDestinationFromService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"invalid destination"}`))
	}))
	defer srv.Close()

	client, err := routing.NewClient(routing.Config{BaseURL: srv.URL}, nil, routing.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	f := newFixture(t, client)
	f.localize(t)

	if _, err := f.s.RequestRoute(999); err != nil {
		t.Fatalf("RequestRoute: %v", err)
	}
	events := tickUntil(t, f.s, model.EventRouteFailed)
	ev, _ := findEvent(events, model.EventRouteFailed)
	if ev.Message != "invalid destination" {
		t.Fatalf("RouteFailed message = %q", ev.Message)
	}
	if len(f.tracker.Anchors()) != 0 || len(f.s.Anchors()) != 0 {
		t.Fatalf("anchors created for a failed route")
	}
}

func TestRequestRouteIsIdempotentWhileInFlight(t *testing.T) {
	router := &fakeRouter{waypoints: routeWaypoints(), block: make(chan struct{})}
	f := newFixture(t, router)
	f.localize(t)

	if started, _ := f.s.RequestRoute(12); !started {
		t.Fatalf("first request did not start")
	}
	if started, err := f.s.RequestRoute(12); started || err != nil {
		t.Fatalf("second request = %v, %v; want no-op", started, err)
	}
	if !f.s.RouteInFlight() {
		t.Fatalf("expected a lookup in flight")
	}
	close(router.block)
	tickUntil(t, f.s, model.EventRoutePlaced)
	if router.Calls() != 1 {
		t.Fatalf("router called %d times, want 1", router.Calls())
	}
}

func TestDeactivateDiscardsLateRoute(t *testing.T) {
	router := &fakeRouter{waypoints: routeWaypoints(), block: make(chan struct{})}
	f := newFixture(t, router)
	f.localize(t)

	if started, _ := f.s.RequestRoute(12); !started {
		t.Fatalf("request did not start")
	}
	waitFor(t, "router call", func() bool { return router.Calls() == 1 })

	f.s.Deactivate()
	if f.s.Active() || f.s.RouteInFlight() {
		t.Fatalf("session still active or lookup outstanding after Deactivate")
	}
	if _, stops := f.loc.Counts(); stops == 0 {
		t.Fatalf("location service not stopped")
	}
	close(router.block)

	f.activate(t)
	waitFor(t, "location running", func() bool { return f.loc.Status() == model.LocationRunning })
	var events []model.Event
	for range 20 {
		events = append(events, f.s.Tick(0.1).Events...)
		time.Sleep(time.Millisecond)
	}
	for _, ev := range events {
		if ev.Type == model.EventRoutePlaced || ev.Type == model.EventRouteFailed {
			t.Fatalf("late route result delivered after reactivation: %v", ev)
		}
	}
	if len(f.tracker.Anchors()) != 0 {
		t.Fatalf("anchors created from a discarded lookup")
	}
}

func TestDebugSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	f.localize(t)

	info := f.s.Debug()
	if info.Localizing || info.SessionStatus != model.SessionTracking || !info.Tracking {
		t.Fatalf("unexpected debug snapshot: %+v", info)
	}
	if info.Pose == nil || info.Pose.Latitude != originLat {
		t.Fatalf("debug pose = %+v", info.Pose)
	}
	if info.DestinationID != model.NoDestination {
		t.Fatalf("destination = %d, want none", info.DestinationID)
	}
	if info.String() == "" {
		t.Fatalf("empty debug text")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{PermissionGrace: -1}.ApplyDefaults()
	if cfg.PermissionGrace != 0 {
		t.Fatalf("negative grace should disable the wait, got %v", cfg.PermissionGrace)
	}
	if cfg.SettleSeconds != 3 || cfg.LocalizationTimeoutSeconds != 180 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Anchors.VerticalOffsetMeters != 0.5 || cfg.Anchors.ArrivalHeadingDegrees != 90 {
		t.Fatalf("anchor defaults not applied: %+v", cfg.Anchors)
	}
	if d := (Config{}).ApplyDefaults(); d.PermissionGrace != DefaultPermissionGrace {
		t.Fatalf("zero grace = %v, want default", d.PermissionGrace)
	}
}
