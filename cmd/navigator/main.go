package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/geospatial-navigator/core"
	"github.com/signalsfoundry/geospatial-navigator/internal/logging"
	"github.com/signalsfoundry/geospatial-navigator/internal/observability"
	"github.com/signalsfoundry/geospatial-navigator/internal/routing"
	"github.com/signalsfoundry/geospatial-navigator/internal/session"
	"github.com/signalsfoundry/geospatial-navigator/internal/sim/device"
	"github.com/signalsfoundry/geospatial-navigator/kb"
	"github.com/signalsfoundry/geospatial-navigator/model"
	"github.com/signalsfoundry/geospatial-navigator/timectrl"
)

// Config holds the navigator demo's runtime options.
type Config struct {
	RouteServerURL  string
	DestinationID   int64
	OriginLat       float64
	OriginLon       float64
	Frame           time.Duration
	Timeout         time.Duration
	LocalizeAfter   time.Duration
	SettleSeconds   float64
	PermissionGrace time.Duration
	MetricsAddress  string
}

// Summary reports what a run achieved.
type Summary struct {
	Frames  uint64
	Events  []model.Event
	Anchors []core.PlacedAnchor
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.RouteServerURL, "route-server", "http://localhost:8080", "base URL of the routing service")
	flag.Int64Var(&cfg.DestinationID, "destination", model.NoDestination, "destination place ID (-1 picks the first listed place)")
	flag.Float64Var(&cfg.OriginLat, "lat", 37.42212, "simulated device latitude")
	flag.Float64Var(&cfg.OriginLon, "lon", -122.08410, "simulated device longitude")
	flag.DurationVar(&cfg.Frame, "frame", 50*time.Millisecond, "frame interval")
	flag.DurationVar(&cfg.Timeout, "timeout", 2*time.Minute, "give up if no route is placed within this time")
	flag.DurationVar(&cfg.LocalizeAfter, "localize-after", 2*time.Second, "simulated time until the device reports a confident pose")
	flag.Float64Var(&cfg.SettleSeconds, "settle", session.DefaultConfig().SettleSeconds, "geospatial warm-up in seconds")
	flag.DurationVar(&cfg.PermissionGrace, "permission-grace", session.DefaultPermissionGrace, "wait after prompting for a permission")
	flag.StringVar(&cfg.MetricsAddress, "metrics-addr", ":9091", "HTTP address for Prometheus /metrics (empty to disable)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Warn(ctx, "tracing disabled", logging.Err(err))
	} else {
		defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
	}

	collector, err := observability.NewNavigatorCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(cfg.MetricsAddress, collector, log)

	summary, err := run(ctx, cfg, log, collector)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsSrv.Shutdown(shutdownCtx)
		cancel()
	}
	if err != nil {
		log.Error(ctx, "navigation failed", logging.Err(err), logging.Any("frames", summary.Frames))
		os.Exit(1)
	}
	for _, a := range summary.Anchors {
		pos := a.Anchor.Position()
		log.Info(ctx, "anchor",
			logging.Int64("waypoint_id", a.Placement.Waypoint.ID),
			logging.String("name", a.Placement.Waypoint.Name),
			logging.Float("east_m", pos.East),
			logging.Float("north_m", pos.North),
			logging.Float("heading_deg", a.Placement.HeadingDegrees),
		)
	}
}

// run drives one simulated navigation session until a route is placed, a
// terminal problem is reported, or the timeout elapses.
func run(ctx context.Context, cfg Config, log logging.Logger, metrics session.MetricsRecorder) (Summary, error) {
	var summary Summary

	client, err := routing.NewClient(routing.Config{BaseURL: cfg.RouteServerURL}, log)
	if err != nil {
		return summary, err
	}

	catalog := kb.NewCatalog()
	unsubscribe := catalog.Subscribe(func(ev kb.Event) {
		if ev.Type == kb.EventSelectionChanged {
			log.Info(ctx, "destination selected",
				logging.Int64("destination_id", ev.Selected),
				logging.String("name", ev.Place.Name),
			)
		}
	})
	defer unsubscribe()

	places, err := client.ListPlaces(ctx)
	if err != nil {
		return summary, fmt.Errorf("list places: %w", err)
	}
	if err := catalog.Replace(places); err != nil {
		return summary, err
	}
	dest := cfg.DestinationID
	if dest == model.NoDestination && len(places) > 0 {
		dest = places[0].ID
	}
	if err := catalog.Select(dest); err != nil {
		return summary, err
	}

	origin := model.Waypoint{Latitude: cfg.OriginLat, Longitude: cfg.OriginLon}
	tracker := device.NewTracker(origin)
	location := device.NewLocation(cfg.OriginLat, cfg.OriginLon)
	perms := device.NewPermissions()

	sessCfg := session.DefaultConfig()
	sessCfg.SettleSeconds = cfg.SettleSeconds
	sessCfg.PermissionGrace = cfg.PermissionGrace
	opts := []session.Option{session.WithLogger(log)}
	if metrics != nil {
		opts = append(opts, session.WithMetricsRecorder(metrics))
	}
	sess, err := session.New(sessCfg, session.Dependencies{
		Tracker:     tracker,
		Location:    location,
		Permissions: perms,
		Router:      client,
	}, opts...)
	if err != nil {
		return summary, err
	}
	if err := sess.Activate(ctx); err != nil {
		return summary, err
	}
	defer sess.Deactivate()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var runErr error
	clock := timectrl.NewFrameClock(time.Now(), cfg.Frame, timectrl.RealTime)
	clock.AddListener(func(now time.Time, dt float64) {
		scriptDevice(tracker, origin, now.Sub(clock.StartTime), cfg.LocalizeAfter)

		frame := sess.Tick(dt)
		for _, ev := range frame.Events {
			summary.Events = append(summary.Events, ev)
			switch ev.Type {
			case model.EventLocalizationAchieved:
				if _, err := sess.RequestRoute(catalog.Selected()); err != nil {
					log.Warn(runCtx, "route request rejected", logging.Err(err))
				}
			case model.EventRoutePlaced:
				summary.Anchors = sess.Anchors()
				cancel()
			case model.EventRouteFailed:
				runErr = fmt.Errorf("route failed: %s", ev.Message)
				cancel()
			case model.EventFeatureUnsupported, model.EventCameraPermissionDenied, model.EventLocationDisabled:
				runErr = fmt.Errorf("cannot navigate: %s", ev)
				cancel()
			}
		}
	})

	<-clock.Start(runCtx, 0)
	summary.Frames = clock.Frames()
	log.Debug(ctx, "final session state", logging.String("debug", sess.Debug().String()))

	switch {
	case runErr != nil:
		return summary, runErr
	case summary.Anchors != nil:
		return summary, nil
	case ctx.Err() != nil:
		return summary, ctx.Err()
	default:
		return summary, errors.New("timed out before a route was placed")
	}
}

// scriptDevice plays the simulated device's warm-up: geospatial support is
// reported halfway to localizeAfter, and a confident pose at localizeAfter.
func scriptDevice(tracker *device.Tracker, origin model.Waypoint, elapsed, localizeAfter time.Duration) {
	if elapsed >= localizeAfter/2 && tracker.GeospatialSupport() == model.FeatureUnknown {
		tracker.SetSupport(model.FeatureSupported)
	}
	if elapsed >= localizeAfter && tracker.SessionStatus() != model.SessionTracking {
		tracker.Localize(origin.Latitude, origin.Longitude)
	}
}

func serveMetrics(addr string, collector *observability.NavigatorCollector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
