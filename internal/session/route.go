package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/geospatial-navigator/core"
	"github.com/signalsfoundry/geospatial-navigator/internal/logging"
	"github.com/signalsfoundry/geospatial-navigator/internal/observability"
	"github.com/signalsfoundry/geospatial-navigator/internal/routing"
	"github.com/signalsfoundry/geospatial-navigator/model"
)

type routeResult struct {
	destinationID int64
	waypoints     []model.Waypoint
	elapsed       time.Duration
}

// RequestRoute starts a route lookup toward destinationID from the current
// position. It reports whether a new lookup was started; a lookup already in
// flight makes this a no-op. Precondition failures are returned and also
// queued as events for the next Tick, and no network call is made.
func (s *Session) RequestRoute(destinationID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false, ErrInactive
	}
	if s.returning {
		return false, ErrSessionFailed
	}
	if destinationID == model.NoDestination {
		s.pending = append(s.pending, s.record(model.Event{Type: model.EventNoDestinationSelected}))
		return false, ErrNoDestinationSelected
	}
	if !s.localization.IsLocalized() {
		s.pending = append(s.pending, s.record(model.Event{Type: model.EventNotLocalized}))
		return false, ErrNotLocalized
	}
	if s.routeLookup.Outstanding() {
		return false, nil
	}

	lat, lon := s.origin()
	router := s.deps.Router
	started := s.routeLookup.Start(s.ctx, func(ctx context.Context) (routeResult, error) {
		ctx, span := observability.StartSpan(ctx, "navigator.route_lookup",
			attribute.Int64("navigator.destination_id", destinationID),
			attribute.Float64("navigator.origin_lat", lat),
			attribute.Float64("navigator.origin_lon", lon),
		)
		defer span.End()

		begin := time.Now()
		waypoints, err := router.RequestRoute(ctx, lat, lon, destinationID)
		res := routeResult{destinationID: destinationID, waypoints: waypoints, elapsed: time.Since(begin)}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return res, err
		}
		span.SetAttributes(attribute.Int("navigator.waypoints", len(waypoints)))
		return res, nil
	})
	if started {
		s.routeDest = destinationID
		s.log.Info(s.ctx, "route requested",
			logging.Int64("destination_id", destinationID),
			logging.Float("origin_lat", lat),
			logging.Float("origin_lon", lon),
		)
	}
	return started, nil
}

// RouteInFlight reports whether a route lookup is outstanding.
func (s *Session) RouteInFlight() bool {
	return s.routeLookup.Outstanding()
}

// origin prefers the tracked pose and falls back to the location service.
func (s *Session) origin() (float64, float64) {
	if s.deps.Tracker.TrackingConfident() {
		if pose := s.deps.Tracker.Pose(); pose != nil {
			return pose.Latitude, pose.Longitude
		}
	}
	return s.deps.Location.LastReading()
}

func (s *Session) pollRoute(f *Frame) {
	res, err, ok := s.routeLookup.Poll()
	if !ok {
		return
	}
	s.routeDest = model.NoDestination

	if err != nil {
		s.metrics.ObserveRouteLookup(routeOutcome(err), res.elapsed)
		s.emit(f, model.Event{Type: model.EventRouteFailed, Message: routeFailureMessage(err)})
		return
	}
	s.metrics.ObserveRouteLookup(observability.OutcomeOK, res.elapsed)
	s.placeRoute(f, res)
}

func (s *Session) placeRoute(f *Frame, res routeResult) {
	_, span := observability.StartSpan(s.ctx, "navigator.place_route",
		attribute.Int64("navigator.destination_id", res.destinationID),
		attribute.Int("navigator.waypoints", len(res.waypoints)),
	)
	defer span.End()

	placed, failures := core.PlaceRoute(s.deps.Tracker, res.waypoints, s.cfg.Anchors)
	for _, fail := range failures {
		s.log.Warn(s.ctx, "anchor placement failed",
			logging.Int64("waypoint_id", fail.Waypoint.ID),
			logging.String("waypoint", fail.Waypoint.Name),
			logging.Err(fail.Err),
		)
		s.emit(f, model.Event{
			Type:       model.EventAnchorPlacementFailed,
			Message:    fail.Err.Error(),
			WaypointID: fail.Waypoint.ID,
		})
	}
	s.anchors = placed
	s.metrics.AddAnchors(len(placed), len(failures))
	span.SetAttributes(
		attribute.Int("navigator.anchors_placed", len(placed)),
		attribute.Int("navigator.anchors_failed", len(failures)),
	)

	s.emit(f, model.Event{
		Type:    model.EventRoutePlaced,
		Message: strconv.FormatInt(res.destinationID, 10),
		Count:   len(placed),
	})
}

func routeOutcome(err error) string {
	var svc *routing.ServiceError
	switch {
	case errors.As(err, &svc):
		return observability.OutcomeRejected
	case errors.Is(err, context.Canceled):
		return observability.OutcomeCancelled
	default:
		return observability.OutcomeTransport
	}
}

// routeFailureMessage surfaces the service's own message verbatim.
func routeFailureMessage(err error) string {
	var svc *routing.ServiceError
	if errors.As(err, &svc) {
		return svc.Message
	}
	return err.Error()
}
