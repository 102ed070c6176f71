package core

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/signalsfoundry/geospatial-navigator/model"
)

type fakeAnchor struct {
	id      string
	pos     model.ENU
	heading float64
	rotated bool
}

func (a *fakeAnchor) ID() string           { return a.id }
func (a *fakeAnchor) Position() model.ENU  { return a.pos }
func (a *fakeAnchor) SetHeading(h float64) { a.heading, a.rotated = h, true }

// gridPlacer treats latitude as north metres and longitude as east metres.
type gridPlacer struct {
	fail    map[float64]bool
	offsets []float64
	created []*fakeAnchor
}

func (p *gridPlacer) CreateAnchor(lat, lon, altitudeOffset, orientation float64) (model.Anchor, error) {
	p.offsets = append(p.offsets, altitudeOffset)
	if orientation != 0 {
		return nil, fmt.Errorf("expected neutral orientation, got %v", orientation)
	}
	if p.fail[lat] {
		return nil, errors.New("tracking lost")
	}
	a := &fakeAnchor{id: fmt.Sprintf("a%d", len(p.created)), pos: model.ENU{East: lon, North: lat}}
	p.created = append(p.created, a)
	return a, nil
}

func TestRouteHeadingsColinearNorth(t *testing.T) {
	positions := []model.ENU{{East: 0, North: 0}, {East: 0, North: 10}, {East: 0, North: 20}}
	h := RouteHeadings(positions, DefaultArrivalHeading)
	if h[0] != h[1] {
		t.Fatalf("colinear headings differ: %v vs %v", h[0], h[1])
	}
	if h[0] != -90 {
		t.Fatalf("heading toward +Z = %v, want -90", h[0])
	}
	if h[2] != 90 {
		t.Fatalf("final heading = %v, want 90", h[2])
	}
}

func TestRouteHeadingsFinalAlwaysArrival(t *testing.T) {
	positions := []model.ENU{{East: 0}, {East: 10}}
	h := RouteHeadings(positions, 90)
	if h[0] != 0 || h[1] != 90 {
		t.Fatalf("headings = %v, want [0 90]", h)
	}
	if got := RouteHeadings(nil, 90); len(got) != 0 {
		t.Fatalf("empty route produced %v", got)
	}
	if got := RouteHeadings([]model.ENU{{}}, 90); got[0] != 90 {
		t.Fatalf("single waypoint heading = %v, want 90", got[0])
	}
}

func TestPlaceRouteOrientsAnchors(t *testing.T) {
	placer := &gridPlacer{}
	waypoints := []model.Waypoint{
		{ID: 1, Name: "here", Latitude: 0, Longitude: 0},
		{ID: 2, Name: "corner", Latitude: 10, Longitude: 0},
		{ID: 3, Name: "plaza", Latitude: 10, Longitude: 10},
	}

	placed, failures := PlaceRoute(placer, waypoints, DefaultAnchorOptions())
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if len(placed) != 3 {
		t.Fatalf("placed %d anchors, want 3", len(placed))
	}
	for _, off := range placer.offsets {
		if off != DefaultAnchorVerticalOffset {
			t.Fatalf("vertical offset = %v, want %v", off, DefaultAnchorVerticalOffset)
		}
	}

	want := []float64{-90, 0, 90}
	for i, p := range placed {
		if p.Placement.Waypoint.ID != waypoints[i].ID {
			t.Fatalf("placement %d out of order: %d", i, p.Placement.Waypoint.ID)
		}
		if math.Abs(p.Placement.HeadingDegrees-want[i]) > 1e-9 {
			t.Fatalf("heading[%d] = %v, want %v", i, p.Placement.HeadingDegrees, want[i])
		}
		fa := p.Anchor.(*fakeAnchor)
		if !fa.rotated || fa.heading != p.Placement.HeadingDegrees {
			t.Fatalf("anchor %d not rotated to placement heading", i)
		}
	}
}

func TestPlaceRouteSkipsFailedWaypoint(t *testing.T) {
	placer := &gridPlacer{fail: map[float64]bool{10: true}}
	waypoints := []model.Waypoint{
		{ID: 1, Latitude: 0, Longitude: 0},
		{ID: 2, Latitude: 10, Longitude: 0},
		{ID: 3, Latitude: 20, Longitude: 0},
		{ID: 4, Latitude: 20, Longitude: 10},
	}

	placed, failures := PlaceRoute(placer, waypoints, AnchorOptions{})
	if len(failures) != 1 || failures[0].Waypoint.ID != 2 {
		t.Fatalf("failures = %v, want only waypoint 2", failures)
	}
	if len(placed) != 3 {
		t.Fatalf("placed %d anchors, want 3", len(placed))
	}
	if len(placer.offsets) != 4 {
		t.Fatalf("placement attempts = %d, want 4", len(placer.offsets))
	}
	// Waypoint 1 now chains directly to waypoint 3 (still due north).
	if placed[0].Placement.HeadingDegrees != -90 {
		t.Fatalf("heading across skipped anchor = %v, want -90", placed[0].Placement.HeadingDegrees)
	}
	if placed[2].Placement.HeadingDegrees != 90 {
		t.Fatalf("destination heading = %v, want 90", placed[2].Placement.HeadingDegrees)
	}
	if !errors.Is(failures[0], failures[0].Err) {
		t.Fatalf("AnchorFailure should unwrap to its cause")
	}
}

type nilPlacer struct{}

func (nilPlacer) CreateAnchor(lat, lon, altitudeOffset, orientation float64) (model.Anchor, error) {
	return nil, nil
}

func TestPlaceRouteNilAnchorIsFailure(t *testing.T) {
	placed, failures := PlaceRoute(nilPlacer{}, []model.Waypoint{{ID: 7}}, DefaultAnchorOptions())
	if len(placed) != 0 || len(failures) != 1 || !errors.Is(failures[0].Err, ErrNilAnchor) {
		t.Fatalf("placed=%v failures=%v", placed, failures)
	}
}
