package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/geospatial-navigator/model"
)

// Anchor placement defaults.
const (
	DefaultAnchorVerticalOffset = 0.5
	DefaultArrivalHeading       = 90.0
)

// ErrNilAnchor is reported when the placer returns neither an anchor nor an error.
var ErrNilAnchor = errors.New("anchor creation returned no anchor")

// AnchorPlacer creates spatial anchors by geodetic coordinate.
type AnchorPlacer interface {
	CreateAnchor(lat, lon, altitudeOffset, orientation float64) (model.Anchor, error)
}

// AnchorOptions tunes PlaceRoute. Zero values fall back to the defaults.
type AnchorOptions struct {
	VerticalOffsetMeters  float64
	ArrivalHeadingDegrees float64
}

// DefaultAnchorOptions returns the standard placement options.
func DefaultAnchorOptions() AnchorOptions {
	return AnchorOptions{
		VerticalOffsetMeters:  DefaultAnchorVerticalOffset,
		ArrivalHeadingDegrees: DefaultArrivalHeading,
	}
}

// ApplyDefaults fills in zero fields.
func (o AnchorOptions) ApplyDefaults() AnchorOptions {
	if o.VerticalOffsetMeters == 0 {
		o.VerticalOffsetMeters = DefaultAnchorVerticalOffset
	}
	if o.ArrivalHeadingDegrees == 0 {
		o.ArrivalHeadingDegrees = DefaultArrivalHeading
	}
	return o
}

// PlacedAnchor is a successfully created anchor and its final orientation.
type PlacedAnchor struct {
	Placement model.AnchorPlacement
	Anchor    model.Anchor
}

// AnchorFailure records a waypoint whose anchor could not be created.
type AnchorFailure struct {
	Waypoint model.Waypoint
	Err      error
}

func (f AnchorFailure) Error() string {
	return fmt.Sprintf("anchor for waypoint %d (%s): %v", f.Waypoint.ID, f.Waypoint.Name, f.Err)
}

func (f AnchorFailure) Unwrap() error { return f.Err }

// RouteHeadings computes marker headings for a chain of placed positions.
// Each heading is the negated planar bearing toward the next position; the
// last entry is the arrival heading.
func RouteHeadings(positions []model.ENU, arrivalHeading float64) []float64 {
	headings := make([]float64, len(positions))
	for i := 0; i+1 < len(positions); i++ {
		headings[i] = -PlanarBearingDegrees(positions[i], positions[i+1])
	}
	if n := len(headings); n > 0 {
		headings[n-1] = arrivalHeading
	}
	return headings
}

// PlaceRoute creates one anchor per waypoint, in order, then orients each
// marker toward the next placed anchor. A failed waypoint is skipped and
// recorded; it never aborts the rest of the route and it drops out of the
// bearing chain.
func PlaceRoute(placer AnchorPlacer, waypoints []model.Waypoint, opts AnchorOptions) ([]PlacedAnchor, []AnchorFailure) {
	opts = opts.ApplyDefaults()

	placed := make([]PlacedAnchor, 0, len(waypoints))
	var failures []AnchorFailure

	for _, wp := range waypoints {
		anchor, err := placer.CreateAnchor(wp.Latitude, wp.Longitude, opts.VerticalOffsetMeters, 0)
		if err == nil && anchor == nil {
			err = ErrNilAnchor
		}
		if err != nil {
			failures = append(failures, AnchorFailure{Waypoint: wp, Err: err})
			continue
		}
		placed = append(placed, PlacedAnchor{
			Placement: model.AnchorPlacement{Waypoint: wp},
			Anchor:    anchor,
		})
	}

	positions := make([]model.ENU, len(placed))
	for i, p := range placed {
		positions[i] = p.Anchor.Position()
	}
	for i, heading := range RouteHeadings(positions, opts.ArrivalHeadingDegrees) {
		placed[i].Placement.HeadingDegrees = heading
		placed[i].Anchor.SetHeading(heading)
	}

	return placed, failures
}
