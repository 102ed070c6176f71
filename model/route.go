package model

// NoDestination marks an unset destination selection.
const NoDestination int64 = -1

// Waypoint is one stop along a computed route. The slice order returned by
// the routing service is the traversal order and must be preserved.
type Waypoint struct {
	ID        int64
	Name      string
	Latitude  float64
	Longitude float64
}

// AnchorPlacement pairs a waypoint with the heading of its directional marker.
type AnchorPlacement struct {
	Waypoint       Waypoint
	HeadingDegrees float64
}

// Place is a selectable destination.
type Place struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
