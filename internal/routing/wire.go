package routing

import "github.com/signalsfoundry/geospatial-navigator/model"

// Node is one waypoint as encoded by the routing service.
type Node struct {
	ID         int64   `json:"id"`
	PlacesName string  `json:"places_name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	TotalNodes int     `json:"total_nodes"`
}

// RouteResponse is the routing service's route body. Exactly one of Nodes or
// Error is populated.
type RouteResponse struct {
	Nodes []Node `json:"nodes,omitempty"`
	Error string `json:"error,omitempty"`
}

// PlacesResponse lists selectable destinations.
type PlacesResponse struct {
	Places []model.Place `json:"places,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Waypoint converts a wire node into the domain type.
func (n Node) Waypoint() model.Waypoint {
	return model.Waypoint{
		ID:        n.ID,
		Name:      n.PlacesName,
		Latitude:  n.Latitude,
		Longitude: n.Longitude,
	}
}

// NodesFromWaypoints encodes an ordered route for the wire.
func NodesFromWaypoints(wps []model.Waypoint) []Node {
	nodes := make([]Node, len(wps))
	for i, wp := range wps {
		nodes[i] = Node{
			ID:         wp.ID,
			PlacesName: wp.Name,
			Latitude:   wp.Latitude,
			Longitude:  wp.Longitude,
			TotalNodes: len(wps),
		}
	}
	return nodes
}
