package routeserver

import (
	"github.com/signalsfoundry/geospatial-navigator/core"
	"github.com/signalsfoundry/geospatial-navigator/model"
)

// OriginNodeID and OriginNodeName label the synthetic first node that
// stands for the caller's own position.
const (
	OriginNodeID   int64 = 0
	OriginNodeName       = "origin"
)

// PlanRoute builds the route from the caller's position to place. It starts
// at the origin and joins the stored path at the node closest to the origin,
// so nodes already behind the caller are skipped. A place without a stored
// path is reached directly.
func PlanRoute(originLat, originLon float64, place model.Place, path []model.Waypoint) []model.Waypoint {
	if len(path) == 0 {
		path = []model.Waypoint{{
			ID:        place.ID,
			Name:      place.Name,
			Latitude:  place.Latitude,
			Longitude: place.Longitude,
		}}
	}

	nearest := 0
	best := core.GreatCircleDistance(originLat, originLon, path[0].Latitude, path[0].Longitude)
	for i := 1; i < len(path); i++ {
		d := core.GreatCircleDistance(originLat, originLon, path[i].Latitude, path[i].Longitude)
		if d < best {
			nearest, best = i, d
		}
	}

	route := make([]model.Waypoint, 0, len(path)-nearest+1)
	route = append(route, model.Waypoint{
		ID:        OriginNodeID,
		Name:      OriginNodeName,
		Latitude:  originLat,
		Longitude: originLon,
	})
	return append(route, path[nearest:]...)
}
