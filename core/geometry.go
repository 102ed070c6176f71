package core

import (
	"math"

	"github.com/golang/geo/s2"
	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/geospatial-navigator/model"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

const (
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi
)

// Vec3 is an ECEF vector in metres.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// GeodeticToECEF converts latitude/longitude in degrees and altitude in
// metres to an Earth-fixed position in metres. go-satellite treats the Earth
// as a sphere here (no ellipsoidal flattening), so a degree of latitude is
// about 111.3 km everywhere; fine for the planar bearings built on it.
//
// go-satellite only exposes geodetic->ECI, so we go through ECI at an
// arbitrary epoch and rotate back by the same sidereal angle; the epoch
// cancels out.
func GeodeticToECEF(latDeg, lonDeg, altMeters float64) Vec3 {
	const epochYear, epochMonth, epochDay = 2000, 1, 1
	jd := satellite.JDay(epochYear, epochMonth, epochDay, 12, 0, 0)
	gmst := satellite.ThetaG_JD(jd)

	ll := satellite.LatLong{Latitude: latDeg * deg2rad, Longitude: lonDeg * deg2rad}
	eci := satellite.LLAToECI(ll, altMeters/1000.0, jd)
	ecef := satellite.ECIToECEF(eci, gmst)

	// go-satellite works in kilometres.
	const kmToM = 1000.0
	return Vec3{X: ecef.X * kmToM, Y: ecef.Y * kmToM, Z: ecef.Z * kmToM}
}

// ECEFToENU expresses p in the local east-north-up frame anchored at the
// reference geodetic position.
func ECEFToENU(p Vec3, refLatDeg, refLonDeg, refAltMeters float64) model.ENU {
	ref := GeodeticToECEF(refLatDeg, refLonDeg, refAltMeters)
	d := p.Sub(ref)

	sinLat, cosLat := math.Sincos(refLatDeg * deg2rad)
	sinLon, cosLon := math.Sincos(refLonDeg * deg2rad)

	return model.ENU{
		East:  -sinLon*d.X + cosLon*d.Y,
		North: -sinLat*cosLon*d.X - sinLat*sinLon*d.Y + cosLat*d.Z,
		Up:    cosLat*cosLon*d.X + cosLat*sinLon*d.Y + sinLat*d.Z,
	}
}

// ProjectENU places a geodetic coordinate in the ENU frame of origin.
func ProjectENU(origin model.Waypoint, latDeg, lonDeg, altMeters float64) model.ENU {
	return ECEFToENU(GeodeticToECEF(latDeg, lonDeg, altMeters), origin.Latitude, origin.Longitude, 0)
}

// GreatCircleDistance returns the surface distance between two coordinates
// in metres.
func GreatCircleDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// PlanarBearingDegrees returns atan2(dNorth, dEast) between two placed
// positions, in degrees. East is the planar X axis and north is Z; the up
// component is ignored.
func PlanarBearingDegrees(from, to model.ENU) float64 {
	dx := to.East - from.East
	dz := to.North - from.North
	return math.Atan2(dz, dx) * rad2deg
}
