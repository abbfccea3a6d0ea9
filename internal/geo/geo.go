// Package geo converts between geodetic coordinates and the earth-centred
// frame the megastructure is modelled in.
package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// Positions are kept in EPSG:4978 (WGS84 geocentric, meters). Geodetic
// input is EPSG:4326 longitude, latitude and ellipsoidal height.
const (
	epsgGeodetic   = 4326
	epsgGeocentric = 4978
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Geodetic is a position on or above the WGS84 ellipsoid, in degrees and
// meters.
type Geodetic struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Altitude  float64 `json:"altitude"`
}

// ParseGeodetic parses a string in the format "long,lat" or "long,lat,alt".
func ParseGeodetic(coords string) (Geodetic, error) {
	parts := strings.Split(coords, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return Geodetic{}, ErrInvalidCoordinates
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Geodetic{}, ErrInvalidCoordinates
		}
		vals[i] = v
	}
	g := Geodetic{Longitude: vals[0], Latitude: vals[1], Altitude: vals[2]}
	if g.Latitude < -90 || g.Latitude > 90 {
		return Geodetic{}, ErrInvalidCoordinates
	}
	return g, nil
}

// ToECEF converts a geodetic position to earth-centred coordinates.
func ToECEF(g Geodetic) r3.Vec {
	f := wgs84.EPSG().Transform(epsgGeodetic, epsgGeocentric)
	x, y, z := f(g.Longitude, g.Latitude, g.Altitude)
	return r3.Vec{X: x, Y: y, Z: z}
}

// FromECEF converts earth-centred coordinates back to geodetic.
func FromECEF(v r3.Vec) Geodetic {
	f := wgs84.EPSG().Transform(epsgGeocentric, epsgGeodetic)
	lon, lat, alt := f(v.X, v.Y, v.Z)
	return Geodetic{Longitude: lon, Latitude: lat, Altitude: alt}
}

// LatitudeCircle returns the circle traced by a constant latitude and
// altitude: its centre on the polar axis and its radius. The circle's
// normal is the polar axis.
func LatitudeCircle(latitude, altitude float64) (center r3.Vec, radius float64) {
	p := ToECEF(Geodetic{Latitude: latitude, Altitude: altitude})
	return r3.Vec{Z: p.Z}, math.Hypot(p.X, p.Y)
}

// PointZ wraps an ECEF position as an XYZ point for WKB storage.
func PointZ(p core.Position3D) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Y},
		Z:    p.Z,
		Type: geom.DimXYZ,
	})
}

// PositionFromPoint unwraps a point written by PointZ. An empty point
// yields ErrInvalidCoordinates.
func PositionFromPoint(pt geom.Point) (core.Position3D, error) {
	c, ok := pt.Coordinates()
	if !ok {
		return core.Position3D{}, ErrInvalidCoordinates
	}
	return core.Position3D{X: c.X, Y: c.Y, Z: c.Z}, nil
}

// Position converts an r3 vector to a storable position.
func Position(v r3.Vec) core.Position3D {
	return core.Position3D{X: v.X, Y: v.Y, Z: v.Z}
}
