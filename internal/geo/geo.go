package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// GCP locations arrive as WGS84 degrees (EPSG:4326) and are stored as EPSG:3857 points,
// matching how the map tiles used to pick them are projected.
// Geometry is persisted in WKB through the geom Scanner/Valuer.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ParseFinite parses s as a float and rejects NaN and the infinities.
func ParseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, ErrInvalidCoordinates
	}
	if !IsFinite(v) {
		return 0, ErrInvalidCoordinates
	}
	return v, nil
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ParseLatLon parses a latitude and longitude typed by an operator.
func ParseLatLon(lat, lon string) (float64, float64, error) {
	la, err := ParseFinite(lat)
	if err != nil {
		return 0, 0, err
	}
	lo, err := ParseFinite(lon)
	if err != nil {
		return 0, 0, err
	}
	return la, lo, nil
}

// ValidateWGS84 checks that lat/lon are finite and inside the WGS84 ranges.
func ValidateWGS84(lat, lon float64) error {
	if !IsFinite(lat) || !IsFinite(lon) {
		return ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// Point3857From4326 projects a longitude/latitude pair to a web mercator point.
func Point3857From4326(longitude, latitude float64) (geom.Point, error) {
	if err := ValidateWGS84(latitude, longitude); err != nil {
		return geom.NewEmptyPoint(geom.DimXY), err
	}
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Type: geom.DimXY,
	})
}
