// pkg/core/gcp.go
package core

import (
	"errors"
	"time"
)

// Store-side sentinel errors. The HTTP layer maps each one to an {error} body.
var (
	ErrDuplicateGCP  = errors.New("GCP name already exists")
	ErrGCPNotFound   = errors.New("GCP name does not exist")
	ErrImageNotFound = errors.New("Image not found")
)

// GCP is a named ground control point.
// Name is the identity; Lat/Lon are WGS84 degrees.
type GCP struct {
	Name      string
	Lat       float64
	Lon       float64
	CreatedAt time.Time
}

// Image is an uploaded image known to the store.
type Image struct {
	Name      string
	Width     int
	Height    int
	Format    string
	CreatedAt time.Time
}

// Marker places a GCP at a pixel offset within an image.
// X and Y are in the rendered coordinate space of the client that placed it.
type Marker struct {
	ID        uint
	UUID      string
	ImageName string
	GCPName   string
	X         float64
	Y         float64
	CreatedAt time.Time
}

// TaggedMarker is a marker joined with the coordinates of its GCP,
// which is what the store hands back to clients and to the CSV export.
type TaggedMarker struct {
	Marker
	Lat float64
	Lon float64
}
