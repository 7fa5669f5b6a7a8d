package storage

import "github.com/geoannot/gcptag/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// GCP registry. CreateGCP fails with core.ErrDuplicateGCP on a name clash.
	CreateGCP(g *core.GCP) error
	GetGCP(name string) (core.GCP, error)
	GCPs() ([]core.GCP, error)

	// Images are upserted by name and listed in name order.
	AddImage(img *core.Image) error
	HasImage(name string) (bool, error)
	Images() ([]core.Image, error)

	// AddMarker assigns an ID to the passed pointer. It fails with
	// core.ErrImageNotFound or core.ErrGCPNotFound when either side is unknown.
	AddMarker(m *core.Marker) (uint, error)
	// Markers returns the markers of one image in placement order, empty for unknown images.
	Markers(image string) ([]core.TaggedMarker, error)
	AllMarkers() ([]core.TaggedMarker, error)
}
