package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/geoannot/gcptag/pkg/core"
)

// Backend keeps the store in process memory. Nothing survives a restart
// except what the server re-imports from its CSV and uploads directory.
type Backend struct {
	gcps    map[string]core.GCP
	images  map[string]core.Image
	markers []core.Marker

	idCounter uint
	mu        sync.RWMutex
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{
		gcps:   make(map[string]core.GCP),
		images: make(map[string]core.Image),
	}
}

func (b *Backend) Init() error {
	return nil
}

func (b *Backend) Close() error {
	return nil
}

func (b *Backend) CreateGCP(g *core.GCP) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.gcps[g.Name]; ok {
		return core.ErrDuplicateGCP
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	b.gcps[g.Name] = *g
	return nil
}

func (b *Backend) GetGCP(name string) (core.GCP, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	g, ok := b.gcps[name]
	if !ok {
		return core.GCP{}, core.ErrGCPNotFound
	}
	return g, nil
}

// GCPs returns every GCP ordered by name
func (b *Backend) GCPs() ([]core.GCP, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.GCP, 0, len(b.gcps))
	for _, g := range b.gcps {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *Backend) AddImage(img *core.Image) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prev, ok := b.images[img.Name]; ok && img.CreatedAt.IsZero() {
		img.CreatedAt = prev.CreatedAt
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}
	b.images[img.Name] = *img
	return nil
}

func (b *Backend) HasImage(name string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.images[name]
	return ok, nil
}

func (b *Backend) Images() ([]core.Image, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Image, 0, len(b.images))
	for _, img := range b.images {
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *Backend) AddMarker(m *core.Marker) (uint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.images[m.ImageName]; !ok {
		return 0, core.ErrImageNotFound
	}
	if _, ok := b.gcps[m.GCPName]; !ok {
		return 0, core.ErrGCPNotFound
	}

	b.idCounter++
	m.ID = b.idCounter
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	b.markers = append(b.markers, *m)
	return m.ID, nil
}

func (b *Backend) Markers(image string) ([]core.TaggedMarker, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := []core.TaggedMarker{}
	for _, m := range b.markers {
		if m.ImageName == image {
			out = append(out, b.tag(m))
		}
	}
	return out, nil
}

func (b *Backend) AllMarkers() ([]core.TaggedMarker, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.TaggedMarker, 0, len(b.markers))
	for _, m := range b.markers {
		out = append(out, b.tag(m))
	}
	return out, nil
}

// tag must be called with the lock held
func (b *Backend) tag(m core.Marker) core.TaggedMarker {
	g := b.gcps[m.GCPName]
	return core.TaggedMarker{Marker: m, Lat: g.Lat, Lon: g.Lon}
}
