// Package overlay keeps the markers drawn over the current image in step
// with the marker set fetched for it.
package overlay

import "sync"

// Marker is a GCP label at a pixel position in rendered coordinates.
type Marker struct {
	X     float64
	Y     float64
	Label string
}

// Surface is something markers can be drawn on.
type Surface interface {
	// Clear removes every marker element previously drawn.
	Clear()
	// Draw adds one element per marker.
	Draw(markers []Marker)
}

// Renderer replaces the displayed marker set wholesale.
type Renderer struct {
	mu      sync.Mutex
	surface Surface
}

func NewRenderer(surface Surface) *Renderer {
	return &Renderer{surface: surface}
}

// Refresh clears the surface and draws exactly markers. Calling it twice
// with the same input leaves the same result; an empty input clears.
func (r *Renderer) Refresh(markers []Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surface.Clear()
	if len(markers) > 0 {
		r.surface.Draw(markers)
	}
}

// Memory is a Surface that only records what is displayed.
type Memory struct {
	mu      sync.RWMutex
	markers []Marker
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = nil
}

func (m *Memory) Draw(markers []Marker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = append(m.markers, markers...)
}

// Markers returns a copy of the displayed markers in draw order.
func (m *Memory) Markers() []Marker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Marker, len(m.markers))
	copy(out, m.markers)
	return out
}
