package overlay

import (
	"fmt"
	"image"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const markerRadius = 5

// Raster is a Surface that paints markers and their labels onto a copy of
// the image bitmap.
type Raster struct {
	mu   sync.Mutex
	base image.Image
	dc   *gg.Context
}

// NewRaster creates a blank raster of the given size. SetBase replaces it
// with an image.
func NewRaster(width, height int) *Raster {
	r := &Raster{base: image.NewRGBA(image.Rect(0, 0, width, height))}
	r.dc = gg.NewContextForImage(r.base)
	return r
}

// SetBase replaces the bitmap markers are drawn on and clears the overlay.
func (r *Raster) SetBase(img image.Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.base = img
	r.dc = gg.NewContextForImage(img)
}

func (r *Raster) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dc = gg.NewContextForImage(r.base)
}

func (r *Raster) Draw(markers []Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dc.SetFontFace(basicfont.Face7x13)
	for _, m := range markers {
		r.dc.DrawCircle(m.X, m.Y, markerRadius)
		r.dc.SetRGB(1, 0, 0)
		r.dc.FillPreserve()
		r.dc.SetRGB(1, 1, 1)
		r.dc.SetLineWidth(1.5)
		r.dc.Stroke()

		if m.Label != "" {
			r.dc.SetRGB(1, 1, 0)
			r.dc.DrawStringAnchored(m.Label, m.X+markerRadius+2, m.Y, 0, 0.5)
		}
	}
}

// Render returns the composited image.
func (r *Raster) Render() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dc.Image()
}

// SavePNG writes the composited image to path.
func (r *Raster) SavePNG(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save overlay: %w", err)
	}
	return nil
}
