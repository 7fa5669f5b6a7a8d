package overlay

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSurface records every call it receives.
type countingSurface struct {
	Memory
	clears int
	draws  int
}

func (s *countingSurface) Clear() {
	s.clears++
	s.Memory.Clear()
}

func (s *countingSurface) Draw(markers []Marker) {
	s.draws++
	s.Memory.Draw(markers)
}

func TestRenderer_RefreshReplaces(t *testing.T) {
	mem := NewMemory()
	r := NewRenderer(mem)

	r.Refresh([]Marker{{X: 1, Y: 2, Label: "P1"}, {X: 3, Y: 4, Label: "P2"}})
	r.Refresh([]Marker{{X: 120, Y: 80, Label: "P3"}})

	assert.Equal(t, []Marker{{X: 120, Y: 80, Label: "P3"}}, mem.Markers())
}

func TestRenderer_RefreshIdempotent(t *testing.T) {
	mem := NewMemory()
	r := NewRenderer(mem)
	set := []Marker{{X: 10, Y: 20, Label: "P1"}, {X: 10, Y: 20, Label: "P1"}}

	r.Refresh(set)
	r.Refresh(set)

	assert.Equal(t, set, mem.Markers(), "duplicates in the input are kept, nothing else")
}

func TestRenderer_RefreshEmptyClears(t *testing.T) {
	s := &countingSurface{}
	r := NewRenderer(s)

	r.Refresh([]Marker{{X: 1, Y: 1, Label: "P1"}})
	r.Refresh(nil)

	assert.Empty(t, s.Markers())
	assert.Equal(t, 2, s.clears)
	assert.Equal(t, 1, s.draws)
}

func TestMemory_MarkersIsCopy(t *testing.T) {
	mem := NewMemory()
	mem.Draw([]Marker{{X: 1, Y: 1, Label: "P1"}})

	got := mem.Markers()
	got[0].Label = "changed"

	assert.Equal(t, "P1", mem.Markers()[0].Label)
}

func TestRaster_DrawAndClear(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 64, 64))
	r := NewRaster(1, 1)
	r.SetBase(base)

	r.Draw([]Marker{{X: 32, Y: 32, Label: "P1"}})
	drawn := r.Render()
	require.Equal(t, image.Rect(0, 0, 64, 64), drawn.Bounds())

	_, _, _, a := drawn.At(32, 32).RGBA()
	assert.NotZero(t, a, "marker center should be painted")

	r.Clear()
	cleared := r.Render()
	assert.Equal(t, color.RGBAModel.Convert(base.At(32, 32)), color.RGBAModel.Convert(cleared.At(32, 32)))
}

func TestRaster_WithRenderer(t *testing.T) {
	r := NewRaster(40, 40)
	renderer := NewRenderer(r)

	renderer.Refresh([]Marker{{X: 10, Y: 10}})
	renderer.Refresh([]Marker{{X: 30, Y: 30}})

	img := r.Render()
	_, _, _, oldA := img.At(10, 10).RGBA()
	_, _, _, newA := img.At(30, 30).RGBA()
	assert.Zero(t, oldA, "previous marker must be gone")
	assert.NotZero(t, newA)
}

func TestRaster_SavePNG(t *testing.T) {
	r := NewRaster(16, 16)
	r.Draw([]Marker{{X: 8, Y: 8, Label: "P1"}})

	path := filepath.Join(t.TempDir(), "overlay.png")
	require.NoError(t, r.SavePNG(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
