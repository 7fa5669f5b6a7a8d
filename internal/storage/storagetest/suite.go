// Package storagetest holds the behaviour shared by every storage.Backend.
package storagetest

import (
	"errors"
	"testing"

	"github.com/geoannot/gcptag/internal/storage"
	"github.com/geoannot/gcptag/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh backend returned by newBackend for every subtest.
func Run(t *testing.T, newBackend func(t *testing.T) storage.Backend) {
	t.Run("CreateGCP", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.CreateGCP(&core.GCP{Name: "P1", Lat: 12.5, Lon: 45.0}))

		g, err := b.GetGCP("P1")
		require.NoError(t, err)
		assert.Equal(t, 12.5, g.Lat)
		assert.Equal(t, 45.0, g.Lon)
		assert.False(t, g.CreatedAt.IsZero())

		err = b.CreateGCP(&core.GCP{Name: "P1", Lat: 1, Lon: 2})
		assert.True(t, errors.Is(err, core.ErrDuplicateGCP))

		g, err = b.GetGCP("P1")
		require.NoError(t, err)
		assert.Equal(t, 12.5, g.Lat, "duplicate must not overwrite")
	})

	t.Run("GetGCPUnknown", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.GetGCP("nope")
		assert.True(t, errors.Is(err, core.ErrGCPNotFound))
	})

	t.Run("GCPsOrderedByName", func(t *testing.T) {
		b := newBackend(t)
		for _, n := range []string{"P2", "A", "P1"} {
			require.NoError(t, b.CreateGCP(&core.GCP{Name: n}))
		}
		gcps, err := b.GCPs()
		require.NoError(t, err)
		names := make([]string, 0, len(gcps))
		for _, g := range gcps {
			names = append(names, g.Name)
		}
		assert.Equal(t, []string{"A", "P1", "P2"}, names)
	})

	t.Run("AddImageUpserts", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.AddImage(&core.Image{Name: "b.png", Width: 1, Height: 1, Format: "png"}))
		require.NoError(t, b.AddImage(&core.Image{Name: "a.jpg"}))
		require.NoError(t, b.AddImage(&core.Image{Name: "b.png", Width: 640, Height: 480, Format: "png"}))

		ok, err := b.HasImage("b.png")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = b.HasImage("c.png")
		require.NoError(t, err)
		assert.False(t, ok)

		images, err := b.Images()
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, "a.jpg", images[0].Name)
		assert.Equal(t, "b.png", images[1].Name)
		assert.Equal(t, 640, images[1].Width)
		assert.Equal(t, 480, images[1].Height)
	})

	t.Run("AddMarker", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.AddImage(&core.Image{Name: "img1.jpg"}))
		require.NoError(t, b.CreateGCP(&core.GCP{Name: "P1", Lat: 12.5, Lon: 45.0}))

		m := &core.Marker{ImageName: "img1.jpg", GCPName: "P1", X: 120, Y: 80}
		id, err := b.AddMarker(m)
		require.NoError(t, err)
		assert.NotZero(t, id)
		assert.Equal(t, id, m.ID)

		second := &core.Marker{ImageName: "img1.jpg", GCPName: "P1", X: 10, Y: 20}
		_, err = b.AddMarker(second)
		require.NoError(t, err)

		markers, err := b.Markers("img1.jpg")
		require.NoError(t, err)
		require.Len(t, markers, 2, "duplicates per image and GCP are kept")
		assert.Equal(t, 120.0, markers[0].X)
		assert.Equal(t, 80.0, markers[0].Y)
		assert.Equal(t, "P1", markers[0].GCPName)
		assert.Equal(t, 12.5, markers[0].Lat)
		assert.Equal(t, 45.0, markers[0].Lon)
		assert.Equal(t, 10.0, markers[1].X)
	})

	t.Run("AddMarkerUnknownImageOrGCP", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.AddImage(&core.Image{Name: "img1.jpg"}))
		require.NoError(t, b.CreateGCP(&core.GCP{Name: "P1"}))

		_, err := b.AddMarker(&core.Marker{ImageName: "missing.jpg", GCPName: "P1"})
		assert.True(t, errors.Is(err, core.ErrImageNotFound))

		_, err = b.AddMarker(&core.Marker{ImageName: "img1.jpg", GCPName: "P9"})
		assert.True(t, errors.Is(err, core.ErrGCPNotFound))

		all, err := b.AllMarkers()
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("MarkersUnknownImageEmpty", func(t *testing.T) {
		b := newBackend(t)
		markers, err := b.Markers("nope.png")
		require.NoError(t, err)
		assert.NotNil(t, markers)
		assert.Empty(t, markers)
	})

	t.Run("AllMarkersAcrossImages", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.AddImage(&core.Image{Name: "a.png"}))
		require.NoError(t, b.AddImage(&core.Image{Name: "b.png"}))
		require.NoError(t, b.CreateGCP(&core.GCP{Name: "P1", Lat: 1, Lon: 2}))
		_, err := b.AddMarker(&core.Marker{ImageName: "b.png", GCPName: "P1", X: 1, Y: 1})
		require.NoError(t, err)
		_, err = b.AddMarker(&core.Marker{ImageName: "a.png", GCPName: "P1", X: 2, Y: 2})
		require.NoError(t, err)

		all, err := b.AllMarkers()
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "b.png", all[0].ImageName)
		assert.Equal(t, "a.png", all[1].ImageName)
	})
}
