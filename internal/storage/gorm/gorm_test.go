package gormstorage_test

import (
	"encoding/json"
	"testing"

	"github.com/geoannot/gcptag/internal/database"
	"github.com/geoannot/gcptag/internal/model"
	"github.com/geoannot/gcptag/internal/storage"
	gormstorage "github.com/geoannot/gcptag/internal/storage/gorm"
	"github.com/geoannot/gcptag/internal/storage/storagetest"
	"github.com/geoannot/gcptag/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) (*gormstorage.Backend, *database.Manager) {
	t.Helper()
	m := database.NewManager(zerolog.Nop())
	require.NoError(t, m.ConnectSqlite(""))
	require.NoError(t, m.Setup())

	b := gormstorage.New(gormstorage.Dependencies{DB: m.DB, Closer: m.Close, Logger: zerolog.Nop()})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b, m
}

func TestBackend(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		b, _ := newTestBackend(t)
		return b
	})
}

func TestInit_NoDB(t *testing.T) {
	b := gormstorage.New(gormstorage.Dependencies{Logger: zerolog.Nop()})
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestCreateGCP_StoresProjectedLocation(t *testing.T) {
	b, m := newTestBackend(t)
	require.NoError(t, b.CreateGCP(&core.GCP{Name: "P1", Lat: 12.5, Lon: 45.0}))

	var row model.GCP
	require.NoError(t, m.DB.First(&row, "name = ?", "P1").Error)
	xy, ok := row.Location.XY()
	require.True(t, ok)
	assert.InDelta(t, 5009377.09, xy.X, 1)
	assert.Greater(t, xy.Y, 0.0)
}

func TestCreateGCP_RejectsOutOfRange(t *testing.T) {
	b, _ := newTestBackend(t)
	assert.Error(t, b.CreateGCP(&core.GCP{Name: "P1", Lat: 95, Lon: 0}))

	_, err := b.GetGCP("P1")
	assert.ErrorIs(t, err, core.ErrGCPNotFound)
}

func TestAddImage_StoresMeta(t *testing.T) {
	b, m := newTestBackend(t)
	require.NoError(t, b.AddImage(&core.Image{Name: "a.png", Width: 640, Height: 480, Format: "png"}))

	var row model.Image
	require.NoError(t, m.DB.First(&row, "name = ?", "a.png").Error)
	assert.Equal(t, "png", row.Meta["format"])
	width, ok := row.Meta["width"].(json.Number)
	require.True(t, ok, "width scanned as %T", row.Meta["width"])
	w, err := width.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(640), w)
}

func TestAddMarker_AssignsUUID(t *testing.T) {
	b, _ := newTestBackend(t)
	require.NoError(t, b.AddImage(&core.Image{Name: "a.png"}))
	require.NoError(t, b.CreateGCP(&core.GCP{Name: "P1"}))

	m := &core.Marker{ImageName: "a.png", GCPName: "P1", X: 1, Y: 2}
	_, err := b.AddMarker(m)
	require.NoError(t, err)
	assert.Len(t, m.UUID, 36)
}
