package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/geoannot/gcptag/internal/config"
	"github.com/geoannot/gcptag/internal/storage"
	gormstorage "github.com/geoannot/gcptag/internal/storage/gorm"
	"github.com/geoannot/gcptag/internal/storage/memory"
	"github.com/geoannot/gcptag/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.Backend = (*memory.Backend)(nil)
	_ storage.Backend = (*gormstorage.Backend)(nil)
)

func TestNewBackend_Memory(t *testing.T) {
	for _, typ := range []string{"memory", ""} {
		b, err := storage.NewBackend(config.StorageConfig{Type: typ}, zerolog.Nop())
		require.NoError(t, err)
		assert.IsType(t, &memory.Backend{}, b)
	}
}

func TestNewBackend_Sqlite(t *testing.T) {
	cfg := config.StorageConfig{Type: "sqlite"}
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "store.db")

	b, err := storage.NewBackend(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.CreateGCP(&core.GCP{Name: "P1", Lat: 12.5, Lon: 45}))
	gcps, err := b.GCPs()
	require.NoError(t, err)
	require.Len(t, gcps, 1)
	assert.Equal(t, "P1", gcps[0].Name)
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := storage.NewBackend(config.StorageConfig{Type: "redis"}, zerolog.Nop())
	assert.EqualError(t, err, "unknown storage type: redis")
}
