package storage

import (
	"fmt"

	"github.com/geoannot/gcptag/internal/config"
	"github.com/geoannot/gcptag/internal/database"
	gormstorage "github.com/geoannot/gcptag/internal/storage/gorm"
	"github.com/geoannot/gcptag/internal/storage/memory"
	"github.com/rs/zerolog"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		m := database.NewManager(log)
		if err := m.ConnectPostgres(); err != nil {
			return nil, err
		}
		return setupGorm(m, log)
	case "sqlite":
		m := database.NewManager(log)
		if err := m.ConnectSqlite(cfg.SQLite.Path); err != nil {
			return nil, err
		}
		return setupGorm(m, log)
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

func setupGorm(m *database.Manager, log zerolog.Logger) (Backend, error) {
	if err := m.Setup(); err != nil {
		_ = m.Close()
		return nil, err
	}
	return gormstorage.New(gormstorage.Dependencies{
		DB:     m.DB,
		Closer: m.Close,
		Logger: log,
	}), nil
}
