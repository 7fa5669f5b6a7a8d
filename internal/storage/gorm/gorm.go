// Package gormstorage implements storage.Backend on top of GORM, for both
// the SQLite and the Postgres dialects.
package gormstorage

import (
	"errors"
	"fmt"

	"github.com/geoannot/gcptag/internal/model"
	"github.com/geoannot/gcptag/pkg/core"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dependencies holds what the backend needs from its owner.
type Dependencies struct {
	DB *gorm.DB
	// Closer releases the connection; optional.
	Closer func() error
	Logger zerolog.Logger
}

// Backend persists GCPs, images and markers through GORM.
type Backend struct {
	db     *gorm.DB
	closer func() error
	log    zerolog.Logger
}

// New creates a GORM backend over an already migrated database.
func New(deps Dependencies) *Backend {
	return &Backend{
		db:     deps.DB,
		closer: deps.Closer,
		log:    deps.Logger.With().Str("component", "storage").Logger(),
	}
}

func (b *Backend) Init() error {
	if b.db == nil {
		return fmt.Errorf("gorm backend: no database")
	}
	return nil
}

func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

func (b *Backend) CreateGCP(g *core.GCP) error {
	row, err := model.GCPFromCore(*g)
	if err != nil {
		return err
	}

	return b.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.GCP{}).Where("name = ?", g.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up GCP: %w", err)
		}
		if count > 0 {
			return core.ErrDuplicateGCP
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create GCP: %w", err)
		}
		g.CreatedAt = row.CreatedAt
		b.log.Debug().Str("gcp", g.Name).Msg("GCP created")
		return nil
	})
}

func (b *Backend) GetGCP(name string) (core.GCP, error) {
	var row model.GCP
	err := b.db.Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.GCP{}, core.ErrGCPNotFound
	}
	if err != nil {
		return core.GCP{}, fmt.Errorf("failed to get GCP: %w", err)
	}
	return row.ToCore(), nil
}

func (b *Backend) GCPs() ([]core.GCP, error) {
	var rows []model.GCP
	if err := b.db.Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list GCPs: %w", err)
	}
	out := make([]core.GCP, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToCore())
	}
	return out, nil
}

func (b *Backend) AddImage(img *core.Image) error {
	row := model.ImageFromCore(*img)
	err := b.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"width", "height", "format", "meta"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

func (b *Backend) HasImage(name string) (bool, error) {
	var count int64
	if err := b.db.Model(&model.Image{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up image: %w", err)
	}
	return count > 0, nil
}

func (b *Backend) Images() ([]core.Image, error) {
	var rows []model.Image
	if err := b.db.Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	out := make([]core.Image, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToCore())
	}
	return out, nil
}

func (b *Backend) AddMarker(m *core.Marker) (uint, error) {
	row := model.MarkerFromCore(*m)
	err := b.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Image{}).Where("name = ?", m.ImageName).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up image: %w", err)
		}
		if count == 0 {
			return core.ErrImageNotFound
		}
		if err := tx.Model(&model.GCP{}).Where("name = ?", m.GCPName).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up GCP: %w", err)
		}
		if count == 0 {
			return core.ErrGCPNotFound
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create marker: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	m.ID = row.ID
	m.UUID = row.UUID
	m.CreatedAt = row.CreatedAt
	return row.ID, nil
}

func (b *Backend) Markers(image string) ([]core.TaggedMarker, error) {
	return b.tagged(b.db.Where("image_name = ?", image))
}

func (b *Backend) AllMarkers() ([]core.TaggedMarker, error) {
	return b.tagged(b.db)
}

// tagged loads the markers selected by q and joins each with its GCP coordinates.
func (b *Backend) tagged(q *gorm.DB) ([]core.TaggedMarker, error) {
	var rows []model.Marker
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list markers: %w", err)
	}
	out := make([]core.TaggedMarker, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	names := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if !seen[r.GCPName] {
			seen[r.GCPName] = true
			names = append(names, r.GCPName)
		}
	}
	var gcps []model.GCP
	if err := b.db.Where("name IN ?", names).Find(&gcps).Error; err != nil {
		return nil, fmt.Errorf("failed to load marker GCPs: %w", err)
	}
	byName := make(map[string]model.GCP, len(gcps))
	for _, g := range gcps {
		byName[g.Name] = g
	}

	for _, r := range rows {
		g := byName[r.GCPName]
		out = append(out, core.TaggedMarker{Marker: r.ToCore(), Lat: g.Lat, Lon: g.Lon})
	}
	return out, nil
}
