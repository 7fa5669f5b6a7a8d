package model

import (
	"time"

	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&GCP{},
	&Image{},
	&Marker{},
}

// GCP is a registered ground control point
type GCP struct {
	Name      string     `json:"name" gorm:"primaryKey;size:255"`
	Lat       float64    `json:"lat" gorm:"not null"`
	Lon       float64    `json:"lon" gorm:"not null"`
	Location  geom.Point `json:"location"` // EPSG:3857
	CreatedAt time.Time  `json:"createdAt"`
}

func (*GCP) TableName() string {
	return "gcps"
}

// Image is an uploaded image
type Image struct {
	Name      string            `json:"name" gorm:"primaryKey;size:255"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Format    string            `json:"format" gorm:"size:16"`
	Meta      datatypes.JSONMap `json:"meta"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (*Image) TableName() string {
	return "images"
}

// Marker is one GCP placement on an image
type Marker struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UUID      string    `json:"uuid" gorm:"uniqueIndex;size:36"`
	ImageName string    `json:"imageName" gorm:"index;size:255;not null"`
	GCPName   string    `json:"gcpName" gorm:"size:255;not null"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	CreatedAt time.Time `json:"createdAt"`
}

func (*Marker) TableName() string {
	return "markers"
}

// BeforeCreate assigns a UUID to markers that do not have one yet
func (m *Marker) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == "" {
		m.UUID = uuid.NewString()
	}
	return nil
}
