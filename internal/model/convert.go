package model

import (
	"github.com/geoannot/gcptag/internal/geo"
	"github.com/geoannot/gcptag/pkg/core"
)

// GCPFromCore builds a GCP row, projecting its location to EPSG:3857.
func GCPFromCore(g core.GCP) (GCP, error) {
	loc, err := geo.Point3857From4326(g.Lon, g.Lat)
	if err != nil {
		return GCP{}, err
	}
	return GCP{
		Name:      g.Name,
		Lat:       g.Lat,
		Lon:       g.Lon,
		Location:  loc,
		CreatedAt: g.CreatedAt,
	}, nil
}

func (g GCP) ToCore() core.GCP {
	return core.GCP{Name: g.Name, Lat: g.Lat, Lon: g.Lon, CreatedAt: g.CreatedAt}
}

// ImageFromCore builds an Image row. format, width and height are copied
// into the metadata column as well.
func ImageFromCore(img core.Image) Image {
	return Image{
		Name:   img.Name,
		Width:  img.Width,
		Height: img.Height,
		Format: img.Format,
		Meta: map[string]interface{}{
			"width":  img.Width,
			"height": img.Height,
			"format": img.Format,
		},
		CreatedAt: img.CreatedAt,
	}
}

func (i Image) ToCore() core.Image {
	return core.Image{Name: i.Name, Width: i.Width, Height: i.Height, Format: i.Format, CreatedAt: i.CreatedAt}
}

func MarkerFromCore(m core.Marker) Marker {
	return Marker{
		ID:        m.ID,
		UUID:      m.UUID,
		ImageName: m.ImageName,
		GCPName:   m.GCPName,
		X:         m.X,
		Y:         m.Y,
		CreatedAt: m.CreatedAt,
	}
}

func (m Marker) ToCore() core.Marker {
	return core.Marker{
		ID:        m.ID,
		UUID:      m.UUID,
		ImageName: m.ImageName,
		GCPName:   m.GCPName,
		X:         m.X,
		Y:         m.Y,
		CreatedAt: m.CreatedAt,
	}
}
