package console

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/geoannot/gcptag/internal/api"
	"github.com/geoannot/gcptag/internal/overlay"
	"golang.org/x/sync/errgroup"
)

// RenderSource provides an image and its markers.
type RenderSource interface {
	FetchImage(ctx context.Context, name string) ([]byte, error)
	ListMarkers(ctx context.Context, image string) ([]api.Marker, error)
}

// RenderImage fetches name and its markers concurrently, paints the markers
// over the image and writes the result as PNG to outPath. It returns the
// number of markers drawn.
func RenderImage(ctx context.Context, src RenderSource, name, outPath string) (int, error) {
	var (
		data    []byte
		markers []api.Marker
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data, err = src.FetchImage(gctx, name)
		return err
	})
	g.Go(func() error {
		var err error
		markers, err = src.ListMarkers(gctx, name)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	bounds := img.Bounds()
	raster := overlay.NewRaster(bounds.Dx(), bounds.Dy())
	raster.SetBase(img)

	shown := make([]overlay.Marker, len(markers))
	for i, m := range markers {
		shown[i] = overlay.Marker{X: m.X, Y: m.Y, Label: m.GCPName}
	}
	overlay.NewRenderer(raster).Refresh(shown)

	if err := raster.SavePNG(outPath); err != nil {
		return 0, err
	}
	return len(shown), nil
}
