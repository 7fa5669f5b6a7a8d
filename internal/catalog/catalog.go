// Package catalog lists and uploads images.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/geoannot/gcptag/internal/api"
	"github.com/geoannot/gcptag/internal/dispatcher"
	"github.com/geoannot/gcptag/internal/status"
)

// Event kinds handled by the catalog.
const (
	KindLoad     = ":IMAGES:LOAD:"
	KindLoaded   = ":IMAGES:LOADED:"
	KindUpload   = ":IMAGES:UPLOAD:"
	KindUploaded = ":IMAGES:UPLOADED:"
)

// Status messages
const (
	MsgLoaded       = "Image list loaded"
	MsgLoadFailed   = "Error loading images"
	MsgNoFiles      = "No files selected"
	MsgUploadFailed = "Error uploading files"
)

// Placeholder is the first, non-selectable entry of the image list.
// Choosing it means no image.
var Placeholder = Option{Value: "", Label: "Select an Image", Disabled: true}

// Remote is the part of the store the catalog talks to.
type Remote interface {
	ListImages(ctx context.Context) ([]string, error)
	UploadImages(ctx context.Context, paths []string) (api.UploadResult, error)
}

// Option is one entry of the image list.
type Option struct {
	Value    string
	Label    string
	Disabled bool
}

// View displays the image list. Each call replaces the whole list.
type View interface {
	Render(options []Option)
}

// Catalog owns the image list. Its handlers run on the dispatcher loop.
type Catalog struct {
	remote Remote
	view   View
	status status.Reporter
	logger *slog.Logger
	d      *dispatcher.Dispatcher

	images []string
}

type loadResult struct {
	images []string
	err    error
}

type uploadResult struct {
	res api.UploadResult
	err error
}

func New(remote Remote, view View, reporter status.Reporter, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		remote: remote,
		view:   view,
		status: reporter,
		logger: logger.With("component", "catalog"),
	}
}

// RegisterHandlers registers the catalog's event handlers with the dispatcher.
func (c *Catalog) RegisterHandlers(d *dispatcher.Dispatcher) {
	c.d = d
	d.Register(KindLoad, c.handleLoad, dispatcher.Logged())
	d.Register(KindLoaded, c.handleLoaded, dispatcher.Logged())
	d.Register(KindUpload, c.handleUpload, dispatcher.Logged())
	d.Register(KindUploaded, c.handleUploaded, dispatcher.Logged())
}

// Load asks the loop to refetch the image list.
func (c *Catalog) Load() error {
	return c.d.Post(dispatcher.Event{Kind: KindLoad})
}

// Upload sends the files at paths to the store.
func (c *Catalog) Upload(paths []string) error {
	return c.d.Post(dispatcher.Event{Kind: KindUpload, Payload: paths})
}

// Images returns the identifiers from the last successful load. Must run
// on the loop.
func (c *Catalog) Images() []string {
	out := make([]string, len(c.images))
	copy(out, c.images)
	return out
}

func (c *Catalog) handleLoad(dispatcher.Event) error {
	return c.startLoad()
}

func (c *Catalog) startLoad() error {
	remote := c.remote
	return c.d.Go(context.Background(), KindLoaded, func(ctx context.Context) any {
		images, err := remote.ListImages(ctx)
		return loadResult{images: images, err: err}
	})
}

func (c *Catalog) handleLoaded(e dispatcher.Event) error {
	res, ok := e.Payload.(loadResult)
	if !ok {
		return fmt.Errorf("unexpected payload %T", e.Payload)
	}

	if res.err != nil {
		c.logger.Error("failed to load images", "error", res.err)
		c.images = nil
		c.view.Render([]Option{Placeholder})
		c.status.Report(MsgLoadFailed)
		return nil
	}

	c.images = res.images
	options := make([]Option, 0, len(res.images)+1)
	options = append(options, Placeholder)
	for _, img := range res.images {
		options = append(options, Option{Value: img, Label: img})
	}
	c.view.Render(options)
	c.status.Report(MsgLoaded)
	return nil
}

func (c *Catalog) handleUpload(e dispatcher.Event) error {
	paths, _ := e.Payload.([]string)
	if len(paths) == 0 {
		c.status.Report(MsgNoFiles)
		return nil
	}

	remote := c.remote
	return c.d.Go(context.Background(), KindUploaded, func(ctx context.Context) any {
		res, err := remote.UploadImages(ctx, paths)
		return uploadResult{res: res, err: err}
	})
}

func (c *Catalog) handleUploaded(e dispatcher.Event) error {
	res, ok := e.Payload.(uploadResult)
	if !ok {
		return fmt.Errorf("unexpected payload %T", e.Payload)
	}
	if res.err != nil {
		if remote, ok := api.IsRemote(res.err); ok {
			c.status.Report(remote.Message)
			return nil
		}
		c.logger.Error("failed to upload images", "error", res.err)
		c.status.Report(MsgUploadFailed)
		return nil
	}

	c.status.Report("Files uploaded: " + strings.Join(res.res.Filenames, ", "))
	return c.startLoad()
}
