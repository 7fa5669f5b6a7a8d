// Package registry keeps the operator's GCP list in step with the store.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/geoannot/gcptag/internal/api"
	"github.com/geoannot/gcptag/internal/cache"
	"github.com/geoannot/gcptag/internal/dispatcher"
	"github.com/geoannot/gcptag/internal/geo"
	"github.com/geoannot/gcptag/internal/selection"
	"github.com/geoannot/gcptag/internal/status"
)

// Event kinds handled by the registry.
const (
	KindLoad    = ":GCPS:LOAD:"
	KindLoaded  = ":GCPS:LOADED:"
	KindCreate  = ":GCP:CREATE:"
	KindSubmit  = ":GCP:SUBMIT:"
	KindCreated = ":GCP:CREATED:"
)

// Status messages
const (
	MsgLoaded       = "GCPs loaded"
	MsgLoadFailed   = "Error loading GCPs"
	MsgCreateFailed = "Error creating GCP"
	MsgIncomplete   = "Please enter a GCP name, latitude, and longitude."
)

// Remote is the part of the store the registry talks to.
type Remote interface {
	ListGCPs(ctx context.Context) (map[string]json.RawMessage, error)
	CreateGCP(ctx context.Context, name string, lat, lon float64) (string, error)
}

// Item is one rendered GCP list entry.
type Item struct {
	Name     string
	Selected bool
}

// View displays the GCP list. Each call replaces the whole list.
type View interface {
	Render(items []Item)
}

// Form is the create-GCP input form.
type Form interface {
	Values() (name, lat, lon string)
	Clear()
}

// Dependencies holds everything the registry needs
type Dependencies struct {
	Remote    Remote
	Cache     *cache.GCPCache
	View      View
	Status    status.Reporter
	Selection *selection.Store
	Logger    *slog.Logger
}

// Client owns the GCP list. Its handlers run on the dispatcher loop.
type Client struct {
	deps Dependencies
	d    *dispatcher.Dispatcher
}

type createRequest struct {
	name     string
	lat, lon float64
	form     Form
}

type loadResult struct {
	gcps map[string]json.RawMessage
	err  error
}

type createResult struct {
	req createRequest
	msg string
	err error
}

// New creates a registry client. Nil cache, selection or logger fields get
// defaults.
func New(deps Dependencies) *Client {
	if deps.Cache == nil {
		deps.Cache = cache.NewGCPCache()
	}
	if deps.Selection == nil {
		deps.Selection = selection.NewStore()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	deps.Logger = deps.Logger.With("component", "registry")
	return &Client{deps: deps}
}

// RegisterHandlers registers the registry's event handlers with the dispatcher.
func (c *Client) RegisterHandlers(d *dispatcher.Dispatcher) {
	c.d = d
	d.Register(KindLoad, c.handleLoad, dispatcher.Logged())
	d.Register(KindLoaded, c.handleLoaded, dispatcher.Logged())
	d.Register(KindCreate, c.handleCreate, dispatcher.Logged())
	d.Register(KindSubmit, c.handleSubmit, dispatcher.Logged())
	d.Register(KindCreated, c.handleCreated, dispatcher.Logged())
}

// Load asks the loop to refetch the GCP list.
func (c *Client) Load() error {
	return c.d.Post(dispatcher.Event{Kind: KindLoad})
}

// Create registers a GCP from already parsed values.
func (c *Client) Create(name string, lat, lon float64) error {
	return c.d.Post(dispatcher.Event{Kind: KindCreate, Payload: createRequest{name: name, lat: lat, lon: lon}})
}

// Submit registers a GCP from the raw form values. The form is cleared
// only when the store accepts it.
func (c *Client) Submit(form Form) error {
	return c.d.Post(dispatcher.Event{Kind: KindSubmit, Payload: form})
}

// Names returns the names from the last successful load.
func (c *Client) Names() []string {
	return c.deps.Cache.Names()
}

// Highlight re-renders the list from the cache with only selected marked.
// Must run on the loop.
func (c *Client) Highlight(selected string) {
	names := c.deps.Cache.Names()
	items := make([]Item, len(names))
	for i, name := range names {
		items[i] = Item{Name: name, Selected: name == selected}
	}
	c.deps.View.Render(items)
}

func (c *Client) handleLoad(dispatcher.Event) error {
	return c.startLoad()
}

func (c *Client) startLoad() error {
	remote := c.deps.Remote
	return c.d.Go(context.Background(), KindLoaded, func(ctx context.Context) any {
		gcps, err := remote.ListGCPs(ctx)
		return loadResult{gcps: gcps, err: err}
	})
}

func (c *Client) handleLoaded(e dispatcher.Event) error {
	res, ok := e.Payload.(loadResult)
	if !ok {
		return fmt.Errorf("unexpected payload %T", e.Payload)
	}
	if res.err != nil {
		c.deps.Logger.Error("failed to load GCPs", "error", res.err)
		c.deps.Status.Report(MsgLoadFailed)
		return nil
	}

	c.deps.Cache.Replace(res.gcps)
	c.Highlight(c.deps.Selection.Snapshot().SelectedGCP)
	c.deps.Status.Report(MsgLoaded)
	return nil
}

func (c *Client) handleCreate(e dispatcher.Event) error {
	req, ok := e.Payload.(createRequest)
	if !ok {
		return fmt.Errorf("unexpected payload %T", e.Payload)
	}
	if req.name == "" || !geo.IsFinite(req.lat) || !geo.IsFinite(req.lon) {
		c.deps.Status.Report(MsgIncomplete)
		return nil
	}
	return c.startCreate(req)
}

func (c *Client) handleSubmit(e dispatcher.Event) error {
	form, ok := e.Payload.(Form)
	if !ok {
		return fmt.Errorf("unexpected payload %T", e.Payload)
	}

	name, latText, lonText := form.Values()
	lat, lon, err := geo.ParseLatLon(latText, lonText)
	if name == "" || err != nil {
		c.deps.Status.Report(MsgIncomplete)
		return nil
	}
	return c.startCreate(createRequest{name: name, lat: lat, lon: lon, form: form})
}

func (c *Client) startCreate(req createRequest) error {
	remote := c.deps.Remote
	return c.d.Go(context.Background(), KindCreated, func(ctx context.Context) any {
		msg, err := remote.CreateGCP(ctx, req.name, req.lat, req.lon)
		return createResult{req: req, msg: msg, err: err}
	})
}

func (c *Client) handleCreated(e dispatcher.Event) error {
	res, ok := e.Payload.(createResult)
	if !ok {
		return fmt.Errorf("unexpected payload %T", e.Payload)
	}
	if res.err != nil {
		if remote, ok := api.IsRemote(res.err); ok {
			c.deps.Status.Report(remote.Message)
			return nil
		}
		c.deps.Logger.Error("failed to create GCP", "gcp", res.req.name, "error", res.err)
		c.deps.Status.Report(MsgCreateFailed)
		return nil
	}

	c.deps.Logger.Info("GCP created", "gcp", res.req.name)
	c.deps.Status.Report(res.msg)
	if res.req.form != nil {
		res.req.form.Clear()
	}
	return c.startLoad()
}
