// Package annotate places GCP markers on the current image and keeps the
// overlay in step with the store.
package annotate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geoannot/gcptag/internal/api"
	"github.com/geoannot/gcptag/internal/dispatcher"
	"github.com/geoannot/gcptag/internal/overlay"
	"github.com/geoannot/gcptag/internal/selection"
	"github.com/geoannot/gcptag/internal/status"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/geoannot/gcptag/internal/annotate"

// Event kinds handled by the coordinator.
const (
	KindSelectGCP     = ":SELECT:GCP:"
	KindSelectImage   = ":SELECT:IMAGE:"
	KindClick         = ":CLICK:"
	KindReload        = ":MARKERS:LOAD:"
	KindMarkersLoaded = ":MARKERS:LOADED:"
	KindMarkerAdded   = ":MARKER:ADDED:"
)

// Status messages
const (
	MsgGCPSelected   = "GCP selected"
	MsgImageLoaded   = "Image loaded"
	MsgNoImage       = "No image selected"
	MsgNotReady      = "Please select a GCP and an image first"
	MsgOutside       = "Click is outside the image"
	MsgAdded         = "GCP added to image"
	MsgAddFailed     = "Error adding GCP"
	MsgMarkersFailed = "Error loading GCPs for image"
)

// Remote is the part of the store the coordinator talks to.
type Remote interface {
	ListMarkers(ctx context.Context, image string) ([]api.Marker, error)
	AddMarker(ctx context.Context, req api.AddMarkerRequest) (string, error)
	ImageURL(name string) string
}

// Display shows the current image.
type Display interface {
	ShowImage(name, src string)
	ClearImage()
}

// Highlighter re-renders the GCP list with one entry selected.
type Highlighter interface {
	Highlight(selected string)
}

// PointerEvent is a click in client coordinates.
type PointerEvent struct {
	ClientX float64
	ClientY float64
}

// Rect is where the image is rendered, in client coordinates. A zero
// Width or Height means that extent is unknown.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Dependencies holds everything the coordinator needs
type Dependencies struct {
	Remote    Remote
	Display   Display
	Renderer  *overlay.Renderer
	Selection *selection.Store
	Status    status.Reporter
	GCPList   Highlighter
	Logger    *slog.Logger
	// Meter defaults to the global OTel meter.
	Meter metric.Meter
}

// Coordinator runs the image-change and click-to-place protocols. Its
// handlers run on the dispatcher loop.
type Coordinator struct {
	deps  Dependencies
	d     *dispatcher.Dispatcher
	seq   uint64
	stale metric.Int64Counter
}

type click struct {
	ev   PointerEvent
	rect Rect
}

type markersResult struct {
	ticket  selection.Ticket
	markers []api.Marker
	err     error
}

type addResult struct {
	seq uint64
	req api.AddMarkerRequest
	msg string
	err error
}

// New creates a coordinator.
func New(deps Dependencies) (*Coordinator, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	deps.Logger = deps.Logger.With("component", "annotate")
	if deps.Meter == nil {
		deps.Meter = otel.Meter(instrumentationName)
	}

	stale, err := deps.Meter.Int64Counter(
		"annotate.responses.stale",
		metric.WithDescription("Marker fetches discarded because a newer one was issued or the image changed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stale counter: %w", err)
	}

	return &Coordinator{deps: deps, stale: stale}, nil
}

// RegisterHandlers registers the coordinator's event handlers with the dispatcher.
func (c *Coordinator) RegisterHandlers(d *dispatcher.Dispatcher) {
	c.d = d
	d.Register(KindSelectGCP, c.handleSelectGCP, dispatcher.Logged())
	d.Register(KindSelectImage, c.handleSelectImage, dispatcher.Logged())
	d.Register(KindClick, c.handleClick, dispatcher.Logged())
	d.Register(KindReload, c.handleReload, dispatcher.Logged())
	d.Register(KindMarkersLoaded, c.handleMarkersLoaded, dispatcher.Logged())
	d.Register(KindMarkerAdded, c.handleMarkerAdded, dispatcher.Logged())
}

// SelectGCP makes name the GCP that clicks place.
func (c *Coordinator) SelectGCP(name string) error {
	return c.d.Post(dispatcher.Event{Kind: KindSelectGCP, Payload: name})
}

// SelectImage makes id the current image. An empty id selects nothing.
func (c *Coordinator) SelectImage(id string) error {
	return c.d.Post(dispatcher.Event{Kind: KindSelectImage, Payload: id})
}

// Click places the selected GCP where ev lands inside rect.
func (c *Coordinator) Click(ev PointerEvent, rect Rect) error {
	return c.d.Post(dispatcher.Event{Kind: KindClick, Payload: click{ev: ev, rect: rect}})
}

// Reload refetches the markers of the current image.
func (c *Coordinator) Reload() error {
	return c.d.Post(dispatcher.Event{Kind: KindReload})
}

func (c *Coordinator) handleSelectGCP(e dispatcher.Event) error {
	name, _ := e.Payload.(string)
	c.deps.Selection.Dispatch(selection.SelectGCP{Name: name})
	if c.deps.GCPList != nil {
		c.deps.GCPList.Highlight(name)
	}
	c.deps.Status.Report(MsgGCPSelected)
	return nil
}

func (c *Coordinator) handleSelectImage(e dispatcher.Event) error {
	id, _ := e.Payload.(string)
	c.deps.Selection.Dispatch(selection.SetCurrentImage{ID: id})

	if id == "" {
		c.deps.Display.ClearImage()
		c.deps.Renderer.Refresh(nil)
		c.deps.Status.Report(MsgNoImage)
		return nil
	}

	c.deps.Display.ShowImage(id, c.deps.Remote.ImageURL(id))
	c.deps.Status.Report(MsgImageLoaded)
	return c.loadMarkers(id)
}

func (c *Coordinator) handleReload(dispatcher.Event) error {
	image := c.deps.Selection.Snapshot().CurrentImage
	if image == "" {
		c.deps.Status.Report(MsgNoImage)
		return nil
	}
	return c.loadMarkers(image)
}

// loadMarkers fetches the marker set of image under a fresh ticket.
func (c *Coordinator) loadMarkers(image string) error {
	ticket := c.deps.Selection.Issue(image)
	remote := c.deps.Remote
	return c.d.Go(context.Background(), KindMarkersLoaded, func(ctx context.Context) any {
		markers, err := remote.ListMarkers(ctx, image)
		return markersResult{ticket: ticket, markers: markers, err: err}
	})
}

func (c *Coordinator) handleMarkersLoaded(e dispatcher.Event) error {
	res, ok := e.Payload.(markersResult)
	if !ok {
		return fmt.Errorf("unexpected payload %T", e.Payload)
	}

	if !c.deps.Selection.Current(res.ticket) {
		c.deps.Logger.Debug("discarding stale markers",
			"image", res.ticket.Image, "generation", res.ticket.Gen, "error", res.err)
		c.stale.Add(context.Background(), 1)
		return nil
	}

	if res.err != nil {
		c.deps.Logger.Error("failed to load markers", "image", res.ticket.Image, "error", res.err)
		c.deps.Status.Report(MsgMarkersFailed)
		return nil
	}

	markers := make([]overlay.Marker, len(res.markers))
	for i, m := range res.markers {
		markers[i] = overlay.Marker{X: m.X, Y: m.Y, Label: m.GCPName}
	}
	c.deps.Renderer.Refresh(markers)
	return nil
}

func (c *Coordinator) handleClick(e dispatcher.Event) error {
	cl, ok := e.Payload.(click)
	if !ok {
		return fmt.Errorf("unexpected payload %T", e.Payload)
	}

	snap := c.deps.Selection.Snapshot()
	if !snap.Ready() {
		c.deps.Status.Report(MsgNotReady)
		return nil
	}

	x := cl.ev.ClientX - cl.rect.Left
	y := cl.ev.ClientY - cl.rect.Top
	if x < 0 || y < 0 || (cl.rect.Width > 0 && x > cl.rect.Width) || (cl.rect.Height > 0 && y > cl.rect.Height) {
		c.deps.Status.Report(MsgOutside)
		return nil
	}

	c.seq++
	req := api.AddMarkerRequest{ImageName: snap.CurrentImage, X: x, Y: y, GCPName: snap.SelectedGCP}
	seq := c.seq
	c.deps.Logger.Info("submitting marker", "seq", seq, "image", req.ImageName, "gcp", req.GCPName, "x", x, "y", y)

	remote := c.deps.Remote
	return c.d.Go(context.Background(), KindMarkerAdded, func(ctx context.Context) any {
		msg, err := remote.AddMarker(ctx, req)
		return addResult{seq: seq, req: req, msg: msg, err: err}
	})
}

func (c *Coordinator) handleMarkerAdded(e dispatcher.Event) error {
	res, ok := e.Payload.(addResult)
	if !ok {
		return fmt.Errorf("unexpected payload %T", e.Payload)
	}

	if res.err != nil {
		if remote, ok := api.IsRemote(res.err); ok {
			c.deps.Logger.Warn("marker rejected", "seq", res.seq, "message", remote.Message)
			c.deps.Status.Report(remote.Message)
			return nil
		}
		c.deps.Logger.Error("failed to add marker", "seq", res.seq, "error", res.err)
		c.deps.Status.Report(MsgAddFailed)
		return nil
	}

	c.deps.Logger.Info("marker added", "seq", res.seq, "message", res.msg)
	c.deps.Status.Report(MsgAdded)

	current := c.deps.Selection.Snapshot().CurrentImage
	if current == "" {
		return nil
	}
	return c.loadMarkers(current)
}
