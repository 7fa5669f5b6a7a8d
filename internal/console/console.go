// Package console is the line-oriented operator front end: it wires the
// annotation components to a store client and drives them from commands.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/geoannot/gcptag/internal/annotate"
	"github.com/geoannot/gcptag/internal/api"
	"github.com/geoannot/gcptag/internal/catalog"
	"github.com/geoannot/gcptag/internal/config"
	"github.com/geoannot/gcptag/internal/dispatcher"
	"github.com/geoannot/gcptag/internal/export"
	"github.com/geoannot/gcptag/internal/logging"
	"github.com/geoannot/gcptag/internal/overlay"
	"github.com/geoannot/gcptag/internal/registry"
	"github.com/geoannot/gcptag/internal/selection"
	"github.com/geoannot/gcptag/internal/status"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
)

// MsgReady is reported once the initial loads have run.
const MsgReady = "Ready"

const prompt = "> "

// Remote is everything the console needs from the store.
type Remote interface {
	registry.Remote
	catalog.Remote
	annotate.Remote
	export.Source
	Healthcheck(ctx context.Context) error
}

// Config holds the console's collaborators and settings.
type Config struct {
	Remote  Remote
	Display config.DisplayConfig
	// CSVPath is where export saves the table; empty means gcps.csv.
	CSVPath string
	// Selection is shared with the logging context; created when nil.
	Selection        *selection.Store
	Logger           *slog.Logger
	DispatcherLogger dispatcher.Logger
	Meter            metric.Meter
}

type Console struct {
	out  io.Writer
	log  *slog.Logger
	rect annotate.Rect

	remote    Remote
	d         *dispatcher.Dispatcher
	status    *status.Line
	selection *selection.Store
	registry  *registry.Client
	catalog   *catalog.Catalog
	coord     *annotate.Coordinator
	download  *export.Downloader

	gcps   *gcpList
	images *imageList
	pane   *imagePane
	shown  *overlay.Memory

	cancel context.CancelFunc
	done   chan error
	once   sync.Once
}

// New wires every component onto a fresh dispatcher. Output goes to out.
func New(cfg Config, out io.Writer) (*Console, error) {
	if cfg.Remote == nil {
		return nil, errors.New("console: no remote")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Selection == nil {
		cfg.Selection = selection.NewStore()
	}
	if cfg.DispatcherLogger == nil {
		cfg.DispatcherLogger = logging.NewDispatcherLogger(zerolog.Nop())
	}

	d, err := dispatcher.New(cfg.DispatcherLogger, cfg.Meter)
	if err != nil {
		return nil, err
	}

	c := &Console{
		out: out,
		log: cfg.Logger.With("component", "console"),
		rect: annotate.Rect{
			Left:   cfg.Display.Left,
			Top:    cfg.Display.Top,
			Width:  cfg.Display.Width,
			Height: cfg.Display.Height,
		},
		remote:    cfg.Remote,
		d:         d,
		status:    status.NewLine(out, cfg.Logger),
		selection: cfg.Selection,
		gcps:      &gcpList{},
		images:    &imageList{},
		pane:      &imagePane{},
		shown:     overlay.NewMemory(),
	}

	c.registry = registry.New(registry.Dependencies{
		Remote:    cfg.Remote,
		View:      c.gcps,
		Status:    c.status,
		Selection: c.selection,
		Logger:    cfg.Logger,
	})
	c.catalog = catalog.New(cfg.Remote, c.images, c.status, cfg.Logger)
	c.download = export.NewDownloader(cfg.Remote, cfg.CSVPath, c.status, cfg.Logger)
	c.coord, err = annotate.New(annotate.Dependencies{
		Remote:    cfg.Remote,
		Display:   c.pane,
		Renderer:  overlay.NewRenderer(c.shown),
		Selection: c.selection,
		Status:    c.status,
		GCPList:   c.registry,
		Logger:    cfg.Logger,
		Meter:     cfg.Meter,
	})
	if err != nil {
		return nil, err
	}

	c.registry.RegisterHandlers(d)
	c.catalog.RegisterHandlers(d)
	c.download.RegisterHandlers(d)
	c.coord.RegisterHandlers(d)
	return c, nil
}

// Start runs the event loop, performs the initial loads and reports Ready.
func (c *Console) Start(ctx context.Context) error {
	if err := c.remote.Healthcheck(ctx); err != nil {
		c.log.Warn("store unreachable", "error", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan error, 1)
	go func() { c.done <- c.d.Run(runCtx) }()

	if err := c.registry.Load(); err != nil {
		return err
	}
	if err := c.catalog.Load(); err != nil {
		return err
	}
	c.d.Wait()
	c.status.Report(MsgReady)
	return nil
}

// Stop ends the event loop.
func (c *Console) Stop() {
	c.once.Do(func() {
		if c.cancel != nil {
			c.cancel()
			<-c.done
		}
	})
}

// Serve reads commands from in until quit, EOF or ctx is done.
func (c *Console) Serve(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, prompt)
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		quit, err := c.Exec(scanner.Text())
		if err != nil {
			fmt.Fprintln(c.out, "Error:", err)
		}
		if quit {
			return nil
		}
	}
}

// Exec runs one command line and waits until the loop has settled.
func (c *Console) Exec(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		c.printHelp()
	case "status":
		fmt.Fprintln(c.out, c.status.Text())
	case "gcps":
		c.printGCPs()
	case "images":
		c.printImages()
	case "markers":
		c.printMarkers()
	case "gcp":
		err = c.selectGCP(args)
	case "image":
		err = c.selectImage(args)
	case "create":
		err = c.registry.Submit(newArgsForm(args))
	case "click":
		err = c.click(args)
	case "upload":
		err = c.catalog.Upload(args)
	case "export":
		err = c.download.Download()
	case "reload":
		err = errors.Join(c.registry.Load(), c.catalog.Load(), c.coord.Reload())
	default:
		return false, fmt.Errorf("unknown command %q, type help", cmd)
	}

	c.d.Wait()
	return false, err
}

func (c *Console) selectGCP(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: gcp <name>")
	}
	return c.coord.SelectGCP(args[0])
}

func (c *Console) selectImage(args []string) error {
	if len(args) == 0 {
		return c.coord.SelectImage("")
	}
	name := strings.Join(args, " ")
	if !slices.Contains(c.catalog.Images(), name) {
		return fmt.Errorf("unknown image %q", name)
	}
	return c.coord.SelectImage(name)
}

func (c *Console) click(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: click <x> <y>")
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid x: %w", err)
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid y: %w", err)
	}
	return c.coord.Click(annotate.PointerEvent{ClientX: x, ClientY: y}, c.rect)
}

func (c *Console) printGCPs() {
	items := c.gcps.Items()
	if len(items) == 0 {
		fmt.Fprintln(c.out, "No GCPs")
		return
	}
	for _, it := range items {
		mark := " "
		if it.Selected {
			mark = "*"
		}
		fmt.Fprintf(c.out, "%s %s\n", mark, it.Name)
	}
}

func (c *Console) printImages() {
	current := c.selection.Snapshot().CurrentImage
	for _, opt := range c.images.Options() {
		if opt.Disabled {
			continue
		}
		mark := " "
		if opt.Value == current {
			mark = "*"
		}
		fmt.Fprintf(c.out, "%s %s\n", mark, opt.Label)
	}
	if len(c.catalog.Images()) == 0 {
		fmt.Fprintln(c.out, "No images")
	}
}

func (c *Console) printMarkers() {
	name, _ := c.pane.Current()
	if name == "" {
		fmt.Fprintln(c.out, "No image selected")
		return
	}
	markers := c.shown.Markers()
	if len(markers) == 0 {
		fmt.Fprintln(c.out, "No markers")
		return
	}
	for _, m := range markers {
		fmt.Fprintf(c.out, "%s (%s, %s)\n", m.Label, formatCoord(m.X), formatCoord(m.Y))
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `Commands:
  images                 list uploaded images
  image [name]           show an image (no name clears)
  gcps                   list GCPs
  gcp <name>             select the GCP to place
  create <name> <lat> <lon>
                         register a GCP
  click <x> <y>          place the selected GCP
  markers                list markers on the current image
  upload <file>...       upload images
  export                 download the table
  reload                 refetch lists and markers
  status                 show the status line
  quit                   leave
`)
}

// compile-time check that the HTTP client satisfies Remote
var _ Remote = (*api.Client)(nil)
