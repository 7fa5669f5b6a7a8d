package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/geoannot/gcptag/internal/dispatcher"
	"github.com/geoannot/gcptag/internal/status"
)

// Event kinds handled by the downloader.
const (
	KindDownload   = ":CSV:DOWNLOAD:"
	KindDownloaded = ":CSV:DOWNLOADED:"
)

// Status messages
const (
	MsgDownloaded     = "CSV downloaded"
	MsgDownloadFailed = "Error downloading CSV"
)

// DefaultFileName is where the table is saved when no path is given.
const DefaultFileName = "gcps.csv"

// Source streams the exported table.
type Source interface {
	DownloadCSV(ctx context.Context, w io.Writer) (int64, error)
}

// Downloader saves the store's table to a local file.
type Downloader struct {
	source Source
	path   string
	status status.Reporter
	logger *slog.Logger
	d      *dispatcher.Dispatcher
}

type downloadResult struct {
	n   int64
	err error
}

// NewDownloader creates a downloader writing to path, or DefaultFileName
// when path is empty.
func NewDownloader(source Source, path string, reporter status.Reporter, logger *slog.Logger) *Downloader {
	if path == "" {
		path = DefaultFileName
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		source: source,
		path:   path,
		status: reporter,
		logger: logger.With("component", "export"),
	}
}

// RegisterHandlers registers the downloader's event handlers with the dispatcher.
func (dl *Downloader) RegisterHandlers(d *dispatcher.Dispatcher) {
	dl.d = d
	d.Register(KindDownload, dl.handleDownload, dispatcher.Logged())
	d.Register(KindDownloaded, dl.handleDownloaded, dispatcher.Logged())
}

// Download asks the loop to fetch the table.
func (dl *Downloader) Download() error {
	return dl.d.Post(dispatcher.Event{Kind: KindDownload})
}

// Path returns the destination file.
func (dl *Downloader) Path() string {
	return dl.path
}

// Save fetches the table into the destination file. The file is replaced
// only when the whole table arrived.
func (dl *Downloader) Save(ctx context.Context) (int64, error) {
	dir := filepath.Dir(dl.path)
	tmp, err := os.CreateTemp(dir, ".gcps-*.csv")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := dl.source.DownloadCSV(ctx, tmp)
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}

	if err := os.Rename(tmp.Name(), dl.path); err != nil {
		return n, fmt.Errorf("failed to save %s: %w", dl.path, err)
	}
	return n, nil
}

func (dl *Downloader) handleDownload(dispatcher.Event) error {
	return dl.d.Go(context.Background(), KindDownloaded, func(ctx context.Context) any {
		n, err := dl.Save(ctx)
		return downloadResult{n: n, err: err}
	})
}

func (dl *Downloader) handleDownloaded(e dispatcher.Event) error {
	res, ok := e.Payload.(downloadResult)
	if !ok {
		return fmt.Errorf("unexpected payload %T", e.Payload)
	}
	if res.err != nil {
		dl.logger.Error("failed to download CSV", "error", res.err)
		dl.status.Report(MsgDownloadFailed)
		return nil
	}
	dl.logger.Info("CSV saved", "path", dl.path, "bytes", res.n)
	dl.status.Report(MsgDownloaded)
	return nil
}
