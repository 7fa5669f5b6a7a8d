package export

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/geoannot/gcptag/internal/dispatcher"
	"github.com/geoannot/gcptag/internal/logging"
	"github.com/geoannot/gcptag/internal/status"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	body string
	err  error
}

func (f fakeSource) DownloadCSV(ctx context.Context, w io.Writer) (int64, error) {
	n, _ := io.WriteString(w, f.body)
	return int64(n), f.err
}

func runDownload(t *testing.T, src Source, path string) *status.Line {
	t.Helper()

	d, err := dispatcher.New(logging.NewDispatcherLogger(zerolog.Nop()), nil)
	require.NoError(t, err)

	line := status.NewLine(nil, nil)
	dl := NewDownloader(src, path, line, nil)
	dl.RegisterHandlers(d)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.NoError(t, dl.Download())
	d.Wait()
	return line
}

func TestDownload_SavesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	table := "Image Name,pixel x,pixel y,latitude,longitude,gcp name\n"

	line := runDownload(t, fakeSource{body: table}, path)

	assert.Equal(t, MsgDownloaded, line.Message())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, table, string(data))
}

func TestDownload_FileIsWorldReadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), DefaultFileName)
	runDownload(t, fakeSource{body: "a\n"}, path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestDownload_FailureKeepsOldFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0644))

	line := runDownload(t, fakeSource{body: "partial", err: errors.New("connection reset")}, path)

	assert.Equal(t, MsgDownloadFailed, line.Message())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestNewDownloader_DefaultPath(t *testing.T) {
	dl := NewDownloader(fakeSource{}, "", status.NewLine(nil, nil), nil)
	assert.Equal(t, DefaultFileName, dl.Path())
}
