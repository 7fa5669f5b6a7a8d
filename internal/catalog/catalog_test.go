package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/geoannot/gcptag/internal/api"
	"github.com/geoannot/gcptag/internal/dispatcher"
	"github.com/geoannot/gcptag/internal/logging"
	"github.com/geoannot/gcptag/internal/status"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu        sync.Mutex
	images    []string
	listErr   error
	uploadErr error
	uploaded  [][]string
}

func (f *fakeRemote) ListImages(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.images...), nil
}

func (f *fakeRemote) UploadImages(ctx context.Context, paths []string) (api.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, paths)
	if f.uploadErr != nil {
		return api.UploadResult{}, f.uploadErr
	}
	f.images = append(f.images, "a.jpg", "b.png")
	return api.UploadResult{Message: "Files uploaded successfully", Filenames: []string{"a.jpg", "b.png"}}, nil
}

type fakeView struct {
	renders [][]Option
}

func (v *fakeView) Render(options []Option) {
	v.renders = append(v.renders, options)
}

func newTestCatalog(t *testing.T, remote *fakeRemote) (*Catalog, *dispatcher.Dispatcher, *fakeView, *status.Line) {
	t.Helper()

	d, err := dispatcher.New(logging.NewDispatcherLogger(zerolog.Nop()), nil)
	require.NoError(t, err)

	view := &fakeView{}
	line := status.NewLine(nil, nil)
	c := New(remote, view, line, nil)
	c.RegisterHandlers(d)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c, d, view, line
}

func TestLoad_PlaceholderFirst(t *testing.T) {
	c, d, view, line := newTestCatalog(t, &fakeRemote{images: []string{"img1.jpg", "img2.jpg"}})

	require.NoError(t, c.Load())
	d.Wait()

	require.Len(t, view.renders, 1)
	assert.Equal(t, []Option{
		Placeholder,
		{Value: "img1.jpg", Label: "img1.jpg"},
		{Value: "img2.jpg", Label: "img2.jpg"},
	}, view.renders[0])
	assert.Equal(t, MsgLoaded, line.Message())
	assert.Equal(t, []string{"img1.jpg", "img2.jpg"}, c.Images())
}

func TestLoad_FailureRendersPlaceholderOnly(t *testing.T) {
	c, d, view, line := newTestCatalog(t, &fakeRemote{listErr: errors.New("boom")})

	require.NoError(t, c.Load())
	d.Wait()

	require.Len(t, view.renders, 1)
	assert.Equal(t, []Option{Placeholder}, view.renders[0])
	assert.Equal(t, MsgLoadFailed, line.Message())
	assert.Empty(t, c.Images())
}

func TestUpload_NoFiles(t *testing.T) {
	remote := &fakeRemote{}
	c, d, _, line := newTestCatalog(t, remote)

	require.NoError(t, c.Upload(nil))
	d.Wait()

	assert.Equal(t, MsgNoFiles, line.Message())
	assert.Empty(t, remote.uploaded)
}

func TestUpload_SuccessReloads(t *testing.T) {
	remote := &fakeRemote{}
	c, d, view, line := newTestCatalog(t, remote)

	require.NoError(t, c.Upload([]string{"/tmp/a.jpg", "/tmp/b.png"}))
	d.Wait()

	assert.Equal(t, [][]string{{"/tmp/a.jpg", "/tmp/b.png"}}, remote.uploaded)
	require.Len(t, view.renders, 1)
	assert.Len(t, view.renders[0], 3)
	assert.Equal(t, MsgLoaded, line.Message())
}

func TestUpload_ReportsFilenames(t *testing.T) {
	remote := &fakeRemote{}
	c, d, _, line := newTestCatalog(t, remote)
	// the reload overwrites the line, so record every report
	var got []string
	c.status = reporterFunc(func(msg string) {
		got = append(got, msg)
		line.Report(msg)
	})

	require.NoError(t, c.Upload([]string{"a.jpg"}))
	d.Wait()

	require.NotEmpty(t, got)
	assert.Equal(t, "Files uploaded: a.jpg, b.png", got[0])
}

func TestUpload_RemoteError(t *testing.T) {
	remote := &fakeRemote{uploadErr: &api.RemoteError{Status: 400, Message: "File type not allowed for some files"}}
	c, d, view, line := newTestCatalog(t, remote)

	require.NoError(t, c.Upload([]string{"notes.txt"}))
	d.Wait()

	assert.Equal(t, "File type not allowed for some files", line.Message())
	assert.Empty(t, view.renders)
}

func TestUpload_TransportError(t *testing.T) {
	remote := &fakeRemote{uploadErr: errors.New("reset by peer")}
	c, d, _, line := newTestCatalog(t, remote)

	require.NoError(t, c.Upload([]string{"a.jpg"}))
	d.Wait()

	assert.Equal(t, MsgUploadFailed, line.Message())
}

type reporterFunc func(string)

func (f reporterFunc) Report(msg string) { f(msg) }
