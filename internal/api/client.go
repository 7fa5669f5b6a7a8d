package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// RequestIDHeader carries a fresh uuid on every request.
const RequestIDHeader = "X-Request-ID"

// RemoteError is a failure the store reported in an error field. Message
// is meant to be shown to the operator as is.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// IsRemote returns the RemoteError wrapped in err, if any.
func IsRemote(err error) (*RemoteError, bool) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote, true
	}
	return nil, false
}

// Marker is one placement as listed by the store.
type Marker struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	GCPName string  `json:"gcp_name"`
}

// AddMarkerRequest is the body of a marker submission.
type AddMarkerRequest struct {
	ImageName string  `json:"image_name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	GCPName   string  `json:"gcp_name"`
}

// CreateGCPRequest is the body of a GCP registration.
type CreateGCPRequest struct {
	Name string  `json:"gcp_name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// UploadResult is the store's reply to an upload.
type UploadResult struct {
	Message   string   `json:"message"`
	Filename  string   `json:"filename,omitempty"`
	Filenames []string `json:"filenames,omitempty"`
}

// reply is the envelope of every mutating endpoint.
type reply struct {
	Message string  `json:"message"`
	Error   *string `json:"error"`
}

// Client talks to the GCP store over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client. A zero timeout means DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the store address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Healthcheck checks if the store is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthcheck", nil, "")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// ListGCPs returns every registered GCP keyed by name. Records are opaque.
func (c *Client) ListGCPs(ctx context.Context) (map[string]json.RawMessage, error) {
	var out map[string]json.RawMessage
	if err := c.getJSON(ctx, "/get_all_gcps", &out); err != nil {
		return nil, fmt.Errorf("list gcps: %w", err)
	}
	if out == nil {
		out = map[string]json.RawMessage{}
	}
	return out, nil
}

// CreateGCP registers a named GCP and returns the store's message.
func (c *Client) CreateGCP(ctx context.Context, name string, lat, lon float64) (string, error) {
	msg, err := c.postJSON(ctx, "/create_gcp", CreateGCPRequest{Name: name, Lat: lat, Lon: lon})
	if err != nil {
		return "", fmt.Errorf("create gcp: %w", err)
	}
	return msg, nil
}

// ListImages returns the uploaded image identifiers in store order.
func (c *Client) ListImages(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.getJSON(ctx, "/images", &out); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return out, nil
}

// ImageURL returns the address the image bytes are served from.
func (c *Client) ImageURL(name string) string {
	return c.baseURL + "/uploads/" + url.PathEscape(name)
}

// FetchImage downloads the bytes of an uploaded image.
func (c *Client) FetchImage(ctx context.Context, name string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/uploads/"+url.PathEscape(name), nil, "")
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	return data, nil
}

// AddMarker submits one placement and returns the store's message.
func (c *Client) AddMarker(ctx context.Context, req AddMarkerRequest) (string, error) {
	msg, err := c.postJSON(ctx, "/add_gcp", req)
	if err != nil {
		return "", fmt.Errorf("add marker: %w", err)
	}
	return msg, nil
}

// ListMarkers returns every placement on image. Unknown images yield an
// empty list.
func (c *Client) ListMarkers(ctx context.Context, image string) ([]Marker, error) {
	var out []Marker
	if err := c.getJSON(ctx, "/get_gcps/"+url.PathEscape(image), &out); err != nil {
		return nil, fmt.Errorf("list markers: %w", err)
	}
	return out, nil
}

// DownloadCSV streams the exported table into w.
func (c *Client) DownloadCSV(ctx context.Context, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, "/download_csv", nil, "")
	if err != nil {
		return 0, fmt.Errorf("download csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download csv: unexpected status %d", resp.StatusCode)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download csv: %w", err)
	}
	return n, nil
}

// UploadImages sends files as repeated "files" parts.
func (c *Client) UploadImages(ctx context.Context, paths []string) (UploadResult, error) {
	res, err := c.upload(ctx, "/upload_multiple", "files", paths)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload images: %w", err)
	}
	return res, nil
}

// UploadImage sends a single file as the "file" part.
func (c *Client) UploadImage(ctx context.Context, path string) (UploadResult, error) {
	res, err := c.upload(ctx, "/upload", "file", []string{path})
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload image: %w", err)
	}
	return res, nil
}

func (c *Client) upload(ctx context.Context, path, field string, files []string) (UploadResult, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	// Write parts in a goroutine so large images are streamed
	go func() {
		err := writeParts(writer, field, files)
		if cerr := writer.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	resp, err := c.do(ctx, http.MethodPost, path, pr, writer.FormDataContentType())
	if err != nil {
		pr.CloseWithError(err)
		return UploadResult{}, err
	}
	defer resp.Body.Close()

	var res UploadResult
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return UploadResult{}, err
	}
	if err := decodeReply(resp.StatusCode, body); err != nil {
		return UploadResult{}, err
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return UploadResult{}, fmt.Errorf("invalid response: %w", err)
	}
	return res, nil
}

func writeParts(writer *multipart.Writer, field string, files []string) error {
	for _, p := range files {
		if err := writePart(writer, field, p); err != nil {
			return err
		}
	}
	return nil
}

func writePart(writer *multipart.Writer, field, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.httpClient.Do(req)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		if err := decodeReply(resp.StatusCode, body); err != nil {
			return err
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in any) (string, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if err := decodeReply(resp.StatusCode, body); err != nil {
		return "", err
	}

	var r reply
	_ = json.Unmarshal(body, &r)
	return r.Message, nil
}

// decodeReply turns an error field into a RemoteError. Bodies that are
// not JSON, and non-2xx statuses without an error field, are transport
// failures.
func decodeReply(status int, body []byte) error {
	var r reply
	if err := json.Unmarshal(body, &r); err != nil {
		return fmt.Errorf("invalid response (status %d): %w", status, err)
	}
	if r.Error != nil {
		return &RemoteError{Status: status, Message: *r.Error}
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("unexpected status %d", status)
	}
	return nil
}
