package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/geoannot/gcptag/pkg/core"
	"github.com/go-chi/chi"
	"github.com/go-chi/render"
)

const (
	errTextInvalidRequest     = "Invalid Request"
	errTextInvalidCoordinates = "Invalid coordinates"
	errTextNoFilePart         = "No file part"
	errTextNoSelectedFile     = "No selected file"
	errTextFileType           = "File type not allowed"
	errTextFileTypeSome       = "File type not allowed for some files"
	errTextNotFound           = "Not found"
	errTextUnexpected         = "Internal Server Error"
)

/* Common */
type HttpErrResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	ErrorText      string `json:"error"`
}

func (e *HttpErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// MessageResponse is the success envelope of every mutating endpoint.
type MessageResponse struct {
	HTTPStatusCode int      `json:"-"`
	Message        string   `json:"message"`
	Filename       string   `json:"filename,omitempty"`
	Filenames      []string `json:"filenames,omitempty"`
}

func (m *MessageResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if m.HTTPStatusCode != 0 {
		render.Status(r, m.HTTPStatusCode)
	}
	return nil
}

func httpErrBadRequest(err error, text string) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		ErrorText:      text,
	}
}

func httpErrInvalidRequest(err error) render.Renderer {
	return httpErrBadRequest(err, errTextInvalidRequest)
}

func httpErrNotFound(err error, text string) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusNotFound,
		ErrorText:      text,
	}
}

func httpErrUnexpected(err error) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		ErrorText:      errTextUnexpected,
	}
}

// httpErrStore maps storage sentinels to their replies.
func httpErrStore(err error) render.Renderer {
	switch {
	case errors.Is(err, core.ErrDuplicateGCP):
		return httpErrBadRequest(err, core.ErrDuplicateGCP.Error())
	case errors.Is(err, core.ErrImageNotFound):
		return httpErrNotFound(err, core.ErrImageNotFound.Error())
	case errors.Is(err, core.ErrGCPNotFound):
		return httpErrNotFound(err, core.ErrGCPNotFound.Error())
	default:
		return httpErrUnexpected(err)
	}
}

// imageParam returns the unescaped {imageName} route parameter.
func imageParam(r *http.Request) string {
	name := chi.URLParam(r, "imageName")
	if r.URL.RawPath == "" {
		return name
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}
