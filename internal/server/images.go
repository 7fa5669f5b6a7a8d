package server

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/geoannot/gcptag/internal/util"
	"github.com/geoannot/gcptag/pkg/core"
	"github.com/go-chi/render"
)

// AllowedFile reports whether name carries one of the accepted image extensions.
func AllowedFile(name string) bool {
	return util.AllowedImage(name)
}

// cleanName rejects anything that is not a plain file name.
func cleanName(name string) (string, bool) {
	base := filepath.Base(name)
	if base != name || base == "." || base == ".." || base == string(filepath.Separator) || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return base, true
}

func (s *Server) apiImageGetAll(w http.ResponseWriter, r *http.Request) {
	images, err := s.store.Images()
	if err != nil {
		s.log.Error("failed to list images", "error", err)
		render.Render(w, r, httpErrUnexpected(err))
		return
	}

	names := make([]string, 0, len(images))
	for _, img := range images {
		names = append(names, img.Name)
	}
	render.JSON(w, r, names)
}

func (s *Server) apiImageServe(w http.ResponseWriter, r *http.Request) {
	name, ok := cleanName(imageParam(r))
	if !ok {
		render.Render(w, r, httpErrNotFound(nil, errTextNotFound))
		return
	}
	path := filepath.Join(s.cfg.UploadsDir, name)
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		render.Render(w, r, httpErrNotFound(err, errTextNotFound))
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) apiImageUpload(w http.ResponseWriter, r *http.Request) {
	files, ok := s.parseFiles(w, r, "file")
	if !ok {
		return
	}
	fh := files[0]
	if fh.Filename == "" {
		render.Render(w, r, httpErrBadRequest(nil, errTextNoSelectedFile))
		return
	}
	if !AllowedFile(fh.Filename) {
		render.Render(w, r, httpErrBadRequest(nil, errTextFileType))
		return
	}

	name, err := s.saveUpload(fh)
	if err != nil {
		s.log.Error("failed to save upload", "file", fh.Filename, "error", err)
		render.Render(w, r, httpErrUnexpected(err))
		return
	}
	render.Render(w, r, &MessageResponse{Message: "File uploaded successfully", Filename: name})
}

func (s *Server) apiImageUploadMultiple(w http.ResponseWriter, r *http.Request) {
	files, ok := s.parseFiles(w, r, "files")
	if !ok {
		return
	}
	// Validate every part before writing any of them.
	for _, fh := range files {
		if !AllowedFile(fh.Filename) {
			render.Render(w, r, httpErrBadRequest(nil, errTextFileTypeSome))
			return
		}
	}

	names := make([]string, 0, len(files))
	for _, fh := range files {
		name, err := s.saveUpload(fh)
		if err != nil {
			s.log.Error("failed to save upload", "file", fh.Filename, "error", err)
			render.Render(w, r, httpErrUnexpected(err))
			return
		}
		names = append(names, name)
	}
	render.Render(w, r, &MessageResponse{Message: "Files uploaded successfully", Filenames: names})
}

// parseFiles returns the file parts named field, or writes the error reply.
// A part sent with an empty file name arrives as a plain form value.
func (s *Server) parseFiles(w http.ResponseWriter, r *http.Request, field string) ([]*multipart.FileHeader, bool) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		render.Render(w, r, httpErrBadRequest(err, errTextNoFilePart))
		return nil, false
	}
	files := r.MultipartForm.File[field]
	if len(files) > 0 {
		return files, true
	}
	if _, ok := r.MultipartForm.Value[field]; ok {
		if field == "files" {
			render.Render(w, r, httpErrBadRequest(nil, errTextFileTypeSome))
		} else {
			render.Render(w, r, httpErrBadRequest(nil, errTextNoSelectedFile))
		}
		return nil, false
	}
	render.Render(w, r, httpErrBadRequest(nil, errTextNoFilePart))
	return nil, false
}

// saveUpload writes an uploaded part into the uploads directory and registers it.
func (s *Server) saveUpload(fh *multipart.FileHeader) (string, error) {
	name, ok := cleanName(util.BaseName(fh.Filename))
	if !ok {
		return "", fmt.Errorf("invalid file name %q", fh.Filename)
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	path := filepath.Join(s.cfg.UploadsDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}

	if err := s.registerImage(path); err != nil {
		return "", err
	}
	return name, nil
}

// registerImage records the file at path, decoding its dimensions when possible.
func (s *Server) registerImage(path string) error {
	img := describeImage(path)
	if img.Format == "" {
		s.log.Warn("could not decode image header", "image", img.Name)
	}
	if err := s.store.AddImage(&img); err != nil {
		return fmt.Errorf("failed to register image: %w", err)
	}
	s.log.Info("image registered", "image", img.Name, "width", img.Width, "height", img.Height, "format", img.Format)
	return nil
}

func describeImage(path string) core.Image {
	img := core.Image{Name: filepath.Base(path)}
	f, err := os.Open(path)
	if err != nil {
		return img
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return img
	}
	img.Width = cfg.Width
	img.Height = cfg.Height
	img.Format = format
	return img
}

// scanUploads registers every allowed image already present in the uploads directory.
func (s *Server) scanUploads() error {
	entries, err := os.ReadDir(s.cfg.UploadsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read uploads dir: %w", err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || !AllowedFile(e.Name()) {
			continue
		}
		if err := s.registerImage(filepath.Join(s.cfg.UploadsDir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
