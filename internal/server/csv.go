package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/geoannot/gcptag/internal/export"
	"github.com/geoannot/gcptag/internal/geo"
	"github.com/geoannot/gcptag/pkg/core"
	"github.com/go-chi/render"
)

// Bootstrap registers the images already in the uploads directory, then
// replays the exported table for those images when the store holds no
// markers yet. GCPs named in the table are created as needed.
func (s *Server) Bootstrap() error {
	if err := s.scanUploads(); err != nil {
		return err
	}

	existing, err := s.store.AllMarkers()
	if err != nil {
		return fmt.Errorf("failed to list markers: %w", err)
	}
	if len(existing) > 0 {
		s.log.Info("store already has markers, skipping table import", "markers", len(existing))
		return nil
	}

	f, err := os.Open(s.cfg.CSVPath)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info("no exported table found, starting with an empty dataset", "path", s.cfg.CSVPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	rows, err := export.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("failed to read table: %w", err)
	}

	imported := 0
	for _, row := range rows {
		ok, err := s.importRow(row)
		if err != nil {
			return err
		}
		if ok {
			imported++
		}
	}
	s.log.Info("table imported", "path", s.cfg.CSVPath, "rows", len(rows), "imported", imported)
	return nil
}

func (s *Server) importRow(row export.Row) (bool, error) {
	has, err := s.store.HasImage(row.Image)
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}

	if _, err := s.store.GetGCP(row.GCP); errors.Is(err, core.ErrGCPNotFound) {
		if err := geo.ValidateWGS84(row.Lat, row.Lon); err != nil {
			s.log.Warn("skipping row with invalid coordinates", "gcp", row.GCP, "lat", row.Lat, "lon", row.Lon)
			return false, nil
		}
		if err := s.store.CreateGCP(&core.GCP{Name: row.GCP, Lat: row.Lat, Lon: row.Lon}); err != nil {
			return false, fmt.Errorf("failed to create GCP %q: %w", row.GCP, err)
		}
	} else if err != nil {
		return false, err
	}

	if _, err := s.store.AddMarker(&core.Marker{ImageName: row.Image, GCPName: row.GCP, X: row.X, Y: row.Y}); err != nil {
		return false, fmt.Errorf("failed to import marker: %w", err)
	}
	return true, nil
}

// Rows returns every placement grouped by image, in placement order within an image.
func (s *Server) Rows() ([]export.Row, error) {
	markers, err := s.store.AllMarkers()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(markers, func(i, j int) bool { return markers[i].ImageName < markers[j].ImageName })

	rows := make([]export.Row, 0, len(markers))
	for _, m := range markers {
		rows = append(rows, export.Row{Image: m.ImageName, X: m.X, Y: m.Y, Lat: m.Lat, Lon: m.Lon, GCP: m.GCPName})
	}
	return rows, nil
}

func (s *Server) apiDownloadCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Rows()
	if err != nil {
		s.log.Error("failed to list markers", "error", err)
		render.Render(w, r, httpErrUnexpected(err))
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows); err != nil {
		render.Render(w, r, httpErrUnexpected(err))
		return
	}

	s.csvMu.Lock()
	err = os.WriteFile(s.cfg.CSVPath, buf.Bytes(), 0644)
	s.csvMu.Unlock()
	if err != nil {
		s.log.Error("failed to write table", "path", s.cfg.CSVPath, "error", err)
		render.Render(w, r, httpErrUnexpected(err))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filepath.Base(s.cfg.CSVPath)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
