package server

import (
	"net/http"
	"strings"

	"github.com/geoannot/gcptag/internal/api"
	"github.com/geoannot/gcptag/internal/geo"
	"github.com/geoannot/gcptag/pkg/core"
	"github.com/go-chi/render"
)

// GCPRecord is the metadata listed for each GCP name.
type GCPRecord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (s *Server) apiGCPGetAll(w http.ResponseWriter, r *http.Request) {
	gcps, err := s.store.GCPs()
	if err != nil {
		s.log.Error("failed to list GCPs", "error", err)
		render.Render(w, r, httpErrUnexpected(err))
		return
	}

	out := make(map[string]GCPRecord, len(gcps))
	for _, g := range gcps {
		out[g.Name] = GCPRecord{Lat: g.Lat, Lon: g.Lon}
	}
	render.JSON(w, r, out)
}

func (s *Server) apiGCPCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateGCPRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, httpErrInvalidRequest(err))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		render.Render(w, r, httpErrInvalidRequest(nil))
		return
	}
	if err := geo.ValidateWGS84(req.Lat, req.Lon); err != nil {
		render.Render(w, r, httpErrBadRequest(err, errTextInvalidCoordinates))
		return
	}

	if err := s.store.CreateGCP(&core.GCP{Name: req.Name, Lat: req.Lat, Lon: req.Lon}); err != nil {
		s.log.Debug("GCP not created", "gcp", req.Name, "error", err)
		render.Render(w, r, httpErrStore(err))
		return
	}

	s.log.Info("GCP created", "gcp", req.Name, "lat", req.Lat, "lon", req.Lon)
	render.Render(w, r, &MessageResponse{Message: "GCP created successfully"})
}
