package server

import (
	"net/http"

	"github.com/geoannot/gcptag/internal/api"
	"github.com/geoannot/gcptag/internal/geo"
	"github.com/geoannot/gcptag/pkg/core"
	"github.com/go-chi/render"
)

func (s *Server) apiMarkerAdd(w http.ResponseWriter, r *http.Request) {
	var req api.AddMarkerRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, httpErrInvalidRequest(err))
		return
	}
	if req.ImageName == "" || req.GCPName == "" {
		render.Render(w, r, httpErrInvalidRequest(nil))
		return
	}
	if !geo.IsFinite(req.X) || !geo.IsFinite(req.Y) || req.X < 0 || req.Y < 0 {
		render.Render(w, r, httpErrBadRequest(geo.ErrInvalidCoordinates, errTextInvalidCoordinates))
		return
	}

	m := &core.Marker{ImageName: req.ImageName, GCPName: req.GCPName, X: req.X, Y: req.Y}
	if _, err := s.store.AddMarker(m); err != nil {
		s.log.Debug("marker not added", "image", req.ImageName, "gcp", req.GCPName, "error", err)
		render.Render(w, r, httpErrStore(err))
		return
	}

	s.log.Info("marker added", "image", m.ImageName, "gcp", m.GCPName, "x", m.X, "y", m.Y)
	if s.activity != nil {
		if err := s.activity.RecordMarker(r.Context(), *m); err != nil {
			s.log.Warn("failed to record marker activity", "error", err)
		}
	}
	render.Render(w, r, &MessageResponse{Message: "GCP added successfully"})
}

func (s *Server) apiMarkerGetAll(w http.ResponseWriter, r *http.Request) {
	markers, err := s.store.Markers(imageParam(r))
	if err != nil {
		s.log.Error("failed to list markers", "error", err)
		render.Render(w, r, httpErrUnexpected(err))
		return
	}

	out := make([]api.Marker, 0, len(markers))
	for _, m := range markers {
		out = append(out, api.Marker{X: m.X, Y: m.Y, Lat: m.Lat, Lon: m.Lon, GCPName: m.GCPName})
	}
	render.JSON(w, r, out)
}
