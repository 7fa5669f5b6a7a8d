// Package server is the companion GCP store: it keeps uploaded images,
// the GCP registry and per-image marker placements behind the HTTP
// contract the gcptag client speaks.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/geoannot/gcptag/internal/api"
	"github.com/geoannot/gcptag/internal/config"
	"github.com/geoannot/gcptag/internal/storage"
	"github.com/geoannot/gcptag/pkg/core"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

const (
	maxUploadMemory = 32 << 20
	shutdownTimeout = 10 * time.Second
)

// ActivityRecorder receives every accepted marker placement.
type ActivityRecorder interface {
	RecordMarker(ctx context.Context, m core.Marker) error
}

// Dependencies holds everything the server needs.
type Dependencies struct {
	Config   config.ServerConfig
	Store    storage.Backend
	Activity ActivityRecorder // optional
	Logger   *slog.Logger
}

type Server struct {
	cfg      config.ServerConfig
	store    storage.Backend
	activity ActivityRecorder
	log      *slog.Logger

	// csvMu serializes writes of cfg.CSVPath
	csvMu sync.Mutex
}

// New creates the server and makes sure the uploads directory exists.
func New(deps Dependencies) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server: no storage backend")
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(deps.Config.UploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}
	return &Server{
		cfg:      deps.Config,
		store:    deps.Store,
		activity: deps.Activity,
		log:      log,
	}, nil
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthcheck", s.apiHealthcheck)

	r.Get("/get_all_gcps", s.apiGCPGetAll)
	r.Post("/create_gcp", s.apiGCPCreate)

	r.Get("/images", s.apiImageGetAll)
	r.Get("/uploads/{imageName}", s.apiImageServe)
	r.Post("/upload", s.apiImageUpload)
	r.Post("/upload_multiple", s.apiImageUploadMultiple)

	r.Post("/add_gcp", s.apiMarkerAdd)
	r.Get("/get_gcps/{imageName}", s.apiMarkerGetAll)

	r.Get("/download_csv", s.apiDownloadCSV)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("store listening", "address", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("store shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		reqID := middleware.GetReqID(r.Context())
		ww.Header().Set(api.RequestIDHeader, reqID)

		start := time.Now()
		next.ServeHTTP(ww, r)

		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", reqID,
		)
	})
}

func (s *Server) apiHealthcheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
