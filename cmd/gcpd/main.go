// Command gcpd is the companion store: it keeps GCPs, images and markers and
// serves them over HTTP to the gcptag console.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geoannot/gcptag/internal/app"
	"github.com/geoannot/gcptag/internal/config"
	"github.com/geoannot/gcptag/internal/influx"
	"github.com/geoannot/gcptag/internal/server"
	"github.com/geoannot/gcptag/internal/storage"
	"github.com/spf13/cobra"
)

const name = "gcpd"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir, listen, storageType string

	cmd := &cobra.Command{
		Use:          name,
		Short:        "Serve the GCP tagging store",
		Version:      app.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, configDir, listen, storageType)
		},
	}
	cmd.Flags().StringVar(&configDir, "config-dir", envOr("GCPTAG_CONFIG_DIR", "."), "directory holding "+config.FileName)
	cmd.Flags().StringVar(&listen, "listen", "", "listen address, overrides server.listen")
	cmd.Flags().StringVar(&storageType, "storage", "", "storage backend: memory, sqlite or postgres")
	return cmd
}

func run(ctx context.Context, configDir, listen, storageType string) error {
	rt, err := app.Setup(ctx, app.Options{Name: name, ConfigDir: configDir})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rt.Close(closeCtx)
	}()
	log := rt.Logger

	storageCfg := config.GetStorageConfig()
	if storageType != "" {
		storageCfg.Type = storageType
	}
	store, err := storage.NewBackend(storageCfg, rt.Zerolog)
	if err != nil {
		log.Error("failed to create storage backend", "error", err)
		return err
	}
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	defer store.Close()
	log.Info("storage ready", "type", storageCfg.Type)

	deps := server.Dependencies{
		Config: config.GetServerConfig(),
		Store:  store,
		Logger: log,
	}
	if listen != "" {
		deps.Config.Listen = listen
	}

	activity := influx.NewManager(rt.Zerolog, influx.ConfigFromViper())
	switch err := activity.Connect(ctx); {
	case errors.Is(err, influx.ErrDisabled):
		log.Debug("marker activity recording disabled")
	case err != nil:
		log.Warn("marker activity recording unavailable", "error", err)
	default:
		deps.Activity = activity
		defer activity.Close()
	}

	srv, err := server.New(deps)
	if err != nil {
		return err
	}
	if err := srv.Bootstrap(); err != nil {
		log.Warn("failed to import existing table", "error", err)
	}
	return srv.Run(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
