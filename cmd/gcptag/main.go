// Command gcptag is the operator console for tagging ground control points
// on uploaded images.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geoannot/gcptag/internal/api"
	"github.com/geoannot/gcptag/internal/app"
	"github.com/geoannot/gcptag/internal/config"
	"github.com/geoannot/gcptag/internal/console"
	"github.com/geoannot/gcptag/internal/export"
	"github.com/geoannot/gcptag/internal/logging"
	"github.com/geoannot/gcptag/internal/selection"
	"github.com/geoannot/gcptag/internal/status"
	"github.com/spf13/cobra"
)

const name = "gcptag"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globals struct {
	configDir string
	serverURL string
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:          name,
		Short:        "Tag ground control points on images",
		Long:         "Without a subcommand gcptag starts the interactive console on stdin.",
		Version:      app.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runConsole(ctx, g, cmd)
		},
	}
	root.PersistentFlags().StringVar(&g.configDir, "config-dir", envOr("GCPTAG_CONFIG_DIR", "."), "directory holding "+config.FileName)
	root.PersistentFlags().StringVar(&g.serverURL, "server", "", "store URL, overrides api.serverUrl")

	root.AddCommand(newUploadCmd(g), newExportCmd(g), newRenderCmd(g))
	return root
}

// session is the runtime plus a client for one-shot commands.
type session struct {
	rt     *app.Runtime
	client *api.Client
	cfg    config.ClientConfig
}

func open(ctx context.Context, g *globals, opts app.Options) (*session, error) {
	opts.Name = name
	opts.ConfigDir = g.configDir
	rt, err := app.Setup(ctx, opts)
	if err != nil {
		return nil, err
	}
	cfg := config.GetClientConfig()
	if g.serverURL != "" {
		cfg.ServerURL = g.serverURL
	}
	return &session{rt: rt, client: api.New(cfg.ServerURL, cfg.Timeout), cfg: cfg}, nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.rt.Close(ctx)
}

func runConsole(ctx context.Context, g *globals, cmd *cobra.Command) error {
	sel := selection.NewStore()
	s, err := open(ctx, g, app.Options{Context: logging.SelectionContext(sel.Values)})
	if err != nil {
		return err
	}
	defer s.close()

	c, err := console.New(console.Config{
		Remote:           s.client,
		Display:          s.cfg.Display,
		CSVPath:          config.GetString("export.path"),
		Selection:        sel,
		Logger:           s.rt.Logger,
		DispatcherLogger: logging.NewDispatcherLogger(s.rt.Zerolog),
		Meter:            s.rt.OTel.Meter(name),
	}, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Stop()
	return c.Serve(ctx, cmd.InOrStdin())
}

func newUploadCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload one or more images to the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), g, app.Options{})
			if err != nil {
				return err
			}
			defer s.close()

			var res api.UploadResult
			if len(args) == 1 {
				res, err = s.client.UploadImage(cmd.Context(), args[0])
			} else {
				res, err = s.client.UploadImages(cmd.Context(), args)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

func newExportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "export [path]",
		Short: "Download the GCP table as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), g, app.Options{})
			if err != nil {
				return err
			}
			defer s.close()

			path := config.GetString("export.path")
			if len(args) == 1 {
				path = args[0]
			}
			dl := export.NewDownloader(s.client, path, status.NewLine(cmd.OutOrStdout(), s.rt.Logger), s.rt.Logger)
			n, err := dl.Save(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes to %s\n", n, dl.Path())
			return nil
		},
	}
}

func newRenderCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "render <image> <out.png>",
		Short: "Draw an image's markers into a PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd.Context(), g, app.Options{})
			if err != nil {
				return err
			}
			defer s.close()

			n, err := console.RenderImage(cmd.Context(), s.client, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Drew %d markers on %s\n", n, args[1])
			return nil
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
