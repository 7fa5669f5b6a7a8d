// Package app performs the start-up sequence shared by the gcptag and gcpd
// binaries: configuration, log file, OpenTelemetry and Graylog.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/geoannot/gcptag/internal/config"
	"github.com/geoannot/gcptag/internal/logging"
	intOtel "github.com/geoannot/gcptag/internal/otel"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Version can be set at build time via ldflags
var Version = "0.1.0"

// Options selects what Setup builds.
type Options struct {
	// Name is the binary name, used for the log file and the OTel scope.
	Name      string
	ConfigDir string
	// Context adds dynamic attributes to every slog record; optional.
	Context logging.ContextProvider
}

// Runtime is what every command gets after Setup.
type Runtime struct {
	Slog    *logging.SlogManager
	Logger  *slog.Logger
	Zerolog zerolog.Logger
	OTel    *intOtel.Provider
	LogPath string

	logFile *os.File
}

// Setup loads the configuration and opens the logging pipeline. The log
// file is named after opts.Name and the session start inside logsDir.
func Setup(ctx context.Context, opts Options) (*Runtime, error) {
	if err := config.Load(opts.ConfigDir); err != nil {
		return nil, err
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs dir: %w", err)
	}

	rt := &Runtime{LogPath: logFilePath(logsDir, opts.Name, time.Now())}
	file, err := os.OpenFile(rt.LogPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	rt.logFile = file

	level := viper.GetString("logLevel")
	zlevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zlevel = zerolog.InfoLevel
	}
	rt.Zerolog = zerolog.New(file).Level(zlevel).With().Timestamp().Str("service", opts.Name).Logger()

	var warnings []error

	otelCfg := config.GetOTelConfig()
	rt.OTel, err = intOtel.New(ctx, intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: Version,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      file,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		warnings = append(warnings, fmt.Errorf("otel disabled: %w", err))
		rt.OTel, _ = intOtel.New(ctx, intOtel.Config{})
	}

	var setupOpts []logging.Option
	if opts.Context != nil {
		setupOpts = append(setupOpts, logging.WithContext(opts.Context))
	}
	if viper.GetBool("graylog.enabled") {
		w, err := logging.DialGELF(viper.GetString("graylog.address"))
		if err != nil {
			warnings = append(warnings, err)
		} else {
			setupOpts = append(setupOpts, logging.WithGELF(w, viper.GetString("graylog.level")))
		}
	}

	var provider *sdklog.LoggerProvider
	if rt.OTel != nil {
		provider = rt.OTel.LoggerProvider()
	}
	rt.Slog = logging.NewSlogManager(opts.Name)
	rt.Slog.Setup(file, level, provider, setupOpts...)
	rt.Logger = rt.Slog.Logger()

	for _, w := range warnings {
		rt.Logger.Warn("optional log sink unavailable", "error", w)
	}
	rt.Logger.Info("Logging to file", "path", rt.LogPath, "version", Version)
	return rt, nil
}

// logFilePath names one log file per binary and session start.
func logFilePath(logsDir, name string, sessionStart time.Time) string {
	return filepath.Join(logsDir, name+"."+sessionStart.Format("20060102_150405")+".log")
}

// Close flushes every sink and closes the log file.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Slog != nil {
		errs = append(errs, rt.Slog.Close(ctx))
	}
	if rt.OTel != nil {
		errs = append(errs, rt.OTel.Shutdown(ctx))
	}
	if rt.logFile != nil {
		errs = append(errs, rt.logFile.Close())
	}
	return errors.Join(errs...)
}
