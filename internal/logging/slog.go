package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// swapped by tests
var (
	osStdout io.Writer = os.Stdout
	osPipe             = os.Pipe
)

// SlogManager manages slog-based logging with optional OTel and Graylog output.
type SlogManager struct {
	logger *slog.Logger
	name   string

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
	gelf        *gelf.Writer
}

// NewSlogManager creates a new slog-based logging manager.
// name is the instrumentation scope used for OTel records.
func NewSlogManager(name string) *SlogManager {
	return &SlogManager{name: name}
}

// Option adjusts a Setup call.
type Option func(*setupOptions)

type setupOptions struct {
	context   ContextProvider
	gelf      *gelf.Writer
	gelfLevel string
}

// WithContext injects the attributes returned by provider into every record.
func WithContext(provider ContextProvider) Option {
	return func(o *setupOptions) {
		o.context = provider
	}
}

// WithGELF additionally ships JSON records at level and above to a Graylog
// writer. An empty level follows the file sink.
func WithGELF(w *gelf.Writer, level string) Option {
	return func(o *setupOptions) {
		o.gelf = w
		o.gelfLevel = level
	}
}

// DialGELF opens a UDP GELF writer for address.
func DialGELF(address string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("failed to create graylog writer: %w", err)
	}
	return w, nil
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system. Console output is used only when
// file is nil. If provider is nil, OTel logging is disabled.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider, opts ...Option) {
	var o setupOptions
	for _, opt := range opts {
		opt(&o)
	}

	lvl := parseLevel(level)
	m.logProvider = provider
	m.gelf = o.gelf

	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	out := io.Writer(osStdout)
	if file != nil {
		out = file
	}
	sinks := []sink{{name: "file", h: slog.NewTextHandler(out, handlerOpts), level: lvl}}

	if provider != nil {
		name := m.name
		if name == "" {
			name = "gcptag"
		}
		sinks = append(sinks, sink{
			name:  "otel",
			h:     otelslog.NewHandler(name, otelslog.WithLoggerProvider(provider)),
			level: lvl,
		})
	}

	if o.gelf != nil {
		gelfLvl := lvl
		if o.gelfLevel != "" {
			gelfLvl = parseLevel(o.gelfLevel)
		}
		gelfOpts := *handlerOpts
		gelfOpts.Level = gelfLvl
		sinks = append(sinks, sink{name: "graylog", h: slog.NewJSONHandler(o.gelf, &gelfOpts), level: gelfLvl})
	}

	var root slog.Handler = newFanout(sinks...)
	if o.context != nil {
		root = NewContextHandler(root, o.context)
	}

	m.logger = slog.New(root)
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// Close flushes pending records and closes the Graylog writer.
func (m *SlogManager) Close(ctx context.Context) error {
	err := m.Flush(ctx)
	if m.gelf != nil {
		if cerr := m.gelf.Close(); cerr != nil && err == nil {
			err = cerr
		}
		m.gelf = nil
	}
	return err
}
