package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// sink is one log destination with its own threshold. The file sink follows
// logLevel, Graylog follows graylog.level.
type sink struct {
	name  string
	h     slog.Handler
	level slog.Level
}

func (s sink) accepts(ctx context.Context, level slog.Level) bool {
	return level >= s.level && s.h.Enabled(ctx, level)
}

// fanout delivers each record to every sink whose threshold it meets.
// A failing sink does not keep the record from the others.
type fanout struct {
	sinks []sink
}

func newFanout(sinks ...sink) *fanout {
	f := &fanout{}
	for _, s := range sinks {
		if s.h != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if s.accepts(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f.sinks {
		if !s.accepts(ctx, r.Level) {
			continue
		}
		if err := s.h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, fmt.Errorf("%s sink: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *fanout) derive(fn func(slog.Handler) slog.Handler) *fanout {
	out := &fanout{sinks: make([]sink, len(f.sinks))}
	for i, s := range f.sinks {
		s.h = fn(s.h)
		out.sinks[i] = s
	}
	return out
}
