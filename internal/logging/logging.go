package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/signaldesk/signaldesk/internal/config"
)

// New constructs a slog.Logger writing to stdout. attrs are attached to every
// record, e.g. "service", "signaldesk-api".
func New(cfg config.LoggingConfig, attrs ...any) (*slog.Logger, error) {
	return NewWithWriter(os.Stdout, cfg, attrs...)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, cfg config.LoggingConfig, attrs ...any) (*slog.Logger, error) {
	handler, err := buildHandler(w, cfg)
	if err != nil {
		return nil, err
	}

	logger := slog.New(handler)
	if len(attrs) > 0 {
		logger = logger.With(attrs...)
	}
	return logger, nil
}

func buildHandler(w io.Writer, cfg config.LoggingConfig) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: cfg.Level, ReplaceAttr: millisecondDurations}

	switch cfg.Format {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
}

// millisecondDurations renders time.Duration attributes as fractional
// milliseconds instead of nanosecond integers.
func millisecondDurations(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindDuration {
		return slog.Float64(a.Key, float64(a.Value.Duration())/float64(time.Millisecond))
	}
	return a
}
