package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jgoulah/gridprofile/internal/config"
)

// New constructs a slog.Logger writing to w according to the provided settings
func New(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.GetLevel()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	switch cfg.GetFormat() {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
}
