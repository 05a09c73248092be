package observability

import (
	"io"
	"log/slog"
)

// NewLogger writes human readable text in dev and JSON everywhere else.
// CLI output goes to stdout, so callers pass stderr here.
func NewLogger(env string, w io.Writer) *slog.Logger {
	var handler slog.Handler

	if env == "dev" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		})
	}

	return slog.New(NewTraceHandler(handler))
}
