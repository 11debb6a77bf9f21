package logger

import (
	"log"
	"log/slog"
)

// New returns a stdlib logger that forwards every line to base at the given
// level, tagged with the component. Useful for APIs that only accept
// *log.Logger, such as http.Server.ErrorLog.
func New(base *slog.Logger, component string, level slog.Level) *log.Logger {
	if base == nil {
		base = slog.Default()
	}
	return slog.NewLogLogger(base.With("component", component).Handler(), level)
}
