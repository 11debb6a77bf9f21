package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewForwardsToSlog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	New(base, "relay", slog.LevelWarn).Printf("http: TLS handshake error from %s", "10.0.0.1")

	out := buf.String()
	for _, want := range []string{"level=WARN", "component=relay", "TLS handshake error from 10.0.0.1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}
