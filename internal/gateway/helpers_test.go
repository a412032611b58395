package gateway

import (
	"io"
	"log/slog"
)

// discardLogger returns a logger that writes nowhere, for tests that only
// need to satisfy a *slog.Logger parameter.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
