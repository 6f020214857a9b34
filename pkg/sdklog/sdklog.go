// Package sdklog provides the SDK's default structured-logging setup:
// colored, level-aware console output when attached to a terminal, plain
// output otherwise. The packages in this module that log (pkg/gmod,
// pkg/versioning) accept an optional *slog.Logger and fall back to
// New(os.Stderr, slog.LevelInfo) when none is supplied.
package sdklog

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// New builds a *slog.Logger writing to w at level, coloring output when w
// is a terminal.
func New(w io.Writer, level slog.Level) *slog.Logger {
	noColor := true

	if f, ok := w.(interface{ Fd() uintptr }); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.StampMilli,
		NoColor:    noColor,
	})

	return slog.New(handler)
}

// Default returns the package-wide fallback logger used when a caller
// doesn't supply one: stderr at info level.
func Default() *slog.Logger {
	return defaultLogger
}

var defaultLogger = New(os.Stderr, slog.LevelInfo)
