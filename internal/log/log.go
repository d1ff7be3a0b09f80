// Package log builds the slog loggers the rest of finagent injects.
//
// There is no package-level logger. Every component takes a log.Logger
// through its constructor and scopes it with With("component", ...),
// so a turn can be traced from the HTTP handler down to the remote
// tool call without global state.
//
//	logger := log.New(log.Config{Level: slog.LevelDebug, JSON: true})
//	client := fimcp.NewClient(endpoint, store, fimcp.WithLogger(logger))
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger aliases *slog.Logger so components depend on the standard
// type, not a wrapper interface.
type Logger = *slog.Logger

// Config selects the handler behaviour.
type Config struct {
	// Level is the minimum level emitted. The zero value is slog.LevelInfo.
	Level slog.Level

	// JSON switches from the human-readable text handler to JSON lines.
	JSON bool

	// AddSource annotates records with the emitting file and line.
	AddSource bool
}

// handler builds the slog handler for w per the config.
func (cfg Config) handler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	if cfg.JSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// New returns a logger writing to stderr.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter returns a logger writing to w. Tests pass a buffer here
// to assert on output.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	return slog.New(cfg.handler(w))
}

// NewNop returns a logger that discards everything. For tests only;
// production components should always receive a real logger.
func NewNop() Logger {
	return slog.New(Config{}.handler(io.Discard))
}
