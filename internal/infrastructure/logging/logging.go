// Package logging provides structured logging for simulation agents using
// zerolog. Every agent writes to its own file under the configured log
// directory in addition to a shared console stream, so a single agent's
// lifecycle can be followed without untangling the interleaved output.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

const milliTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// contextKey for logger
type contextKey int

const loggerKey contextKey = iota

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context. Returns a no-op logger
// when none is present so callers never need a nil check.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// Factory creates per-agent loggers. Each logger writes to the shared
// console stream and to {dir}/{agent_id}.log.
type Factory struct {
	mu      sync.Mutex
	dir     string
	level   zerolog.Level
	console io.Writer
	files   map[string]*os.File
}

// NewFactory prepares the log directory and the shared console writer.
// Unknown level strings fall back to info.
func NewFactory(dir, level string) (*Factory, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}
	console := zerolog.SyncWriter(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: milliTimeFormat,
	})
	return &Factory{
		dir:     dir,
		level:   lvl,
		console: console,
		files:   make(map[string]*os.File),
	}, nil
}

// ForAgent returns a logger tagged with the agent id. The agent's log file
// is created on first use and truncated across runs. If the file cannot be
// opened the logger degrades to console only.
func (f *Factory) ForAgent(agentID string) zerolog.Logger {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, ok := f.files[agentID]
	if !ok {
		path := filepath.Join(f.dir, agentID+".log")
		opened, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return f.build(f.console, agentID)
		}
		f.files[agentID] = opened
		file = opened
	}

	return f.build(zerolog.MultiLevelWriter(f.console, file), agentID)
}

// Console returns a logger for process-level output that does not belong
// to any single agent.
func (f *Factory) Console() zerolog.Logger {
	return zerolog.New(f.console).Level(f.level).With().Timestamp().Logger()
}

// Close closes every per-agent log file.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	for id, file := range f.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file for %s: %w", id, err)
		}
		delete(f.files, id)
	}
	return firstErr
}

func (f *Factory) build(w io.Writer, agentID string) zerolog.Logger {
	return zerolog.New(w).
		Level(f.level).
		With().
		Timestamp().
		Str("agent", agentID).
		Logger()
}
