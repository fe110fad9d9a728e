// Package runlog builds the per-process logger spec.md §6 requires: a
// rotating file sink at {home}/logs/process_id {pid}.log capturing DEBUG
// and above, plus a console sink mirroring INFO and above. Grounded on
// Common/Logger.py's LoggerManager.
package runlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 1 // ~1MB per Common/Logger.py's RotatingFileHandler(maxBytes=1_000_000)
	maxBackups = 5
)

// New builds the process-scoped logger. processID identifies the run the
// way spec.md's "process_id {pid}.log" naming convention requires.
// The returned closer flushes and closes the rotating file sink; callers
// must invoke it when the run completes.
func New(home string, processID int, consoleLevel slog.Level) (*slog.Logger, func() error, error) {
	logDir := filepath.Join(home, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, fmt.Sprintf("process_id %d.log", processID)),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}

	fileHandler := slog.NewJSONHandler(fileSink, &slog.HandlerOptions{Level: slog.LevelDebug})
	consoleHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: consoleLevel})

	logger := slog.New(newFanoutHandler(fileHandler, consoleHandler))

	return logger, fileSink.Close, nil
}

// fanoutHandler mirrors every record to each wrapped handler, giving the
// file sink DEBUG+ and the console sink INFO+ simultaneously without two
// independent slog.Logger instances drifting out of sync.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) *fanoutHandler {
	return &fanoutHandler{handlers: handlers}
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}

		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}

	return nil
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}

	return &fanoutHandler{handlers: next}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}

	return &fanoutHandler{handlers: next}
}
