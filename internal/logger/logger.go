// Package logger provides structured logging for the gridmask engine.
// It wraps slog.Logger with field helpers for grids, scans and calibrations
// so every package reports the same keys.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with gridmask-specific context.
type Logger struct {
	*slog.Logger
}

// New creates a Logger with the given handler.
// If handler is nil, a text handler writing to stderr at info level is used.
func New(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewText creates a Logger that writes human-readable text to w.
func NewText(w io.Writer, level slog.Level) *Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSON creates a Logger that writes JSON records to w.
func NewJSON(w io.Writer, level slog.Level) *Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Noop returns a Logger that discards everything.
func Noop() *Logger {
	return New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// OrNoop returns l, or a discarding logger when l is nil.
func OrNoop(l *Logger) *Logger {
	if l == nil {
		return Noop()
	}
	return l
}

// WithGrid tags the logger with the grid shape.
func (l *Logger) WithGrid(xSize, ySize, zSize int) *Logger {
	return &Logger{Logger: l.Logger.With("size", []int{xSize, ySize, zSize})}
}

// WithStructure tags the logger with a structure id.
func (l *Logger) WithStructure(id string) *Logger {
	return &Logger{Logger: l.Logger.With("structure", id)}
}

// LogScan logs the outcome of a profile scan.
func (l *Logger) LogScan(ctx context.Context, columns, workers int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "profile scan failed",
			"columns", columns,
			"workers", workers,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "profile scan completed",
		"columns", columns,
		"workers", workers,
	)
}

// LogRefine logs a partial-volume refinement pass.
func (l *Logger) LogRefine(ctx context.Context, boundary uint64, subSamples int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "partial volume refinement failed",
			"boundary_voxels", boundary,
			"sub_samples", subSamples,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "partial volume refinement completed",
		"boundary_voxels", boundary,
		"sub_samples", subSamples,
	)
}

// LogCalibration logs a derived dose calibration.
func (l *Logger) LogCalibration(ctx context.Context, scale, offset float64, scrubbed int) {
	if scrubbed > 0 {
		l.WarnContext(ctx, "dose calibrated with undefined voxels",
			"scale", scale,
			"offset", offset,
			"nan_voxels", scrubbed,
		)
		return
	}
	l.DebugContext(ctx, "dose calibrated",
		"scale", scale,
		"offset", offset,
	)
}
