package rulesynth

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/rulesynth/index"
	"github.com/hupe1980/rulesynth/optimize/genetic"
)

// Logger wraps slog.Logger with rulesynth-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs to w.
// A nil w writes to stderr.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs to w.
// A nil w writes to stderr.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithOperation adds an operation field to the logger.
func (l *Logger) WithOperation(op string) *Logger {
	return &Logger{
		Logger: l.Logger.With("op", op),
	}
}

// WithLabel adds a label field to the logger.
func (l *Logger) WithLabel(label string) *Logger {
	return &Logger{
		Logger: l.Logger.With("label", label),
	}
}

// WithName adds a rule-set name field to the logger.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("name", name),
	}
}

// LogIndexBuild logs the construction of the categorical index.
func (l *Logger) LogIndexBuild(ctx context.Context, stats index.Stats, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index built",
		"rows", stats.Rows,
		"columns", stats.Columns,
		"posting_lists", stats.PostingLists,
		"bytes", stats.SizeInBytes,
		"duration", duration,
	)
}

// LogGeneration logs the summary of one GA generation.
func (l *Logger) LogGeneration(ctx context.Context, s genetic.Stats) {
	l.DebugContext(ctx, "generation",
		"generation", s.Generation,
		"best", s.Best,
		"mean", s.Mean,
		"worst", s.Worst,
		"best_ever", s.BestEver,
		"steady", s.Steady,
	)
}

// LogOptimize logs a finished optimization run.
func (l *Logger) LogOptimize(ctx context.Context, kind string, score float64, generations int, reason string, evaluations int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "optimization failed",
			"kind", kind,
			"generations", generations,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "optimization completed",
		"kind", kind,
		"score", score,
		"generations", generations,
		"reason", reason,
		"evaluations", evaluations,
	)
}

// LogRefine logs a finished k-flip refinement.
func (l *Logger) LogRefine(ctx context.Context, kind string, start, score float64, steps int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "refinement failed",
			"kind", kind,
			"steps", steps,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "refinement completed",
		"kind", kind,
		"start_score", start,
		"score", score,
		"steps", steps,
	)
}

// LogCollect logs candidate collection from a local explainer.
func (l *Logger) LogCollect(ctx context.Context, rows, labels int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "candidate collection failed",
			"rows", rows,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "candidates collected",
		"rows", rows,
		"labels", labels,
	)
}

// LogSave logs a rule-set save.
func (l *Logger) LogSave(ctx context.Context, name, key string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "rule set saved",
		"name", name,
		"key", key,
	)
}

// LogLoad logs a rule-set load.
func (l *Logger) LogLoad(ctx context.Context, name string, members int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "rule set loaded",
		"name", name,
		"members", members,
	)
}
