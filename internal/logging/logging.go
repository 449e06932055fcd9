// Package logging installs the process-wide slog handler and propagates
// structured business fields through context, following the teacher's
// common/logger package.
package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/lessonforge/pipeline/internal/config"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
)

// Setup installs the default slog logger for the process.
func Setup(cfg config.Config) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
	}

	switch {
	case cfg.IsProduction() && cfg.OTel.Enabled():
		handler = otelslog.NewHandler(cfg.OTel.ServiceName, otelslog.WithLoggerProvider(global.GetLoggerProvider()))
	case cfg.IsProduction():
		handler = newTraceHandler(slog.NewJSONHandler(os.Stdout, opts))
	default:
		handler = newTraceHandler(slog.NewTextHandler(os.Stdout, opts))
	}

	slog.SetDefault(slog.New(handler))
}

type contextKey string

const fieldsKey contextKey = "lessonforge_log_fields"

// Fields are structured attributes automatically attached to every log line
// emitted within a context, per §6's Observability requirement (module_id,
// lesson_number, component, provider, source, reason).
type Fields struct {
	ModuleID     string
	LessonNumber *int
	Component    string
	Provider     string
	Source       string
	Reason       string
}

// WithFields enriches ctx with fields, merging non-zero values over any existing set.
func WithFields(ctx context.Context, f Fields) context.Context {
	merged := mergeFields(FieldsFromContext(ctx), f)
	return context.WithValue(ctx, fieldsKey, merged)
}

// FieldsFromContext retrieves the current structured fields, or a zero value.
func FieldsFromContext(ctx context.Context) Fields {
	if f, ok := ctx.Value(fieldsKey).(Fields); ok {
		return f
	}
	return Fields{}
}

func mergeFields(existing, next Fields) Fields {
	result := existing
	if next.ModuleID != "" {
		result.ModuleID = next.ModuleID
	}
	if next.LessonNumber != nil {
		result.LessonNumber = next.LessonNumber
	}
	if next.Component != "" {
		result.Component = next.Component
	}
	if next.Provider != "" {
		result.Provider = next.Provider
	}
	if next.Source != "" {
		result.Source = next.Source
	}
	if next.Reason != "" {
		result.Reason = next.Reason
	}
	return result
}

type traceHandler struct {
	slog.Handler
}

func newTraceHandler(h slog.Handler) *traceHandler {
	return &traceHandler{Handler: h}
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	f := FieldsFromContext(ctx)
	if f.ModuleID != "" {
		r.AddAttrs(slog.String("module_id", f.ModuleID))
	}
	if f.LessonNumber != nil {
		r.AddAttrs(slog.Int("lesson_number", *f.LessonNumber))
	}
	if f.Component != "" {
		r.AddAttrs(slog.String("component", f.Component))
	}
	if f.Provider != "" {
		r.AddAttrs(slog.String("provider", f.Provider))
	}
	if f.Source != "" {
		r.AddAttrs(slog.String("source", f.Source))
	}
	if f.Reason != "" {
		r.AddAttrs(slog.String("reason", f.Reason))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}
