// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelslog correlates slog records with OpenTelemetry spans.
package otelslog

import (
	"context"
	"log/slog"

	"github.com/z5labs/bridge/pkg/slogfield"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultGroup is the group span context attrs are nested under.
const DefaultGroup = "otel"

// Option configures a Handler.
type Option func(*Handler)

// Group sets the group span context attrs are nested under.
func Group(name string) Option {
	return func(h *Handler) {
		h.group = name
	}
}

// SpanEvents mirrors every record at or above lvl onto the active span
// as an event named after the record message.
func SpanEvents(lvl slog.Leveler) Option {
	return func(h *Handler) {
		h.events = lvl
	}
}

// Handler is an slog.Handler which correlates log records with the span
// active in their context. Records logged inside a valid span get a
// group holding its trace id, span id and sampled flag.
type Handler struct {
	slog   slog.Handler
	group  string
	events slog.Leveler
}

// NewHandler wraps h.
func NewHandler(h slog.Handler, opts ...Option) *Handler {
	oh := &Handler{
		slog:  h,
		group: DefaultGroup,
	}
	for _, opt := range opts {
		opt(oh)
	}
	return oh
}

// New provides a simple wrapper for slog.New(NewHandler(h, opts...)).
func New(h slog.Handler, opts ...Option) *slog.Logger {
	return slog.New(NewHandler(h, opts...))
}

// Enabled implements the slog.Handler interface.
func (h *Handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.slog.Enabled(ctx, lvl)
}

// Handle implements the slog.Handler interface.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	span := trace.SpanFromContext(ctx)
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return h.slog.Handle(ctx, record)
	}

	if h.events != nil && record.Level >= h.events.Level() && span.IsRecording() {
		span.AddEvent(record.Message, trace.WithAttributes(eventAttributes(record)...))
	}

	r := record.Clone()
	r.AddAttrs(
		slog.Group(
			h.group,
			slogfield.String("trace_id", spanCtx.TraceID().String()),
			slogfield.String("span_id", spanCtx.SpanID().String()),
			slogfield.Bool("sampled", spanCtx.IsSampled()),
		),
	)
	return h.slog.Handle(ctx, r)
}

func eventAttributes(record slog.Record) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, record.NumAttrs()+1)
	kvs = append(kvs, attribute.String("log.severity", record.Level.String()))
	record.Attrs(func(a slog.Attr) bool {
		kvs = append(kvs, attribute.String(a.Key, a.Value.String()))
		return true
	})
	return kvs
}

// WithAttrs implements the slog.Handler interface.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		slog:   h.slog.WithAttrs(attrs),
		group:  h.group,
		events: h.events,
	}
}

// WithGroup implements the slog.Handler interface.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		slog:   h.slog.WithGroup(name),
		group:  h.group,
		events: h.events,
	}
}
