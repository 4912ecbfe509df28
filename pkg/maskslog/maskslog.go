// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package maskslog provides a slog.Handler which masks sensitive
// attributes and messages before they reach the wrapped handler.
package maskslog

import (
	"context"
	"log/slog"
	"strings"
)

type options struct {
	attrs    map[string]func(slog.Attr) slog.Attr
	messages []func(string) string
}

// Option helps configure the Handler.
type Option interface {
	applyOption(*options)
}

type optionFunc func(*options)

func (f optionFunc) applyOption(opts *options) {
	f(opts)
}

// Message registers a function for masking slog.Record messages.
func Message(f func(string) string) Option {
	return optionFunc(func(o *options) {
		o.messages = append(o.messages, f)
	})
}

// Attr registers a function for masking a slog.Attr given its key. Keys
// of attributes nested in groups are qualified by the group names joined
// with ".", e.g. "headers.authorization".
func Attr(key string, f func(slog.Attr) slog.Attr) Option {
	return optionFunc(func(o *options) {
		o.attrs[key] = f
	})
}

// Keys masks every given key with AnonymousStringAttr.
func Keys(keys ...string) Option {
	return optionFunc(func(o *options) {
		for _, key := range keys {
			o.attrs[key] = AnonymousStringAttr
		}
	})
}

// AnonymousStringAttr is a helper function for converting any slog.Attr
// into the anonymized string, "****". It completely ignores the given
// slog.Attr value type and always return a string value.
func AnonymousStringAttr(a slog.Attr) slog.Attr {
	return slog.String(a.Key, "****")
}

// Handler is an slog.Handler.
type Handler struct {
	slog   slog.Handler
	prefix string

	attrs    map[string]func(slog.Attr) slog.Attr
	messages []func(string) string
}

// NewHandler returns a new Handler.
func NewHandler(h slog.Handler, opts ...Option) *Handler {
	o := &options{
		attrs: make(map[string]func(slog.Attr) slog.Attr),
	}
	for _, opt := range opts {
		opt.applyOption(o)
	}
	return &Handler{
		slog:     h,
		attrs:    o.attrs,
		messages: o.messages,
	}
}

// Enabled implements the slog.Handler interface.
func (h *Handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.slog.Enabled(ctx, lvl)
}

// Handle implements the slog.Handler interface.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	msg := record.Message
	for _, f := range h.messages {
		msg = f(msg)
	}

	r := slog.NewRecord(record.Time, record.Level, msg, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(h.mask(h.prefix, a))
		return true
	})
	return h.slog.Handle(ctx, r)
}

// WithAttrs implements the slog.Handler interface.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.mask(h.prefix, a)
	}
	return h.with(h.slog.WithAttrs(masked), h.prefix)
}

// WithGroup implements the slog.Handler interface.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(h.slog.WithGroup(name), qualify(h.prefix, name))
}

func (h *Handler) with(inner slog.Handler, prefix string) *Handler {
	return &Handler{
		slog:     inner,
		prefix:   prefix,
		attrs:    h.attrs,
		messages: h.messages,
	}
}

func (h *Handler) mask(prefix string, a slog.Attr) slog.Attr {
	if len(h.attrs) == 0 {
		return a
	}

	a.Value = a.Value.Resolve()
	key := qualify(prefix, a.Key)
	if f, ok := h.attrs[key]; ok && a.Key != "" {
		return f(a)
	}
	if a.Value.Kind() != slog.KindGroup {
		return a
	}

	group := a.Value.Group()
	masked := make([]slog.Attr, len(group))
	for i, ga := range group {
		masked[i] = h.mask(key, ga)
	}
	return slog.Attr{Key: a.Key, Value: slog.GroupValue(masked...)}
}

func qualify(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return strings.Join([]string{prefix, key}, ".")
	}
}
