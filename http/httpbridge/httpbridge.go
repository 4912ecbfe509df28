// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpbridge adapts a callback transport to the synchronous
// [http.RoundTripper] interface.
package httpbridge

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/z5labs/bridge"
	"github.com/z5labs/bridge/pkg/maskslog"
	"github.com/z5labs/bridge/pkg/noop"
	"github.com/z5labs/bridge/pkg/slogfield"

	"github.com/google/uuid"
)

// Transport starts requests whose outcome is reported through a
// bridge.Callback.
type Transport interface {
	Start(*http.Request) bridge.Callback
}

// TransportFunc is a func which implements the Transport interface.
type TransportFunc func(*http.Request) bridge.Callback

// Start implements the Transport interface.
func (f TransportFunc) Start(req *http.Request) bridge.Callback {
	return f(req)
}

// SensitiveHeaders are masked whenever response headers are logged.
var SensitiveHeaders = []string{
	"authorization",
	"cookie",
	"proxy-authorization",
	"set-cookie",
}

type options struct {
	logHandler slog.Handler
	assembler  []bridge.Option
}

// Option configures a RoundTripper.
type Option func(*options)

// LogHandler sets the slog.Handler the RoundTripper and its
// bridge.Assembler log to.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

// AssemblerOptions configures the bridge.Assembler every response is
// assembled by.
func AssemblerOptions(opts ...bridge.Option) Option {
	return func(o *options) {
		o.assembler = append(o.assembler, opts...)
	}
}

// RoundTripper implements http.RoundTripper on top of a Transport. It
// blocks until the Transport reports both the response metadata and the
// body stream.
type RoundTripper struct {
	transport Transport
	assembler *bridge.Assembler
	log       *slog.Logger
}

// NewRoundTripper returns a RoundTripper which starts every request on t.
func NewRoundTripper(t Transport, opts ...Option) *RoundTripper {
	o := &options{
		logHandler: noop.LogHandler{},
	}
	for _, opt := range opts {
		opt(o)
	}

	masked := make([]string, len(SensitiveHeaders))
	for i, name := range SensitiveHeaders {
		masked[i] = "headers." + name
	}
	h := maskslog.NewHandler(o.logHandler, maskslog.Keys(masked...))

	assemblerOpts := append([]bridge.Option{bridge.LogHandler(h)}, o.assembler...)
	return &RoundTripper{
		transport: t,
		assembler: bridge.NewAssembler(assemblerOpts...),
		log:       slog.New(h),
	}
}

// RoundTrip implements the http.RoundTripper interface.
func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()
	log := rt.log.With(
		slogfield.String("attempt_id", uuid.NewString()),
		slogfield.String("method", req.Method),
		slogfield.String("url", req.URL.String()),
	)

	log.DebugContext(ctx, "starting request")
	resp, err := rt.assembler.ToResponse(ctx, req, rt.transport.Start(req))
	if err != nil {
		log.ErrorContext(ctx, "request failed", slogfield.Error(err))
		return nil, err
	}

	log.DebugContext(
		ctx,
		"response received",
		slogfield.Int("status_code", resp.StatusCode),
		slogfield.Stringer("protocol", resp.Protocol),
		slogfield.Duration("latency", time.Since(start)),
		slogfield.Headers(resp.Header),
	)
	hr := resp.HTTP()
	if resp.Body != nil {
		hr.Body = &loggedBody{
			Body:        resp.Body,
			ctx:         ctx,
			log:         log,
			headerBytes: resp.ReceivedByteCount,
		}
	}
	return hr, nil
}

// loggedBody logs how many bytes were received once it is closed.
type loggedBody struct {
	*bridge.Body

	ctx         context.Context
	log         *slog.Logger
	headerBytes int64
	once        sync.Once
}

// Close implements the [io.Closer] interface.
func (b *loggedBody) Close() error {
	err := b.Body.Close()
	b.once.Do(func() {
		b.log.DebugContext(
			b.ctx,
			"response body closed",
			slogfield.Int64("header_bytes", b.headerBytes),
			slogfield.Int64("body_bytes", b.Body.ReadByteCount()),
		)
	})
	return err
}
