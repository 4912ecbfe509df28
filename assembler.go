// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bridge

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/z5labs/bridge/internal/try"
	"github.com/z5labs/bridge/pkg/future"
	"github.com/z5labs/bridge/pkg/header"
	"github.com/z5labs/bridge/pkg/noop"
	"github.com/z5labs/bridge/pkg/protocol"
	"github.com/z5labs/bridge/pkg/slogfield"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StandardEncodings are the content codings native network stacks commonly
// decode before handing the body to their callbacks.
var StandardEncodings = []string{"br", "deflate", "gzip", "x-gzip"}

type options struct {
	logHandler     slog.Handler
	tracerProvider trace.TracerProvider
	decoded        []string
}

// Option configures an Assembler.
type Option func(*options)

// LogHandler sets the slog.Handler the Assembler logs to.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

// TracerProvider sets where Assembler spans are recorded. The global
// provider is used by default.
func TracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// TransportDecodes declares the content codings the transport decodes
// itself. When every coding a response lists in Content-Encoding is one
// of them, the body is already decoded: Content-Encoding and
// Content-Length are dropped and the length becomes UnknownLength.
func TransportDecodes(encodings ...string) Option {
	return func(o *options) {
		o.decoded = append(o.decoded, encodings...)
	}
}

// Assembler turns Callbacks into Responses. It is safe for concurrent use.
type Assembler struct {
	log     *slog.Logger
	tracer  trace.Tracer
	decoded map[string]struct{}
}

// NewAssembler returns an Assembler configured by opts.
func NewAssembler(opts ...Option) *Assembler {
	o := &options{
		logHandler: noop.LogHandler{},
	}
	for _, opt := range opts {
		opt(o)
	}

	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	decoded := make(map[string]struct{}, len(o.decoded))
	for _, enc := range o.decoded {
		decoded[strings.ToLower(strings.TrimSpace(enc))] = struct{}{}
	}

	return &Assembler{
		log:     slog.New(o.logHandler),
		tracer:  tp.Tracer("github.com/z5labs/bridge"),
		decoded: decoded,
	}
}

// ToResponse blocks until both values of cb resolve and assembles them
// into a Response for req.
//
// Either value failing fails assembly immediately, without waiting on the
// other, and a body stream which did resolve, now or later, is closed. No
// Response is returned alongside an error.
func (a *Assembler) ToResponse(ctx context.Context, req *http.Request, cb Callback) (_ *Response, err error) {
	spanCtx, span := a.tracer.Start(ctx, "Assembler.ToResponse")
	defer span.End()
	defer func() {
		if err == nil {
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}()

	md, body, err := await(spanCtx, cb)
	if err != nil {
		a.log.ErrorContext(spanCtx, "failed to receive response", slogfield.Error(err))
		return nil, err
	}
	defer func() {
		if err == nil {
			return
		}
		try.Close(&err, body)
	}()
	defer try.Recover(&err)

	resp := a.assemble(req, md, body)
	if rec, ok := cb.(RedirectRecorder); ok {
		resp.Prior = a.priorResponses(req, rec.Redirects())
	}

	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode),
		attribute.String("net.protocol.name", resp.Protocol.String()),
		attribute.Int64("http.response_content_length", resp.Body.ContentLength()),
	)
	a.log.DebugContext(
		spanCtx,
		"assembled response",
		slogfield.String("url", resp.URL),
		slogfield.Int("status_code", resp.StatusCode),
		slogfield.Stringer("protocol", resp.Protocol),
		slogfield.Int64("content_length", resp.Body.ContentLength()),
	)
	return resp, nil
}

type outcome[T any] struct {
	v   T
	err error
}

// doneNotifier reports completion without being awaited, e.g. a
// *future.Deferred.
type doneNotifier interface {
	Done() <-chan struct{}
}

// await returns as soon as both values resolve, either value fails or ctx
// is done. It never waits on a straggling value: a body which resolves
// after await has given up is closed in the background.
func await(ctx context.Context, cb Callback) (Metadata, io.ReadCloser, error) {
	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	mdCh := make(chan outcome[Metadata], 1)
	bodyCh := make(chan outcome[io.ReadCloser], 1)
	go func() {
		md, err := awaitValue(actx, cb.ResponseMetadata())
		mdCh <- outcome[Metadata]{v: md, err: err}
	}()
	go func() {
		body, err := awaitBody(actx, cb.BodySource())
		bodyCh <- outcome[io.ReadCloser]{v: body, err: err}
	}()

	var (
		md       Metadata
		body     io.ReadCloser
		gotMd    bool
		gotBody  bool
		awaitErr error
	)
	for awaitErr == nil && !(gotMd && gotBody) {
		select {
		case o := <-mdCh:
			gotMd = true
			if o.err != nil {
				awaitErr = ResponseMetadataUnavailableError{Cause: o.err}
				continue
			}
			md = o.v
		case o := <-bodyCh:
			gotBody = true
			if o.err != nil {
				awaitErr = BodySourceUnavailableError{Cause: o.err}
				continue
			}
			body = o.v
		case <-ctx.Done():
			awaitErr = context.Cause(ctx)
		}
	}
	if awaitErr == nil {
		return md, body, nil
	}

	cancel()
	if !gotBody {
		go closeLate(bodyCh)
	}
	if body != nil {
		body.Close()
	}
	if ctx.Err() != nil {
		return Metadata{}, nil, CanceledError{Cause: context.Cause(ctx)}
	}
	return Metadata{}, nil, awaitErr
}

func awaitValue[T any](ctx context.Context, v future.Value[T]) (t T, err error) {
	defer try.Recover(&err)

	return v.Await(ctx)
}

// awaitBody awaits src. If ctx ends the wait but src can still complete,
// it keeps watching src and closes a body which arrives late.
func awaitBody(ctx context.Context, src future.Value[io.ReadCloser]) (io.ReadCloser, error) {
	body, err := awaitValue(ctx, src)
	if err == nil || ctx.Err() == nil {
		return body, err
	}

	d, ok := src.(doneNotifier)
	if !ok {
		return nil, err
	}
	<-d.Done()

	late, lerr := awaitValue(context.WithoutCancel(ctx), src)
	if lerr == nil && late != nil {
		late.Close()
	}
	return nil, err
}

func closeLate(bodyCh <-chan outcome[io.ReadCloser]) {
	o := <-bodyCh
	if o.err != nil || o.v == nil {
		return
	}
	o.v.Close()
}

func (a *Assembler) assemble(req *http.Request, md Metadata, body io.ReadCloser) *Response {
	h := md.Header
	if a.decodedByTransport(h) {
		h = h.Without("Content-Length", "Content-Encoding")
	}

	resp := a.metadataResponse(req, md)
	resp.Header = h
	resp.Body = newBody(body, ResolveContentLength(h), ResolveContentType(h))
	return resp
}

func (a *Assembler) metadataResponse(req *http.Request, md Metadata) *Response {
	chain := make([]string, len(md.URLChain))
	copy(chain, md.URLChain)

	return &Response{
		Request:           req,
		URL:               md.URL,
		URLChain:          chain,
		StatusCode:        md.StatusCode,
		StatusText:        md.StatusText,
		Protocol:          protocol.Resolve(md.NegotiatedProtocol),
		Header:            md.Header,
		WasCached:         md.WasCached,
		ProxyServer:       md.ProxyServer,
		ReceivedByteCount: md.ReceivedByteCount,
	}
}

// priorResponses links redirects, oldest first, into a chain ending
// at the most recent redirect.
func (a *Assembler) priorResponses(req *http.Request, redirects []Metadata) *Response {
	var prior *Response
	for _, md := range redirects {
		resp := a.metadataResponse(requestFor(req, md.URL), md)
		resp.Prior = prior
		prior = resp
	}
	return prior
}

func requestFor(req *http.Request, rawURL string) *http.Request {
	if req == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || rawURL == "" {
		return req
	}
	r := req.Clone(req.Context())
	r.URL = u
	r.Host = u.Host
	return r
}

func (a *Assembler) decodedByTransport(h header.View) bool {
	if len(a.decoded) == 0 {
		return false
	}

	n := 0
	for _, value := range h.Values("Content-Encoding") {
		for _, enc := range strings.Split(value, ",") {
			enc = strings.ToLower(strings.TrimSpace(enc))
			if enc == "" {
				continue
			}
			if _, ok := a.decoded[enc]; !ok {
				return false
			}
			n++
		}
	}
	return n > 0
}
