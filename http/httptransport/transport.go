// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httptransport provides a callback-driven transport backed by
// net/http. Each started request reports its response metadata and body
// stream through independently resolving future values.
package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/z5labs/bridge"
	"github.com/z5labs/bridge/pkg/future"
	"github.com/z5labs/bridge/pkg/header"
	"github.com/z5labs/bridge/pkg/noop"
	"github.com/z5labs/bridge/pkg/protocol"
	"github.com/z5labs/bridge/pkg/redirect"
	"github.com/z5labs/bridge/pkg/slogfield"
)

type options struct {
	base        http.RoundTripper
	strategy    redirect.Strategy
	readTimeout time.Duration
	proxy       *url.URL
	logHandler  slog.Handler
}

// Option configures a Transport.
type Option func(*options)

// RedirectStrategy sets the redirect policy. Default: redirect.Default().
func RedirectStrategy(s redirect.Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// ReadTimeout bounds each request attempt, including reading the body.
// Zero means no timeout.
func ReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = d
	}
}

// Proxy routes every request through the given proxy URL. It is ignored
// when a custom RoundTripper is given.
func Proxy(u *url.URL) Option {
	return func(o *options) {
		o.proxy = u
	}
}

// RoundTripper replaces the underlying net/http RoundTripper.
func RoundTripper(rt http.RoundTripper) Option {
	return func(o *options) {
		o.base = rt
	}
}

// LogHandler sets the slog.Handler the Transport logs to.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

// Transport starts requests on a net/http client.
type Transport struct {
	client      *http.Client
	proxyServer string
	log         *slog.Logger
}

// New returns a Transport configured by opts.
func New(opts ...Option) *Transport {
	o := &options{
		strategy:   redirect.Default(),
		logHandler: noop.LogHandler{},
	}
	for _, opt := range opts {
		opt(o)
	}

	proxyServer := ""
	if o.base == nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		if o.proxy != nil {
			base.Proxy = http.ProxyURL(o.proxy)
			proxyServer = o.proxy.Host
		}
		o.base = base
	}

	return &Transport{
		client: &http.Client{
			Transport:     o.base,
			CheckRedirect: o.strategy.CheckRedirect(),
			Timeout:       o.readTimeout,
		},
		proxyServer: proxyServer,
		log:         slog.New(o.logHandler),
	}
}

// Start sends req in the background and returns immediately. Failures are
// reported by rejecting both values of the returned Callback.
func (t *Transport) Start(req *http.Request) bridge.Callback {
	cb := &callback{
		md:   future.New[bridge.Metadata](),
		body: future.New[io.ReadCloser](),
	}
	go t.execute(req, cb)
	return cb
}

func (t *Transport) execute(req *http.Request, cb *callback) {
	ctx := req.Context()
	start := time.Now()

	resp, err := t.client.Do(req)
	if err != nil {
		t.log.WarnContext(ctx, "request failed", slogfield.String("url", req.URL.String()), slogfield.Error(err))
		cb.md.Reject(err)
		cb.body.Reject(err)
		return
	}

	t.log.DebugContext(
		ctx,
		"response headers received",
		slogfield.String("url", resp.Request.URL.String()),
		slogfield.Int("status_code", resp.StatusCode),
		slogfield.Duration("latency", time.Since(start)),
	)

	// the caller may have given up while headers were arriving
	if err := ctx.Err(); err != nil {
		resp.Body.Close()
		cause := context.Cause(ctx)
		cb.md.Reject(cause)
		cb.body.Reject(cause)
		return
	}

	// must be set before md resolves so readers awaiting md observe it
	cb.redirects = t.redirectsOf(resp)

	cb.md.Resolve(t.metadataOf(resp, urlChain(resp)))
	if !cb.body.Resolve(resp.Body) {
		resp.Body.Close()
	}
}

type callback struct {
	md        *future.Deferred[bridge.Metadata]
	body      *future.Deferred[io.ReadCloser]
	redirects []bridge.Metadata
}

func (cb *callback) ResponseMetadata() future.Value[bridge.Metadata] { return cb.md }

func (cb *callback) BodySource() future.Value[io.ReadCloser] { return cb.body }

// Redirects implements the bridge.RedirectRecorder interface. It must
// only be called after ResponseMetadata resolved.
func (cb *callback) Redirects() []bridge.Metadata {
	return cb.redirects
}

// priorResponses walks the redirect responses net/http links through
// http.Request.Response, most recent first.
func priorResponses(resp *http.Response) []*http.Response {
	var prior []*http.Response
	for r := resp.Request.Response; r != nil; r = r.Request.Response {
		prior = append(prior, r)
	}
	return prior
}

func urlChain(resp *http.Response) []string {
	prior := priorResponses(resp)
	chain := make([]string, 0, len(prior)+1)
	for i := len(prior) - 1; i >= 0; i-- {
		chain = append(chain, prior[i].Request.URL.String())
	}
	return append(chain, resp.Request.URL.String())
}

func (t *Transport) redirectsOf(resp *http.Response) []bridge.Metadata {
	prior := priorResponses(resp)
	if len(prior) == 0 {
		return nil
	}

	redirects := make([]bridge.Metadata, 0, len(prior))
	for i := len(prior) - 1; i >= 0; i-- {
		redirects = append(redirects, t.metadataOf(prior[i], urlChain(prior[i])))
	}
	return redirects
}

func (t *Transport) metadataOf(resp *http.Response, chain []string) bridge.Metadata {
	return bridge.Metadata{
		URL:                resp.Request.URL.String(),
		URLChain:           chain,
		StatusCode:         resp.StatusCode,
		StatusText:         statusText(resp),
		Header:             header.FromHTTP(resp.Header),
		NegotiatedProtocol: negotiatedProtocol(resp),
		WasCached:          resp.Header.Get("X-From-Cache") == "1",
		ProxyServer:        t.proxyServer,
		ReceivedByteCount:  headerByteCount(resp),
	}
}

func statusText(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

func negotiatedProtocol(resp *http.Response) string {
	if resp.TLS != nil && resp.TLS.NegotiatedProtocol != "" {
		return resp.TLS.NegotiatedProtocol
	}
	switch {
	case resp.ProtoMajor == 2 && resp.TLS == nil:
		return protocol.H2PriorKnowledge.String()
	case resp.ProtoMajor == 2:
		return protocol.HTTP2.String()
	case resp.ProtoAtLeast(1, 1):
		return protocol.HTTP11.String()
	default:
		return protocol.HTTP10.String()
	}
}

// headerByteCount approximates the bytes received before the body as the
// size of an HTTP/1.1 status line and header block. Body bytes are
// counted by bridge.Body as they are read.
func headerByteCount(resp *http.Response) int64 {
	n := len(resp.Proto) + 1 + len(resp.Status) + 2
	for name, values := range resp.Header {
		for _, value := range values {
			n += len(name) + 2 + len(value) + 2
		}
	}
	return int64(n + 2)
}
