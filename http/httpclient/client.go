// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpclient builds an http.Client on top of a callback transport.
package httpclient

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/z5labs/bridge"
	"github.com/z5labs/bridge/http/httpbridge"
	"github.com/z5labs/bridge/pkg/noop"
	"github.com/z5labs/bridge/pkg/slogfield"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

type circuitOptions struct {
	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
	tripCount   uint32
	statusCodes []int
}

func withCircuitOption(f func(*circuitOptions)) Option {
	return func(o *options) {
		if o.co == nil {
			o.co = new(circuitOptions)
		}
		f(o.co)
	}
}

// HalfOpenRequests is how many requests a half open circuit lets through.
func HalfOpenRequests(n uint32) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.maxRequests = n
	})
}

// OpenStateTimeout is how long the circuit stays open before going half open.
func OpenStateTimeout(d time.Duration) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.timeout = d
	})
}

// CountResetInterval is how often a closed circuit clears its failure counts.
func CountResetInterval(d time.Duration) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.interval = d
	})
}

// TripAfter opens the circuit after n consecutive failures. Default: 5.
func TripAfter(n uint32) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.tripCount = n
	})
}

// TripOnStatusCodes counts responses with any of the given status codes
// as failures. Default: 500, 502, 503 and 504.
func TripOnStatusCodes(codes ...int) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.statusCodes = append(co.statusCodes, codes...)
	})
}

type options struct {
	timeout time.Duration

	name           string
	logHandler     slog.Handler
	tracerProvider trace.TracerProvider
	assembler      []bridge.Option

	limit rate.Limit
	burst int

	co *circuitOptions
}

// Option configures the http.Client returned by New.
type Option func(*options)

// Name labels the client in logs and names its circuit breaker.
func Name(s string) Option {
	return func(o *options) {
		o.name = s
	}
}

// Timeout provides a global timeout value for the http.Client.
func Timeout(d time.Duration) Option {
	return func(wo *options) {
		wo.timeout = d
	}
}

// LogHandler sets the slog.Handler every layer of the client logs to.
func LogHandler(h slog.Handler) Option {
	return func(wo *options) {
		wo.logHandler = h
	}
}

// TracerProvider sets where client and assembler spans are recorded.
// The global provider is used by default.
func TracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// RateLimit allows at most limit requests per second with bursts of up
// to burst requests.
func RateLimit(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.limit = limit
		o.burst = burst
	}
}

// AssemblerOptions configures how responses are assembled.
func AssemblerOptions(opts ...bridge.Option) Option {
	return func(o *options) {
		o.assembler = append(o.assembler, opts...)
	}
}

// New returns an http.Client whose requests are started on t. The
// client never follows redirects itself; t decides that.
func New(t httpbridge.Transport, opts ...Option) *http.Client {
	o := &options{
		logHandler: noop.LogHandler{},
	}
	for _, opt := range opts {
		opt(o)
	}

	logger := slog.New(o.logHandler)
	if o.name != "" {
		logger = logger.With(slogfield.String("http_client", o.name))
	}

	assemblerOpts := o.assembler
	if o.tracerProvider != nil {
		assemblerOpts = append([]bridge.Option{bridge.TracerProvider(o.tracerProvider)}, assemblerOpts...)
	}

	var rt http.RoundTripper = httpbridge.NewRoundTripper(
		t,
		httpbridge.LogHandler(logger.Handler()),
		httpbridge.AssemblerOptions(assemblerOpts...),
	)
	rt = &logRoundTripper{
		base: rt,
		log:  logger,
	}
	if o.co != nil {
		rt = newCircuitRoundTripper(rt, o.name, o.co, logger)
	}
	if o.limit > 0 {
		rt = &rateLimitRoundTripper{
			base:    rt,
			limiter: rate.NewLimiter(o.limit, max(o.burst, 1)),
		}
	}

	otelOpts := []otelhttp.Option{}
	if o.tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(o.tracerProvider))
	}
	rt = otelhttp.NewTransport(rt, otelOpts...)

	return &http.Client{
		Timeout:   o.timeout,
		Transport: rt,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type logRoundTripper struct {
	base http.RoundTripper
	log  *slog.Logger
}

func (rt *logRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()
	rt.log.InfoContext(
		ctx,
		"request sent",
		slogfield.String("url", req.URL.String()),
	)
	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		rt.log.ErrorContext(
			ctx,
			"request failed",
			slogfield.String("url", req.URL.String()),
			slogfield.Error(err),
		)
		return nil, err
	}
	rt.log.InfoContext(
		ctx,
		"response received",
		slogfield.String("url", req.URL.String()),
		slogfield.Int("status_code", resp.StatusCode),
		slogfield.Duration("latency", time.Since(start)),
	)
	return resp, nil
}

type statusCodeError struct {
	code int
}

func (e statusCodeError) Error() string {
	return fmt.Sprintf("received failure status code: %d", e.code)
}

type circuitRoundTripper struct {
	base   http.RoundTripper
	cb     *gobreaker.CircuitBreaker
	tripOn map[int]struct{}
}

func newCircuitRoundTripper(base http.RoundTripper, name string, co *circuitOptions, logger *slog.Logger) *circuitRoundTripper {
	tripCount := co.tripCount
	if tripCount == 0 {
		tripCount = 5
	}

	statusCodes := co.statusCodes
	if len(statusCodes) == 0 {
		statusCodes = []int{
			http.StatusInternalServerError, // 500
			http.StatusBadGateway,          // 502
			http.StatusServiceUnavailable,  // 503
			http.StatusGatewayTimeout,      // 504
		}
	}
	tripOn := make(map[int]struct{}, len(statusCodes))
	for _, code := range statusCodes {
		tripOn[code] = struct{}{}
	}

	return &circuitRoundTripper{
		base:   base,
		tripOn: tripOn,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: co.maxRequests,
			Interval:    co.interval,
			Timeout:     co.timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= tripCount
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				switch to {
				case gobreaker.StateOpen:
					logger.Error("circuit has been opened")
				case gobreaker.StateHalfOpen:
					logger.Warn(
						"circuit is now half open and letting some requests through",
						slogfield.Uint32("max_requests_allowed_through", co.maxRequests),
					)
				case gobreaker.StateClosed:
					logger.Info("circuit has been closed")
				}
			},
		}),
	}
}

func (rt *circuitRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	v, err := rt.cb.Execute(func() (interface{}, error) {
		resp, err := rt.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if _, ok := rt.tripOn[resp.StatusCode]; ok {
			return resp, statusCodeError{code: resp.StatusCode}
		}
		return resp, nil
	})

	var serr statusCodeError
	if errors.As(err, &serr) {
		return v.(*http.Response), nil
	}
	if err != nil {
		return nil, err
	}
	return v.(*http.Response), nil
}

type rateLimitRoundTripper struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (rt *rateLimitRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	err := rt.limiter.Wait(req.Context())
	if err != nil {
		return nil, err
	}
	return rt.base.RoundTrip(req)
}
