// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ErrMissingTarget is returned when no OTLP collector target is set.
var ErrMissingTarget = errors.New("otlp: missing collector target")

// OTLPConfig exports spans to an OTLP collector over gRPC.
type OTLPConfig struct {
	Common

	// gRPC target string which is passed to grpc.DialContext.
	Target      string
	DialTimeout time.Duration
}

// OTLPOption configures OTLP.
type OTLPOption interface {
	ApplyOTLP(*OTLPConfig)
}

type otlpOptionFunc func(*OTLPConfig)

func (f otlpOptionFunc) ApplyOTLP(cfg *OTLPConfig) {
	f(cfg)
}

// OTLPTarget sets the collector address, e.g. "localhost:4317".
func OTLPTarget(target string) OTLPOption {
	return otlpOptionFunc(func(cfg *OTLPConfig) {
		cfg.Target = target
	})
}

// OTLPDialTimeout bounds connecting to the collector. Default: 1s.
func OTLPDialTimeout(d time.Duration) OTLPOption {
	return otlpOptionFunc(func(cfg *OTLPConfig) {
		cfg.DialTimeout = d
	})
}

// OTLP returns an Initializer for exporting spans to a collector.
func OTLP(opts ...OTLPOption) Initializer {
	cfg := OTLPConfig{
		DialTimeout: time.Second,
	}
	for _, opt := range opts {
		opt.ApplyOTLP(&cfg)
	}
	return cfg
}

// Init implements the Initializer interface.
func (cfg OTLPConfig) Init(ctx context.Context) (Provider, error) {
	if cfg.Target == "" {
		return nil, ErrMissingTarget
	}

	res, err := cfg.resource(ctx)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	conn, err := grpc.DialContext(
		dialCtx,
		cfg.Target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		conn.Close()
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(cfg.sampler()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	return tp, nil
}
