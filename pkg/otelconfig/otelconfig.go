// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelconfig builds OpenTelemetry tracer providers for the
// supported span exporters.
package otelconfig

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Exporter names where spans are sent.
type Exporter string

const (
	ExporterNone        Exporter = "none"
	ExporterStdout      Exporter = "stdout"
	ExporterOTLP        Exporter = "otlp"
	ExporterGoogleCloud Exporter = "gcp"
)

// Config selects and configures one exporter. It is decoded from the
// "otel" section of the bridgefetch config.
type Config struct {
	ServiceName string   `config:"serviceName"`
	Exporter    Exporter `config:"exporter"`

	// SampleRatio is the fraction of new traces recorded. Values outside
	// (0, 1) mean every trace.
	SampleRatio float64 `config:"sampleRatio"`

	OTLP struct {
		Target string `config:"target"`
	} `config:"otlp"`

	GoogleCloud struct {
		ProjectID       string        `config:"projectId"`
		CredentialsFile string        `config:"credentialsFile"`
		BatchTimeout    time.Duration `config:"batchTimeout"`
	} `config:"gcp"`
}

// Provider is a trace.TracerProvider which must be shut down to flush
// buffered spans.
type Provider interface {
	trace.TracerProvider

	Shutdown(context.Context) error
}

// Initializer builds a Provider.
type Initializer interface {
	Init(context.Context) (Provider, error)
}

// UnknownExporterError is returned by FromConfig for an unsupported
// Exporter.
type UnknownExporterError struct {
	Exporter Exporter
}

// Error implements the [builtin.error] interface.
func (e UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown trace exporter: %q", string(e.Exporter))
}

// FromConfig returns the Initializer cfg selects. An empty Exporter is
// the same as ExporterNone.
func FromConfig(cfg Config) (Initializer, error) {
	common := []CommonOption{
		ServiceName(cfg.ServiceName),
		SampleRatio(cfg.SampleRatio),
	}

	switch Exporter(strings.ToLower(string(cfg.Exporter))) {
	case "", ExporterNone:
		return Noop, nil
	case ExporterStdout:
		opts := make([]LocalOption, 0, len(common))
		for _, opt := range common {
			opts = append(opts, opt)
		}
		return Local(opts...), nil
	case ExporterOTLP:
		opts := []OTLPOption{OTLPTarget(cfg.OTLP.Target)}
		for _, opt := range common {
			opts = append(opts, opt)
		}
		return OTLP(opts...), nil
	case ExporterGoogleCloud:
		opts := []GoogleCloudOption{
			GoogleCloudProjectID(cfg.GoogleCloud.ProjectID),
			GoogleCloudCredentialsFile(cfg.GoogleCloud.CredentialsFile),
			GoogleCloudBatchTimeout(cfg.GoogleCloud.BatchTimeout),
		}
		for _, opt := range common {
			opts = append(opts, opt)
		}
		return GoogleCloud(opts...), nil
	default:
		return nil, UnknownExporterError{Exporter: cfg.Exporter}
	}
}

// Common holds settings shared by every exporter.
type Common struct {
	ServiceName string
	SampleRatio float64
}

func (c Common) sampler() sdktrace.Sampler {
	if c.SampleRatio <= 0 || c.SampleRatio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SampleRatio))
}

func (c Common) resource(ctx context.Context, opts ...resource.Option) (*resource.Resource, error) {
	opts = append(
		opts,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(semconv.ServiceName(c.ServiceName)),
	)
	return resource.New(ctx, opts...)
}

// CommonOption applies to every exporter.
type CommonOption interface {
	GoogleCloudOption
	LocalOption
	OTLPOption
}

type commonOptionFunc func(*Common)

func (f commonOptionFunc) ApplyGCP(cfg *GoogleCloudConfig) {
	f(&cfg.Common)
}

func (f commonOptionFunc) ApplyOTLP(cfg *OTLPConfig) {
	f(&cfg.Common)
}

func (f commonOptionFunc) ApplyLocal(cfg *LocalConfig) {
	f(&cfg.Common)
}

// ServiceName sets the service.name resource attribute.
func ServiceName(name string) CommonOption {
	return commonOptionFunc(func(c *Common) {
		c.ServiceName = name
	})
}

// SampleRatio sets the fraction of new traces recorded.
func SampleRatio(f float64) CommonOption {
	return commonOptionFunc(func(c *Common) {
		c.SampleRatio = f
	})
}

// Noop records nothing.
var Noop Initializer = noopInitializer{}

type noopInitializer struct{}

type noopProvider struct {
	noop.TracerProvider
}

func (noopProvider) Shutdown(context.Context) error { return nil }

func (noopInitializer) Init(context.Context) (Provider, error) {
	return noopProvider{TracerProvider: noop.NewTracerProvider()}, nil
}

// LocalConfig writes spans as JSON to Out.
type LocalConfig struct {
	Common

	Out io.Writer
}

// LocalOption configures Local.
type LocalOption interface {
	ApplyLocal(*LocalConfig)
}

type localOptionFunc func(*LocalConfig)

func (f localOptionFunc) ApplyLocal(cfg *LocalConfig) {
	f(cfg)
}

// LocalWriter sets where Local writes spans. Default: os.Stdout.
func LocalWriter(w io.Writer) LocalOption {
	return localOptionFunc(func(cfg *LocalConfig) {
		cfg.Out = w
	})
}

// Local returns an Initializer for exporting spans to a writer.
func Local(opts ...LocalOption) Initializer {
	cfg := LocalConfig{
		Out: os.Stdout,
	}
	for _, opt := range opts {
		opt.ApplyLocal(&cfg)
	}
	return cfg
}

// Init implements the Initializer interface.
func (cfg LocalConfig) Init(ctx context.Context) (Provider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(cfg.Out),
	)
	if err != nil {
		return nil, err
	}

	res, err := cfg.resource(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(cfg.sampler()),
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}
