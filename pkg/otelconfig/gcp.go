// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"context"
	"time"

	texporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/api/option"
)

// GoogleCloudConfig exports spans directly to Cloud Trace.
type GoogleCloudConfig struct {
	Common

	// ProjectID may be empty when it can be detected from the environment.
	ProjectID string

	// CredentialsFile is a service account key file. Empty means
	// Application Default Credentials.
	CredentialsFile string

	// BatchTimeout bounds how long spans are buffered before export.
	// Zero keeps the SDK default.
	BatchTimeout time.Duration
}

// GoogleCloudOption configures GoogleCloud.
type GoogleCloudOption interface {
	ApplyGCP(*GoogleCloudConfig)
}

type gcpOptionFunc func(*GoogleCloudConfig)

func (f gcpOptionFunc) ApplyGCP(cfg *GoogleCloudConfig) {
	f(cfg)
}

// GoogleCloudProjectID sets the project spans are written to.
func GoogleCloudProjectID(id string) GoogleCloudOption {
	return gcpOptionFunc(func(cfg *GoogleCloudConfig) {
		cfg.ProjectID = id
	})
}

// GoogleCloudCredentialsFile authenticates with a service account key file.
func GoogleCloudCredentialsFile(path string) GoogleCloudOption {
	return gcpOptionFunc(func(cfg *GoogleCloudConfig) {
		cfg.CredentialsFile = path
	})
}

// GoogleCloudBatchTimeout sets GoogleCloudConfig.BatchTimeout.
func GoogleCloudBatchTimeout(d time.Duration) GoogleCloudOption {
	return gcpOptionFunc(func(cfg *GoogleCloudConfig) {
		cfg.BatchTimeout = d
	})
}

// GoogleCloud returns an Initializer for exporting traces directly to Cloud Trace.
func GoogleCloud(opts ...GoogleCloudOption) Initializer {
	var cfg GoogleCloudConfig
	for _, opt := range opts {
		opt.ApplyGCP(&cfg)
	}
	return cfg
}

func (cfg GoogleCloudConfig) clientOptions() []option.ClientOption {
	opts := []option.ClientOption{option.WithTelemetryDisabled()}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	return opts
}

func (cfg GoogleCloudConfig) batchOptions() []sdktrace.BatchSpanProcessorOption {
	if cfg.BatchTimeout <= 0 {
		return nil
	}
	return []sdktrace.BatchSpanProcessorOption{sdktrace.WithBatchTimeout(cfg.BatchTimeout)}
}

// Init implements the Initializer interface.
func (cfg GoogleCloudConfig) Init(ctx context.Context) (Provider, error) {
	exporter, err := texporter.New(
		texporter.WithContext(ctx),
		texporter.WithProjectID(cfg.ProjectID),
		texporter.WithTraceClientOptions(cfg.clientOptions()),
	)
	if err != nil {
		return nil, err
	}

	res, err := cfg.resource(ctx, resource.WithDetectors(gcp.NewDetector()))
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(cfg.sampler()),
		sdktrace.WithBatcher(exporter, cfg.batchOptions()...),
		sdktrace.WithResource(res),
	), nil
}
