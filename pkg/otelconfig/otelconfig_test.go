// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromConfig(t *testing.T) {
	t.Run("will return Noop", func(t *testing.T) {
		t.Run("if no exporter is set", func(t *testing.T) {
			initer, err := FromConfig(Config{})
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, Noop, initer) {
				return
			}
		})
	})

	t.Run("will select the exporter", func(t *testing.T) {
		testCases := []struct {
			Name     string
			Config   Config
			Expected any
		}{
			{
				Name:     "stdout",
				Config:   Config{Exporter: ExporterStdout, ServiceName: "bridgefetch"},
				Expected: LocalConfig{},
			},
			{
				Name:     "otlp",
				Config:   Config{Exporter: "OTLP"},
				Expected: OTLPConfig{},
			},
			{
				Name:     "gcp",
				Config:   Config{Exporter: ExporterGoogleCloud},
				Expected: GoogleCloudConfig{},
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				initer, err := FromConfig(testCase.Config)
				if !assert.Nil(t, err) {
					return
				}
				if !assert.IsType(t, testCase.Expected, initer) {
					return
				}
			})
		}
	})

	t.Run("will carry exporter settings", func(t *testing.T) {
		cfg := Config{Exporter: ExporterOTLP, ServiceName: "bridgefetch", SampleRatio: 0.5}
		cfg.OTLP.Target = "localhost:4317"

		initer, err := FromConfig(cfg)
		if !assert.Nil(t, err) {
			return
		}

		otlp, ok := initer.(OTLPConfig)
		if !assert.True(t, ok) {
			return
		}
		if !assert.Equal(t, "localhost:4317", otlp.Target) {
			return
		}
		if !assert.Equal(t, "bridgefetch", otlp.ServiceName) {
			return
		}
		if !assert.Equal(t, 0.5, otlp.SampleRatio) {
			return
		}
	})

	t.Run("will carry google cloud settings", func(t *testing.T) {
		cfg := Config{Exporter: ExporterGoogleCloud}
		cfg.GoogleCloud.ProjectID = "my-project"
		cfg.GoogleCloud.CredentialsFile = "/etc/bridgefetch/sa.json"
		cfg.GoogleCloud.BatchTimeout = 2 * time.Second

		initer, err := FromConfig(cfg)
		if !assert.Nil(t, err) {
			return
		}

		gc, ok := initer.(GoogleCloudConfig)
		if !assert.True(t, ok) {
			return
		}
		if !assert.Equal(t, "my-project", gc.ProjectID) {
			return
		}
		if !assert.Len(t, gc.clientOptions(), 2) {
			return
		}
		if !assert.Len(t, gc.batchOptions(), 1) {
			return
		}
	})

	t.Run("will return an UnknownExporterError", func(t *testing.T) {
		t.Run("if the exporter is not supported", func(t *testing.T) {
			_, err := FromConfig(Config{Exporter: "zipkin"})

			var uerr UnknownExporterError
			if !assert.ErrorAs(t, err, &uerr) {
				return
			}
			if !assert.Equal(t, Exporter("zipkin"), uerr.Exporter) {
				return
			}
		})
	})
}

func TestLocalConfig_Init(t *testing.T) {
	t.Run("will write ended spans", func(t *testing.T) {
		var buf bytes.Buffer
		tp, err := Local(ServiceName("bridgefetch"), LocalWriter(&buf)).Init(context.Background())
		if !assert.Nil(t, err) {
			return
		}

		_, span := tp.Tracer("otelconfig").Start(context.Background(), "get")
		span.End()

		err = tp.Shutdown(context.Background())
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Contains(t, buf.String(), `"Name":"get"`) {
			return
		}
		if !assert.Contains(t, buf.String(), "bridgefetch") {
			return
		}
	})
}

func TestOTLPConfig_Init(t *testing.T) {
	t.Run("will return ErrMissingTarget", func(t *testing.T) {
		t.Run("if no target is set", func(t *testing.T) {
			_, err := OTLP().Init(context.Background())
			if !assert.ErrorIs(t, err, ErrMissingTarget) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the collector can not be reached", func(t *testing.T) {
			initer := OTLP(
				OTLPTarget("127.0.0.1:1"),
				OTLPDialTimeout(50*time.Millisecond),
			)

			_, err := initer.Init(context.Background())
			if !assert.Error(t, err) {
				return
			}
		})
	})
}

func TestNoop(t *testing.T) {
	t.Run("will not record spans", func(t *testing.T) {
		tp, err := Noop.Init(context.Background())
		if !assert.Nil(t, err) {
			return
		}

		_, span := tp.Tracer("otelconfig").Start(context.Background(), "get")
		defer span.End()

		if !assert.False(t, span.IsRecording()) {
			return
		}
		if !assert.Nil(t, tp.Shutdown(context.Background())) {
			return
		}
	})
}
