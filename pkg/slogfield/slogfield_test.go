// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package slogfield

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/z5labs/bridge/pkg/header"
	"github.com/z5labs/bridge/pkg/protocol"

	"github.com/stretchr/testify/assert"
)

func TestJsonHandler(t *testing.T) {
	testCases := []struct {
		Name     string
		Attrs    []any
		Validate func(*testing.T, map[string]any)
	}{
		{
			Name:  "duration",
			Attrs: []any{Duration("value", 5*time.Second)},
			Validate: func(t *testing.T, m map[string]any) {
				assert.Equal(t, float64(5*time.Second), m["value"])
			},
		},
		{
			Name:  "error",
			Attrs: []any{Error(errors.New("boom"))},
			Validate: func(t *testing.T, m map[string]any) {
				assert.Equal(t, "boom", m["error"])
			},
		},
		{
			Name:  "int64",
			Attrs: []any{Int64("value", -1)},
			Validate: func(t *testing.T, m map[string]any) {
				assert.Equal(t, float64(-1), m["value"])
			},
		},
		{
			Name:  "stringer",
			Attrs: []any{Stringer("value", protocol.HTTP2)},
			Validate: func(t *testing.T, m map[string]any) {
				assert.Equal(t, "h2", m["value"])
			},
		},
		{
			Name: "headers",
			Attrs: []any{Headers(header.New(
				header.Field{Name: "Content-Type", Value: "text/html"},
				header.Field{Name: "Set-Cookie", Value: "a=1"},
				header.Field{Name: "set-cookie", Value: "b=2"},
			))},
			Validate: func(t *testing.T, m map[string]any) {
				expected := map[string]any{
					"content-type": "text/html",
					"set-cookie":   "a=1, b=2",
				}
				assert.Equal(t, expected, m["headers"])
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{}))

			logger.Info("hello", testCase.Attrs...)

			var m map[string]any
			err := json.Unmarshal(buf.Bytes(), &m)
			if !assert.Nil(t, err) {
				return
			}
			testCase.Validate(t, m)
		})
	}
}
