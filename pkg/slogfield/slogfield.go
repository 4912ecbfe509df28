// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package slogfield provides the slog.Attr constructors used across
// the module so log keys stay consistent.
package slogfield

import (
	"log/slog"
	"strings"
	"time"

	"github.com/z5labs/bridge/pkg/header"
)

// Any returns an slog.Attr for the supplied value.
func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// Bool returns an slog.Attr for a bool.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Duration returns an slog.Attr for a time.Duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// Error returns an slog.Attr for a error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// String returns an slog.Attr for a string.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Strings returns an slog.Attr for a slice of strings.
func Strings(key string, values []string) slog.Attr {
	return slog.Any(key, values)
}

// Int returns an slog.Attr for a int.
func Int(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Int64 returns an slog.Attr for a int64.
func Int64(key string, n int64) slog.Attr {
	return slog.Int64(key, n)
}

// Uint32 returns an slog.Attr for a uint32.
func Uint32(key string, n uint32) slog.Attr {
	return slog.Uint64(key, uint64(n))
}

// Float64 returns an slog.Attr for a float64.
func Float64(key string, f float64) slog.Attr {
	return slog.Float64(key, f)
}

// Stringer returns an slog.Attr for anything with a String method.
func Stringer(key string, s interface{ String() string }) slog.Attr {
	return slog.String(key, s.String())
}

// Headers returns a group named "headers" with one attr per header
// name. Keys are lower case so masking can match them reliably.
// Repeated headers are joined with ", ".
func Headers(v header.View) slog.Attr {
	names := v.Names()
	attrs := make([]any, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, slog.String(
			strings.ToLower(name),
			strings.Join(v.Values(name), ", "),
		))
	}
	return slog.Group("headers", attrs...)
}
