// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/z5labs/bridge/pkg/future"
	"github.com/z5labs/bridge/pkg/header"
)

// Metadata is everything a transport knows about a response before its
// body is read. It is produced once per request attempt and must not be
// modified afterwards.
type Metadata struct {
	URL        string
	URLChain   []string
	StatusCode int

	// StatusText may be empty, e.g. for HTTP/2 responses.
	StatusText string

	Header             header.View
	NegotiatedProtocol string
	WasCached          bool
	ProxyServer        string

	// ReceivedByteCount counts the bytes received before the body.
	ReceivedByteCount int64
}

// Callback is the surface a transport exposes for one request attempt.
// Each value is awaited exactly once by the Assembler, and should stop
// waiting once the context it is awaited with is done.
type Callback interface {
	ResponseMetadata() future.Value[Metadata]
	BodySource() future.Value[io.ReadCloser]
}

// RedirectRecorder is optionally implemented by a Callback whose transport
// followed redirects. Redirects returns the metadata of every redirect
// response in the order they were received.
type RedirectRecorder interface {
	Redirects() []Metadata
}

type callback struct {
	md   future.Value[Metadata]
	body future.Value[io.ReadCloser]
}

// NewCallback returns a Callback over the given values.
func NewCallback(md future.Value[Metadata], body future.Value[io.ReadCloser]) Callback {
	return callback{md: md, body: body}
}

func (cb callback) ResponseMetadata() future.Value[Metadata] { return cb.md }

func (cb callback) BodySource() future.Value[io.ReadCloser] { return cb.body }

// ResponseMetadataUnavailableError is returned when the metadata value of
// a Callback fails.
type ResponseMetadataUnavailableError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ResponseMetadataUnavailableError) Error() string {
	return fmt.Sprintf("response metadata unavailable: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ResponseMetadataUnavailableError) Unwrap() error {
	return e.Cause
}

// BodySourceUnavailableError is returned when the body value of a
// Callback fails.
type BodySourceUnavailableError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e BodySourceUnavailableError) Error() string {
	return fmt.Sprintf("response body source unavailable: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BodySourceUnavailableError) Unwrap() error {
	return e.Cause
}

// CanceledError is returned when the caller's context is done before
// both Callback values resolved.
type CanceledError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e CanceledError) Error() string {
	return fmt.Sprintf("request canceled before response was available: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e CanceledError) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the context was done because its deadline
// passed.
func (e CanceledError) Timeout() bool {
	return errors.Is(e.Cause, context.DeadlineExceeded)
}
