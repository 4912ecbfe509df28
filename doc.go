// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package bridge adapts callback-driven network transports to synchronous
// HTTP clients.
//
// A transport reports each request attempt through a [Callback] exposing
// two independently resolving deferred values: the response [Metadata]
// (status line, headers, negotiated protocol, URL chain) and the body
// stream. An [Assembler] joins both and reshapes them into a [Response]:
//
//   - the negotiated protocol token is resolved to a [protocol.Protocol],
//     falling back to HTTP/1.0 for anything unrecognized
//   - the last Content-Length header becomes the body length, or
//     [UnknownLength] when absent, negative or not a number
//   - the last Content-Type header becomes the body media type, or nil
//     when absent or malformed
//   - headers are copied as delivered, preserving order and casing
//
// Only the deferred values themselves can make assembly fail, with
// [ResponseMetadataUnavailableError], [BodySourceUnavailableError] or,
// when the caller gives up first, [CanceledError].
//
// # Basic Usage
//
//	a := bridge.NewAssembler(bridge.LogHandler(h))
//	resp, err := a.ToResponse(ctx, req, cb)
//	if err != nil {
//	    return err
//	}
//	defer resp.Body.Close()
//	text, err := resp.Body.Text()
package bridge
