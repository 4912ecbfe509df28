// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bridge

import (
	"strconv"

	"github.com/z5labs/bridge/pkg/header"
	"github.com/z5labs/bridge/pkg/mediatype"
)

// UnknownLength is the content length of a body whose size can not be
// determined. It is distinct from a declared length of zero.
const UnknownLength int64 = -1

// ResolveContentLength returns the last Content-Length value as a byte
// count. Absent, negative or non base-10 values yield UnknownLength.
func ResolveContentLength(h header.View) int64 {
	s, ok := h.Lookup("Content-Length")
	if !ok {
		return UnknownLength
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return UnknownLength
	}
	return n
}

// ResolveContentType parses the last Content-Type value. It returns nil
// if the header is absent or does not follow the media type grammar.
func ResolveContentType(h header.View) *mediatype.MediaType {
	s, ok := h.Lookup("Content-Type")
	if !ok {
		return nil
	}
	mt, err := mediatype.Parse(s)
	if err != nil {
		return nil
	}
	return &mt
}
