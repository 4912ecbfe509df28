// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bridge

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/z5labs/bridge/internal/try"
	"github.com/z5labs/bridge/pkg/cachecontrol"
	"github.com/z5labs/bridge/pkg/header"
	"github.com/z5labs/bridge/pkg/mediatype"
	"github.com/z5labs/bridge/pkg/protocol"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Response is an assembled response. It holds no reference to the
// transport that produced it.
type Response struct {
	// Request is the request this response answers. For a Prior
	// response it targets the URL of that redirect hop.
	Request *http.Request

	URL      string
	URLChain []string

	StatusCode int
	StatusText string
	Protocol   protocol.Protocol
	Header     header.View

	// Body is nil for Prior responses.
	Body *Body

	WasCached   bool
	ProxyServer string

	// ReceivedByteCount is what the transport received before the body,
	// i.e. the status line and headers. Body.ReadByteCount counts the
	// body as it is read.
	ReceivedByteCount int64

	// Prior is the redirect response which led to this one, if the
	// transport followed any redirects.
	Prior *Response
}

// CacheControl parses the Cache-Control and Pragma headers.
func (r *Response) CacheControl() cachecontrol.Directives {
	return cachecontrol.Parse(r.Header.Values("Cache-Control")...).FromPragma(r.Header.Values("Pragma")...)
}

// HTTP exports r as a net/http response. The returned response shares
// r's body. An empty StatusText is replaced by the standard reason phrase.
func (r *Response) HTTP() *http.Response {
	proto, major, minor := r.Protocol.Version()

	reason := r.StatusText
	if reason == "" {
		reason = http.StatusText(r.StatusCode)
	}
	status := strings.TrimSpace(strconv.Itoa(r.StatusCode) + " " + reason)

	resp := &http.Response{
		Status:        status,
		StatusCode:    r.StatusCode,
		Proto:         proto,
		ProtoMajor:    major,
		ProtoMinor:    minor,
		Header:        r.Header.HTTP(),
		Body:          http.NoBody,
		ContentLength: UnknownLength,
		Request:       r.Request,
	}
	if r.Body != nil {
		resp.Body = r.Body
		resp.ContentLength = r.Body.ContentLength()
	}
	return resp
}

// Body is a lazily read response body. Nothing is read from the
// underlying stream until Read, Bytes or Text is called. Its declared
// length and media type come from the response headers.
type Body struct {
	r           io.ReadCloser
	length      int64
	contentType *mediatype.MediaType

	read atomic.Int64
}

func newBody(r io.ReadCloser, length int64, contentType *mediatype.MediaType) *Body {
	if r == nil {
		r = http.NoBody
	}
	return &Body{
		r:           r,
		length:      length,
		contentType: contentType,
	}
}

// ContentLength is the declared length in bytes, or UnknownLength.
func (b *Body) ContentLength() int64 {
	return b.length
}

// ContentType is the declared media type, or nil if the response did not
// declare a valid one.
func (b *Body) ContentType() *mediatype.MediaType {
	if b.contentType == nil {
		return nil
	}
	mt := *b.contentType
	return &mt
}

// ReadByteCount is the number of body bytes read so far.
func (b *Body) ReadByteCount() int64 {
	return b.read.Load()
}

// Read implements the [io.Reader] interface.
func (b *Body) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	b.read.Add(int64(n))
	return n, err
}

// Close implements the [io.Closer] interface.
func (b *Body) Close() error {
	return b.r.Close()
}

// Bytes reads the rest of the body and closes it.
func (b *Body) Bytes() (_ []byte, err error) {
	defer try.Close(&err, b.r)

	return io.ReadAll(b)
}

// Text reads the rest of the body and closes it, decoding it with the
// charset of the declared media type. Bodies without a charset, or with
// one that is not recognized, are returned as is.
func (b *Body) Text() (string, error) {
	p, err := b.Bytes()
	if err != nil {
		return "", err
	}

	charset := ""
	if b.contentType != nil {
		charset = b.contentType.Charset()
	}
	if charset == "" || strings.EqualFold(charset, "utf-8") {
		return string(p), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(p), nil
	}
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(p), enc.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
