// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bridge

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/z5labs/bridge/internal/try"
	"github.com/z5labs/bridge/pkg/header"
	"github.com/z5labs/bridge/pkg/mediatype"
	"github.com/z5labs/bridge/pkg/protocol"

	"github.com/stretchr/testify/assert"
)

func mustParseMediaType(t *testing.T, s string) mediatype.MediaType {
	mt, err := mediatype.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return mt
}

func TestResponse_HTTP(t *testing.T) {
	t.Run("will export every field", func(t *testing.T) {
		mt := mustParseMediaType(t, "text/html; charset=UTF-8")
		resp := &Response{
			StatusCode: 200,
			Protocol:   protocol.HTTP2,
			Header: header.New(
				header.Field{Name: "content-type", Value: "text/html; charset=UTF-8"},
				header.Field{Name: "x-random-header", Value: "FooBar"},
			),
			Body: newBody(io.NopCloser(strings.NewReader(googleComBody)), 18, &mt),
		}

		hr := resp.HTTP()

		if !assert.Equal(t, "200 OK", hr.Status) {
			return
		}
		if !assert.Equal(t, "HTTP/2.0", hr.Proto) {
			return
		}
		if !assert.Equal(t, 2, hr.ProtoMajor) {
			return
		}
		if !assert.Equal(t, int64(18), hr.ContentLength) {
			return
		}
		if !assert.Equal(t, "FooBar", hr.Header.Get("X-Random-Header")) {
			return
		}

		b, err := io.ReadAll(hr.Body)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, googleComBody, string(b)) {
			return
		}
	})

	t.Run("will keep a custom status text", func(t *testing.T) {
		resp := &Response{StatusCode: 299, StatusText: "Mostly Fine"}

		if !assert.Equal(t, "299 Mostly Fine", resp.HTTP().Status) {
			return
		}
	})

	t.Run("will use an empty body", func(t *testing.T) {
		t.Run("if the response has no body", func(t *testing.T) {
			hr := (&Response{StatusCode: http.StatusFound}).HTTP()

			if !assert.Equal(t, http.NoBody, hr.Body) {
				return
			}
			if !assert.Equal(t, UnknownLength, hr.ContentLength) {
				return
			}
		})
	})
}

type failingCloser struct {
	io.Reader
	err error
}

func (c failingCloser) Close() error {
	return c.err
}

func TestBody_Text(t *testing.T) {
	t.Run("will decode the declared charset", func(t *testing.T) {
		mt := mustParseMediaType(t, "text/plain; charset=ISO-8859-1")
		b := newBody(io.NopCloser(strings.NewReader("caf\xe9")), 4, &mt)

		text, err := b.Text()
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "café", text) {
			return
		}
	})

	t.Run("will return the raw bytes", func(t *testing.T) {
		t.Run("if the charset is not recognized", func(t *testing.T) {
			mt := mustParseMediaType(t, "text/plain; charset=klingon")
			b := newBody(io.NopCloser(strings.NewReader("hello")), 5, &mt)

			text, err := b.Text()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello", text) {
				return
			}
		})
	})

	t.Run("will return a CloseError", func(t *testing.T) {
		t.Run("if the stream fails to close", func(t *testing.T) {
			closeErr := errors.New("close failed")
			b := newBody(failingCloser{Reader: strings.NewReader("hello"), err: closeErr}, 5, nil)

			_, err := b.Text()

			var cerr try.CloseError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
			if !assert.ErrorIs(t, err, closeErr) {
				return
			}
		})
	})
}

func TestBody_ReadByteCount(t *testing.T) {
	t.Run("will count every byte read", func(t *testing.T) {
		b := newBody(io.NopCloser(strings.NewReader(googleComBody)), UnknownLength, nil)

		p := make([]byte, 5)
		_, err := io.ReadFull(b, p)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, int64(5), b.ReadByteCount()) {
			return
		}

		_, err = b.Bytes()
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, int64(len(googleComBody)), b.ReadByteCount()) {
			return
		}
	})

	t.Run("will be zero", func(t *testing.T) {
		t.Run("if nothing was read", func(t *testing.T) {
			b := newBody(io.NopCloser(strings.NewReader(googleComBody)), UnknownLength, nil)

			if !assert.Zero(t, b.ReadByteCount()) {
				return
			}
		})
	})
}

func TestBody_ContentType(t *testing.T) {
	t.Run("will not expose the internal media type", func(t *testing.T) {
		mt := mustParseMediaType(t, "text/plain")
		b := newBody(nil, UnknownLength, &mt)

		got := b.ContentType()
		got.Subtype = "html"

		if !assert.Equal(t, "plain", b.ContentType().Subtype) {
			return
		}
	})

	t.Run("will default to an empty stream", func(t *testing.T) {
		b := newBody(nil, UnknownLength, nil)

		text, err := b.Text()
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Empty(t, text) {
			return
		}
	})
}
