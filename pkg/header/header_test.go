// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package header

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func googleComHeaders() View {
	var b Builder
	b.Add("cache-control", "private, max-age=0").
		Add("Content-Type", "text/html; charset=UTF-8").
		Add("content-encoding", "encoding-not-handled-by-transport").
		Add("content-length", "18").
		Add("x-random-header", "FooBar")
	return b.View()
}

func TestView_Lookup(t *testing.T) {
	t.Run("will find a value", func(t *testing.T) {
		t.Run("if the name differs only in case", func(t *testing.T) {
			v := googleComHeaders()

			for _, name := range []string{"content-type", "Content-Type", "CONTENT-TYPE"} {
				value, ok := v.Lookup(name)
				if !assert.True(t, ok, name) {
					return
				}
				if !assert.Equal(t, "text/html; charset=UTF-8", value) {
					return
				}
			}
		})

		t.Run("from the last occurrence if the name is repeated", func(t *testing.T) {
			v := New(
				Field{Name: "Content-Type", Value: "text/html"},
				Field{Name: "x-other", Value: "1"},
				Field{Name: "content-type", Value: "text/plain"},
			)

			if !assert.Equal(t, "text/plain", v.Get("CONTENT-TYPE")) {
				return
			}
		})
	})

	t.Run("will report absence", func(t *testing.T) {
		t.Run("if no field has the name", func(t *testing.T) {
			v := googleComHeaders()

			value, ok := v.Lookup("x-missing")
			if !assert.False(t, ok) {
				return
			}
			if !assert.Empty(t, value) {
				return
			}
			if !assert.False(t, v.Has("x-missing")) {
				return
			}
		})

		t.Run("if the View is the zero value", func(t *testing.T) {
			var v View

			if !assert.False(t, v.Has("content-type")) {
				return
			}
			if !assert.Nil(t, v.Values("content-type")) {
				return
			}
			if !assert.Equal(t, 0, v.Len()) {
				return
			}
		})
	})
}

func TestView_Values(t *testing.T) {
	t.Run("will return values in insertion order", func(t *testing.T) {
		v := New(
			Field{Name: "Set-Cookie", Value: "a=1"},
			Field{Name: "x-other", Value: "1"},
			Field{Name: "set-cookie", Value: "b=2"},
		)

		if !assert.Equal(t, []string{"a=1", "b=2"}, v.Values("SET-COOKIE")) {
			return
		}
	})

	t.Run("will not share storage with the View", func(t *testing.T) {
		v := New(Field{Name: "a", Value: "1"})

		values := v.Values("a")
		values[0] = "2"

		if !assert.Equal(t, "1", v.Get("a")) {
			return
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("will not be affected by later changes to the input", func(t *testing.T) {
		fields := []Field{{Name: "a", Value: "1"}}
		v := New(fields...)

		fields[0].Value = "2"

		if !assert.Equal(t, "1", v.Get("a")) {
			return
		}
	})
}

func TestView_Names(t *testing.T) {
	t.Run("will keep the casing and order of first occurrence", func(t *testing.T) {
		v := New(
			Field{Name: "X-B", Value: "1"},
			Field{Name: "x-a", Value: "2"},
			Field{Name: "x-b", Value: "3"},
		)

		if !assert.Equal(t, []string{"X-B", "x-a"}, v.Names()) {
			return
		}
	})
}

func TestView_Without(t *testing.T) {
	t.Run("will drop every field with a matching name", func(t *testing.T) {
		v := googleComHeaders().Without("Content-Length", "CONTENT-ENCODING")

		if !assert.False(t, v.Has("content-length")) {
			return
		}
		if !assert.False(t, v.Has("content-encoding")) {
			return
		}
		if !assert.Equal(t, 3, v.Len()) {
			return
		}
	})
}

func TestFromHTTP(t *testing.T) {
	t.Run("will be deterministic", func(t *testing.T) {
		h := http.Header{}
		h.Add("X-B", "1")
		h.Add("X-A", "2")
		h.Add("X-B", "3")

		v := FromHTTP(h)

		expected := []Field{
			{Name: "X-A", Value: "2"},
			{Name: "X-B", Value: "1"},
			{Name: "X-B", Value: "3"},
		}
		if !assert.Equal(t, expected, v.Fields()) {
			return
		}
	})
}

func TestView_HTTP(t *testing.T) {
	t.Run("will copy every valid field", func(t *testing.T) {
		h := googleComHeaders().HTTP()

		if !assert.Equal(t, "FooBar", h.Get("x-random-header")) {
			return
		}
		if !assert.Len(t, h, 5) {
			return
		}
	})

	t.Run("will leave out invalid fields", func(t *testing.T) {
		v := New(
			Field{Name: "bad name", Value: "1"},
			Field{Name: "x-bad-value", Value: "a\r\nb"},
			Field{Name: "x-good", Value: "ok"},
		)

		h := v.HTTP()
		if !assert.Len(t, h, 1) {
			return
		}
		if !assert.Equal(t, "ok", h.Get("x-good")) {
			return
		}
	})
}

func TestBuilder_Set(t *testing.T) {
	t.Run("will replace all previous values", func(t *testing.T) {
		var b Builder
		b.Add("content-length", "18").Add("Content-Length", "20").Set("CONTENT-LENGTH", "null")

		v := b.View()
		if !assert.Equal(t, []string{"null"}, v.Values("content-length")) {
			return
		}
	})
}
