// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package redirect defines how a transport treats redirect responses.
package redirect

import (
	"net/http"
)

// DefaultMaxRedirects is the number of redirects Default follows.
const DefaultMaxRedirects = 16

// Strategy is an immutable redirect policy handed to a transport when a
// request is started.
type Strategy struct {
	follow bool
	max    int
}

// Default follows up to DefaultMaxRedirects redirects.
func Default() Strategy {
	return WithMaxRedirects(DefaultMaxRedirects)
}

// Never surfaces the first redirect response to the caller.
func Never() Strategy {
	return Strategy{}
}

// WithMaxRedirects follows up to n redirects. n <= 0 is the same as Never.
func WithMaxRedirects(n int) Strategy {
	if n <= 0 {
		return Never()
	}
	return Strategy{follow: true, max: n}
}

// FollowRedirects reports whether any redirect is followed.
func (s Strategy) FollowRedirects() bool {
	return s.follow
}

// MaxRedirects is the number of redirects followed before the redirect
// response itself is returned.
func (s Strategy) MaxRedirects() int {
	return s.max
}

// Allow reports whether another redirect may be followed after
// followed redirects have already been.
func (s Strategy) Allow(followed int) bool {
	return s.follow && followed < s.max
}

// CheckRedirect adapts s to http.Client.CheckRedirect. Once exhausted the
// most recent redirect response is returned as is, with its body intact.
func (s Strategy) CheckRedirect() func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		// via holds the original request plus every redirect followed so far
		if s.Allow(len(via) - 1) {
			return nil
		}
		return http.ErrUseLastResponse
	}
}
