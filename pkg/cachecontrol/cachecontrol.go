// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package cachecontrol parses Cache-Control response directives.
package cachecontrol

import (
	"math"
	"strconv"
	"strings"

	"github.com/pquerna/cachecontrol/cacheobject"
)

// Directives holds the parsed Cache-Control directives of a response.
// Numeric directives are in seconds and are -1 when absent.
type Directives struct {
	NoCache        bool
	NoStore        bool
	NoTransform    bool
	Private        bool
	Public         bool
	MustRevalidate bool
	Immutable      bool
	OnlyIfCached   bool

	MaxAgeSeconds   int
	SMaxAgeSeconds  int
	MaxStaleSeconds int
	MinFreshSeconds int
}

// Parse combines every given Cache-Control value into one set of
// Directives. Unknown directives and malformed numbers are ignored.
//
// Each directive is handed to cacheobject on its own since it rejects a
// whole value over a single malformed directive.
func Parse(values ...string) Directives {
	d := Directives{
		MaxAgeSeconds:   -1,
		SMaxAgeSeconds:  -1,
		MaxStaleSeconds: -1,
		MinFreshSeconds: -1,
	}
	for _, value := range values {
		for _, item := range splitDirectives(value) {
			name, arg, hasArg := strings.Cut(item, "=")
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}

			directive := name
			switch name {
			case "private", "no-cache":
				// field name lists only narrow the directive
			default:
				if hasArg {
					directive += "=" + strings.Trim(strings.TrimSpace(arg), `"`)
				}
			}

			switch name {
			case "max-stale", "min-fresh", "only-if-cached":
				d.applyRequest(directive)
			default:
				d.applyResponse(directive)
			}
		}
	}
	return d
}

func (d *Directives) applyResponse(directive string) {
	rd, err := cacheobject.ParseResponseCacheControl(directive)
	if err != nil {
		return
	}

	d.NoCache = d.NoCache || rd.NoCachePresent
	d.NoStore = d.NoStore || rd.NoStore
	d.NoTransform = d.NoTransform || rd.NoTransform
	d.Private = d.Private || rd.PrivatePresent
	d.Public = d.Public || rd.Public
	d.MustRevalidate = d.MustRevalidate || rd.MustRevalidate
	d.Immutable = d.Immutable || rd.Immutable
	if rd.MaxAge >= 0 {
		d.MaxAgeSeconds = int(rd.MaxAge)
	}
	if rd.SMaxAge >= 0 {
		d.SMaxAgeSeconds = int(rd.SMaxAge)
	}
}

func (d *Directives) applyRequest(directive string) {
	rd, err := cacheobject.ParseRequestCacheControl(directive)
	if err != nil {
		return
	}

	d.OnlyIfCached = d.OnlyIfCached || rd.OnlyIfCached
	switch {
	case rd.MaxStale >= 0:
		d.MaxStaleSeconds = int(rd.MaxStale)
	case rd.MaxStaleSet:
		// a bare max-stale accepts any staleness
		d.MaxStaleSeconds = maxSeconds
	}
	if rd.MinFresh >= 0 {
		d.MinFreshSeconds = int(rd.MinFresh)
	}
}

// FromPragma folds the legacy Pragma header into d.
func (d Directives) FromPragma(values ...string) Directives {
	for _, value := range values {
		for _, item := range splitDirectives(value) {
			if strings.EqualFold(strings.TrimSpace(item), "no-cache") {
				d.NoCache = true
			}
		}
	}
	return d
}

// maxSeconds is where cacheobject clamps delta-seconds.
const maxSeconds = math.MaxInt32

// String formats d as a canonical Cache-Control value.
func (d Directives) String() string {
	var ss []string
	flags := []struct {
		set  bool
		name string
	}{
		{d.NoCache, "no-cache"},
		{d.NoStore, "no-store"},
		{d.NoTransform, "no-transform"},
		{d.Private, "private"},
		{d.Public, "public"},
		{d.MustRevalidate, "must-revalidate"},
		{d.Immutable, "immutable"},
		{d.OnlyIfCached, "only-if-cached"},
	}
	for _, f := range flags {
		if f.set {
			ss = append(ss, f.name)
		}
	}

	nums := []struct {
		n    int
		name string
	}{
		{d.MaxAgeSeconds, "max-age"},
		{d.SMaxAgeSeconds, "s-maxage"},
		{d.MaxStaleSeconds, "max-stale"},
		{d.MinFreshSeconds, "min-fresh"},
	}
	for _, n := range nums {
		if n.n >= 0 {
			ss = append(ss, n.name+"="+strconv.Itoa(n.n))
		}
	}
	return strings.Join(ss, ", ")
}

// splitDirectives splits on commas which are not inside a quoted string,
// e.g. private="set-cookie, x-user".
func splitDirectives(s string) []string {
	var items []string
	quoted := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case ',':
			if quoted {
				continue
			}
			items = append(items, s[start:i])
			start = i + 1
		}
	}
	items = append(items, s[start:])
	return items
}
