// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package mediatype parses Content-Type header values into their
// structured type, subtype and parameters.
package mediatype

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

// MediaType is the structured form of a media type, e.g. text/html; charset=UTF-8.
// Type, Subtype and parameter names are lower case; parameter values
// keep their original case.
type MediaType struct {
	Type    string
	Subtype string
	Params  map[string]string
}

// InvalidError is returned by Parse for values which do not follow the
// media type grammar.
type InvalidError struct {
	Value string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidError) Error() string {
	return fmt.Sprintf("invalid media type %q: %s", e.Value, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidError) Unwrap() error {
	return e.Cause
}

var errMissingSubtype = errors.New("missing subtype")

// Parse parses a Content-Type value. A value with a well formed
// type/subtype but malformed parameters is still rejected.
func Parse(s string) (MediaType, error) {
	full, params, err := mime.ParseMediaType(s)
	if err != nil {
		return MediaType{}, InvalidError{Value: s, Cause: err}
	}

	// mime.ParseMediaType also accepts bare Content-Disposition tokens
	typ, sub, _ := strings.Cut(full, "/")
	if sub == "" {
		return MediaType{}, InvalidError{Value: s, Cause: errMissingSubtype}
	}
	mt := MediaType{
		Type:    typ,
		Subtype: sub,
		Params:  params,
	}
	return mt, nil
}

// Charset returns the charset parameter, if any.
func (m MediaType) Charset() string {
	v, _ := m.Param("charset")
	return v
}

// Param returns the named parameter, matching the name case-insensitively.
func (m MediaType) Param(name string) (string, bool) {
	v, ok := m.Params[strings.ToLower(name)]
	return v, ok
}

// Equal reports whether m and o describe the same media type.
func (m MediaType) Equal(o MediaType) bool {
	if m.Type != o.Type || m.Subtype != o.Subtype || len(m.Params) != len(o.Params) {
		return false
	}
	for k, v := range m.Params {
		ov, ok := o.Params[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// String formats m as a Content-Type header value.
func (m MediaType) String() string {
	return mime.FormatMediaType(m.Type+"/"+m.Subtype, m.Params)
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
func (m *MediaType) UnmarshalText(b []byte) error {
	mt, err := Parse(string(b))
	if err != nil {
		return err
	}
	*m = mt
	return nil
}
