// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package header provides an ordered, case-insensitive, multi-valued
// view over HTTP response headers.
package header

import (
	"net/http"
	"sort"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Field is a single header line as delivered by a transport.
type Field struct {
	Name  string
	Value string
}

// Valid reports whether the field name is a valid RFC 7230 token
// and the value contains no forbidden bytes.
func (f Field) Valid() bool {
	return httpguts.ValidHeaderFieldName(f.Name) && httpguts.ValidHeaderFieldValue(f.Value)
}

// View is an immutable sequence of header fields. Name comparison is
// case-insensitive while iteration preserves insertion order and the
// original casing of every field.
//
// The zero value is an empty View.
type View struct {
	fields []Field

	// folded name -> positions in fields, in insertion order
	index map[string][]int
}

// New returns a View holding a copy of the given fields.
func New(fields ...Field) View {
	v := View{
		fields: make([]Field, len(fields)),
		index:  make(map[string][]int, len(fields)),
	}
	copy(v.fields, fields)
	for i, f := range v.fields {
		k := fold(f.Name)
		v.index[k] = append(v.index[k], i)
	}
	return v
}

// FromHTTP converts a net/http header map into a View. Since Go maps
// carry no order, names are sorted so the resulting View is deterministic.
// Values of a single name keep their order.
func FromHTTP(h http.Header) View {
	names := make([]string, 0, len(h))
	n := 0
	for name, values := range h {
		names = append(names, name)
		n += len(values)
	}
	sort.Strings(names)

	fields := make([]Field, 0, n)
	for _, name := range names {
		for _, value := range h[name] {
			fields = append(fields, Field{Name: name, Value: value})
		}
	}
	return New(fields...)
}

func fold(name string) string {
	return strings.ToLower(name)
}

// Len returns the number of fields, counting repeated names.
func (v View) Len() int {
	return len(v.fields)
}

// Has reports whether at least one field with the given name exists.
func (v View) Has(name string) bool {
	return len(v.index[fold(name)]) > 0
}

// Lookup returns the last value for name. When a single value is
// required the last occurrence wins.
func (v View) Lookup(name string) (string, bool) {
	idx := v.index[fold(name)]
	if len(idx) == 0 {
		return "", false
	}
	return v.fields[idx[len(idx)-1]].Value, true
}

// Get is like Lookup but returns an empty string for absent names.
func (v View) Get(name string) string {
	s, _ := v.Lookup(name)
	return s
}

// Values returns every value for name in insertion order.
func (v View) Values(name string) []string {
	idx := v.index[fold(name)]
	if len(idx) == 0 {
		return nil
	}
	values := make([]string, len(idx))
	for i, j := range idx {
		values[i] = v.fields[j].Value
	}
	return values
}

// Fields returns a copy of all fields in insertion order.
func (v View) Fields() []Field {
	fields := make([]Field, len(v.fields))
	copy(fields, v.fields)
	return fields
}

// Names returns the distinct header names in order of first occurrence,
// using the casing of that first occurrence.
func (v View) Names() []string {
	seen := make(map[string]struct{}, len(v.index))
	names := make([]string, 0, len(v.index))
	for _, f := range v.fields {
		k := fold(f.Name)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		names = append(names, f.Name)
	}
	return names
}

// Without returns a new View with every field named by names removed.
func (v View) Without(names ...string) View {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		drop[fold(name)] = struct{}{}
	}

	fields := make([]Field, 0, len(v.fields))
	for _, f := range v.fields {
		if _, ok := drop[fold(f.Name)]; ok {
			continue
		}
		fields = append(fields, f)
	}
	return New(fields...)
}

// HTTP converts the View into a net/http header map. Fields which are
// not valid per Field.Valid are left out since net/http would refuse
// to write them anyway.
func (v View) HTTP() http.Header {
	h := make(http.Header, len(v.index))
	for _, f := range v.fields {
		if !f.Valid() {
			continue
		}
		h.Add(f.Name, f.Value)
	}
	return h
}

// Builder accumulates fields for a View.
type Builder struct {
	fields []Field
}

// Add appends a field.
func (b *Builder) Add(name, value string) *Builder {
	b.fields = append(b.fields, Field{Name: name, Value: value})
	return b
}

// Del removes all fields with the given name.
func (b *Builder) Del(name string) *Builder {
	k := fold(name)
	fields := b.fields[:0]
	for _, f := range b.fields {
		if fold(f.Name) == k {
			continue
		}
		fields = append(fields, f)
	}
	b.fields = fields
	return b
}

// Set replaces all fields with the given name by a single field.
func (b *Builder) Set(name, value string) *Builder {
	return b.Del(name).Add(name, value)
}

// View returns an immutable View of the fields added so far.
func (b *Builder) View() View {
	return New(b.fields...)
}
