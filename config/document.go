// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/z5labs/bridge/internal/try"

	"gopkg.in/yaml.v3"
)

// InvalidYamlError occurs if a YAML document can not be decoded.
type InvalidYamlError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidYamlError) Error() string {
	return fmt.Sprintf("invalid yaml: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidYamlError) Unwrap() error {
	return e.Cause
}

// InvalidJsonError occurs if a JSON document can not be decoded.
type InvalidJsonError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidJsonError) Error() string {
	return fmt.Sprintf("invalid json: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidJsonError) Unwrap() error {
	return e.Cause
}

type decodeFunc func([]byte) (map[string]any, error)

// Document is a Source read from a single YAML or JSON document.
type Document struct {
	r      io.Reader
	decode decodeFunc
}

// FromYaml returns a Document decoded as YAML. The reader is closed
// after reading if it implements io.Closer.
func FromYaml(r io.Reader) Document {
	return Document{r: r, decode: decodeYaml}
}

// FromJson returns a Document decoded as JSON. The reader is closed
// after reading if it implements io.Closer.
func FromJson(r io.Reader) Document {
	return Document{r: r, decode: decodeJson}
}

// Apply implements the Source interface. An empty document applies
// nothing.
func (src Document) Apply(store Store) (err error) {
	c, _ := src.r.(io.Closer)
	defer try.Close(&err, c)

	b, err := io.ReadAll(src.r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}

	m, err := src.decode(b)
	if err != nil {
		return err
	}
	return Map(m).Apply(store)
}

func decodeYaml(b []byte) (map[string]any, error) {
	m := make(map[string]any)
	err := yaml.Unmarshal(b, &m)
	if err != nil {
		return nil, InvalidYamlError{Cause: err}
	}
	return m, nil
}

func decodeJson(b []byte) (map[string]any, error) {
	m := make(map[string]any)
	err := json.Unmarshal(b, &m)
	if err != nil {
		return nil, InvalidJsonError{Cause: err}
	}
	return m, nil
}
