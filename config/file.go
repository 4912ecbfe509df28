// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// File is a Source which opens and decodes a file when applied.
type File struct {
	path     string
	optional bool
}

// FileOption configures a File.
type FileOption func(*File)

// Optional makes a missing file apply nothing instead of failing.
func Optional() FileOption {
	return func(f *File) {
		f.optional = true
	}
}

// FromFile returns a File for path. Files ending in ".json" are decoded
// as JSON, everything else as YAML.
func FromFile(path string, opts ...FileOption) File {
	f := File{path: path}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Apply implements the Source interface.
func (src File) Apply(store Store) error {
	f, err := os.Open(src.path)
	if err != nil && src.optional && os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(src.path), ".json") {
		return FromJson(f).Apply(store)
	}
	return FromYaml(f).Apply(store)
}
