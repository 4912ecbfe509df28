// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"

	"github.com/z5labs/bridge/config/key"
)

// DefaultEnvSeparator separates nested keys in variable names.
const DefaultEnvSeparator = "__"

// EnvOption configures an Env.
type EnvOption func(*Env)

// EnvSeparator overrides DefaultEnvSeparator.
func EnvSeparator(sep string) EnvOption {
	return func(e *Env) {
		e.sep = sep
	}
}

// Environ sets where variables are read from. Default: os.Environ.
func Environ(f func() []string) EnvOption {
	return func(e *Env) {
		e.environ = f
	}
}

// Env is a Source of prefixed environment variables.
type Env struct {
	prefix  string
	sep     string
	environ func() []string
}

// FromEnv returns a Source which applies every environment variable
// starting with prefix. The prefix is stripped and the separator splits
// the rest into nested keys, e.g. BRIDGEFETCH_CLIENT__TIMEOUT sets
// client.timeout for the prefix "BRIDGEFETCH_".
func FromEnv(prefix string, opts ...EnvOption) Env {
	e := Env{
		prefix:  prefix,
		sep:     DefaultEnvSeparator,
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Apply implements the Source interface.
func (src Env) Apply(store Store) error {
	for _, pair := range src.environ() {
		name, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, ok = strings.CutPrefix(name, src.prefix)
		if !ok || name == "" {
			continue
		}

		var chain key.Chain
		for _, part := range strings.Split(name, src.sep) {
			if part == "" {
				continue
			}
			chain = append(chain, key.Name(part))
		}
		if len(chain) == 0 {
			continue
		}

		err := store.Set(chain, v)
		if err != nil {
			return err
		}
	}
	return nil
}
