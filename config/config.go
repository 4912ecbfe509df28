// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config merges configuration sources and decodes the result
// into structs tagged with `config:"..."`.
package config

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/z5labs/bridge/config/key"

	"github.com/mitchellh/mapstructure"
)

// Store represents a general key value structure.
type Store interface {
	Set(key.Keyer, any) error
}

// Source defines valid config sources as those who can
// serialize themselves into a key value like structure.
type Source interface {
	Apply(Store) error
}

// SourceFunc is a func which implements the Source interface.
type SourceFunc func(Store) error

// Apply implements the Source interface.
func (f SourceFunc) Apply(store Store) error {
	return f(store)
}

// Manager holds the merged values of every source.
type Manager struct {
	store Map
}

// Read applies srcs in order. Subsequent sources override previous
// sources key by key.
func Read(srcs ...Source) (*Manager, error) {
	store := make(Map)
	for _, src := range srcs {
		err := src.Apply(store)
		if err != nil {
			return nil, err
		}
	}
	return &Manager{store: store}, nil
}

// Lookup returns the value stored under the "."-separated key. Keys
// are case-insensitive.
func (m *Manager) Lookup(k string) (any, bool) {
	var cur any = map[string]any(m.store)
	for _, name := range key.Parse(strings.ToLower(k)) {
		sub, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = sub[name.Key()]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Unmarshal decodes the merged values into v, which must be a pointer.
// Strings are converted to time.Duration and to types implementing
// encoding.TextUnmarshaler.
func (m *Manager) Unmarshal(v any) error {
	var hookErr error
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		Result:           v,
		WeaklyTypedInput: true,
		DecodeHook: composeDecodeHooks(
			&hookErr,
			textUnmarshalerHookFunc(),
			timeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}

	err = dec.Decode(map[string]any(m.store))
	if err != nil && hookErr != nil {
		// mapstructure flattens field errors into strings
		return hookErr
	}
	return err
}

var errInvalidDecodeCondition = errors.New("invalid decode condition")

// TypeCoercionError occurs when attempting to unmarshal a config
// value to a struct field whose type does not match the config
// value type, up to, coercion.
type TypeCoercionError struct {
	From  reflect.Type
	To    reflect.Type
	Cause error
}

// Error implements the [builtin.error] interface.
func (e TypeCoercionError) Error() string {
	return fmt.Sprintf("failed to coerce value from %s to %s: %s", e.From, e.To, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TypeCoercionError) Unwrap() error {
	return e.Cause
}

func composeDecodeHooks(firstErr *error, hs ...mapstructure.DecodeHookFunc) mapstructure.DecodeHookFuncValue {
	return func(f, t reflect.Value) (any, error) {
		for _, h := range hs {
			v, err := mapstructure.DecodeHookExec(h, f, t)
			if err == nil {
				return v, nil
			}
			if errors.Is(err, errInvalidDecodeCondition) {
				continue
			}
			cerr := TypeCoercionError{
				From:  f.Type(),
				To:    t.Type(),
				Cause: err,
			}
			if *firstErr == nil {
				*firstErr = cerr
			}
			return nil, cerr
		}
		return f.Interface(), nil
	}
}

func textUnmarshalerHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return nil, errInvalidDecodeCondition
		}
		result := reflect.New(t).Interface()
		u, ok := result.(encoding.TextUnmarshaler)
		if !ok {
			return nil, errInvalidDecodeCondition
		}
		err := u.UnmarshalText([]byte(data.(string)))
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(result).Elem().Interface(), nil
	}
}

func timeDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return nil, errInvalidDecodeCondition
		}

		v := reflect.ValueOf(data)
		switch f.Kind() {
		case reflect.String:
			return time.ParseDuration(v.String())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(v.Int()), nil
		case reflect.Float32, reflect.Float64:
			return time.Duration(v.Float()), nil
		default:
			return nil, errInvalidDecodeCondition
		}
	}
}
