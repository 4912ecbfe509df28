// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"strings"

	"github.com/z5labs/bridge/config/key"
)

// Map is an ordinary map[string]any but implements the Source and
// Store interfaces. As a Store, it lower cases every key so sources
// agree on keys regardless of casing.
type Map map[string]any

// Apply implements the Source interface. It recursively walks the underlying
// map to find key value pairs to set on the given store.
func (m Map) Apply(store Store) error {
	return walkMap(m, store, nil)
}

func walkMap(m map[string]any, store Store, chain key.Chain) error {
	for k, v := range m {
		kc := append(chain[:len(chain):len(chain)], key.Name(k))

		switch x := v.(type) {
		case map[string]any:
			err := walkMap(x, store, kc)
			if err != nil {
				return err
			}
		case Map:
			err := walkMap(x, store, kc)
			if err != nil {
				return err
			}
		default:
			err := store.Set(kc, x)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// UnknownKeyerError is returned by Map.Set for a key.Keyer other than
// key.Name or key.Chain.
type UnknownKeyerError struct {
	Key key.Keyer
}

// Error implements the [builtin.error] interface.
func (e UnknownKeyerError) Error() string {
	return fmt.Sprintf("config source tried setting config value with unknown key.Keyer: %s", e.Key.Key())
}

// EmptyKeyChainError is returned when setting a value on an empty key.Chain.
type EmptyKeyChainError struct {
	Value any
}

// Error implements the [builtin.error] interface.
func (e EmptyKeyChainError) Error() string {
	return fmt.Sprintf("attempted to set value to an empty key chain: %v", e.Value)
}

// UnexpectedKeyValueTypeError represents the situation when
// a source tries nesting keys under a key which already holds
// a plain value.
type UnexpectedKeyValueTypeError struct {
	Key          string
	ExpectedType string
}

// Error implements the [builtin.error] interface.
func (e UnexpectedKeyValueTypeError) Error() string {
	return fmt.Sprintf("expected key value to be a %s: %s", e.ExpectedType, e.Key)
}

// Set implements the Store interface.
func (m Map) Set(k key.Keyer, v any) error {
	return set(m, k, v)
}

func set(m map[string]any, k key.Keyer, v any) error {
	switch x := k.(type) {
	case key.Name:
		m[strings.ToLower(string(x))] = v
	case key.Chain:
		return setKeyChain(m, x, v)
	default:
		return UnknownKeyerError{Key: k}
	}
	return nil
}

func setKeyChain(m map[string]any, chain key.Chain, v any) error {
	if len(chain) == 0 {
		return EmptyKeyChainError{Value: v}
	}

	root := chain[0]
	if len(chain) == 1 {
		return set(m, root, v)
	}

	name := strings.ToLower(root.Key())
	old, ok := m[name]
	if !ok {
		old = make(map[string]any)
		m[name] = old
	}

	subM, ok := old.(map[string]any)
	if !ok {
		return UnexpectedKeyValueTypeError{
			Key:          name,
			ExpectedType: "map[string]any",
		}
	}
	return set(subM, chain[1:], v)
}
