// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package future provides a single-assignment value which is produced
// on one goroutine and awaited on another.
package future

import (
	"context"
	"sync"
)

// Value is the consumer side of a Deferred.
//
// Await should return once ctx is done. Callers stop waiting on a Value
// when their ctx is done, whether or not Await has returned, and take no
// ownership of anything it produces after that.
type Value[T any] interface {
	Await(context.Context) (T, error)
}

// ValueFunc is a functional implementation of the Value interface.
type ValueFunc[T any] func(context.Context) (T, error)

// Await implements the Value interface.
func (f ValueFunc[T]) Await(ctx context.Context) (T, error) {
	return f(ctx)
}

// Deferred is resolved or rejected exactly once. Any number of
// goroutines may await it.
type Deferred[T any] struct {
	once sync.Once
	done chan struct{}

	v   T
	err error
}

// New returns an unresolved Deferred.
func New[T any]() *Deferred[T] {
	return &Deferred[T]{
		done: make(chan struct{}),
	}
}

// Resolved returns a Deferred already holding v.
func Resolved[T any](v T) *Deferred[T] {
	d := New[T]()
	d.Resolve(v)
	return d
}

// Rejected returns a Deferred already holding err.
func Rejected[T any](err error) *Deferred[T] {
	d := New[T]()
	d.Reject(err)
	return d
}

// Resolve completes d with v. It reports false if d was already completed.
func (d *Deferred[T]) Resolve(v T) bool {
	return d.complete(v, nil)
}

// Reject completes d with err. It reports false if d was already completed.
func (d *Deferred[T]) Reject(err error) bool {
	var zero T
	return d.complete(zero, err)
}

func (d *Deferred[T]) complete(v T, err error) bool {
	completed := false
	d.once.Do(func() {
		d.v = v
		d.err = err
		completed = true
		close(d.done)
	})
	return completed
}

// Done is closed once d is completed.
func (d *Deferred[T]) Done() <-chan struct{} {
	return d.done
}

// Await blocks until d is completed or ctx is done, whichever happens
// first. When ctx wins, the context cause is returned.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.v, d.err
	default:
	}

	select {
	case <-d.done:
		return d.v, d.err
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	}
}
