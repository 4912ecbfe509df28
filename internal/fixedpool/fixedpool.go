// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package fixedpool runs tasks on a fixed number of goroutines.
package fixedpool

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task is a unit of work run by the pool.
type Task func(context.Context) error

// PanicError is reported for a Task which panicked.
type PanicError struct {
	Index int
	Value any
}

// Error implements the [builtin.error] interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.Index, e.Value)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Run runs tasks with at most size of them in flight. A failing task
// does not cancel the others. Every task error is joined and returned
// in task order.
func Run(ctx context.Context, size int, tasks ...Task) error {
	errs := make([]error, len(tasks))

	var g errgroup.Group
	g.SetLimit(max(size, 1))
	for i, task := range tasks {
		g.Go(func() error {
			errs[i] = call(ctx, i, task)
			return nil
		})
	}
	g.Wait()

	return errors.Join(errs...)
}

func call(ctx context.Context, i int, task Task) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err = PanicError{Index: i, Value: r}
	}()

	return task(ctx)
}
