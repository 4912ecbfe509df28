// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeferred_Await(t *testing.T) {
	t.Run("will return the resolved value", func(t *testing.T) {
		t.Run("if it was resolved before awaiting", func(t *testing.T) {
			d := Resolved("hello")

			v, err := d.Await(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello", v) {
				return
			}
		})

		t.Run("if it is resolved on another goroutine", func(t *testing.T) {
			d := New[int]()

			go func() {
				time.Sleep(10 * time.Millisecond)
				d.Resolve(42)
			}()

			v, err := d.Await(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, 42, v) {
				return
			}
		})

		t.Run("to every awaiting goroutine", func(t *testing.T) {
			d := New[int]()

			var wg sync.WaitGroup
			results := make([]int, 5)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					v, _ := d.Await(context.Background())
					results[i] = v
				}(i)
			}

			d.Resolve(7)
			wg.Wait()

			if !assert.Equal(t, []int{7, 7, 7, 7, 7}, results) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if it was rejected", func(t *testing.T) {
			rejectErr := errors.New("failed")
			d := Rejected[string](rejectErr)

			_, err := d.Await(context.Background())
			if !assert.Equal(t, rejectErr, err) {
				return
			}
		})

		t.Run("if the context is cancelled first", func(t *testing.T) {
			d := New[string]()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := d.Await(ctx)
			if !assert.ErrorIs(t, err, context.Canceled) {
				return
			}
		})

		t.Run("with the context cause", func(t *testing.T) {
			d := New[string]()

			causeErr := errors.New("request aborted")
			ctx, cancel := context.WithCancelCause(context.Background())
			cancel(causeErr)

			_, err := d.Await(ctx)
			if !assert.Equal(t, causeErr, err) {
				return
			}
		})
	})

	t.Run("will prefer a completed value over a done context", func(t *testing.T) {
		d := Resolved(1)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		v, err := d.Await(ctx)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, 1, v) {
			return
		}
	})
}

func TestDeferred_Resolve(t *testing.T) {
	t.Run("will only complete once", func(t *testing.T) {
		d := New[int]()

		if !assert.True(t, d.Resolve(1)) {
			return
		}
		if !assert.False(t, d.Resolve(2)) {
			return
		}
		if !assert.False(t, d.Reject(errors.New("late"))) {
			return
		}

		v, err := d.Await(context.Background())
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, 1, v) {
			return
		}
	})
}
