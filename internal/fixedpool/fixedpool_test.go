// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package fixedpool

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"
)

func TestRun_AllTasksSucceed(t *testing.T) {
	var counter atomic.Int32
	task := func(ctx context.Context) error {
		counter.Add(1)
		return nil
	}

	err := Run(context.Background(), 2, task, task, task)
	if err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}

	if got := counter.Load(); got != 3 {
		t.Errorf("counter = %d, want 3", got)
	}
}

func TestRun_EmptyTasks(t *testing.T) {
	err := Run(context.Background(), 4)
	if err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}

func TestRun_NeverExceedsSize(t *testing.T) {
	const size = 2

	var inFlight, peak atomic.Int32
	task := func(ctx context.Context) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)

		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return nil
	}

	tasks := make([]Task, 8)
	for i := range tasks {
		tasks[i] = task
	}

	err := Run(context.Background(), size, tasks...)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	if got := peak.Load(); got > size {
		t.Errorf("peak in flight = %d, want at most %d", got, size)
	}
}

func TestRun_NonPositiveSizeRunsSerially(t *testing.T) {
	var inFlight atomic.Int32
	var overlapped atomic.Bool
	task := func(ctx context.Context) error {
		if inFlight.Add(1) > 1 {
			overlapped.Store(true)
		}
		defer inFlight.Add(-1)
		time.Sleep(5 * time.Millisecond)
		return nil
	}

	err := Run(context.Background(), 0, task, task, task)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	if overlapped.Load() {
		t.Error("tasks overlapped, want serial execution")
	}
}

func TestRun_FailingTaskDoesNotCancelOthers(t *testing.T) {
	errFirst := errors.New("first")

	var finished atomic.Bool
	tasks := []Task{
		func(ctx context.Context) error {
			return errFirst
		},
		func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(20 * time.Millisecond):
			}
			finished.Store(true)
			return nil
		},
	}

	err := Run(context.Background(), 2, tasks...)
	if !errors.Is(err, errFirst) {
		t.Errorf("Run() error = %v, want %v", err, errFirst)
	}

	if !finished.Load() {
		t.Error("second task did not run to completion")
	}
}

func TestRun_JoinsEveryError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")

	err := Run(
		context.Background(),
		2,
		func(ctx context.Context) error { return err1 },
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return err2 },
	)
	if !errors.Is(err, err1) {
		t.Errorf("Run() error = %v, want error containing %v", err, err1)
	}
	if !errors.Is(err, err2) {
		t.Errorf("Run() error = %v, want error containing %v", err, err2)
	}
}

func TestRun_RecoversPanics(t *testing.T) {
	t.Run("with a non-error value", func(t *testing.T) {
		err := Run(context.Background(), 1, func(ctx context.Context) error {
			panic("boom")
		})

		var perr PanicError
		if !errors.As(err, &perr) {
			t.Fatalf("Run() error = %v, want PanicError", err)
		}
		if perr.Index != 0 {
			t.Errorf("PanicError.Index = %d, want 0", perr.Index)
		}
		if perr.Value != "boom" {
			t.Errorf("PanicError.Value = %v, want boom", perr.Value)
		}
	})

	t.Run("with an error value", func(t *testing.T) {
		err := Run(
			context.Background(),
			2,
			func(ctx context.Context) error { return nil },
			func(ctx context.Context) error { panic(io.ErrUnexpectedEOF) },
		)

		var perr PanicError
		if !errors.As(err, &perr) {
			t.Fatalf("Run() error = %v, want PanicError", err)
		}
		if perr.Index != 1 {
			t.Errorf("PanicError.Index = %d, want 1", perr.Index)
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("Run() error = %v, want io.ErrUnexpectedEOF", err)
		}
	})
}

func TestRun_PassesContext(t *testing.T) {
	type ctxKey struct{}

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	err := Run(ctx, 1, func(ctx context.Context) error {
		if got := ctx.Value(ctxKey{}); got != "value" {
			t.Errorf("ctx value = %v, want value", got)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}
