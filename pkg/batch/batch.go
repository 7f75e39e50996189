// Package batch runs one task per item concurrently and joins on all of them.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Outcome is the settled result of a single task.
type Outcome[T any] struct {
	Index int
	Value T
	Err   error
}

// Options tunes how tasks are scheduled.
type Options struct {
	// MaxConcurrency caps running tasks. Zero or negative means one goroutine per item.
	MaxConcurrency int
}

// Settle runs task for every index in [0, n) and waits until all of them return.
// Failures do not cancel siblings. Outcomes are returned in index order.
func Settle[T any](ctx context.Context, n int, opts Options, task func(ctx context.Context, index int) (T, error)) []Outcome[T] {
	outcomes := make([]Outcome[T], n)

	var g errgroup.Group
	if opts.MaxConcurrency > 0 {
		g.SetLimit(opts.MaxConcurrency)
	}

	for i := range n {
		g.Go(func() error {
			value, err := task(ctx, i)
			outcomes[i] = Outcome[T]{Index: i, Value: value, Err: err}
			return nil
		})
	}

	_ = g.Wait()

	return outcomes
}

// All is the all-or-nothing form of Settle: it returns every value in index order,
// or the failure with the lowest index and no values at all.
func All[T any](ctx context.Context, n int, opts Options, task func(ctx context.Context, index int) (T, error)) ([]T, error) {
	outcomes := Settle(ctx, n, opts, task)

	if failed, ok := FirstFailure(outcomes); ok {
		return nil, failed.Err
	}

	return Values(outcomes), nil
}

// FirstFailure returns the failed outcome with the lowest index.
func FirstFailure[T any](outcomes []Outcome[T]) (Outcome[T], bool) {
	for _, o := range outcomes {
		if o.Err != nil {
			return o, true
		}
	}
	return Outcome[T]{}, false
}

// Values returns the values of successful outcomes in index order.
func Values[T any](outcomes []Outcome[T]) []T {
	values := make([]T, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err == nil {
			values = append(values, o.Value)
		}
	}
	return values
}
