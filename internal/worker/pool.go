package worker

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Task is the outcome of processing one input.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
}

// ProcessFunc processes a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs a ProcessFunc over many inputs with bounded concurrency.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a pool running at most workers tasks at once.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// Execute processes every input and returns results in input order. A
// failing task does not stop the others; its error is kept in the Task.
// Inputs not yet started when ctx is cancelled get ctx.Err().
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))

	g := new(errgroup.Group)
	g.SetLimit(p.workers)

	for i := range inputs {
		results[i].Input = inputs[i]
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			result, err := p.process(ctx, inputs[i])
			results[i].Result = result
			results[i].Err = err
			if err != nil {
				log.Error().Err(err).Int("index", i).Msg("Task failed")
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Errors returns the failed tasks.
func Errors[T any, R any](tasks []Task[T, R]) []Task[T, R] {
	var failed []Task[T, R]
	for _, t := range tasks {
		if t.Err != nil {
			failed = append(failed, t)
		}
	}
	return failed
}
