// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package concurrent runs batches of independent tasks with bounded parallelism.
package concurrent

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Task is a unit of work run by a WorkerPool.
type Task func(ctx context.Context) error

// WorkerPool bounds how many tasks run at the same time.
type WorkerPool struct {
	workerCount int
}

// NewWorkerPool creates a pool running at most workerCount tasks at once.
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{workerCount: workerCount}
}

// Run executes the tasks and returns the first error. The context handed to
// the remaining tasks is cancelled as soon as one fails.
func (wp *WorkerPool) Run(ctx context.Context, tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(wp.workerCount)

	for _, task := range tasks {
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			return task(groupCtx)
		})
	}

	return g.Wait()
}

// RunAll executes every task regardless of failures and joins their errors
// in submission order. Tasks not yet started when ctx is done report ctx.Err().
func (wp *WorkerPool) RunAll(ctx context.Context, tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}

	errs := make([]error, len(tasks))
	g := new(errgroup.Group)
	g.SetLimit(wp.workerCount)

	for i, task := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = task(ctx)
			return nil
		})
	}

	_ = g.Wait()
	return errors.Join(errs...)
}
