package task

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"clipforge/internal/logging"
)

const (
	minWorkers = 1
	maxWorkers = 5
)

// Worker drains the job queue with a small pool of pipeline runners.
// Video rendering saturates a machine quickly, the pool is capped at 5.
type Worker struct {
	store    *Store
	pipeline *Pipeline
	workers  int
	poll     time.Duration
	log      *logging.Logger
}

// NewWorker builds a pool of the given size, clamped to 1..5. A zero
// poll interval defaults to 2 seconds.
func NewWorker(store *Store, pipeline *Pipeline, workers int, poll time.Duration) *Worker {
	if workers < minWorkers {
		workers = minWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Worker{
		store:    store,
		pipeline: pipeline,
		workers:  workers,
		poll:     poll,
		log:      logging.Get(logging.CategoryWorker),
	}
}

// Run processes jobs until the context is canceled. It returns the
// context's error on shutdown.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("starting %d workers (poll %s)", w.workers, w.poll)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.workers; i++ {
		id := i + 1
		g.Go(func() error {
			return w.loop(gctx, id)
		})
	}
	return g.Wait()
}

func (w *Worker) loop(ctx context.Context, id int) error {
	for {
		job, err := w.store.Claim()
		if err != nil {
			w.log.Error("worker %d claim failed: %v", id, err)
		}
		if job == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.poll):
			}
			continue
		}

		w.log.Info("worker %d picked up job %s: %q (attempt %d)", id, job.ID, job.Subject, job.Attempts)
		if err := w.process(ctx, job); err != nil {
			if ctx.Err() != nil {
				// Shutdown mid-job, requeue so another run picks it up.
				w.store.MarkFailed(job.ID, "interrupted by shutdown")
				w.store.Requeue(job.ID)
				return ctx.Err()
			}
			w.log.Error("worker %d job %s failed: %v", id, job.ID, err)
		}
	}
}

func (w *Worker) process(ctx context.Context, job *Job) error {
	params, err := job.Params()
	if err != nil {
		w.store.MarkFailed(job.ID, err.Error())
		return err
	}

	if _, err := w.pipeline.Run(ctx, job.ID, params); err != nil {
		// Run already marked the job failed.
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}
