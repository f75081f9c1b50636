package usecase

import (
	"context"
	"log/slog"
	"time"
)

const dequeueTimeout = time.Second

// Worker drains the job queue with a single background goroutine, running
// the pipeline for one feedback item at a time. A failure or panic inside
// one run is logged and never terminates the loop.
type Worker struct {
	queue    *JobQueue
	pipeline *Pipeline
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker wires the queue to the pipeline.
func NewWorker(queue *JobQueue, pipeline *Pipeline, logger *slog.Logger) *Worker {
	return &Worker{queue: queue, pipeline: pipeline, logger: logger}
}

// Start launches the worker goroutine. Calling Start twice is a no-op.
func (w *Worker) Start(ctx context.Context) {
	if w.done != nil {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})

	go w.loop(ctx)
	w.logger.Info("background worker started")
}

// Stop requests shutdown and waits for the current item to finish, up to
// the given timeout.
func (w *Worker) Stop(timeout time.Duration) {
	if w.done == nil {
		return
	}

	w.cancel()
	select {
	case <-w.done:
	case <-time.After(timeout):
		w.logger.Warn("background worker did not stop in time")
	}
	w.logger.Info("background worker stopped")
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)

	for {
		if ctx.Err() != nil {
			return
		}

		id, ok := w.queue.Dequeue(dequeueTimeout)
		if !ok {
			continue
		}

		// Shutdown only stops intake; the run in flight is insulated
		// from cancellation and finishes inside the Stop join wait.
		w.process(context.WithoutCancel(ctx), id)
	}
}

// process shields the loop from a panicking run.
func (w *Worker) process(ctx context.Context, id string) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("pipeline run panicked", "feedback_id", id, "panic", r)
		}
	}()

	if err := w.pipeline.Process(ctx, id); err != nil {
		w.logger.Error("pipeline run failed", "feedback_id", id, "error", err)
	}
}
