// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package effect runs post-commit side effects outside the request path.

A handler that has already committed its write schedules follow-up work
(sending an email, for instance) with [Runner.Go] and returns immediately.
Each effect gets a context detached from the request, bounded by a timeout,
and its error is logged and counted instead of reaching the client.

Effects are queued to a fixed set of worker goroutines, so a burst of sign-ups
neither opens an unbounded number of SMTP connections nor parks an unbounded
number of goroutines. When the queue is full, [Runner.Go] waits for room until
the caller's context ends and then drops the effect.
*/
package effect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/sprinto/internal/platform/ctxutil"
)

// QueuePerWorker is the number of pending effects buffered per worker.
const QueuePerWorker = 32

// Func is a unit of post-commit work.
type Func func(ctx context.Context) error

// Recorder counts failed effects.
type Recorder interface {
	RecordEffectFailure(name string)
}

type job struct {
	ctx    context.Context
	name   string
	effect Func
}

// Runner executes effects on a fixed pool of worker goroutines.
type Runner struct {
	queue    chan job
	timeout  time.Duration
	logger   *slog.Logger
	recorder Recorder

	mu      sync.RWMutex
	closed  bool
	pending sync.WaitGroup
	workers sync.WaitGroup
}

// NewRunner starts workers goroutines that run at most workers effects at once.
func NewRunner(workers int, timeout time.Duration, logger *slog.Logger, recorder Recorder) *Runner {
	if workers < 1 {
		workers = 1
	}
	runner := &Runner{
		queue:    make(chan job, workers*QueuePerWorker),
		timeout:  timeout,
		logger:   logger,
		recorder: recorder,
	}

	runner.workers.Add(workers)
	for range workers {
		go runner.work()
	}
	return runner
}

func (runner *Runner) work() {
	defer runner.workers.Done()
	for next := range runner.queue {
		runner.run(next.ctx, next.name, next.effect)
		runner.pending.Done()
	}
}

/*
Go schedules effect under name and returns once it is queued.

The effect inherits the request values of ctx (logger, request ID) but not its
cancellation. If the queue stays full until ctx ends, the effect is dropped and
counted as a failure. After [Runner.Close] new effects are dropped with a warning.
*/
func (runner *Runner) Go(ctx context.Context, name string, effect Func) {
	runner.mu.RLock()
	defer runner.mu.RUnlock()

	if runner.closed {
		runner.logger.WarnContext(ctx, "effect_dropped_after_close", slog.String("effect", name))
		return
	}

	runner.pending.Add(1)
	select {
	case runner.queue <- job{ctx: ctxutil.Detach(ctx), name: name, effect: effect}:
	case <-ctx.Done():
		runner.pending.Done()
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "effect_dropped_queue_full",
			slog.String("effect", name),
			slog.Any("error", ctx.Err()),
		)
		if runner.recorder != nil {
			runner.recorder.RecordEffectFailure(name)
		}
	}
}

func (runner *Runner) run(ctx context.Context, name string, effect Func) {
	ctx, cancel := context.WithTimeout(ctx, runner.timeout)
	defer cancel()

	startTime := time.Now()
	err := runner.safely(ctx, effect)
	if err == nil {
		ctxutil.GetLogger(ctx).DebugContext(ctx, "effect_completed",
			slog.String("effect", name),
			slog.Duration("elapsed", time.Since(startTime)),
		)
		return
	}

	ctxutil.GetLogger(ctx).ErrorContext(ctx, "effect_failed",
		slog.String("effect", name),
		slog.Any("error", err),
	)
	if runner.recorder != nil {
		runner.recorder.RecordEffectFailure(name)
	}
}

func (runner *Runner) safely(ctx context.Context, effect Func) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("effect panicked: %v", recovered)
		}
	}()
	return effect(ctx)
}

// Wait blocks until every queued effect has finished.
func (runner *Runner) Wait() {
	runner.pending.Wait()
}

// Close stops accepting effects and waits for queued ones, or for ctx.
func (runner *Runner) Close(ctx context.Context) error {
	runner.mu.Lock()
	if !runner.closed {
		runner.closed = true
		close(runner.queue)
	}
	runner.mu.Unlock()

	done := make(chan struct{})
	go func() {
		runner.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("effect_runner_drain_interrupted: %w", ctx.Err())
	}
}
