// Package taskqueue provides a bounded in-process worker pool for
// background work that must outlive the HTTP request that triggered it —
// the payout-run endpoint's fallback background mechanism when no
// broker-backed task queue is wired in front of it.
package taskqueue

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task is a unit of background work. It receives a context independent
// of the originating request's lifetime.
type Task func(ctx context.Context)

// Queue is a fixed number of worker goroutines draining a buffered
// channel. At-most-once delivery: a task submitted while the buffer is
// full is dropped and logged, since the caller's idempotency guards
// (event_id, restaurant+currency+as_of) make re-invocation safe.
type Queue struct {
	tasks  chan Task
	logger *zap.Logger
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New starts a queue with the given number of workers and buffer size.
func New(workers, bufferSize int, logger *zap.Logger) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		tasks:  make(chan Task, bufferSize),
		logger: logger,
		cancel: cancel,
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	return q
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-q.tasks:
			if !ok {
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						q.logger.Error("background task panicked", zap.Any("recover", r))
					}
				}()
				task(ctx)
			}()
		}
	}
}

// Submit enqueues a task for background execution. Returns false and
// logs a warning if the queue is saturated.
func (q *Queue) Submit(task Task) bool {
	select {
	case q.tasks <- task:
		return true
	default:
		q.logger.Warn("task queue saturated, dropping background task")
		return false
	}
}

// Shutdown cancels the worker context, closes the channel, and then waits
// for in-flight tasks to return.
func (q *Queue) Shutdown() {
	q.cancel()
	close(q.tasks)
	q.wg.Wait()
}
