package taskqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestQueue_Submit_RunsTaskOnWorker(t *testing.T) {
	q := New(2, 4, zap.NewNop())
	defer q.Shutdown()

	var ran int32
	done := make(chan struct{})
	q.Submit(func(ctx context.Context) {
		atomic.StoreInt32(&ran, 1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for submitted task to run")
	}

	if atomic.LoadInt32(&ran) != 1 {
		t.Error("expected task to have run")
	}
}

func TestQueue_Submit_DropsWhenBufferFull(t *testing.T) {
	q := New(1, 1, zap.NewNop())
	defer q.Shutdown()

	block := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	q.Submit(func(ctx context.Context) {
		wg.Done()
		<-block
	})
	wg.Wait()

	if !q.Submit(func(ctx context.Context) {}) {
		t.Error("expected the buffer slot to accept one queued task")
	}
	if q.Submit(func(ctx context.Context) {}) {
		t.Error("expected Submit to report false once buffer and worker are both occupied")
	}

	close(block)
}

func TestQueue_Worker_RecoversFromPanic(t *testing.T) {
	q := New(1, 4, zap.NewNop())
	defer q.Shutdown()

	var ran int32
	done := make(chan struct{})
	q.Submit(func(ctx context.Context) {
		defer close(done)
		panic("boom")
	})
	<-done

	q.Submit(func(ctx context.Context) {
		atomic.StoreInt32(&ran, 1)
	})
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&ran) != 1 {
		t.Error("expected the worker to keep processing tasks after a panic")
	}
}

func TestQueue_Shutdown_WaitsForInFlightTask(t *testing.T) {
	q := New(1, 4, zap.NewNop())

	var finished int32
	started := make(chan struct{})
	q.Submit(func(ctx context.Context) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
	})
	<-started
	q.Shutdown()

	if atomic.LoadInt32(&finished) != 1 {
		t.Error("expected Shutdown to wait for the in-flight task to complete")
	}
}
