package service

import (
	"sync/atomic"
	"testing"
)

func TestWorkerPool_RunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Start()
	defer pool.Close()

	var counter int64
	for i := 0; i < 100; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}
	pool.Wait()

	if got := atomic.LoadInt64(&counter); got != 100 {
		t.Errorf("Expected 100 completed jobs, got %d", got)
	}
}

func TestWorkerPool_DefaultWorkerCount(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool.workers <= 0 {
		t.Errorf("Expected a positive default worker count, got %d", pool.workers)
	}
}

func TestWorkerPool_StartIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	pool.Start()
	defer pool.Close()

	var counter int64
	pool.Submit(func() { atomic.AddInt64(&counter, 1) })
	pool.Wait()

	if atomic.LoadInt64(&counter) != 1 {
		t.Error("Expected the single job to run exactly once")
	}
}
