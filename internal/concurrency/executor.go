// File: internal/concurrency/executor.go
//
// Executor dispatches tasks across a fixed pool of worker goroutines.
// Tasks flow through the lock-free queue; a buffered wake channel parks
// idle workers without spin-sleeping. Workers drain the queue fully on
// every wakeup, so a dropped wake token (buffer already full) can never
// strand a task.

package concurrency

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

var (
	// ErrExecutorClosed indicates the executor has been shut down.
	ErrExecutorClosed = errors.New("executor is closed")

	// ErrExecutorSaturated indicates the task queue is full.
	ErrExecutorSaturated = errors.New("executor queue is full")
)

// Task is one unit of work.
type Task func()

// Executor runs tasks on a fixed number of workers.
type Executor struct {
	tasks  *Queue[Task]
	wake   chan struct{}
	stopCh chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewExecutor creates an executor with numWorkers workers and a task
// queue holding queueDepth entries. Non-positive numWorkers defaults to
// runtime.NumCPU(); non-positive queueDepth defaults to 1024.
func NewExecutor(numWorkers, queueDepth int) *Executor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if queueDepth <= 0 {
		queueDepth = 1024
	}
	e := &Executor{
		tasks:  NewQueue[Task](queueDepth),
		wake:   make(chan struct{}, queueDepth+numWorkers),
		stopCh: make(chan struct{}),
	}
	e.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go e.worker()
	}
	return e
}

// Submit enqueues a task for asynchronous execution. Returns
// ErrExecutorClosed after Close, ErrExecutorSaturated when the queue is
// full. Never blocks.
func (e *Executor) Submit(task Task) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	if !e.tasks.Enqueue(task) {
		return ErrExecutorSaturated
	}
	select {
	case e.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close stops the workers and waits for them to exit. Callers must
// quiesce submissions first; tasks still queued at Close are dropped.
func (e *Executor) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.stopCh)
		e.wg.Wait()
	}
}

// Pending returns the approximate number of queued tasks.
func (e *Executor) Pending() int {
	return e.tasks.Len()
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.wake:
			for {
				task, ok := e.tasks.Dequeue()
				if !ok {
					break
				}
				task()
			}
		case <-e.stopCh:
			return
		}
	}
}
