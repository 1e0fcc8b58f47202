package utils

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrPoolClosed is returned by Submit after Shutdown has been called.
var ErrPoolClosed = errors.New("worker pool is shut down")

// Job represents a task to be executed by a worker.
type Job struct {
	Task func()
}

// WorkerPool manages a pool of workers to execute detached jobs.
// Submit never blocks the caller: when the queue is full the job is
// handed to the queue from a parked goroutine instead.
type WorkerPool struct {
	workers   int
	jobQueue  chan Job
	logger    zerolog.Logger
	waitGroup sync.WaitGroup
	pending   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a new WorkerPool with the specified number of workers and queue capacity.
func NewWorkerPool(workers, queueSize int, logger zerolog.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < workers {
		queueSize = workers
	}
	pool := &WorkerPool{
		workers:  workers,
		jobQueue: make(chan Job, queueSize),
		logger:   logger,
	}

	pool.waitGroup.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}

	return pool
}

// worker processes jobs from the jobQueue.
func (wp *WorkerPool) worker() {
	defer wp.waitGroup.Done()
	for job := range wp.jobQueue {
		wp.run(job)
	}
}

// run executes a job, keeping a panicking task from taking the worker down.
func (wp *WorkerPool) run(job Job) {
	defer wp.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error().Interface("panic", r).Msg("Worker pool job panicked")
		}
	}()
	job.Task()
}

// Submit adds a new job to the worker pool.
func (wp *WorkerPool) Submit(task func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrPoolClosed
	}

	wp.pending.Add(1)
	job := Job{Task: task}
	select {
	case wp.jobQueue <- job:
	default:
		go func() { wp.jobQueue <- job }()
	}
	return nil
}

// Shutdown runs every job already submitted, then stops the workers.
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	wp.mu.Unlock()

	wp.pending.Wait()
	close(wp.jobQueue)
	wp.waitGroup.Wait()
}
