package engine

import (
	"errors"
	"sync"

	"osintrecon/pkg/logger"
)

var ErrQueueClosed = errors.New("scan queue is shut down")

// Queue bounds how many scans execute at once. Submitted work beyond the
// limit waits for a free slot without blocking the submitter.
type Queue struct {
	semaphore chan struct{}
	running   int
	queued    int
	closed    bool
	mu        sync.Mutex
	wg        sync.WaitGroup
	logger    *logger.Logger
}

func NewQueue(maxConcurrent int, log *logger.Logger) *Queue {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if log == nil {
		log = logger.Default()
	}
	q := &Queue{
		semaphore: make(chan struct{}, maxConcurrent),
		logger:    log,
	}
	q.logger.WithFields(logger.Fields{"max_concurrent": maxConcurrent}).Info("Scan queue initialized")
	return q
}

// Submit schedules fn in the background and returns immediately.
func (q *Queue) Submit(fn func() error) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()
		if err := q.ExecuteWithQueue(fn); err != nil {
			q.logger.WithError(err).Warn("Queued task returned error")
		}
	}()
	return nil
}

// ExecuteWithQueue blocks until a slot is free, then runs fn.
func (q *Queue) ExecuteWithQueue(fn func() error) error {
	q.mu.Lock()
	q.queued++
	currentQueued := q.queued
	currentRunning := q.running
	q.mu.Unlock()

	q.logger.WithFields(logger.Fields{
		"queued":  currentQueued,
		"running": currentRunning,
		"slots":   cap(q.semaphore),
	}).Debug("Scan added to queue")

	q.semaphore <- struct{}{}

	q.mu.Lock()
	q.queued--
	q.running++
	q.mu.Unlock()

	defer func() {
		<-q.semaphore
		q.mu.Lock()
		q.running--
		remainingRunning := q.running
		remainingQueued := q.queued
		q.mu.Unlock()

		q.logger.WithFields(logger.Fields{
			"running": remainingRunning,
			"queued":  remainingQueued,
		}).Debug("Scan slot released")
	}()

	return fn()
}

// Shutdown stops accepting work and waits for everything already submitted.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
}

// Wait blocks until all submitted work has finished.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// GetStatus returns current queue status
func (q *Queue) GetStatus() (running, queued, maxConcurrent int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running, q.queued, cap(q.semaphore)
}
