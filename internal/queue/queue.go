// Package queue holds pending autofill jobs. Batch submissions go in
// here and the pipeline drains them one at a time, respecting the rate
// limiter between jobs.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQueueEmpty  = errors.New("queue is empty")
	ErrQueueClosed = errors.New("queue is closed")
)

// Job is one product to extract and fill.
type Job struct {
	ID        uuid.UUID
	ASIN      string
	URL       string
	Priority  int
	Retries   int
	CreatedAt time.Time
}

func NewJob(asin, url string) *Job {
	return &Job{
		ID:        uuid.New(),
		ASIN:      asin,
		URL:       url,
		CreatedAt: time.Now(),
	}
}

type Queue interface {
	Push(job *Job) error
	Pop(ctx context.Context) (*Job, error)
	Size() int
	Close() error
}

// InMemoryQueue is a priority-ordered job queue. Pop blocks until a job
// arrives, the context is cancelled or the queue is closed. Waiters are
// woken through a buffered channel rather than a sync.Cond so that a
// cancelled Pop never races the mutex.
type InMemoryQueue struct {
	jobs   []*Job
	mu     sync.Mutex
	wake   chan struct{}
	closed bool
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		jobs: make([]*Job, 0),
		wake: make(chan struct{}, 1),
	}
}

// signal wakes one blocked Pop. Callers must hold q.mu.
func (q *InMemoryQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *InMemoryQueue) Push(job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.jobs = append(q.jobs, job)
	q.sortByPriority()
	q.signal()

	return nil
}

func (q *InMemoryQueue) Pop(ctx context.Context) (*Job, error) {
	for {
		q.mu.Lock()
		if len(q.jobs) > 0 {
			job := q.jobs[0]
			q.jobs = q.jobs[1:]
			if len(q.jobs) > 0 {
				q.signal()
			}
			q.mu.Unlock()
			return job, nil
		}
		if q.closed {
			// Pass the wakeup on so every other waiter drains too.
			q.signal()
			q.mu.Unlock()
			return nil, ErrQueueClosed
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.wake:
		}
	}
}

func (q *InMemoryQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.signal()

	return nil
}

func (q *InMemoryQueue) sortByPriority() {
	for i := 0; i < len(q.jobs)-1; i++ {
		for j := 0; j < len(q.jobs)-i-1; j++ {
			if q.jobs[j].Priority < q.jobs[j+1].Priority {
				q.jobs[j], q.jobs[j+1] = q.jobs[j+1], q.jobs[j]
			}
		}
	}
}
