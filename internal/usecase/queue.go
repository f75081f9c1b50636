package usecase

import (
	"sync"
	"time"

	"FeedbackAnalyzer/internal/ports"
)

// JobQueue is an unbounded, thread-safe FIFO of feedback ids awaiting
// processing. Enqueue never blocks; Dequeue blocks up to a timeout.
//
// The queue does not deduplicate: the same id enqueued twice is processed
// twice. The repository's child upserts make a second run overwrite rather
// than duplicate, so reprocessing is safe.
//
// A 1-buffered signal channel coalesces wakeups so Dequeue can wait without
// spinning and without missing an enqueue that races the wait.
type JobQueue struct {
	mu     sync.Mutex
	ids    []string
	signal chan struct{}
}

var _ ports.JobQueue = (*JobQueue)(nil)

// NewJobQueue builds an empty queue.
func NewJobQueue() *JobQueue {
	return &JobQueue{
		ids:    make([]string, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends an id at the tail. Always succeeds.
func (q *JobQueue) Enqueue(id string) {
	q.mu.Lock()
	q.ids = append(q.ids, id)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the head, waiting up to timeout when the
// queue is empty. The second return is false on timeout.
func (q *JobQueue) Dequeue(timeout time.Duration) (string, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if id, ok := q.tryDequeue(); ok {
			return id, true
		}

		select {
		case <-q.signal:
		case <-deadline.C:
			return "", false
		}
	}
}

// Len reports the number of queued ids.
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

func (q *JobQueue) tryDequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ids) == 0 {
		return "", false
	}

	id := q.ids[0]
	q.ids[0] = ""
	q.ids = q.ids[1:]
	if len(q.ids) == 0 {
		q.ids = make([]string, 0, 16)
	}
	return id, true
}
