// Package errqueue implements the process-wide bounded-in-expectation FIFO:
// any component can enqueue an error; only the health heartbeat drains it,
// atomically, on its own cadence.
package errqueue

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ottertune/db-agent/internal/model"
)

// Queue is safe for concurrent use. The zero value is not usable; use New.
type Queue struct {
	mu      sync.Mutex
	records []model.ErrorRecord
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Add enqueues one error. Any component may call this at any time — it is
// the only writer API.
func (q *Queue) Add(err error, name string) {
	if err == nil {
		return
	}

	stacktrace := ""
	if se, ok := err.(interface{ Stacktrace() string }); ok {
		stacktrace = se.Stacktrace()
	}

	rec := model.ErrorRecord{
		ID:         uuid.NewString(),
		Name:       name,
		Message:    err.Error(),
		Stacktrace: stacktrace,
		Timestamp:  time.Now().Unix(),
	}

	q.mu.Lock()
	q.records = append(q.records, rec)
	q.mu.Unlock()
}

// Drain atomically returns the entire FIFO contents and empties the queue in
// a single step.
func (q *Queue) Drain() []model.ErrorRecord {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.records) == 0 {
		return nil
	}

	drained := q.records
	q.records = nil
	return drained
}

// Len reports the current queue depth without draining it, for the
// prometheus gauge in internal/health.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}
