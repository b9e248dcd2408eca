package provider

import (
	"sync"
	"time"
)

// Quota caps the number of requests allowed per window. The finance
// provider enforces a daily call budget per API key.
type Quota struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	used    int
	resetAt time.Time
	now     func() time.Time
}

// NewQuota returns a quota of limit requests per window. A non-positive
// limit means unlimited.
func NewQuota(limit int, window time.Duration) *Quota {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Quota{limit: limit, window: window, now: time.Now}
}

// Take consumes one request and reports whether it was allowed.
func (q *Quota) Take() bool {
	if q == nil || q.limit <= 0 {
		return true
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollLocked()
	if q.used >= q.limit {
		return false
	}
	q.used++
	return true
}

// Remaining returns the requests left in the current window, or -1 when
// unlimited.
func (q *Quota) Remaining() int {
	if q == nil || q.limit <= 0 {
		return -1
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollLocked()
	return q.limit - q.used
}

func (q *Quota) rollLocked() {
	now := q.now()
	if q.resetAt.IsZero() || !now.Before(q.resetAt) {
		q.used = 0
		q.resetAt = now.Add(q.window)
	}
}
