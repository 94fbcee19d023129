package prompt

import (
	"context"
	"sync"
)

// Queue serves non-interactive front ends: confirmations get a fixed answer
// and alerts wait in a queue until drained.
type Queue struct {
	mu      sync.Mutex
	confirm bool
	prompts []string
	alerts  []string
}

func NewQueue(confirm bool) *Queue {
	return &Queue{confirm: confirm}
}

func (q *Queue) Confirm(ctx context.Context, prompt string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.prompts = append(q.prompts, prompt)
	return q.confirm, nil
}

func (q *Queue) Alert(ctx context.Context, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.alerts = append(q.alerts, message)
}

// Drain returns and clears the pending alerts.
func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	alerts := q.alerts
	q.alerts = nil
	return alerts
}

func (q *Queue) Prompts() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.prompts...)
}
