// Package history keeps a bounded record of recent dispatch results for the
// inspection endpoints. It is an operational aid, not an audit log.
package history

import (
	"context"
	"sync"

	"github.com/balkirat0001/eventcraft2/internal/channel"
)

// Store is a bounded dispatch-result history. Record never fails the dispatch
// path; Recent returns results newest first.
type Store interface {
	Record(ctx context.Context, result channel.DispatchResult)
	Recent(ctx context.Context, n int) ([]channel.DispatchResult, error)
}

// Memory is an in-process ring of the most recent results.
type Memory struct {
	mu      sync.Mutex
	cap     int
	results []channel.DispatchResult
}

// NewMemory builds an in-memory history holding at most capacity results.
func NewMemory(capacity int) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	return &Memory{cap: capacity}
}

// Record appends the result, evicting the oldest entry when full.
func (m *Memory) Record(_ context.Context, result channel.DispatchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
	if len(m.results) > m.cap {
		m.results = m.results[len(m.results)-m.cap:]
	}
}

// Recent returns up to n results, newest first. The returned slice is a copy;
// callers may hold it without racing later records.
func (m *Memory) Recent(_ context.Context, n int) ([]channel.DispatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n > len(m.results) {
		n = len(m.results)
	}
	out := make([]channel.DispatchResult, 0, n)
	for i := len(m.results) - 1; i >= len(m.results)-n; i-- {
		out = append(out, m.results[i])
	}
	return out, nil
}
