// Package queue implements the per-channel serial job queue: a bounded
// FIFO with a single lazily-started consumer goroutine, guaranteeing at
// most one AgentRunner.run executes per channel at a time.
package queue

import (
	"log/slog"
	"sync"
)

const maxDepth = 5

// Job is one unit of work enqueued for a channel.
type Job func()

// Manager owns one bounded channel per channelID and starts its consumer
// goroutine on first use.
type Manager struct {
	mu    sync.Mutex
	queues map[string]chan Job
}

func NewManager() *Manager {
	return &Manager{queues: map[string]chan Job{}}
}

// Enqueue adds job to channelID's queue, starting the consumer if this is
// the first job for that channel. If the queue is already at maxDepth, the
// job is dropped and a warning logged rather than blocking the caller.
func (m *Manager) Enqueue(channelID string, job Job) {
	m.mu.Lock()
	q, ok := m.queues[channelID]
	if !ok {
		q = make(chan Job, maxDepth)
		m.queues[channelID] = q
		go m.consume(channelID, q)
	}
	m.mu.Unlock()

	select {
	case q <- job:
	default:
		slog.Warn("queue: dropping job, channel queue full", "channel", channelID, "depth", maxDepth)
	}
}

func (m *Manager) consume(channelID string, q chan Job) {
	for job := range q {
		job()
	}
}

// Depth reports the number of jobs currently queued (not counting one
// in flight) for channelID.
func (m *Manager) Depth(channelID string) int {
	m.mu.Lock()
	q, ok := m.queues[channelID]
	m.mu.Unlock()
	if !ok {
		return 0
	}
	return len(q)
}
