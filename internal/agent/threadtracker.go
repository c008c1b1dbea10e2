package agent

import (
	"sync"

	"github.com/EdibleTuber/mother/pkg/protocol"
)

// threadTracker records every message a run posts into its working
// message's thread, so a [SILENT] final response can erase all of them
// and leave nothing visible, per the silent-run requirement.
type threadTracker struct {
	mu      sync.Mutex
	handles []protocol.MessageHandle
}

func newThreadTracker() *threadTracker {
	return &threadTracker{}
}

// record appends h if it names a real message. Safe to call concurrently,
// though in practice every call comes from the run's single side-effect
// consumer goroutine.
func (t *threadTracker) record(h protocol.MessageHandle) {
	if h.MessageID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handles = append(t.handles, h)
}

// drain returns every recorded handle and clears the tracker.
func (t *threadTracker) drain() []protocol.MessageHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	handles := t.handles
	t.handles = nil
	return handles
}
