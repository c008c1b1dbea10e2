package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/fsnotify/fsnotify"
)

// Dispatcher enqueues an event's text onto a channel's queue, respecting
// the queue's depth cap. Implemented by the orchestrator.
type Dispatcher interface {
	DispatchEvent(channelID, text string)
}

// Scheduler watches eventsDir for EventSpec files and fires them into
// dispatcher on their schedule.
type Scheduler struct {
	eventsDir  string
	dispatcher Dispatcher

	mu     sync.Mutex
	states map[string]*fileState // filename -> state
}

func New(eventsDir string, dispatcher Dispatcher) *Scheduler {
	return &Scheduler{
		eventsDir:  eventsDir,
		dispatcher: dispatcher,
		states:     map[string]*fileState{},
	}
}

// Run blocks until ctx is cancelled, watching eventsDir via fsnotify and
// re-evaluating all event files once a minute.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.eventsDir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.eventsDir); err != nil {
		return err
	}

	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	s.evaluateAll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				s.evaluateFile(ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("scheduler: watcher error", "error", err)
		case <-ticker.C:
			s.evaluateAll()
		}
	}
}

func (s *Scheduler) evaluateAll() {
	entries, err := os.ReadDir(s.eventsDir)
	if err != nil {
		slog.Warn("scheduler: read events dir", "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s.evaluateFile(filepath.Join(s.eventsDir, entry.Name()))
	}
}

func (s *Scheduler) evaluateFile(path string) {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("scheduler: read event file", "file", name, "error", err)
		}
		return
	}

	var spec EventSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		slog.Warn("scheduler: malformed event file", "file", name, "error", err)
		return
	}

	s.mu.Lock()
	state, ok := s.states[name]
	if !ok {
		state = &fileState{}
		s.states[name] = state
	}
	s.mu.Unlock()

	switch spec.Type {
	case TypeImmediate:
		s.fireOnce(name, state, spec)
	case TypeOneShot:
		s.fireOneShot(name, state, spec)
	case TypePeriodic:
		s.firePeriodic(name, state, spec)
	default:
		slog.Warn("scheduler: unknown event type", "file", name, "type", spec.Type)
	}
}

func (s *Scheduler) fireOnce(name string, state *fileState, spec EventSpec) {
	s.mu.Lock()
	if state.alreadyFired {
		s.mu.Unlock()
		return
	}
	state.alreadyFired = true
	s.mu.Unlock()
	s.dispatcher.DispatchEvent(spec.ChannelID, formatEventMessage(name, spec, time.Now().Format(time.RFC3339)))
	s.removeEventFile(name)
}

func (s *Scheduler) fireOneShot(name string, state *fileState, spec EventSpec) {
	s.mu.Lock()
	if state.alreadyFired {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	at, err := time.Parse(time.RFC3339, spec.At)
	if err != nil {
		slog.Warn("scheduler: invalid one-shot 'at'", "file", name, "at", spec.At, "error", err)
		return
	}
	if time.Now().Before(at) {
		return
	}

	s.mu.Lock()
	if state.alreadyFired {
		s.mu.Unlock()
		return
	}
	state.alreadyFired = true
	s.mu.Unlock()
	s.dispatcher.DispatchEvent(spec.ChannelID, formatEventMessage(name, spec, at.Format(time.RFC3339)))
	s.removeEventFile(name)
}

// removeEventFile deletes an immediate or one-shot event's file after it
// fires, so it isn't re-evaluated on the next tick or directory scan.
// Periodic event files are never removed.
func (s *Scheduler) removeEventFile(name string) {
	path := filepath.Join(s.eventsDir, name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("scheduler: failed to remove fired event file", "file", name, "error", err)
	}
}

func (s *Scheduler) firePeriodic(name string, state *fileState, spec EventSpec) {
	tz := spec.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Warn("scheduler: invalid timezone", "file", name, "timezone", tz, "error", err)
		return
	}

	now := time.Now().In(loc)
	minute := now.Truncate(time.Minute)

	s.mu.Lock()
	if state.lastFiredMinute.Equal(minute) {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	due, err := gronx.New().IsDue(normalizeCron(spec.Schedule), now)
	if err != nil {
		slog.Warn("scheduler: invalid cron expression", "file", name, "schedule", spec.Schedule, "error", err)
		return
	}
	if !due {
		return
	}

	s.mu.Lock()
	if state.lastFiredMinute.Equal(minute) {
		s.mu.Unlock()
		return
	}
	state.lastFiredMinute = minute
	s.mu.Unlock()

	s.dispatcher.DispatchEvent(spec.ChannelID, formatEventMessage(name, spec, now.Format(time.RFC3339)))
}

// formatEventMessage renders the "[EVENT:<filename>:<type>:<at>] <text>"
// envelope handed to the Dispatcher; the orchestrator logs and runs it as
// the message text without parsing it.
func formatEventMessage(name string, spec EventSpec, at string) string {
	return "[EVENT:" + name + ":" + string(spec.Type) + ":" + at + "] " + spec.Text
}

// normalizeCron trims surrounding whitespace from each field so a
// hand-edited EventSpec with stray spaces still parses.
func normalizeCron(expr string) string {
	fields := strings.Fields(expr)
	return strings.Join(fields, " ")
}
