// Package agent implements the run loop that drives an LLMBackend through
// one prompt/tool-use cycle per channel, streaming the result back through
// a ChatTransport. Grounded on vanducng-goclaw's internal/agent/loop.go
// Think->Act->Observe structure, generalized from its database-backed
// multi-tenant session model to Mother's one-runner-per-channel,
// filesystem-backed design.
package agent

import (
	"context"
	"sync"
	"time"

	"github.com/EdibleTuber/mother/internal/llmbackend"
	"github.com/EdibleTuber/mother/pkg/protocol"
)

// PendingTool tracks one in-flight tool call for the duration of a run.
type PendingTool struct {
	ToolName  string
	Args      map[string]any
	StartedAt time.Time
}

// RunState is the mutable state of a single channel's AgentRunner,
// retained for the process lifetime once created.
type RunState struct {
	mu sync.Mutex

	Running          bool
	StopRequested    bool
	StopConfirmation *protocol.MessageHandle
	CancelFunc       context.CancelFunc
	PendingTools     map[string]*PendingTool
	AccumulatedUsage llmbackend.Usage
}

func newRunState() *RunState {
	return &RunState{PendingTools: map[string]*PendingTool{}}
}

func (s *RunState) lock()   { s.mu.Lock() }
func (s *RunState) unlock() { s.mu.Unlock() }

// wasStopRequested reports whether RequestStop was called for this run.
func (s *RunState) wasStopRequested() bool {
	s.lock()
	defer s.unlock()
	return s.StopRequested
}

// Context is the capability bundle passed to tool implementations and
// event handlers that need to talk back to the chat — respond,
// replaceMessage, respondInThread, setTyping, uploadFile, setWorking,
// deleteMessage — each routed through the run's side-effect chain.
type Context struct {
	ChannelID string
	runner    *Runner
}

func (c *Context) Respond(ctx context.Context, text string) (protocol.MessageHandle, error) {
	return c.runner.transport.Respond(ctx, c.ChannelID, text)
}

func (c *Context) ReplaceMessage(ctx context.Context, handle protocol.MessageHandle, text string) error {
	return c.runner.transport.ReplaceMessage(ctx, handle, text)
}

func (c *Context) RespondInThread(ctx context.Context, parent protocol.MessageHandle, text string) (protocol.MessageHandle, error) {
	return c.runner.transport.RespondInThread(ctx, parent, text)
}

func (c *Context) SetTyping(ctx context.Context, state protocol.TypingState) error {
	return c.runner.transport.SetTyping(ctx, c.ChannelID, state)
}

func (c *Context) UploadFile(ctx context.Context, path, title string) error {
	return c.runner.transport.UploadFile(ctx, c.ChannelID, path, title)
}

func (c *Context) SetWorking(ctx context.Context, working bool) error {
	return c.runner.transport.SetWorking(ctx, c.ChannelID, working)
}

func (c *Context) DeleteMessage(ctx context.Context, handle protocol.MessageHandle) error {
	return c.runner.transport.DeleteMessage(ctx, handle)
}
