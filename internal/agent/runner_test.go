package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EdibleTuber/mother/internal/channelstore"
	"github.com/EdibleTuber/mother/internal/config"
	"github.com/EdibleTuber/mother/internal/llmbackend"
	"github.com/EdibleTuber/mother/internal/tools"
	"github.com/EdibleTuber/mother/internal/transport"
	"github.com/EdibleTuber/mother/pkg/protocol"
)

// recordingTransport is an in-memory ChatTransport that records every call
// so tests can assert on ordering and on what got deleted.
type recordingTransport struct {
	mu      sync.Mutex
	nextID  int
	posts   []string // Respond/ReplaceMessage text, in order
	threads []string // RespondInThread text, in order
	deleted []string // deleted MessageIDs, in order
}

func newRecordingTransport() *recordingTransport { return &recordingTransport{} }

func (f *recordingTransport) newHandle(channelID string) protocol.MessageHandle {
	f.nextID++
	return protocol.MessageHandle{ChannelID: channelID, MessageID: fmt.Sprintf("m%d", f.nextID)}
}

func (f *recordingTransport) Respond(_ context.Context, channelID, text string) (protocol.MessageHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, text)
	return f.newHandle(channelID), nil
}

func (f *recordingTransport) ReplaceMessage(_ context.Context, _ protocol.MessageHandle, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, text)
	return nil
}

func (f *recordingTransport) RespondInThread(_ context.Context, parent protocol.MessageHandle, text string) (protocol.MessageHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads = append(f.threads, text)
	return f.newHandle(parent.ChannelID), nil
}

func (f *recordingTransport) SetTyping(context.Context, string, protocol.TypingState) error {
	return nil
}
func (f *recordingTransport) UploadFile(context.Context, string, string, string) error { return nil }
func (f *recordingTransport) SetWorking(context.Context, string, bool) error           { return nil }

func (f *recordingTransport) DeleteMessage(_ context.Context, handle protocol.MessageHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, handle.MessageID)
	return nil
}

func (f *recordingTransport) Inbound() <-chan transport.InboundMessage { return nil }
func (f *recordingTransport) Run(ctx context.Context) error            { <-ctx.Done(); return nil }

func (f *recordingTransport) threadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.threads)
}

func (f *recordingTransport) deletedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}

func (f *recordingTransport) lastPost() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.posts) == 0 {
		return ""
	}
	return f.posts[len(f.posts)-1]
}

// backendFunc adapts a plain function to llmbackend.Backend, so a test can
// vary what it emits from one Prompt call to the next.
type backendFunc func(ctx context.Context, model, system string, messages []llmbackend.Message, specs []llmbackend.ToolSpec) (<-chan llmbackend.BackendEvent, error)

func (f backendFunc) Name() string         { return "func" }
func (f backendFunc) DefaultModel() string { return "scripted-model" }
func (f backendFunc) Prompt(ctx context.Context, model, system string, messages []llmbackend.Message, specs []llmbackend.ToolSpec) (<-chan llmbackend.BackendEvent, error) {
	return f(ctx, model, system, messages, specs)
}

func eventsChan(events ...llmbackend.BackendEvent) <-chan llmbackend.BackendEvent {
	ch := make(chan llmbackend.BackendEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func newTestRunner(t *testing.T, backend llmbackend.Backend, models map[string]config.ModelPricing) (*Runner, *recordingTransport) {
	t.Helper()
	dir := t.TempDir()
	tr := newRecordingTransport()
	store := channelstore.New(dir)
	registry := tools.NewRegistry()
	return NewRunner(dir, tr, backend, "scripted-model", registry, store, models), tr
}

func TestRun_SilentFinalDeletesWorkingMessageAndAllThreadPosts(t *testing.T) {
	var calls int
	backend := backendFunc(func(ctx context.Context, model, system string, messages []llmbackend.Message, specs []llmbackend.ToolSpec) (<-chan llmbackend.BackendEvent, error) {
		calls++
		if calls == 1 {
			// A tool-use turn: posts intermediate text and a tool summary
			// to the thread before the model is prompted again.
			return eventsChan(
				llmbackend.BackendEvent{Kind: llmbackend.EventTextDelta, TextDelta: "intermediate note"},
				llmbackend.BackendEvent{Kind: llmbackend.EventToolExecutionStart, ToolUseID: "t1", ToolName: "bash", ToolInput: map[string]any{"command": "ls"}},
				llmbackend.BackendEvent{Kind: llmbackend.EventMessageEnd, StopReason: llmbackend.StopToolUse},
			), nil
		}
		return eventsChan(
			llmbackend.BackendEvent{Kind: llmbackend.EventTextDelta, TextDelta: "[SILENT] done quietly"},
			llmbackend.BackendEvent{Kind: llmbackend.EventMessageEnd, StopReason: llmbackend.StopEndTurn},
		), nil
	})
	runner, tr := newTestRunner(t, backend, nil)

	err := runner.Run(context.Background(), transport.InboundMessage{ChannelID: "chan1", UserID: "u1", UserName: "alice", Text: "do the thing", Ts: "1"})
	require.NoError(t, err)

	assert.Greater(t, tr.threadCount(), 0, "sanity: the tool-use turn should have posted to the thread")
	assert.Equal(t, tr.threadCount()+1, tr.deletedCount(), "the working message plus every tracked thread post must be deleted")
}

func TestRun_StopRequestedReplacesWorkingMessageWithStoppedNoError(t *testing.T) {
	started := make(chan struct{})
	backend := backendFunc(func(ctx context.Context, model, system string, messages []llmbackend.Message, specs []llmbackend.ToolSpec) (<-chan llmbackend.BackendEvent, error) {
		close(started)
		<-ctx.Done()
		return eventsChan(), nil
	})
	runner, tr := newTestRunner(t, backend, nil)

	done := make(chan error, 1)
	go func() {
		done <- runner.Run(context.Background(), transport.InboundMessage{ChannelID: "chan1", UserID: "u1", UserName: "alice", Text: "go", Ts: "1"})
	}()

	<-started
	assert.True(t, runner.RequestStop("chan1"))

	err := <-done
	assert.NoError(t, err)

	assert.Equal(t, "*Stopped*", tr.lastPost())
	for _, p := range tr.posts {
		assert.NotContains(t, p, "Error")
	}
}

func TestRun_UsageSummarySuppressedWhenPricedCallCostsNothing(t *testing.T) {
	backend := backendFunc(func(ctx context.Context, model, system string, messages []llmbackend.Message, specs []llmbackend.ToolSpec) (<-chan llmbackend.BackendEvent, error) {
		return eventsChan(
			llmbackend.BackendEvent{Kind: llmbackend.EventTextDelta, TextDelta: "hi"},
			llmbackend.BackendEvent{Kind: llmbackend.EventMessageEnd, StopReason: llmbackend.StopEndTurn, Usage: &llmbackend.Usage{}},
		), nil
	})
	models := map[string]config.ModelPricing{
		"scripted-model": {ContextWindow: 100000, InputCostPerMTok: 3, OutputCostPerMTok: 15},
	}
	runner, tr := newTestRunner(t, backend, models)

	err := runner.Run(context.Background(), transport.InboundMessage{ChannelID: "chan1", UserID: "u1", UserName: "alice", Text: "hi", Ts: "1"})
	require.NoError(t, err)

	for _, msg := range tr.threads {
		assert.NotContains(t, msg, "Usage:")
	}
}

func TestRun_UsageSummaryPostedWhenModelHasNoPricingEntry(t *testing.T) {
	backend := backendFunc(func(ctx context.Context, model, system string, messages []llmbackend.Message, specs []llmbackend.ToolSpec) (<-chan llmbackend.BackendEvent, error) {
		return eventsChan(
			llmbackend.BackendEvent{Kind: llmbackend.EventTextDelta, TextDelta: "hi"},
			llmbackend.BackendEvent{Kind: llmbackend.EventMessageEnd, StopReason: llmbackend.StopEndTurn, Usage: &llmbackend.Usage{InputTokens: 10, OutputTokens: 5}},
		), nil
	})
	runner, tr := newTestRunner(t, backend, nil)

	err := runner.Run(context.Background(), transport.InboundMessage{ChannelID: "chan1", UserID: "u1", UserName: "alice", Text: "hi", Ts: "1"})
	require.NoError(t, err)

	found := false
	for _, msg := range tr.threads {
		if strings.Contains(msg, "Usage:") {
			found = true
		}
	}
	assert.True(t, found, "a model with no MODELS_JSON entry reads as untracked/local and should still get a usage summary")
}
