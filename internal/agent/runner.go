package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/EdibleTuber/mother/internal/channelstore"
	"github.com/EdibleTuber/mother/internal/config"
	"github.com/EdibleTuber/mother/internal/executor"
	"github.com/EdibleTuber/mother/internal/llmbackend"
	"github.com/EdibleTuber/mother/internal/sessioncontext"
	"github.com/EdibleTuber/mother/internal/telemetry"
	"github.com/EdibleTuber/mother/internal/tools"
	"github.com/EdibleTuber/mother/internal/transport"
	"github.com/EdibleTuber/mother/pkg/protocol"
)

// contextWindows maps a model id to the context window size its usage
// ratio line is computed against. Unknown models fall back to the
// smallest window in the table, erring toward an overstated ratio rather
// than an understated one.
var contextWindows = map[string]int{
	"claude-sonnet-4-5": 200000,
	"claude-opus-4-1":   200000,
	"gpt-4o":            128000,
	"gpt-4o-mini":       128000,
}

func contextWindowForModel(models map[string]config.ModelPricing, model string) int {
	if m, ok := models[model]; ok && m.ContextWindow > 0 {
		return m.ContextWindow
	}
	if w, ok := contextWindows[model]; ok {
		return w
	}
	return 128000
}

// costFor computes a turn's dollar cost from MODELS_JSON pricing, when the
// operator configured it. Models with no entry cost nothing on paper,
// which is also how self-hosted/local backends should read.
func costFor(models map[string]config.ModelPricing, model string, usage *llmbackend.Usage) float64 {
	pricing, ok := models[model]
	if !ok {
		return 0
	}
	return float64(usage.InputTokens)/1_000_000*pricing.InputCostPerMTok +
		float64(usage.OutputTokens)/1_000_000*pricing.OutputCostPerMTok
}

func estimateTokensTranscript(transcript []sessioncontext.TranscriptMessage) int {
	total := 0
	for _, m := range transcript {
		total += estimateTokens(m.Content)
		for _, p := range m.Parts {
			total += estimateTokens(p.Text) + estimateTokens(p.Thinking)
		}
		total += estimateTokens(m.Result)
	}
	return total
}

type pendingToolCall struct {
	ID    string
	Name  string
	Input map[string]any
}

// Runner drives one prompt/tool-use cycle per invocation, maintaining one
// RunState per channel so an in-flight run can be found and aborted.
// Grounded on vanducng-goclaw's internal/agent/loop.go Think->Act->Observe
// structure, generalized to Mother's filesystem-backed transcript and its
// single ChatTransport/Backend pair.
type Runner struct {
	workspaceDir string
	transport    transport.ChatTransport
	backend      llmbackend.Backend
	model        string
	registry     *tools.Registry
	store        *channelstore.Store
	models       map[string]config.ModelPricing

	mu     sync.Mutex
	states map[string]*RunState
}

func NewRunner(workspaceDir string, tr transport.ChatTransport, backend llmbackend.Backend, model string, registry *tools.Registry, store *channelstore.Store, models map[string]config.ModelPricing) *Runner {
	return &Runner{
		workspaceDir: workspaceDir,
		transport:    tr,
		backend:      backend,
		model:        model,
		registry:     registry,
		store:        store,
		models:       models,
		states:       map[string]*RunState{},
	}
}

func (r *Runner) stateFor(channelID string) *RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[channelID]
	if !ok {
		s = newRunState()
		r.states[channelID] = s
	}
	return s
}

// IsRunning reports whether channelID currently has an active run, for the
// orchestrator's "already working" check.
func (r *Runner) IsRunning(channelID string) bool {
	s := r.stateFor(channelID)
	s.lock()
	defer s.unlock()
	return s.Running
}

// RequestStop cancels channelID's active run, if any, and reports whether
// one was actually running.
func (r *Runner) RequestStop(channelID string) bool {
	s := r.stateFor(channelID)
	s.lock()
	defer s.unlock()
	if !s.Running {
		return false
	}
	s.StopRequested = true
	if s.CancelFunc != nil {
		s.CancelFunc()
	}
	return true
}

// Run executes one full Think->Act->Observe cycle for msg: loads and syncs
// the transcript, prompts the backend, dispatches any requested tool
// calls, routes text per spec §4.6, and persists the updated transcript
// before returning.
func (r *Runner) Run(ctx context.Context, msg transport.InboundMessage) error {
	channelID := msg.ChannelID
	state := r.stateFor(channelID)

	runCtx, cancel := context.WithCancel(ctx)
	state.lock()
	state.Running = true
	state.StopRequested = false
	state.CancelFunc = cancel
	state.AccumulatedUsage = llmbackend.Usage{}
	state.unlock()

	runCtx, span := telemetry.StartRunSpan(runCtx, channelID)
	defer span.End()

	chain := newSideEffectChain()
	agentCtx := &Context{ChannelID: channelID, runner: r}
	threads := newThreadTracker()

	defer func() {
		chain.Close()
		state.lock()
		state.Running = false
		state.CancelFunc = nil
		state.unlock()
		cancel()
	}()

	transcript, highWater, err := sessioncontext.Load(r.workspaceDir, channelID)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}

	entries, err := r.store.ReadAll(channelID)
	if err != nil {
		return fmt.Errorf("read channel log: %w", err)
	}
	transcript, highWater = sessioncontext.Sync(transcript, entries, highWater)
	transcript = sessioncontext.Trim(transcript)

	userTable := map[string]string{}
	if msg.UserID != "" {
		name := msg.DisplayName
		if name == "" {
			name = msg.UserName
		}
		userTable[msg.UserID] = name
	}
	system := BuildSystemPrompt(r.workspaceDir, channelID, userTable)

	var workingHandle protocol.MessageHandle
	chain.Enqueue(func() {
		h, err := agentCtx.Respond(runCtx, "*Thinking...*")
		if err != nil {
			slog.Error("agent: failed to post working message", "channel", channelID, "error", err)
			return
		}
		workingHandle = h
	})
	chain.Enqueue(func() {
		_ = agentCtx.SetTyping(runCtx, protocol.TypingOn)
	})

	specs := toolSpecs(r.registry)

	var silentFinal bool
	for {
		messages := toBackendMessages(transcript)
		_ = sessioncontext.SaveSnapshot(r.workspaceDir, channelID, sessioncontext.Snapshot{
			SystemPrompt: system,
			Transcript:   transcript,
			UserMessage:  msg.Text,
		})

		events, err := r.backend.Prompt(runCtx, r.model, system, messages, specs)
		if err != nil {
			if state.wasStopRequested() {
				r.finishAborted(runCtx, agentCtx, chain, workingHandle)
				_ = sessioncontext.Save(r.workspaceDir, channelID, transcript, highWater)
				return nil
			}
			chain.Enqueue(func() { _, _ = agentCtx.Respond(runCtx, errorBanner(err.Error())) })
			_ = sessioncontext.Save(r.workspaceDir, channelID, transcript, highWater)
			return err
		}

		var textBuf, thinkingBuf strings.Builder
		var toolCalls []pendingToolCall
		var turnUsage llmbackend.Usage
		var stopReason llmbackend.StopReason
		var streamErr error

		for ev := range events {
			switch ev.Kind {
			case llmbackend.EventTextDelta:
				textBuf.WriteString(ev.TextDelta)
			case llmbackend.EventThinkingDelta:
				thinkingBuf.WriteString(ev.ThinkingDelta)
			case llmbackend.EventToolExecutionStart:
				toolCalls = append(toolCalls, pendingToolCall{ID: ev.ToolUseID, Name: ev.ToolName, Input: ev.ToolInput})
			case llmbackend.EventMessageEnd:
				stopReason = ev.StopReason
				if ev.Usage != nil {
					turnUsage.Add(ev.Usage)
				}
			case llmbackend.EventError:
				streamErr = ev.Err
			}
		}

		turnUsage.CostUSD = costFor(r.models, r.model, &turnUsage)

		state.lock()
		state.AccumulatedUsage.Add(&turnUsage)
		state.unlock()

		text := textBuf.String()
		thinking := thinkingBuf.String()

		assistantMsg := sessioncontext.TranscriptMessage{Role: "assistant", StopReason: stopReason, Usage: &turnUsage}
		if thinking != "" {
			assistantMsg.Parts = append(assistantMsg.Parts, sessioncontext.Part{Type: "thinking", Thinking: thinking})
		}
		if text != "" {
			assistantMsg.Parts = append(assistantMsg.Parts, sessioncontext.Part{Type: "text", Text: text})
		}
		for _, tc := range toolCalls {
			assistantMsg.Parts = append(assistantMsg.Parts, sessioncontext.Part{Type: "tool_use", ToolCallID: tc.ID, ToolName: tc.Name, Args: tc.Input})
		}
		transcript = append(transcript, assistantMsg)

		// A stop request cancels runCtx, which surfaces differently per
		// backend: Anthropic's stream reports context.Canceled as
		// EventError, the openai-compat stream just ends cleanly with
		// StopEndTurn. Either way, a pending stop request always wins
		// over the stream's own stop reason or error.
		if state.wasStopRequested() {
			r.finishAborted(runCtx, agentCtx, chain, workingHandle)
			_ = sessioncontext.Save(r.workspaceDir, channelID, transcript, highWater)
			return nil
		}

		if streamErr != nil {
			chain.Enqueue(func() { _, _ = agentCtx.Respond(runCtx, errorBanner(streamErr.Error())) })
			_ = sessioncontext.Save(r.workspaceDir, channelID, transcript, highWater)
			return streamErr
		}

		if stopReason == llmbackend.StopToolUse && len(toolCalls) > 0 {
			if text != "" && !isSilent(text) {
				wh := workingHandle
				body := text
				chain.Enqueue(func() {
					h, _ := agentCtx.RespondInThread(runCtx, wh, body)
					threads.record(h)
				})
			}

			for _, tc := range toolCalls {
				result := r.dispatchTool(runCtx, agentCtx, chain, threads, workingHandle, tc)
				errMsg := ""
				if result.IsError {
					errMsg = result.ForLLM
				}
				transcript = append(transcript, sessioncontext.TranscriptMessage{
					Role:         "tool",
					ToolCallID:   tc.ID,
					Result:       result.ForLLM,
					ErrorMessage: errMsg,
				})
				if result.Usage != nil {
					state.lock()
					state.AccumulatedUsage.Add(result.Usage)
					state.unlock()
				}
			}
			continue
		}

		if text != "" {
			if isSilent(text) {
				silentFinal = true
				wh := workingHandle
				chain.Enqueue(func() {
					if wh.MessageID != "" {
						_ = agentCtx.DeleteMessage(runCtx, wh)
					}
					for _, h := range threads.drain() {
						_ = agentCtx.DeleteMessage(runCtx, h)
					}
				})
			} else {
				chunks := splitFinal(text)
				first := chunks[0]
				rest := chunks[1:]
				wh := workingHandle
				chain.Enqueue(func() { _ = agentCtx.ReplaceMessage(runCtx, wh, first) })
				for _, c := range rest {
					chunk := c
					chain.Enqueue(func() { _, _ = agentCtx.Respond(runCtx, chunk) })
				}
				full := text
				chain.Enqueue(func() {
					h, _ := agentCtx.RespondInThread(runCtx, wh, full)
					threads.record(h)
				})
			}
		}
		break
	}

	chain.Enqueue(func() { _ = agentCtx.SetTyping(runCtx, protocol.TypingOff) })

	state.lock()
	totalUsage := state.AccumulatedUsage
	state.unlock()

	tailTokens := estimateTokens(system) + estimateTokensTranscript(transcript)
	wh := workingHandle
	window := contextWindowForModel(r.models, r.model)

	_, hasPricing := r.models[r.model]
	postUsage := !silentFinal && (totalUsage.CostUSD > 0 || !hasPricing)
	if postUsage {
		chain.Enqueue(func() {
			_, _ = agentCtx.RespondInThread(runCtx, wh, usageSummary(totalUsage, tailTokens, window))
		})
	}

	if err := sessioncontext.Save(r.workspaceDir, channelID, transcript, highWater); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}

	return nil
}

// finishAborted replaces the working message with the stopped banner, with
// no error text — a user-requested stop is not a failure.
func (r *Runner) finishAborted(ctx context.Context, agentCtx *Context, chain *sideEffectChain, workingHandle protocol.MessageHandle) {
	wh := workingHandle
	chain.Enqueue(func() {
		if wh.MessageID != "" {
			_ = agentCtx.ReplaceMessage(ctx, wh, "*Stopped*")
		}
	})
}

// dispatchTool runs one requested tool call synchronously on the calling
// goroutine, enqueueing its UI-visible side effects onto chain so they
// post in order alongside everything else for this run.
func (r *Runner) dispatchTool(ctx context.Context, agentCtx *Context, chain *sideEffectChain, threads *threadTracker, workingHandle protocol.MessageHandle, tc pendingToolCall) *tools.Result {
	ctx = tools.WithChannelID(ctx, agentCtx.ChannelID)
	label := toolLabel(tc.Name, tc.Input)
	caption := workingCaption(label)
	wh := workingHandle
	chain.Enqueue(func() {
		if wh.MessageID != "" {
			_ = agentCtx.ReplaceMessage(ctx, wh, caption)
		}
	})

	started := time.Now()
	var result *tools.Result

	t, ok := r.registry.Get(tc.Name)
	if !ok {
		result = tools.ErrorResult(fmt.Sprintf("unknown tool: %s", tc.Name))
	} else {
		toolCtx, toolSpan := telemetry.StartToolSpan(ctx, tc.Name)
		result = t.Execute(toolCtx, tc.Input)
		toolSpan.End()
	}
	elapsed := time.Since(started)

	if !result.Silent {
		display, _ := executor.TailTruncate(result.ForLLM, 200, 8*1024)
		summary := toolSummary(tc.Name, label, elapsed, tc.Input, display, result.IsError)
		chain.Enqueue(func() {
			h, _ := agentCtx.RespondInThread(ctx, wh, summary)
			threads.record(h)
		})
	}
	if result.IsError {
		message := result.ForLLM
		chain.Enqueue(func() { _, _ = agentCtx.Respond(ctx, errorBanner(message)) })
	}
	if result.ForUser != "" {
		forUser := result.ForUser
		chain.Enqueue(func() {
			h, _ := agentCtx.RespondInThread(ctx, wh, forUser)
			threads.record(h)
		})
	}
	return result
}
