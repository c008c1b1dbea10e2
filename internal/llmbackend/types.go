// Package llmbackend defines the provider-agnostic streaming interface the
// agent run loop drives, plus concrete Anthropic and OpenAI-compatible
// adapters.
package llmbackend

import "context"

// Usage accumulates token and cost accounting for a single backend call.
// Tool implementations that make their own internal LLM calls attach one
// of these to their Result for the agent loop to fold into run totals.
type Usage struct {
	InputTokens      int
	OutputTokens     int
	CacheReadTokens  int
	CacheWriteTokens int
	CostUSD          float64
}

func (u *Usage) Add(o *Usage) {
	if o == nil {
		return
	}
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
	u.CacheReadTokens += o.CacheReadTokens
	u.CacheWriteTokens += o.CacheWriteTokens
	u.CostUSD += o.CostUSD
}

// Role identifies the speaker of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation sent to the backend.
type Message struct {
	Role  Role
	Parts []ContentPart
}

// ContentPart is one piece of a message: text, a tool call, or a tool result.
type ContentPart struct {
	Type       string // "text", "thinking", "tool_use", "tool_result"
	Text       string
	ToolUseID  string
	ToolName   string
	ToolInput  map[string]any
	ToolResult string
	IsError    bool
}

// ToolSpec describes a callable tool to the backend.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// EventKind discriminates BackendEvent.Kind.
type EventKind string

const (
	EventMessageStart       EventKind = "message_start"
	EventTextDelta          EventKind = "text_delta"
	EventThinkingDelta      EventKind = "thinking_delta"
	EventToolExecutionStart EventKind = "tool_execution_start"
	EventToolExecutionEnd   EventKind = "tool_execution_end"
	EventMessageEnd         EventKind = "message_end"
	EventAutoCompactStart   EventKind = "auto_compaction_start"
	EventAutoCompactEnd     EventKind = "auto_compaction_end"
	EventAutoRetryStart     EventKind = "auto_retry_start"
	EventError              EventKind = "error"
)

// StopReason mirrors the backend's reported reason a message stream ended.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
	StopAborted   StopReason = "aborted"
)

// BackendEvent is one item of the stream Prompt returns.
type BackendEvent struct {
	Kind EventKind

	TextDelta      string
	ThinkingDelta  string
	ToolUseID      string
	ToolName       string
	ToolInput      map[string]any
	ToolResultText string

	StopReason StopReason
	Usage      *Usage
	Err        error
}

// Backend is implemented by each concrete model provider adapter.
type Backend interface {
	Name() string
	DefaultModel() string
	Prompt(ctx context.Context, model string, system string, messages []Message, tools []ToolSpec) (<-chan BackendEvent, error)
}
