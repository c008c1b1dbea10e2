// Package sessioncontext bridges the human-readable per-channel log
// (channelstore.LogEntry lines) and the model-facing transcript persisted
// to context.jsonl, including turn-based trimming.
package sessioncontext

import "github.com/EdibleTuber/mother/internal/llmbackend"

const MaxTurns = 10

// Part is one piece of a TranscriptMessage's content.
type Part struct {
	Type       string `json:"type"` // "text", "thinking", "image", "tool_use"
	Text       string `json:"text,omitempty"`
	Thinking   string `json:"thinking,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	Data       string `json:"data,omitempty"` // base64
	ToolCallID string `json:"toolCallId,omitempty"`
	ToolName   string `json:"toolName,omitempty"`
	Args       map[string]any `json:"args,omitempty"`
}

// TranscriptMessage is one entry of the model-facing conversation.
type TranscriptMessage struct {
	Role         string                `json:"role"` // "user", "assistant", "tool"
	Content      string                `json:"content,omitempty"`
	Parts        []Part                `json:"parts,omitempty"`
	StopReason   llmbackend.StopReason `json:"stopReason,omitempty"`
	Usage        *llmbackend.Usage     `json:"usage,omitempty"`
	ErrorMessage string                `json:"errorMessage,omitempty"`
	ToolCallID   string                `json:"toolCallId,omitempty"`
	Result       string                `json:"result,omitempty"`
}

func userText(text string) TranscriptMessage {
	return TranscriptMessage{Role: "user", Content: text}
}
