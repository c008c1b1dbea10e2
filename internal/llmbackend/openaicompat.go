package llmbackend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAICompatBackend talks to any OpenAI-compatible chat completions API
// (OpenAI itself, OpenRouter, Groq, a local vLLM/Ollama server — MODEL_PROVIDER=openai
// with LLM_URL pointed at the target). Grounded on nevindra-oasis's
// provider/openaicompat package, reworked onto the Backend/BackendEvent
// contract instead of oasis.Provider/StreamEvent.
type OpenAICompatBackend struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
}

func NewOpenAICompatBackend(apiKey, baseURL, defaultModel string) *OpenAICompatBackend {
	return &OpenAICompatBackend{
		apiKey:       apiKey,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		defaultModel: defaultModel,
		client:       &http.Client{},
	}
}

func (b *OpenAICompatBackend) Name() string         { return "openai" }
func (b *OpenAICompatBackend) DefaultModel() string { return b.defaultModel }

type chatCompletionRequest struct {
	Model         string          `json:"model"`
	Messages      []ccMessage     `json:"messages"`
	Tools         []ccTool        `json:"tools,omitempty"`
	Stream        bool            `json:"stream"`
	StreamOptions *streamOptions  `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type ccMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ccToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ccToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type ccTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type ccStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string       `json:"content"`
			ToolCalls []ccToolCall `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (b *OpenAICompatBackend) Prompt(ctx context.Context, model, system string, messages []Message, tools []ToolSpec) (<-chan BackendEvent, error) {
	if model == "" {
		model = b.defaultModel
	}

	body := chatCompletionRequest{
		Model:         model,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	}
	if system != "" {
		body.Messages = append(body.Messages, ccMessage{Role: "system", Content: system})
	}
	for _, m := range messages {
		body.Messages = append(body.Messages, toCCMessage(m))
	}
	for _, t := range tools {
		ct := ccTool{Type: "function"}
		ct.Function.Name = t.Name
		ct.Function.Description = t.Description
		ct.Function.Parameters = t.InputSchema
		body.Tools = append(body.Tools, ct)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai-compat backend: status %d: %s", resp.StatusCode, string(data))
	}

	out := make(chan BackendEvent, 8)
	go b.streamSSE(resp.Body, out)
	return out, nil
}

func (b *OpenAICompatBackend) streamSSE(body io.ReadCloser, out chan<- BackendEvent) {
	defer close(out)
	defer body.Close()

	out <- BackendEvent{Kind: EventMessageStart}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var usage Usage
	stopReason := StopEndTurn

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk ccStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if chunk.Usage != nil {
			usage.InputTokens = chunk.Usage.PromptTokens
			usage.OutputTokens = chunk.Usage.CompletionTokens
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				out <- BackendEvent{Kind: EventTextDelta, TextDelta: choice.Delta.Content}
			}
			for _, tc := range choice.Delta.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
				out <- BackendEvent{
					Kind:      EventToolExecutionStart,
					ToolUseID: tc.ID,
					ToolName:  tc.Function.Name,
					ToolInput: args,
				}
			}
			switch choice.FinishReason {
			case "tool_calls":
				stopReason = StopToolUse
			case "length":
				stopReason = StopMaxTokens
			}
		}
	}

	out <- BackendEvent{Kind: EventMessageEnd, StopReason: stopReason, Usage: &usage}
}

func toCCMessage(m Message) ccMessage {
	role := string(m.Role)
	var text strings.Builder
	out := ccMessage{Role: role}
	for _, part := range m.Parts {
		switch part.Type {
		case "text":
			text.WriteString(part.Text)
		case "tool_result":
			out.ToolCallID = part.ToolUseID
			out.Role = "tool"
			text.WriteString(part.ToolResult)
		case "tool_use":
			tc := ccToolCall{ID: part.ToolUseID, Type: "function"}
			tc.Function.Name = part.ToolName
			if encoded, err := json.Marshal(part.ToolInput); err == nil {
				tc.Function.Arguments = string(encoded)
			}
			out.ToolCalls = append(out.ToolCalls, tc)
		}
	}
	out.Content = text.String()
	return out
}
