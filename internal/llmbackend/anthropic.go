package llmbackend

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicBackend drives the Anthropic Messages API via the official SDK.
// Grounded on steveyegge-vc's internal/ai package usage of
// client.Messages.New, generalized from its single-shot retry calls to the
// streaming variant the agent run loop needs.
type AnthropicBackend struct {
	client       anthropic.Client
	defaultModel string
}

func NewAnthropicBackend(apiKey, defaultModel string) *AnthropicBackend {
	return &AnthropicBackend{
		client:       anthropic.NewClient(option.WithAPIKey(apiKey)),
		defaultModel: defaultModel,
	}
}

func (b *AnthropicBackend) Name() string         { return "anthropic" }
func (b *AnthropicBackend) DefaultModel() string { return b.defaultModel }

func (b *AnthropicBackend) Prompt(ctx context.Context, model, system string, messages []Message, tools []ToolSpec) (<-chan BackendEvent, error) {
	if model == "" {
		model = b.defaultModel
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 8192,
		Messages:  toAnthropicMessages(messages),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, t := range tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{Properties: t.InputSchema["properties"]},
			},
		})
	}

	stream := b.client.Messages.NewStreaming(ctx, params)

	out := make(chan BackendEvent, 8)
	go b.drain(stream, out)
	return out, nil
}

func (b *AnthropicBackend) drain(stream *anthropic.MessageStreamSSE, out chan<- BackendEvent) {
	defer close(out)

	out <- BackendEvent{Kind: EventMessageStart}

	var message anthropic.Message
	stopReason := StopEndTurn
	var usage Usage

	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			out <- BackendEvent{Kind: EventError, Err: err}
			continue
		}

		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := variant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				out <- BackendEvent{Kind: EventTextDelta, TextDelta: delta.Text}
			case anthropic.ThinkingDelta:
				out <- BackendEvent{Kind: EventThinkingDelta, ThinkingDelta: delta.Thinking}
			}
		case anthropic.MessageDeltaEvent:
			if variant.Delta.StopReason != "" {
				stopReason = mapStopReason(string(variant.Delta.StopReason))
			}
			usage.OutputTokens = int(variant.Usage.OutputTokens)
		}
	}

	if err := stream.Err(); err != nil {
		out <- BackendEvent{Kind: EventError, Err: err}
		return
	}

	usage.InputTokens = int(message.Usage.InputTokens)
	usage.CacheReadTokens = int(message.Usage.CacheReadInputTokens)
	usage.CacheWriteTokens = int(message.Usage.CacheCreationInputTokens)

	for _, block := range message.Content {
		if tu, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			var args map[string]any
			_ = json.Unmarshal(tu.Input, &args)
			out <- BackendEvent{
				Kind:      EventToolExecutionStart,
				ToolUseID: tu.ID,
				ToolName:  tu.Name,
				ToolInput: args,
			}
		}
	}

	out <- BackendEvent{Kind: EventMessageEnd, StopReason: stopReason, Usage: &usage}
}

func mapStopReason(s string) StopReason {
	switch s {
	case "tool_use":
		return StopToolUse
	case "max_tokens":
		return StopMaxTokens
	default:
		return StopEndTurn
	}
}

func toAnthropicMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		var blocks []anthropic.ContentBlockParamUnion
		for _, part := range m.Parts {
			switch part.Type {
			case "text":
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			case "tool_use":
				input, _ := json.Marshal(part.ToolInput)
				blocks = append(blocks, anthropic.NewToolUseBlock(part.ToolUseID, input, part.ToolName))
			case "tool_result":
				blocks = append(blocks, anthropic.NewToolResultBlock(part.ToolUseID, part.ToolResult, part.IsError))
			}
		}
		if m.Role == RoleUser {
			out = append(out, anthropic.NewUserMessage(blocks...))
		} else {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		}
	}
	return out
}
