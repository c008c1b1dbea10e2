package agent

import (
	"github.com/EdibleTuber/mother/internal/llmbackend"
	"github.com/EdibleTuber/mother/internal/sessioncontext"
	"github.com/EdibleTuber/mother/internal/tools"
)

// toBackendMessages renders the persisted transcript into the wire shape a
// Backend.Prompt call expects. Tool-result entries travel as user-role
// messages carrying a single tool_result part, matching how Anthropic and
// OpenAI-compatible chat APIs both expect tool output to be threaded back.
func toBackendMessages(transcript []sessioncontext.TranscriptMessage) []llmbackend.Message {
	messages := make([]llmbackend.Message, 0, len(transcript))
	for _, msg := range transcript {
		switch msg.Role {
		case "tool":
			result := msg.Result
			isError := msg.ErrorMessage != ""
			if isError {
				result = msg.ErrorMessage
			}
			messages = append(messages, llmbackend.Message{
				Role: llmbackend.RoleUser,
				Parts: []llmbackend.ContentPart{{
					Type:       "tool_result",
					ToolUseID:  msg.ToolCallID,
					ToolResult: result,
					IsError:    isError,
				}},
			})
		default:
			role := llmbackend.RoleUser
			if msg.Role == "assistant" {
				role = llmbackend.RoleAssistant
			}
			messages = append(messages, llmbackend.Message{Role: role, Parts: toBackendParts(msg)})
		}
	}
	return messages
}

func toBackendParts(msg sessioncontext.TranscriptMessage) []llmbackend.ContentPart {
	if len(msg.Parts) == 0 {
		if msg.Content == "" {
			return nil
		}
		return []llmbackend.ContentPart{{Type: "text", Text: msg.Content}}
	}

	parts := make([]llmbackend.ContentPart, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		switch p.Type {
		case "tool_use":
			parts = append(parts, llmbackend.ContentPart{
				Type:      "tool_use",
				ToolUseID: p.ToolCallID,
				ToolName:  p.ToolName,
				ToolInput: p.Args,
			})
		case "thinking":
			parts = append(parts, llmbackend.ContentPart{Type: "thinking", Text: p.Thinking})
		default:
			parts = append(parts, llmbackend.ContentPart{Type: "text", Text: p.Text})
		}
	}
	return parts
}

// toolSpecs renders every registered tool into the schema Backend.Prompt
// passes to the model.
func toolSpecs(reg *tools.Registry) []llmbackend.ToolSpec {
	all := reg.All()
	specs := make([]llmbackend.ToolSpec, 0, len(all))
	for _, t := range all {
		specs = append(specs, llmbackend.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Parameters(),
		})
	}
	return specs
}
