// Package transport defines the ChatTransport boundary the orchestrator and
// agent runner drive, plus concrete Discord and CLI adapters.
package transport

import (
	"context"

	"github.com/EdibleTuber/mother/pkg/protocol"
)

// InboundMessage is one normalized message arriving from a transport.
type InboundMessage struct {
	ChannelID   string
	UserID      string
	UserName    string
	DisplayName string
	Text        string
	Ts          string
	Attachments []InboundAttachment
	IsBot       bool
}

// InboundAttachment is a file reference as seen by the transport, before
// channelstore downloads it to disk.
type InboundAttachment struct {
	OriginalName string
	URL          string
}

// ChatTransport is the capability surface an AgentRunner drives to talk
// back to the chat platform it was started against.
type ChatTransport interface {
	// Respond posts a new message to channelID and returns a handle to it.
	Respond(ctx context.Context, channelID, text string) (protocol.MessageHandle, error)

	// ReplaceMessage edits a previously posted message's content in place.
	ReplaceMessage(ctx context.Context, handle protocol.MessageHandle, text string) error

	// RespondInThread posts a reply rooted at a prior message.
	RespondInThread(ctx context.Context, parent protocol.MessageHandle, text string) (protocol.MessageHandle, error)

	// SetTyping toggles the typing indicator for channelID.
	SetTyping(ctx context.Context, channelID string, state protocol.TypingState) error

	// UploadFile sends a workspace file to channelID with an optional caption.
	UploadFile(ctx context.Context, channelID, path, title string) error

	// SetWorking marks channelID as actively processing, for presence/UX.
	SetWorking(ctx context.Context, channelID string, working bool) error

	// DeleteMessage removes a previously posted message.
	DeleteMessage(ctx context.Context, handle protocol.MessageHandle) error

	// Inbound returns the channel of normalized messages the transport emits.
	Inbound() <-chan InboundMessage

	// Run starts the transport's connection loop, blocking until ctx ends.
	Run(ctx context.Context) error
}
