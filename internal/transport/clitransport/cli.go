// Package clitransport implements transport.ChatTransport over stdin/stdout
// for Mother's --cli mode, using a fixed channelId of "cli".
package clitransport

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/EdibleTuber/mother/internal/transport"
	"github.com/EdibleTuber/mother/pkg/protocol"
)

const ChannelID = "cli"

type Transport struct {
	in      *bufio.Scanner
	out     *bufio.Writer
	inbound chan transport.InboundMessage
}

func New() *Transport {
	return &Transport{
		in:      bufio.NewScanner(os.Stdin),
		out:     bufio.NewWriter(os.Stdout),
		inbound: make(chan transport.InboundMessage, 8),
	}
}

func (t *Transport) Inbound() <-chan transport.InboundMessage { return t.inbound }

func (t *Transport) Run(ctx context.Context) error {
	defer close(t.inbound)
	ts := 0
	for t.in.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		line := t.in.Text()
		if line == "" {
			continue
		}
		ts++
		t.inbound <- transport.InboundMessage{
			ChannelID: ChannelID,
			UserID:    "cli-user",
			UserName:  "cli-user",
			Text:      line,
			Ts:        fmt.Sprintf("%d", ts),
		}
	}
	return t.in.Err()
}

func (t *Transport) Respond(_ context.Context, _, text string) (protocol.MessageHandle, error) {
	fmt.Fprintln(t.out, text)
	t.out.Flush()
	return protocol.MessageHandle{ChannelID: ChannelID, MessageID: text}, nil
}

func (t *Transport) ReplaceMessage(_ context.Context, _ protocol.MessageHandle, text string) error {
	fmt.Fprintln(t.out, text)
	t.out.Flush()
	return nil
}

func (t *Transport) RespondInThread(ctx context.Context, parent protocol.MessageHandle, text string) (protocol.MessageHandle, error) {
	return t.Respond(ctx, parent.ChannelID, text)
}

func (t *Transport) SetTyping(context.Context, string, protocol.TypingState) error { return nil }

func (t *Transport) UploadFile(_ context.Context, _, path, title string) error {
	fmt.Fprintf(t.out, "[attachment: %s] %s\n", path, title)
	t.out.Flush()
	return nil
}

func (t *Transport) SetWorking(context.Context, string, bool) error { return nil }

func (t *Transport) DeleteMessage(context.Context, protocol.MessageHandle) error { return nil }
