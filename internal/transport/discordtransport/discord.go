// Package discordtransport adapts the Discord gateway API to the
// transport.ChatTransport interface. Grounded on vanducng-goclaw's
// internal/channels/discord/discord.go chunking and placeholder-message
// lifecycle, stripped of its multi-tenant pairing/allowlist machinery —
// Mother is a single-bot, single-guild deployment gated by GUILD_ID.
package discordtransport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/EdibleTuber/mother/internal/transport"
	"github.com/EdibleTuber/mother/pkg/protocol"
)

const maxMessageLen = 2000

// Transport connects to Discord via the bot gateway.
type Transport struct {
	session *discordgo.Session
	guildID string
	botID   string

	inbound chan transport.InboundMessage
}

func New(token, guildID string) (*Transport, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	t := &Transport{
		session: session,
		guildID: guildID,
		inbound: make(chan transport.InboundMessage, 32),
	}
	session.AddHandler(t.handleMessage)
	return t, nil
}

func (t *Transport) Inbound() <-chan transport.InboundMessage { return t.inbound }

func (t *Transport) Run(ctx context.Context) error {
	if err := t.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer t.session.Close()

	user, err := t.session.User("@me")
	if err != nil {
		return fmt.Errorf("fetch discord bot identity: %w", err)
	}
	t.botID = user.ID
	slog.Info("discordtransport: connected", "username", user.Username, "id", user.ID)

	<-ctx.Done()
	return nil
}

func (t *Transport) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == t.botID || m.Author.Bot {
		return
	}
	if t.guildID != "" && m.GuildID != "" && m.GuildID != t.guildID {
		return
	}

	msg := transport.InboundMessage{
		ChannelID:   m.ChannelID,
		UserID:      m.Author.ID,
		UserName:    m.Author.Username,
		DisplayName: resolveDisplayName(m),
		Text:        m.Content,
		Ts:          m.ID,
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, transport.InboundAttachment{
			OriginalName: a.Filename,
			URL:          a.URL,
		})
	}

	select {
	case t.inbound <- msg:
	default:
		slog.Warn("discordtransport: inbound buffer full, dropping message", "channel", m.ChannelID)
	}
}

func resolveDisplayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

func (t *Transport) Respond(_ context.Context, channelID, text string) (protocol.MessageHandle, error) {
	chunks := splitChunks(text)
	var last *discordgo.Message
	for _, chunk := range chunks {
		msg, err := t.session.ChannelMessageSend(channelID, chunk)
		if err != nil {
			return protocol.MessageHandle{}, fmt.Errorf("send discord message: %w", err)
		}
		last = msg
	}
	return protocol.MessageHandle{ChannelID: channelID, MessageID: last.ID}, nil
}

func (t *Transport) ReplaceMessage(_ context.Context, handle protocol.MessageHandle, text string) error {
	chunks := splitChunks(text)
	if _, err := t.session.ChannelMessageEdit(handle.ChannelID, handle.MessageID, chunks[0]); err != nil {
		return fmt.Errorf("edit discord message: %w", err)
	}
	for _, chunk := range chunks[1:] {
		if _, err := t.session.ChannelMessageSend(handle.ChannelID, chunk); err != nil {
			return fmt.Errorf("send discord continuation: %w", err)
		}
	}
	return nil
}

func (t *Transport) RespondInThread(_ context.Context, parent protocol.MessageHandle, text string) (protocol.MessageHandle, error) {
	chunks := splitChunks(text)
	var last *discordgo.Message
	for _, chunk := range chunks {
		msg, err := t.session.ChannelMessageSendReply(parent.ChannelID, chunk, &discordgo.MessageReference{
			MessageID: parent.MessageID,
			ChannelID: parent.ChannelID,
		})
		if err != nil {
			return protocol.MessageHandle{}, fmt.Errorf("send discord threaded reply: %w", err)
		}
		last = msg
	}
	return protocol.MessageHandle{ChannelID: parent.ChannelID, MessageID: last.ID}, nil
}

func (t *Transport) SetTyping(_ context.Context, channelID string, state protocol.TypingState) error {
	if state != protocol.TypingOn {
		return nil
	}
	return t.session.ChannelTyping(channelID)
}

func (t *Transport) UploadFile(_ context.Context, channelID, path, title string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	_, err = t.session.ChannelFileSendWithMessage(channelID, title, filenameOf(path), f)
	if err != nil {
		return fmt.Errorf("upload discord file: %w", err)
	}
	return nil
}

func (t *Transport) SetWorking(_ context.Context, _ string, _ bool) error {
	return nil
}

func (t *Transport) DeleteMessage(_ context.Context, handle protocol.MessageHandle) error {
	return t.session.ChannelMessageDelete(handle.ChannelID, handle.MessageID)
}

// splitChunks breaks content into pieces no longer than maxMessageLen,
// preferring to cut at a newline past the halfway point.
func splitChunks(content string) []string {
	if content == "" {
		content = "(empty response)"
	}
	var chunks []string
	for len(content) > 0 {
		if len(content) <= maxMessageLen {
			chunks = append(chunks, content)
			break
		}
		cutAt := maxMessageLen
		if idx := strings.LastIndexByte(content[:maxMessageLen], '\n'); idx > maxMessageLen/2 {
			cutAt = idx + 1
		}
		chunks = append(chunks, content[:cutAt])
		content = content[cutAt:]
	}
	return chunks
}

func filenameOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}
