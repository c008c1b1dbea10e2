// Package orchestrator normalizes inbound chat messages into channel-log
// entries and agent runs: stripping mention tokens, deduplicating via
// channelstore, gating messages that predate process startup, handling
// the "stop" command, and serializing runs per channel through a
// queue.Manager. It also implements scheduler.Dispatcher, bridging
// scheduled events into the same per-channel queue.
package orchestrator

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/EdibleTuber/mother/internal/agent"
	"github.com/EdibleTuber/mother/internal/channelstore"
	"github.com/EdibleTuber/mother/internal/queue"
	"github.com/EdibleTuber/mother/internal/transport"
)

// discordEpochMillis is the custom epoch Discord snowflake IDs are offset
// from (2015-01-01T00:00:00Z), used only to gate stale backlog messages.
const discordEpochMillis = 1420070400000

var mentionPrefix = regexp.MustCompile(`^\s*<@!?\d+>[,:]?\s*`)

// stopWords are case-insensitive full-message matches that abort an
// active run instead of starting a new one.
var stopWords = map[string]bool{"stop": true, "abort": true, "cancel": true}

// Orchestrator is the single entry point transports feed inbound messages
// into, and the exit point the scheduler fires events through.
type Orchestrator struct {
	transport transport.ChatTransport
	store     *channelstore.Store
	downloads *channelstore.DownloadQueue
	queue     *queue.Manager
	runner    *agent.Runner

	startedAt time.Time
}

func New(tr transport.ChatTransport, store *channelstore.Store, downloads *channelstore.DownloadQueue, q *queue.Manager, runner *agent.Runner) *Orchestrator {
	return &Orchestrator{
		transport: tr,
		store:     store,
		downloads: downloads,
		queue:     q,
		runner:    runner,
		startedAt: time.Now(),
	}
}

// Run starts the transport's connection loop and feeds every inbound
// message through handleInbound until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- o.transport.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		case msg, ok := <-o.transport.Inbound():
			if !ok {
				return nil
			}
			o.handleInbound(ctx, msg)
		}
	}
}

func (o *Orchestrator) handleInbound(ctx context.Context, msg transport.InboundMessage) {
	if o.isStale(msg.Ts) {
		slog.Debug("orchestrator: dropping backlog message predating startup", "channel", msg.ChannelID, "ts", msg.Ts)
		return
	}

	msg.Text = mentionPrefix.ReplaceAllString(msg.Text, "")

	for _, a := range msg.Attachments {
		local := channelstore.AttachmentLocalPath(msg.ChannelID, msg.Ts, a.OriginalName)
		o.downloads.Enqueue(channelstore.DownloadJob{ChannelID: msg.ChannelID, LocalPath: local, URL: a.URL})
	}

	appended, err := o.store.Append(msg.ChannelID, toLogEntry(msg))
	if err != nil {
		slog.Error("orchestrator: failed to append channel log", "channel", msg.ChannelID, "error", err)
		return
	}
	if !appended {
		return // duplicate within the dedup window, already logged once
	}

	if stopWords[strings.ToLower(strings.TrimSpace(msg.Text))] {
		o.handleStop(ctx, msg.ChannelID)
		return
	}

	if o.runner.IsRunning(msg.ChannelID) {
		_, _ = o.transport.Respond(ctx, msg.ChannelID, "*Already working. Say \"stop\" to cancel.*")
		return
	}

	o.queue.Enqueue(msg.ChannelID, func() {
		if err := o.runner.Run(ctx, msg); err != nil {
			slog.Error("orchestrator: run failed", "channel", msg.ChannelID, "error", err)
		}
	})
}

func (o *Orchestrator) handleStop(ctx context.Context, channelID string) {
	if o.runner.RequestStop(channelID) {
		_, _ = o.transport.Respond(ctx, channelID, "*Stopping...*")
		return
	}
	_, _ = o.transport.Respond(ctx, channelID, "*Nothing running*")
}

// DispatchEvent implements scheduler.Dispatcher: it synthesizes an
// InboundMessage from a fired event and pushes it through the same
// per-channel queue a live chat message would take, skipping the stop
// and dedup handling that only makes sense for user-authored text.
func (o *Orchestrator) DispatchEvent(channelID, text string) {
	msg := transport.InboundMessage{
		ChannelID: channelID,
		UserID:    "scheduler",
		UserName:  "scheduler",
		Text:      text,
		Ts:        strconv.FormatInt(time.Now().UnixNano(), 10),
	}

	if _, err := o.store.Append(channelID, toLogEntry(msg)); err != nil {
		slog.Error("orchestrator: failed to append scheduled event", "channel", channelID, "error", err)
		return
	}

	if o.runner.IsRunning(channelID) {
		slog.Warn("orchestrator: dropping scheduled event, run already active", "channel", channelID)
		return
	}

	o.queue.Enqueue(channelID, func() {
		if err := o.runner.Run(context.Background(), msg); err != nil {
			slog.Error("orchestrator: scheduled run failed", "channel", channelID, "error", err)
		}
	})
}

func (o *Orchestrator) isStale(ts string) bool {
	id, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	millis := (id >> 22) + discordEpochMillis
	if millis <= discordEpochMillis || millis > 9999999999999 {
		return false // not a plausible snowflake; don't gate non-Discord transports
	}
	return time.UnixMilli(millis).Before(o.startedAt)
}

func toLogEntry(msg transport.InboundMessage) channelstore.LogEntry {
	entry := channelstore.LogEntry{
		Date:        time.Now(),
		Ts:          msg.Ts,
		User:        msg.UserID,
		UserName:    msg.UserName,
		DisplayName: msg.DisplayName,
		Text:        msg.Text,
		IsBot:       msg.IsBot,
	}
	for _, a := range msg.Attachments {
		entry.Attachments = append(entry.Attachments, channelstore.Attachment{Original: a.OriginalName})
	}
	return entry
}
