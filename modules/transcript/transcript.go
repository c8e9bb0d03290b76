// Package transcript renders a member's retained activity log as plain text.
package transcript

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coinmod/common"
	"coinmod/modules/ledger"
)

const (
	EmptyTranscript = "No messages found for this user in the specified range/channel."
	dateLayout      = "02/01/2006 15:04:05"
)

// ChannelNames resolves a channel id to its display name. An empty name means
// the channel is unknown.
type ChannelNames func(channelID string) string

type Request struct {
	GuildID   string
	UserID    string
	ChannelID string // optional
	From      string // optional, see ParseTime
	To        string // optional, defaults to now
}

type Builder struct {
	store *ledger.Store
	names ChannelNames
	now   func() time.Time
}

func NewBuilder(store *ledger.Store, names ChannelNames) *Builder {
	if names == nil {
		names = func(string) string { return "" }
	}
	return &Builder{store: store, names: names, now: time.Now}
}

// Build returns the transcript text and the number of messages in it.
func (b *Builder) Build(ctx context.Context, req Request) (string, int, error) {
	now := b.now()
	filter := ledger.MessageFilter{
		GuildID:   req.GuildID,
		UserID:    req.UserID,
		ChannelID: req.ChannelID,
		To:        now.UnixMilli(),
	}
	if strings.TrimSpace(req.From) != "" {
		from, err := ParseTime(req.From, now)
		if err != nil {
			return "", 0, fmt.Errorf("time_from: %w", err)
		}
		filter.From = from.UnixMilli()
	}
	if strings.TrimSpace(req.To) != "" {
		to, err := ParseTime(req.To, now)
		if err != nil {
			return "", 0, fmt.Errorf("time_to: %w", err)
		}
		filter.To = to.UnixMilli()
	}

	messages, err := b.store.Messages(ctx, filter)
	if err != nil {
		return "", 0, err
	}
	if len(messages) == 0 {
		return EmptyTranscript, 0, nil
	}

	var sb strings.Builder
	current := ""
	for _, msg := range messages {
		if msg.ChannelID != current {
			current = msg.ChannelID
			name := b.names(msg.ChannelID)
			if name == "" {
				name = "Unknown Channel (" + msg.ChannelID + ")"
			}
			fmt.Fprintf(&sb, "\n--- CHANNEL: #%s ---\n", name)
		}

		content := msg.Content
		if msg.Attachments != "" {
			content += "\n[Attachments: " + strings.Join(strings.Split(msg.Attachments, ","), ", ") + "]"
		}
		date := time.UnixMilli(msg.CreatedAt).In(now.Location()).Format(dateLayout)
		fmt.Fprintf(&sb, "[%s] %s: %s\n", date, common.FormatUser(msg.UserID), content)
	}
	return sb.String(), len(messages), nil
}
