package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coinmod/common"
	"coinmod/database/schemas"
	"coinmod/modules/ledger"

	"go.uber.org/zap"
)

// Fixed reputation magnitudes.
const (
	ChatDelta       = 2
	VoiceDelta      = 2
	VoteDelta       = 5
	DeletionDelta   = -1
	LeaveDelta      = -100
	AdvertenceDelta = -10
	DenywordDelta   = -5
	SettlementBonus = 5
	ChatWindow      = 5 * time.Minute
	VoiceInterval   = 5 * time.Minute
	VoteCooldown    = time.Hour
)

// Activity is a chat message observed in a guild.
type Activity struct {
	GuildID     string
	ChannelID   string
	UserID      string
	MessageID   string
	Content     string
	Attachments []string
}

// Deletion is a message removed by the platform or its author.
type Deletion struct {
	GuildID     string
	ChannelID   string
	MessageID   string
	UserID      string // resolved from the activity log when empty
	Content     string
	Attachments []string
}

// ApplyDelta adds amount to the member's reputation, clamped to
// [-1000, 1000]. Members without a record are left alone.
func (e *Engine) ApplyDelta(ctx context.Context, guildID, userID string, amount int) error {
	return e.applyDelta(ctx, guildID, userID, amount, "manual")
}

func (e *Engine) applyDelta(ctx context.Context, guildID, userID string, amount int, trigger string) error {
	if amount == 0 {
		return nil
	}
	ok, err := e.store.AddReputation(ctx, guildID, userID, amount)
	if err != nil {
		return fmt.Errorf("apply reputation delta: %w", err)
	}
	if ok {
		ReputationChangeCounter.WithLabelValues(trigger).Inc()
	}
	return nil
}

func (e *Engine) Reputation(ctx context.Context, guildID, userID string) (int, error) {
	user, err := e.store.User(ctx, guildID, userID)
	if errors.Is(err, ledger.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return user.Reputation, nil
}

// RecordActivity logs a message, credits chat reputation at most once per
// window and runs the word filter. It reports the forbidden words found.
func (e *Engine) RecordActivity(ctx context.Context, a Activity) ([]string, error) {
	now := e.nowMs()

	if err := e.store.EnsureUser(ctx, a.GuildID, a.UserID, now); err != nil {
		return nil, err
	}

	err := e.store.InsertMessage(ctx, &schemas.Message{
		MessageID:   a.MessageID,
		GuildID:     a.GuildID,
		ChannelID:   a.ChannelID,
		UserID:      a.UserID,
		Content:     a.Content,
		Attachments: strings.Join(a.Attachments, ","),
		CreatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}

	credited, err := e.store.AwardChatReputation(ctx, a.GuildID, a.UserID, ChatDelta, now, now-ChatWindow.Milliseconds())
	if err != nil {
		return nil, fmt.Errorf("chat reputation: %w", err)
	}
	if credited {
		ReputationChangeCounter.WithLabelValues("chat").Inc()
	}

	if e.filter == nil || strings.TrimSpace(a.Content) == "" {
		return nil, nil
	}

	words, err := e.filter.Match(ctx, a.GuildID, a.Content)
	if err != nil {
		return nil, fmt.Errorf("word filter: %w", err)
	}
	if len(words) == 0 {
		return nil, nil
	}

	_ = e.bestEffort(ctx, "delete_message", func(ctx context.Context) error {
		return e.frontend.DeleteMessage(ctx, a.ChannelID, a.MessageID, "Used forbidden word(s).")
	}, zap.String("guild", a.GuildID), zap.String("message", a.MessageID))

	_, err = e.IssueAdvertence(ctx, Violation{
		GuildID:   a.GuildID,
		UserID:    a.UserID,
		ChannelID: a.ChannelID,
		Automated: true,
		Words:     words,
	})
	return words, err
}

func (e *Engine) VoiceJoin(ctx context.Context, guildID, userID string) error {
	now := e.nowMs()
	if err := e.store.EnsureUser(ctx, guildID, userID, now); err != nil {
		return err
	}
	_, err := e.store.SetVoiceStart(ctx, guildID, userID, now)
	return err
}

// VoiceLeave credits every completed interval since the join. With no
// completed interval the join time is kept.
func (e *Engine) VoiceLeave(ctx context.Context, guildID, userID string) (int, error) {
	user, err := e.store.User(ctx, guildID, userID)
	if errors.Is(err, ledger.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if user.LastRepVoice == 0 {
		return 0, nil
	}

	intervals := (e.nowMs() - user.LastRepVoice) / VoiceInterval.Milliseconds()
	if intervals <= 0 {
		return 0, nil
	}

	delta := int(intervals) * VoiceDelta
	ok, err := e.store.CompleteVoiceSession(ctx, guildID, userID, user.LastRepVoice, delta)
	if err != nil || !ok {
		return 0, err
	}
	ReputationChangeCounter.WithLabelValues("voice").Inc()
	return delta, nil
}

// Vote applies a peer vote of ±5. One vote per voter and target is honored per
// hour; a vote inside the cooldown changes nothing.
func (e *Engine) Vote(ctx context.Context, guildID, voterID, targetID string, positive bool) (int, error) {
	if voterID == targetID {
		return 0, ErrSelfVote
	}

	now := e.nowMs()
	cooldown := VoteCooldown.Milliseconds()

	claimed, err := e.store.ClaimVote(ctx, guildID, voterID, targetID, now, now-cooldown)
	if err != nil {
		return 0, err
	}
	if !claimed {
		remaining := VoteCooldown
		if vote, err := e.store.Vote(ctx, guildID, voterID, targetID); err == nil && vote != nil {
			remaining = time.Duration(vote.LastVoteAt+cooldown-now) * time.Millisecond
		}
		return 0, fmt.Errorf("%w: you must wait %s before voting for this user again",
			ErrVoteCooldown, common.FormatDuration(remaining))
	}

	delta := VoteDelta
	if !positive {
		delta = -VoteDelta
	}
	if err := e.applyDelta(ctx, guildID, targetID, delta, "vote"); err != nil {
		return 0, err
	}
	return delta, nil
}

// ActivityDeleted costs the author one point and posts the message to the
// revoke channel. Deletions made by this system must not be reported here.
func (e *Engine) ActivityDeleted(ctx context.Context, d Deletion) error {
	logged, err := e.store.MessageByID(ctx, d.MessageID)
	if err != nil {
		return err
	}
	if logged != nil {
		if d.UserID == "" {
			d.UserID = logged.UserID
		}
		if d.Content == "" {
			d.Content = logged.Content
		}
		if len(d.Attachments) == 0 && logged.Attachments != "" {
			d.Attachments = strings.Split(logged.Attachments, ",")
		}
	}
	if d.UserID == "" {
		return nil
	}

	if err := e.applyDelta(ctx, d.GuildID, d.UserID, DeletionDelta, "deletion"); err != nil {
		return err
	}

	guild, err := e.store.Guild(ctx, d.GuildID)
	if err != nil {
		return err
	}

	content := d.Content
	if content == "" {
		content = "*No content*"
	}
	content = truncate(content, 1024)
	attachments := "*None*"
	if len(d.Attachments) > 0 {
		attachments = "[Attachment URL(s): " + strings.Join(d.Attachments, ", ") + "]"
	}

	e.notify(ctx, guild, Notice{
		Kind:  NoticeRevoke,
		Title: "🗑️ Message Deleted (Revoke)",
		Color: ColorGreyple,
		Fields: []Field{
			{Name: "User", Value: common.FormatUser(d.UserID), Inline: true},
			{Name: "Channel", Value: common.FormatChannel(d.ChannelID), Inline: true},
			{Name: "Content", Value: content},
			{Name: "Attachments", Value: attachments},
		},
	})
	return nil
}

// MemberLeft applies the departure penalty. Rejoining does not restore it.
func (e *Engine) MemberLeft(ctx context.Context, guildID, userID string) error {
	return e.applyDelta(ctx, guildID, userID, LeaveDelta, "leave")
}
