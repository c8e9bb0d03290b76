package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coinmod/common"
	"coinmod/database/schemas"

	"go.uber.org/zap"
)

const (
	ModeratorTimeout = 5 * time.Minute
	FilterTimeout    = time.Minute
	SurchargePercent = 1
)

// Violation is a rule violation reported by a moderator or by the word filter.
type Violation struct {
	GuildID   string
	UserID    string
	ChannelID string
	IssuedBy  string // empty for automated violations
	Reason    string
	Automated bool
	Words     []string
}

// IssueAdvertence records a violation and runs its consequences in order:
// reputation penalty, timeout, surcharge (word filter only), per-advertence
// fine, role re-sync and notices.
func (e *Engine) IssueAdvertence(ctx context.Context, v Violation) (*schemas.Advertence, error) {
	guild, err := e.store.Guild(ctx, v.GuildID)
	if err != nil {
		return nil, err
	}

	words := distinct(v.Words)
	hitWords := strings.Join(words, ", ")
	reason := strings.TrimSpace(v.Reason)
	switch {
	case v.Automated && reason == "":
		reason = "Used forbidden word(s): " + hitWords
	case reason == "":
		reason = "No reason"
	}

	adv := &schemas.Advertence{
		GuildID:   v.GuildID,
		UserID:    v.UserID,
		Reason:    reason,
		Automated: v.Automated,
		IssuedBy:  v.IssuedBy,
		CreatedAt: e.nowMs(),
	}
	if err := e.store.InsertAdvertence(ctx, adv); err != nil {
		return nil, fmt.Errorf("insert advertence: %w", err)
	}
	AdvertenceCounter.WithLabelValues(common.Ternary(v.Automated, "filter", "moderator")).Inc()

	delta := AdvertenceDelta
	if v.Automated {
		delta += DenywordDelta * len(words)
	}
	if err := e.applyDelta(ctx, v.GuildID, v.UserID, delta, "advertence"); err != nil {
		return adv, err
	}

	timeout, timeoutReason := ModeratorTimeout, "Received advertence: "+reason
	if v.Automated {
		timeout, timeoutReason = FilterTimeout, "Used forbidden word(s)."
	}
	_ = e.bestEffort(ctx, "timeout", func(ctx context.Context) error {
		return e.frontend.ApplyTimeout(ctx, v.GuildID, v.UserID, timeout, timeoutReason)
	}, zap.String("guild", v.GuildID), zap.String("user", v.UserID))

	if v.Automated {
		if err := e.surcharge(ctx, v.GuildID, v.UserID, hitWords); err != nil {
			return adv, err
		}
	}

	if guild.AdvWorth.Positive() {
		if _, err := e.CreateFine(ctx, v.GuildID, v.UserID, guild.AdvWorth, "Advertence Fine: "+reason); err != nil {
			return adv, err
		}
	}

	if err := e.SyncRoles(ctx, v.GuildID, v.UserID); err != nil {
		e.logger.Warn("role sync failed", zap.String("guild", v.GuildID), zap.String("user", v.UserID), zap.Error(err))
	}

	if v.Automated {
		e.notify(ctx, guild, Notice{
			Kind:        NoticeLog,
			Title:       "🚫 Forbidden Word Used",
			Color:       ColorRed,
			Description: common.FormatUser(v.UserID) + " used forbidden word(s) and the message was deleted.",
			Fields: []Field{
				{Name: "User", Value: common.FormatUser(v.UserID), Inline: true},
				{Name: "Channel", Value: common.FormatChannel(v.ChannelID), Inline: true},
				{Name: "Words Used", Value: hitWords},
			},
		})
		e.notify(ctx, guild, Notice{
			Kind:   NoticeDirect,
			UserID: v.UserID,
			Title:  "⚠️ Warning",
			Color:  ColorYellow,
			Description: fmt.Sprintf("Your message in %s was deleted for containing forbidden word(s): **%s**.\nYou have been timed out for %s.",
				common.FormatChannel(v.ChannelID), hitWords, common.FormatDuration(FilterTimeout)),
		})
		return adv, nil
	}

	e.notify(ctx, guild, Notice{
		Kind:        NoticeLog,
		Title:       "⚠️ User Advertised",
		Color:       ColorYellow,
		Description: common.FormatUser(v.UserID) + " received an advertence.",
		Fields: []Field{
			{Name: "Target", Value: common.FormatUser(v.UserID), Inline: true},
			{Name: "Staff", Value: common.FormatUser(v.IssuedBy), Inline: true},
			{Name: "Reason", Value: reason},
		},
	})
	return adv, nil
}

// RemoveAdvertence deletes the member's newest advertence.
func (e *Engine) RemoveAdvertence(ctx context.Context, guildID, userID, actorID string) error {
	if err := e.removeNewest(ctx, guildID, userID); err != nil {
		return err
	}

	guild, err := e.store.Guild(ctx, guildID)
	if err != nil {
		return err
	}
	e.notify(ctx, guild, Notice{
		Kind:        NoticeLog,
		Title:       "✅ Advertence Removed",
		Color:       ColorGreen,
		Description: "One advertence was removed from " + common.FormatUser(userID) + ".",
		Fields: []Field{
			{Name: "Target", Value: common.FormatUser(userID), Inline: true},
			{Name: "Staff", Value: common.FormatUser(actorID), Inline: true},
		},
	})
	return nil
}

// removeNewest deletes exactly one advertence, the most recent, then re-syncs.
// If a concurrent removal wins the race for that row, the next newest is taken.
func (e *Engine) removeNewest(ctx context.Context, guildID, userID string) error {
	for attempt := 0; attempt < 3; attempt++ {
		adv, err := e.store.LatestAdvertence(ctx, guildID, userID)
		if err != nil {
			return err
		}
		if adv == nil {
			return ErrNoAdvertence
		}

		deleted, err := e.store.DeleteAdvertence(ctx, adv.ID)
		if err != nil {
			return err
		}
		if deleted {
			if err := e.SyncRoles(ctx, guildID, userID); err != nil {
				e.logger.Warn("role sync failed", zap.String("guild", guildID), zap.String("user", userID), zap.Error(err))
			}
			return nil
		}
	}
	return ErrNoAdvertence
}

func distinct(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
