package moderation

import (
	"context"
	"fmt"
	"strings"

	"coinmod/common"
	"coinmod/database/schemas"
	"coinmod/modules/money"
	"coinmod/modules/payments"

	"go.uber.org/zap"
)

// Redemption is the outcome of a paid unban.
type Redemption struct {
	GuildID   string
	GuildName string
	Invite    string
	Amount    money.Amount
}

// ImposePermanentBan records the redemption price, tells the member how to
// pay it and only then bans them. A zero amount falls back to the guild's
// unban worth.
func (e *Engine) ImposePermanentBan(ctx context.Context, guildID, userID, actorID string, amount money.Amount, reason string) (*schemas.PermanentBan, error) {
	guild, err := e.store.Guild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		amount = guild.UnbanWorth
	}
	if !amount.Positive() {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(reason) == "" {
		reason = "No reason specified"
	}

	ban := &schemas.PermanentBan{
		GuildID:    guildID,
		UserID:     userID,
		UnbanWorth: amount,
		Reason:     reason,
		IssuedBy:   actorID,
		CreatedAt:  e.nowMs(),
	}
	if err := e.store.UpsertBan(ctx, ban); err != nil {
		return nil, fmt.Errorf("record ban: %w", err)
	}

	// the member loses access to the guild once banned, so the notice goes first
	e.notify(ctx, guild, Notice{
		Kind:        NoticeDirect,
		UserID:      userID,
		Title:       "You have been banned from " + e.guildName(ctx, guildID),
		Color:       ColorRed,
		Description: fmt.Sprintf("**Reason:** %s\n\nTo be unbanned, you must pay a fine of **%s COIN**.", reason, amount),
		Action:      ActionPayUnban,
	})

	_ = e.bestEffort(ctx, "ban", func(ctx context.Context) error {
		return e.frontend.PerformBan(ctx, guildID, userID, reason)
	}, zap.String("guild", guildID), zap.String("user", userID))

	e.notify(ctx, guild, Notice{
		Kind:        NoticeLog,
		Title:       "⛔ User Permanently Banned",
		Color:       ColorRed,
		Description: common.FormatUser(userID) + " was permanently banned.",
		Fields: []Field{
			{Name: "Target", Value: common.FormatUser(userID), Inline: true},
			{Name: "Staff", Value: common.FormatUser(actorID), Inline: true},
			{Name: "Unban Worth", Value: amount.String() + " COIN"},
			{Name: "Reason", Value: reason},
		},
	})
	return ban, nil
}

// RedeemBan lets a banned member buy their way back. The ban is looked up
// across guilds since the member no longer shares one with the bot. On
// success the ban is lifted and every advertence in that guild is cleared.
func (e *Engine) RedeemBan(ctx context.Context, userID, source string) (*Redemption, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrMissingSource
	}

	ban, err := e.store.LatestBanFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ban == nil {
		return nil, ErrNoBanRecord
	}

	guild, err := e.store.Guild(ctx, ban.GuildID)
	if err != nil {
		return nil, err
	}
	if guild.CoinCard == "" {
		return nil, ErrNoCoinCard
	}

	release, err := e.acquire(ban.GuildID, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	// staff may have lifted it meanwhile
	current, err := e.store.PermanentBan(ctx, ban.GuildID, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNoBanRecord
	}

	name := e.guildName(ctx, ban.GuildID)
	err = e.pay(ctx, "unban", payments.Request{
		From:   source,
		To:     guild.CoinCard,
		Amount: current.UnbanWorth,
		Memo:   "Unban payment for " + name,
	})
	if err != nil {
		return nil, err
	}

	if err := e.clearBan(ctx, ban.GuildID, userID); err != nil {
		return nil, err
	}

	e.notify(ctx, guild, Notice{
		Kind:        NoticeLog,
		Title:       "🔓 User Paid Unban Fine",
		Color:       ColorBlue,
		Description: common.FormatUser(userID) + " paid the fine and was unbanned.",
		Fields: []Field{
			{Name: "User", Value: common.FormatUser(userID), Inline: true},
			{Name: "Amount Paid", Value: current.UnbanWorth.String() + " COIN"},
		},
	})

	return &Redemption{
		GuildID:   ban.GuildID,
		GuildName: name,
		Invite:    guild.Invite,
		Amount:    current.UnbanWorth,
	}, nil
}

// StaffUnban lifts a ban without payment, whether or not a permanent ban
// record exists.
func (e *Engine) StaffUnban(ctx context.Context, guildID, userID, actorID string) error {
	if err := e.clearBan(ctx, guildID, userID); err != nil {
		return err
	}

	guild, err := e.store.Guild(ctx, guildID)
	if err != nil {
		return err
	}
	e.notify(ctx, guild, Notice{
		Kind:        NoticeLog,
		Title:       "🔓 User Unbanned (Staff)",
		Color:       ColorBlue,
		Description: common.FormatUser(userID) + " was manually unbanned.",
		Fields: []Field{
			{Name: "Target", Value: common.FormatUser(userID), Inline: true},
			{Name: "Staff", Value: common.FormatUser(actorID), Inline: true},
		},
	})
	return nil
}

func (e *Engine) clearBan(ctx context.Context, guildID, userID string) error {
	_ = e.bestEffort(ctx, "unban", func(ctx context.Context) error {
		return e.frontend.LiftBan(ctx, guildID, userID)
	}, zap.String("guild", guildID), zap.String("user", userID))

	if _, err := e.store.DeleteBan(ctx, guildID, userID); err != nil {
		return fmt.Errorf("delete ban: %w", err)
	}
	if _, err := e.store.ClearAdvertences(ctx, guildID, userID); err != nil {
		return fmt.Errorf("clear advertences: %w", err)
	}
	if err := e.SyncRoles(ctx, guildID, userID); err != nil {
		e.logger.Warn("role sync after unban failed",
			zap.String("guild", guildID), zap.String("user", userID), zap.Error(err))
	}
	return nil
}
