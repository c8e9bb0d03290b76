package moderation

import (
	"context"
	"errors"
	"strings"

	"coinmod/database/schemas"
	"coinmod/modules/ledger"
	"coinmod/modules/money"
)

// Standing is a member's moderation summary as shown by /view.
type Standing struct {
	GuildID      string                `json:"guildID"`
	UserID       string                `json:"userID"`
	Reputation   int                   `json:"reputation"`
	JoinedAt     int64                 `json:"joinedAt"`
	Advertences  int                   `json:"advertences"`
	Tier         string                `json:"tier"`
	Messages     int                   `json:"messages"`
	PendingFines money.Amount          `json:"-"`
	Pending      string                `json:"pendingFines"`
	Ban          *schemas.PermanentBan `json:"ban,omitempty"`
}

func (e *Engine) Standing(ctx context.Context, guildID, userID string) (*Standing, error) {
	user, err := e.store.User(ctx, guildID, userID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, err
	}

	advs, err := e.store.CountAdvertences(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	msgs, err := e.store.CountMessages(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	pending, err := e.store.PendingTotal(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	ban, err := e.store.PermanentBan(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}

	return &Standing{
		GuildID:      guildID,
		UserID:       userID,
		Reputation:   user.Reputation,
		JoinedAt:     user.JoinTimestamp,
		Advertences:  advs,
		Tier:         TierFor(advs).String(),
		Messages:     msgs,
		PendingFines: pending,
		Pending:      pending.String(),
		Ban:          ban,
	}, nil
}

// SetWorth updates one of the guild's fine worths.
func (e *Engine) SetWorth(ctx context.Context, guildID string, field ledger.GuildField, amount money.Amount) error {
	switch field {
	case ledger.FieldBailWorth, ledger.FieldAdvWorth, ledger.FieldTimeoutWorth, ledger.FieldUnbanWorth:
	default:
		return ErrValidation
	}
	if amount < 0 {
		return ErrNegativeWorth
	}
	return e.store.SetGuildField(ctx, guildID, field, amount)
}

// Configure sets a textual guild setting such as a channel or the Coin card.
func (e *Engine) Configure(ctx context.Context, guildID string, field ledger.GuildField, value string) error {
	switch field {
	case ledger.FieldBailWorth, ledger.FieldAdvWorth, ledger.FieldTimeoutWorth, ledger.FieldUnbanWorth:
		return ErrValidation
	}
	return e.store.SetGuildField(ctx, guildID, field, strings.TrimSpace(value))
}
