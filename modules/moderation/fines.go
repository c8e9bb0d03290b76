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
	"coinmod/modules/money"
	"coinmod/modules/payments"

	"go.uber.org/zap"
)

// MaxTimeout is the longest timeout the platform accepts.
const MaxTimeout = 28 * 24 * time.Hour

// CreateFine stores an unpaid fine. Amounts are already truncated to eight
// decimals by money.Amount. A fine that would push the member's pending total
// past the largest Amount is rejected.
func (e *Engine) CreateFine(ctx context.Context, guildID, userID string, amount money.Amount, reason string) (*schemas.Invoice, error) {
	if !amount.Positive() {
		return nil, ErrInvalidAmount
	}
	pending, err := e.store.PendingTotal(ctx, guildID, userID)
	if errors.Is(err, money.ErrOutOfRange) {
		return nil, ErrAmountTooLarge
	}
	if err != nil {
		return nil, err
	}
	if _, err := pending.Add(amount); err != nil {
		return nil, ErrAmountTooLarge
	}
	inv := &schemas.Invoice{
		GuildID:   guildID,
		UserID:    userID,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: e.nowMs(),
	}
	if err := e.store.InsertInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}
	FineCounter.Inc()
	return inv, nil
}

// ChargeFine is a fine issued by staff; it is logged to the guild.
func (e *Engine) ChargeFine(ctx context.Context, guildID, userID, actorID string, amount money.Amount, reason string) (*schemas.Invoice, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "Fine"
	}
	inv, err := e.CreateFine(ctx, guildID, userID, amount, reason)
	if err != nil {
		return nil, err
	}

	guild, err := e.store.Guild(ctx, guildID)
	if err != nil {
		return inv, err
	}
	e.notify(ctx, guild, Notice{
		Kind:        NoticeLog,
		Title:       "💰 Invoice Created",
		Color:       ColorGold,
		Description: "An invoice was created for " + common.FormatUser(userID) + ".",
		Fields: []Field{
			{Name: "Target", Value: common.FormatUser(userID), Inline: true},
			{Name: "Staff", Value: common.FormatUser(actorID), Inline: true},
			{Name: "Amount", Value: amount.String() + " COIN"},
			{Name: "Reason", Value: reason},
		},
	})
	return inv, nil
}

func (e *Engine) PendingTotal(ctx context.Context, guildID, userID string) (money.Amount, error) {
	return e.store.PendingTotal(ctx, guildID, userID)
}

// surcharge compounds a member's pending total by one percent.
func (e *Engine) surcharge(ctx context.Context, guildID, userID, hitWords string) error {
	pending, err := e.store.PendingTotal(ctx, guildID, userID)
	if err != nil {
		return err
	}
	if !pending.Positive() {
		return nil
	}
	increase := pending.Percent(SurchargePercent)
	if !increase.Positive() {
		return nil
	}
	_, err = e.CreateFine(ctx, guildID, userID, increase,
		fmt.Sprintf("%d%% fine increase for using forbidden word: %s", SurchargePercent, hitWords))
	return err
}

// SettleAll pays every fine that is unpaid at the time of the call in a
// single transfer. Fines created while the payment is in flight stay unpaid.
func (e *Engine) SettleAll(ctx context.Context, guildID, userID, source string) (money.Amount, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return 0, ErrMissingSource
	}
	guild, err := e.store.Guild(ctx, guildID)
	if err != nil {
		return 0, err
	}
	if guild.CoinCard == "" {
		return 0, ErrNoCoinCard
	}

	release, err := e.acquire(guildID, userID)
	if err != nil {
		return 0, err
	}
	defer release()

	snapshot, err := e.store.UnpaidInvoices(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}
	if len(snapshot) == 0 {
		return 0, ErrNoPendingFines
	}
	total, err := ledger.InvoiceTotal(snapshot)
	if err != nil {
		return 0, ErrAmountTooLarge
	}

	err = e.pay(ctx, "invoices", payments.Request{
		From:   source,
		To:     guild.CoinCard,
		Amount: total,
		Memo:   "Invoice payment (Total: " + total.String() + ")",
	})
	if err != nil {
		return 0, err
	}

	ids := make([]int64, len(snapshot))
	for i, inv := range snapshot {
		ids[i] = inv.ID
	}
	if _, err := e.store.MarkInvoicesPaid(ctx, ids); err != nil {
		e.logger.Error("invoices paid but not marked",
			zap.String("guild", guildID),
			zap.String("user", userID),
			zap.Int64s("invoices", ids),
			zap.Error(err),
		)
		return total, err
	}

	if err := e.applyDelta(ctx, guildID, userID, SettlementBonus, "settlement"); err != nil {
		return total, err
	}

	_ = e.bestEffort(ctx, "timeout", func(ctx context.Context) error {
		return e.frontend.ApplyTimeout(ctx, guildID, userID, 0, "Invoice paid, timeout removed.")
	}, zap.String("guild", guildID), zap.String("user", userID))

	e.notify(ctx, guild, Notice{
		Kind:        NoticeLog,
		Title:       "💸 Invoices Paid",
		Color:       ColorGreen,
		Description: common.FormatUser(userID) + " paid all pending invoices.",
		Fields: []Field{
			{Name: "User", Value: common.FormatUser(userID), Inline: true},
			{Name: "Invoices", Value: fmt.Sprint(len(ids)), Inline: true},
			{Name: "Amount Paid", Value: total.String() + " COIN"},
		},
	})
	return total, nil
}

// SettleBail pays the guild's bail worth to remove the newest advertence.
// The fine ledger is not touched.
func (e *Engine) SettleBail(ctx context.Context, guildID, userID, source string) (money.Amount, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return 0, ErrMissingSource
	}
	guild, err := e.store.Guild(ctx, guildID)
	if err != nil {
		return 0, err
	}
	if guild.CoinCard == "" {
		return 0, ErrNoCoinCard
	}
	if !guild.BailWorth.Positive() {
		return 0, ErrBailNotConfigured
	}

	release, err := e.acquire(guildID, userID)
	if err != nil {
		return 0, err
	}
	defer release()

	count, err := e.store.CountAdvertences(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, ErrNoAdvertence
	}

	err = e.pay(ctx, "bail", payments.Request{
		From:   source,
		To:     guild.CoinCard,
		Amount: guild.BailWorth,
		Memo:   "Bail payment (1 ADV removal)",
	})
	if err != nil {
		return 0, err
	}

	if err := e.removeNewest(ctx, guildID, userID); err != nil {
		// expired or removed by staff while paying
		e.logger.Warn("bail paid with no advertence left", zap.String("guild", guildID), zap.String("user", userID), zap.Error(err))
	}
	if err := e.applyDelta(ctx, guildID, userID, SettlementBonus, "settlement"); err != nil {
		return guild.BailWorth, err
	}

	e.notify(ctx, guild, Notice{
		Kind:        NoticeLog,
		Title:       "🔑 Bail Paid",
		Color:       ColorGreen,
		Description: common.FormatUser(userID) + " paid bail and one advertence was removed.",
		Fields: []Field{
			{Name: "User", Value: common.FormatUser(userID), Inline: true},
			{Name: "Amount Paid", Value: guild.BailWorth.String() + " COIN", Inline: true},
		},
	})
	return guild.BailWorth, nil
}

// Timeout applies a manual timeout, capped at MaxTimeout, and charges the
// guild's timeout worth when configured.
func (e *Engine) Timeout(ctx context.Context, guildID, userID, actorID string, d time.Duration, reason string) (time.Duration, error) {
	if d <= 0 {
		return 0, ErrInvalidDuration
	}
	if d > MaxTimeout {
		d = MaxTimeout
	}
	if strings.TrimSpace(reason) == "" {
		reason = "Manual timeout"
	}

	guild, err := e.store.Guild(ctx, guildID)
	if err != nil {
		return 0, err
	}

	_ = e.bestEffort(ctx, "timeout", func(ctx context.Context) error {
		return e.frontend.ApplyTimeout(ctx, guildID, userID, d, reason)
	}, zap.String("guild", guildID), zap.String("user", userID))

	if guild.TimeoutWorth.Positive() {
		if _, err := e.CreateFine(ctx, guildID, userID, guild.TimeoutWorth, "Timeout Fine: "+reason); err != nil {
			return d, err
		}
	}

	e.notify(ctx, guild, Notice{
		Kind:        NoticeLog,
		Title:       "⌛ User Timed Out",
		Color:       ColorOrange,
		Description: common.FormatUser(userID) + " was timed out for " + common.FormatDuration(d) + ".",
		Fields: []Field{
			{Name: "Target", Value: common.FormatUser(userID), Inline: true},
			{Name: "Staff", Value: common.FormatUser(actorID), Inline: true},
			{Name: "Reason", Value: reason},
		},
	})
	return d, nil
}
