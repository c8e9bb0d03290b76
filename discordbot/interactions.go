package discordbot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coinmod/modules/moderation"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
	"go.uber.org/zap"
)

// modalDeadline bounds a payment modal. It outlives the payment timeout but
// stays inside the fifteen minutes an interaction token is valid.
const modalDeadline = 5 * time.Minute

func (b *Bot) button(ev *discord.InteractionEvent, data *discord.ButtonInteraction) *api.InteractionResponse {
	switch data.CustomID {
	case buttonUnban:
		return cardModal(modalUnban, "Pay Unban Fine")
	}

	if !ev.GuildID.IsValid() {
		return reply(contentResponse("❌ This button only works in a server."))
	}

	switch data.CustomID {
	case buttonPanelBail:
		return cardModal(modalBail, "Pay Bail (Remove 1 ADV)")
	case buttonPanelInvoice:
		return cardModal(modalInvoice, "Pay All Pending Invoices")
	case buttonPanelInfo:
		standing, err := b.engine.Standing(context.Background(), ev.GuildID.String(), ev.SenderID().String())
		if errors.Is(err, moderation.ErrUnknownUser) {
			return reply(contentResponse("❌ Your data was not found in the database."))
		}
		if err != nil {
			return reply(b.fail("panel_info", err))
		}
		return reply(&api.InteractionResponseData{
			Embeds: &[]discord.Embed{standingEmbed("👤 Your Moderation Info", standing, b.now())},
			Flags:  discord.EphemeralMessage,
		})
	}
	return nil
}

// modal acknowledges a payment modal right away, then settles and edits the
// deferred reply with the outcome.
func (b *Bot) modal(ev *discord.InteractionEvent, data *discord.ModalInteraction) {
	err := b.state.RespondInteraction(ev.ID, ev.Token, api.InteractionResponse{
		Type: api.DeferredMessageInteractionWithSource,
		Data: &api.InteractionResponseData{Flags: discord.EphemeralMessage},
	})
	if err != nil {
		b.logger.Warn("cannot defer modal", zap.String("modal", string(data.CustomID)), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), modalDeadline)
	defer cancel()

	content := b.settle(ctx, ev, data)
	_, err = b.state.EditInteractionResponse(ev.AppID, ev.Token, api.EditInteractionResponseData{
		Content: option.NewNullableString(content),
	})
	if err != nil {
		b.logger.Warn("cannot edit modal reply", zap.String("modal", string(data.CustomID)), zap.Error(err))
	}
}

func (b *Bot) settle(ctx context.Context, ev *discord.InteractionEvent, data *discord.ModalInteraction) string {
	card := modalValue(data.Components, inputCard)
	user := ev.SenderID().String()

	if data.CustomID == modalUnban {
		r, err := b.engine.RedeemBan(ctx, user, card)
		if err != nil {
			return b.failText(string(data.CustomID), err)
		}
		invite := r.Invite
		if invite == "" {
			invite = "No invite link configured for this server."
		}
		return fmt.Sprintf("✅ Unban fine paid (%s COIN). You have been unbanned from **%s**.\n\n**Invite Link:** %s", r.Amount, r.GuildName, invite)
	}

	if !ev.GuildID.IsValid() {
		return "❌ This form only works in a server."
	}
	guild := ev.GuildID.String()

	switch data.CustomID {
	case modalBail:
		paid, err := b.engine.SettleBail(ctx, guild, user, card)
		if err != nil {
			return b.failText(string(data.CustomID), err)
		}
		return fmt.Sprintf("✅ Bail paid (%s COIN). One advertence removed. (+%d Rep)", paid, moderation.SettlementBonus)
	case modalInvoice:
		paid, err := b.engine.SettleAll(ctx, guild, user, card)
		if err != nil {
			return b.failText(string(data.CustomID), err)
		}
		return fmt.Sprintf("✅ All pending invoices paid (%s COIN). (+%d Rep)", paid, moderation.SettlementBonus)
	}
	return "❌ Unknown form."
}

func (b *Bot) failText(op string, err error) string {
	b.fail(op, err)
	return "❌ " + moderation.Message(err)
}
