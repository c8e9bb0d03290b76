package discordbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coinmod/common"
	"coinmod/modules/ledger"
	"coinmod/modules/moderation"
	"coinmod/modules/money"
	"coinmod/modules/transcript"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/cmdroute"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/utils/json/option"
	"github.com/diamondburned/arikawa/v3/utils/sendpart"
	"go.uber.org/zap"
)

type commandFunc = func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData

func optionID(data cmdroute.CommandData, name string) (string, bool) {
	sf, err := data.Options.Find(name).SnowflakeValue()
	if err != nil || !sf.IsValid() {
		return "", false
	}
	return sf.String(), true
}

func optionString(data cmdroute.CommandData, name string) string {
	return strings.TrimSpace(data.Options.Find(name).String())
}

func optionAmount(data cmdroute.CommandData, name string) (money.Amount, error) {
	v, err := data.Options.Find(name).FloatValue()
	if err != nil {
		return 0, errMissingOption
	}
	return amountFromFloat(v)
}

// amountFromFloat truncates a Coin value typed by a member. Values that do not
// fit an Amount are rejected instead of wrapping.
func amountFromFloat(v float64) (money.Amount, error) {
	a, err := money.FromFloat(v)
	switch {
	case errors.Is(err, money.ErrOutOfRange):
		return 0, moderation.ErrAmountTooLarge
	case err != nil:
		return 0, moderation.ErrInvalidAmount
	}
	return a, nil
}

func subject(data cmdroute.CommandData) (guild, actor string) {
	return data.Event.GuildID.String(), data.Event.SenderID().String()
}

var errMissingOption = fmt.Errorf("%w: missing option", moderation.ErrValidation)

// fail logs errors that are not meant for the actor and renders the reply.
func (b *Bot) fail(command string, err error) *api.InteractionResponseData {
	if !errors.Is(err, moderation.ErrValidation) && !errors.Is(err, moderation.ErrPrecondition) && !errors.Is(err, moderation.ErrGateway) {
		b.logger.Error("command failed", zap.String("command", command), zap.Error(err))
	}
	return errorResponse(err)
}

func (b *Bot) adv(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
	guild, actor := subject(data)
	target, ok := optionID(data, "user")
	if !ok {
		return errorResponse(errMissingOption)
	}

	_, err := b.engine.IssueAdvertence(ctx, moderation.Violation{
		GuildID:  guild,
		UserID:   target,
		IssuedBy: actor,
		Reason:   optionString(data, "reason"),
	})
	if err != nil {
		return b.fail("adv", err)
	}
	return contentResponse("⚠️ Advertence applied to " + common.FormatUser(target) + ".")
}

func (b *Bot) advRemove(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
	guild, actor := subject(data)
	target, ok := optionID(data, "user")
	if !ok {
		return errorResponse(errMissingOption)
	}

	if err := b.engine.RemoveAdvertence(ctx, guild, target, actor); err != nil {
		return b.fail("adv-remove", err)
	}
	return contentResponse("✅ Advertence removed from " + common.FormatUser(target) + ".")
}

func (b *Bot) advRole(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
	guild, _ := subject(data)
	level := ledger.AdvLevel(optionString(data, "level"))
	role, ok := optionID(data, "role")
	if !ok {
		return errorResponse(errMissingOption)
	}

	if err := b.store.SetAdvRole(ctx, guild, level, role); err != nil {
		return b.fail("advrole", err)
	}
	return contentResponse("✅ Role configured for " + strings.ToUpper(string(level)))
}

func (b *Bot) worth(field ledger.GuildField, label string) commandFunc {
	return func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		guild, _ := subject(data)
		amount, err := optionAmount(data, "value")
		if err != nil {
			return errorResponse(err)
		}
		if err := b.engine.SetWorth(ctx, guild, field, amount); err != nil {
			return b.fail(string(field), err)
		}
		return contentResponse(fmt.Sprintf("✅ %s set to %s", label, amount))
	}
}

func (b *Bot) setting(field ledger.GuildField, option, done string) commandFunc {
	return func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		guild, _ := subject(data)
		value := optionString(data, option)
		if value == "" {
			return errorResponse(errMissingOption)
		}
		if err := b.engine.Configure(ctx, guild, field, value); err != nil {
			return b.fail(string(field), err)
		}
		return contentResponse(done)
	}
}

func (b *Bot) staffRole(add bool) commandFunc {
	return func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		guild, _ := subject(data)
		role, ok := optionID(data, "role")
		if !ok {
			return errorResponse(errMissingOption)
		}

		if add {
			if err := b.store.AddStaffRole(ctx, guild, role); err != nil {
				return b.fail("staffrole-add", err)
			}
			return contentResponse("✅ Staff role added.")
		}
		if _, err := b.store.RemoveStaffRole(ctx, guild, role); err != nil {
			return b.fail("staffrole-remove", err)
		}
		return contentResponse("🗑️ Staff role removed.")
	}
}

func (b *Bot) denyWord(add bool) commandFunc {
	return func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		guild, _ := subject(data)
		word := optionString(data, "word")
		if word == "" {
			return errorResponse(errMissingOption)
		}
		defer b.filter.Invalidate(guild)

		if add {
			if _, err := b.store.AddDenyWord(ctx, guild, word); err != nil {
				return b.fail("denyword-add", err)
			}
			return contentResponse("🚫 Word added.")
		}
		if _, err := b.store.RemoveDenyWord(ctx, guild, word); err != nil {
			return b.fail("denyword-remove", err)
		}
		return contentResponse("🗑️ Word removed.")
	}
}

func (b *Bot) panel(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
	guild, _ := subject(data)
	channel, ok := optionID(data, "channel")
	if !ok {
		return errorResponse(errMissingOption)
	}
	cid, err := channelID(channel)
	if err != nil {
		return b.fail("panel", err)
	}

	if err := b.engine.Configure(ctx, guild, ledger.FieldPanelChannel, channel); err != nil {
		return b.fail("panel", err)
	}
	if _, err := b.state.WithContext(ctx).SendMessageComplex(cid, panelMessage()); err != nil {
		return b.fail("panel", err)
	}
	return contentResponse("✅ Panel sent.")
}

func (b *Bot) invoice(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
	guild, actor := subject(data)
	target, ok := optionID(data, "user")
	if !ok {
		return errorResponse(errMissingOption)
	}
	amount, err := optionAmount(data, "amount")
	if err != nil {
		return errorResponse(err)
	}

	inv, err := b.engine.ChargeFine(ctx, guild, target, actor, amount, optionString(data, "reason"))
	if err != nil {
		return b.fail("invoice", err)
	}
	return contentResponse(fmt.Sprintf("✅ Invoice for %s COIN created for %s.", inv.Amount, common.FormatUser(target)))
}

func (b *Bot) timeout(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
	guild, actor := subject(data)
	target, ok := optionID(data, "user")
	if !ok {
		return errorResponse(errMissingOption)
	}
	d, err := transcript.ParseDuration(optionString(data, "duration"))
	if err != nil {
		return errorResponse(moderation.ErrInvalidDuration)
	}

	applied, err := b.engine.Timeout(ctx, guild, target, actor, d, optionString(data, "reason"))
	if err != nil {
		return b.fail("timeout", err)
	}
	return contentResponse(fmt.Sprintf("⌛ %s was timed out for %s.", common.FormatUser(target), common.FormatDuration(applied)))
}

func (b *Bot) permban(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
	guild, actor := subject(data)
	target, ok := optionID(data, "user")
	if !ok {
		return errorResponse(errMissingOption)
	}
	// absent means the guild default
	amount, err := optionAmount(data, "unban_worth")
	if err != nil && !errors.Is(err, errMissingOption) {
		return errorResponse(err)
	}

	if _, err := b.engine.ImposePermanentBan(ctx, guild, target, actor, amount, optionString(data, "reason")); err != nil {
		return b.fail("permban", err)
	}
	return contentResponse("✅ " + common.FormatUser(target) + " permanently banned. DM sent with unban link.")
}

func (b *Bot) unban(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
	guild, actor := subject(data)
	target, ok := optionID(data, "user")
	if !ok {
		return errorResponse(errMissingOption)
	}

	if err := b.engine.StaffUnban(ctx, guild, target, actor); err != nil {
		return b.fail("unban", err)
	}
	return contentResponse("✅ " + common.FormatUser(target) + " has been unbanned and removed from the ban list.")
}

func (b *Bot) view(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
	guild, _ := subject(data)
	target, ok := optionID(data, "user")
	if !ok {
		return errorResponse(errMissingOption)
	}

	standing, err := b.engine.Standing(ctx, guild, target)
	if err != nil {
		return b.fail("view", err)
	}
	return &api.InteractionResponseData{
		Embeds: &[]discord.Embed{standingEmbed("👤 User Moderation Info", standing, b.now())},
		Flags:  discord.EphemeralMessage,
	}
}

func (b *Bot) viewlog(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
	guild, _ := subject(data)
	target, ok := optionID(data, "user")
	if !ok {
		return errorResponse(errMissingOption)
	}
	channel, _ := optionID(data, "channel")

	text, n, err := b.transcripts.Build(ctx, transcript.Request{
		GuildID:   guild,
		UserID:    target,
		ChannelID: channel,
		From:      optionString(data, "time_from"),
		To:        optionString(data, "time_to"),
	})
	if errors.Is(err, transcript.ErrInvalidTime) {
		return contentResponse("❌ " + err.Error())
	}
	if err != nil {
		return b.fail("viewlog", err)
	}

	return &api.InteractionResponseData{
		Content: option.NewNullableString(fmt.Sprintf("✅ Transcript generated for %s (%d messages).", common.FormatUser(target), n)),
		Files: []sendpart.File{{
			Name:   fmt.Sprintf("transcript_%s_%d.txt", target, b.now().UnixMilli()),
			Reader: strings.NewReader(text),
		}},
		Flags: discord.EphemeralMessage,
	}
}

func (b *Bot) rep(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
	guild, actor := subject(data)
	target, ok := optionID(data, "user")
	if !ok {
		target = actor
	}

	score, err := b.engine.Reputation(ctx, guild, target)
	if err != nil {
		return b.fail("rep", err)
	}
	return contentResponse(fmt.Sprintf("✨ %s's reputation score is **%d**.", common.FormatUser(target), score))
}

func (b *Bot) vote(positive bool) commandFunc {
	return func(ctx context.Context, data cmdroute.CommandData) *api.InteractionResponseData {
		guild, actor := subject(data)
		target, ok := optionID(data, "user")
		if !ok {
			return errorResponse(errMissingOption)
		}

		delta, err := b.engine.Vote(ctx, guild, actor, target, positive)
		if err != nil {
			return b.fail("vote", err)
		}
		return contentResponse(fmt.Sprintf("✅ Vote applied. %s's reputation changed by %+d.", common.FormatUser(target), delta))
	}
}
