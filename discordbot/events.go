package discordbot

import (
	"context"

	"coinmod/modules/moderation"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"go.uber.org/zap"
)

func voiceKey(guild discord.GuildID, user discord.UserID) string {
	return guild.String() + ":" + user.String()
}

func (b *Bot) guildCreate(ev *gateway.GuildCreateEvent) {
	ctx := context.Background()
	if err := b.store.EnsureGuild(ctx, ev.ID.String()); err != nil {
		b.logger.Error("cannot register guild", zap.String("guild", ev.ID.String()), zap.Error(err))
		return
	}

	// members already in voice start earning from now; a reconnect keeps
	// sessions that are already tracked
	for _, vs := range ev.VoiceStates {
		if !vs.ChannelID.IsValid() || (vs.Member != nil && vs.Member.User.Bot) {
			continue
		}
		if _, loaded := b.voice.LoadOrStore(voiceKey(ev.ID, vs.UserID), vs.ChannelID); loaded {
			continue
		}
		if err := b.engine.VoiceJoin(ctx, ev.ID.String(), vs.UserID.String()); err != nil {
			b.logger.Warn("cannot start voice session", zap.Error(err))
		}
	}
}

func (b *Bot) messageCreate(ev *gateway.MessageCreateEvent) {
	if !ev.GuildID.IsValid() || ev.Author.Bot {
		return
	}

	attachments := make([]string, 0, len(ev.Attachments))
	for _, a := range ev.Attachments {
		attachments = append(attachments, a.URL)
	}

	_, err := b.engine.RecordActivity(context.Background(), moderation.Activity{
		GuildID:     ev.GuildID.String(),
		ChannelID:   ev.ChannelID.String(),
		UserID:      ev.Author.ID.String(),
		MessageID:   ev.ID.String(),
		Content:     ev.Content,
		Attachments: attachments,
	})
	if err != nil {
		b.logger.Error("cannot record message",
			zap.String("guild", ev.GuildID.String()),
			zap.String("message", ev.ID.String()),
			zap.Error(err),
		)
	}
}

func (b *Bot) messageDelete(ev *gateway.MessageDeleteEvent) {
	if !ev.GuildID.IsValid() {
		return
	}
	// the filter already charged for this one
	if b.frontend.wasSelfDeleted(ev.ID.String()) {
		return
	}

	err := b.engine.ActivityDeleted(context.Background(), moderation.Deletion{
		GuildID:   ev.GuildID.String(),
		ChannelID: ev.ChannelID.String(),
		MessageID: ev.ID.String(),
	})
	if err != nil {
		b.logger.Error("cannot process deleted message", zap.String("message", ev.ID.String()), zap.Error(err))
	}
}

func (b *Bot) memberRemove(ev *gateway.GuildMemberRemoveEvent) {
	if ev.User.Bot {
		return
	}
	b.voice.Delete(voiceKey(ev.GuildID, ev.User.ID))

	if err := b.engine.MemberLeft(context.Background(), ev.GuildID.String(), ev.User.ID.String()); err != nil {
		b.logger.Error("cannot reset departed member", zap.String("user", ev.User.ID.String()), zap.Error(err))
	}
}

func (b *Bot) voiceStateUpdate(ev *gateway.VoiceStateUpdateEvent) {
	if !ev.GuildID.IsValid() || (ev.Member != nil && ev.Member.User.Bot) {
		return
	}
	ctx := context.Background()
	key := voiceKey(ev.GuildID, ev.UserID)
	guild, user := ev.GuildID.String(), ev.UserID.String()

	if ev.ChannelID.IsValid() {
		// moving between channels keeps the session
		if _, loaded := b.voice.LoadAndStore(key, ev.ChannelID); loaded {
			return
		}
		if err := b.engine.VoiceJoin(ctx, guild, user); err != nil {
			b.logger.Warn("cannot start voice session", zap.String("user", user), zap.Error(err))
		}
		return
	}

	b.voice.Delete(key)
	delta, err := b.engine.VoiceLeave(ctx, guild, user)
	if err != nil {
		b.logger.Warn("cannot close voice session", zap.String("user", user), zap.Error(err))
		return
	}
	if delta > 0 {
		b.logger.Debug("voice reputation awarded", zap.String("user", user), zap.Int("delta", delta))
	}
}
