// Package discordbot is the Discord front-end: slash commands, panel
// buttons, payment modals and the gateway events that feed the engine.
package discordbot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"coinmod/modules/filtering"
	"coinmod/modules/ledger"
	"coinmod/modules/moderation"
	"coinmod/modules/transcript"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/cmdroute"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

const intents = gateway.IntentGuilds |
	gateway.IntentGuildMembers |
	gateway.IntentGuildMessages |
	gateway.IntentMessageContent |
	gateway.IntentGuildVoiceStates |
	gateway.IntentDirectMessages

type Bot struct {
	*cmdroute.Router
	state       *state.State
	frontend    *Frontend
	engine      *moderation.Engine
	store       *ledger.Store
	filter      *filtering.Filter
	transcripts *transcript.Builder
	logger      *zap.Logger
	now         func() time.Time

	// guild:user -> voice channel id
	voice *xsync.MapOf[string, discord.ChannelID]
}

func New(s *state.State, frontend *Frontend, engine *moderation.Engine, filter *filtering.Filter, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bot{
		state:    s,
		frontend: frontend,
		engine:   engine,
		store:    engine.Store(),
		filter:   filter,
		logger:   logger,
		now:      time.Now,
		voice:    xsync.NewMapOf[string, discord.ChannelID](),
	}
	b.transcripts = transcript.NewBuilder(b.store, b.channelName)

	b.Router = cmdroute.NewRouter()
	// Automatically defer handles if they're slow.
	b.Use(cmdroute.Deferrable(s, cmdroute.DeferOpts{}))
	b.Use(b.requireStaff)

	b.AddFunc("adv", b.adv)
	b.AddFunc("adv-remove", b.advRemove)
	b.AddFunc("advrole", b.advRole)
	b.AddFunc("advworth", b.worth(ledger.FieldAdvWorth, "ADV fine worth"))
	b.AddFunc("bailworth", b.worth(ledger.FieldBailWorth, "Bail worth"))
	b.AddFunc("timeout-worth", b.worth(ledger.FieldTimeoutWorth, "Timeout fine worth"))
	b.AddFunc("unbanworth", b.worth(ledger.FieldUnbanWorth, "Default Unban fine worth"))
	b.AddFunc("card", b.setting(ledger.FieldCoinCard, "card", "✅ Coin Card configured."))
	b.AddFunc("invite", b.setting(ledger.FieldInvite, "link", "✅ Invite saved."))
	b.AddFunc("log", b.setting(ledger.FieldLogChannel, "channel", "✅ Moderation log channel set."))
	b.AddFunc("revoke", b.setting(ledger.FieldRevokeChannel, "channel", "✅ Deleted message log channel set."))
	b.AddFunc("staffrole-add", b.staffRole(true))
	b.AddFunc("staffrole-remove", b.staffRole(false))
	b.AddFunc("denyword-add", b.denyWord(true))
	b.AddFunc("denyword-remove", b.denyWord(false))
	b.AddFunc("panel", b.panel)
	b.AddFunc("invoice", b.invoice)
	b.AddFunc("timeout", b.timeout)
	b.AddFunc("permban", b.permban)
	b.AddFunc("unban", b.unban)
	b.AddFunc("view", b.view)
	b.AddFunc("viewlog", b.viewlog)
	b.AddFunc("rep", b.rep)
	b.AddFunc("positive", b.vote(true))
	b.AddFunc("negative", b.vote(false))
	return b
}

// Open registers commands and handlers, then connects to the gateway.
func (b *Bot) Open(ctx context.Context) error {
	b.state.AddIntents(intents)
	b.state.AddHandler(func(*gateway.ReadyEvent) {
		if me, err := b.state.Me(); err == nil {
			b.logger.Info("connected to the gateway", zap.String("user", me.Tag()))
		}
	})
	b.state.AddHandler(b.guildCreate)
	b.state.AddHandler(b.messageCreate)
	b.state.AddHandler(b.messageDelete)
	b.state.AddHandler(b.memberRemove)
	// voice transitions must be seen in order
	b.state.AddSyncHandler(b.voiceStateUpdate)
	b.state.AddInteractionHandler(b)

	if err := cmdroute.OverwriteCommands(b.state, commands); err != nil {
		return fmt.Errorf("cannot update commands: %w", err)
	}
	return b.state.Open(ctx)
}

func (b *Bot) Close() error {
	return b.state.Close()
}

// HandleInteraction routes slash commands through the router and handles
// buttons and modals itself, since those answer with modals or deferred
// replies.
func (b *Bot) HandleInteraction(ev *discord.InteractionEvent) (resp *api.InteractionResponse) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("interaction handler panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			resp = &api.InteractionResponse{
				Type: api.MessageInteractionWithSource,
				Data: contentResponse("❌ An internal error occurred."),
			}
		}
	}()

	switch data := ev.Data.(type) {
	case *discord.CommandInteraction:
		if !ev.GuildID.IsValid() {
			return reply(contentResponse("❌ This command must be used in a server."))
		}
		switch data.Name {
		case "payinvoice":
			return cardModal(modalInvoice, "Pay All Pending Invoices")
		case "bail":
			return cardModal(modalBail, "Pay Bail (Remove 1 ADV)")
		}
		return b.Router.HandleInteraction(ev)
	case *discord.ButtonInteraction:
		return b.button(ev, data)
	case *discord.ModalInteraction:
		b.modal(ev, data)
		return nil
	}
	return nil
}

func reply(data *api.InteractionResponseData) *api.InteractionResponse {
	return &api.InteractionResponse{Type: api.MessageInteractionWithSource, Data: data}
}

// requireStaff rejects staff commands from members without Administrator or
// a configured staff role.
func (b *Bot) requireStaff(next cmdroute.InteractionHandler) cmdroute.InteractionHandler {
	return cmdroute.InteractionHandlerFunc(func(ctx context.Context, ev *discord.InteractionEvent) *api.InteractionResponse {
		cmd, ok := ev.Data.(*discord.CommandInteraction)
		if !ok || !staffCommands[cmd.Name] {
			return next.HandleInteraction(ctx, ev)
		}

		admin, staff, err := b.authority(ctx, ev)
		if err != nil {
			b.logger.Warn("staff check failed", zap.Error(err))
			return reply(contentResponse("❌ An internal error occurred."))
		}
		if adminCommands[cmd.Name] && !admin {
			return reply(contentResponse("❌ Admin only."))
		}
		if !admin && !staff {
			return reply(contentResponse("❌ No permission. Staff or Administrator role required."))
		}
		return next.HandleInteraction(ctx, ev)
	})
}

func (b *Bot) authority(ctx context.Context, ev *discord.InteractionEvent) (admin, staff bool, err error) {
	if ev.Member == nil {
		return false, false, nil
	}

	perms, err := b.state.WithContext(ctx).Permissions(ev.ChannelID, ev.SenderID())
	if err == nil && perms.Has(discord.PermissionAdministrator) {
		return true, true, nil
	}

	roles, err := b.store.StaffRoles(ctx, ev.GuildID.String())
	if err != nil {
		return false, false, err
	}
	return false, hasStaffRole(ev.Member.RoleIDs, roles), nil
}

func hasStaffRole(held []discord.RoleID, staff []string) bool {
	for _, id := range held {
		if slices.Contains(staff, id.String()) {
			return true
		}
	}
	return false
}

func (b *Bot) channelName(id string) string {
	cid, err := channelID(id)
	if err != nil {
		return ""
	}
	ch, err := b.state.Channel(cid)
	if err != nil {
		return ""
	}
	return ch.Name
}
