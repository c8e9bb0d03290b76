package discordbot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"coinmod/modules/moderation"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/utils/httputil"
	"github.com/patrickmn/go-cache"
)

// Frontend carries out engine requests against the Discord API.
type Frontend struct {
	state *state.State
	// ids of messages the bot deleted itself, so the delete event is not
	// charged to the author
	selfDeleted *cache.Cache
}

func NewFrontend(s *state.State, selfDeleted *cache.Cache) *Frontend {
	return &Frontend{state: s, selfDeleted: selfDeleted}
}

func (f *Frontend) client(ctx context.Context) *api.Client {
	return f.state.Client.WithContext(ctx)
}

func guildID(id string) (discord.GuildID, error) {
	sf, err := discord.ParseSnowflake(id)
	if err != nil {
		return 0, fmt.Errorf("guild id %q: %w", id, err)
	}
	return discord.GuildID(sf), nil
}

func userID(id string) (discord.UserID, error) {
	sf, err := discord.ParseSnowflake(id)
	if err != nil {
		return 0, fmt.Errorf("user id %q: %w", id, err)
	}
	return discord.UserID(sf), nil
}

func channelID(id string) (discord.ChannelID, error) {
	sf, err := discord.ParseSnowflake(id)
	if err != nil {
		return 0, fmt.Errorf("channel id %q: %w", id, err)
	}
	return discord.ChannelID(sf), nil
}

func auditReason(reason string) httputil.RequestOption {
	return httputil.WithHeaders(http.Header{
		"X-Audit-Log-Reason": []string{url.PathEscape(reason)},
	})
}

func memberEndpoint(guildID, userID string) string {
	return api.EndpointGuilds + guildID + "/members/" + userID
}

func (f *Frontend) Notify(ctx context.Context, n moderation.Notice) error {
	var target discord.ChannelID
	if n.Kind == moderation.NoticeDirect {
		uid, err := userID(n.UserID)
		if err != nil {
			return err
		}
		dm, err := f.client(ctx).CreatePrivateChannel(uid)
		if err != nil {
			return fmt.Errorf("open dm: %w", err)
		}
		target = dm.ID
	} else {
		id, err := channelID(n.ChannelID)
		if err != nil {
			return err
		}
		target = id
	}

	_, err := f.client(ctx).SendMessageComplex(target, api.SendMessageData{
		Embeds:     []discord.Embed{noticeEmbed(n)},
		Components: noticeComponents(n.Action),
	})
	return err
}

func (f *Frontend) MemberRoles(ctx context.Context, guild, user string) ([]string, error) {
	gid, err := guildID(guild)
	if err != nil {
		return nil, err
	}
	uid, err := userID(user)
	if err != nil {
		return nil, err
	}

	member, err := f.client(ctx).Member(gid, uid)
	if err != nil {
		return nil, err
	}
	roles := make([]string, len(member.RoleIDs))
	for i, id := range member.RoleIDs {
		roles[i] = id.String()
	}
	return roles, nil
}

// ApplyRoleDelta sends one request per role so a concurrent change to an
// unrelated role is never overwritten. Every role is attempted; failures are
// joined into the returned error.
func (f *Frontend) ApplyRoleDelta(ctx context.Context, guild, user string, remove, add []string) error {
	c := f.client(ctx)
	reason := auditReason("Advertence role sync")

	var errs []error
	for _, role := range remove {
		if err := c.FastRequest(http.MethodDelete, memberEndpoint(guild, user)+"/roles/"+role, reason); err != nil {
			errs = append(errs, fmt.Errorf("remove role %s: %w", role, err))
		}
	}
	for _, role := range add {
		if err := c.FastRequest(http.MethodPut, memberEndpoint(guild, user)+"/roles/"+role, reason); err != nil {
			errs = append(errs, fmt.Errorf("add role %s: %w", role, err))
		}
	}
	return errors.Join(errs...)
}

// ApplyTimeout sets the member's communication timeout. A zero duration
// clears it.
func (f *Frontend) ApplyTimeout(ctx context.Context, guild, user string, d time.Duration, reason string) error {
	var until any
	if d > 0 {
		until = time.Now().Add(d).UTC().Format(time.RFC3339)
	}
	return f.client(ctx).FastRequest(http.MethodPatch, memberEndpoint(guild, user),
		httputil.WithJSONBody(map[string]any{"communication_disabled_until": until}),
		auditReason(reason),
	)
}

func (f *Frontend) PerformBan(ctx context.Context, guild, user, reason string) error {
	return f.client(ctx).FastRequest(http.MethodPut, api.EndpointGuilds+guild+"/bans/"+user,
		httputil.WithJSONBody(map[string]any{"delete_message_seconds": 0}),
		auditReason(reason),
	)
}

func (f *Frontend) LiftBan(ctx context.Context, guild, user string) error {
	return f.client(ctx).FastRequest(http.MethodDelete, api.EndpointGuilds+guild+"/bans/"+user,
		auditReason("Permanent ban lifted"),
	)
}

func (f *Frontend) DeleteMessage(ctx context.Context, channel, message, reason string) error {
	f.selfDeleted.SetDefault(message, struct{}{})
	err := f.client(ctx).FastRequest(http.MethodDelete, api.EndpointChannels+channel+"/messages/"+message,
		auditReason(reason),
	)
	if err != nil {
		f.selfDeleted.Delete(message)
	}
	return err
}

func (f *Frontend) GuildName(ctx context.Context, guild string) (string, error) {
	gid, err := guildID(guild)
	if err != nil {
		return "", err
	}
	g, err := f.state.WithContext(ctx).Guild(gid)
	if err != nil {
		return "", err
	}
	return g.Name, nil
}

// wasSelfDeleted reports and forgets whether the bot removed the message.
func (f *Frontend) wasSelfDeleted(message string) bool {
	if _, ok := f.selfDeleted.Get(message); ok {
		f.selfDeleted.Delete(message)
		return true
	}
	return false
}
