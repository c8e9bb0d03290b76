package ledger

import (
	"context"
	"fmt"
	"strings"

	"coinmod/database/schemas"

	"github.com/uptrace/bun"
)

// GuildField names a single configurable column of the guilds table.
type GuildField string

const (
	FieldLogChannel    GuildField = "log_channel"
	FieldRevokeChannel GuildField = "revoke_channel"
	FieldPanelChannel  GuildField = "panel_channel"
	FieldBailWorth     GuildField = "bail_worth"
	FieldAdvWorth      GuildField = "adv_worth"
	FieldTimeoutWorth  GuildField = "timeout_worth"
	FieldUnbanWorth    GuildField = "unban_worth"
	FieldInvite        GuildField = "invite"
	FieldCoinCard      GuildField = "coin_card"
)

func (f GuildField) valid() bool {
	switch f {
	case FieldLogChannel, FieldRevokeChannel, FieldPanelChannel,
		FieldBailWorth, FieldAdvWorth, FieldTimeoutWorth, FieldUnbanWorth,
		FieldInvite, FieldCoinCard:
		return true
	}
	return false
}

// AdvLevel names a role slot of the adv_roles table.
type AdvLevel string

const (
	AdvLevel1   AdvLevel = "adv1"
	AdvLevel2   AdvLevel = "adv2"
	AdvLevel3   AdvLevel = "adv3"
	AdvLevelBan AdvLevel = "ban"
)

func (l AdvLevel) column() (string, bool) {
	switch l {
	case AdvLevel1, AdvLevel2, AdvLevel3, AdvLevelBan:
		return string(l) + "_role", true
	}
	return "", false
}

func guildKey(guildID string) string {
	return "guild:" + guildID
}

func (s *Store) EnsureGuild(ctx context.Context, guildID string) error {
	_, err := s.db.NewInsert().
		Model(&schemas.Guild{GuildID: guildID}).
		On("CONFLICT (guild_id) DO NOTHING").
		Exec(ctx)
	return err
}

// Guild returns the configuration of a guild, creating an empty one on first
// use. The result is a copy and may be modified freely.
func (s *Store) Guild(ctx context.Context, guildID string) (*schemas.Guild, error) {
	if cached, ok := s.cache.Get(guildKey(guildID)); ok {
		g := *cached.(*schemas.Guild)
		return &g, nil
	}

	if err := s.EnsureGuild(ctx, guildID); err != nil {
		return nil, err
	}

	guild := new(schemas.Guild)
	err := s.db.NewSelect().Model(guild).Where("guild_id = ?", guildID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(guildKey(guildID), guild)
	g := *guild
	return &g, nil
}

func (s *Store) SetGuildField(ctx context.Context, guildID string, field GuildField, value any) error {
	if !field.valid() {
		return fmt.Errorf("unknown guild field %q", field)
	}
	if err := s.EnsureGuild(ctx, guildID); err != nil {
		return err
	}

	_, err := s.db.NewUpdate().
		Model((*schemas.Guild)(nil)).
		Set("? = ?", bun.Ident(string(field)), value).
		Where("guild_id = ?", guildID).
		Exec(ctx)
	s.cache.Delete(guildKey(guildID))
	return err
}

// AdvRoles returns nil when the guild never configured tier roles.
func (s *Store) AdvRoles(ctx context.Context, guildID string) (*schemas.AdvRoles, error) {
	roles := new(schemas.AdvRoles)
	err := s.db.NewSelect().Model(roles).Where("guild_id = ?", guildID).Scan(ctx)
	if noRows(err) {
		return nil, nil
	}
	return roles, err
}

func (s *Store) SetAdvRole(ctx context.Context, guildID string, level AdvLevel, roleID string) error {
	column, ok := level.column()
	if !ok {
		return fmt.Errorf("unknown advertence level %q", level)
	}

	roles := &schemas.AdvRoles{GuildID: guildID}
	switch level {
	case AdvLevel1:
		roles.Adv1Role = roleID
	case AdvLevel2:
		roles.Adv2Role = roleID
	case AdvLevel3:
		roles.Adv3Role = roleID
	case AdvLevelBan:
		roles.BanRole = roleID
	}

	_, err := s.db.NewInsert().
		Model(roles).
		On("CONFLICT (guild_id) DO UPDATE").
		Set("? = EXCLUDED.?", bun.Ident(column), bun.Ident(column)).
		Exec(ctx)
	return err
}

func (s *Store) StaffRoles(ctx context.Context, guildID string) ([]string, error) {
	var roles []string
	err := s.db.NewSelect().
		Model((*schemas.StaffRole)(nil)).
		Column("role_id").
		Where("guild_id = ?", guildID).
		Scan(ctx, &roles)
	return roles, err
}

func (s *Store) AddStaffRole(ctx context.Context, guildID, roleID string) error {
	_, err := s.db.NewInsert().
		Model(&schemas.StaffRole{GuildID: guildID, RoleID: roleID}).
		On("CONFLICT (guild_id, role_id) DO NOTHING").
		Exec(ctx)
	return err
}

func (s *Store) RemoveStaffRole(ctx context.Context, guildID, roleID string) (bool, error) {
	n, err := affected(s.db.NewDelete().
		Model((*schemas.StaffRole)(nil)).
		Where("guild_id = ? AND role_id = ?", guildID, roleID).
		Exec(ctx))
	return n > 0, err
}

func (s *Store) DenyWords(ctx context.Context, guildID string) ([]string, error) {
	var words []string
	err := s.db.NewSelect().
		Model((*schemas.DenyWord)(nil)).
		Column("word").
		Where("guild_id = ?", guildID).
		Order("word").
		Scan(ctx, &words)
	return words, err
}

// AddDenyWord stores the word lower-cased. It reports false when the word was
// already present.
func (s *Store) AddDenyWord(ctx context.Context, guildID, word string) (bool, error) {
	n, err := affected(s.db.NewInsert().
		Model(&schemas.DenyWord{GuildID: guildID, Word: strings.ToLower(strings.TrimSpace(word))}).
		On("CONFLICT (guild_id, word) DO NOTHING").
		Exec(ctx))
	return n > 0, err
}

func (s *Store) RemoveDenyWord(ctx context.Context, guildID, word string) (bool, error) {
	n, err := affected(s.db.NewDelete().
		Model((*schemas.DenyWord)(nil)).
		Where("guild_id = ? AND word = ?", guildID, strings.ToLower(strings.TrimSpace(word))).
		Exec(ctx))
	return n > 0, err
}
