package schemas

import (
	"coinmod/modules/money"

	"github.com/uptrace/bun"
)

type Guild struct {
	bun.BaseModel `bun:"table:guilds,alias:g"`

	GuildID       string       `bun:"guild_id,pk" json:"guildID"`
	LogChannel    string       `bun:"log_channel" json:"logChannel"`
	RevokeChannel string       `bun:"revoke_channel" json:"revokeChannel"`
	PanelChannel  string       `bun:"panel_channel" json:"panelChannel"`
	BailWorth     money.Amount `bun:"bail_worth,notnull,default:0" json:"bailWorth"`
	AdvWorth      money.Amount `bun:"adv_worth,notnull,default:0" json:"advWorth"`
	TimeoutWorth  money.Amount `bun:"timeout_worth,notnull,default:0" json:"timeoutWorth"`
	UnbanWorth    money.Amount `bun:"unban_worth,notnull,default:0" json:"unbanWorth"`
	Invite        string       `bun:"invite" json:"invite"`
	CoinCard      string       `bun:"coin_card" json:"-"` // destination account for every payment
}

// AdvRoles maps advertence tiers to roles managed by the chat platform.
type AdvRoles struct {
	bun.BaseModel `bun:"table:adv_roles,alias:ar"`

	GuildID  string `bun:"guild_id,pk" json:"guildID"`
	Adv1Role string `bun:"adv1_role" json:"adv1Role"`
	Adv2Role string `bun:"adv2_role" json:"adv2Role"`
	Adv3Role string `bun:"adv3_role" json:"adv3Role"`
	BanRole  string `bun:"ban_role" json:"banRole"`
}

// All returns every configured role, tier order first.
func (r *AdvRoles) All() []string {
	roles := make([]string, 0, 4)
	for _, id := range []string{r.Adv1Role, r.Adv2Role, r.Adv3Role, r.BanRole} {
		if id != "" {
			roles = append(roles, id)
		}
	}
	return roles
}

type StaffRole struct {
	bun.BaseModel `bun:"table:staff_roles,alias:sr"`

	GuildID string `bun:"guild_id,pk"`
	RoleID  string `bun:"role_id,pk"`
}

type DenyWord struct {
	bun.BaseModel `bun:"table:denywords,alias:dw"`

	GuildID string `bun:"guild_id,pk"`
	Word    string `bun:"word,pk"`
}
