package schemas

import (
	"coinmod/modules/money"

	"github.com/uptrace/bun"
)

// All timestamps are unix milliseconds.

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	GuildID        string `bun:"guild_id,pk" json:"guildID"`
	UserID         string `bun:"user_id,pk" json:"userID"`
	JoinTimestamp  int64  `bun:"join_timestamp,notnull,default:0" json:"joinTimestamp"`
	Reputation     int    `bun:"reputation,notnull,default:0" json:"reputation"`
	LastRepMessage int64  `bun:"last_rep_message,notnull,default:0" json:"-"`
	LastRepVoice   int64  `bun:"last_rep_voice,notnull,default:0" json:"-"`
}

type Advertence struct {
	bun.BaseModel `bun:"table:advs,alias:adv"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	GuildID   string `bun:"guild_id,notnull" json:"guildID"`
	UserID    string `bun:"user_id,notnull" json:"userID"`
	Reason    string `bun:"reason" json:"reason"`
	Automated bool   `bun:"is_denyword,notnull,default:false" json:"automated"`
	IssuedBy  string `bun:"issued_by" json:"issuedBy"`
	CreatedAt int64  `bun:"created_at,notnull" json:"createdAt"`
}

type Invoice struct {
	bun.BaseModel `bun:"table:invoices,alias:inv"`

	ID        int64        `bun:"id,pk,autoincrement" json:"id"`
	GuildID   string       `bun:"guild_id,notnull" json:"guildID"`
	UserID    string       `bun:"user_id,notnull" json:"userID"`
	Amount    money.Amount `bun:"amount,notnull" json:"amount"`
	Reason    string       `bun:"reason" json:"reason"`
	CreatedAt int64        `bun:"created_at,notnull" json:"createdAt"`
	Paid      bool         `bun:"paid,notnull,default:false" json:"paid"`
}

type PermanentBan struct {
	bun.BaseModel `bun:"table:bans,alias:ban"`

	GuildID    string       `bun:"guild_id,pk" json:"guildID"`
	UserID     string       `bun:"user_id,pk" json:"userID"`
	UnbanWorth money.Amount `bun:"unban_worth,notnull" json:"unbanWorth"`
	Reason     string       `bun:"reason" json:"reason"`
	IssuedBy   string       `bun:"issued_by" json:"issuedBy"`
	CreatedAt  int64        `bun:"created_at,notnull" json:"createdAt"`
}

type RepVote struct {
	bun.BaseModel `bun:"table:rep_votes,alias:rv"`

	GuildID    string `bun:"guild_id,pk"`
	VoterID    string `bun:"voter_id,pk"`
	TargetID   string `bun:"target_id,pk"`
	LastVoteAt int64  `bun:"last_vote_at,notnull"`
}

// Message is the retained activity log used for revoke logs and transcripts.
type Message struct {
	bun.BaseModel `bun:"table:messages,alias:msg"`

	ID          int64  `bun:"id,pk,autoincrement"`
	MessageID   string `bun:"message_id"`
	GuildID     string `bun:"guild_id,notnull"`
	ChannelID   string `bun:"channel_id,notnull"`
	UserID      string `bun:"user_id,notnull"`
	Content     string `bun:"content"`
	Attachments string `bun:"attachments_urls"` // comma separated
	CreatedAt   int64  `bun:"created_at,notnull"`
}

// Subject identifies a member of one guild.
type Subject struct {
	GuildID string `bun:"guild_id"`
	UserID  string `bun:"user_id"`
}
