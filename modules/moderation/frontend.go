package moderation

import (
	"context"
	"time"

	"coinmod/modules/payments"
)

// Frontend is the chat platform as seen by the engine. Every call is
// best-effort: failures are logged and never undo a ledger mutation.
type Frontend interface {
	Notify(ctx context.Context, n Notice) error
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
	// ApplyRoleDelta removes then adds roles one call at a time and keeps
	// going after a failed call.
	ApplyRoleDelta(ctx context.Context, guildID, userID string, remove, add []string) error
	// ApplyTimeout with d == 0 clears the timeout.
	ApplyTimeout(ctx context.Context, guildID, userID string, d time.Duration, reason string) error
	PerformBan(ctx context.Context, guildID, userID, reason string) error
	LiftBan(ctx context.Context, guildID, userID string) error
	DeleteMessage(ctx context.Context, channelID, messageID, reason string) error
	GuildName(ctx context.Context, guildID string) (string, error)
}

// Gateway moves Coin between cards.
type Gateway interface {
	Pay(ctx context.Context, req payments.Request) error
}

// WordFilter reports the distinct forbidden words found in content.
type WordFilter interface {
	Match(ctx context.Context, guildID, content string) ([]string, error)
}

type NoticeKind int

const (
	NoticeLog NoticeKind = iota
	NoticeRevoke
	NoticeDirect
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeLog:
		return "log"
	case NoticeRevoke:
		return "revoke"
	case NoticeDirect:
		return "direct"
	}
	return "unknown"
}

// Action is an interactive element attached to a notice.
type Action int

const (
	ActionNone Action = iota
	ActionPayUnban
)

// embed colors
const (
	ColorRed     = 0xED4245
	ColorGreen   = 0x57F287
	ColorYellow  = 0xFEE75C
	ColorOrange  = 0xE67E22
	ColorBlue    = 0x3498DB
	ColorGold    = 0xF1C40F
	ColorGreyple = 0x99AAB5
	ColorBlurple = 0x5865F2
)

type Field struct {
	Name   string
	Value  string
	Inline bool
}

type Notice struct {
	Kind    NoticeKind
	GuildID string
	// ChannelID is resolved from the guild configuration for log and revoke
	// notices. UserID is the recipient of direct notices.
	ChannelID   string
	UserID      string
	Title       string
	Description string
	Color       int
	Fields      []Field
	Action      Action
	Timestamp   time.Time
}
