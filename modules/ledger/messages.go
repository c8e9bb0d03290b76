package ledger

import (
	"context"

	"coinmod/database/schemas"
)

// MessageFilter narrows an activity log query. Zero values match everything.
type MessageFilter struct {
	GuildID   string
	UserID    string
	ChannelID string
	From      int64
	To        int64
	Limit     int
}

func (s *Store) InsertMessage(ctx context.Context, msg *schemas.Message) error {
	_, err := s.db.NewInsert().Model(msg).Exec(ctx)
	return err
}

// MessageByID returns nil when the message was never logged or already expired.
func (s *Store) MessageByID(ctx context.Context, messageID string) (*schemas.Message, error) {
	msg := new(schemas.Message)
	err := s.db.NewSelect().
		Model(msg).
		Where("message_id = ?", messageID).
		Limit(1).
		Scan(ctx)
	if noRows(err) {
		return nil, nil
	}
	return msg, err
}

func (s *Store) CountMessages(ctx context.Context, guildID, userID string) (int, error) {
	return s.db.NewSelect().
		Model((*schemas.Message)(nil)).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Count(ctx)
}

// Messages returns the matching log entries, oldest first.
func (s *Store) Messages(ctx context.Context, filter MessageFilter) ([]schemas.Message, error) {
	var messages []schemas.Message
	q := s.db.NewSelect().Model(&messages)

	if filter.GuildID != "" {
		q = q.Where("guild_id = ?", filter.GuildID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.ChannelID != "" {
		q = q.Where("channel_id = ?", filter.ChannelID)
	}
	if filter.From > 0 {
		q = q.Where("created_at >= ?", filter.From)
	}
	if filter.To > 0 {
		q = q.Where("created_at <= ?", filter.To)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	err := q.OrderExpr("created_at ASC, id ASC").Scan(ctx)
	return messages, err
}

func (s *Store) DeleteMessagesBefore(ctx context.Context, cutoff int64) (int64, error) {
	return affected(s.db.NewDelete().
		Model((*schemas.Message)(nil)).
		Where("created_at < ?", cutoff).
		Exec(ctx))
}
