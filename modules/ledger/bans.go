package ledger

import (
	"context"

	"coinmod/database/schemas"
)

// PermanentBan returns nil when the user is not permanently banned in the guild.
func (s *Store) PermanentBan(ctx context.Context, guildID, userID string) (*schemas.PermanentBan, error) {
	ban := new(schemas.PermanentBan)
	err := s.db.NewSelect().
		Model(ban).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Scan(ctx)
	if noRows(err) {
		return nil, nil
	}
	return ban, err
}

// LatestBanFor looks a user up across every guild and returns the most recent
// permanent ban, or nil.
func (s *Store) LatestBanFor(ctx context.Context, userID string) (*schemas.PermanentBan, error) {
	ban := new(schemas.PermanentBan)
	err := s.db.NewSelect().
		Model(ban).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC, guild_id ASC").
		Limit(1).
		Scan(ctx)
	if noRows(err) {
		return nil, nil
	}
	return ban, err
}

func (s *Store) UpsertBan(ctx context.Context, ban *schemas.PermanentBan) error {
	_, err := s.db.NewInsert().
		Model(ban).
		On("CONFLICT (guild_id, user_id) DO UPDATE").
		Set("unban_worth = EXCLUDED.unban_worth").
		Set("reason = EXCLUDED.reason").
		Set("issued_by = EXCLUDED.issued_by").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	return err
}

func (s *Store) DeleteBan(ctx context.Context, guildID, userID string) (bool, error) {
	n, err := affected(s.db.NewDelete().
		Model((*schemas.PermanentBan)(nil)).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Exec(ctx))
	return n > 0, err
}

func (s *Store) CountBans(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*schemas.PermanentBan)(nil)).Count(ctx)
}
