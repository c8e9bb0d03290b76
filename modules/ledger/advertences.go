package ledger

import (
	"context"
	"time"

	"coinmod/database/schemas"
)

// AdvertenceTTL is how long an advertence counts toward a member's tier.
const AdvertenceTTL = 7 * 24 * time.Hour

func (s *Store) InsertAdvertence(ctx context.Context, adv *schemas.Advertence) error {
	_, err := s.db.NewInsert().Model(adv).Exec(ctx)
	return err
}

func (s *Store) CountAdvertences(ctx context.Context, guildID, userID string) (int, error) {
	return s.db.NewSelect().
		Model((*schemas.Advertence)(nil)).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Count(ctx)
}

func (s *Store) Advertences(ctx context.Context, guildID, userID string) ([]schemas.Advertence, error) {
	var advs []schemas.Advertence
	err := s.db.NewSelect().
		Model(&advs).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	return advs, err
}

// LatestAdvertence returns nil when the user holds no advertence.
func (s *Store) LatestAdvertence(ctx context.Context, guildID, userID string) (*schemas.Advertence, error) {
	adv := new(schemas.Advertence)
	err := s.db.NewSelect().
		Model(adv).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		OrderExpr("created_at DESC, id DESC").
		Limit(1).
		Scan(ctx)
	if noRows(err) {
		return nil, nil
	}
	return adv, err
}

// DeleteAdvertence deletes exactly one row. Concurrent removals of the same
// row see false.
func (s *Store) DeleteAdvertence(ctx context.Context, id int64) (bool, error) {
	n, err := affected(s.db.NewDelete().
		Model((*schemas.Advertence)(nil)).
		Where("id = ?", id).
		Exec(ctx))
	return n > 0, err
}

func (s *Store) ClearAdvertences(ctx context.Context, guildID, userID string) (int64, error) {
	return affected(s.db.NewDelete().
		Model((*schemas.Advertence)(nil)).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Exec(ctx))
}

func (s *Store) DeleteAdvertencesBefore(ctx context.Context, cutoff int64) (int64, error) {
	return affected(s.db.NewDelete().
		Model((*schemas.Advertence)(nil)).
		Where("created_at < ?", cutoff).
		Exec(ctx))
}

// AdvertenceHolders lists every member holding at least one advertence.
func (s *Store) AdvertenceHolders(ctx context.Context) ([]schemas.Subject, error) {
	var subjects []schemas.Subject
	err := s.db.NewSelect().
		Model((*schemas.Advertence)(nil)).
		Distinct().
		Column("guild_id", "user_id").
		Scan(ctx, &subjects)
	return subjects, err
}

func (s *Store) CountAllAdvertences(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*schemas.Advertence)(nil)).Count(ctx)
}
