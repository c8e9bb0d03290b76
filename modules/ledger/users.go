package ledger

import (
	"context"

	"coinmod/database/schemas"
)

// EnsureUser creates the user record with a neutral reputation if missing.
func (s *Store) EnsureUser(ctx context.Context, guildID, userID string, now int64) error {
	_, err := s.db.NewInsert().
		Model(&schemas.User{GuildID: guildID, UserID: userID, JoinTimestamp: now}).
		On("CONFLICT (guild_id, user_id) DO NOTHING").
		Exec(ctx)
	return err
}

func (s *Store) User(ctx context.Context, guildID, userID string) (*schemas.User, error) {
	user := new(schemas.User)
	err := s.db.NewSelect().
		Model(user).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Scan(ctx)
	if noRows(err) {
		return nil, ErrNotFound
	}
	return user, err
}

// AddReputation adds delta to the stored reputation, clamped to
// [MinReputation, MaxReputation]. It reports false when the user has no record.
func (s *Store) AddReputation(ctx context.Context, guildID, userID string, delta int) (bool, error) {
	expr, args := clampedReputation(delta)
	n, err := affected(s.db.NewUpdate().
		Model((*schemas.User)(nil)).
		Set(expr, args...).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Exec(ctx))
	return n > 0, err
}

// AwardChatReputation credits delta only when the previous chat credit is at
// or before cutoff, moving the window start to now in the same statement.
func (s *Store) AwardChatReputation(ctx context.Context, guildID, userID string, delta int, now, cutoff int64) (bool, error) {
	expr, args := clampedReputation(delta)
	n, err := affected(s.db.NewUpdate().
		Model((*schemas.User)(nil)).
		Set(expr, args...).
		Set("last_rep_message = ?", now).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Where("last_rep_message <= ?", cutoff).
		Exec(ctx))
	return n > 0, err
}

func (s *Store) SetVoiceStart(ctx context.Context, guildID, userID string, at int64) (bool, error) {
	n, err := affected(s.db.NewUpdate().
		Model((*schemas.User)(nil)).
		Set("last_rep_voice = ?", at).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Exec(ctx))
	return n > 0, err
}

// CompleteVoiceSession credits delta and clears the voice start, provided the
// stored start is still startedAt. A session is credited at most once.
func (s *Store) CompleteVoiceSession(ctx context.Context, guildID, userID string, startedAt int64, delta int) (bool, error) {
	expr, args := clampedReputation(delta)
	n, err := affected(s.db.NewUpdate().
		Model((*schemas.User)(nil)).
		Set(expr, args...).
		Set("last_rep_voice = 0").
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Where("last_rep_voice = ?", startedAt).
		Exec(ctx))
	return n > 0, err
}

// ClaimVote records a vote by voter on target at now unless the previous vote
// of the pair is after cutoff. It reports false, changing nothing, while the
// pair is cooling down.
func (s *Store) ClaimVote(ctx context.Context, guildID, voterID, targetID string, now, cutoff int64) (bool, error) {
	n, err := affected(s.db.NewUpdate().
		Model((*schemas.RepVote)(nil)).
		Set("last_vote_at = ?", now).
		Where("guild_id = ? AND voter_id = ? AND target_id = ?", guildID, voterID, targetID).
		Where("last_vote_at <= ?", cutoff).
		Exec(ctx))
	if err != nil || n > 0 {
		return n > 0, err
	}

	// either cooling down or the first vote of the pair
	n, err = affected(s.db.NewInsert().
		Model(&schemas.RepVote{GuildID: guildID, VoterID: voterID, TargetID: targetID, LastVoteAt: now}).
		On("CONFLICT (guild_id, voter_id, target_id) DO NOTHING").
		Exec(ctx))
	return n > 0, err
}

func (s *Store) Vote(ctx context.Context, guildID, voterID, targetID string) (*schemas.RepVote, error) {
	vote := new(schemas.RepVote)
	err := s.db.NewSelect().
		Model(vote).
		Where("guild_id = ? AND voter_id = ? AND target_id = ?", guildID, voterID, targetID).
		Scan(ctx)
	if noRows(err) {
		return nil, nil
	}
	return vote, err
}
