// Package ledger is the durable store behind the moderation engine: guild
// configuration, reputation, advertences, invoices, permanent bans, vote
// cooldowns and the activity log. Every mutation is a single statement scoped
// to one table; callers enforce invariants from what they read just before
// writing.
package ledger

import (
	"database/sql"
	"errors"

	"github.com/patrickmn/go-cache"
	"github.com/uptrace/bun"
)

const (
	MinReputation = -1000
	MaxReputation = 1000
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db    *bun.DB
	cache *cache.Cache
}

func New(db *bun.DB, c *cache.Cache) *Store {
	return &Store{db: db, cache: c}
}

func (s *Store) DB() *bun.DB {
	return s.db
}

// clampedReputation builds a SET expression adding delta to reputation and
// clamping the result, portable across postgres and sqlite.
func clampedReputation(delta int) (string, []any) {
	return "reputation = CASE WHEN reputation + ? > ? THEN ? WHEN reputation + ? < ? THEN ? ELSE reputation + ? END",
		[]any{delta, MaxReputation, MaxReputation, delta, MinReputation, MinReputation, delta}
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func noRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
