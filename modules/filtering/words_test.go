package filtering_test

import (
	"context"
	"errors"
	"testing"

	"coinmod/common"
	"coinmod/modules/filtering"
	"coinmod/modules/ledger/ledgertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := ledgertest.New(t)

	for _, w := range []string{"scam", "Spoiler "} {
		_, err := store.AddDenyWord(ctx, "g", w)
		require.NoError(t, err)
	}
	f := filtering.New(store, common.NewCache())

	hits, err := f.Match(ctx, "g", "this is a scam")
	require.NoError(t, err)
	assert.Equal([]string{"scam"}, hits)

	hits, err = f.Match(ctx, "g", "SCAM alert, spoiler inside")
	require.NoError(t, err)
	assert.Equal([]string{"scam", "spoiler"}, hits)

	hits, err = f.Match(ctx, "g", "hello there")
	require.NoError(t, err)
	assert.Empty(hits)

	hits, err = f.Match(ctx, "other", "this is a scam")
	require.NoError(t, err)
	assert.Empty(hits, "words are per guild")

	hits, err = f.Match(ctx, "g", "   ")
	require.NoError(t, err)
	assert.Empty(hits)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	store := ledgertest.New(t)
	f := filtering.New(store, common.NewCache())

	hits, err := f.Match(ctx, "g", "buy crypto")
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = store.AddDenyWord(ctx, "g", "crypto")
	require.NoError(t, err)

	hits, err = f.Match(ctx, "g", "buy crypto")
	require.NoError(t, err)
	assert.Empty(t, hits, "served from cache")

	f.Invalidate("g")
	hits, err = f.Match(ctx, "g", "buy crypto")
	require.NoError(t, err)
	assert.Equal(t, []string{"crypto"}, hits)
}

type brokenSource struct{}

func (brokenSource) DenyWords(ctx context.Context, guildID string) ([]string, error) {
	return nil, errors.New("db down")
}

func TestMatchSourceError(t *testing.T) {
	f := filtering.New(brokenSource{}, common.NewCache())
	_, err := f.Match(context.Background(), "g", "anything")
	assert.Error(t, err)
}
