package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coinmod/database/schemas"
	"coinmod/modules/ledger/ledgertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	mu     sync.Mutex
	synced []string
	fail   map[string]bool
	// blocks SyncRoles until closed when set
	entered chan struct{}
	release chan struct{}
}

func (f *fakeSyncer) SyncRoles(ctx context.Context, guildID, userID string) error {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[userID] {
		return errors.New("member gone")
	}
	f.synced = append(f.synced, guildID+":"+userID)
	return nil
}

func TestRunExpiresAndResyncs(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	store := ledgertest.New(t)

	for _, adv := range []*schemas.Advertence{
		{GuildID: "g", UserID: "stale", CreatedAt: now.Add(-8 * 24 * time.Hour).UnixMilli()},
		{GuildID: "g", UserID: "fresh", CreatedAt: now.Add(-6 * 24 * time.Hour).UnixMilli()},
		{GuildID: "g", UserID: "gone", CreatedAt: now.Add(-time.Hour).UnixMilli()},
	} {
		require.NoError(t, store.InsertAdvertence(ctx, adv))
	}
	for _, msg := range []*schemas.Message{
		{GuildID: "g", ChannelID: "c", UserID: "fresh", CreatedAt: now.Add(-31 * 24 * time.Hour).UnixMilli()},
		{GuildID: "g", ChannelID: "c", UserID: "fresh", CreatedAt: now.Add(-29 * 24 * time.Hour).UnixMilli()},
	} {
		require.NoError(t, store.InsertMessage(ctx, msg))
	}

	syncer := &fakeSyncer{fail: map[string]bool{"gone": true}}
	job := New(store, syncer, time.Minute, nil)
	job.now = func() time.Time { return now }

	res, err := job.Run(ctx)
	require.NoError(t, err)
	assert.False(res.Skipped)
	assert.Equal(int64(1), res.ExpiredAdvertences)
	assert.Equal(int64(1), res.ExpiredMessages)
	assert.Equal(2, res.Synced)
	assert.Equal(1, res.SyncFailures)

	// the member whose only advertence expired is still re-synced
	assert.ElementsMatch([]string{"g:stale", "g:fresh"}, syncer.synced)

	count, err := store.CountAdvertences(ctx, "g", "stale")
	require.NoError(t, err)
	assert.Zero(count)
	count, err = store.CountMessages(ctx, "g", "fresh")
	require.NoError(t, err)
	assert.Equal(1, count)
}

func TestRunSkipsWhileRunning(t *testing.T) {
	ctx := context.Background()
	store := ledgertest.New(t)
	require.NoError(t, store.InsertAdvertence(ctx, &schemas.Advertence{GuildID: "g", UserID: "u", CreatedAt: time.Now().UnixMilli()}))

	syncer := &fakeSyncer{entered: make(chan struct{}), release: make(chan struct{})}
	job := New(store, syncer, time.Minute, nil)

	done := make(chan Result)
	go func() {
		res, _ := job.Run(ctx)
		done <- res
	}()
	<-syncer.entered

	res, err := job.Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	close(syncer.release)
	first := <-done
	assert.False(t, first.Skipped)
	assert.Equal(t, 1, first.Synced)
}

func TestStartStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	job := New(ledgertest.New(t), &fakeSyncer{}, time.Millisecond, nil)

	stopped := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(stopped)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
