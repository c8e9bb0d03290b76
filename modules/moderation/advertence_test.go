package moderation

import (
	"context"
	"testing"
	"time"

	"coinmod/database/schemas"
	"coinmod/modules/ledger"
	"coinmod/modules/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(TierClear, TierFor(0))
	assert.Equal(TierClear, TierFor(-1))
	assert.Equal(Tier1, TierFor(1))
	assert.Equal(Tier2, TierFor(2))
	assert.Equal(Tier3, TierFor(3))
	assert.Equal(Tier3, TierFor(12))
}

func configureRoles(t *testing.T, store *ledger.Store, guildID string) {
	t.Helper()
	ctx := context.Background()
	for level, role := range map[ledger.AdvLevel]string{
		ledger.AdvLevel1:   "adv1",
		ledger.AdvLevel2:   "adv2",
		ledger.AdvLevel3:   "adv3",
		ledger.AdvLevelBan: "banrole",
	} {
		require.NoError(t, store.SetAdvRole(ctx, guildID, level, role))
	}
}

func TestTierTransitions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	configureRoles(t, h.store, "g")
	h.front.roles["g:u"] = []string{"member"}

	want := [][]string{
		{"member", "adv1"},
		{"member", "adv2"},
		{"member", "adv3", "banrole"},
	}
	for i, roles := range want {
		_, err := h.engine.IssueAdvertence(ctx, Violation{GuildID: "g", UserID: "u", IssuedBy: "mod", Reason: "spam"})
		require.NoError(t, err)
		assert.ElementsMatch(t, roles, h.front.rolesOf("g", "u"), "after advertence %d", i+1)
	}

	// a payment-gated ban replaces the soft hold
	_, err := h.engine.ImposePermanentBan(ctx, "g", "u", "mod", money.Amount(100), "")
	require.NoError(t, err)
	require.NoError(t, h.engine.SyncRoles(ctx, "g", "u"))
	assert.ElementsMatch(t, []string{"member", "adv3"}, h.front.rolesOf("g", "u"))

	require.NoError(t, h.engine.StaffUnban(ctx, "g", "u", "mod"))
	assert.ElementsMatch(t, []string{"member"}, h.front.rolesOf("g", "u"))
}

func TestSyncRolesWithoutConfig(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.front.roles["g:u"] = []string{"member"}

	_, err := h.engine.IssueAdvertence(ctx, Violation{GuildID: "g", UserID: "u"})
	require.NoError(t, err)
	assert.Equal(t, []string{"member"}, h.front.rolesOf("g", "u"))
}

func TestSyncRolesToleratesFrontendFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	configureRoles(t, h.store, "g")
	h.user(t, "g", "u", 0)
	h.front.failAll = true

	adv, err := h.engine.IssueAdvertence(ctx, Violation{GuildID: "g", UserID: "u", IssuedBy: "mod"})
	require.NoError(t, err)
	assert.NotZero(t, adv.ID)
	assert.Equal(t, AdvertenceDelta, h.reputation(t, "g", "u"), "ledger changes survive front-end failures")

	h.front.failAll = false
	require.NoError(t, h.engine.SyncRoles(ctx, "g", "u"))
	assert.Equal(t, []string{"adv1"}, h.front.rolesOf("g", "u"))
}

func TestModeratorAdvertence(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	h := newHarness(t, nil)
	h.user(t, "g", "u", 0)
	require.NoError(t, h.store.SetGuildField(ctx, "g", ledger.FieldAdvWorth, money.Amount(300_000_000)))
	require.NoError(t, h.store.SetGuildField(ctx, "g", ledger.FieldLogChannel, "logs"))

	adv, err := h.engine.IssueAdvertence(ctx, Violation{GuildID: "g", UserID: "u", IssuedBy: "mod", Reason: "rude"})
	require.NoError(t, err)
	assert.False(adv.Automated)
	assert.Equal("rude", adv.Reason)

	assert.Equal(AdvertenceDelta, h.reputation(t, "g", "u"))
	assert.Equal([]time.Duration{ModeratorTimeout}, h.front.timeouts)

	invoices, err := h.store.UnpaidInvoices(ctx, "g", "u")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(money.Amount(300_000_000), invoices[0].Amount)
	assert.Equal("Advertence Fine: rude", invoices[0].Reason)

	logs := h.front.noticesOf(NoticeLog)
	require.Len(t, logs, 1)
	assert.Equal("logs", logs[0].ChannelID)
}

func TestWordFilterViolation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	h := newHarness(t, fakeFilter{"x and y": {"x", "y"}})

	_, err := h.engine.RecordActivity(ctx, Activity{GuildID: "g", ChannelID: "c", UserID: "u", MessageID: "m1", Content: "hello"})
	require.NoError(t, err)
	before := h.reputation(t, "g", "u")

	h.clock.Advance(time.Second)
	words, err := h.engine.RecordActivity(ctx, Activity{GuildID: "g", ChannelID: "c", UserID: "u", MessageID: "m2", Content: "x and y"})
	require.NoError(t, err)
	assert.Equal([]string{"x", "y"}, words)

	assert.Equal(before-20, h.reputation(t, "g", "u"))

	advs, err := h.store.Advertences(ctx, "g", "u")
	require.NoError(t, err)
	require.Len(t, advs, 1)
	assert.True(advs[0].Automated)
	assert.Equal("Used forbidden word(s): x, y", advs[0].Reason)

	assert.Equal([]string{"m2"}, h.front.deleted)
	assert.Equal([]time.Duration{FilterTimeout}, h.front.timeouts)
	assert.Len(h.front.noticesOf(NoticeDirect), 1)
}

func TestWordFilterSurcharge(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	h := newHarness(t, fakeFilter{"bad": {"bad"}})
	require.NoError(t, h.store.SetGuildField(ctx, "g", ledger.FieldAdvWorth, money.Amount(500)))

	_, err := h.engine.CreateFine(ctx, "g", "u", money.Amount(10_000_000_000), "earlier")
	require.NoError(t, err)

	_, err = h.engine.RecordActivity(ctx, Activity{GuildID: "g", ChannelID: "c", UserID: "u", Content: "bad"})
	require.NoError(t, err)

	invoices, err := h.store.UnpaidInvoices(ctx, "g", "u")
	require.NoError(t, err)
	require.Len(t, invoices, 3)

	// surcharge comes before the per-advertence fine
	assert.Equal(money.Amount(100_000_000), invoices[1].Amount)
	assert.Contains(invoices[1].Reason, "1% fine increase")
	assert.Equal(money.Amount(500), invoices[2].Amount)
}

func TestWordFilterNoSurchargeWithoutDebt(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, fakeFilter{"bad": {"bad"}})

	_, err := h.engine.RecordActivity(ctx, Activity{GuildID: "g", ChannelID: "c", UserID: "u", Content: "bad"})
	require.NoError(t, err)

	total, err := h.engine.PendingTotal(ctx, "g", "u")
	require.NoError(t, err)
	assert.Equal(t, money.Amount(0), total)
}

func TestRemoveAdvertenceNewestFirst(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	h := newHarness(t, nil)

	for _, reason := range []string{"first", "second"} {
		_, err := h.engine.IssueAdvertence(ctx, Violation{GuildID: "g", UserID: "u", Reason: reason})
		require.NoError(t, err)
		h.clock.Advance(time.Minute)
	}

	require.NoError(t, h.engine.RemoveAdvertence(ctx, "g", "u", "mod"))
	advs, err := h.store.Advertences(ctx, "g", "u")
	require.NoError(t, err)
	require.Len(t, advs, 1)
	assert.Equal("first", advs[0].Reason)

	require.NoError(t, h.engine.RemoveAdvertence(ctx, "g", "u", "mod"))
	err = h.engine.RemoveAdvertence(ctx, "g", "u", "mod")
	assert.ErrorIs(err, ErrNoAdvertence)
	assert.Equal("user has no advertences", Message(err))
}

func TestExpiredAdvertencesAreNotCounted(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	configureRoles(t, h.store, "g")

	require.NoError(t, h.store.InsertAdvertence(ctx, &schemas.Advertence{GuildID: "g", UserID: "u", CreatedAt: 1}))
	_, err := h.engine.IssueAdvertence(ctx, Violation{GuildID: "g", UserID: "u"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"adv2"}, h.front.rolesOf("g", "u"))

	_, err = h.store.DeleteAdvertencesBefore(ctx, h.clock.Now().Add(-ledger.AdvertenceTTL).UnixMilli())
	require.NoError(t, err)
	require.NoError(t, h.engine.SyncRoles(ctx, "g", "u"))
	assert.ElementsMatch(t, []string{"adv1"}, h.front.rolesOf("g", "u"))
}
