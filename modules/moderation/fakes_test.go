package moderation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coinmod/modules/ledger"
	"coinmod/modules/ledger/ledgertest"
	"coinmod/modules/money"
	"coinmod/modules/payments"

	"golang.org/x/exp/slices"
)

type fakeFrontend struct {
	mu       sync.Mutex
	roles    map[string][]string
	notices  []Notice
	timeouts []time.Duration
	banned   []string
	unbanned []string
	deleted  []string
	failAll  bool
}

func newFakeFrontend() *fakeFrontend {
	return &fakeFrontend{roles: map[string][]string{}}
}

var errFrontendDown = errors.New("frontend down")

func (f *fakeFrontend) Notify(ctx context.Context, n Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errFrontendDown
	}
	f.notices = append(f.notices, n)
	return nil
}

func (f *fakeFrontend) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errFrontendDown
	}
	return slices.Clone(f.roles[guildID+":"+userID]), nil
}

func (f *fakeFrontend) ApplyRoleDelta(ctx context.Context, guildID, userID string, remove, add []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errFrontendDown
	}
	key := guildID + ":" + userID
	var kept []string
	for _, id := range f.roles[key] {
		if !slices.Contains(remove, id) {
			kept = append(kept, id)
		}
	}
	f.roles[key] = append(kept, add...)
	return nil
}

func (f *fakeFrontend) ApplyTimeout(ctx context.Context, guildID, userID string, d time.Duration, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errFrontendDown
	}
	f.timeouts = append(f.timeouts, d)
	return nil
}

func (f *fakeFrontend) PerformBan(ctx context.Context, guildID, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errFrontendDown
	}
	f.banned = append(f.banned, userID)
	return nil
}

func (f *fakeFrontend) LiftBan(ctx context.Context, guildID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errFrontendDown
	}
	f.unbanned = append(f.unbanned, userID)
	return nil
}

func (f *fakeFrontend) DeleteMessage(ctx context.Context, channelID, messageID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errFrontendDown
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeFrontend) GuildName(ctx context.Context, guildID string) (string, error) {
	return "Test Guild", nil
}

func (f *fakeFrontend) rolesOf(guildID, userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.roles[guildID+":"+userID])
}

func (f *fakeFrontend) noticesOf(kind NoticeKind) []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Notice
	for _, n := range f.notices {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type fakeGateway struct {
	mu    sync.Mutex
	calls []payments.Request
	err   error
	// runs inside Pay, before the result is returned
	during func()
}

func (g *fakeGateway) Pay(ctx context.Context, req payments.Request) error {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	during, err := g.during, g.err
	g.mu.Unlock()

	if during != nil {
		during()
	}
	return err
}

type fakeFilter map[string][]string

func (f fakeFilter) Match(ctx context.Context, guildID, content string) ([]string, error) {
	return f[content], nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	engine *Engine
	store  *ledger.Store
	front  *fakeFrontend
	gw     *fakeGateway
	clock  *fakeClock
}

func newHarness(t *testing.T, filter WordFilter) *harness {
	h := &harness{
		store: ledgertest.New(t),
		front: newFakeFrontend(),
		gw:    &fakeGateway{},
		clock: &fakeClock{now: time.UnixMilli(1_700_000_000_000)},
	}
	h.engine = New(h.store, h.front, h.gw, Options{
		Filter: filter,
		Clock:  h.clock.Now,
	})
	return h
}

func (h *harness) user(t *testing.T, guildID, userID string, reputation int) {
	t.Helper()
	ctx := context.Background()
	if err := h.store.EnsureUser(ctx, guildID, userID, h.clock.Now().UnixMilli()); err != nil {
		t.Fatal(err)
	}
	if _, err := h.store.AddReputation(ctx, guildID, userID, reputation); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) reputation(t *testing.T, guildID, userID string) int {
	t.Helper()
	rep, err := h.engine.Reputation(context.Background(), guildID, userID)
	if err != nil {
		t.Fatal(err)
	}
	return rep
}

func coins(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := money.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return a
}
