package discordbot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"coinmod/modules/moderation"
	"coinmod/modules/money"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/api/cmdroute"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/utils/httputil"
	"github.com/diamondburned/arikawa/v3/utils/json"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	method string
	path   string
}

func newTestFrontend(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Frontend, func() []recordedCall) {
	t.Helper()

	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, recordedCall{method: r.Method, path: r.URL.Path})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	prev := api.EndpointGuilds
	api.EndpointGuilds = srv.URL + "/guilds/"
	t.Cleanup(func() { api.EndpointGuilds = prev })

	f := NewFrontend(state.New("Bot test-token"), cache.New(cache.NoExpiration, 0))
	return f, func() []recordedCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedCall(nil), calls...)
	}
}

func TestApplyRoleDeltaAttemptsEveryRole(t *testing.T) {
	assert := assert.New(t)

	f, calls := newTestFrontend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && r.URL.Path == "/guilds/1/members/2/roles/111" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"code": 50013, "message": "Missing Permissions"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	err := f.ApplyRoleDelta(context.Background(), "1", "2", []string{"111", "333"}, []string{"222"})
	require.Error(t, err)

	var httpErr *httputil.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(http.StatusForbidden, httpErr.Status)
	assert.Contains(err.Error(), "remove role 111")
	assert.NotContains(err.Error(), "role 333")
	assert.NotContains(err.Error(), "role 222")

	assert.Equal([]recordedCall{
		{http.MethodDelete, "/guilds/1/members/2/roles/111"},
		{http.MethodDelete, "/guilds/1/members/2/roles/333"},
		{http.MethodPut, "/guilds/1/members/2/roles/222"},
	}, calls())
}

func TestApplyRoleDeltaJoinsFailures(t *testing.T) {
	assert := assert.New(t)

	f, calls := newTestFrontend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := f.ApplyRoleDelta(context.Background(), "1", "2", []string{"111"}, []string{"222"})
	require.Error(t, err)
	assert.Contains(err.Error(), "remove role 111")
	assert.Contains(err.Error(), "add role 222")
	assert.Len(calls(), 2)
}

func TestApplyRoleDeltaSucceeds(t *testing.T) {
	f, calls := newTestFrontend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, f.ApplyRoleDelta(context.Background(), "1", "2", nil, []string{"222"}))
	assert.Equal(t, []recordedCall{{http.MethodPut, "/guilds/1/members/2/roles/222"}}, calls())
}

func amountData(name, raw string) cmdroute.CommandData {
	return cmdroute.CommandData{
		CommandInteractionOption: discord.CommandInteractionOption{
			Options: discord.CommandInteractionOptions{
				{Name: name, Type: discord.NumberOptionType, Value: json.Raw(raw)},
			},
		},
	}
}

func TestOptionAmount(t *testing.T) {
	assert := assert.New(t)

	a, err := optionAmount(amountData("amount", "12.345678919"), "amount")
	require.NoError(t, err)
	want, err := money.Parse("12.34567891")
	require.NoError(t, err)
	assert.Equal(want, a)

	_, err = optionAmount(amountData("amount", "2"), "value")
	assert.ErrorIs(err, errMissingOption)

	for _, raw := range []string{"2e11", "1e12", "-2e11"} {
		_, err = optionAmount(amountData("amount", raw), "amount")
		assert.ErrorIs(err, moderation.ErrAmountTooLarge, raw)
		assert.ErrorIs(err, moderation.ErrValidation, raw)
	}
}
