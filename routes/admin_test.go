package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"coinmod/modules/maintenance"
	"coinmod/modules/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModerator struct {
	standing *moderation.Standing
	err      error
	unbanned []string
}

func (f *fakeModerator) Standing(_ context.Context, guildID, userID string) (*moderation.Standing, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := *f.standing
	s.GuildID, s.UserID = guildID, userID
	return &s, nil
}

func (f *fakeModerator) StaffUnban(_ context.Context, guildID, userID, actorID string) error {
	if f.err != nil {
		return f.err
	}
	f.unbanned = append(f.unbanned, guildID+":"+userID+":"+actorID)
	return nil
}

type fakeMaintainer struct {
	result maintenance.Result
}

func (f fakeMaintainer) Run(context.Context) (maintenance.Result, error) {
	return f.result, nil
}

func do(t *testing.T, h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdminRequiresToken(t *testing.T) {
	h := NewRouter(&fakeModerator{}, fakeMaintainer{}, Options{AdminToken: "secret"})

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/admin/maintenance", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/admin/maintenance", "wrong").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/admin/maintenance", "secret").Code)
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	h := NewRouter(&fakeModerator{}, fakeMaintainer{}, Options{})
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/admin/maintenance", "").Code)
}

func TestGetStanding(t *testing.T) {
	assert := assert.New(t)
	mod := &fakeModerator{standing: &moderation.Standing{Reputation: 12, Tier: "tier1", Pending: "0.5"}}
	h := NewRouter(mod, fakeMaintainer{}, Options{AdminToken: "secret"})

	rec := do(t, h, http.MethodGet, "/api/admin/guilds/g1/users/u1", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal("application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal("g1", body["guildID"])
	assert.Equal("u1", body["userID"])
	assert.Equal(float64(12), body["reputation"])
	assert.Equal("0.5", body["pendingFines"])
}

func TestStandingErrors(t *testing.T) {
	for _, tc := range []struct {
		err  error
		code int
	}{
		{moderation.ErrUnknownUser, http.StatusNotFound},
		{moderation.ErrSettlementInProgress, http.StatusConflict},
		{moderation.ErrValidation, http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	} {
		h := NewRouter(&fakeModerator{err: tc.err}, fakeMaintainer{}, Options{AdminToken: "secret"})
		rec := do(t, h, http.MethodGet, "/api/admin/guilds/g/users/u", "secret")
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestUnban(t *testing.T) {
	mod := &fakeModerator{}
	h := NewRouter(mod, fakeMaintainer{}, Options{AdminToken: "secret"})

	rec := do(t, h, http.MethodPost, "/api/admin/guilds/g/users/u/unban", "secret")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"g:u:" + AdminActor}, mod.unbanned)
}

func TestRunMaintenance(t *testing.T) {
	assert := assert.New(t)

	h := NewRouter(&fakeModerator{}, fakeMaintainer{result: maintenance.Result{ExpiredAdvertences: 3, Synced: 2}}, Options{AdminToken: "secret"})
	rec := do(t, h, http.MethodPost, "/api/admin/maintenance", "secret")
	require.Equal(t, http.StatusOK, rec.Code)

	var result maintenance.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(int64(3), result.ExpiredAdvertences)
	assert.Equal(2, result.Synced)

	h = NewRouter(&fakeModerator{}, fakeMaintainer{result: maintenance.Result{Skipped: true}}, Options{AdminToken: "secret"})
	assert.Equal(http.StatusConflict, do(t, h, http.MethodPost, "/api/admin/maintenance", "secret").Code)
}

func TestHealth(t *testing.T) {
	h := NewRouter(&fakeModerator{}, fakeMaintainer{}, Options{})
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)

	h = NewRouter(&fakeModerator{}, fakeMaintainer{}, Options{Health: func(context.Context) error { return errors.New("down") }})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/healthz", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewRouter(&fakeModerator{}, fakeMaintainer{}, Options{})
	do(t, h, http.MethodGet, "/healthz", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "coinmod_http_requests_total")
}
