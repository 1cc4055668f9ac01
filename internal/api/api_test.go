package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/trailquest/internal/calendar"
	"github.com/abhisek/trailquest/internal/engine"
	"github.com/abhisek/trailquest/internal/progression"
	"github.com/abhisek/trailquest/internal/rewards"
	"github.com/abhisek/trailquest/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	s, err := store.Open(store.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Catalog().UpsertModule(context.Background(), store.Module{
		ID:      "m1",
		Title:   "Intro",
		Version: "v1.0.0",
		Bonus:   rewards.Amount{XP: 40, Coins: 4},
		Phases: []progression.Phase{
			{ID: "p0", OrderIndex: 0, Kind: progression.KindVideo, Title: "Watch", XP: 10, Coins: 1},
			{ID: "p1", OrderIndex: 1, Kind: progression.KindQuiz, Title: "Quiz", XP: 20, Coins: 2},
		},
	}))

	clock := &calendar.FixedClock{At: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), Location: time.UTC}
	return NewServer(":0", engine.New(s, clock), nil).Handler()
}

func do(t *testing.T, h http.Handler, method, path, user, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t)
	rec, _ := do(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRequiresUser(t *testing.T) {
	h := newTestServer(t)
	rec, body := do(t, h, http.MethodGet, "/api/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorCode(body))
}

func TestListModulesAndReward(t *testing.T) {
	h := newTestServer(t)

	rec, body := do(t, h, http.MethodGet, "/api/modules", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	modules := body["modules"].([]any)
	require.Len(t, modules, 1)
	assert.Equal(t, "m1", modules[0].(map[string]any)["id"])

	rec, body = do(t, h, http.MethodGet, "/api/modules/m1/reward", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	reward := body["reward"].(map[string]any)
	assert.EqualValues(t, 70, reward["xp"])
	assert.EqualValues(t, 7, reward["coins"])

	rec, body = do(t, h, http.MethodGet, "/api/modules/nope/reward", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(body))
}

func TestTrailAndLocks(t *testing.T) {
	h := newTestServer(t)

	rec, body := do(t, h, http.MethodGet, "/api/modules/m1/trail", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	phases := body["phases"].([]any)
	require.Len(t, phases, 2)
	assert.Equal(t, false, phases[0].(map[string]any)["is_locked"])
	assert.Equal(t, true, phases[1].(map[string]any)["is_locked"])
	assert.Equal(t, "Quiz", phases[1].(map[string]any)["title"])

	rec, body = do(t, h, http.MethodPost, "/api/phases/p1/start", "u1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "phase_locked", errorCode(body))

	rec, body = do(t, h, http.MethodPost, "/api/phases/ghost/start", "u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown_phase", errorCode(body))
}

func TestCompleteAndClaim(t *testing.T) {
	h := newTestServer(t)

	rec, body := do(t, h, http.MethodPost, "/api/modules/m1/claim", "u1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "module_incomplete", errorCode(body))

	rec, body = do(t, h, http.MethodPost, "/api/phases/p0/complete", "u1", `{"rating": 9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_rating", errorCode(body))

	rec, _ = do(t, h, http.MethodPost, "/api/phases/p0/complete", "u1", `{"rating": 4}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, h, http.MethodPost, "/api/phases/p1/complete", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["module_complete"])
	assert.EqualValues(t, 100, body["progress"])
	assert.EqualValues(t, 70, body["reward_preview"].(map[string]any)["xp"])

	rec, body = do(t, h, http.MethodPost, "/api/modules/m1/claim", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "granted", body["status"])
	ticketID, _ := body["ticket_id"].(string)
	_, err := uuid.Parse(ticketID)
	assert.NoError(t, err, "ticket_id %q", ticketID)
	assert.EqualValues(t, 70, body["totals"].(map[string]any)["xp"])

	rec, body = do(t, h, http.MethodPost, "/api/modules/m1/claim", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already_granted", body["status"])
	assert.Nil(t, body["totals"])

	rec, body = do(t, h, http.MethodGet, "/api/profile", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 70, body["totals"].(map[string]any)["xp"])
}

func TestDailyBonusAndLoginTick(t *testing.T) {
	h := newTestServer(t)

	rec, body := do(t, h, http.MethodPost, "/api/login-tick", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["streak"])
	assert.Equal(t, "2026-10-19", body["last_login"])
	assert.Equal(t, true, body["changed"])

	rec, body = do(t, h, http.MethodPost, "/api/login-tick", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["changed"])

	rec, body = do(t, h, http.MethodPost, "/api/daily-bonus/claim", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "granted", body["status"])
	assert.Equal(t, "u1/daily_bonus/daily@2026-10-19", body["key"])

	rec, body = do(t, h, http.MethodPost, "/api/daily-bonus/claim", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already_granted", body["status"])

	rec, body = do(t, h, http.MethodGet, "/api/profile", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["streak_days"])
	assert.EqualValues(t, 3, body["next_milestone"])
	assert.Equal(t, []any{}, body["badges"])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&progression.ErrPhaseLocked{PhaseID: "b", BlockedBy: "a"}, http.StatusConflict, "phase_locked"},
		{fmt.Errorf("wrap: %w", &engine.ErrModuleIncomplete{ModuleID: "m"}), http.StatusConflict, "module_incomplete"},
		{&progression.ErrInvalidOrdering{ModuleID: "m"}, http.StatusInternalServerError, "invalid_ordering"},
		{fmt.Errorf("module: %w", store.ErrNotFound), http.StatusNotFound, "not_found"},
		{&store.ErrTransient{Op: "insert", Err: errors.New("database is locked")}, http.StatusServiceUnavailable, "unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestTransientIsRetryable(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondError(c, http.StatusServiceUnavailable, "unavailable", errors.New("busy"))

	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Error.Retryable)
}
