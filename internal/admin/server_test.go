package admin

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"referral-bot/internal/models"
	"referral-bot/internal/store"
)

const testPassword = "hunter2"

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.ReferralLink{}, &models.Referral{}, &models.Broadcast{},
	))

	st := store.New(db, 8)
	return NewServer(st, testPassword, "testbot"), st
}

func doRequest(t *testing.T, s *Server, method, target, password, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if password != "" {
		req.Header.Set("X-Admin-Password", password)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App.Test(req)
	require.NoError(t, err)

	payload := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp, payload
}

func TestHealthIsOpen(t *testing.T) {
	s, _ := newTestServer(t)

	resp, payload := doRequest(t, s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "testbot", payload["bot"])
}

func TestAuthRequired(t *testing.T) {
	s, _ := newTestServer(t)

	resp, _ := doRequest(t, s, http.MethodGet, "/api/stats", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, s, http.MethodGet, "/api/stats", "wrong", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, s, http.MethodGet, "/api/stats", testPassword, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStats(t *testing.T) {
	s, st := newTestServer(t)

	_, err := st.GetOrCreateAccount("100", "alice")
	require.NoError(t, err)
	_, err = st.GetOrCreateAccount("200", "bob")
	require.NoError(t, err)
	link, err := st.CreateOrGetActiveLink("100")
	require.NoError(t, err)
	_, err = st.RecordRedemption("100", "200", link.Code, 10)
	require.NoError(t, err)

	resp, payload := doRequest(t, s, http.MethodGet, "/api/stats", testPassword, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, payload["total_users"])
	assert.EqualValues(t, 1, payload["total_referrals"])
	assert.EqualValues(t, 2, payload["active_users"])
}

func TestListUsers(t *testing.T) {
	s, st := newTestServer(t)

	_, err := st.GetOrCreateAccount("100", "alice")
	require.NoError(t, err)
	_, err = st.GetOrCreateAccount("200", "bob")
	require.NoError(t, err)

	resp, payload := doRequest(t, s, http.MethodGet, "/api/users", testPassword, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	users, ok := payload["users"].([]interface{})
	require.True(t, ok)
	assert.Len(t, users, 2)

	resp, payload = doRequest(t, s, http.MethodGet, "/api/users?limit=1", testPassword, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	users, ok = payload["users"].([]interface{})
	require.True(t, ok)
	assert.Len(t, users, 1)
}

func TestTopAccounts(t *testing.T) {
	s, st := newTestServer(t)

	for i, points := range []int{30, 10, 30, 0} {
		id := fmt.Sprintf("c%d", i+1)
		_, err := st.GetOrCreateAccount(id, "")
		require.NoError(t, err)
		if points > 0 {
			_, err = st.CreditPoints(id, points)
			require.NoError(t, err)
		}
	}

	resp, payload := doRequest(t, s, http.MethodGet, "/api/top?limit=2", testPassword, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	top, ok := payload["top"].([]interface{})
	require.True(t, ok)
	require.Len(t, top, 2)
	first := top[0].(map[string]interface{})
	second := top[1].(map[string]interface{})
	assert.Equal(t, "c1", first["user_id"])
	assert.Equal(t, "c3", second["user_id"])
}

func TestUserDetail(t *testing.T) {
	s, st := newTestServer(t)

	_, err := st.GetOrCreateAccount("100", "alice")
	require.NoError(t, err)
	_, err = st.GetOrCreateAccount("200", "bob")
	require.NoError(t, err)
	link, err := st.CreateOrGetActiveLink("100")
	require.NoError(t, err)
	_, err = st.RecordRedemption("100", "200", link.Code, 10)
	require.NoError(t, err)

	resp, payload := doRequest(t, s, http.MethodGet, "/api/user/100", testPassword, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "100", payload["user_id"])
	assert.Equal(t, "alice", payload["username"])
	assert.EqualValues(t, 1, payload["referral_count"])

	resp, _ = doRequest(t, s, http.MethodGet, "/api/user/nope", testPassword, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateBroadcast(t *testing.T) {
	s, st := newTestServer(t)

	resp, payload := doRequest(t, s, http.MethodPost, "/api/broadcast", testPassword, `{"text":"service notice"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "broadcast created", payload["status"])
	assert.NotEmpty(t, payload["id"])

	pending, err := st.PendingBroadcasts()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "service notice", pending[0].MessageText)

	resp, _ = doRequest(t, s, http.MethodPost, "/api/broadcast", testPassword, `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
