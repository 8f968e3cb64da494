package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lixenwraith/pixelden/catalog"
	"github.com/lixenwraith/pixelden/config"
	"github.com/lixenwraith/pixelden/store"
	"github.com/lixenwraith/pixelden/world"
)

func testServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	cfg := config.Default()
	furni, err := catalog.NewFurniture([]*catalog.FurnitureDefinition{
		{ID: "chair_basic", CanSit: true, SitFacingDir: 2, SitHeightOffset: 0.4},
	})
	require.NoError(t, err)
	emotes, err := catalog.NewEmotes(nil)
	require.NoError(t, err)
	shop, err := catalog.NewShop(nil, furni)
	require.NoError(t, err)

	mem := store.NewMemory()
	director, err := world.NewDirector(cfg, mem, furni, emotes, shop, zap.NewNop())
	require.NoError(t, err)

	s := New(cfg, mem, director, zap.NewNop())
	ts := httptest.NewServer(s.httpSrv.Handler)
	t.Cleanup(ts.Close)
	return ts, mem
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	ts, mem := testServer(t)

	resp := postJSON(t, ts.URL+"/api/register", credentials{Username: "alice", Password: "hunter22"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var reg authReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))
	require.NotEmpty(t, reg.Token)
	require.NotEmpty(t, reg.UserID)

	// The token resolves to the new account and the profile carries the
	// configured starter currency.
	userID, err := mem.LookupToken(reg.Token)
	require.NoError(t, err)
	require.Equal(t, reg.UserID, userID)
	row, err := mem.LoadUser(reg.UserID)
	require.NoError(t, err)
	require.Equal(t, config.Default().NewUserCurrency, row.Currency)
	require.NotEqual(t, "hunter22", row.PasswordHash, "password stored in the clear")

	resp = postJSON(t, ts.URL+"/api/login", credentials{Username: "alice", Password: "hunter22"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login authReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.Equal(t, reg.UserID, login.UserID)
	require.NotEqual(t, reg.Token, login.Token, "token reused across logins")
}

func TestRegisterValidation(t *testing.T) {
	ts, _ := testServer(t)

	tests := []struct {
		name string
		body credentials
		want int
	}{
		{"Short username", credentials{Username: "al", Password: "hunter22"}, http.StatusBadRequest},
		{"Short password", credentials{Username: "alice", Password: "x"}, http.StatusBadRequest},
		{"Valid", credentials{Username: "alice", Password: "hunter22"}, http.StatusCreated},
		{"Duplicate username", credentials{Username: "alice", Password: "other-pass"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/register", tt.body)
			require.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts, _ := testServer(t)
	postJSON(t, ts.URL+"/api/register", credentials{Username: "alice", Password: "hunter22"})

	resp := postJSON(t, ts.URL+"/api/login", credentials{Username: "alice", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/login", credentials{Username: "nobody", Password: "hunter22"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebsocketRequiresToken(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/ws?token=forged")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts, _ := testServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
