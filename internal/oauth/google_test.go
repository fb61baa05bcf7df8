package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestProvider(t *testing.T, userinfo string) *Google {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(userinfo))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return newProvider(Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		StateSecret:  "state-secret",
	}, oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}, srv.URL+"/userinfo")
}

func TestAuthCodeURLCarriesState(t *testing.T) {
	g := newTestProvider(t, `{}`)

	raw, state, err := g.AuthCodeURL()
	require.NoError(t, err)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, state, parsed.Query().Get("state"))
	require.Equal(t, "client", parsed.Query().Get("client_id"))
	require.Contains(t, parsed.Query().Get("scope"), "email")
}

func TestExchangeReturnsProfile(t *testing.T) {
	g := newTestProvider(t, `{"email":"anna@example.com","email_verified":true,"name":"Anna Petrova","picture":"https://img/anna.png"}`)
	_, state, err := g.AuthCodeURL()
	require.NoError(t, err)

	profile, err := g.Exchange(context.Background(), state, "good-code")
	require.NoError(t, err)
	require.Equal(t, "google", profile.Provider)
	require.Equal(t, "anna@example.com", profile.Email)
	require.Equal(t, "Anna Petrova", profile.Name)
	require.Equal(t, "https://img/anna.png", profile.AvatarURL)
}

func TestExchangeRejectsForeignState(t *testing.T) {
	g := newTestProvider(t, `{"email":"anna@example.com"}`)
	other := newTestProvider(t, `{}`)
	other.stateKey = []byte("another-secret")
	_, state, err := other.AuthCodeURL()
	require.NoError(t, err)

	_, err = g.Exchange(context.Background(), state, "good-code")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestExchangeRejectsExpiredState(t *testing.T) {
	g := newTestProvider(t, `{"email":"anna@example.com"}`)
	_, state, err := g.AuthCodeURL()
	require.NoError(t, err)

	g.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = g.Exchange(context.Background(), state, "good-code")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestExchangeBadCode(t *testing.T) {
	g := newTestProvider(t, `{"email":"anna@example.com"}`)
	_, state, err := g.AuthCodeURL()
	require.NoError(t, err)

	_, err = g.Exchange(context.Background(), state, "bad-code")
	require.Error(t, err)
}

func TestParseUserInfo(t *testing.T) {
	_, err := parseUserInfo([]byte(`{"email":"a@example.com","verified_email":false}`))
	require.ErrorIs(t, err, ErrUnverifiedEmail)

	_, err = parseUserInfo([]byte(`{"name":"no email"}`))
	require.Error(t, err)

	_, err = parseUserInfo([]byte(`not json`))
	require.Error(t, err)

	profile, err := parseUserInfo([]byte(`{"email":"a@example.com"}`))
	require.NoError(t, err)
	require.Empty(t, profile.Name)
}
