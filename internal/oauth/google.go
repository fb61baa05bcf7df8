// Package oauth implements Google sign-in for the API.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"example.com/fitcoach/internal/domain"
)

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	stateIssuer       = "fitcoach.oauth"
	stateTTL          = 10 * time.Minute
)

var (
	// ErrInvalidState is returned when the callback state was not issued by this server or expired.
	ErrInvalidState = errors.New("invalid oauth state")
	// ErrUnverifiedEmail is returned when the provider reports an unverified address.
	ErrUnverifiedEmail = errors.New("provider email is not verified")
)

// Config holds the Google client credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	StateSecret  string
}

// Google drives the authorization code flow against Google.
type Google struct {
	oauth       *oauth2.Config
	userInfoURL string
	stateKey    []byte
	now         func() time.Time
}

// NewGoogle constructs a Google provider with the production endpoints.
func NewGoogle(cfg Config) *Google {
	return newProvider(cfg, google.Endpoint, googleUserInfoURL)
}

func newProvider(cfg Config, endpoint oauth2.Endpoint, userInfoURL string) *Google {
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: userInfoURL,
		stateKey:    []byte(cfg.StateSecret),
		now:         time.Now,
	}
}

// AuthCodeURL returns the consent page URL together with the signed state to round-trip.
func (g *Google) AuthCodeURL() (string, string, error) {
	state, err := g.newState()
	if err != nil {
		return "", "", err
	}
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), state, nil
}

// Exchange validates state, trades the code for a token and reads the user's profile.
func (g *Google) Exchange(ctx context.Context, state, code string) (domain.OAuthProfile, error) {
	if err := g.verifyState(state); err != nil {
		return domain.OAuthProfile{}, err
	}
	if code == "" {
		return domain.OAuthProfile{}, fmt.Errorf("oauth exchange: missing code")
	}
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return domain.OAuthProfile{}, fmt.Errorf("oauth exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return domain.OAuthProfile{}, err
	}
	resp, err := g.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return domain.OAuthProfile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.OAuthProfile{}, fmt.Errorf("read userinfo: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.OAuthProfile{}, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}
	return parseUserInfo(body)
}

// parseUserInfo accepts both the OpenID (email_verified) and the legacy v2 (verified_email) shapes.
func parseUserInfo(body []byte) (domain.OAuthProfile, error) {
	if !gjson.ValidBytes(body) {
		return domain.OAuthProfile{}, fmt.Errorf("userinfo: invalid json")
	}
	info := gjson.ParseBytes(body)
	email := info.Get("email").String()
	if email == "" {
		return domain.OAuthProfile{}, fmt.Errorf("userinfo: missing email")
	}
	for _, key := range []string{"email_verified", "verified_email"} {
		if v := info.Get(key); v.Exists() && !v.Bool() {
			return domain.OAuthProfile{}, ErrUnverifiedEmail
		}
	}
	return domain.OAuthProfile{
		Provider:  "google",
		Email:     email,
		Name:      info.Get("name").String(),
		AvatarURL: info.Get("picture").String(),
	}, nil
}

func (g *Google) newState() (string, error) {
	now := g.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    stateIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.stateKey)
}

func (g *Google) verifyState(state string) error {
	if state == "" {
		return ErrInvalidState
	}
	_, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.stateKey, nil
	}, jwt.WithIssuer(stateIssuer), jwt.WithTimeFunc(g.now), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return nil
}
