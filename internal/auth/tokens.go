package auth

import (
	"time"

	"example.com/fitcoach/internal/domain"
	authlib "example.com/fitcoach/pkg/platform/auth"
)

// TokenIssuer signs bearer tokens for users.
type TokenIssuer struct {
	cfg Config
	now func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(cfg Config) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// IssueToken implements domain.TokenIssuer.
func (i *TokenIssuer) IssueToken(user domain.User) (domain.Session, error) {
	token, expires, err := authlib.Issue(user.ID, string(user.Role), ScopesFor(user.Role), i.cfg, i.now().UTC())
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{Token: token, ExpiresAt: expires}, nil
}
