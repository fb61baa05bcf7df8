package domain

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// CaptchaVerifier checks a human-verification answer. Answers are single use.
type CaptchaVerifier interface {
	Verify(ctx context.Context, id, answer string) (bool, error)
}

// Session is an issued bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// TokenIssuer signs sessions for users.
type TokenIssuer interface {
	IssueToken(user User) (Session, error)
}

// ResetMailer delivers password reset links.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, to, username, link string) error
}

// AuthResult is returned by every successful sign-in path.
type AuthResult struct {
	User    User
	Session Session
}

// OAuthProfile is the identity asserted by an external provider.
type OAuthProfile struct {
	Provider  string
	Email     string
	Name      string
	AvatarURL string
}

// AccountOptions tunes the account workflows.
type AccountOptions struct {
	ResetBaseURL string
	ResetTTL     time.Duration
}

// AccountService orchestrates registration, sign-in, profiles and user administration.
type AccountService struct {
	users   UserRepository
	resets  ResetTokenRepository
	hasher  PasswordHasher
	captcha CaptchaVerifier
	issuer  TokenIssuer
	mailer  ResetMailer
	opts    AccountOptions
}

// NewAccountService constructs an AccountService.
func NewAccountService(users UserRepository, resets ResetTokenRepository, hasher PasswordHasher, captcha CaptchaVerifier, issuer TokenIssuer, mailer ResetMailer, opts AccountOptions) *AccountService {
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	return &AccountService{users: users, resets: resets, hasher: hasher, captcha: captcha, issuer: issuer, mailer: mailer, opts: opts}
}

func (s *AccountService) verifyCaptcha(ctx context.Context, id, answer string) error {
	ok, err := s.captcha.Verify(ctx, id, answer)
	if err != nil {
		return fmt.Errorf("verify captcha: %w", err)
	}
	if !ok {
		return ErrCaptchaFailed
	}
	return nil
}

// Register creates a password account after validating the form and the captcha.
func (s *AccountService) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	if err := s.verifyCaptcha(ctx, reg.CaptchaID, reg.CaptchaAnswer); err != nil {
		return nil, err
	}

	email := NormalizeEmail(reg.Email)
	existing, _, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := User{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  strings.TrimSpace(reg.Username),
		Role:      RoleUser,
		Provider:  "password",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.CreateUser(ctx, user, hash); err != nil {
		return nil, err
	}
	return s.session(user)
}

// Login verifies the captcha and the credentials and issues a session.
func (s *AccountService) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if err := s.verifyCaptcha(ctx, creds.CaptchaID, creds.CaptchaAnswer); err != nil {
		return nil, err
	}

	user, hash, err := s.users.GetUserByEmail(ctx, NormalizeEmail(creds.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || hash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(hash, creds.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsBlocked {
		return nil, ErrAccountBlocked
	}
	return s.session(*user)
}

// SignInOAuth upserts the account for an externally verified identity and issues a session.
func (s *AccountService) SignInOAuth(ctx context.Context, profile OAuthProfile) (*AuthResult, bool, error) {
	email := NormalizeEmail(profile.Email)
	if email == "" {
		return nil, false, invalid("email", "provider returned no email")
	}
	username := strings.TrimSpace(profile.Name)
	if len([]rune(username)) < 3 {
		username = strings.SplitN(email, "@", 2)[0]
	}

	now := time.Now().UTC()
	candidate := User{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  username,
		Role:      RoleUser,
		Provider:  profile.Provider,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if profile.Name != "" {
		name := profile.Name
		candidate.FullName = &name
	}
	if profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		candidate.AvatarURL = &avatar
	}

	user, created, err := s.users.UpsertOAuthUser(ctx, candidate)
	if err != nil {
		return nil, false, err
	}
	if user.IsBlocked {
		return nil, false, ErrAccountBlocked
	}
	result, err := s.session(*user)
	return result, created, err
}

func (s *AccountService) session(user User) (*AuthResult, error) {
	session, err := s.issuer.IssueToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: user, Session: session}, nil
}

// RequestPasswordReset emails a single-use reset link. Unknown emails succeed silently.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	user, _, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil || user.IsBlocked {
		return nil
	}

	raw, err := newResetToken()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := s.resets.CreateResetToken(ctx, ResetToken{
		TokenHash: HashResetToken(raw),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.opts.ResetTTL),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.opts.ResetBaseURL, "/"), raw)
	return s.mailer.SendPasswordReset(ctx, user.Email, user.Username, link)
}

// ConfirmPasswordReset consumes the token and replaces the password.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidResetToken
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	now := time.Now().UTC()
	userID, err := s.resets.ConsumeResetToken(ctx, HashResetToken(token), now)
	if err != nil {
		return err
	}
	if userID == "" {
		return ErrInvalidResetToken
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	return s.users.SetPasswordHash(ctx, userID, hash, now)
}

// PurgeExpiredResetTokens deletes expired reset tokens.
func (s *AccountService) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	return s.resets.PurgeExpiredResetTokens(ctx, time.Now().UTC())
}

// HashResetToken returns the stored form of a raw reset token.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Profile returns the user's own profile.
func (s *AccountService) Profile(ctx context.Context, userID string) (*User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateProfile applies a self-service profile change.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	if update.Username != nil {
		trimmed := strings.TrimSpace(*update.Username)
		update.Username = &trimmed
	}
	user, err := s.users.UpdateProfile(ctx, userID, update, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// SetOnboardingSeen records whether the onboarding screens were shown.
func (s *AccountService) SetOnboardingSeen(ctx context.Context, userID string, seen bool) error {
	return s.users.SetOnboardingSeen(ctx, userID, seen, time.Now().UTC())
}

// ListUsers returns accounts matching f for the admin table.
func (s *AccountService) ListUsers(ctx context.Context, f UserFilter) ([]User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return FilterUsers(users, f), nil
}

// UpdateUser applies an admin edit. Admins cannot demote or block themselves.
func (s *AccountService) UpdateUser(ctx context.Context, actorID, targetID string, update AdminUserUpdate) (*User, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	if actorID == targetID {
		if update.Role != nil && *update.Role != RoleAdmin {
			return nil, fmt.Errorf("%w: cannot change own role", ErrForbidden)
		}
		if update.IsBlocked != nil && *update.IsBlocked {
			return nil, fmt.Errorf("%w: cannot block own account", ErrForbidden)
		}
	}
	user, err := s.users.UpdateUserByAdmin(ctx, targetID, update, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// SetRole changes a user's role.
func (s *AccountService) SetRole(ctx context.Context, actorID, targetID string, role Role) (*User, error) {
	return s.UpdateUser(ctx, actorID, targetID, AdminUserUpdate{Role: &role})
}

// SetBlocked blocks or unblocks a user.
func (s *AccountService) SetBlocked(ctx context.Context, actorID, targetID string, blocked bool) (*User, error) {
	return s.UpdateUser(ctx, actorID, targetID, AdminUserUpdate{IsBlocked: &blocked})
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *AccountService) DeleteUser(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return fmt.Errorf("%w: cannot delete own account", ErrForbidden)
	}
	deleted, err := s.users.DeleteUser(ctx, targetID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
