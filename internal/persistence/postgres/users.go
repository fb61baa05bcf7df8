package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/fitcoach/internal/domain"
	platformevents "example.com/fitcoach/pkg/platform/events"
)

const userColumns = `user_id, email, username, full_name, avatar_url, weight, height, goal, role, is_blocked, has_seen_onboarding, provider, created_at, updated_at`

func scanUser(row scanner, extra ...any) (*domain.User, error) {
	var u domain.User
	var role string
	dest := []any{&u.ID, &u.Email, &u.Username, &u.FullName, &u.AvatarURL, &u.Weight, &u.Height, &u.Goal, &role, &u.IsBlocked, &u.HasSeenOnboarding, &u.Provider, &u.CreatedAt, &u.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func userRegistered(u domain.User) outboxEvent {
	return outboxEvent{
		EventType:   platformevents.TypeUserRegistered,
		AggregateID: u.ID,
		UserID:      u.ID,
		DedupeKey:   fmt.Sprintf("%s:%s", u.ID, platformevents.TypeUserRegistered),
		Payload: platformevents.UserRegistered{
			UserID:     u.ID,
			Email:      u.Email,
			Username:   u.Username,
			Provider:   u.Provider,
			OccurredAt: u.CreatedAt,
		},
	}
}

// CreateUser implements domain.UserRepository.
func (s *Store) CreateUser(ctx context.Context, user domain.User, passwordHash string) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO users (user_id, email, username, full_name, avatar_url, role, provider, password_hash, created_at, updated_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			user.ID, user.Email, user.Username, user.FullName, user.AvatarURL, string(user.Role), user.Provider, nullIfEmpty(passwordHash), user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return insertOutbox(ctx, tx, userRegistered(user))
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}
	return err
}

// GetUser implements domain.UserRepository.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id=$1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// GetUserByEmail implements domain.UserRepository.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, string, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+`, COALESCE(password_hash, '') FROM users WHERE email=$1`, email)
	var hash string
	u, err := scanUser(row, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return u, hash, nil
}

// UpsertOAuthUser implements domain.UserRepository. Existing accounts keep their profile but
// gain a name and avatar when they had none.
func (s *Store) UpsertOAuthUser(ctx context.Context, user domain.User) (*domain.User, bool, error) {
	var stored *domain.User
	var created bool
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO users (user_id, email, username, full_name, avatar_url, role, provider, created_at, updated_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
             ON CONFLICT (email) DO UPDATE SET
                 full_name = COALESCE(users.full_name, EXCLUDED.full_name),
                 avatar_url = COALESCE(users.avatar_url, EXCLUDED.avatar_url),
                 updated_at = EXCLUDED.updated_at
             RETURNING `+userColumns+`, (xmax = 0)`,
			user.ID, user.Email, user.Username, user.FullName, user.AvatarURL, string(user.Role), user.Provider, user.CreatedAt, user.UpdatedAt,
		)
		var err error
		stored, err = scanUser(row, &created)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}
		return insertOutbox(ctx, tx, userRegistered(*stored))
	})
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// UpdateProfile implements domain.UserRepository.
func (s *Store) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate, now time.Time) (*domain.User, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE users SET
             username = COALESCE($2, username),
             full_name = COALESCE($3, full_name),
             avatar_url = COALESCE($4, avatar_url),
             weight = COALESCE($5, weight),
             height = COALESCE($6, height),
             goal = COALESCE($7, goal),
             updated_at = $8
         WHERE user_id = $1
         RETURNING `+userColumns,
		id, update.Username, update.FullName, update.AvatarURL, update.Weight, update.Height, update.Goal, now,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// UpdateUserByAdmin implements domain.UserRepository.
func (s *Store) UpdateUserByAdmin(ctx context.Context, id string, update domain.AdminUserUpdate, now time.Time) (*domain.User, error) {
	var role *string
	if update.Role != nil {
		r := string(*update.Role)
		role = &r
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE users SET
             username = COALESCE($2, username),
             full_name = COALESCE($3, full_name),
             role = COALESCE($4, role),
             is_blocked = COALESCE($5, is_blocked),
             updated_at = $6
         WHERE user_id = $1
         RETURNING `+userColumns,
		id, update.Username, update.FullName, role, update.IsBlocked, now,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// DeleteUser implements domain.UserRepository.
func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE user_id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListUsers implements domain.UserRepository.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetPasswordHash implements domain.UserRepository.
func (s *Store) SetPasswordHash(ctx context.Context, id, hash string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash=$2, updated_at=$3 WHERE user_id=$1`, id, hash, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetOnboardingSeen implements domain.UserRepository.
func (s *Store) SetOnboardingSeen(ctx context.Context, id string, seen bool, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET has_seen_onboarding=$2, updated_at=$3 WHERE user_id=$1`, id, seen, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetAuthors implements domain.UserRepository.
func (s *Store) GetAuthors(ctx context.Context, ids []string) (map[string]domain.Author, error) {
	out := make(map[string]domain.Author, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT user_id, username, avatar_url, role FROM users WHERE user_id::text = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a domain.Author
		var role string
		if err := rows.Scan(&a.ID, &a.Username, &a.AvatarURL, &role); err != nil {
			return nil, err
		}
		a.Role = domain.Role(role)
		out[a.ID] = a
	}
	return out, rows.Err()
}

// CreateResetToken implements domain.ResetTokenRepository.
func (s *Store) CreateResetToken(ctx context.Context, token domain.ResetToken) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO password_reset_tokens (token_hash, user_id, expires_at, created_at) VALUES ($1,$2,$3,$4)`,
		token.TokenHash, token.UserID, token.ExpiresAt, token.CreatedAt,
	)
	return err
}

// ConsumeResetToken implements domain.ResetTokenRepository. The token is deleted whether or
// not it has expired.
func (s *Store) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var userID string
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx,
		`DELETE FROM password_reset_tokens WHERE token_hash=$1 RETURNING user_id::text, expires_at`, tokenHash,
	).Scan(&userID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !expiresAt.After(now) {
		return "", nil
	}
	return userID, nil
}

// PurgeExpiredResetTokens implements domain.ResetTokenRepository.
func (s *Store) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM password_reset_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
