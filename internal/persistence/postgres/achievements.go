package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"example.com/fitcoach/internal/domain"
	platformevents "example.com/fitcoach/pkg/platform/events"
)

// ListAchievements implements domain.AchievementRepository.
func (s *Store) ListAchievements(ctx context.Context) ([]domain.Achievement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT achievement_id, title, description, icon, required_value, type, created_at
         FROM achievements ORDER BY type, required_value`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Achievement, 0)
	for rows.Next() {
		var a domain.Achievement
		var kind string
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Icon, &a.RequiredValue, &kind, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Type = domain.AchievementType(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertAchievement implements domain.AchievementRepository. Titles identify catalog entries.
func (s *Store) UpsertAchievement(ctx context.Context, a domain.Achievement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO achievements (achievement_id, title, description, icon, required_value, type, created_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7)
         ON CONFLICT (title) DO UPDATE SET description=EXCLUDED.description, icon=EXCLUDED.icon,
             required_value=EXCLUDED.required_value, type=EXCLUDED.type`,
		a.ID, a.Title, a.Description, a.Icon, a.RequiredValue, string(a.Type), a.CreatedAt,
	)
	return err
}

// ListUserAchievements implements domain.AchievementRepository.
func (s *Store) ListUserAchievements(ctx context.Context, userID string) ([]domain.UserAchievement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ua.user_achievement_id, ua.user_id, ua.achievement_id, ua.progress, ua.completed, ua.completed_at,
                a.achievement_id, a.title, a.description, a.icon, a.required_value, a.type, a.created_at
         FROM user_achievements ua JOIN achievements a ON a.achievement_id = ua.achievement_id
         WHERE ua.user_id=$1 ORDER BY a.type, a.required_value`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.UserAchievement, 0)
	for rows.Next() {
		var ua domain.UserAchievement
		var kind string
		if err := rows.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &ua.Progress, &ua.Completed, &ua.CompletedAt,
			&ua.Achievement.ID, &ua.Achievement.Title, &ua.Achievement.Description, &ua.Achievement.Icon,
			&ua.Achievement.RequiredValue, &kind, &ua.Achievement.CreatedAt); err != nil {
			return nil, err
		}
		ua.Achievement.Type = domain.AchievementType(kind)
		out = append(out, ua)
	}
	return out, rows.Err()
}

// SaveUserAchievements implements domain.AchievementRepository. Each unlocked achievement
// records one achievement.unlocked event; the dedupe key keeps replays from emitting twice.
func (s *Store) SaveUserAchievements(ctx context.Context, userID string, updated []domain.UserAchievement, unlocked []domain.UserAchievement, now time.Time) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		for _, ua := range updated {
			id := ua.ID
			if id == "" {
				id = uuid.NewString()
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_achievements (user_achievement_id, user_id, achievement_id, progress, completed, completed_at, updated_at)
                 VALUES ($1,$2,$3,$4,$5,$6,$7)
                 ON CONFLICT (user_id, achievement_id) DO UPDATE SET
                     progress = EXCLUDED.progress,
                     completed = user_achievements.completed OR EXCLUDED.completed,
                     completed_at = COALESCE(user_achievements.completed_at, EXCLUDED.completed_at),
                     updated_at = EXCLUDED.updated_at`,
				id, userID, ua.AchievementID, ua.Progress, ua.Completed, ua.CompletedAt, now,
			); err != nil {
				return err
			}
		}
		for _, ua := range unlocked {
			if err := insertOutbox(ctx, tx, outboxEvent{
				EventType:   platformevents.TypeAchievementUnlocked,
				AggregateID: ua.AchievementID,
				UserID:      userID,
				DedupeKey:   fmt.Sprintf("%s:%s:%s", userID, ua.AchievementID, platformevents.TypeAchievementUnlocked),
				Payload: platformevents.AchievementUnlocked{
					UserID:        userID,
					AchievementID: ua.AchievementID,
					Title:         ua.Achievement.Title,
					OccurredAt:    now,
				},
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
