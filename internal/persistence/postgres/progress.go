package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"example.com/fitcoach/internal/domain"
	platformevents "example.com/fitcoach/pkg/platform/events"
)

const progressSelect = `SELECT p.progress_id, p.user_id, p.course_id, p.completed, p.current_day, p.completed_workouts, p.completed_exercises,
        COALESCE(c.title, ''), COALESCE(c.duration, 0), p.created_at, p.updated_at
    FROM user_progress p LEFT JOIN courses c ON c.course_id = p.course_id`

func scanProgress(row scanner) (*domain.Progress, error) {
	var p domain.Progress
	if err := row.Scan(&p.ID, &p.UserID, &p.CourseID, &p.Completed, &p.CurrentDay, &p.CompletedWorkouts, &p.CompletedExercises, &p.CourseTitle, &p.CourseDuration, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func getProgressTx(ctx context.Context, q querier, userID, courseID string) (*domain.Progress, error) {
	p, err := scanProgress(q.QueryRow(ctx, progressSelect+` WHERE p.user_id=$1 AND p.course_id=$2`, userID, courseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func courseCompleted(p domain.Progress, now time.Time) outboxEvent {
	return outboxEvent{
		EventType:   platformevents.TypeCourseCompleted,
		AggregateID: p.CourseID,
		UserID:      p.UserID,
		Payload: platformevents.CourseCompleted{
			UserID:      p.UserID,
			CourseID:    p.CourseID,
			DurationDay: p.CourseDuration,
			OccurredAt:  now,
		},
	}
}

// Enroll implements domain.ProgressRepository. The enrollment and the progress row are
// created together.
func (s *Store) Enroll(ctx context.Context, userID, courseID string, now time.Time) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_courses (user_id, course_id, is_active, enrolled_at) VALUES ($1,$2,TRUE,$3)`,
			userID, courseID, now,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_progress (progress_id, user_id, course_id, completed, current_day, created_at, updated_at)
             VALUES ($1,$2,$3,FALSE,1,$4,$4)`,
			uuid.NewString(), userID, courseID, now,
		); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, outboxEvent{
			EventType:   platformevents.TypeCourseEnrolled,
			AggregateID: courseID,
			UserID:      userID,
			DedupeKey:   fmt.Sprintf("%s:%s:%s", userID, courseID, platformevents.TypeCourseEnrolled),
			Payload:     platformevents.CourseEnrolled{UserID: userID, CourseID: courseID, OccurredAt: now},
		})
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: already enrolled", domain.ErrConflict)
	}
	return err
}

// IsEnrolled implements domain.ProgressRepository.
func (s *Store) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_courses WHERE user_id=$1 AND course_id=$2 AND is_active)`, userID, courseID,
	).Scan(&exists)
	return exists, err
}

// GetProgress implements domain.ProgressRepository.
func (s *Store) GetProgress(ctx context.Context, userID, courseID string) (*domain.Progress, error) {
	return getProgressTx(ctx, s.pool, userID, courseID)
}

// SetCompleted implements domain.ProgressRepository. Flipping to completed records a
// course.completed event.
func (s *Store) SetCompleted(ctx context.Context, userID, courseID string, completed bool, now time.Time) (*domain.Progress, error) {
	var out *domain.Progress
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		before, err := getProgressTx(ctx, tx, userID, courseID)
		if err != nil || before == nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE user_progress SET completed=$3, updated_at=$4 WHERE user_id=$1 AND course_id=$2`,
			userID, courseID, completed, now,
		); err != nil {
			return err
		}
		out, err = getProgressTx(ctx, tx, userID, courseID)
		if err != nil {
			return err
		}
		if completed && !before.Completed {
			return insertOutbox(ctx, tx, courseCompleted(*out, now))
		}
		return nil
	})
	return out, err
}

// RecordWorkoutCompletion implements domain.ProgressRepository.
func (s *Store) RecordWorkoutCompletion(ctx context.Context, c domain.WorkoutCompletion) (*domain.Progress, error) {
	var out *domain.Progress
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		before, err := getProgressTx(ctx, tx, c.UserID, c.CourseID)
		if err != nil {
			return err
		}
		if before == nil {
			return domain.ErrNotEnrolled
		}
		if _, err := tx.Exec(ctx,
			`UPDATE user_progress SET completed=TRUE,
                 completed_workouts = completed_workouts + 1,
                 completed_exercises = completed_exercises + $3,
                 updated_at=$4
             WHERE user_id=$1 AND course_id=$2`,
			c.UserID, c.CourseID, c.ExerciseCount, c.CompletedAt,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO workout_completions (user_id, course_id, workout_id, duration_min, calories, exercise_count, completed_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			c.UserID, c.CourseID, c.WorkoutID, c.DurationMin, c.Calories, c.ExerciseCount, c.CompletedAt,
		); err != nil {
			return err
		}
		if err := insertOutbox(ctx, tx, outboxEvent{
			EventType:   platformevents.TypeWorkoutCompleted,
			AggregateID: c.WorkoutID,
			UserID:      c.UserID,
			Payload: platformevents.WorkoutCompleted{
				UserID:        c.UserID,
				CourseID:      c.CourseID,
				WorkoutID:     c.WorkoutID,
				DurationMin:   c.DurationMin,
				Calories:      c.Calories,
				ExerciseCount: c.ExerciseCount,
				OccurredAt:    c.CompletedAt,
			},
		}); err != nil {
			return err
		}
		out, err = getProgressTx(ctx, tx, c.UserID, c.CourseID)
		if err != nil {
			return err
		}
		if !before.Completed {
			return insertOutbox(ctx, tx, courseCompleted(*out, c.CompletedAt))
		}
		return nil
	})
	return out, err
}

// ListProgress implements domain.ProgressRepository.
func (s *Store) ListProgress(ctx context.Context, userID string) ([]domain.Progress, error) {
	rows, err := s.pool.Query(ctx, progressSelect+` WHERE p.user_id=$1 ORDER BY p.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Progress, 0)
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ListCompletions implements domain.ProgressRepository.
func (s *Store) ListCompletions(ctx context.Context, userID string, since time.Time) ([]domain.WorkoutCompletion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, course_id, workout_id, duration_min, calories, exercise_count, completed_at
         FROM workout_completions WHERE user_id=$1 AND completed_at >= $2 ORDER BY completed_at`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.WorkoutCompletion, 0)
	for rows.Next() {
		var c domain.WorkoutCompletion
		if err := rows.Scan(&c.UserID, &c.CourseID, &c.WorkoutID, &c.DurationMin, &c.Calories, &c.ExerciseCount, &c.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
