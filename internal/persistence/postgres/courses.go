package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/fitcoach/internal/domain"
)

const courseColumns = `course_id, title, description, image_url, level, duration, is_active, avg_rating, ratings_count, created_at, updated_at`

func scanCourse(row scanner) (*domain.Course, error) {
	var c domain.Course
	var level string
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.ImageURL, &level, &c.Duration, &c.IsActive, &c.AvgRating, &c.RatingsCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Level = domain.Level(level)
	return &c, nil
}

// ListCourses implements domain.CourseRepository.
func (s *Store) ListCourses(ctx context.Context) ([]domain.Course, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC, course_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]domain.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

// GetCourse implements domain.CourseRepository.
func (s *Store) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	c, err := scanCourse(s.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE course_id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// CreateCourse implements domain.CourseRepository.
func (s *Store) CreateCourse(ctx context.Context, c domain.Course) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO courses (course_id, title, description, image_url, level, duration, is_active, created_at, updated_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.Title, c.Description, c.ImageURL, string(c.Level), c.Duration, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: course title already exists", domain.ErrConflict)
	}
	return err
}

// UpdateCourse implements domain.CourseRepository.
func (s *Store) UpdateCourse(ctx context.Context, c domain.Course) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE courses SET title=$2, description=$3, image_url=$4, level=$5, duration=$6, is_active=$7, updated_at=$8
         WHERE course_id=$1`,
		c.ID, c.Title, c.Description, c.ImageURL, string(c.Level), c.Duration, c.IsActive, c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: course title already exists", domain.ErrConflict)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteCourse implements domain.CourseRepository. Dependent rows cascade.
func (s *Store) DeleteCourse(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM courses WHERE course_id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const workoutColumns = `workout_id, course_id, title, description, day, duration, calories, created_at`

func scanWorkout(row scanner) (*domain.Workout, error) {
	var w domain.Workout
	if err := row.Scan(&w.ID, &w.CourseID, &w.Title, &w.Description, &w.Day, &w.Duration, &w.Calories, &w.CreatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// GetCourseWorkout implements domain.CourseRepository.
func (s *Store) GetCourseWorkout(ctx context.Context, courseID string) (*domain.Workout, error) {
	w, err := scanWorkout(s.pool.QueryRow(ctx, `SELECT `+workoutColumns+` FROM workouts WHERE course_id=$1 ORDER BY day LIMIT 1`, courseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

// GetWorkout implements domain.CourseRepository.
func (s *Store) GetWorkout(ctx context.Context, id string) (*domain.Workout, error) {
	w, err := scanWorkout(s.pool.QueryRow(ctx, `SELECT `+workoutColumns+` FROM workouts WHERE workout_id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

// CreateWorkout implements domain.CourseRepository.
func (s *Store) CreateWorkout(ctx context.Context, w domain.Workout) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO workouts (workout_id, course_id, title, description, day, duration, calories, created_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		w.ID, w.CourseID, w.Title, w.Description, w.Day, w.Duration, w.Calories, w.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: course already has a workout", domain.ErrConflict)
	}
	return err
}

// ListExercises implements domain.CourseRepository.
func (s *Store) ListExercises(ctx context.Context, workoutID string) ([]domain.Exercise, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT exercise_id, workout_id, title, description, sets, reps, rest, image_url, video_url, order_index, created_at
         FROM exercises WHERE workout_id=$1 ORDER BY order_index, created_at`, workoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := make([]domain.Exercise, 0)
	for rows.Next() {
		var e domain.Exercise
		if err := rows.Scan(&e.ID, &e.WorkoutID, &e.Title, &e.Description, &e.Sets, &e.Reps, &e.Rest, &e.ImageURL, &e.VideoURL, &e.OrderIndex, &e.CreatedAt); err != nil {
			return nil, err
		}
		exercises = append(exercises, e)
	}
	return exercises, rows.Err()
}

// CreateExercise implements domain.CourseRepository.
func (s *Store) CreateExercise(ctx context.Context, e domain.Exercise) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO exercises (exercise_id, workout_id, title, description, sets, reps, rest, image_url, video_url, order_index, created_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.WorkoutID, e.Title, e.Description, e.Sets, e.Reps, e.Rest, e.ImageURL, e.VideoURL, e.OrderIndex, e.CreatedAt,
	)
	return err
}

// EnrollmentCount implements domain.CourseRepository.
func (s *Store) EnrollmentCount(ctx context.Context, courseID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_courses WHERE course_id=$1 AND is_active`, courseID).Scan(&n)
	return n, err
}

// AddFavorite implements domain.FavoriteRepository.
func (s *Store) AddFavorite(ctx context.Context, userID, courseID string, now time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO favorite_courses (user_id, course_id, created_at) VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`,
		userID, courseID, now,
	)
	return err
}

// RemoveFavorite implements domain.FavoriteRepository.
func (s *Store) RemoveFavorite(ctx context.Context, userID, courseID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM favorite_courses WHERE user_id=$1 AND course_id=$2`, userID, courseID)
	return err
}

// IsFavorite implements domain.FavoriteRepository.
func (s *Store) IsFavorite(ctx context.Context, userID, courseID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM favorite_courses WHERE user_id=$1 AND course_id=$2)`, userID, courseID,
	).Scan(&exists)
	return exists, err
}

// ListFavoriteCourseIDs implements domain.FavoriteRepository.
func (s *Store) ListFavoriteCourseIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT course_id::text FROM favorite_courses WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const recomputeRatingStmt = `UPDATE courses c SET
        avg_rating = COALESCE((SELECT ROUND(AVG(r.score)::numeric, 2)::double precision FROM course_ratings r WHERE r.course_id = c.course_id), 0),
        ratings_count = (SELECT COUNT(*)::int FROM course_ratings r WHERE r.course_id = c.course_id)`

// UpsertRating implements domain.RatingRepository.
func (s *Store) UpsertRating(ctx context.Context, rating domain.Rating) (domain.RatingSummary, error) {
	var summary domain.RatingSummary
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO course_ratings (user_id, course_id, score, comment, created_at, updated_at)
             VALUES ($1,$2,$3,$4,$5,$5)
             ON CONFLICT (user_id, course_id) DO UPDATE SET score=EXCLUDED.score, comment=EXCLUDED.comment, updated_at=EXCLUDED.updated_at`,
			rating.UserID, rating.CourseID, rating.Score, rating.Comment, rating.CreatedAt,
		); err != nil {
			return err
		}
		return tx.QueryRow(ctx, recomputeRatingStmt+` WHERE c.course_id=$1 RETURNING c.avg_rating, c.ratings_count`, rating.CourseID).
			Scan(&summary.AvgRating, &summary.RatingsCount)
	})
	return summary, err
}

// RecomputeRatings implements domain.RatingRepository.
func (s *Store) RecomputeRatings(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, recomputeRatingStmt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
