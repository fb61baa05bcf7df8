package domain

import (
	"context"
	"fmt"
	"time"
)

// ProgressService handles enrollment, course progress and workout completion.
type ProgressService struct {
	progress ProgressRepository
	courses  CourseRepository
}

// NewProgressService constructs a ProgressService.
func NewProgressService(progress ProgressRepository, courses CourseRepository) *ProgressService {
	return &ProgressService{progress: progress, courses: courses}
}

// Enroll joins userID to an active course and opens its progress row.
func (s *ProgressService) Enroll(ctx context.Context, userID, courseID string) (*Progress, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil || !course.IsActive {
		return nil, ErrNotFound
	}
	enrolled, err := s.progress.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, fmt.Errorf("%w: already enrolled", ErrConflict)
	}
	if err := s.progress.Enroll(ctx, userID, courseID, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.Progress(ctx, userID, courseID)
}

// IsEnrolled reports whether userID has an active enrollment in courseID.
func (s *ProgressService) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	return s.progress.IsEnrolled(ctx, userID, courseID)
}

// Progress returns the user's progress in a course.
func (s *ProgressService) Progress(ctx context.Context, userID, courseID string) (*Progress, error) {
	p, err := s.progress.GetProgress(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// SetCompleted flips the course completion flag.
func (s *ProgressService) SetCompleted(ctx context.Context, userID, courseID string, completed bool) (*Progress, error) {
	p, err := s.progress.SetCompleted(ctx, userID, courseID, completed, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotEnrolled
	}
	return p, nil
}

// CompleteWorkout records a finished workout for an enrolled user.
func (s *ProgressService) CompleteWorkout(ctx context.Context, userID string, plan WorkoutPlan) (*Progress, error) {
	enrolled, err := s.progress.IsEnrolled(ctx, userID, plan.Workout.CourseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}
	return s.progress.RecordWorkoutCompletion(ctx, WorkoutCompletion{
		UserID:        userID,
		CourseID:      plan.Workout.CourseID,
		WorkoutID:     plan.Workout.ID,
		DurationMin:   plan.Workout.Duration,
		Calories:      plan.Workout.Calories,
		ExerciseCount: len(plan.Exercises),
		CompletedAt:   time.Now().UTC(),
	})
}

// CurrentWorkout returns the most recently updated unfinished course with its workout, or nil.
func (s *ProgressService) CurrentWorkout(ctx context.Context, userID string) (*CurrentWorkout, error) {
	rows, err := s.progress.ListProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	var latest *Progress
	for i := range rows {
		if rows[i].Completed {
			continue
		}
		if latest == nil || rows[i].UpdatedAt.After(latest.UpdatedAt) {
			latest = &rows[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	course, err := s.courses.GetCourse(ctx, latest.CourseID)
	if err != nil || course == nil {
		return nil, err
	}
	workout, err := s.courses.GetCourseWorkout(ctx, latest.CourseID)
	if err != nil || workout == nil {
		return nil, err
	}
	return &CurrentWorkout{Progress: *latest, Course: *course, Workout: *workout}, nil
}

// StatsService computes the profile dashboard.
type StatsService struct {
	progress     ProgressRepository
	achievements AchievementRepository
}

// NewStatsService constructs a StatsService.
func NewStatsService(progress ProgressRepository, achievements AchievementRepository) *StatsService {
	return &StatsService{progress: progress, achievements: achievements}
}

// Stats returns the dashboard summary for userID.
func (s *StatsService) Stats(ctx context.Context, userID string) (Stats, error) {
	rows, err := s.progress.ListProgress(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	earned, err := s.achievements.ListUserAchievements(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	completed := 0
	for _, ua := range earned {
		if ua.Completed {
			completed++
		}
	}
	return ComputeStats(rows, completed), nil
}

// WeeklyActivity returns workout minutes for the seven days ending at now.
func (s *StatsService) WeeklyActivity(ctx context.Context, userID string, now time.Time) ([]ActivityDay, error) {
	since := now.UTC().AddDate(0, 0, -7)
	completions, err := s.progress.ListCompletions(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	return WeeklyActivity(completions, now), nil
}
