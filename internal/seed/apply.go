package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"example.com/fitcoach/internal/domain"
)

// Result counts what an Apply call created.
type Result struct {
	Courses      int
	Workouts     int
	Exercises    int
	Achievements int
	Users        int
}

// Seeder writes a Catalog through the domain repositories.
type Seeder struct {
	courses      domain.CourseRepository
	achievements domain.AchievementRepository
	users        domain.UserRepository
	hasher       domain.PasswordHasher
	logger       zerolog.Logger
}

// NewSeeder constructs a Seeder.
func NewSeeder(courses domain.CourseRepository, achievements domain.AchievementRepository, users domain.UserRepository, hasher domain.PasswordHasher, logger zerolog.Logger) *Seeder {
	return &Seeder{courses: courses, achievements: achievements, users: users, hasher: hasher, logger: logger}
}

// Apply creates missing courses, workouts, exercises and users and upserts achievements.
// Existing rows are matched by course title, user email and achievement title and left alone.
func (s *Seeder) Apply(ctx context.Context, c *Catalog) (Result, error) {
	var res Result

	existing, err := s.courses.ListCourses(ctx)
	if err != nil {
		return res, fmt.Errorf("list courses: %w", err)
	}
	byTitle := make(map[string]domain.Course, len(existing))
	for _, course := range existing {
		byTitle[strings.ToLower(course.Title)] = course
	}

	for _, cs := range c.Courses {
		course, ok := byTitle[strings.ToLower(cs.Title)]
		if !ok {
			now := time.Now().UTC()
			course = cs.course()
			course.ID = uuid.NewString()
			course.CreatedAt = now
			course.UpdatedAt = now
			if err := s.courses.CreateCourse(ctx, course); err != nil {
				return res, fmt.Errorf("create course %q: %w", cs.Title, err)
			}
			res.Courses++
		}
		if cs.Workout == nil {
			continue
		}
		created, exercises, err := s.applyWorkout(ctx, course.ID, *cs.Workout)
		if err != nil {
			return res, fmt.Errorf("course %q: %w", cs.Title, err)
		}
		if created {
			res.Workouts++
		}
		res.Exercises += exercises
	}

	for _, as := range c.Achievements {
		if err := s.achievements.UpsertAchievement(ctx, domain.Achievement{
			Title:         as.Title,
			Description:   as.Description,
			Icon:          as.Icon,
			RequiredValue: as.RequiredValue,
			Type:          domain.AchievementType(as.Type),
		}); err != nil {
			return res, fmt.Errorf("upsert achievement %q: %w", as.Title, err)
		}
		res.Achievements++
	}

	for _, us := range c.Users {
		created, err := s.applyUser(ctx, us)
		if err != nil {
			return res, fmt.Errorf("user %s: %w", us.Email, err)
		}
		if created {
			res.Users++
		}
	}

	s.logger.Info().
		Int("courses", res.Courses).
		Int("workouts", res.Workouts).
		Int("exercises", res.Exercises).
		Int("achievements", res.Achievements).
		Int("users", res.Users).
		Msg("seed applied")
	return res, nil
}

// applyWorkout creates the course workout when missing and fills exercises only into an empty workout.
func (s *Seeder) applyWorkout(ctx context.Context, courseID string, ws WorkoutSeed) (bool, int, error) {
	workout, err := s.courses.GetCourseWorkout(ctx, courseID)
	if err != nil {
		return false, 0, err
	}
	created := false
	if workout == nil {
		w := ws.workout(courseID)
		w.ID = uuid.NewString()
		w.CreatedAt = time.Now().UTC()
		if err := s.courses.CreateWorkout(ctx, w); err != nil {
			return false, 0, fmt.Errorf("create workout: %w", err)
		}
		workout = &w
		created = true
	}

	current, err := s.courses.ListExercises(ctx, workout.ID)
	if err != nil {
		return created, 0, err
	}
	if len(current) > 0 {
		return created, 0, nil
	}
	for i, es := range ws.Exercises {
		e := es.exercise(workout.ID, i+1)
		e.ID = uuid.NewString()
		e.CreatedAt = time.Now().UTC()
		if err := s.courses.CreateExercise(ctx, e); err != nil {
			return created, i, fmt.Errorf("create exercise %q: %w", es.Title, err)
		}
	}
	return created, len(ws.Exercises), nil
}

func (s *Seeder) applyUser(ctx context.Context, us UserSeed) (bool, error) {
	email := domain.NormalizeEmail(us.Email)
	existing, _, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	hash, err := s.hasher.Hash(us.Password)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:                uuid.NewString(),
		Email:             email,
		Username:          strings.TrimSpace(us.Username),
		Role:              domain.Role(us.Role),
		Provider:          "password",
		HasSeenOnboarding: true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.users.CreateUser(ctx, user, hash); err != nil {
		return false, err
	}
	return true, nil
}
