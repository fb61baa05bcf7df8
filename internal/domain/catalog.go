package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CatalogCache keeps the full course list close to the API.
type CatalogCache interface {
	GetCourses(ctx context.Context) ([]Course, bool, error)
	SetCourses(ctx context.Context, courses []Course) error
	Invalidate(ctx context.Context) error
}

// WorkoutPlan is a workout with the exercises the player will run. Fallback is set when the
// workout had none of its own.
type WorkoutPlan struct {
	Workout   Workout
	Exercises []Exercise
	Fallback  bool
}

// CatalogService serves courses, workouts, favorites and ratings.
type CatalogService struct {
	courses   CourseRepository
	favorites FavoriteRepository
	ratings   RatingRepository
	cache     CatalogCache
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(courses CourseRepository, favorites FavoriteRepository, ratings RatingRepository, cache CatalogCache) *CatalogService {
	return &CatalogService{courses: courses, favorites: favorites, ratings: ratings, cache: cache}
}

// allCourses reads through the cache. Cache failures fall back to the repository.
func (s *CatalogService) allCourses(ctx context.Context) ([]Course, error) {
	if cached, ok, err := s.cache.GetCourses(ctx); err == nil && ok {
		return cached, nil
	}
	courses, err := s.courses.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetCourses(ctx, courses)
	return courses, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx)
}

// ListCourses returns the catalog for userID, newest first. Inactive courses are hidden
// unless includeInactive is set.
func (s *CatalogService) ListCourses(ctx context.Context, userID string, includeInactive bool, f CourseFilter) ([]CourseView, error) {
	courses, err := s.allCourses(ctx)
	if err != nil {
		return nil, err
	}
	courses = FilterCourses(courses, func(c Course) bool {
		return (includeInactive || c.IsActive) && f.Match(c)
	})

	favorites := map[string]struct{}{}
	if userID != "" {
		ids, err := s.favorites.ListFavoriteCourseIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			favorites[id] = struct{}{}
		}
	}

	views := make([]CourseView, 0, len(courses))
	for _, c := range courses {
		_, fav := favorites[c.ID]
		views = append(views, CourseView{Course: c, IsFavorite: fav})
	}
	return views, nil
}

// AdminListCourses returns every course matching f.
func (s *CatalogService) AdminListCourses(ctx context.Context, f AdminCourseFilter) ([]Course, error) {
	courses, err := s.allCourses(ctx)
	if err != nil {
		return nil, err
	}
	return FilterCourses(courses, f.Match), nil
}

// GetCourse returns one course decorated for userID.
func (s *CatalogService) GetCourse(ctx context.Context, userID, courseID string, includeInactive bool) (*CourseView, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil || (!course.IsActive && !includeInactive) {
		return nil, ErrNotFound
	}
	view := &CourseView{Course: *course}
	if userID != "" {
		fav, err := s.favorites.IsFavorite(ctx, userID, courseID)
		if err != nil {
			return nil, err
		}
		view.IsFavorite = fav
	}
	return view, nil
}

// CourseWorkout returns the course's workout plan.
func (s *CatalogService) CourseWorkout(ctx context.Context, courseID string) (*WorkoutPlan, error) {
	workout, err := s.courses.GetCourseWorkout(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if workout == nil {
		return nil, ErrNotFound
	}
	return s.plan(ctx, *workout)
}

// WorkoutPlan returns a workout and its exercises by workout ID.
func (s *CatalogService) WorkoutPlan(ctx context.Context, workoutID string) (*WorkoutPlan, error) {
	workout, err := s.courses.GetWorkout(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	if workout == nil {
		return nil, ErrNotFound
	}
	return s.plan(ctx, *workout)
}

func (s *CatalogService) plan(ctx context.Context, workout Workout) (*WorkoutPlan, error) {
	exercises, err := s.courses.ListExercises(ctx, workout.ID)
	if err != nil {
		return nil, err
	}
	if len(exercises) == 0 {
		return &WorkoutPlan{Workout: workout, Exercises: FallbackExercises(workout.ID), Fallback: true}, nil
	}
	return &WorkoutPlan{Workout: workout, Exercises: exercises}, nil
}

// EnrollmentCount returns the number of active enrollments for a course.
func (s *CatalogService) EnrollmentCount(ctx context.Context, courseID string) (int, error) {
	return s.courses.EnrollmentCount(ctx, courseID)
}

// CreateCourse adds a course.
func (s *CatalogService) CreateCourse(ctx context.Context, course Course) (*Course, error) {
	course.Title = strings.TrimSpace(course.Title)
	if err := course.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	course.ID = uuid.NewString()
	course.CreatedAt = now
	course.UpdatedAt = now
	course.AvgRating = 0
	course.RatingsCount = 0
	if err := s.courses.CreateCourse(ctx, course); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &course, nil
}

// CourseUpdate carries admin edits. Nil fields are kept.
type CourseUpdate struct {
	Title       *string
	Description *string
	ImageURL    *string
	Level       *Level
	Duration    *int
	IsActive    *bool
}

// UpdateCourse applies an admin edit.
func (s *CatalogService) UpdateCourse(ctx context.Context, courseID string, update CourseUpdate) (*Course, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrNotFound
	}
	if update.Title != nil {
		course.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		course.Description = *update.Description
	}
	if update.ImageURL != nil {
		course.ImageURL = *update.ImageURL
	}
	if update.Level != nil {
		course.Level = *update.Level
	}
	if update.Duration != nil {
		course.Duration = *update.Duration
	}
	if update.IsActive != nil {
		course.IsActive = *update.IsActive
	}
	if err := course.Validate(); err != nil {
		return nil, err
	}
	course.UpdatedAt = time.Now().UTC()
	if err := s.courses.UpdateCourse(ctx, *course); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return course, nil
}

// DeleteCourse removes a course with its workout, exercises, enrollments and chat.
func (s *CatalogService) DeleteCourse(ctx context.Context, courseID string) error {
	deleted, err := s.courses.DeleteCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	s.invalidate(ctx)
	return nil
}

// CreateWorkout attaches the workout to its course. A course holds at most one workout.
func (s *CatalogService) CreateWorkout(ctx context.Context, workout Workout) (*Workout, error) {
	if err := workout.Validate(); err != nil {
		return nil, err
	}
	course, err := s.courses.GetCourse(ctx, workout.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrNotFound
	}
	workout.ID = uuid.NewString()
	workout.CreatedAt = time.Now().UTC()
	if workout.Day <= 0 {
		workout.Day = 1
	}
	if err := s.courses.CreateWorkout(ctx, workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

// CreateExercise appends an exercise to a workout.
func (s *CatalogService) CreateExercise(ctx context.Context, exercise Exercise) (*Exercise, error) {
	if err := exercise.Validate(); err != nil {
		return nil, err
	}
	workout, err := s.courses.GetWorkout(ctx, exercise.WorkoutID)
	if err != nil {
		return nil, err
	}
	if workout == nil {
		return nil, ErrNotFound
	}
	if exercise.OrderIndex <= 0 {
		existing, err := s.courses.ListExercises(ctx, exercise.WorkoutID)
		if err != nil {
			return nil, err
		}
		exercise.OrderIndex = len(existing) + 1
	}
	exercise.ID = uuid.NewString()
	exercise.CreatedAt = time.Now().UTC()
	if err := s.courses.CreateExercise(ctx, exercise); err != nil {
		return nil, err
	}
	return &exercise, nil
}

// AddFavorite bookmarks a course. Adding twice is a no-op.
func (s *CatalogService) AddFavorite(ctx context.Context, userID, courseID string) error {
	if _, err := s.GetCourse(ctx, "", courseID, false); err != nil {
		return err
	}
	return s.favorites.AddFavorite(ctx, userID, courseID, time.Now().UTC())
}

// RemoveFavorite removes a bookmark.
func (s *CatalogService) RemoveFavorite(ctx context.Context, userID, courseID string) error {
	return s.favorites.RemoveFavorite(ctx, userID, courseID)
}

// IsFavorite reports whether the course is bookmarked.
func (s *CatalogService) IsFavorite(ctx context.Context, userID, courseID string) (bool, error) {
	return s.favorites.IsFavorite(ctx, userID, courseID)
}

// ListFavorites returns the user's bookmarked active courses.
func (s *CatalogService) ListFavorites(ctx context.Context, userID string) ([]CourseView, error) {
	views, err := s.ListCourses(ctx, userID, false, CourseFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]CourseView, 0, len(views))
	for _, v := range views {
		if v.IsFavorite {
			out = append(out, v)
		}
	}
	return out, nil
}

// Rate records the user's score for a course and returns the new aggregate.
func (s *CatalogService) Rate(ctx context.Context, rating Rating) (RatingSummary, error) {
	rating.Comment = strings.TrimSpace(rating.Comment)
	if err := rating.Validate(); err != nil {
		return RatingSummary{}, err
	}
	if _, err := s.GetCourse(ctx, "", rating.CourseID, false); err != nil {
		return RatingSummary{}, err
	}
	rating.CreatedAt = time.Now().UTC()
	summary, err := s.ratings.UpsertRating(ctx, rating)
	if err != nil {
		return RatingSummary{}, err
	}
	s.invalidate(ctx)
	return summary, nil
}

// RecomputeRatings rebuilds every course's rating aggregate.
func (s *CatalogService) RecomputeRatings(ctx context.Context) (int64, error) {
	n, err := s.ratings.RecomputeRatings(ctx)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	return n, nil
}
