package domain

import "time"

// Progress tracks a user's state in one course.
type Progress struct {
	ID                 string
	UserID             string
	CourseID           string
	Completed          bool
	CurrentDay         int
	CompletedWorkouts  int
	CompletedExercises int
	CourseTitle        string
	CourseDuration     int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// WorkoutCompletion is recorded when the player finishes the last exercise.
type WorkoutCompletion struct {
	UserID        string
	CourseID      string
	WorkoutID     string
	DurationMin   int
	Calories      int
	ExerciseCount int
	CompletedAt   time.Time
}
