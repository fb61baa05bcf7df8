package domain

import (
	"strings"
	"time"
)

// Level is a course difficulty.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// DurationBucket groups courses by length in days.
type DurationBucket string

const (
	DurationShort  DurationBucket = "short"
	DurationMedium DurationBucket = "medium"
	DurationLong   DurationBucket = "long"
)

// BucketFor maps a course duration onto its bucket: short up to 7 days, medium 8 to 14, long beyond.
func BucketFor(days int) DurationBucket {
	switch {
	case days <= 7:
		return DurationShort
	case days <= 14:
		return DurationMedium
	default:
		return DurationLong
	}
}

// Course is a catalog entry.
type Course struct {
	ID           string
	Title        string
	Description  string
	ImageURL     string
	Level        Level
	Duration     int
	IsActive     bool
	AvgRating    float64
	RatingsCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks an admin-authored course.
func (c Course) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return invalid("title", "is required")
	}
	if len([]rune(c.Title)) > 200 {
		return invalid("title", "must be at most 200 characters")
	}
	if !c.Level.Valid() {
		return invalid("level", "must be beginner, intermediate or advanced")
	}
	if c.Duration <= 0 {
		return invalid("duration", "must be > 0")
	}
	return nil
}

// CourseView is a course decorated for a particular caller.
type CourseView struct {
	Course
	IsFavorite bool
}

// CourseFilter narrows the public catalog.
type CourseFilter struct {
	Search   string
	Level    Level
	Duration DurationBucket
}

// Match reports whether c passes every set criterion.
func (f CourseFilter) Match(c Course) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(c.Title), q) && !strings.Contains(strings.ToLower(c.Description), q) {
			return false
		}
	}
	if f.Level != "" && c.Level != f.Level {
		return false
	}
	if f.Duration != "" && BucketFor(c.Duration) != f.Duration {
		return false
	}
	return true
}

// PublishStatus filters the admin course table.
type PublishStatus string

const (
	PublishStatusAll       PublishStatus = ""
	PublishStatusPublished PublishStatus = "published"
	PublishStatusDraft     PublishStatus = "draft"
)

// AdminCourseFilter narrows the admin course table.
type AdminCourseFilter struct {
	Search string
	Level  Level
	Status PublishStatus
}

// Match reports whether c passes every set criterion.
func (f AdminCourseFilter) Match(c Course) bool {
	if !(CourseFilter{Search: f.Search, Level: f.Level}).Match(c) {
		return false
	}
	switch f.Status {
	case PublishStatusPublished:
		return c.IsActive
	case PublishStatusDraft:
		return !c.IsActive
	}
	return true
}

// FilterCourses keeps the courses for which keep returns true, preserving order.
func FilterCourses(courses []Course, keep func(Course) bool) []Course {
	out := make([]Course, 0, len(courses))
	for _, c := range courses {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// Rating is one user's score for a course.
type Rating struct {
	UserID    string
	CourseID  string
	Score     int
	Comment   string
	CreatedAt time.Time
}

// Validate enforces the 1..5 scale.
func (r Rating) Validate() error {
	if r.Score < 1 || r.Score > 5 {
		return invalid("score", "must be between 1 and 5")
	}
	if len([]rune(r.Comment)) > 1000 {
		return invalid("comment", "must be at most 1000 characters")
	}
	return nil
}

// RatingSummary is the recomputed aggregate stored on the course row.
type RatingSummary struct {
	AvgRating    float64
	RatingsCount int
}
