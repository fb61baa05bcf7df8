// Package seed loads the starter catalog from YAML and applies it idempotently.
package seed

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"example.com/fitcoach/internal/domain"
)

// Catalog is the root of the seed document.
type Catalog struct {
	Courses      []CourseSeed      `yaml:"courses"`
	Achievements []AchievementSeed `yaml:"achievements"`
	Users        []UserSeed        `yaml:"users"`
}

// CourseSeed is a course with its single workout.
type CourseSeed struct {
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	ImageURL    string       `yaml:"image_url"`
	Level       string       `yaml:"level"`
	Duration    int          `yaml:"duration"`
	Inactive    bool         `yaml:"inactive"`
	Workout     *WorkoutSeed `yaml:"workout"`
}

// WorkoutSeed describes the course workout.
type WorkoutSeed struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Day         int            `yaml:"day"`
	Duration    int            `yaml:"duration"`
	Calories    int            `yaml:"calories"`
	Exercises   []ExerciseSeed `yaml:"exercises"`
}

// ExerciseSeed is one workout step. Order follows the document.
type ExerciseSeed struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Sets        int    `yaml:"sets"`
	Reps        int    `yaml:"reps"`
	Rest        int    `yaml:"rest"`
	ImageURL    string `yaml:"image_url"`
	VideoURL    string `yaml:"video_url"`
}

// AchievementSeed is a catalog achievement; titles are the natural key.
type AchievementSeed struct {
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	Icon          string `yaml:"icon"`
	Type          string `yaml:"type"`
	RequiredValue int    `yaml:"required_value"`
}

// UserSeed is a staff account created when its email is unknown.
type UserSeed struct {
	Email    string `yaml:"email"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// LoadFile reads and validates the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a catalog document. Unknown fields are rejected.
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate applies the domain rules to every entry.
func (c Catalog) Validate() error {
	titles := make(map[string]struct{}, len(c.Courses))
	for i, cs := range c.Courses {
		if _, dup := titles[cs.Title]; dup {
			return fmt.Errorf("courses[%d]: duplicate title %q", i, cs.Title)
		}
		titles[cs.Title] = struct{}{}
		if err := cs.course().Validate(); err != nil {
			return fmt.Errorf("courses[%d]: %w", i, err)
		}
		if cs.Workout == nil {
			continue
		}
		w := cs.Workout.workout("pending")
		if err := w.Validate(); err != nil {
			return fmt.Errorf("courses[%d].workout: %w", i, err)
		}
		for j, es := range cs.Workout.Exercises {
			if err := es.exercise("pending", j+1).Validate(); err != nil {
				return fmt.Errorf("courses[%d].workout.exercises[%d]: %w", i, j, err)
			}
		}
	}
	for i, as := range c.Achievements {
		if as.Title == "" {
			return fmt.Errorf("achievements[%d]: title is required", i)
		}
		if !domain.AchievementType(as.Type).Valid() {
			return fmt.Errorf("achievements[%d]: unknown type %q", i, as.Type)
		}
		if as.RequiredValue <= 0 {
			return fmt.Errorf("achievements[%d]: required_value must be > 0", i)
		}
	}
	for i, us := range c.Users {
		if !domain.Role(us.Role).Valid() {
			return fmt.Errorf("users[%d]: unknown role %q", i, us.Role)
		}
		if err := (domain.Registration{Email: us.Email, Username: us.Username, Password: us.Password}).Validate(); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
	}
	return nil
}

func (cs CourseSeed) course() domain.Course {
	return domain.Course{
		Title:       cs.Title,
		Description: cs.Description,
		ImageURL:    cs.ImageURL,
		Level:       domain.Level(cs.Level),
		Duration:    cs.Duration,
		IsActive:    !cs.Inactive,
	}
}

func (ws WorkoutSeed) workout(courseID string) domain.Workout {
	day := ws.Day
	if day <= 0 {
		day = 1
	}
	return domain.Workout{
		CourseID:    courseID,
		Title:       ws.Title,
		Description: ws.Description,
		Day:         day,
		Duration:    ws.Duration,
		Calories:    ws.Calories,
	}
}

func (es ExerciseSeed) exercise(workoutID string, order int) domain.Exercise {
	return domain.Exercise{
		WorkoutID:   workoutID,
		Title:       es.Title,
		Description: es.Description,
		Sets:        es.Sets,
		Reps:        es.Reps,
		Rest:        es.Rest,
		ImageURL:    es.ImageURL,
		VideoURL:    es.VideoURL,
		OrderIndex:  order,
	}
}
