package domain

import (
	"fmt"
	"strings"
	"time"
)

// Workout is the single guided session attached to a course.
type Workout struct {
	ID          string
	CourseID    string
	Title       string
	Description string
	Day         int
	Duration    int
	Calories    int
	CreatedAt   time.Time
}

// Validate checks an admin-authored workout.
func (w Workout) Validate() error {
	if strings.TrimSpace(w.CourseID) == "" {
		return invalid("course_id", "is required")
	}
	if strings.TrimSpace(w.Title) == "" {
		return invalid("title", "is required")
	}
	if w.Duration <= 0 {
		return invalid("duration", "must be > 0")
	}
	if w.Calories < 0 {
		return invalid("calories", "must be >= 0")
	}
	return nil
}

// Exercise is one step of a workout. Rest is the countdown length in seconds.
type Exercise struct {
	ID          string
	WorkoutID   string
	Title       string
	Description string
	Sets        int
	Reps        int
	Rest        int
	ImageURL    string
	VideoURL    string
	OrderIndex  int
	CreatedAt   time.Time
}

// Validate checks an admin-authored exercise.
func (e Exercise) Validate() error {
	if strings.TrimSpace(e.WorkoutID) == "" {
		return invalid("workout_id", "is required")
	}
	if strings.TrimSpace(e.Title) == "" {
		return invalid("title", "is required")
	}
	if e.Sets < 0 || e.Reps < 0 {
		return invalid("sets", "sets and reps must be >= 0")
	}
	if e.Rest < 0 {
		return invalid("rest", "must be >= 0")
	}
	return nil
}

// FallbackExercises is played when a workout has no exercises of its own.
func FallbackExercises(workoutID string) []Exercise {
	return []Exercise{
		{
			ID:          "demo-1",
			WorkoutID:   workoutID,
			Title:       "Разминка",
			Description: "Легкая разминка для подготовки тела к тренировке. Сделайте круговые движения шеей, плечами, запястьями и лодыжками.",
			Sets:        1,
			Reps:        1,
			Rest:        30,
			ImageURL:    pexelsPhoto(3822906),
			OrderIndex:  1,
		},
		{
			ID:          "demo-2",
			WorkoutID:   workoutID,
			Title:       "Поза горы (Тадасана)",
			Description: "Встаньте прямо, ноги вместе, руки по бокам. Распределите вес равномерно на обе ступни. Втяните живот, расправьте плечи и грудь. Руки должны быть расслаблены, а ладони повернуты к бедрам.",
			Sets:        1,
			Reps:        1,
			Rest:        60,
			ImageURL:    pexelsPhoto(8436465),
			OrderIndex:  2,
		},
		{
			ID:          "demo-3",
			WorkoutID:   workoutID,
			Title:       "Поза дерева (Врикшасана)",
			Description: "Встаньте прямо в позе горы. Перенесите вес на левую ногу. Поднимите правую ногу и поместите подошву на внутреннюю поверхность левого бедра. Сложите руки перед грудью или поднимите их над головой. Задержитесь на 30-60 секунд, затем повторите с другой ногой.",
			Sets:        2,
			Reps:        1,
			Rest:        60,
			ImageURL:    pexelsPhoto(8436590),
			OrderIndex:  3,
		},
		{
			ID:          "demo-4",
			WorkoutID:   workoutID,
			Title:       "Поза собаки мордой вниз (Адхо Мукха Шванасана)",
			Description: "Начните с позиции на четвереньках. Руки на ширине плеч, колени на ширине бедер. Поднимите таз вверх, выпрямляя ноги и руки, формируя перевернутую букву V. Пятки стремятся к полу. Голова расслаблена между руками. Удерживайте 1-3 минуты, дышите глубоко.",
			Sets:        1,
			Reps:        1,
			Rest:        90,
			ImageURL:    pexelsPhoto(6111616),
			OrderIndex:  4,
		},
		{
			ID:          "demo-5",
			WorkoutID:   workoutID,
			Title:       "Поза ребенка (Баласана)",
			Description: "Сядьте на пятки, колени вместе или слегка разведены. Наклонитесь вперед, положив торс на бедра. Вытяните руки перед собой или положите их вдоль тела ладонями вверх. Расслабьте шею, позволяя лбу коснуться пола. Дышите глубоко, расслабляя спину и плечи.",
			Sets:        1,
			Reps:        1,
			Rest:        60,
			ImageURL:    pexelsPhoto(6111691),
			OrderIndex:  5,
		},
	}
}

func pexelsPhoto(id int) string {
	return fmt.Sprintf("https://images.pexels.com/photos/%[1]d/pexels-photo-%[1]d.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=2", id)
}
