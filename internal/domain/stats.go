package domain

import "time"

// Stats is the profile dashboard summary.
type Stats struct {
	TotalWorkouts    int
	TotalTime        int
	CurrentStreak    int
	Achievements     int
	CompletedCourses int
	ActiveDays       int
}

// ComputeStats derives the dashboard summary from progress rows and completed achievement count.
// Total time sums the durations of completed courses.
func ComputeStats(progress []Progress, completedAchievements int) Stats {
	var s Stats
	for _, p := range progress {
		if !p.Completed {
			continue
		}
		s.TotalWorkouts++
		s.TotalTime += p.CourseDuration
	}
	s.CompletedCourses = s.TotalWorkouts
	s.CurrentStreak = streakFor(s.TotalWorkouts)
	s.ActiveDays = min(s.TotalWorkouts, 30)
	s.Achievements = completedAchievements
	return s
}

func streakFor(completed int) int {
	if completed == 0 {
		return 0
	}
	return max(1, completed/2)
}

// CountersFor derives achievement counters from progress rows.
func CountersFor(progress []Progress) Counters {
	var c Counters
	completed := 0
	for _, p := range progress {
		c.WorkoutsCompleted += p.CompletedWorkouts
		c.ExercisesCompleted += p.CompletedExercises
		if p.Completed {
			completed++
		}
	}
	c.CoursesCompleted = completed
	c.Streak = streakFor(completed)
	return c
}

var weekdayShort = [7]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// WeekdayShort returns the Monday-first Russian abbreviation for d.
func WeekdayShort(d time.Weekday) string {
	if d == time.Sunday {
		return weekdayShort[6]
	}
	return weekdayShort[int(d)-1]
}

// ActivityDay is one bar of the weekly activity chart.
type ActivityDay struct {
	Day     string
	Date    string
	Minutes int
}

// WeeklyActivity buckets completions into the seven calendar days ending at now, oldest first.
func WeeklyActivity(completions []WorkoutCompletion, now time.Time) []ActivityDay {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	days := make([]ActivityDay, 7)
	index := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		date := today.AddDate(0, 0, i-6)
		key := date.Format(DateLayout)
		days[i] = ActivityDay{Day: WeekdayShort(date.Weekday()), Date: key}
		index[key] = i
	}
	for _, c := range completions {
		if i, ok := index[c.CompletedAt.UTC().Format(DateLayout)]; ok {
			days[i].Minutes += c.DurationMin
		}
	}
	return days
}

// CurrentWorkout is the dashboard card for the most recently touched unfinished course.
type CurrentWorkout struct {
	Progress Progress
	Course   Course
	Workout  Workout
}
