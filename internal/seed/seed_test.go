package seed

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/persistence/memory"
)

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (plainHasher) Compare(h, p string) error {
	if h != "hashed:"+p {
		return domain.ErrInvalidCredentials
	}
	return nil
}

const sample = `
courses:
  - title: "Старт"
    description: "Вводный курс"
    level: beginner
    duration: 7
    workout:
      title: "День 1"
      duration: 20
      calories: 100
      exercises:
        - title: "Приседания"
          sets: 3
          reps: 10
          rest: 30
        - title: "Планка"
          sets: 2
          reps: 1
          rest: 0
achievements:
  - title: "Первая тренировка"
    type: workout_count
    required_value: 1
users:
  - email: "Admin@Example.com"
    username: "admin"
    password: "secret123"
    role: admin
`

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seeder := NewSeeder(store, store, store, plainHasher{}, zerolog.Nop())

	catalog, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	first, err := seeder.Apply(ctx, catalog)
	require.NoError(t, err)
	require.Equal(t, Result{Courses: 1, Workouts: 1, Exercises: 2, Achievements: 1, Users: 1}, first)

	second, err := seeder.Apply(ctx, catalog)
	require.NoError(t, err)
	require.Equal(t, Result{Achievements: 1}, second)

	courses, err := store.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.True(t, courses[0].IsActive)

	workout, err := store.GetCourseWorkout(ctx, courses[0].ID)
	require.NoError(t, err)
	require.NotNil(t, workout)
	require.Equal(t, 1, workout.Day)

	exercises, err := store.ListExercises(ctx, workout.ID)
	require.NoError(t, err)
	require.Len(t, exercises, 2)
	require.Equal(t, "Приседания", exercises[0].Title)
	require.Equal(t, 2, exercises[1].OrderIndex)

	achievements, err := store.ListAchievements(ctx)
	require.NoError(t, err)
	require.Len(t, achievements, 1)

	admin, hash, err := store.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, admin)
	require.Equal(t, domain.RoleAdmin, admin.Role)
	require.Equal(t, "hashed:secret123", hash)
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"unknown level":       "courses:\n  - title: x\n    level: expert\n    duration: 3\n",
		"unknown field":       "courses:\n  - title: x\n    level: beginner\n    duration: 3\n    price: 10\n",
		"duplicate title":     "courses:\n  - {title: x, level: beginner, duration: 3}\n  - {title: x, level: beginner, duration: 3}\n",
		"bad achievement":     "achievements:\n  - {title: a, type: sleep, required_value: 1}\n",
		"zero requirement":    "achievements:\n  - {title: a, type: streak, required_value: 0}\n",
		"bad role":            "users:\n  - {email: a@b.c, username: abc, password: secret1, role: root}\n",
		"negative rest":       "courses:\n  - title: x\n    level: beginner\n    duration: 3\n    workout:\n      title: w\n      duration: 5\n      exercises:\n        - {title: e, rest: -1}\n",
		"workout no duration": "courses:\n  - title: x\n    level: beginner\n    duration: 3\n    workout:\n      title: w\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			require.Error(t, err)
		})
	}
}

func TestShippedCatalogIsValid(t *testing.T) {
	if _, err := os.Stat("../../seed/catalog.yaml"); err != nil {
		t.Skip("seed catalog not found")
	}
	catalog, err := LoadFile("../../seed/catalog.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, catalog.Courses)
	require.NotEmpty(t, catalog.Achievements)
}
