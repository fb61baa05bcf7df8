package workout

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fitcoach/internal/domain"
)

func testPlan(rests ...int) domain.WorkoutPlan {
	plan := domain.WorkoutPlan{Workout: domain.Workout{ID: "w-1", CourseID: "c-1", Title: "Morning"}}
	for i, rest := range rests {
		plan.Exercises = append(plan.Exercises, domain.Exercise{ID: string(rune('a' + i)), Title: "Step", Rest: rest})
	}
	return plan
}

func TestManagerStreamsCountdown(t *testing.T) {
	m := NewManager(nil, WithTickInterval(10*time.Millisecond))
	snap := m.Start("u-1", testPlan(5, 5))
	require.False(t, snap.Playing)
	require.Equal(t, 5, snap.Remaining)
	require.Equal(t, "a", snap.Exercise.ID)

	events, cancel, err := m.Subscribe(snap.SessionID, "u-1")
	require.NoError(t, err)
	defer cancel()
	require.Equal(t, 5, (<-events).Remaining)

	_, err = m.Control(context.Background(), snap.SessionID, "u-1", ActionPlay)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		select {
		case s := <-events:
			return s.Playing && s.Remaining < 5
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestManagerReportsCompletionOnce(t *testing.T) {
	var calls atomic.Int32
	m := NewManager(func(ctx context.Context, userID string, plan domain.WorkoutPlan) error {
		if userID == "u-1" && plan.Workout.ID == "w-1" {
			calls.Add(1)
		}
		return nil
	}, WithTickInterval(5*time.Millisecond))

	snap := m.Start("u-1", testPlan(0, 0))
	_, err := m.Control(context.Background(), snap.SessionID, "u-1", ActionPlay)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, err := m.Get(snap.SessionID, "u-1")
		return err == nil && s.Completed
	}, 2*time.Second, 5*time.Millisecond)

	_, err = m.Control(context.Background(), snap.SessionID, "u-1", ActionNext)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}

func TestManagerNextPastLastCompletes(t *testing.T) {
	var calls atomic.Int32
	m := NewManager(func(context.Context, string, domain.WorkoutPlan) error {
		calls.Add(1)
		return nil
	}, WithTickInterval(time.Hour))

	snap := m.Start("u-1", testPlan(30))
	done, err := m.Control(context.Background(), snap.SessionID, "u-1", ActionNext)
	require.NoError(t, err)
	require.True(t, done.Completed)
	require.Equal(t, int32(1), calls.Load())
}

func TestManagerHidesOtherUsersSessions(t *testing.T) {
	m := NewManager(nil, WithTickInterval(time.Hour))
	snap := m.Start("u-1", testPlan(10))

	_, err := m.Get(snap.SessionID, "u-2")
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Control(context.Background(), snap.SessionID, "u-2", ActionPlay)
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Control(context.Background(), snap.SessionID, "u-1", Action("jump"))
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestManagerReapsIdleSessions(t *testing.T) {
	m := NewManager(nil, WithTickInterval(time.Hour), WithIdleTTL(time.Hour))
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	stale := m.Start("u-1", testPlan(10))
	events, cancel, err := m.Subscribe(stale.SessionID, "u-1")
	require.NoError(t, err)
	defer cancel()
	<-events

	m.mu.Lock()
	m.now = func() time.Time { return start.Add(50 * time.Minute) }
	m.mu.Unlock()
	fresh := m.Start("u-2", testPlan(10))

	m.mu.Lock()
	m.now = func() time.Time { return start.Add(61 * time.Minute) }
	m.mu.Unlock()
	require.Equal(t, 1, m.Reap())
	require.Equal(t, 1, m.Len())

	_, open := <-events
	require.False(t, open, "watchers are closed when their session is reaped")

	_, err = m.Get(fresh.SessionID, "u-2")
	require.NoError(t, err)
	require.NoError(t, m.Stop(fresh.SessionID, "u-2"))
	require.ErrorIs(t, m.Stop(fresh.SessionID, "u-2"), ErrSessionNotFound)
}

func TestManagerReplacesSessionForSameWorkout(t *testing.T) {
	m := NewManager(nil, WithTickInterval(time.Hour))
	first := m.Start("u-1", testPlan(10))
	events, cancel, err := m.Subscribe(first.SessionID, "u-1")
	require.NoError(t, err)
	defer cancel()
	<-events

	second := m.Start("u-1", testPlan(10))
	require.NotEqual(t, first.SessionID, second.SessionID)
	require.Equal(t, 1, m.Len())
	_, err = m.Get(first.SessionID, "u-1")
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, open := <-events
	require.False(t, open)

	other := testPlan(10)
	other.Workout.ID = "w-2"
	m.Start("u-1", other)
	m.Start("u-2", testPlan(10))
	require.Equal(t, 3, m.Len())
}
