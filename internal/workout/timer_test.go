package workout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimerCountsDownThenAdvancesOnce(t *testing.T) {
	timer := NewTimer([]Item{{ID: "a", Rest: 3}, {ID: "b", Rest: 2}})
	timer.Play()

	for i := 0; i < 3; i++ {
		require.Equal(t, EventTick, timer.Tick())
	}
	state := timer.State()
	require.Equal(t, 0, state.Remaining)
	require.Equal(t, 0, state.Index)
	require.Equal(t, 100, state.Progress)

	require.Equal(t, EventAdvanced, timer.Tick())
	state = timer.State()
	require.Equal(t, 1, state.Index)
	require.Equal(t, 2, state.Remaining)
	require.Equal(t, 0, state.Progress)
	require.True(t, state.Playing)
}

func TestTimerCompletesAfterLastItem(t *testing.T) {
	timer := NewTimer([]Item{{ID: "a", Rest: 1}})
	timer.Play()
	require.Equal(t, EventTick, timer.Tick())
	require.Equal(t, EventCompleted, timer.Tick())

	state := timer.State()
	require.True(t, state.Completed)
	require.False(t, state.Playing)
	require.Equal(t, EventNone, timer.Tick())

	timer.Play()
	require.False(t, timer.State().Playing)
}

func TestTimerIgnoresTicksWhilePaused(t *testing.T) {
	timer := NewTimer([]Item{{ID: "a", Rest: 10}})
	require.Equal(t, EventNone, timer.Tick())
	require.Equal(t, 10, timer.State().Remaining)

	timer.Toggle()
	timer.Tick()
	timer.Toggle()
	timer.Tick()
	require.Equal(t, 9, timer.State().Remaining)
	require.Equal(t, 10, timer.Progress())
}

func TestTimerZeroRestAdvancesOnFirstTick(t *testing.T) {
	timer := NewTimer([]Item{{ID: "a", Rest: 0}, {ID: "b", Rest: 5}})
	require.Equal(t, 100, timer.Progress())
	timer.Play()
	require.Equal(t, EventAdvanced, timer.Tick())
	require.Equal(t, 1, timer.State().Index)
}

func TestTimerNavigation(t *testing.T) {
	timer := NewTimer([]Item{{ID: "a", Rest: 30}, {ID: "b", Rest: 60}, {ID: "c", Rest: 45}})

	timer.Prev()
	require.Equal(t, 0, timer.State().Index)

	require.Equal(t, EventAdvanced, timer.Next())
	require.Equal(t, 60, timer.State().Remaining)
	require.Equal(t, EventAdvanced, timer.Next())
	timer.Prev()
	require.Equal(t, 1, timer.State().Index)
	require.Equal(t, 60, timer.State().Remaining)

	timer.Next()
	require.Equal(t, EventCompleted, timer.Next())
	require.True(t, timer.State().Completed)
	require.Equal(t, EventNone, timer.Next())

	timer.Prev()
	state := timer.State()
	require.True(t, state.Completed)
	require.Equal(t, 2, state.Index)
	require.Equal(t, 100, state.Progress)

	timer.Reset()
	state = timer.State()
	require.Equal(t, State{Index: 0, Total: 3, Remaining: 30, Progress: 0}, state)
}

func TestTimerWithoutItemsIsCompleted(t *testing.T) {
	timer := NewTimer(nil)
	require.True(t, timer.State().Completed)
	require.Equal(t, EventNone, timer.Next())
}
