// Package workout runs the guided workout player: a per-exercise rest countdown and the
// server-side sessions that drive it.
package workout

import "math"

// Item is one countdown step. Rest is in seconds.
type Item struct {
	ID   string
	Rest int
}

// Event reports what a Tick did.
type Event int

const (
	EventNone Event = iota
	EventTick
	EventAdvanced
	EventCompleted
)

// Timer is the countdown state machine. It is not safe for concurrent use.
type Timer struct {
	items     []Item
	index     int
	remaining int
	playing   bool
	completed bool
}

// State is a copy of the timer's position.
type State struct {
	Index     int  `json:"index"`
	Total     int  `json:"total"`
	Remaining int  `json:"remaining"`
	Progress  int  `json:"progress"`
	Playing   bool `json:"playing"`
	Completed bool `json:"completed"`
}

// NewTimer positions a paused timer on the first item. A timer without items is already completed.
func NewTimer(items []Item) *Timer {
	t := &Timer{items: append([]Item(nil), items...)}
	t.Reset()
	return t
}

// Play starts the countdown. Completed timers stay stopped.
func (t *Timer) Play() {
	if !t.completed {
		t.playing = true
	}
}

// Pause stops the countdown without losing position.
func (t *Timer) Pause() { t.playing = false }

// Toggle flips between playing and paused.
func (t *Timer) Toggle() {
	if t.playing {
		t.Pause()
		return
	}
	t.Play()
}

// Tick advances the clock by one second. The countdown lands on zero first; the following tick
// moves to the next item, or completes the timer on the last one.
func (t *Timer) Tick() Event {
	if !t.playing || t.completed {
		return EventNone
	}
	if t.remaining > 0 {
		t.remaining--
		return EventTick
	}
	if t.index < len(t.items)-1 {
		t.moveTo(t.index + 1)
		return EventAdvanced
	}
	t.complete()
	return EventCompleted
}

// Next skips to the following item; on the last item it completes the timer.
func (t *Timer) Next() Event {
	if t.completed {
		return EventNone
	}
	if t.index < len(t.items)-1 {
		t.moveTo(t.index + 1)
		return EventAdvanced
	}
	t.complete()
	return EventCompleted
}

// Prev returns to the previous item with a fresh countdown. It is a no-op on the first item and
// once the timer has completed; Reset starts a finished timer over.
func (t *Timer) Prev() {
	if t.completed {
		return
	}
	if t.index > 0 {
		t.moveTo(t.index - 1)
	}
}

// Reset rewinds to the first item, paused and not completed.
func (t *Timer) Reset() {
	t.playing = false
	t.completed = len(t.items) == 0
	t.index = 0
	t.remaining = 0
	if len(t.items) > 0 {
		t.remaining = max(t.items[0].Rest, 0)
	}
}

// Progress is the percent of the current item's rest already elapsed.
func (t *Timer) Progress() int {
	if t.completed {
		return 100
	}
	if len(t.items) == 0 {
		return 0
	}
	rest := t.items[t.index].Rest
	if rest <= 0 {
		return 100
	}
	return int(math.Round((1 - float64(t.remaining)/float64(rest)) * 100))
}

// State returns a snapshot.
func (t *Timer) State() State {
	return State{
		Index:     t.index,
		Total:     len(t.items),
		Remaining: t.remaining,
		Progress:  t.Progress(),
		Playing:   t.playing,
		Completed: t.completed,
	}
}

func (t *Timer) moveTo(index int) {
	t.index = index
	t.remaining = max(t.items[index].Rest, 0)
}

func (t *Timer) complete() {
	t.playing = false
	t.completed = true
	t.remaining = 0
}
