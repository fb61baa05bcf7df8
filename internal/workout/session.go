package workout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"example.com/fitcoach/internal/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownAction   = errors.New("unknown player action")
)

// Action is a player control command.
type Action string

const (
	ActionPlay   Action = "play"
	ActionPause  Action = "pause"
	ActionToggle Action = "toggle"
	ActionNext   Action = "next"
	ActionPrev   Action = "prev"
	ActionReset  Action = "reset"
)

// CompletionFunc is called once when a session's timer completes.
type CompletionFunc func(ctx context.Context, userID string, plan domain.WorkoutPlan) error

// ExerciseView is the exercise shown by the player.
type ExerciseView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	Rest        int    `json:"rest"`
	ImageURL    string `json:"image_url,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
}

// Snapshot is the player state sent to clients.
type Snapshot struct {
	SessionID string        `json:"session_id"`
	WorkoutID string        `json:"workout_id"`
	CourseID  string        `json:"course_id"`
	Fallback  bool          `json:"fallback"`
	Exercise  *ExerciseView `json:"exercise,omitempty"`
	State
}

type session struct {
	id         string
	userID     string
	plan       domain.WorkoutPlan
	timer      *Timer
	startedAt  time.Time
	lastActive time.Time
	reported   bool
	watchers   map[chan Snapshot]struct{}
	done       chan struct{}
}

func (s *session) snapshot() Snapshot {
	state := s.timer.State()
	snap := Snapshot{
		SessionID: s.id,
		WorkoutID: s.plan.Workout.ID,
		CourseID:  s.plan.Workout.CourseID,
		Fallback:  s.plan.Fallback,
		State:     state,
	}
	if state.Index < len(s.plan.Exercises) {
		e := s.plan.Exercises[state.Index]
		snap.Exercise = &ExerciseView{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Sets:        e.Sets,
			Reps:        e.Reps,
			Rest:        e.Rest,
			ImageURL:    e.ImageURL,
			VideoURL:    e.VideoURL,
		}
	}
	return snap
}

// broadcast never blocks; slow watchers miss frames and catch up on the next one.
func (s *session) broadcast(snap Snapshot) {
	for ch := range s.watchers {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithTickInterval overrides the one second countdown interval.
func WithTickInterval(d time.Duration) Option {
	return func(m *Manager) { m.tick = d }
}

// WithIdleTTL overrides how long finished or idle sessions are kept.
func WithIdleTTL(d time.Duration) Option {
	return func(m *Manager) { m.idleTTL = d }
}

// WithLogger sets the logger used for completion failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// Manager owns the running player sessions.
type Manager struct {
	mu         sync.Mutex
	sessions   map[string]*session
	onComplete CompletionFunc
	tick       time.Duration
	idleTTL    time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewManager constructs a Manager. Call Run to reap stale sessions.
func NewManager(onComplete CompletionFunc, opts ...Option) *Manager {
	m := &Manager{
		sessions:   make(map[string]*session),
		onComplete: onComplete,
		tick:       time.Second,
		idleTTL:    time.Hour,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start creates a paused session for userID over plan. A session the user already runs for the
// same workout is stopped and replaced.
func (m *Manager) Start(userID string, plan domain.WorkoutPlan) Snapshot {
	items := make([]Item, 0, len(plan.Exercises))
	for _, e := range plan.Exercises {
		items = append(items, Item{ID: e.ID, Rest: e.Rest})
	}
	now := m.now()
	s := &session{
		id:         uuid.NewString(),
		userID:     userID,
		plan:       plan,
		timer:      NewTimer(items),
		startedAt:  now,
		lastActive: now,
		watchers:   make(map[chan Snapshot]struct{}),
		done:       make(chan struct{}),
	}

	m.mu.Lock()
	for _, existing := range m.sessions {
		if existing.userID == userID && existing.plan.Workout.ID == plan.Workout.ID {
			m.removeLocked(existing)
		}
	}
	m.sessions[s.id] = s
	snap := s.snapshot()
	m.mu.Unlock()

	activeSessions.Inc()
	go m.run(s)
	return snap
}

func (m *Manager) lookup(id, userID string) (*session, error) {
	s, ok := m.sessions[id]
	if !ok || s.userID != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Get returns the current snapshot of the caller's session.
func (m *Manager) Get(id, userID string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(), nil
}

// Control applies action to the caller's session and returns the resulting snapshot.
func (m *Manager) Control(ctx context.Context, id, userID string, action Action) (Snapshot, error) {
	m.mu.Lock()
	s, err := m.lookup(id, userID)
	if err != nil {
		m.mu.Unlock()
		return Snapshot{}, err
	}
	switch action {
	case ActionPlay:
		s.timer.Play()
	case ActionPause:
		s.timer.Pause()
	case ActionToggle:
		s.timer.Toggle()
	case ActionNext:
		s.timer.Next()
	case ActionPrev:
		s.timer.Prev()
	case ActionReset:
		s.timer.Reset()
	default:
		m.mu.Unlock()
		return Snapshot{}, ErrUnknownAction
	}
	s.lastActive = m.now()
	snap := s.snapshot()
	s.broadcast(snap)
	report := m.claimCompletion(s)
	m.mu.Unlock()

	if report {
		m.report(ctx, s)
	}
	return snap, nil
}

// Subscribe streams snapshots of the caller's session. The returned func releases the stream.
func (m *Manager) Subscribe(id, userID string) (<-chan Snapshot, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id, userID)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan Snapshot, 8)
	s.watchers[ch] = struct{}{}
	ch <- s.snapshot()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := s.watchers[ch]; ok {
				delete(s.watchers, ch)
				close(ch)
			}
		})
	}
	return ch, cancel, nil
}

// Stop ends the caller's session.
func (m *Manager) Stop(id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id, userID)
	if err != nil {
		return err
	}
	m.removeLocked(s)
	return nil
}

// Reap removes sessions untouched for longer than the idle TTL and returns how many it removed.
func (m *Manager) Reap() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-m.idleTTL)
	removed := 0
	for _, s := range m.sessions {
		if s.lastActive.Before(cutoff) {
			m.removeLocked(s)
			removed++
		}
	}
	return removed
}

// Run reaps stale sessions every few minutes until ctx is done, then stops every session.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			for _, s := range m.sessions {
				m.removeLocked(s)
			}
			m.mu.Unlock()
			return
		case <-ticker.C:
			if n := m.Reap(); n > 0 {
				m.logger.Debug().Int("sessions", n).Msg("reaped workout sessions")
			}
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) removeLocked(s *session) {
	delete(m.sessions, s.id)
	close(s.done)
	for ch := range s.watchers {
		delete(s.watchers, ch)
		close(ch)
	}
	activeSessions.Dec()
}

func (m *Manager) run(s *session) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			event := s.timer.Tick()
			if event == EventNone {
				m.mu.Unlock()
				continue
			}
			s.lastActive = m.now()
			s.broadcast(s.snapshot())
			report := m.claimCompletion(s)
			m.mu.Unlock()

			if report {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				m.report(ctx, s)
				cancel()
			}
		}
	}
}

// claimCompletion reports whether the caller should run the completion hook. Callers hold m.mu.
func (m *Manager) claimCompletion(s *session) bool {
	if !s.timer.State().Completed || s.reported {
		return false
	}
	s.reported = true
	return true
}

func (m *Manager) report(ctx context.Context, s *session) {
	completedSessions.Inc()
	if m.onComplete == nil {
		return
	}
	if err := m.onComplete(ctx, s.userID, s.plan); err != nil {
		m.logger.Error().Err(err).Str("session_id", s.id).Str("workout_id", s.plan.Workout.ID).Msg("record workout completion")
	}
}
