// Package memory provides an in-process implementation of every domain repository for local
// development and tests. It emits no outbox events.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/fitcoach/internal/domain"
)

type userRecord struct {
	user domain.User
	hash string
}

type pairKey struct {
	userID   string
	courseID string
}

// Store keeps all coaching data in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	users        map[string]userRecord
	resets       map[string]domain.ResetToken
	courses      map[string]domain.Course
	workouts     map[string]domain.Workout
	exercises    map[string][]domain.Exercise
	enrollments  map[pairKey]bool
	progress     map[pairKey]domain.Progress
	completions  []domain.WorkoutCompletion
	favorites    map[pairKey]time.Time
	ratings      map[pairKey]domain.Rating
	messages     map[string]domain.ChatMessage
	logs         map[string]domain.NutritionLog
	achievements map[string]domain.Achievement
	earned       map[pairKey]domain.UserAchievement
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]userRecord),
		resets:       make(map[string]domain.ResetToken),
		courses:      make(map[string]domain.Course),
		workouts:     make(map[string]domain.Workout),
		exercises:    make(map[string][]domain.Exercise),
		enrollments:  make(map[pairKey]bool),
		progress:     make(map[pairKey]domain.Progress),
		favorites:    make(map[pairKey]time.Time),
		ratings:      make(map[pairKey]domain.Rating),
		messages:     make(map[string]domain.ChatMessage),
		logs:         make(map[string]domain.NutritionLog),
		achievements: make(map[string]domain.Achievement),
		earned:       make(map[pairKey]domain.UserAchievement),
	}
}

// CreateUser implements domain.UserRepository.
func (s *Store) CreateUser(_ context.Context, user domain.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.users {
		if rec.user.Email == user.Email {
			return fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	s.users[user.ID] = userRecord{user: user, hash: passwordHash}
	return nil
}

// GetUser implements domain.UserRepository.
func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	u := rec.user
	return &u, nil
}

// GetUserByEmail implements domain.UserRepository.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.users {
		if rec.user.Email == email {
			u := rec.user
			return &u, rec.hash, nil
		}
	}
	return nil, "", nil
}

// UpsertOAuthUser implements domain.UserRepository.
func (s *Store) UpsertOAuthUser(_ context.Context, user domain.User) (*domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.users {
		if rec.user.Email == user.Email {
			if rec.user.AvatarURL == nil {
				rec.user.AvatarURL = user.AvatarURL
			}
			if rec.user.FullName == nil {
				rec.user.FullName = user.FullName
			}
			rec.user.UpdatedAt = user.UpdatedAt
			s.users[id] = rec
			u := rec.user
			return &u, false, nil
		}
	}
	s.users[user.ID] = userRecord{user: user}
	u := user
	return &u, true, nil
}

// UpdateProfile implements domain.UserRepository.
func (s *Store) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate, now time.Time) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	if update.Username != nil {
		rec.user.Username = *update.Username
	}
	if update.FullName != nil {
		rec.user.FullName = update.FullName
	}
	if update.AvatarURL != nil {
		rec.user.AvatarURL = update.AvatarURL
	}
	if update.Weight != nil {
		rec.user.Weight = update.Weight
	}
	if update.Height != nil {
		rec.user.Height = update.Height
	}
	if update.Goal != nil {
		rec.user.Goal = update.Goal
	}
	rec.user.UpdatedAt = now
	s.users[id] = rec
	u := rec.user
	return &u, nil
}

// UpdateUserByAdmin implements domain.UserRepository.
func (s *Store) UpdateUserByAdmin(_ context.Context, id string, update domain.AdminUserUpdate, now time.Time) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	if update.Username != nil {
		rec.user.Username = *update.Username
	}
	if update.FullName != nil {
		rec.user.FullName = update.FullName
	}
	if update.Role != nil {
		rec.user.Role = *update.Role
	}
	if update.IsBlocked != nil {
		rec.user.IsBlocked = *update.IsBlocked
	}
	rec.user.UpdatedAt = now
	s.users[id] = rec
	u := rec.user
	return &u, nil
}

// DeleteUser implements domain.UserRepository.
func (s *Store) DeleteUser(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	delete(s.users, id)
	return true, nil
}

// ListUsers implements domain.UserRepository.
func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, rec.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// SetPasswordHash implements domain.UserRepository.
func (s *Store) SetPasswordHash(_ context.Context, id, hash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.hash = hash
	rec.user.UpdatedAt = now
	s.users[id] = rec
	return nil
}

// SetOnboardingSeen implements domain.UserRepository.
func (s *Store) SetOnboardingSeen(_ context.Context, id string, seen bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.user.HasSeenOnboarding = seen
	rec.user.UpdatedAt = now
	s.users[id] = rec
	return nil
}

// GetAuthors implements domain.UserRepository.
func (s *Store) GetAuthors(_ context.Context, ids []string) (map[string]domain.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authorsLocked(ids), nil
}

func (s *Store) authorsLocked(ids []string) map[string]domain.Author {
	out := make(map[string]domain.Author, len(ids))
	for _, id := range ids {
		if rec, ok := s.users[id]; ok {
			out[id] = domain.Author{ID: id, Username: rec.user.Username, AvatarURL: rec.user.AvatarURL, Role: rec.user.Role}
		}
	}
	return out
}

// CreateResetToken implements domain.ResetTokenRepository.
func (s *Store) CreateResetToken(_ context.Context, token domain.ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[token.TokenHash] = token
	return nil
}

// ConsumeResetToken implements domain.ResetTokenRepository.
func (s *Store) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.resets[tokenHash]
	if !ok {
		return "", nil
	}
	delete(s.resets, tokenHash)
	if !token.ExpiresAt.After(now) {
		return "", nil
	}
	return token.UserID, nil
}

// PurgeExpiredResetTokens implements domain.ResetTokenRepository.
func (s *Store) PurgeExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for hash, token := range s.resets {
		if !token.ExpiresAt.After(now) {
			delete(s.resets, hash)
			n++
		}
	}
	return n, nil
}

// ListCourses implements domain.CourseRepository.
func (s *Store) ListCourses(_ context.Context) ([]domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetCourse implements domain.CourseRepository.
func (s *Store) GetCourse(_ context.Context, id string) (*domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// CreateCourse implements domain.CourseRepository.
func (s *Store) CreateCourse(_ context.Context, course domain.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[course.ID] = course
	return nil
}

// UpdateCourse implements domain.CourseRepository.
func (s *Store) UpdateCourse(_ context.Context, course domain.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.ID]; !ok {
		return domain.ErrNotFound
	}
	s.courses[course.ID] = course
	return nil
}

// DeleteCourse implements domain.CourseRepository. Dependent rows go with it.
func (s *Store) DeleteCourse(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return false, nil
	}
	delete(s.courses, id)
	for wid, w := range s.workouts {
		if w.CourseID == id {
			delete(s.exercises, wid)
			delete(s.workouts, wid)
		}
	}
	for key := range s.enrollments {
		if key.courseID == id {
			delete(s.enrollments, key)
			delete(s.progress, key)
		}
	}
	for key := range s.favorites {
		if key.courseID == id {
			delete(s.favorites, key)
		}
	}
	for key := range s.ratings {
		if key.courseID == id {
			delete(s.ratings, key)
		}
	}
	for mid, m := range s.messages {
		if m.CourseID == id {
			delete(s.messages, mid)
		}
	}
	return true, nil
}

// GetCourseWorkout implements domain.CourseRepository.
func (s *Store) GetCourseWorkout(_ context.Context, courseID string) (*domain.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *domain.Workout
	for _, w := range s.workouts {
		if w.CourseID != courseID {
			continue
		}
		if found == nil || w.Day < found.Day {
			w := w
			found = &w
		}
	}
	return found, nil
}

// GetWorkout implements domain.CourseRepository.
func (s *Store) GetWorkout(_ context.Context, id string) (*domain.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workouts[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

// CreateWorkout implements domain.CourseRepository.
func (s *Store) CreateWorkout(_ context.Context, workout domain.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workouts {
		if w.CourseID == workout.CourseID {
			return fmt.Errorf("%w: course already has a workout", domain.ErrConflict)
		}
	}
	s.workouts[workout.ID] = workout
	return nil
}

// ListExercises implements domain.CourseRepository.
func (s *Store) ListExercises(_ context.Context, workoutID string) ([]domain.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]domain.Exercise(nil), s.exercises[workoutID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

// CreateExercise implements domain.CourseRepository.
func (s *Store) CreateExercise(_ context.Context, exercise domain.Exercise) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exercises[exercise.WorkoutID] = append(s.exercises[exercise.WorkoutID], exercise)
	return nil
}

// EnrollmentCount implements domain.CourseRepository.
func (s *Store) EnrollmentCount(_ context.Context, courseID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for key, active := range s.enrollments {
		if key.courseID == courseID && active {
			n++
		}
	}
	return n, nil
}

// AddFavorite implements domain.FavoriteRepository.
func (s *Store) AddFavorite(_ context.Context, userID, courseID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{userID, courseID}
	if _, ok := s.favorites[key]; !ok {
		s.favorites[key] = now
	}
	return nil
}

// RemoveFavorite implements domain.FavoriteRepository.
func (s *Store) RemoveFavorite(_ context.Context, userID, courseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.favorites, pairKey{userID, courseID})
	return nil
}

// IsFavorite implements domain.FavoriteRepository.
func (s *Store) IsFavorite(_ context.Context, userID, courseID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[pairKey{userID, courseID}]
	return ok, nil
}

// ListFavoriteCourseIDs implements domain.FavoriteRepository.
func (s *Store) ListFavoriteCourseIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for key := range s.favorites {
		if key.userID == userID {
			out = append(out, key.courseID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// UpsertRating implements domain.RatingRepository.
func (s *Store) UpsertRating(_ context.Context, rating domain.Rating) (domain.RatingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[pairKey{rating.UserID, rating.CourseID}] = rating
	return s.recomputeLocked(rating.CourseID), nil
}

// RecomputeRatings implements domain.RatingRepository.
func (s *Store) RecomputeRatings(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.courses {
		s.recomputeLocked(id)
	}
	return int64(len(s.courses)), nil
}

func (s *Store) recomputeLocked(courseID string) domain.RatingSummary {
	var sum, count int
	for key, r := range s.ratings {
		if key.courseID == courseID {
			sum += r.Score
			count++
		}
	}
	summary := domain.RatingSummary{RatingsCount: count}
	if count > 0 {
		summary.AvgRating = math.Round(float64(sum)/float64(count)*100) / 100
	}
	if c, ok := s.courses[courseID]; ok {
		c.AvgRating = summary.AvgRating
		c.RatingsCount = summary.RatingsCount
		s.courses[courseID] = c
	}
	return summary
}

// Enroll implements domain.ProgressRepository.
func (s *Store) Enroll(_ context.Context, userID, courseID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{userID, courseID}
	if _, ok := s.enrollments[key]; ok {
		return fmt.Errorf("%w: already enrolled", domain.ErrConflict)
	}
	s.enrollments[key] = true
	s.progress[key] = domain.Progress{
		ID:         uuid.NewString(),
		UserID:     userID,
		CourseID:   courseID,
		CurrentDay: 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return nil
}

// IsEnrolled implements domain.ProgressRepository.
func (s *Store) IsEnrolled(_ context.Context, userID, courseID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enrollments[pairKey{userID, courseID}], nil
}

func (s *Store) decorateLocked(p domain.Progress) domain.Progress {
	if c, ok := s.courses[p.CourseID]; ok {
		p.CourseTitle = c.Title
		p.CourseDuration = c.Duration
	}
	return p
}

// GetProgress implements domain.ProgressRepository.
func (s *Store) GetProgress(_ context.Context, userID, courseID string) (*domain.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[pairKey{userID, courseID}]
	if !ok {
		return nil, nil
	}
	p = s.decorateLocked(p)
	return &p, nil
}

// SetCompleted implements domain.ProgressRepository.
func (s *Store) SetCompleted(_ context.Context, userID, courseID string, completed bool, now time.Time) (*domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{userID, courseID}
	p, ok := s.progress[key]
	if !ok {
		return nil, nil
	}
	p.Completed = completed
	p.UpdatedAt = now
	s.progress[key] = p
	p = s.decorateLocked(p)
	return &p, nil
}

// RecordWorkoutCompletion implements domain.ProgressRepository.
func (s *Store) RecordWorkoutCompletion(_ context.Context, c domain.WorkoutCompletion) (*domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{c.UserID, c.CourseID}
	p, ok := s.progress[key]
	if !ok {
		return nil, domain.ErrNotEnrolled
	}
	p.Completed = true
	p.CompletedWorkouts++
	p.CompletedExercises += c.ExerciseCount
	p.UpdatedAt = c.CompletedAt
	s.progress[key] = p
	s.completions = append(s.completions, c)
	p = s.decorateLocked(p)
	return &p, nil
}

// ListProgress implements domain.ProgressRepository.
func (s *Store) ListProgress(_ context.Context, userID string) ([]domain.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Progress
	for key, p := range s.progress {
		if key.userID == userID {
			out = append(out, s.decorateLocked(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// ListCompletions implements domain.ProgressRepository.
func (s *Store) ListCompletions(_ context.Context, userID string, since time.Time) ([]domain.WorkoutCompletion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.WorkoutCompletion
	for _, c := range s.completions {
		if c.UserID == userID && !c.CompletedAt.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) joinLocked(m domain.ChatMessage) domain.ChatMessage {
	if a, ok := s.authorsLocked([]string{m.UserID})[m.UserID]; ok {
		m.Author = a
	} else {
		m.Author = domain.Author{}
	}
	if c, ok := s.courses[m.CourseID]; ok {
		m.CourseTitle = c.Title
	}
	return m
}

func (s *Store) sortedMessagesLocked(keep func(domain.ChatMessage) bool) []domain.ChatMessage {
	var out []domain.ChatMessage
	for _, m := range s.messages {
		if keep(m) {
			out = append(out, s.joinLocked(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ListMessages implements domain.ChatRepository. The page holds the newest limit messages
// older than before, in ascending order; the returned cursor points at the oldest of them.
func (s *Store) ListMessages(_ context.Context, courseID string, before *domain.Cursor, limit int) ([]domain.ChatMessage, *domain.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.sortedMessagesLocked(func(m domain.ChatMessage) bool {
		if m.CourseID != courseID {
			return false
		}
		if before == nil {
			return true
		}
		return m.CreatedAt.Before(before.CreatedAt) || (m.CreatedAt.Equal(before.CreatedAt) && m.ID < before.ID)
	})
	if len(all) <= limit {
		return all, nil, nil
	}
	page := all[len(all)-limit:]
	return page, &domain.Cursor{CreatedAt: page[0].CreatedAt, ID: page[0].ID}, nil
}

// CreateMessage implements domain.ChatRepository.
func (s *Store) CreateMessage(_ context.Context, message domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[message.ID] = message
	return nil
}

// GetMessage implements domain.ChatRepository.
func (s *Store) GetMessage(_ context.Context, id string) (*domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	m = s.joinLocked(m)
	return &m, nil
}

// ListAllMessages implements domain.ChatRepository.
func (s *Store) ListAllMessages(_ context.Context) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedMessagesLocked(func(domain.ChatMessage) bool { return true }), nil
}

// ApproveMessage implements domain.ChatRepository.
func (s *Store) ApproveMessage(_ context.Context, id, _ string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return false, nil
	}
	m.IsModerated = true
	s.messages[id] = m
	return true, nil
}

// DeleteMessage implements domain.ChatRepository.
func (s *Store) DeleteMessage(_ context.Context, id, _ string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return false, nil
	}
	delete(s.messages, id)
	return true, nil
}

// AddLog implements domain.NutritionRepository.
func (s *Store) AddLog(_ context.Context, log domain.NutritionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[log.ID] = log
	return nil
}

// ListLogs implements domain.NutritionRepository.
func (s *Store) ListLogs(_ context.Context, userID, date string) ([]domain.NutritionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.NutritionLog
	for _, l := range s.logs {
		if l.UserID == userID && (date == "" || l.Date == date) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteLog implements domain.NutritionRepository.
func (s *Store) DeleteLog(_ context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[id]
	if !ok || l.UserID != userID {
		return false, nil
	}
	delete(s.logs, id)
	return true, nil
}

// ListAchievements implements domain.AchievementRepository.
func (s *Store) ListAchievements(_ context.Context) ([]domain.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Achievement, 0, len(s.achievements))
	for _, a := range s.achievements {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type == out[j].Type {
			return out[i].RequiredValue < out[j].RequiredValue
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

// UpsertAchievement implements domain.AchievementRepository. Titles are unique.
func (s *Store) UpsertAchievement(_ context.Context, a domain.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.achievements {
		if strings.EqualFold(existing.Title, a.Title) {
			a.ID = id
			a.CreatedAt = existing.CreatedAt
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.achievements[a.ID] = a
	return nil
}

// ListUserAchievements implements domain.AchievementRepository.
func (s *Store) ListUserAchievements(_ context.Context, userID string) ([]domain.UserAchievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.UserAchievement
	for key, ua := range s.earned {
		if key.userID == userID {
			ua.Achievement = s.achievements[ua.AchievementID]
			out = append(out, ua)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AchievementID < out[j].AchievementID })
	return out, nil
}

// SaveUserAchievements implements domain.AchievementRepository.
func (s *Store) SaveUserAchievements(_ context.Context, userID string, updated []domain.UserAchievement, _ []domain.UserAchievement, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ua := range updated {
		if ua.ID == "" {
			ua.ID = uuid.NewString()
		}
		ua.UserID = userID
		s.earned[pairKey{userID, ua.AchievementID}] = ua
	}
	return nil
}
