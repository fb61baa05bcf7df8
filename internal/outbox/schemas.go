package outbox

import platformevents "example.com/fitcoach/pkg/platform/events"

// SchemaCatalogEntry maps an event type to the JSON schema registered for its topic subject.
// Event types sharing a topic share one schema so the subject has a single compatible lineage.
type SchemaCatalogEntry struct {
	Schema string
}

var schemaCatalog = map[string]SchemaCatalogEntry{
	platformevents.TypeUserRegistered:       {Schema: userEventsSchema},
	platformevents.TypeCourseEnrolled:       {Schema: courseEventsSchema},
	platformevents.TypeCourseCompleted:      {Schema: courseEventsSchema},
	platformevents.TypeWorkoutCompleted:     {Schema: workoutEventsSchema},
	platformevents.TypeChatMessagePosted:    {Schema: chatEventsSchema},
	platformevents.TypeChatMessageModerated: {Schema: chatEventsSchema},
	platformevents.TypeNutritionLogged:      {Schema: nutritionEventsSchema},
	platformevents.TypeAchievementUnlocked:  {Schema: achievementEventsSchema},
}

const userEventsSchema = `{
  "type": "object",
  "title": "UserRegistered",
  "properties": {
    "user_id": {"type": "string"},
    "email": {"type": "string"},
    "username": {"type": "string"},
    "provider": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "email", "username", "provider", "occurred_at"]
}`

const courseEventsSchema = `{
  "type": "object",
  "title": "CourseEvent",
  "properties": {
    "user_id": {"type": "string"},
    "course_id": {"type": "string"},
    "duration_days": {"type": "integer"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "course_id", "occurred_at"]
}`

const workoutEventsSchema = `{
  "type": "object",
  "title": "WorkoutCompleted",
  "properties": {
    "user_id": {"type": "string"},
    "course_id": {"type": "string"},
    "workout_id": {"type": "string"},
    "duration_min": {"type": "integer"},
    "calories": {"type": "integer"},
    "exercise_count": {"type": "integer"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "course_id", "workout_id", "duration_min", "occurred_at"]
}`

const chatEventsSchema = `{
  "type": "object",
  "title": "ChatEvent",
  "properties": {
    "message_id": {"type": "string"},
    "course_id": {"type": "string"},
    "user_id": {"type": "string"},
    "length": {"type": "integer"},
    "moderator_id": {"type": "string"},
    "decision": {"type": "string", "enum": ["approved", "rejected"]},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["message_id", "course_id", "occurred_at"]
}`

const nutritionEventsSchema = `{
  "type": "object",
  "title": "NutritionLogged",
  "properties": {
    "log_id": {"type": "string"},
    "user_id": {"type": "string"},
    "meal_type": {"type": "string", "enum": ["breakfast", "lunch", "dinner", "snack"]},
    "calories": {"type": "integer"},
    "date": {"type": "string", "format": "date"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["log_id", "user_id", "meal_type", "calories", "date", "occurred_at"]
}`

const achievementEventsSchema = `{
  "type": "object",
  "title": "AchievementUnlocked",
  "properties": {
    "user_id": {"type": "string"},
    "achievement_id": {"type": "string"},
    "title": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "achievement_id", "title", "occurred_at"]
}`
