package domain

import (
	"strings"
	"time"
)

// AnonymousUsername is shown for messages whose author row no longer exists.
const AnonymousUsername = "Пользователь"

// MaxMessageLength bounds chat message content in characters.
const MaxMessageLength = 1000

// Author is the public projection of a user attached to chat messages.
type Author struct {
	ID        string
	Username  string
	AvatarURL *string
	Role      Role
}

// ChatMessage is a course chat entry.
type ChatMessage struct {
	ID          string
	CourseID    string
	CourseTitle string
	UserID      string
	Author      Author
	Content     string
	IsModerated bool
	CreatedAt   time.Time
}

// AuthorOrAnonymous returns the joined author, or the placeholder when the join found nothing.
func (m ChatMessage) AuthorOrAnonymous() Author {
	if m.Author.ID == "" {
		return Author{ID: m.UserID, Username: AnonymousUsername, Role: RoleUser}
	}
	return m.Author
}

// NormalizeMessageContent trims content and enforces the length bounds.
func NormalizeMessageContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalid("content", "is required")
	}
	if len([]rune(content)) > MaxMessageLength {
		return "", invalid("content", "must be at most 1000 characters")
	}
	return content, nil
}

// ModerationStatus filters messages by their moderation flag.
type ModerationStatus string

const (
	ModerationAll       ModerationStatus = ""
	ModerationModerated ModerationStatus = "moderated"
	ModerationPending   ModerationStatus = "pending"
)

// ModerationFilter narrows the moderator queue.
type ModerationFilter struct {
	Search   string
	CourseID string
	Status   ModerationStatus
}

// Match reports whether m passes every set criterion.
func (f ModerationFilter) Match(m ChatMessage) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		author := m.AuthorOrAnonymous()
		if !strings.Contains(strings.ToLower(m.Content), q) && !strings.Contains(strings.ToLower(author.Username), q) {
			return false
		}
	}
	if f.CourseID != "" && m.CourseID != f.CourseID {
		return false
	}
	switch f.Status {
	case ModerationModerated:
		return m.IsModerated
	case ModerationPending:
		return !m.IsModerated
	}
	return true
}

// FilterMessages keeps the messages matching f, preserving order.
func FilterMessages(messages []ChatMessage, f ModerationFilter) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}

// Cursor models the chat pagination token.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}
