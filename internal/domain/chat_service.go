package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Chat event kinds pushed to course rooms.
const (
	ChatEventCreated  = "message.created"
	ChatEventApproved = "message.approved"
	ChatEventDeleted  = "message.deleted"
)

// ChatEvent is a change pushed to everyone watching a course chat.
type ChatEvent struct {
	Type    string
	Message ChatMessage
}

// ChatNotifier fans chat changes out to live subscribers.
type ChatNotifier interface {
	Broadcast(courseID string, event ChatEvent)
}

// Actor identifies the caller of a role-sensitive operation.
type Actor struct {
	UserID string
	Role   Role
}

// ChatService handles course chat and its moderation.
type ChatService struct {
	chat     ChatRepository
	progress ProgressRepository
	notifier ChatNotifier
}

// NewChatService constructs a ChatService.
func NewChatService(chat ChatRepository, progress ProgressRepository, notifier ChatNotifier) *ChatService {
	return &ChatService{chat: chat, progress: progress, notifier: notifier}
}

// CanAccess reports whether actor may read and post in the course chat.
func (s *ChatService) CanAccess(ctx context.Context, actor Actor, courseID string) error {
	if actor.Role.CanModerate() {
		return nil
	}
	enrolled, err := s.progress.IsEnrolled(ctx, actor.UserID, courseID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}

// Messages returns a page of course messages in ascending time order, ending before the cursor.
func (s *ChatService) Messages(ctx context.Context, actor Actor, courseID string, before *Cursor, limit int) ([]ChatMessage, *Cursor, error) {
	if err := s.CanAccess(ctx, actor, courseID); err != nil {
		return nil, nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.chat.ListMessages(ctx, courseID, before, limit)
}

// Post stores a message from actor and broadcasts it to the course room.
func (s *ChatService) Post(ctx context.Context, actor Actor, courseID, content string) (*ChatMessage, error) {
	content, err := NormalizeMessageContent(content)
	if err != nil {
		return nil, err
	}
	if err := s.CanAccess(ctx, actor, courseID); err != nil {
		return nil, err
	}

	msg := ChatMessage{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		UserID:    actor.UserID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chat.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	stored, err := s.chat.GetMessage(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		msg = *stored
	}
	s.notifier.Broadcast(courseID, ChatEvent{Type: ChatEventCreated, Message: msg})
	return &msg, nil
}

// ModerationQueue lists every message matching f.
func (s *ChatService) ModerationQueue(ctx context.Context, actor Actor, f ModerationFilter) ([]ChatMessage, error) {
	if !actor.Role.CanModerate() {
		return nil, ErrForbidden
	}
	messages, err := s.chat.ListAllMessages(ctx)
	if err != nil {
		return nil, err
	}
	return FilterMessages(messages, f), nil
}

// Approve marks a message as moderated.
func (s *ChatService) Approve(ctx context.Context, actor Actor, messageID string) (*ChatMessage, error) {
	if !actor.Role.CanModerate() {
		return nil, ErrForbidden
	}
	msg, err := s.chat.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrNotFound
	}
	if _, err := s.chat.ApproveMessage(ctx, messageID, actor.UserID, time.Now().UTC()); err != nil {
		return nil, err
	}
	msg.IsModerated = true
	s.notifier.Broadcast(msg.CourseID, ChatEvent{Type: ChatEventApproved, Message: *msg})
	return msg, nil
}

// Reject deletes a message.
func (s *ChatService) Reject(ctx context.Context, actor Actor, messageID string) error {
	if !actor.Role.CanModerate() {
		return ErrForbidden
	}
	msg, err := s.chat.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrNotFound
	}
	if _, err := s.chat.DeleteMessage(ctx, messageID, actor.UserID, time.Now().UTC()); err != nil {
		return err
	}
	s.notifier.Broadcast(msg.CourseID, ChatEvent{Type: ChatEventDeleted, Message: *msg})
	return nil
}
