package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"example.com/fitcoach/internal/chat"
	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/observability"
	"example.com/fitcoach/internal/persistence"
)

// PostMessageRequest is the payload for POST /v1/courses/{id}/chat/messages.
type PostMessageRequest struct {
	Content string `json:"content"`
}

// Validate ensures request correctness.
func (r PostMessageRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return errors.New("content is required")
	}
	return nil
}

// MessagePage is one page of chat history, oldest first.
type MessagePage struct {
	Items      []chat.MessageView `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

func toMessageViews(messages []domain.ChatMessage) []chat.MessageView {
	out := make([]chat.MessageView, 0, len(messages))
	for _, m := range messages {
		out = append(out, chat.NewMessageView(m))
	}
	return out
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	before, err := persistence.DecodeCursor(r.URL.Query().Get("before"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	messages, next, err := h.Chat.Messages(r.Context(), actorFor(currentUser(r)), chi.URLParam(r, "courseID"), before, queryInt(r, "limit", 50))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessagePage{Items: toMessageViews(messages), NextCursor: persistence.EncodeCursor(next)})
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	msg, err := h.Chat.Post(r.Context(), actorFor(currentUser(r)), chi.URLParam(r, "courseID"), req.Content)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	observability.RecordAction(observability.ActionChatPosted)
	writeJSON(w, http.StatusCreated, chat.NewMessageView(*msg))
}

// chatSocket joins the course room over WebSocket.
func (h *Handler) chatSocket(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	actor := actorFor(currentUser(r))
	if err := h.Chat.CanAccess(r.Context(), actor, courseID); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.Hub.Serve(w, r, courseID, actor, h.Chat)
}

func (h *Handler) moderationQueue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := domain.ModerationStatus(strings.ToLower(q.Get("status")))
	switch status {
	case domain.ModerationAll, domain.ModerationModerated, domain.ModerationPending:
	default:
		writeError(w, http.StatusBadRequest, "validation_failed", "status must be moderated or pending")
		return
	}
	messages, err := h.Chat.ModerationQueue(r.Context(), actorFor(currentUser(r)), domain.ModerationFilter{
		Search:   q.Get("search"),
		CourseID: q.Get("course_id"),
		Status:   status,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toMessageViews(messages)})
}

func (h *Handler) approveMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.Chat.Approve(r.Context(), actorFor(currentUser(r)), chi.URLParam(r, "messageID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	observability.RecordAction(observability.ActionChatModerated)
	writeJSON(w, http.StatusOK, chat.NewMessageView(*msg))
}

func (h *Handler) rejectMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.Chat.Reject(r.Context(), actorFor(currentUser(r)), chi.URLParam(r, "messageID")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	observability.RecordAction(observability.ActionChatModerated)
	w.WriteHeader(http.StatusNoContent)
}
