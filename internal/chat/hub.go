// Package chat pushes course chat changes to WebSocket subscribers.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"example.com/fitcoach/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Poster stores a message written by a connected client.
type Poster interface {
	Post(ctx context.Context, actor domain.Actor, courseID, content string) (*domain.ChatMessage, error)
}

// AuthorView is the public part of a message author.
type AuthorView struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Role      string  `json:"role"`
}

// MessageView is the JSON shape of a chat message shared by REST and WebSocket responses.
type MessageView struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"course_id"`
	CourseTitle string     `json:"course_title,omitempty"`
	UserID      string     `json:"user_id"`
	Content     string     `json:"content"`
	IsModerated bool       `json:"is_moderated"`
	CreatedAt   time.Time  `json:"created_at"`
	Author      AuthorView `json:"author"`
}

// NewMessageView renders m, substituting the anonymous author when the author is unknown.
func NewMessageView(m domain.ChatMessage) MessageView {
	author := m.AuthorOrAnonymous()
	return MessageView{
		ID:          m.ID,
		CourseID:    m.CourseID,
		CourseTitle: m.CourseTitle,
		UserID:      m.UserID,
		Content:     m.Content,
		IsModerated: m.IsModerated,
		CreatedAt:   m.CreatedAt,
		Author: AuthorView{
			ID:        author.ID,
			Username:  author.Username,
			AvatarURL: author.AvatarURL,
			Role:      string(author.Role),
		},
	}
}

// Frame is a server to client WebSocket message.
type Frame struct {
	Type    string       `json:"type"`
	Message *MessageView `json:"message,omitempty"`
	Detail  string       `json:"detail,omitempty"`
}

type inbound struct {
	Content string `json:"content"`
}

type client struct {
	courseID string
	send     chan []byte
}

// Hub tracks one room of WebSocket clients per course.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHub constructs a Hub. allowedOrigin of "*" accepts any origin; requests without an
// Origin header are always accepted.
func NewHub(allowedOrigin string, logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*client]struct{}),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
	}
}

// Broadcast implements domain.ChatNotifier.
func (h *Hub) Broadcast(courseID string, event domain.ChatEvent) {
	view := NewMessageView(event.Message)
	data, err := json.Marshal(Frame{Type: event.Type, Message: &view})
	if err != nil {
		h.logger.Error().Err(err).Msg("encode chat frame")
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.rooms[courseID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	framesCounter.WithLabelValues(event.Type).Inc()

	for _, c := range slow {
		h.logger.Warn().Str("course_id", courseID).Msg("dropping slow chat subscriber")
		h.unregister(c)
	}
}

// Clients returns the number of subscribers in a course room.
func (h *Hub) Clients(courseID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[courseID])
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.courseID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[c.courseID] = room
	}
	room[c] = struct{}{}
	connectedGauge.Inc()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.courseID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.courseID)
	}
	close(c.send)
	connectedGauge.Dec()
}

// Serve upgrades the request and joins actor to the course room until the connection closes.
// Access must be checked before calling Serve.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, courseID string, actor domain.Actor, poster Poster) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{courseID: courseID, send: make(chan []byte, sendBuffer)}
	h.register(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(conn, c)
	}()
	h.readPump(r.Context(), conn, c, actor, poster)
	h.unregister(c)
	<-done
}

func (h *Hub) readPump(ctx context.Context, conn *websocket.Conn, c *client, actor domain.Actor, poster Poster) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in inbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Str("user_id", actor.UserID).Msg("chat connection closed")
			}
			return
		}
		if _, err := poster.Post(ctx, actor, c.courseID, in.Content); err != nil {
			h.reply(c, Frame{Type: "error", Detail: postErrorDetail(err)})
		}
	}
}

func postErrorDetail(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	case errors.Is(err, domain.ErrNotEnrolled), errors.Is(err, domain.ErrForbidden):
		return "not allowed to post in this chat"
	default:
		return "message could not be sent"
	}
}

func (h *Hub) reply(c *client, frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.rooms[c.courseID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
