package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/fitcoach/internal/domain"
)

type recordingPoster struct {
	mu    sync.Mutex
	posts []string
	err   error
}

func (p *recordingPoster) Post(_ context.Context, actor domain.Actor, courseID, content string) (*domain.ChatMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.posts = append(p.posts, actor.UserID+"@"+courseID+":"+content)
	return &domain.ChatMessage{ID: "m", CourseID: courseID, Content: content}, nil
}

func (p *recordingPoster) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.posts...)
}

func startHub(t *testing.T, poster Poster) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub("*", zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, "course-1", domain.Actor{UserID: "u-1", Role: domain.RoleUser}, poster)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Clients("course-1") == 1 }, 2*time.Second, 10*time.Millisecond)
	return hub, conn
}

func TestHubBroadcastsToCourseRoom(t *testing.T) {
	hub, conn := startHub(t, &recordingPoster{})

	hub.Broadcast("course-2", domain.ChatEvent{Type: domain.ChatEventCreated, Message: domain.ChatMessage{ID: "other"}})
	hub.Broadcast("course-1", domain.ChatEvent{Type: domain.ChatEventCreated, Message: domain.ChatMessage{
		ID:       "m-1",
		CourseID: "course-1",
		UserID:   "ghost",
		Content:  "hello",
	}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, domain.ChatEventCreated, frame.Type)
	require.NotNil(t, frame.Message)
	require.Equal(t, "m-1", frame.Message.ID)
	require.Equal(t, domain.AnonymousUsername, frame.Message.Author.Username)
}

func TestHubPostsIncomingFrames(t *testing.T) {
	poster := &recordingPoster{}
	_, conn := startHub(t, poster)

	require.NoError(t, conn.WriteJSON(map[string]string{"content": "on my way"}))
	require.Eventually(t, func() bool {
		posts := poster.snapshot()
		return len(posts) == 1 && posts[0] == "u-1@course-1:on my way"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubRepliesWithErrorFrame(t *testing.T) {
	_, conn := startHub(t, &recordingPoster{err: domain.ErrNotEnrolled})

	require.NoError(t, conn.WriteJSON(map[string]string{"content": "hi"}))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "error", frame.Type)
	require.Equal(t, "not allowed to post in this chat", frame.Detail)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, conn := startHub(t, &recordingPoster{})
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients("course-1") == 0 }, 2*time.Second, 10*time.Millisecond)
}
