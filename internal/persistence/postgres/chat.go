package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/fitcoach/internal/domain"
	platformevents "example.com/fitcoach/pkg/platform/events"
)

// Messages join their author and course. Missing authors scan as empty and render as anonymous.
const messageSelect = `SELECT m.message_id, m.course_id, COALESCE(c.title, ''), m.user_id, m.content, m.is_moderated, m.created_at,
        COALESCE(u.user_id::text, ''), COALESCE(u.username, ''), u.avatar_url, COALESCE(u.role, '')
    FROM chat_messages m
    LEFT JOIN users u ON u.user_id = m.user_id
    LEFT JOIN courses c ON c.course_id = m.course_id`

func scanMessage(row scanner) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	var role string
	if err := row.Scan(&m.ID, &m.CourseID, &m.CourseTitle, &m.UserID, &m.Content, &m.IsModerated, &m.CreatedAt,
		&m.Author.ID, &m.Author.Username, &m.Author.AvatarURL, &role); err != nil {
		return nil, err
	}
	m.Author.Role = domain.Role(role)
	return &m, nil
}

func collectMessages(rows pgx.Rows) ([]domain.ChatMessage, error) {
	defer rows.Close()
	out := make([]domain.ChatMessage, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// ListMessages implements domain.ChatRepository. It reads the newest page before the cursor
// and returns it in ascending order.
func (s *Store) ListMessages(ctx context.Context, courseID string, before *domain.Cursor, limit int) ([]domain.ChatMessage, *domain.Cursor, error) {
	args := []any{courseID, limit + 1}
	query := messageSelect + ` WHERE m.course_id=$1`
	if before != nil {
		query += ` AND (m.created_at, m.message_id) < ($3, $4)`
		args = append(args, before.CreatedAt, before.ID)
	}
	query += ` ORDER BY m.created_at DESC, m.message_id DESC LIMIT $2`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	page, err := collectMessages(rows)
	if err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if len(page) > limit {
		page = page[:limit]
		oldest := page[len(page)-1]
		next = &domain.Cursor{CreatedAt: oldest.CreatedAt, ID: oldest.ID}
	}
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, next, nil
}

// CreateMessage implements domain.ChatRepository.
func (s *Store) CreateMessage(ctx context.Context, m domain.ChatMessage) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO chat_messages (message_id, course_id, user_id, content, is_moderated, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
			m.ID, m.CourseID, m.UserID, m.Content, m.IsModerated, m.CreatedAt,
		); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, outboxEvent{
			EventType:   platformevents.TypeChatMessagePosted,
			AggregateID: m.ID,
			UserID:      m.UserID,
			Payload: platformevents.ChatMessagePosted{
				MessageID:  m.ID,
				CourseID:   m.CourseID,
				UserID:     m.UserID,
				Length:     len([]rune(m.Content)),
				OccurredAt: m.CreatedAt,
			},
		})
	})
}

// GetMessage implements domain.ChatRepository.
func (s *Store) GetMessage(ctx context.Context, id string) (*domain.ChatMessage, error) {
	m, err := scanMessage(s.pool.QueryRow(ctx, messageSelect+` WHERE m.message_id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// ListAllMessages implements domain.ChatRepository.
func (s *Store) ListAllMessages(ctx context.Context) ([]domain.ChatMessage, error) {
	rows, err := s.pool.Query(ctx, messageSelect+` ORDER BY m.created_at DESC, m.message_id DESC`)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func moderated(messageID, courseID, moderatorID, decision string, now time.Time) outboxEvent {
	return outboxEvent{
		EventType:   platformevents.TypeChatMessageModerated,
		AggregateID: messageID,
		UserID:      moderatorID,
		Payload: platformevents.ChatMessageModerated{
			MessageID:   messageID,
			CourseID:    courseID,
			ModeratorID: moderatorID,
			Decision:    decision,
			OccurredAt:  now,
		},
	}
}

// ApproveMessage implements domain.ChatRepository.
func (s *Store) ApproveMessage(ctx context.Context, id, moderatorID string, now time.Time) (bool, error) {
	var found bool
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var courseID string
		err := tx.QueryRow(ctx,
			`UPDATE chat_messages SET is_moderated=TRUE, moderated_by=$2, moderated_at=$3 WHERE message_id=$1 RETURNING course_id::text`,
			id, moderatorID, now,
		).Scan(&courseID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return insertOutbox(ctx, tx, moderated(id, courseID, moderatorID, "approved", now))
	})
	return found, err
}

// DeleteMessage implements domain.ChatRepository.
func (s *Store) DeleteMessage(ctx context.Context, id, moderatorID string, now time.Time) (bool, error) {
	var found bool
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var courseID string
		err := tx.QueryRow(ctx, `DELETE FROM chat_messages WHERE message_id=$1 RETURNING course_id::text`, id).Scan(&courseID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return insertOutbox(ctx, tx, moderated(id, courseID, moderatorID, "rejected", now))
	})
	return found, err
}
