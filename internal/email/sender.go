// Package email delivers transactional mail.
package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/fitcoach/internal/markdown"
)

// SendRequest contains the data needed to send an email.
type SendRequest struct {
	To      []string
	From    string
	Subject string
	HTML    string
}

// SendResult contains the provider's response.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

// LogSender logs emails instead of delivering them. Used when no provider key is configured.
type LogSender struct{}

// Send implements Sender.
func (LogSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	log.Info().Strs("to", req.To).Str("subject", req.Subject).Int("html_bytes", len(req.HTML)).Msg("email not delivered: no provider configured")
	return SendResult{MessageID: fmt.Sprintf("log-%d", time.Now().UnixNano()), SentAt: time.Now()}, nil
}

const resetTemplate = `Здравствуйте, %s!

Мы получили запрос на сброс пароля для вашего аккаунта FitCoach.
Чтобы задать новый пароль, перейдите по ссылке:

[Сбросить пароль](%s)

Ссылка действует один час. Если вы не запрашивали сброс, просто проигнорируйте это письмо.`

// ResetMailer implements domain.ResetMailer on top of a Sender.
type ResetMailer struct {
	sender Sender
	from   string
}

// NewResetMailer constructs a ResetMailer.
func NewResetMailer(sender Sender, from string) *ResetMailer {
	return &ResetMailer{sender: sender, from: from}
}

// SendPasswordReset implements domain.ResetMailer.
func (m *ResetMailer) SendPasswordReset(ctx context.Context, to, username, link string) error {
	body, err := markdown.ToHTML(fmt.Sprintf(resetTemplate, escapeMarkdown(username), link))
	if err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}
	_, err = m.sender.Send(ctx, SendRequest{
		To:      []string{to},
		From:    m.from,
		Subject: "Сброс пароля FitCoach",
		HTML:    body,
	})
	return err
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "`", "\\`",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
