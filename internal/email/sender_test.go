package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type captureSender struct {
	reqs []SendRequest
	err  error
}

func (c *captureSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	c.reqs = append(c.reqs, req)
	return SendResult{MessageID: "m-1"}, c.err
}

func TestResetMailerRendersLink(t *testing.T) {
	sender := &captureSender{}
	mailer := NewResetMailer(sender, "FitCoach <no-reply@fitcoach.local>")

	err := mailer.SendPasswordReset(context.Background(), "anna@example.com", "anna_*fit*", "https://app.example.com/reset-password?token=abc")
	require.NoError(t, err)
	require.Len(t, sender.reqs, 1)

	req := sender.reqs[0]
	require.Equal(t, []string{"anna@example.com"}, req.To)
	require.Equal(t, "FitCoach <no-reply@fitcoach.local>", req.From)
	require.Contains(t, req.HTML, `href="https://app.example.com/reset-password?token=abc"`)
	require.Contains(t, req.HTML, "anna_*fit*")
	require.NotContains(t, req.HTML, "<em>")
}

func TestResetMailerPropagatesSendError(t *testing.T) {
	mailer := NewResetMailer(&captureSender{err: errors.New("quota")}, "x@example.com")
	require.EqualError(t, mailer.SendPasswordReset(context.Background(), "a@example.com", "a", "http://l"), "quota")
}

func TestLogSenderAccepts(t *testing.T) {
	res, err := LogSender{}.Send(context.Background(), SendRequest{To: []string{"a@example.com"}, Subject: "hi"})
	require.NoError(t, err)
	require.NotEmpty(t, res.MessageID)
}
