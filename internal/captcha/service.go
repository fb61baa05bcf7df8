package captcha

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Challenge is what the client receives. The answer stays on the server.
type Challenge struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

// Service issues and verifies challenges.
type Service struct {
	store  Store
	ttl    time.Duration
	length int
}

// NewService constructs a Service. Non-positive ttl and length fall back to five minutes and
// DefaultLength.
func NewService(store Store, ttl time.Duration, length int) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if length <= 0 {
		length = DefaultLength
	}
	return &Service{store: store, ttl: ttl, length: length}
}

// New issues a challenge.
func (s *Service) New(ctx context.Context) (Challenge, error) {
	text := RandomText(s.length)
	image, err := DataURL(Render(text))
	if err != nil {
		return Challenge{}, err
	}
	id := uuid.NewString()
	if err := s.store.Save(ctx, id, text, s.ttl); err != nil {
		return Challenge{}, err
	}
	issuedCounter.Inc()
	return Challenge{ID: id, Image: image}, nil
}

// Verify implements domain.CaptchaVerifier. A challenge can be verified once, whatever the
// outcome; comparison ignores case and surrounding whitespace.
func (s *Service) Verify(ctx context.Context, id, answer string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		verifyCounter.WithLabelValues("missing").Inc()
		return false, nil
	}
	expected, ok, err := s.store.Take(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("captcha_id", id).Msg("captcha store lookup failed")
		return false, err
	}
	if !ok {
		verifyCounter.WithLabelValues("expired").Inc()
		return false, nil
	}
	if strings.TrimSpace(answer) == "" {
		verifyCounter.WithLabelValues("missing").Inc()
		return false, nil
	}
	if !strings.EqualFold(strings.TrimSpace(answer), expected) {
		verifyCounter.WithLabelValues("mismatch").Inc()
		return false, nil
	}
	verifyCounter.WithLabelValues("ok").Inc()
	return true, nil
}
