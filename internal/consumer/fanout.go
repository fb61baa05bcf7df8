package consumer

import "context"

// FanOut runs every handler in order and stops at the first error so the record is redelivered.
// Handlers must therefore be idempotent.
type FanOut []Handler

// Handle implements Handler.
func (f FanOut) Handle(ctx context.Context, msg Message) error {
	for _, h := range f {
		if err := h.Handle(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}
