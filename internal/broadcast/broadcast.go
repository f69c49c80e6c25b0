// Package broadcast delivers one payload to an explicit list of
// destinations, independently of the scheduler tick.
package broadcast

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"relay_bot/internal/model"
)

// Sender delivers a payload to a destination.
type Sender interface {
	Deliver(ctx context.Context, chatID int64, p model.Payload) error
}

// Broadcaster fans a payload out with its own pacing.
type Broadcaster struct {
	sender  Sender
	limiter *rate.Limiter
	timeout time.Duration
	log     *slog.Logger
}

// New creates a Broadcaster that waits delay between sends and bounds each
// send by timeout.
func New(sender Sender, delay, timeout time.Duration, log *slog.Logger) *Broadcaster {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Broadcaster{
		sender:  sender,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
		log:     log,
	}
}

// Send delivers p to every target and returns the number of successful
// deliveries. Failed targets are skipped.
func (b *Broadcaster) Send(ctx context.Context, targets []int64, p model.Payload) int {
	sent := 0
	for i, chatID := range targets {
		if err := b.limiter.Wait(ctx); err != nil {
			b.log.Warn("broadcast interrupted", "remaining", len(targets)-i, "error", err)
			break
		}
		if err := b.deliver(ctx, chatID, p); err != nil {
			b.log.Debug("broadcast skip", "chat_id", chatID, "error", err)
			continue
		}
		sent++
	}
	b.log.Info("broadcast finished", "targets", len(targets), "sent", sent)
	return sent
}

func (b *Broadcaster) deliver(ctx context.Context, chatID int64, p model.Payload) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.sender.Deliver(ctx, chatID, p)
}
