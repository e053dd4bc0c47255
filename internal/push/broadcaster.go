package push

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// BroadcasterConfig holds configuration for the broadcaster.
type BroadcasterConfig struct {
	Sender Sender
	Logger zerolog.Logger

	// Concurrency bounds parallel deliveries (default: 8).
	Concurrency int
}

// Broadcaster delivers one payload to every subscription. Deliveries are
// independent: a failed endpoint never blocks or fails the others, and the
// broadcast itself never returns an error.
type Broadcaster struct {
	sender      Sender
	logger      zerolog.Logger
	concurrency int
}

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster(cfg BroadcasterConfig) *Broadcaster {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Broadcaster{
		sender:      cfg.Sender,
		logger:      cfg.Logger,
		concurrency: concurrency,
	}
}

// Broadcast sends the payload to every subscription with bounded
// concurrency and returns the per-endpoint outcomes.
func (b *Broadcaster) Broadcast(ctx context.Context, payload Payload, subs []*Subscription) Report {
	report := Report{Deliveries: make([]Delivery, len(subs))}
	if len(subs) == 0 {
		return report
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, sub := range subs {
		g.Go(func() error {
			err := b.sender.Send(ctx, sub, payload)

			mu.Lock()
			defer mu.Unlock()
			report.Deliveries[i] = Delivery{
				Endpoint: sub.Endpoint,
				Err:      err,
				Gone:     errors.Is(err, ErrEndpointGone),
			}
			if err != nil {
				report.Failed++
			} else {
				report.Succeeded++
			}
			return nil // delivery failures stay in the report
		})
	}
	_ = g.Wait()

	b.logger.Info().
		Int("subscriptions", len(subs)).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("broadcast completed")

	return report
}

// GoneEndpoints returns the endpoints the push service reported as expired.
func (r Report) GoneEndpoints() []string {
	var gone []string
	for _, d := range r.Deliveries {
		if d.Gone {
			gone = append(gone, d.Endpoint)
		}
	}
	return gone
}
