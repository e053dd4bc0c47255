// Package push stores Web Push subscriptions and fans price-change
// notifications out to them.
package push

import (
	"context"
	"errors"
	"time"
)

// Push errors.
var (
	// ErrEndpointGone marks a subscription whose endpoint no longer exists
	// (the push service answered 404/410); it should be pruned.
	ErrEndpointGone = errors.New("push endpoint gone")

	ErrSubscriptionNotFound = errors.New("push subscription not found")
)

// Keys are the client-side encryption keys of a Web Push subscription.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Filters narrows which changes a subscriber cares about. Filters are stored
// with the subscription but the broadcast policy currently ignores them and
// delivers every notification to every endpoint; honoring them is a future
// extension point.
type Filters struct {
	StationID string `json:"station_id,omitempty"`
}

// Subscription is one registered push endpoint, keyed by Endpoint.
type Subscription struct {
	Endpoint  string    `json:"endpoint"`
	Keys      Keys      `json:"keys"`
	Filters   *Filters  `json:"filters,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Payload is the notification content, identical for every subscriber of a
// broadcast.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// Repository provides access to stored subscriptions.
type Repository interface {
	// Upsert inserts or replaces a subscription keyed by endpoint.
	Upsert(ctx context.Context, s *Subscription) error

	// GetAll returns every stored subscription.
	GetAll(ctx context.Context) ([]*Subscription, error)

	// Count returns the number of stored subscriptions.
	Count(ctx context.Context) (int, error)

	// Delete removes a subscription by endpoint.
	Delete(ctx context.Context, endpoint string) error
}

// Sender delivers one payload to one subscription. One shot, no retries:
// re-delivery policy belongs to the push service, not this pipeline.
type Sender interface {
	Send(ctx context.Context, sub *Subscription, payload Payload) error
}

// Delivery records the outcome for a single subscription.
type Delivery struct {
	Endpoint string
	Err      error
	Gone     bool
}

// Report summarizes one broadcast. Partial failure is data, not an error.
type Report struct {
	Deliveries []Delivery
	Succeeded  int
	Failed     int
}
