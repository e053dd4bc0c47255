package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// VAPIDConfig holds the Web Push (VAPID) credentials.
type VAPIDConfig struct {
	// Subject is the contact URI claimed in the VAPID token (mailto: or https:).
	Subject string

	// PublicKey and PrivateKey are the base64 URL-encoded VAPID key pair.
	PublicKey  string
	PrivateKey string

	// TTL is how long the push service may retain an undelivered message,
	// in seconds (default: 3600).
	TTL int
}

// WebPushSender delivers payloads over the Web Push protocol.
type WebPushSender struct {
	config VAPIDConfig
}

// NewWebPushSender creates a Web Push sender.
func NewWebPushSender(cfg VAPIDConfig) *WebPushSender {
	if cfg.TTL == 0 {
		cfg.TTL = 3600
	}
	return &WebPushSender{config: cfg}
}

// Send encrypts and delivers one payload to one subscription.
func (s *WebPushSender) Send(ctx context.Context, sub *Subscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.config.Subject,
		VAPIDPublicKey:  s.config.PublicKey,
		VAPIDPrivateKey: s.config.PrivateKey,
		TTL:             s.config.TTL,
	})
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrEndpointGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service status %d", resp.StatusCode)
	}
	return nil
}

// Ensure WebPushSender implements Sender.
var _ Sender = (*WebPushSender)(nil)
