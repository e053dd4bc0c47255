package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types accepted on the worker subscription.
const (
	JobTypeIngest         = "ingest"
	JobTypeImportRegistry = "import_registry"
	JobTypeHealthCheck    = "health_check"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	runner           *Runner
	db               Pinger
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Runner           *Runner
	DB               Pinger
	Logger           zerolog.Logger
}

// JobMessage represents a job request published to the worker topic.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// An ingest pass over the full feed can take minutes; only one job of
	// each kind should run at a time.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		runner:           cfg.Runner,
		db:               cfg.DB,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	var job JobMessage
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var err error
	switch job.JobType {
	case JobTypeIngest:
		err = h.handleIngest(ctx)
	case JobTypeImportRegistry:
		err = h.handleImportRegistry(ctx)
	case JobTypeHealthCheck:
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", job.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", job.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleIngest(ctx context.Context) error {
	summary, err := h.runner.RunIngest(ctx)
	if err != nil {
		return err
	}

	h.logger.Info().
		Int("updated", summary.Updated).
		Int("changed", summary.Changed).
		Msg("ingest job completed")
	return nil
}

func (h *PubSubHandler) handleImportRegistry(ctx context.Context) error {
	result, err := h.runner.RunImport(ctx)
	if err != nil {
		return err
	}

	h.logger.Info().
		Int("upserted", result.Upserted).
		Int("skipped", result.Skipped).
		Msg("registry import job completed")
	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	if h.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := h.db.Ping(pingCtx); err != nil {
			return fmt.Errorf("health check: database unreachable: %w", err)
		}
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
