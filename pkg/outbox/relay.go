package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/rpg-market/pkg/db/models"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	defaultBatchSize   = 50
	defaultMaxAttempts = 10
)

// Publisher delivers a serialized message to a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

type relayRepository interface {
	FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, err error) error
}

type RelayParams struct {
	Repository  relayRepository
	Publisher   Publisher
	Logger      *logger.Logger
	Channel     string
	BatchSize   int
	MaxAttempts int
}

// Relay moves committed outbox rows onto the events channel.
type Relay struct {
	repo        relayRepository
	pub         Publisher
	logg        *logger.Logger
	channel     string
	batchSize   int
	maxAttempts int
	now         func() time.Time
}

func NewRelay(params RelayParams) (*Relay, error) {
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if params.Channel == "" {
		return nil, errors.New("channel is required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	attempts := params.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	return &Relay{
		repo:        params.Repository,
		pub:         params.Publisher,
		logg:        params.Logger,
		channel:     params.Channel,
		batchSize:   batch,
		maxAttempts: attempts,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// RelayBatch publishes one batch. Failed events are marked and retried on the
// next batch until they run out of attempts.
func (r *Relay) RelayBatch(ctx context.Context) (int, error) {
	events, err := r.repo.FetchUnpublished(ctx, r.batchSize, r.maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("fetch unpublished: %w", err)
	}

	published := 0
	var errs error
	for _, event := range events {
		if err := r.publish(ctx, event); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("event %s: %w", event.ID, err))
			if markErr := r.repo.MarkFailed(ctx, event.ID, err); markErr != nil {
				errs = multierr.Append(errs, fmt.Errorf("mark failed %s: %w", event.ID, markErr))
			}
			if r.logg != nil {
				logCtx := r.logg.WithFields(ctx, map[string]any{
					"event_id":      event.ID.String(),
					"event_type":    event.EventType,
					"attempt_count": event.AttemptCount + 1,
				})
				r.logg.Warn(logCtx, "outbox publish failed")
			}
			continue
		}
		if err := r.repo.MarkPublished(ctx, event.ID, r.now()); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mark published %s: %w", event.ID, err))
			continue
		}
		published++
	}
	return published, errs
}

func (r *Relay) publish(ctx context.Context, event models.OutboxEvent) error {
	body, err := json.Marshal(Message{
		ID:            event.ID,
		EventType:     string(event.EventType),
		AggregateType: string(event.AggregateType),
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
	})
	if err != nil {
		return err
	}
	_, err = r.pub.Publish(ctx, r.channel, body)
	return err
}
