package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/metrics"
)

const outboxRelayName = "outbox-relay"

type outboxRelay interface {
	RelayBatch(ctx context.Context) (int, error)
}

type OutboxRelayJobParams struct {
	Logger  *logger.Logger
	Relay   outboxRelay
	Metrics *metrics.CronJobMetrics
}

// NewOutboxRelayJob publishes one batch of committed domain events per cycle.
func NewOutboxRelayJob(params OutboxRelayJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Relay == nil {
		return nil, fmt.Errorf("outbox relay required")
	}
	return &outboxRelayJob{logg: params.Logger, relay: params.Relay, metrics: params.Metrics}, nil
}

type outboxRelayJob struct {
	logg    *logger.Logger
	relay   outboxRelay
	metrics *metrics.CronJobMetrics
}

func (j *outboxRelayJob) Name() string { return outboxRelayName }

func (j *outboxRelayJob) Run(ctx context.Context) error {
	published, err := j.relay.RelayBatch(ctx)
	j.metrics.ObserveItems(outboxRelayName, published)
	if published > 0 {
		j.logg.Debug(j.logg.WithField(ctx, "published", published), "outbox batch relayed")
	}
	if err != nil {
		return fmt.Errorf("relay outbox: %w", err)
	}
	return nil
}
