package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/rpg-market/internal/listings"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/metrics"
)

const (
	auctionCloserName       = "auction-closer"
	defaultCloserBatchSize  = 100
	defaultCloserMaxBatches = 10
)

type auctionCloser interface {
	CloseDueAuctions(ctx context.Context, limit int) (listings.CloseSummary, error)
}

type AuctionCloserJobParams struct {
	Logger     *logger.Logger
	Closer     auctionCloser
	Metrics    *metrics.CronJobMetrics
	BatchSize  int
	MaxBatches int
}

// NewAuctionCloserJob closes every auction whose end time has passed. A
// cycle drains up to MaxBatches batches so a backlog clears quickly without
// holding the lock indefinitely.
func NewAuctionCloserJob(params AuctionCloserJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Closer == nil {
		return nil, fmt.Errorf("auction closer required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultCloserBatchSize
	}
	maxBatches := params.MaxBatches
	if maxBatches <= 0 {
		maxBatches = defaultCloserMaxBatches
	}
	return &auctionCloserJob{
		logg:       params.Logger,
		closer:     params.Closer,
		metrics:    params.Metrics,
		batch:      batch,
		maxBatches: maxBatches,
	}, nil
}

type auctionCloserJob struct {
	logg       *logger.Logger
	closer     auctionCloser
	metrics    *metrics.CronJobMetrics
	batch      int
	maxBatches int
}

func (j *auctionCloserJob) Name() string { return auctionCloserName }

func (j *auctionCloserJob) Run(ctx context.Context) error {
	var total listings.CloseSummary
	for i := 0; i < j.maxBatches; i++ {
		sum, err := j.closer.CloseDueAuctions(ctx, j.batch)
		total.Due += sum.Due
		total.Sold += sum.Sold
		total.NoBids += sum.NoBids
		total.Skipped += sum.Skipped
		total.Failed += sum.Failed
		if err != nil {
			j.report(ctx, total)
			return fmt.Errorf("close due auctions: %w", err)
		}
		// a short batch means nothing else is due; skipped rows would be
		// fetched again, so they also end the cycle
		if sum.Due < j.batch || sum.Sold+sum.NoBids == 0 {
			break
		}
	}
	j.report(ctx, total)
	return nil
}

func (j *auctionCloserJob) report(ctx context.Context, sum listings.CloseSummary) {
	j.metrics.ObserveItems(auctionCloserName, sum.Sold+sum.NoBids)
	if sum.Due == 0 {
		return
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"due":     sum.Due,
		"sold":    sum.Sold,
		"no_bids": sum.NoBids,
		"skipped": sum.Skipped,
		"failed":  sum.Failed,
	}), "auction.close_cycle")
}
