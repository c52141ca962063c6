// Package app assembles the market services from configuration so every
// binary wires them the same way.
package app

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/rpg-market/internal/addresses"
	"github.com/angelmondragon/rpg-market/internal/analytics"
	"github.com/angelmondragon/rpg-market/internal/auth"
	"github.com/angelmondragon/rpg-market/internal/cron"
	"github.com/angelmondragon/rpg-market/internal/listings"
	"github.com/angelmondragon/rpg-market/internal/market"
	"github.com/angelmondragon/rpg-market/internal/seed"
	"github.com/angelmondragon/rpg-market/internal/transactions"
	"github.com/angelmondragon/rpg-market/internal/users"
	"github.com/angelmondragon/rpg-market/pkg/config"
	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/metrics"
	"github.com/angelmondragon/rpg-market/pkg/outbox"
)

const outboxRetentionPeriod = time.Hour

// Components holds the wired domain services.
type Components struct {
	Users        *users.Repository
	Register     auth.RegisterService
	Listings     listings.Service
	Market       market.Service
	Transactions transactions.Service
	Addresses    addresses.Service
	Analytics    analytics.Service
	Seeder       *seed.Seeder
	Outbox       *outbox.Repository
}

// Build wires the domain services on top of the database. reg may be nil, in
// which case market metrics are not exported.
func Build(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, reg prometheus.Registerer) (*Components, error) {
	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)
	emitter := outbox.NewService(outboxRepo, logg)

	register, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("register service: %w", err)
	}

	lifecycle, err := listings.NewService(listings.ServiceParams{
		DB:          dbClient,
		Outbox:      emitter,
		Metrics:     metrics.NewMarketMetrics(reg),
		Logger:      logg,
		MaxAttempts: cfg.Auction.MaxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("listing service: %w", err)
	}

	ledger, err := transactions.NewService(transactions.ServiceParams{
		DB:          dbClient,
		Outbox:      emitter,
		Logger:      logg,
		MaxAttempts: cfg.Auction.MaxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("transaction service: %w", err)
	}

	browse, err := market.NewService(market.ServiceParams{
		DB:               conn,
		EndingSoonWindow: cfg.Auction.EndingSoonWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("market service: %w", err)
	}

	addrs, err := addresses.NewService(dbClient)
	if err != nil {
		return nil, fmt.Errorf("address service: %w", err)
	}

	reports, err := analytics.NewService(analytics.ServiceParams{DB: conn})
	if err != nil {
		return nil, fmt.Errorf("analytics service: %w", err)
	}

	seeder, err := seed.New(seed.Params{
		DB:           dbClient,
		Register:     register,
		Addresses:    addrs,
		Listings:     lifecycle,
		Transactions: ledger,
		Logger:       logg,
		Config:       cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("seeder: %w", err)
	}

	return &Components{
		Users:        users.NewRepository(conn),
		Register:     register,
		Listings:     lifecycle,
		Market:       browse,
		Transactions: ledger,
		Addresses:    addrs,
		Analytics:    reports,
		Seeder:       seeder,
		Outbox:       outboxRepo,
	}, nil
}

// CronRegistry registers the background jobs. The outbox jobs are skipped
// when publisher is nil.
func (c *Components) CronRegistry(cfg *config.Config, logg *logger.Logger, publisher outbox.Publisher, jobMetrics *metrics.CronJobMetrics) (*cron.Registry, error) {
	registry := cron.NewRegistry()

	closer, err := cron.NewAuctionCloserJob(cron.AuctionCloserJobParams{
		Logger:    logg,
		Closer:    c.Listings,
		Metrics:   jobMetrics,
		BatchSize: cfg.Auction.CloserBatchSize,
	})
	if err != nil {
		return nil, err
	}
	registry.Register(closer)

	if publisher == nil {
		return registry, nil
	}

	relay, err := outbox.NewRelay(outbox.RelayParams{
		Repository:  c.Outbox,
		Publisher:   publisher,
		Logger:      logg,
		Channel:     cfg.Outbox.Channel,
		BatchSize:   cfg.Outbox.BatchSize,
		MaxAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	relayJob, err := cron.NewOutboxRelayJob(cron.OutboxRelayJobParams{Logger: logg, Relay: relay, Metrics: jobMetrics})
	if err != nil {
		return nil, err
	}
	registry.Register(relayJob)

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: c.Outbox,
		Retention:  cfg.Outbox.Retention,
	})
	if err != nil {
		return nil, err
	}
	registry.Register(cron.Every(retention, outboxRetentionPeriod))

	return registry, nil
}
