package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/rpg-market/api/middleware"
	"github.com/angelmondragon/rpg-market/api/routes"
	"github.com/angelmondragon/rpg-market/internal/app"
	"github.com/angelmondragon/rpg-market/internal/auth"
	"github.com/angelmondragon/rpg-market/internal/cron"
	"github.com/angelmondragon/rpg-market/pkg/auth/session"
	"github.com/angelmondragon/rpg-market/pkg/config"
	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/metrics"
	"github.com/angelmondragon/rpg-market/pkg/migrate"
	"github.com/angelmondragon/rpg-market/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	components, err := app.Build(cfg, logg, dbClient, prometheus.DefaultRegisterer)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       components.Users,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Seed.OnBoot {
		ran, sum, err := components.Seeder.OnBoot(ctx)
		if err != nil {
			logg.Error(ctx, "boot seed failed", err)
		} else if ran {
			logg.Info(logg.WithFields(ctx, map[string]any{
				"users":    sum.Users,
				"listings": sum.Listings,
				"sales":    sum.Sales,
			}), "boot seed completed")
		}
	}

	if cfg.Auction.RunInAPI {
		go runCloser(ctx, cfg, logg, components)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Store:      redisClient,
			Sessions:   sessionManager,
			BidLimiter: middleware.NewBidRateLimiter(redisClient.Raw(), cfg.BidRateLimit.PerMinute, cfg.BidRateLimit.Burst, logg),
			Services: routes.Services{
				Auth:         authService,
				Register:     components.Register,
				Users:        components.Users,
				Market:       components.Market,
				Listings:     components.Listings,
				Transactions: components.Transactions,
				Addresses:    components.Addresses,
				Analytics:    components.Analytics,
				Seeder:       components.Seeder,
			},
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down")
}

// runCloser closes due auctions inside the API process. Outbox relaying stays
// with the cron worker.
func runCloser(ctx context.Context, cfg *config.Config, logg *logger.Logger, components *app.Components) {
	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	registry, err := components.CronRegistry(cfg, logg, nil, jobMetrics)
	if err != nil {
		logg.Error(ctx, "failed to register auction closer", err)
		return
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     &cron.LocalLock{},
		Metrics:  jobMetrics,
		Interval: cfg.Auction.CloserInterval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auction closer", err)
		return
	}
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "auction closer stopped", err)
	}
}
