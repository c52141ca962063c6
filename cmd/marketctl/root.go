package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/rpg-market/internal/app"
	"github.com/angelmondragon/rpg-market/pkg/config"
	"github.com/angelmondragon/rpg-market/pkg/db"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/migrate"
)

type rootOptions struct {
	envFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "marketctl",
		Short:         "Operate the RPG market: migrations, seed data and auction maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newCloseAuctionsCommand(opts))
	cmd.AddCommand(newMatrixCommand())

	return cmd
}

// runtime holds the resources a command needs once configuration is loaded.
type runtime struct {
	cfg    *config.Config
	logg   *logger.Logger
	client *db.Client
}

func (r *runtime) Close() {
	if r.client == nil {
		return
	}
	if err := r.client.Close(); err != nil {
		r.logg.Error(context.Background(), "error closing database", err)
	}
}

// bootstrap loads configuration and opens the database. Missing dotenv files
// are ignored.
func bootstrap(ctx context.Context, opts *rootOptions, service string) (*runtime, error) {
	if opts.envFile != "" {
		_ = godotenv.Load(opts.envFile)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: service,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	return &runtime{cfg: cfg, logg: logg, client: client}, nil
}

// components opens the database, applies dev migrations and wires services.
func (r *runtime) components(ctx context.Context) (*app.Components, error) {
	if err := migrate.MaybeRunDev(ctx, r.cfg, r.logg, r.client); err != nil {
		return nil, fmt.Errorf("dev migrations: %w", err)
	}
	return app.Build(r.cfg, r.logg, r.client, nil)
}
