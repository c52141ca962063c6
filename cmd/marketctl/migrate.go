package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/rpg-market/pkg/migrate"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage goose SQL migrations",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", migrate.DefaultDir, "goose migrations directory")

	for _, name := range []string{"up", "down", "status"} {
		command := name
		cmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: "Run goose " + command,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSQL(cmd, root, func(rt *runtime) error {
					sqlDB, err := rt.client.DB().DB()
					if err != nil {
						return err
					}
					return migrate.Run(cmd.Context(), sqlDB, dir, command)
				})
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version <YYYYMMDDHHMMSS>",
		Short: "Migrate up or down to a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQL(cmd, root, func(rt *runtime) error {
				sqlDB, err := rt.client.DB().DB()
				if err != nil {
					return err
				}
				return migrate.MigrateToVersion(cmd.Context(), sqlDB, dir, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.CreateSQLMigration(dir, args[0], time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created migration:", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check migration filenames and goose markers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			versions, err := migrate.ValidateDir(dir)
			if err != nil {
				return fmt.Errorf("migration validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migration validation passed (%d files)\n", len(versions))
			return nil
		},
	})

	return cmd
}

func withSQL(cmd *cobra.Command, root *rootOptions, fn func(rt *runtime) error) error {
	rt, err := bootstrap(cmd.Context(), root, "migrate")
	if err != nil {
		return err
	}
	defer rt.Close()
	if rt.client.Dialect() != migrate.DialectPostgres {
		return fmt.Errorf("goose migrations target postgres, got %s", rt.client.Dialect())
	}
	return fn(rt)
}
