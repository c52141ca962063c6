package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/rpg-market/internal/seed"
	"github.com/angelmondragon/rpg-market/pkg/permissions"
)

const defaultCloseBatch = 100

func newSeedCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "seed <demo|simple>",
		Short:     "Populate the market with demonstration characters, items and sales",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"demo", "simple"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, root, "marketctl")
			if err != nil {
				return err
			}
			defer rt.Close()

			components, err := rt.components(ctx)
			if err != nil {
				return err
			}

			var sum seed.Summary
			switch args[0] {
			case "demo":
				sum, err = components.Seeder.Demo(ctx)
			default:
				sum, err = components.Seeder.Simple(ctx)
			}
			if err != nil {
				return fmt.Errorf("seed %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), sum)
		},
	}
}

func newCloseAuctionsCommand(root *rootOptions) *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "close-auctions",
		Short: "Close every auction whose end time has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if batch <= 0 {
				return fmt.Errorf("--batch must be positive")
			}
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, root, "marketctl")
			if err != nil {
				return err
			}
			defer rt.Close()

			components, err := rt.components(ctx)
			if err != nil {
				return err
			}
			sum, err := components.Listings.CloseDueAuctions(ctx, batch)
			if err != nil {
				return fmt.Errorf("close auctions: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), sum)
		},
	}
	cmd.Flags().IntVar(&batch, "batch", defaultCloseBatch, "maximum auctions closed in this run")
	return cmd
}

func newMatrixCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "matrix",
		Short: "Print which item categories each class may trade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return permissions.WriteMatrix(cmd.OutOrStdout())
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
