package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-quotes-api/internal/repo"
)

func newSeedCmd(a *app) *cobra.Command {
	var ifEmpty bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the quotes table with the canonical quotes",
		Long: `Seed deletes every quote and inserts the ten canonical quotes.

Use --if-empty to seed only when the table has no rows.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer a.closeStore(db)

			if ifEmpty {
				seeded, err := repo.SeedIfEmpty(ctx, db)
				if err != nil {
					return err
				}
				a.log.Info().Bool("seeded", seeded).Msg("seed if empty")
				fmt.Fprintf(cmd.OutOrStdout(), "seeded: %t\n", seeded)
				return nil
			}

			n, err := repo.SeedQuotes(ctx, db)
			if err != nil {
				return err
			}
			a.log.Info().Int("rows", n).Msg("quotes seeded")
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d quotes\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&ifEmpty, "if-empty", false, "seed only when the quotes table is empty")
	return cmd
}
