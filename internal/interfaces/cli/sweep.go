package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medledger/claimguard/internal/application/review"
	"github.com/medledger/claimguard/internal/infrastructure/database/postgres"
	"github.com/medledger/claimguard/internal/infrastructure/database/postgres/repositories"
)

// newSweepCmd builds the one-shot review sweep command.  Like migrate, it
// works directly against the configured database so it can run even when the
// API server is down.
func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Auto-reject flagged claims whose review deadline passed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if err := cliCtx.Config.Database.Postgres.Validate(); err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			conn, err := postgres.NewConnection(ctx, cliCtx.Config.Database.Postgres, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			repo := repositories.NewClaimRepository(conn.Pool(), cliCtx.Logger)
			sweeper := review.NewSweeper(repo, cliCtx.Config.Fraud.Review,
				review.WithSweeperLogger(cliCtx.Logger))

			swept, err := sweeper.Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "swept %d claim(s)\n", swept)
			return nil
		},
	}
}
