package cli

import (
	"github.com/spf13/cobra"
)

// newAdminCmd builds the admin command group.
func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Review flagged claims and platform stats",
	}
	cmd.AddCommand(
		newAdminQueueCmd(),
		newAdminDecideCmd("approve", "Clear a flagged claim as a false positive"),
		newAdminDecideCmd("reject", "Reject a flagged claim"),
		newAdminReportCmd(),
		newAdminStatsCmd(),
	)
	return cmd
}

func newAdminQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List flagged claims awaiting an admin ruling",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := requireClient(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			list, err := cliCtx.Client.AdminQueue(ctx)
			if err != nil {
				return err
			}
			return printClaimList(cmd, cliCtx, list)
		},
	}
}

func newAdminDecideCmd(verb, short string) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   verb + " <claim-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := requireClient(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			decide := cliCtx.Client.AdminApprove
			if verb == "reject" {
				decide = cliCtx.Client.AdminReject
			}
			c, err := decide(ctx, args[0], reason)
			if err != nil {
				return err
			}
			return PrintResult(cmd, c)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "ruling reason")
	return cmd
}

func newAdminReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <claim-id>",
		Short: "Fetch the fraud report behind a flagged claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := requireClient(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			rep, err := cliCtx.Client.GetReport(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, rep)
		},
	}
}

func newAdminStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show claim totals by status and the average fraud score",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := requireClient(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			stats, err := cliCtx.Client.GetStats(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, stats)
		},
	}
}
