package cli

import (
	"github.com/spf13/cobra"
)

// newScoreCmd builds the stateless scoring probe command.
func newScoreCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a claim payload without persisting it",
		Long: "Score runs the deployed models and the rule engine over a claim\n" +
			"payload and prints the verdict.  Nothing is stored; use it to probe\n" +
			"model behaviour or to triage a claim before submission.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := requireClient(cmd)
			if err != nil {
				return err
			}

			req, err := readClaimPayload(file)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			res, err := cliCtx.Client.ScoreDiagnostic(ctx, *req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, res)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "claim payload JSON file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
