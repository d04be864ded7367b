package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/medledger/claimguard/pkg/client"
)

// newClaimsCmd builds the claims command group.
func newClaimsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Submit and review insurance claims",
	}
	cmd.AddCommand(
		newClaimsSubmitCmd(),
		newClaimsGetCmd(),
		newClaimsQueueCmd(),
		newClaimsDecideCmd("approve", "Approve a pending claim"),
		newClaimsDecideCmd("reject", "Reject a pending claim"),
	)
	return cmd
}

func newClaimsSubmitCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a claim for synchronous fraud scoring",
		Long: "Submit reads a claim payload from a JSON file and sends it for\n" +
			"scoring.  The response carries the assigned score, risk level, and\n" +
			"routing outcome.",
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

			resp, err := cliCtx.Client.SubmitClaim(ctx, *req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, resp)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "claim payload JSON file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newClaimsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <claim-id>",
		Short: "Fetch one claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := requireClient(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			c, err := cliCtx.Client.GetClaim(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, c)
		},
	}
}

func newClaimsQueueCmd() *cobra.Command {
	var providerID string

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List claims awaiting a provider's decision",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := requireClient(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			list, err := cliCtx.Client.ProviderQueue(ctx, providerID)
			if err != nil {
				return err
			}
			return printClaimList(cmd, cliCtx, list)
		},
	}

	cmd.Flags().StringVar(&providerID, "provider", "", "provider ID (required)")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}

func newClaimsDecideCmd(verb, short string) *cobra.Command {
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

			decide := cliCtx.Client.ApproveClaim
			if verb == "reject" {
				decide = cliCtx.Client.RejectClaim
			}
			c, err := decide(ctx, args[0], reason)
			if err != nil {
				return err
			}
			return PrintResult(cmd, c)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "decision reason")
	return cmd
}

// readClaimPayload parses a claim submission payload from a JSON file.
func readClaimPayload(path string) (*client.SubmitClaimRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read claim payload: %w", err)
	}
	var req client.SubmitClaimRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse claim payload %s: %w", path, err)
	}
	return &req, nil
}

// printClaimList renders a queue as a table in text mode, JSON otherwise.
func printClaimList(cmd *cobra.Command, cliCtx *CLIContext, list *client.ClaimList) error {
	if cliCtx.OutputFormat == "json" {
		return printJSON(cmd, list)
	}

	rows := make([][]string, 0, len(list.Claims))
	for _, c := range list.Claims {
		rows = append(rows, []string{
			c.ID,
			c.Type,
			strconv.FormatFloat(c.Amount, 'f', 2, 64),
			strconv.Itoa(c.FraudScore),
			c.RiskLevel,
			c.Status,
		})
	}
	out := FormatTable([]string{"ID", "TYPE", "AMOUNT", "SCORE", "RISK", "STATUS"}, rows)
	fmt.Fprint(cmd.OutOrStdout(), out)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d claim(s)\n", list.Count)
	return nil
}
