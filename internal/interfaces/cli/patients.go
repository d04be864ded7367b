package cli

import (
	"github.com/spf13/cobra"

	"github.com/medledger/claimguard/pkg/client"
)

// newPatientsCmd builds the patients command group.
func newPatientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "Register and look up patients",
	}
	cmd.AddCommand(newPatientsRegisterCmd(), newPatientsGetCmd())
	return cmd
}

func newPatientsRegisterCmd() *cobra.Command {
	var req client.RegisterPatientRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a patient with identity screening",
		Long: "Register screens the new identity against the existing population.\n" +
			"A confirmed duplicate is rejected; softer signals are reported but do\n" +
			"not block the registration.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := requireClient(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			res, err := cliCtx.Client.RegisterPatient(ctx, req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, res)
		},
	}

	cmd.Flags().StringVar(&req.FullName, "name", "", "full name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.NationalID, "national-id", "", "national identifier (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("national-id")
	return cmd
}

func newPatientsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <patient-id>",
		Short: "Fetch one patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := requireClient(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			p, err := cliCtx.Client.GetPatient(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, p)
		},
	}
}
