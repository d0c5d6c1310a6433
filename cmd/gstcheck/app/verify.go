package app

import (
	"fmt"

	"github.com/spf13/cobra"

	svcapp "turia/internal/app"
	"turia/internal/verification"
	"turia/pkg/gstin"
)

// validateOutput is printed by the validate command.
type validateOutput struct {
	GSTIN     string `json:"gstin"`
	Valid     bool   `json:"valid"`
	StateCode string `json:"state_code,omitempty"`
	PAN       string `json:"pan,omitempty"`
}

// failureOutput is printed when verification fails.
type failureOutput struct {
	GSTIN    string                `json:"gstin"`
	Category verification.Category `json:"category"`
	Message  string                `json:"message"`
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <gstin>",
		Short: "Check a GSTIN against the identifier grammar without calling MasterGST",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := gstin.Parse(args[0])
			if err != nil {
				if perr := printJSON(cmd.OutOrStdout(), validateOutput{GSTIN: args[0]}); perr != nil {
					return perr
				}
				return verification.Malformed()
			}
			return printJSON(cmd.OutOrStdout(), validateOutput{
				GSTIN:     id.String(),
				Valid:     true,
				StateCode: id.StateCode(),
				PAN:       id.PAN(),
			})
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <gstin>",
		Short: "Verify a GSTIN through MasterGST, falling back to the offline table",
		Long: `Verify runs the same pipeline as POST /api/gst/verify. MasterGST credentials
are read from the environment; without them only the offline table can answer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			verifier := svcapp.NewVerifier(cfg.MasterGST, commandLogger(cmd), nil, nil)

			result, err := verifier.Verify(cmd.Context(), args[0])
			if err != nil {
				verr := verification.Classify(err)
				if perr := printJSON(cmd.OutOrStdout(), failureOutput{
					GSTIN:    args[0],
					Category: verr.Category,
					Message:  verr.Message,
				}); perr != nil {
					return perr
				}
				return fmt.Errorf("verification failed: %s", verr.Category)
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newTestConnectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Report whether MasterGST is configured and reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			verifier := svcapp.NewVerifier(cfg.MasterGST, commandLogger(cmd), nil, nil)
			return printJSON(cmd.OutOrStdout(), verifier.TestConnection(cmd.Context()))
		},
	}
}
