package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/internal/field"
)

func newStatusCommand(app *App) *cobra.Command {
	var (
		signer string
		wait   bool
	)
	cmd := &cobra.Command{
		Use:   "status <report-id> <status>",
		Short: "Move a report to a new review status",
		Long:  "Move a report to a new review status: pending, under_review, resolved or rejected (or 1-4).",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportID, err := field.Parse(args[0])
			if err != nil {
				return fmt.Errorf("report id: %w", err)
			}
			status, err := types.ParseReportStatus(args[1])
			if err != nil {
				return err
			}
			orch, err := app.orchestrator()
			if err != nil {
				return err
			}

			handle, err := orch.UpdateStatus(cmd.Context(), app.signerSession(signer), reportID, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "handle: %s\n", handle)
			if wait {
				return confirm(cmd, app, handle, types.KindUpdateStatus)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&signer, "signer", "", "Signing account; defaults to keys.yml signer")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the transaction to be accepted")
	return cmd
}
