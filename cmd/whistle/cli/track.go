package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
)

func newTrackCommand(app *App) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "track <handle>",
		Short: "Wait for a dispatched transaction to be accepted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return confirm(cmd, app, types.Handle(args[0]), types.TxKind(kind))
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(types.KindSubmitReport), "Transaction kind; submit_report also reads the report id")
	return cmd
}

func confirm(cmd *cobra.Command, app *App, handle types.Handle, kind types.TxKind) error {
	orch, err := app.orchestrator()
	if err != nil {
		return err
	}
	conf, err := orch.Confirm(cmd.Context(), handle, kind)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "final_tx_id: %s\n", conf.FinalTxID)
	if !conf.ReportID.IsZero() {
		fmt.Fprintf(w, "report_id: %s\n", conf.ReportID)
	}
	return nil
}
