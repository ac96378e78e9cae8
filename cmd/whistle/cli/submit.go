package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/submission"
)

func newSubmitCommand(app *App) *cobra.Command {
	var (
		report   submission.Report
		evidence []string
		signer   string
		wait     bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Encrypt, upload and submit a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if report.Title == "" || report.Description == "" {
				return fmt.Errorf("--title and --description are required")
			}
			for _, path := range evidence {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read evidence: %w", err)
				}
				report.Evidence = append(report.Evidence, submission.File{Name: filepath.Base(path), Data: data})
			}

			sess, err := app.session(signer)
			if err != nil {
				return err
			}
			orch, err := app.orchestrator()
			if err != nil {
				return err
			}

			sub, err := orch.Submit(cmd.Context(), sess, report)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printSubmission(w, sub)

			if !wait {
				return nil
			}
			if err := confirm(cmd, app, sub.Handle, types.KindSubmitReport); err != nil {
				return &submission.SubmissionError{Stage: submission.StageConfirm, Err: err}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&report.Title, "title", "", "Report title (required)")
	f.StringVar(&report.Description, "description", "", "Report description (required)")
	f.Uint8Var(&report.Category, "category", 1, "Category code")
	f.Uint8Var(&report.Severity, "severity", 1, "Severity code")
	f.StringArrayVar(&evidence, "evidence", nil, "Evidence file to attach (repeatable)")
	f.StringVar(&signer, "signer", "", "Signing account; defaults to keys.yml signer")
	f.BoolVar(&wait, "wait", false, "Wait for the transaction to be accepted")
	return cmd
}

// printSubmission writes every public value plus the seed. The seed is the submitter's only
// handle on the report and is printed once, here.
func printSubmission(w io.Writer, sub *submission.Submission) {
	fmt.Fprintf(w, "seed: %s\n", sub.Seed)
	fmt.Fprintf(w, "handle: %s\n", sub.Handle)
	fmt.Fprintf(w, "locator: %s\n", sub.Locator)
	for i, loc := range sub.EvidenceLocators {
		fmt.Fprintf(w, "evidence[%d]: %s\n", i, loc)
	}
	fmt.Fprintf(w, "content_digest: %s\n", sub.ContentDigest)
	fmt.Fprintf(w, "locator_field: %s\n", sub.LocatorField)
	fmt.Fprintf(w, "ephemeral_public: %s\n", sub.EphemeralPublic)
	for i, k := range sub.WrappedKeys {
		fmt.Fprintf(w, "wrapped_key[%d]: %s\n", i, k)
	}
}
