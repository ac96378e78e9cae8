package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/internal/field"
)

func newCommentCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Encrypted reviewer comments (add, read)",
	}
	cmd.AddCommand(newCommentAddCommand(app), newCommentReadCommand(app))
	return cmd
}

func newCommentAddCommand(app *App) *cobra.Command {
	var (
		env      envelopeFlags
		reportID string
		text     string
		signer   string
		wait     bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Attach an encrypted comment to a report you can open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" {
				return fmt.Errorf("--text is required")
			}
			id, err := field.Parse(reportID)
			if err != nil {
				return fmt.Errorf("--report-id: %w", err)
			}
			opened, reviewer, err := env.open(cmd, app)
			if err != nil {
				return err
			}
			defer reviewer.Close()
			defer opened.ContentKey.Wipe()

			orch, err := app.orchestrator()
			if err != nil {
				return err
			}
			comment, err := orch.AddComment(cmd.Context(), app.signerSession(signer), id, opened.ContentKey, text)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "handle: %s\n", comment.Handle)
			fmt.Fprintf(w, "comment_locator: %s\n", comment.Locator)
			fmt.Fprintf(w, "comment_field: %s\n", comment.Field)
			if wait {
				return confirm(cmd, app, comment.Handle, types.KindAddComment)
			}
			return nil
		},
	}
	env.bind(cmd)
	cmd.Flags().StringVar(&reportID, "report-id", "", "Report id (required)")
	cmd.Flags().StringVar(&text, "text", "", "Comment text (required)")
	cmd.Flags().StringVar(&signer, "signer", "", "Signing account; defaults to keys.yml signer")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the transaction to be accepted")
	return cmd
}

func newCommentReadCommand(app *App) *cobra.Command {
	var (
		env            envelopeFlags
		commentLocator string
	)
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Decrypt a comment on a report you can open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if commentLocator == "" {
				return fmt.Errorf("--comment-locator is required")
			}
			opened, reviewer, err := env.open(cmd, app)
			if err != nil {
				return err
			}
			defer reviewer.Close()
			defer opened.ContentKey.Wipe()

			c, err := reviewer.ReadComment(cmd.Context(), commentLocator, opened.ContentKey)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", time.UnixMilli(c.Timestamp).UTC().Format(time.RFC3339), c.Text)
			return nil
		},
	}
	env.bind(cmd)
	cmd.Flags().StringVar(&commentLocator, "comment-locator", "", "Locator of the encrypted comment (required)")
	return cmd
}
