package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newReviewCommand(app *App) *cobra.Command {
	var (
		env         envelopeFlags
		evidenceDir string
	)
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Open a report addressed to your key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opened, reviewer, err := env.open(cmd, app)
			if err != nil {
				return err
			}
			defer reviewer.Close()
			defer opened.ContentKey.Wipe()

			p := opened.Payload
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "title: %s\n", p.Title)
			fmt.Fprintf(w, "submitted: %s\n", p.Time().UTC().Format("2006-01-02T15:04:05Z"))
			fmt.Fprintf(w, "description:\n%s\n", p.Description)
			for i, ev := range p.Evidence {
				fmt.Fprintf(w, "evidence[%d]: %s (%s)\n", i, ev.Name, ev.Locator)
				if evidenceDir == "" {
					continue
				}
				data, err := reviewer.OpenEvidence(cmd.Context(), ev.Locator, opened.ContentKey)
				if err != nil {
					return fmt.Errorf("evidence %s: %w", ev.Name, err)
				}
				// Names come from the submitter; keep only the base name.
				target := filepath.Join(evidenceDir, fmt.Sprintf("%d_%s", i, filepath.Base(ev.Name)))
				if err := os.WriteFile(target, data, 0o600); err != nil {
					return fmt.Errorf("failed to save evidence: %w", err)
				}
				fmt.Fprintf(w, "  saved to %s\n", target)
			}
			return nil
		},
	}
	env.bind(cmd)
	cmd.Flags().StringVar(&evidenceDir, "evidence-dir", "", "Decrypt evidence files into this directory")
	return cmd
}
