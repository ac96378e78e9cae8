package cli

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blockend-dev/AleoWhistle/internal/keywrap"
)

func newKeygenCommand(app *App) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a recipient key pair",
		Long:  "Generate a long-term recipient key pair. The public key goes into keys.yml of every submitter.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keywrap.GenerateKey(rand.Reader)
			if err != nil {
				return err
			}
			defer key.Zero()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "public_key: %s\n", key.Public())
			if out == "" {
				fmt.Fprintf(w, "private_key: %s\n", key)
				return nil
			}
			if err := os.WriteFile(out, []byte(key.String()+"\n"), 0o600); err != nil {
				return fmt.Errorf("failed to write private key: %w", err)
			}
			fmt.Fprintf(w, "private_key written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Write the private key to this file instead of stdout")
	return cmd
}
