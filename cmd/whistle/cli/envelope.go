package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockend-dev/AleoWhistle/internal/field"
	"github.com/blockend-dev/AleoWhistle/submission"
)

// envelopeFlags are the values a reviewer copies from the ledger record plus the locator.
type envelopeFlags struct {
	key          string
	locator      string
	digest       string
	ephemeral    string
	wrapped      string
	locatorField string
}

func (e *envelopeFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&e.key, "key", "", "Private key file; defaults to keys.yml private_key_path")
	f.StringVar(&e.locator, "locator", "", "Locator of the encrypted report (required)")
	f.StringVar(&e.digest, "digest", "", "Published content digest (required)")
	f.StringVar(&e.ephemeral, "ephemeral", "", "Published ephemeral public field (required)")
	f.StringVar(&e.wrapped, "wrapped", "", "Your wrapped key slot (required)")
	f.StringVar(&e.locatorField, "locator-field", "", "Published locator field, checked against --locator")
}

func (e *envelopeFlags) envelope() (submission.Envelope, error) {
	if e.locator == "" || e.digest == "" || e.ephemeral == "" || e.wrapped == "" {
		return submission.Envelope{}, fmt.Errorf("--locator, --digest, --ephemeral and --wrapped are required")
	}
	env := submission.Envelope{Locator: e.locator}
	var err error
	if env.ContentDigest, err = field.Parse(e.digest); err != nil {
		return env, fmt.Errorf("--digest: %w", err)
	}
	if env.EphemeralPublic, err = field.Parse(e.ephemeral); err != nil {
		return env, fmt.Errorf("--ephemeral: %w", err)
	}
	if env.WrappedKey, err = field.Parse(e.wrapped); err != nil {
		return env, fmt.Errorf("--wrapped: %w", err)
	}
	if e.locatorField != "" {
		if env.LocatorField, err = field.Parse(e.locatorField); err != nil {
			return env, fmt.Errorf("--locator-field: %w", err)
		}
	}
	return env, nil
}

// open recovers and decrypts the report named by the flags.
func (e *envelopeFlags) open(cmd *cobra.Command, app *App) (*submission.Opened, *submission.Reviewer, error) {
	env, err := e.envelope()
	if err != nil {
		return nil, nil, err
	}
	key, err := app.privateKey(e.key)
	if err != nil {
		return nil, nil, err
	}
	s, err := app.store()
	if err != nil {
		key.Zero()
		return nil, nil, err
	}
	reviewer := submission.NewReviewer(s, key)
	opened, err := reviewer.Open(cmd.Context(), env)
	if err != nil {
		key.Zero()
		return nil, nil, err
	}
	return opened, reviewer, nil
}
