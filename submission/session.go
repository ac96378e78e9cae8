package submission

import (
	"fmt"

	"github.com/blockend-dev/AleoWhistle/config"
	"github.com/blockend-dev/AleoWhistle/internal/keywrap"
)

// SessionFromConfig parses the configured recipients in file order. That order is the order
// of the wrapped key slots on the ledger.
func SessionFromConfig(cfg *config.KeysConfig) (Session, error) {
	if err := cfg.Validate(); err != nil {
		return Session{}, err
	}
	sess := Session{Signer: cfg.Signer}
	for i, r := range cfg.Recipients {
		pub, err := keywrap.ParsePublicKey(r.PublicKey)
		if err != nil {
			return Session{}, fmt.Errorf("recipient %d (%s): %w", i, r.Name, err)
		}
		sess.Recipients = append(sess.Recipients, pub)
	}
	return sess, nil
}
