// Package cli is the whistle command tree: submit reports, open them as a reviewer and move
// them through review.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	blockchain "github.com/blockend-dev/AleoWhistle/blockchain/client"
	"github.com/blockend-dev/AleoWhistle/config"
	"github.com/blockend-dev/AleoWhistle/internal/keywrap"
	"github.com/blockend-dev/AleoWhistle/processing"
	"github.com/blockend-dev/AleoWhistle/storage/content"
	"github.com/blockend-dev/AleoWhistle/submission"
)

// App holds what the commands share. Store and Ledger are built from the config directory
// on first use unless set beforehand.
type App struct {
	ConfigDir string
	Logger    *log.Logger

	Store   content.Store
	Ledger  blockchain.LedgerClient
	Tracker *processing.Tracker
	Keys    *config.KeysConfig
}

// Execute runs the command tree against the process arguments.
func Execute() {
	app := &App{Logger: log.New(os.Stderr, "[WHISTLE] ", log.LstdFlags|log.Lshortfile)}
	if err := NewRootCommand(app).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	if app.Logger == nil {
		app.Logger = log.New(io.Discard, "", 0)
	}
	root := &cobra.Command{
		Use:           "whistle",
		Short:         "Anonymous encrypted report submission",
		Long:          "A command-line tool for submitting encrypted reports to the ledger and reviewing them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&app.ConfigDir, "config-dir", "./config", "Directory holding client_config.yml, storage.yml and keys.yml")

	root.AddCommand(
		newKeygenCommand(app),
		newSubmitCommand(app),
		newReviewCommand(app),
		newStatusCommand(app),
		newCommentCommand(app),
		newTrackCommand(app),
	)
	return root
}

func (a *App) store() (content.Store, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	cfg, err := config.LoadStorageConfig(filepath.Join(a.ConfigDir, "storage.yml"))
	if err != nil {
		return nil, err
	}
	s, err := content.NewStore(cfg, a.Logger)
	if err != nil {
		return nil, err
	}
	a.Store = s
	return s, nil
}

func (a *App) ledger() (blockchain.LedgerClient, error) {
	if a.Ledger != nil {
		return a.Ledger, nil
	}
	cfg, err := config.LoadLedgerConfig(filepath.Join(a.ConfigDir, "client_config.yml"))
	if err != nil {
		return nil, err
	}
	specific, err := blockchain.LoadChainSpecificConfig(cfg.LedgerType, a.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain-specific config: %w", err)
	}
	cfg.ChainSpecific = specific
	client, err := blockchain.NewLedgerClient(cfg, a.Logger)
	if err != nil {
		return nil, err
	}
	a.Ledger = client
	if a.Tracker == nil {
		a.Tracker = processing.NewTrackerFromConfig(client, cfg.Tracker, a.Logger)
	}
	return client, nil
}

func (a *App) keys() (*config.KeysConfig, error) {
	if a.Keys != nil {
		return a.Keys, nil
	}
	cfg, err := config.LoadKeysConfig(filepath.Join(a.ConfigDir, "keys.yml"))
	if err != nil {
		return nil, err
	}
	a.Keys = cfg
	return cfg, nil
}

// orchestrator wires the store, the ledger and the tracker.
func (a *App) orchestrator() (*submission.Orchestrator, error) {
	s, err := a.store()
	if err != nil {
		return nil, err
	}
	l, err := a.ledger()
	if err != nil {
		return nil, err
	}
	if a.Tracker == nil {
		a.Tracker = processing.NewTracker(l, 0, 0, a.Logger)
	}
	return submission.NewOrchestrator(s, l, a.Tracker, a.Logger), nil
}

// session is the submitter's view: signer plus every configured recipient.
func (a *App) session(signer string) (submission.Session, error) {
	cfg, err := a.keys()
	if err != nil {
		return submission.Session{}, err
	}
	sess, err := submission.SessionFromConfig(cfg)
	if err != nil {
		return submission.Session{}, err
	}
	if signer != "" {
		sess.Signer = signer
	}
	return sess, nil
}

// signerSession is enough for writes that wrap no keys.
func (a *App) signerSession(signer string) submission.Session {
	if signer == "" {
		if cfg, err := a.keys(); err == nil {
			signer = cfg.Signer
		}
	}
	return submission.Session{Signer: signer}
}

// privateKey reads a scalar literal from path, falling back to keys.yml private_key_path.
func (a *App) privateKey(path string) (*keywrap.PrivateKey, error) {
	if path == "" {
		cfg, err := a.keys()
		if err != nil {
			return nil, fmt.Errorf("no --key given and %w", err)
		}
		path = cfg.PrivateKeyPath
	}
	if path == "" {
		return nil, fmt.Errorf("no private key configured; pass --key")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	return keywrap.ParsePrivateKey(string(raw))
}
