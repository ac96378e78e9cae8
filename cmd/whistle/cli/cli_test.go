package cli

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockend-dev/AleoWhistle/blockchain/client/mock"
	"github.com/blockend-dev/AleoWhistle/config"
	"github.com/blockend-dev/AleoWhistle/processing"
	"github.com/blockend-dev/AleoWhistle/storage/content"
)

func run(t *testing.T, app *App, args ...string) (map[string]string, string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(app)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()

	values := make(map[string]string)
	for _, line := range strings.Split(out.String(), "\n") {
		if k, v, ok := strings.Cut(line, ": "); ok {
			values[k] = v
		}
	}
	return values, out.String(), err
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	ledger := mock.NewLedger(nil, logger)
	return &App{
		Logger:  logger,
		Store:   content.NewMemoryStore(),
		Ledger:  ledger,
		Tracker: processing.NewTracker(ledger, 2*time.Millisecond, time.Second, logger),
	}
}

func TestSubmitReviewCommentFlow(t *testing.T) {
	dir := t.TempDir()
	app := newTestApp(t)

	keyPath := filepath.Join(dir, "admin.key")
	keys, _, err := run(t, app, "keygen", "--out", keyPath)
	require.NoError(t, err)
	require.NotEmpty(t, keys["public_key"])
	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	app.Keys = &config.KeysConfig{
		Signer:         "aleo1cli",
		Recipients:     []config.RecipientConfig{{Name: "admin", PublicKey: keys["public_key"]}},
		PrivateKeyPath: keyPath,
	}

	evidencePath := filepath.Join(dir, "memo.txt")
	require.NoError(t, os.WriteFile(evidencePath, []byte("internal memo"), 0o600))

	sub, _, err := run(t, app, "submit",
		"--title", "Data leak",
		"--description", "Customer records exported to a personal drive.",
		"--category", "2", "--severity", "4",
		"--evidence", evidencePath,
		"--wait")
	require.NoError(t, err)
	require.NotEmpty(t, sub["report_id"])
	assert.Equal(t, "tmp_1", sub["handle"])
	assert.Equal(t, sub["seed"], sub["report_id"])

	envelope := []string{
		"--locator", sub["locator"],
		"--digest", sub["content_digest"],
		"--ephemeral", sub["ephemeral_public"],
		"--wrapped", sub["wrapped_key[0]"],
		"--locator-field", sub["locator_field"],
	}

	outDir := t.TempDir()
	_, text, err := run(t, app, append([]string{"review", "--evidence-dir", outDir}, envelope...)...)
	require.NoError(t, err)
	assert.Contains(t, text, "title: Data leak")
	assert.Contains(t, text, "Customer records exported to a personal drive.")
	saved, err := os.ReadFile(filepath.Join(outDir, "0_memo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "internal memo", string(saved))

	status, _, err := run(t, app, "status", sub["report_id"], "under_review", "--wait")
	require.NoError(t, err)
	assert.NotEmpty(t, status["final_tx_id"])

	added, _, err := run(t, app, append([]string{"comment", "add", "--report-id", sub["report_id"], "--text", "Escalated"}, envelope...)...)
	require.NoError(t, err)
	require.NotEmpty(t, added["comment_locator"])

	_, text, err = run(t, app, append([]string{"comment", "read", "--comment-locator", added["comment_locator"]}, envelope...)...)
	require.NoError(t, err)
	assert.Contains(t, text, "Escalated")
}

func TestReviewRejectsTamperedDigest(t *testing.T) {
	dir := t.TempDir()
	app := newTestApp(t)
	keyPath := filepath.Join(dir, "k")
	keys, _, err := run(t, app, "keygen", "--out", keyPath)
	require.NoError(t, err)
	app.Keys = &config.KeysConfig{
		Recipients:     []config.RecipientConfig{{Name: "admin", PublicKey: keys["public_key"]}},
		PrivateKeyPath: keyPath,
	}

	sub, _, err := run(t, app, "submit", "--title", "t", "--description", "d")
	require.NoError(t, err)

	_, _, err = run(t, app, "review",
		"--locator", sub["locator"],
		"--digest", "12345field",
		"--ephemeral", sub["ephemeral_public"],
		"--wrapped", sub["wrapped_key[0]"])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digest")
}

func TestCommandArgumentErrors(t *testing.T) {
	app := newTestApp(t)

	_, _, err := run(t, app, "submit", "--title", "only a title")
	assert.Error(t, err)

	_, _, err = run(t, app, "status", "notafield", "resolved")
	assert.Error(t, err)

	_, _, err = run(t, app, "status", "5field", "closed")
	assert.Error(t, err)

	_, _, err = run(t, app, "review", "--locator", "x")
	assert.Error(t, err)
}

func TestKeygenPrintsPrivateKeyWithoutOut(t *testing.T) {
	values, _, err := run(t, newTestApp(t), "keygen")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(values["private_key"], "scalar"))
	assert.True(t, strings.HasSuffix(values["public_key"], "field"))
}
