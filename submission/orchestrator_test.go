package submission

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockend-dev/AleoWhistle/blockchain/client/mock"
	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/internal/aead"
	"github.com/blockend-dev/AleoWhistle/internal/field"
	"github.com/blockend-dev/AleoWhistle/internal/keywrap"
	"github.com/blockend-dev/AleoWhistle/processing"
	"github.com/blockend-dev/AleoWhistle/storage/content"
)

type fixture struct {
	store    *content.MemoryStore
	ledger   *mock.Ledger
	orch     *Orchestrator
	admin    *keywrap.PrivateKey
	reviewer *keywrap.PrivateKey
	session  Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	f := &fixture{
		store:  content.NewMemoryStore(),
		ledger: mock.NewLedger(nil, logger),
	}
	tracker := processing.NewTracker(f.ledger, 2*time.Millisecond, time.Second, logger)
	f.orch = NewOrchestrator(f.store, f.ledger, tracker, logger)

	var err error
	f.admin, err = keywrap.GenerateKey(rand.Reader)
	require.NoError(t, err)
	f.reviewer, err = keywrap.GenerateKey(rand.Reader)
	require.NoError(t, err)
	f.session = Session{
		Signer:     "aleo1submitter",
		Recipients: []keywrap.PublicKey{f.admin.Public(), f.reviewer.Public()},
	}
	return f
}

func sampleReport() Report {
	return Report{
		Title:       "Invoice fraud",
		Description: "Vendor 42 billed twice for the same shipment.",
		Category:    2,
		Severity:    3,
		Timestamp:   time.UnixMilli(1700000000000),
		Evidence: []File{
			{Name: "invoice.pdf", Data: []byte("%PDF-1.7 first invoice")},
			{Name: "duplicate.pdf", Data: []byte("%PDF-1.7 second invoice")},
		},
	}
}

func TestSubmitEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	report := sampleReport()

	sub, conf, err := f.orch.SubmitAndConfirm(ctx, f.session, report)
	require.NoError(t, err)
	require.NotNil(t, conf)

	assert.Equal(t, types.Handle("tmp_1"), sub.Handle)
	assert.Equal(t, "at_final_1", conf.FinalTxID)
	assert.True(t, conf.ReportID.Equal(sub.Seed))
	require.Len(t, sub.WrappedKeys, 2)
	require.Len(t, sub.EvidenceLocators, 2)
	// two evidence objects plus the report itself
	assert.Equal(t, 3, f.store.Len())

	executed := f.ledger.Executed()
	require.Len(t, executed, 1)
	tx, ok := executed[0].Tx.(types.SubmitReport)
	require.True(t, ok)
	assert.Equal(t, "aleo1submitter", executed[0].Signer)
	assert.Equal(t, uint8(2), tx.Category)
	assert.Equal(t, uint8(3), tx.Severity)
	assert.True(t, tx.ContentDigest.Equal(sub.ContentDigest))
	assert.True(t, tx.Locator.Equal(field.FromLocator(sub.Locator)))
	assert.True(t, tx.EphemeralPublic.Equal(sub.EphemeralPublic))

	for i, priv := range []*keywrap.PrivateKey{f.admin, f.reviewer} {
		env, err := EnvelopeFor(sub, i)
		require.NoError(t, err)
		opened, err := NewReviewer(f.store, priv).Open(ctx, env)
		require.NoError(t, err, "recipient %d", i)

		assert.Equal(t, report.Title, opened.Payload.Title)
		assert.Equal(t, report.Description, opened.Payload.Description)
		assert.Equal(t, int64(1700000000000), opened.Payload.Timestamp)
		require.Len(t, opened.Payload.Evidence, 2)
		assert.Equal(t, "invoice.pdf", opened.Payload.Evidence[0].Name)

		data, err := NewReviewer(f.store, priv).OpenEvidence(ctx, opened.Payload.Evidence[1].Locator, opened.ContentKey)
		require.NoError(t, err)
		assert.Equal(t, report.Evidence[1].Data, data)
	}
}

func TestProducedValuesFitMask(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 4; i++ {
		sub, err := f.orch.Submit(context.Background(), f.session, sampleReport())
		require.NoError(t, err)

		values := append([]field.Element{sub.Seed, sub.ContentDigest, sub.LocatorField, sub.EphemeralPublic}, sub.WrappedKeys...)
		for j, v := range values {
			assert.True(t, v.FitsMask(), "submission %d value %d", i, j)
		}
	}
}

func TestSubmitUploadFailureSkipsLedger(t *testing.T) {
	f := newFixture(t)
	f.store.FailPut(errors.New("pinning service unavailable"))

	_, err := f.orch.Submit(context.Background(), f.session, sampleReport())
	require.Error(t, err)

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, StageUpload, subErr.Stage)
	var upErr *UploadError
	assert.ErrorAs(t, err, &upErr)
	assert.Empty(t, f.ledger.Executed())
}

func TestSubmitDispatchFailure(t *testing.T) {
	f := newFixture(t)
	f.ledger.FailExecute(errors.New("wallet declined"))

	_, err := f.orch.Submit(context.Background(), f.session, sampleReport())
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, StageDispatch, subErr.Stage)
	var dispErr *DispatchError
	require.ErrorAs(t, err, &dispErr)
	assert.Equal(t, "submit_report", dispErr.Function)
}

func TestSubmitRequiresRecipients(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Submit(context.Background(), Session{Signer: "aleo1x"}, sampleReport())
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, StageWrap, subErr.Stage)
	assert.Zero(t, f.store.Len())
}

func TestSubmitEntropyFailure(t *testing.T) {
	f := newFixture(t)
	f.orch.random = bytes.NewReader(nil)

	_, err := f.orch.Submit(context.Background(), f.session, sampleReport())
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, StageGenerate, subErr.Stage)
	assert.Empty(t, f.ledger.Executed())
}

func TestSubmitAndConfirmRejected(t *testing.T) {
	f := newFixture(t)
	f.ledger.Script(types.StatusReport{Status: "Pending"}, types.StatusReport{Status: "Rejected"})

	sub, _, err := f.orch.SubmitAndConfirm(context.Background(), f.session, sampleReport())
	require.Error(t, err)
	require.NotNil(t, sub)

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, StageConfirm, subErr.Stage)
	var txErr *processing.TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, sub.Handle, txErr.Handle)
}

func TestOpenDetectsTampering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub, err := f.orch.Submit(ctx, f.session, sampleReport())
	require.NoError(t, err)

	key, err := field.Random()
	require.NoError(t, err)
	keyBytes, err := aead.KeyFromField(key)
	require.NoError(t, err)
	forged, err := aead.Encrypt([]byte(`{"title":"nothing to see"}`), keyBytes)
	require.NoError(t, err)
	f.store.Replace(sub.Locator, forged)

	env, err := EnvelopeFor(sub, 0)
	require.NoError(t, err)
	_, err = NewReviewer(f.store, f.admin).Open(ctx, env)
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

func TestOpenRejectsForeignLocator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub, err := f.orch.Submit(ctx, f.session, sampleReport())
	require.NoError(t, err)

	env, err := EnvelopeFor(sub, 0)
	require.NoError(t, err)
	env.Locator = sub.EvidenceLocators[0]
	_, err = NewReviewer(f.store, f.admin).Open(ctx, env)
	assert.ErrorIs(t, err, ErrLocatorMismatch)
}

func TestOpenWithWrongKeyFailsAuthentication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub, err := f.orch.Submit(ctx, f.session, sampleReport())
	require.NoError(t, err)

	outsider, err := keywrap.GenerateKey(rand.Reader)
	require.NoError(t, err)
	env, err := EnvelopeFor(sub, 0)
	require.NoError(t, err)
	_, err = NewReviewer(f.store, outsider).Open(ctx, env)
	assert.ErrorIs(t, err, aead.ErrAuthentication)
}

func TestCommentRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub, conf, err := f.orch.SubmitAndConfirm(ctx, f.session, sampleReport())
	require.NoError(t, err)

	env, err := EnvelopeFor(sub, 1)
	require.NoError(t, err)
	opened, err := NewReviewer(f.store, f.reviewer).Open(ctx, env)
	require.NoError(t, err)

	reviewerSession := Session{Signer: "aleo1reviewer"}
	comment, err := f.orch.AddComment(ctx, reviewerSession, conf.ReportID, opened.ContentKey, "Forwarded to audit.")
	require.NoError(t, err)
	assert.True(t, comment.Field.FitsMask())
	assert.True(t, comment.Field.Equal(field.FromLocator(comment.Locator)))

	executed := f.ledger.Executed()
	tx, ok := executed[len(executed)-1].Tx.(types.AddComment)
	require.True(t, ok)
	assert.True(t, tx.ReportID.Equal(conf.ReportID))
	assert.True(t, tx.Comment.Equal(comment.Field))

	read, err := NewReviewer(f.store, f.admin).ReadComment(ctx, comment.Locator, opened.ContentKey)
	require.NoError(t, err)
	assert.Equal(t, "Forwarded to audit.", read.Text)
	assert.NotZero(t, read.Timestamp)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reportID := field.FromUint64(77)

	handle, err := f.orch.UpdateStatus(ctx, Session{Signer: "aleo1admin"}, reportID, types.ReportUnderReview)
	require.NoError(t, err)

	conf, err := f.orch.Confirm(ctx, handle, types.KindUpdateStatus)
	require.NoError(t, err)
	assert.NotEmpty(t, conf.FinalTxID)
	assert.True(t, conf.ReportID.IsZero())

	executed := f.ledger.Executed()
	require.Len(t, executed, 1)
	assert.Equal(t, []string{"77field", "2u8"}, executed[0].Tx.Inputs())
	assert.Equal(t, uint64(50000), executed[0].Fee)

	_, err = f.orch.UpdateStatus(ctx, Session{Signer: "aleo1admin"}, reportID, types.ReportStatus(9))
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, StageEncode, subErr.Stage)
}
