package service

import (
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
	"github.com/blockend-dev/AleoWhistle/internal/keywrap"
	"github.com/blockend-dev/AleoWhistle/internal/messaging/producer"
	"github.com/blockend-dev/AleoWhistle/storage/content"
	"github.com/blockend-dev/AleoWhistle/storage/store"
	"github.com/blockend-dev/AleoWhistle/submission"
)

type harness struct {
	svc      *Service
	ledger   *mock.Ledger
	content  *content.MemoryStore
	journal  *store.MemoryStore
	producer *producer.MockProducer
}

func newHarness(t *testing.T, batchSize int) *harness {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	admin, err := keywrap.GenerateKey(rand.Reader)
	require.NoError(t, err)

	h := &harness{
		ledger:   mock.NewLedger(nil, logger),
		content:  content.NewMemoryStore(),
		journal:  store.NewMemoryStore(logger),
		producer: producer.NewMockProducer(logger),
	}
	orch := submission.NewOrchestrator(h.content, h.ledger, nil, logger)
	session := submission.Session{Signer: "aleo1gateway", Recipients: []keywrap.PublicKey{admin.Public()}}
	h.svc = NewService(orch, session, h.journal, h.producer, logger, batchSize, 10*time.Millisecond, 4)
	t.Cleanup(h.svc.Close)
	return h
}

func TestSubmitReportJournalsAndPublishes(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()

	result, err := h.svc.SubmitReport(ctx, &ReportInput{
		Title:       "Safety violation",
		Description: "Guard rails removed on line 3.",
		Category:    1,
		Severity:    4,
		Evidence:    []submission.File{{Name: "photo.jpg", Data: []byte{0xff, 0xd8, 0xff}}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RequestID)
	assert.Equal(t, types.Handle("tmp_1"), result.Handle)
	assert.Len(t, result.EvidenceLocators, 1)
	assert.True(t, result.Seed.FitsMask())

	require.Eventually(t, func() bool { return len(h.producer.Published()) == 1 }, time.Second, 5*time.Millisecond)
	job := h.producer.Published()[0]
	assert.Equal(t, result.RequestID, job.RequestID)
	assert.Equal(t, "tmp_1", job.Handle)
	assert.Equal(t, "submit_report", job.Kind)

	rec, err := h.svc.Transaction(ctx, result.RequestID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusPending, rec.Status)
	assert.Equal(t, "tmp_1", rec.Handle)
}

func TestSubmitReportValidation(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()

	cases := []*ReportInput{
		{Title: " ", Description: "x"},
		{Title: "x", Description: ""},
		{Title: "x", Description: "y", Evidence: []submission.File{{Name: "empty.txt"}}},
	}
	for i, in := range cases {
		_, err := h.svc.SubmitReport(ctx, in)
		var v *ValidationError
		assert.ErrorAs(t, err, &v, "case %d", i)
	}
	assert.Empty(t, h.ledger.Executed())
}

func TestSubmitReportDispatchFailureQueuesNothing(t *testing.T) {
	h := newHarness(t, 1)
	h.ledger.FailExecute(errors.New("bridge offline"))

	_, err := h.svc.SubmitReport(context.Background(), &ReportInput{Title: "t", Description: "d"})
	var subErr *submission.SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, submission.StageDispatch, subErr.Stage)

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, h.producer.Published())
}

func TestUpdateStatusQueuesReportID(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	result, err := h.svc.UpdateStatus(ctx, &StatusInput{ReportID: "1234field", Status: "resolved"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(h.producer.Published()) == 1 }, time.Second, 5*time.Millisecond)
	job := h.producer.Published()[0]
	assert.Equal(t, result.RequestID, job.RequestID)
	assert.Equal(t, "update_status", job.Kind)
	assert.Equal(t, "1234field", job.ReportID)

	executed := h.ledger.Executed()
	require.Len(t, executed, 1)
	assert.Equal(t, []string{"1234field", "3u8"}, executed[0].Tx.Inputs())

	for _, bad := range []*StatusInput{{ReportID: "abc", Status: "resolved"}, {ReportID: "1field", Status: "closed"}} {
		_, err := h.svc.UpdateStatus(ctx, bad)
		var v *ValidationError
		assert.ErrorAs(t, err, &v)
	}
}

func TestTransactionUnknownRequest(t *testing.T) {
	h := newHarness(t, 10)
	_, err := h.svc.Transaction(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = h.svc.Transaction(context.Background(), "")
	var v *ValidationError
	assert.ErrorAs(t, err, &v)
}

func TestBatchProcessorFlushesOnClose(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	journal := store.NewMemoryStore(logger)
	prod := producer.NewMockProducer(logger)
	bp := NewBatchProcessor(100, time.Hour, 1, journal, prod, logger)

	bp.Submit("r1", "tmp_1", types.KindSubmitReport, "")
	bp.Submit("r2", "tmp_2", types.KindAddComment, "5field")
	bp.Close()

	assert.Len(t, prod.Published(), 2)
	rec, err := journal.GetByRequestID(context.Background(), "r2")
	require.NoError(t, err)
	assert.Equal(t, "add_comment", rec.Kind)
	assert.Equal(t, "5field", rec.ReportID)
}

func TestBatchProcessorSkipsPublishWhenJournalFails(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	journal := store.NewMemoryStore(logger)
	prod := producer.NewMockProducer(logger)
	bp := NewBatchProcessor(1, time.Hour, 1, failingJournal{journal}, prod, logger)

	bp.Submit("r1", "tmp_1", types.KindSubmitReport, "")
	bp.Close()
	assert.Empty(t, prod.Published())
}

type failingJournal struct{ store.Store }

func (failingJournal) InsertTransactionBatch(ctx context.Context, records []*store.TxRecord) error {
	return errors.New("connection refused")
}

func TestBatchProcessorToleratesNonPositiveSettings(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	journal := store.NewMemoryStore(logger)
	prod := producer.NewMockProducer(logger)

	var bp *BatchProcessor
	require.NotPanics(t, func() {
		bp = NewBatchProcessor(-1, -time.Second, -1, journal, prod, logger)
	})
	bp.Submit("r1", "tmp_1", types.KindSubmitReport, "")
	assert.Eventually(t, func() bool { return len(prod.Published()) == 1 }, 2*time.Second, 10*time.Millisecond)
	bp.Close()
}
