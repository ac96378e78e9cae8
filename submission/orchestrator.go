// Package submission runs the write flows against the ledger: encrypt a report, upload it,
// wrap its key for the reviewers and dispatch the commitments, plus the reviewer-side calls
// that move a report through review.
package submission

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	blockchain "github.com/blockend-dev/AleoWhistle/blockchain/client"
	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/internal/aead"
	"github.com/blockend-dev/AleoWhistle/internal/field"
	"github.com/blockend-dev/AleoWhistle/internal/keywrap"
	"github.com/blockend-dev/AleoWhistle/internal/secure"
	"github.com/blockend-dev/AleoWhistle/processing"
	"github.com/blockend-dev/AleoWhistle/storage/content"
)

const (
	reportObjectName  = "encrypted_report.bin"
	commentObjectName = "encrypted_comment.bin"
)

// Session identifies who signs a write and who may read it.
type Session struct {
	Signer     string
	Recipients []keywrap.PublicKey
}

// File is one piece of evidence attached to a report.
type File struct {
	Name string
	Data []byte
}

// Report is the plaintext a submitter fills in.
type Report struct {
	Title       string
	Description string
	Category    uint8
	Severity    uint8
	Timestamp   time.Time // zero means now
	Evidence    []File
}

// Submission holds the public values of a dispatched report, plus the seed which only the
// submitter ever sees.
type Submission struct {
	Seed             field.Element
	Handle           types.Handle
	Locator          string
	EvidenceLocators []string
	ContentDigest    field.Element
	LocatorField     field.Element
	EphemeralPublic  field.Element
	WrappedKeys      []field.Element
}

// Confirmation is the outcome of an accepted transaction.
type Confirmation struct {
	Handle    types.Handle
	FinalTxID string
	// ReportID is Zero unless a submit_report receipt could be read.
	ReportID field.Element
}

// Comment is a dispatched add_comment write.
type Comment struct {
	Handle  types.Handle
	Locator string
	Field   field.Element
}

// Orchestrator sequences the submission pipeline. It holds no per-report state.
type Orchestrator struct {
	store   content.Store
	ledger  blockchain.LedgerClient
	tracker *processing.Tracker
	random  io.Reader
	logger  *log.Logger
}

// NewOrchestrator wires an orchestrator. tracker may be nil when nothing is confirmed.
func NewOrchestrator(store content.Store, ledger blockchain.LedgerClient, tracker *processing.Tracker, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		ledger:  ledger,
		tracker: tracker,
		random:  rand.Reader,
		logger:  logger,
	}
}

// Submit encrypts and uploads the report and its evidence, then dispatches submit_report.
// Nothing reaches the ledger if an earlier stage fails.
func (o *Orchestrator) Submit(ctx context.Context, sess Session, r Report) (*Submission, error) {
	if len(sess.Recipients) == 0 {
		return nil, fail(StageWrap, errors.New("at least one recipient is required"))
	}

	seed, err := field.RandomFrom(o.random)
	if err != nil {
		return nil, fail(StageGenerate, err)
	}
	contentKey, err := field.RandomFrom(o.random)
	if err != nil {
		return nil, fail(StageGenerate, err)
	}
	defer contentKey.Wipe()
	key, err := aead.KeyFromField(contentKey)
	if err != nil {
		return nil, fail(StageGenerate, err)
	}
	defer secure.Zeroize(key)

	sub := &Submission{Seed: seed}

	payload := Payload{
		Title:       r.Title,
		Description: r.Description,
		Timestamp:   timestamp(r.Timestamp),
	}
	for i, file := range r.Evidence {
		blob, err := aead.Encrypt(file.Data, key)
		if err != nil {
			return nil, fail(StageEncrypt, fmt.Errorf("evidence %d: %w", i, err))
		}
		locator, err := o.upload(ctx, fmt.Sprintf("evidence_%d.bin", i), blob)
		if err != nil {
			return nil, err
		}
		payload.Evidence = append(payload.Evidence, EvidenceRef{Name: file.Name, Locator: locator})
		sub.EvidenceLocators = append(sub.EvidenceLocators, locator)
	}

	raw, err := encodeJSON(payload)
	if err != nil {
		return nil, fail(StageEncrypt, err)
	}
	blob, err := aead.Encrypt(raw, key)
	secure.Zeroize(raw)
	if err != nil {
		return nil, fail(StageEncrypt, err)
	}

	sub.Locator, err = o.upload(ctx, reportObjectName, blob)
	if err != nil {
		return nil, err
	}
	o.logger.Printf("Encrypted report uploaded as %s (%d evidence files)", sub.Locator, len(sub.EvidenceLocators))

	sub.ContentDigest = field.HashContent(blob)
	sub.LocatorField, err = locatorField(sub.Locator)
	if err != nil {
		return nil, fail(StageEncode, err)
	}

	bundle, err := keywrap.WrapForRecipients(o.random, contentKey, sess.Recipients)
	if err != nil {
		return nil, fail(StageWrap, err)
	}
	sub.EphemeralPublic = bundle.EphemeralPublic
	sub.WrappedKeys = bundle.Keys

	tx := types.SubmitReport{
		Seed:            seed,
		Category:        r.Category,
		Severity:        r.Severity,
		ContentDigest:   sub.ContentDigest,
		Locator:         sub.LocatorField,
		WrappedKeys:     sub.WrappedKeys,
		EphemeralPublic: sub.EphemeralPublic,
	}
	sub.Handle, err = o.dispatch(ctx, sess.Signer, tx)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Confirm waits for handle to be accepted. For submit_report it also reads the report id
// back from the receipt when the ledger can serve receipts.
func (o *Orchestrator) Confirm(ctx context.Context, handle types.Handle, kind types.TxKind) (*Confirmation, error) {
	if o.tracker == nil {
		return nil, errors.New("no tracker configured")
	}
	finalID, err := o.tracker.Await(ctx, handle)
	if err != nil {
		return nil, err
	}
	conf := &Confirmation{Handle: handle, FinalTxID: finalID}
	if kind != types.KindSubmitReport {
		return conf, nil
	}
	reader, ok := o.ledger.(blockchain.ReceiptReader)
	if !ok {
		return conf, nil
	}
	reportID, err := reader.ReportID(ctx, finalID)
	if err != nil {
		// The write is final either way; the id can be read again later.
		o.logger.Printf("Warning: transaction %s accepted but report id unavailable: %v", finalID, err)
		return conf, nil
	}
	conf.ReportID = reportID
	return conf, nil
}

// SubmitAndConfirm runs Submit then Confirm.
func (o *Orchestrator) SubmitAndConfirm(ctx context.Context, sess Session, r Report) (*Submission, *Confirmation, error) {
	sub, err := o.Submit(ctx, sess, r)
	if err != nil {
		return nil, nil, err
	}
	conf, err := o.Confirm(ctx, sub.Handle, types.KindSubmitReport)
	if err != nil {
		return sub, nil, fail(StageConfirm, err)
	}
	return sub, conf, nil
}

// UpdateStatus dispatches update_status for a report.
func (o *Orchestrator) UpdateStatus(ctx context.Context, sess Session, reportID field.Element, status types.ReportStatus) (types.Handle, error) {
	if !status.Valid() {
		return "", fail(StageEncode, fmt.Errorf("invalid report status %d", uint8(status)))
	}
	return o.dispatch(ctx, sess.Signer, types.UpdateStatus{ReportID: reportID, Status: status})
}

// AddComment encrypts text under the report's content key, uploads it and dispatches
// add_comment with the comment's locator field. contentKey stays owned by the caller, which
// wipes it when done; only the derived key bytes are cleared here.
func (o *Orchestrator) AddComment(ctx context.Context, sess Session, reportID, contentKey field.Element, text string) (*Comment, error) {
	key, err := aead.KeyFromField(contentKey)
	if err != nil {
		return nil, fail(StageEncrypt, err)
	}
	defer secure.Zeroize(key)

	raw, err := encodeJSON(CommentPayload{Text: text, Timestamp: timestamp(time.Time{})})
	if err != nil {
		return nil, fail(StageEncrypt, err)
	}
	blob, err := aead.Encrypt(raw, key)
	if err != nil {
		return nil, fail(StageEncrypt, err)
	}

	c := &Comment{}
	if c.Locator, err = o.upload(ctx, commentObjectName, blob); err != nil {
		return nil, err
	}
	if c.Field, err = locatorField(c.Locator); err != nil {
		return nil, fail(StageEncode, err)
	}
	if c.Handle, err = o.dispatch(ctx, sess.Signer, types.AddComment{ReportID: reportID, Comment: c.Field}); err != nil {
		return nil, err
	}
	return c, nil
}

func (o *Orchestrator) upload(ctx context.Context, name string, blob []byte) (string, error) {
	locator, err := o.store.Put(ctx, name, blob)
	if err != nil {
		return "", fail(StageUpload, &UploadError{Name: name, Err: err})
	}
	return locator, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, signer string, tx types.Transaction) (types.Handle, error) {
	handle, err := o.ledger.Execute(ctx, signer, tx)
	if err != nil {
		return "", fail(StageDispatch, &DispatchError{Function: string(tx.Kind()), Err: err})
	}
	if handle == "" {
		return "", fail(StageDispatch, &DispatchError{Function: string(tx.Kind()), Err: errors.New("empty transaction handle")})
	}
	o.logger.Printf("Dispatched %s as %s", tx.Kind(), handle)
	return handle, nil
}

// locatorField rejects locators the store should never have returned.
func locatorField(locator string) (field.Element, error) {
	f := field.FromLocator(locator)
	if f.IsZero() {
		return field.Element{}, fmt.Errorf("store returned unparseable locator %q", locator)
	}
	return f, nil
}

func timestamp(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}
