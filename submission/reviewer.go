package submission

import (
	"context"
	"fmt"

	"github.com/blockend-dev/AleoWhistle/internal/aead"
	"github.com/blockend-dev/AleoWhistle/internal/field"
	"github.com/blockend-dev/AleoWhistle/internal/keywrap"
	"github.com/blockend-dev/AleoWhistle/internal/secure"
	"github.com/blockend-dev/AleoWhistle/storage/content"
)

// Envelope is what a reviewer needs to open one report: the public values published on the
// ledger for the reviewer's slot and the locator shared out of band.
type Envelope struct {
	Locator         string
	ContentDigest   field.Element
	LocatorField    field.Element // optional; checked against Locator when set
	EphemeralPublic field.Element
	WrappedKey      field.Element
}

// EnvelopeFor builds the envelope of recipient slot i of a submission.
func EnvelopeFor(sub *Submission, i int) (Envelope, error) {
	if i < 0 || i >= len(sub.WrappedKeys) {
		return Envelope{}, fmt.Errorf("recipient slot %d out of range", i)
	}
	return Envelope{
		Locator:         sub.Locator,
		ContentDigest:   sub.ContentDigest,
		LocatorField:    sub.LocatorField,
		EphemeralPublic: sub.EphemeralPublic,
		WrappedKey:      sub.WrappedKeys[i],
	}, nil
}

// Opened is a decrypted report. ContentKey opens its evidence and comments.
type Opened struct {
	Payload    *Payload
	ContentKey field.Element
}

// Reviewer opens reports addressed to one private key.
type Reviewer struct {
	store content.Store
	key   *keywrap.PrivateKey
}

func NewReviewer(store content.Store, key *keywrap.PrivateKey) *Reviewer {
	return &Reviewer{store: store, key: key}
}

// Close wipes the private key. The reviewer is unusable afterwards.
func (r *Reviewer) Close() {
	r.key.Zero()
}

// Open recovers the content key, fetches the blob, checks it against the published digest
// and decrypts it.
func (r *Reviewer) Open(ctx context.Context, env Envelope) (*Opened, error) {
	if !env.LocatorField.IsZero() && !field.FromLocator(env.Locator).Equal(env.LocatorField) {
		return nil, ErrLocatorMismatch
	}

	contentKey, err := keywrap.Recover(r.key, env.EphemeralPublic, env.WrappedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to recover content key: %w", err)
	}

	blob, err := r.store.Get(ctx, env.Locator)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report %s: %w", env.Locator, err)
	}
	if !field.HashContent(blob).Equal(env.ContentDigest) {
		return nil, ErrDigestMismatch
	}

	raw, err := decrypt(blob, contentKey)
	if err != nil {
		return nil, err
	}
	defer secure.Zeroize(raw)

	payload, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}
	return &Opened{Payload: payload, ContentKey: contentKey}, nil
}

// OpenEvidence fetches and decrypts one evidence object.
func (r *Reviewer) OpenEvidence(ctx context.Context, locator string, contentKey field.Element) ([]byte, error) {
	blob, err := r.store.Get(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch evidence %s: %w", locator, err)
	}
	return decrypt(blob, contentKey)
}

// ReadComment fetches and decrypts a comment.
func (r *Reviewer) ReadComment(ctx context.Context, locator string, contentKey field.Element) (*CommentPayload, error) {
	blob, err := r.store.Get(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comment %s: %w", locator, err)
	}
	raw, err := decrypt(blob, contentKey)
	if err != nil {
		return nil, err
	}
	return decodeComment(raw)
}

func decrypt(blob []byte, contentKey field.Element) ([]byte, error) {
	key, err := aead.KeyFromField(contentKey)
	if err != nil {
		// Unwrapping with the wrong secret can land above the content key width.
		return nil, &aead.AuthenticationError{Reason: "recovered key out of range", Err: err}
	}
	defer secure.Zeroize(key)
	return aead.Decrypt(blob, key)
}
