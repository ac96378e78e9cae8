package keywrap

import (
	"errors"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/twistededwards"

	"github.com/blockend-dev/AleoWhistle/internal/field"
)

// SharedSecret is the Diffie-Hellman product of one party's scalar and the other's point.
type SharedSecret struct {
	point twistededwards.PointAffine
}

// Field returns the x-coordinate used to mask content keys.
func (s SharedSecret) Field() field.Element {
	return xField(&s.point)
}

// Zero wipes the shared point.
func (s *SharedSecret) Zero() {
	s.point.X.SetZero()
	s.point.Y.SetZero()
}

// Bundle is what a submission publishes for its recipients: one ephemeral public field and
// one wrapped key per recipient, in recipient order.
type Bundle struct {
	EphemeralPublic field.Element
	Keys            []field.Element
}

// DeriveSharedSecret multiplies pub by the scalar of priv.
// DeriveSharedSecret(e, R) equals DeriveSharedSecret(r, E) for key pairs (e, E) and (r, R).
func DeriveSharedSecret(priv *PrivateKey, pub PublicKey) (SharedSecret, error) {
	if !priv.valid() {
		return SharedSecret{}, errors.New("private key is empty or has been zeroed")
	}
	if !inSubgroup(&pub.point) || isIdentity(&pub.point) {
		return SharedSecret{}, ErrInvalidPoint
	}
	var s SharedSecret
	s.point.ScalarMultiplication(&pub.point, priv.scalar)
	return s, nil
}

// Wrap masks a content key with a shared secret: (key XOR secret) AND (2^250 - 1).
// Keys wider than the mask are rejected because the high bits would not survive Unwrap.
func Wrap(contentKey, secret field.Element) (field.Element, error) {
	if !contentKey.FitsMask() {
		return field.Element{}, fmt.Errorf("content key exceeds %d bits", field.MaskBits)
	}
	return field.MaskedXor(contentKey, secret), nil
}

// Unwrap reverses Wrap given the same secret. It applies the identical XOR and mask, so a
// wrong secret yields a wrong key rather than an error; callers detect that when the payload
// fails to authenticate.
func Unwrap(wrapped, secret field.Element) field.Element {
	return field.MaskedXor(wrapped, secret)
}

// WrapForRecipients wraps contentKey for every recipient under one fresh ephemeral key pair.
// The ephemeral scalar is wiped before returning.
func WrapForRecipients(random io.Reader, contentKey field.Element, recipients []PublicKey) (*Bundle, error) {
	if len(recipients) == 0 {
		return nil, errors.New("at least one recipient is required")
	}

	ephemeral, err := GenerateEphemeral(random)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}
	defer ephemeral.Zero()

	bundle := &Bundle{
		EphemeralPublic: ephemeral.Public().Field(),
		Keys:            make([]field.Element, 0, len(recipients)),
	}
	for i, recipient := range recipients {
		secret, err := DeriveSharedSecret(ephemeral, recipient)
		if err != nil {
			return nil, fmt.Errorf("recipient %d: %w", i, err)
		}
		wrapped, err := Wrap(contentKey, secret.Field())
		secret.Zero()
		if err != nil {
			return nil, fmt.Errorf("recipient %d: %w", i, err)
		}
		bundle.Keys = append(bundle.Keys, wrapped)
	}
	return bundle, nil
}

// Recover is the recipient side: rebuild the ephemeral point from its published field,
// derive the shared secret with priv and unwrap.
func Recover(priv *PrivateKey, ephemeralPublic, wrapped field.Element) (field.Element, error) {
	eph, err := PublicKeyFromField(ephemeralPublic)
	if err != nil {
		return field.Element{}, fmt.Errorf("ephemeral public field: %w", err)
	}
	secret, err := DeriveSharedSecret(priv, eph)
	if err != nil {
		return field.Element{}, err
	}
	defer secret.Zero()
	return Unwrap(wrapped, secret.Field()), nil
}
