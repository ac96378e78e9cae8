// Package aead seals report payloads with AES-256-GCM.
//
// Blobs are laid out as nonce || ciphertext || tag so they can be stored and fetched as a
// single object.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/blockend-dev/AleoWhistle/internal/field"
	"github.com/blockend-dev/AleoWhistle/internal/secure"
)

const (
	// NonceSize is the 96-bit GCM nonce prepended to every blob.
	NonceSize = 12
	// TagSize is the 128-bit authentication tag appended by GCM.
	TagSize = 16
	// KeySize is the AES-256 key length.
	KeySize = 32
	// FieldKeySize is the length of key material derived from a field element.
	FieldKeySize = field.MaxBytes
)

// ErrAuthentication is matched by every AuthenticationError.
var ErrAuthentication = errors.New("authentication failed")

// AuthenticationError is returned when a blob does not verify under the key.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decryption and authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decryption and authentication failed: %s", e.Reason)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// Encrypt seals plaintext under key with a fresh random nonce.
// Key material may be 31 or 32 bytes; 31-byte keys are right-padded with a zero byte.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	return encrypt(rand.Reader, plaintext, key)
}

func encrypt(random io.Reader, plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(random, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	copy(out, nonce)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt. On any verification failure it returns an
// AuthenticationError and no plaintext.
func Decrypt(blob, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < NonceSize+TagSize {
		return nil, &AuthenticationError{Reason: fmt.Sprintf("blob too short: %d bytes", len(blob))}
	}

	// A non-nil destination keeps an empty message empty rather than nil
	plaintext, err := gcm.Open(make([]byte, 0, len(blob)-NonceSize-TagSize), blob[:NonceSize], blob[NonceSize:], nil)
	if err != nil {
		return nil, &AuthenticationError{Reason: "tag mismatch", Err: err}
	}
	return plaintext, nil
}

// KeyFromField returns the 31-byte big-endian key material held by a content key element.
func KeyFromField(e field.Element) ([]byte, error) {
	return e.Bytes()
}

// PadKey right-pads 31-byte key material to KeySize. 32-byte keys are copied unchanged.
func PadKey(key []byte) ([]byte, error) {
	switch len(key) {
	case FieldKeySize, KeySize:
	default:
		return nil, fmt.Errorf("invalid key size: expected %d or %d bytes, got %d", FieldKeySize, KeySize, len(key))
	}
	padded := make([]byte, KeySize)
	copy(padded, key)
	return padded, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	padded, err := PadKey(key)
	if err != nil {
		return nil, err
	}
	defer secure.Zeroize(padded)

	block, err := aes.NewCipher(padded)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM mode: %w", err)
	}
	return gcm, nil
}
