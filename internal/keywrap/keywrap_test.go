package keywrap

import (
	"bytes"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/blockend-dev/AleoWhistle/internal/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustKey(t *testing.T) *PrivateKey {
	t.Helper()
	k, err := GenerateKey(rand.Reader)
	require.NoError(t, err)
	return k
}

func TestSharedSecretReciprocity(t *testing.T) {
	for i := 0; i < 8; i++ {
		ephemeral, err := GenerateEphemeral(rand.Reader)
		require.NoError(t, err)
		recipient := mustKey(t)

		fromSubmitter, err := DeriveSharedSecret(ephemeral, recipient.Public())
		require.NoError(t, err)
		fromRecipient, err := DeriveSharedSecret(recipient, ephemeral.Public())
		require.NoError(t, err)

		assert.True(t, fromSubmitter.Field().Equal(fromRecipient.Field()))
	}
}

func TestReciprocityThroughPublishedField(t *testing.T) {
	ephemeral, err := GenerateEphemeral(rand.Reader)
	require.NoError(t, err)
	recipient := mustKey(t)

	published := ephemeral.Public().Field()
	recovered, err := PublicKeyFromField(published)
	require.NoError(t, err)
	assert.True(t, recovered.Equal(ephemeral.Public()))

	a, err := DeriveSharedSecret(ephemeral, recipient.Public())
	require.NoError(t, err)
	b, err := DeriveSharedSecret(recipient, recovered)
	require.NoError(t, err)
	assert.True(t, a.Field().Equal(b.Field()))
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	for i := 0; i < 32; i++ {
		key, err := field.Random()
		require.NoError(t, err)
		secret, err := DeriveSharedSecret(mustKey(t), mustKey(t).Public())
		require.NoError(t, err)

		wrapped, err := Wrap(key, secret.Field())
		require.NoError(t, err)
		assert.True(t, wrapped.FitsMask())
		assert.True(t, Unwrap(wrapped, secret.Field()).Equal(key))
	}
}

func TestWrapUsesFullWidthSecret(t *testing.T) {
	// A secret above the mask must still round-trip a 248-bit key.
	secret, err := field.FromBig(new(big.Int).Sub(field.Modulus(), big.NewInt(12345)))
	require.NoError(t, err)
	key, err := field.FromBytes(bytes.Repeat([]byte{0xab}, field.MaxBytes))
	require.NoError(t, err)

	wrapped, err := Wrap(key, secret)
	require.NoError(t, err)
	assert.True(t, wrapped.FitsMask())
	assert.True(t, Unwrap(wrapped, secret).Equal(key))
}

func TestWrapRejectsWideKeys(t *testing.T) {
	wide, err := field.FromBig(new(big.Int).Lsh(big.NewInt(1), field.MaskBits))
	require.NoError(t, err)
	_, err = Wrap(wide, field.FromUint64(1))
	require.Error(t, err)
}

func TestPublicKeyFieldRoundTrip(t *testing.T) {
	for i := 0; i < 8; i++ {
		k := mustKey(t)
		pub := k.Public()

		back, err := PublicKeyFromField(pub.Field())
		require.NoError(t, err)
		assert.True(t, back.Equal(pub))

		parsed, err := ParsePublicKey(pub.String())
		require.NoError(t, err)
		assert.True(t, parsed.Equal(pub))
	}
}

func TestPublicKeyFromFieldRejectsInvalid(t *testing.T) {
	_, err := PublicKeyFromField(field.Zero)
	assert.ErrorIs(t, err, ErrInvalidPoint)

	// Roughly half of all x values have no point; some small value will fail.
	failures := 0
	for v := uint64(1); v < 64; v++ {
		if _, err := PublicKeyFromField(field.FromUint64(v)); err != nil {
			assert.ErrorIs(t, err, ErrInvalidPoint)
			failures++
		}
	}
	assert.Greater(t, failures, 0)
}

func TestEphemeralPublicFieldFitsMask(t *testing.T) {
	for i := 0; i < 16; i++ {
		k, err := GenerateEphemeral(rand.Reader)
		require.NoError(t, err)
		assert.True(t, k.Public().Field().FitsMask())
	}
}

func TestEphemeralExhaustedEntropy(t *testing.T) {
	_, err := GenerateEphemeral(bytes.NewReader(nil))
	require.Error(t, err)
}

func TestPrivateKeyStringRoundTrip(t *testing.T) {
	k := mustKey(t)
	parsed, err := ParsePrivateKey(k.String())
	require.NoError(t, err)
	assert.True(t, parsed.Public().Equal(k.Public()))

	for _, bad := range []string{"", "abc", "0scalar", Order().String()} {
		_, err := ParsePrivateKey(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestZeroedKeyIsUnusable(t *testing.T) {
	k := mustKey(t)
	other := mustKey(t).Public()
	k.Zero()

	_, err := DeriveSharedSecret(k, other)
	require.Error(t, err)
	assert.Equal(t, "0scalar", k.String())
}

func TestWrapForTwoRecipients(t *testing.T) {
	admin := mustKey(t)
	reviewer := mustKey(t)
	contentKey, err := field.Random()
	require.NoError(t, err)

	bundle, err := WrapForRecipients(rand.Reader, contentKey, []PublicKey{admin.Public(), reviewer.Public()})
	require.NoError(t, err)
	require.Len(t, bundle.Keys, 2)
	assert.True(t, bundle.EphemeralPublic.FitsMask())
	assert.False(t, bundle.Keys[0].Equal(bundle.Keys[1]))

	for i, priv := range []*PrivateKey{admin, reviewer} {
		got, err := Recover(priv, bundle.EphemeralPublic, bundle.Keys[i])
		require.NoError(t, err)
		assert.True(t, got.Equal(contentKey), "recipient %d", i)
		assert.True(t, bundle.Keys[i].FitsMask())
	}

	// The admin cannot use the reviewer's slot.
	wrong, err := Recover(admin, bundle.EphemeralPublic, bundle.Keys[1])
	require.NoError(t, err)
	assert.False(t, wrong.Equal(contentKey))
}

func TestWrapForRecipientsRequiresRecipients(t *testing.T) {
	key, err := field.Random()
	require.NoError(t, err)
	_, err = WrapForRecipients(rand.Reader, key, nil)
	require.Error(t, err)
}
