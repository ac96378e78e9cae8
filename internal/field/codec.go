// Package field converts byte content into the integer field literals accepted by the ledger
// and back.
//
// Values produced here always fit in MaskBits bits, which keeps them below the ledger's
// BLS12-377 scalar field modulus with room for XOR combination.
package field

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/blockend-dev/AleoWhistle/internal/secure"
)

const (
	// MaxBytes is the number of big-endian bytes packed into one element.
	MaxBytes = 31
	// MaskBits bounds every value emitted by this module.
	MaskBits = 250
	// Suffix is appended to decimal literals sent to the ledger.
	Suffix = "field"
)

var (
	mask    = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), MaskBits), big.NewInt(1))
	modulus = fr.Modulus()

	// Zero is the sentinel returned by FromLocator for locators that cannot be decoded.
	Zero = Element{n: new(big.Int)}
)

// CodecError reports input that cannot be converted into an element.
type CodecError struct {
	Input string
	Err   error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("field codec: cannot decode %q: %v", e.Input, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// Element is an immutable non-negative integer below the ledger modulus.
type Element struct {
	n *big.Int
}

// Modulus returns a copy of the ledger's scalar field modulus.
func Modulus() *big.Int {
	return new(big.Int).Set(modulus)
}

// MaskValue returns a copy of 2^MaskBits - 1.
func MaskValue() *big.Int {
	return new(big.Int).Set(mask)
}

// FromBig copies n into an element. Negative values and values at or above the modulus are rejected.
func FromBig(n *big.Int) (Element, error) {
	if n == nil || n.Sign() < 0 {
		return Element{}, errors.New("field value must be non-negative")
	}
	if n.Cmp(modulus) >= 0 {
		return Element{}, fmt.Errorf("field value exceeds modulus (%d bits)", n.BitLen())
	}
	return Element{n: new(big.Int).Set(n)}, nil
}

// FromUint64 returns the element holding v.
func FromUint64(v uint64) Element {
	return Element{n: new(big.Int).SetUint64(v)}
}

// FromBytes interprets up to MaxBytes bytes as a big-endian unsigned integer.
func FromBytes(b []byte) (Element, error) {
	if len(b) > MaxBytes {
		return Element{}, fmt.Errorf("field input too long: %d bytes, max %d", len(b), MaxBytes)
	}
	return Element{n: new(big.Int).SetBytes(b)}, nil
}

// FromDigest keeps the leading MaxBytes bytes of a hash digest. This is truncation, not
// modular reduction: 31 bytes always fit under the modulus.
func FromDigest(digest []byte) (Element, error) {
	if len(digest) < MaxBytes {
		return Element{}, fmt.Errorf("digest too short: %d bytes, need %d", len(digest), MaxBytes)
	}
	return FromBytes(digest[:MaxBytes])
}

// ParseLocator reduces a content locator (a CID) to the field committed on the ledger.
//
// The mapping is lossy: only the first 31 bytes of the multihash digest survive, so the
// locator itself cannot be rebuilt from the field and has to be shared out of band.
func ParseLocator(locator string) (Element, error) {
	c, err := cid.Decode(strings.TrimSpace(locator))
	if err != nil {
		return Element{}, &CodecError{Input: locator, Err: err}
	}
	decoded, err := multihash.Decode(c.Hash())
	if err != nil {
		return Element{}, &CodecError{Input: locator, Err: err}
	}
	e, err := FromDigest(decoded.Digest)
	if err != nil {
		return Element{}, &CodecError{Input: locator, Err: err}
	}
	return e, nil
}

// FromLocator is ParseLocator with a soft failure: malformed locators yield Zero.
func FromLocator(locator string) Element {
	e, err := ParseLocator(locator)
	if err != nil {
		return Zero
	}
	return e
}

// HashContent commits to content with the first 31 bytes of its SHA2-256 digest.
func HashContent(data []byte) Element {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// SHA2_256 is always registered.
		panic(fmt.Sprintf("multihash sha2-256: %v", err))
	}
	decoded, err := multihash.Decode(mh)
	if err != nil {
		panic(fmt.Sprintf("multihash decode: %v", err))
	}
	e, _ := FromDigest(decoded.Digest)
	return e
}

// Random draws MaxBytes bytes from crypto/rand.
func Random() (Element, error) {
	return RandomFrom(rand.Reader)
}

// RandomFrom draws MaxBytes bytes from r.
func RandomFrom(r io.Reader) (Element, error) {
	buf := make([]byte, MaxBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Element{}, fmt.Errorf("failed to read random bytes: %w", err)
	}
	e, err := FromBytes(buf)
	for i := range buf {
		buf[i] = 0
	}
	return e, err
}

// Parse reads a decimal literal with or without the "field" suffix.
func Parse(s string) (Element, error) {
	digits := strings.TrimSuffix(strings.TrimSpace(s), Suffix)
	if digits == "" {
		return Element{}, &CodecError{Input: s, Err: errors.New("empty literal")}
	}
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Element{}, &CodecError{Input: s, Err: errors.New("not a decimal integer")}
	}
	e, err := FromBig(n)
	if err != nil {
		return Element{}, &CodecError{Input: s, Err: err}
	}
	return e, nil
}

// MaskedXor combines two elements bitwise and keeps the low MaskBits bits, so the result
// always fits the mask whatever the width of the inputs.
func MaskedXor(a, b Element) Element {
	n := new(big.Int).Xor(a.big(), b.big())
	return Element{n: n.And(n, mask)}
}

// Masked keeps the low MaskBits bits.
func (e Element) Masked() Element {
	return Element{n: new(big.Int).And(e.big(), mask)}
}

// FitsMask reports whether e < 2^MaskBits.
func (e Element) FitsMask() bool {
	return e.big().BitLen() <= MaskBits
}

// Wipe clears the integer behind e and leaves e as Zero. Copies of e share that integer and
// read as zero afterwards too.
func (e *Element) Wipe() {
	if e.n != nil && e.n != Zero.n {
		secure.ZeroizeBig(e.n)
	}
	e.n = nil
}

// IsZero reports whether e is the zero sentinel.
func (e Element) IsZero() bool {
	return e.big().Sign() == 0
}

// Equal compares two elements by value.
func (e Element) Equal(o Element) bool {
	return e.big().Cmp(o.big()) == 0
}

// Big returns a copy of the underlying integer.
func (e Element) Big() *big.Int {
	return new(big.Int).Set(e.big())
}

// Bytes is the inverse of FromBytes: a fixed-width, zero-padded big-endian encoding.
func (e Element) Bytes() ([]byte, error) {
	n := e.big()
	if n.BitLen() > MaxBytes*8 {
		return nil, fmt.Errorf("field value does not fit in %d bytes", MaxBytes)
	}
	out := make([]byte, MaxBytes)
	n.FillBytes(out)
	return out, nil
}

// Decimal returns the bare decimal digits.
func (e Element) Decimal() string {
	return e.big().String()
}

// String returns the ledger literal, e.g. "42field".
func (e Element) String() string {
	return e.Decimal() + Suffix
}

// MarshalText encodes the ledger literal.
func (e Element) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText accepts the ledger literal or bare digits.
func (e *Element) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func (e Element) big() *big.Int {
	if e.n == nil {
		return Zero.n
	}
	return e.n
}
