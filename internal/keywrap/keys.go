// Package keywrap hands one symmetric content key to several recipients.
//
// Keys live on the twisted Edwards curve defined over the BLS12-377 scalar field, the
// same group the ledger uses for account keys. A submitter draws one ephemeral key pair,
// multiplies each recipient's public point by the ephemeral scalar and XORs the content key
// with the x-coordinate of the product. A recipient multiplies the published ephemeral point
// by its own scalar, lands on the same product and undoes the XOR.
package keywrap

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/twistededwards"

	"github.com/blockend-dev/AleoWhistle/internal/field"
	"github.com/blockend-dev/AleoWhistle/internal/secure"
)

// ScalarSuffix marks private scalar literals.
const ScalarSuffix = "scalar"

// maxEphemeralAttempts bounds the rejection loop in GenerateEphemeral. Roughly one point in
// seven has an x-coordinate below 2^250, so exhausting it means the entropy source is broken.
const maxEphemeralAttempts = 256

var (
	curve = twistededwards.GetEdwardsCurve()

	// ErrInvalidPoint is returned for field values that do not name a subgroup point.
	ErrInvalidPoint = errors.New("not a valid public key")
)

// PrivateKey is a scalar in [1, order).
type PrivateKey struct {
	scalar *big.Int
}

// PublicKey is a point of the prime-order subgroup.
type PublicKey struct {
	point twistededwards.PointAffine
}

// Order returns a copy of the prime subgroup order.
func Order() *big.Int {
	return new(big.Int).Set(&curve.Order)
}

// GenerateKey draws a long-term key pair for a recipient.
func GenerateKey(random io.Reader) (*PrivateKey, error) {
	if random == nil {
		random = rand.Reader
	}
	upper := new(big.Int).Sub(&curve.Order, big.NewInt(1))
	s, err := rand.Int(random, upper)
	if err != nil {
		return nil, fmt.Errorf("failed to sample scalar: %w", err)
	}
	return &PrivateKey{scalar: s.Add(s, big.NewInt(1))}, nil
}

// GenerateEphemeral draws a one-time key pair whose public field fits the 250-bit mask.
func GenerateEphemeral(random io.Reader) (*PrivateKey, error) {
	for i := 0; i < maxEphemeralAttempts; i++ {
		k, err := GenerateKey(random)
		if err != nil {
			return nil, err
		}
		if k.Public().Field().FitsMask() {
			return k, nil
		}
		k.Zero()
	}
	return nil, errors.New("no ephemeral key with a 250-bit public field found")
}

// ParsePrivateKey reads a decimal scalar, with or without the "scalar" suffix.
func ParsePrivateKey(s string) (*PrivateKey, error) {
	digits := strings.TrimSuffix(strings.TrimSpace(s), ScalarSuffix)
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("private key is not a decimal scalar")
	}
	if n.Sign() <= 0 || n.Cmp(&curve.Order) >= 0 {
		return nil, fmt.Errorf("private key scalar out of range")
	}
	return &PrivateKey{scalar: n}, nil
}

// String returns the scalar literal. Callers must not log it.
func (k *PrivateKey) String() string {
	if k == nil || k.scalar == nil {
		return "0" + ScalarSuffix
	}
	return k.scalar.String() + ScalarSuffix
}

// Public returns the point scalar·G.
func (k *PrivateKey) Public() PublicKey {
	var pub PublicKey
	pub.point.ScalarMultiplication(&curve.Base, k.scalar)
	return pub
}

// Zero wipes the scalar. The key is unusable afterwards.
func (k *PrivateKey) Zero() {
	if k == nil {
		return
	}
	secure.ZeroizeBig(k.scalar)
	k.scalar = nil
}

func (k *PrivateKey) valid() bool {
	return k != nil && k.scalar != nil && k.scalar.Sign() > 0
}

// Field returns the x-coordinate, the form in which points are published on the ledger.
func (p PublicKey) Field() field.Element {
	return xField(&p.point)
}

// String returns the ledger literal of Field.
func (p PublicKey) String() string {
	return p.Field().String()
}

// Equal compares two public keys.
func (p PublicKey) Equal(o PublicKey) bool {
	return p.point.Equal(&o.point)
}

// ParsePublicKey reads a "<x>field" literal.
func ParsePublicKey(s string) (PublicKey, error) {
	x, err := field.Parse(s)
	if err != nil {
		return PublicKey{}, err
	}
	return PublicKeyFromField(x)
}

// PublicKeyFromField recovers the subgroup point with the given x-coordinate.
//
// Both (x, y) and (x, -y) lie on the curve but only one of them is in the prime-order
// subgroup, so the x-coordinate alone names the key.
func PublicKeyFromField(x field.Element) (PublicKey, error) {
	if x.IsZero() {
		return PublicKey{}, fmt.Errorf("%w: identity x-coordinate", ErrInvalidPoint)
	}

	var px, x2, num, den, y2, y, one fr.Element
	px.SetBigInt(x.Big())
	one.SetOne()

	// a·x² + y² = 1 + d·x²·y²  =>  y² = (1 - a·x²) / (1 - d·x²)
	x2.Square(&px)
	num.Mul(&curve.A, &x2)
	num.Sub(&one, &num)
	den.Mul(&curve.D, &x2)
	den.Sub(&one, &den)
	if den.IsZero() {
		return PublicKey{}, fmt.Errorf("%w: degenerate x-coordinate", ErrInvalidPoint)
	}
	den.Inverse(&den)
	y2.Mul(&num, &den)
	if y.Sqrt(&y2) == nil {
		return PublicKey{}, fmt.Errorf("%w: x-coordinate is not on the curve", ErrInvalidPoint)
	}

	var pub PublicKey
	pub.point.X = px
	pub.point.Y = y
	if inSubgroup(&pub.point) {
		return pub, nil
	}
	pub.point.Y.Neg(&y)
	if inSubgroup(&pub.point) {
		return pub, nil
	}
	return PublicKey{}, fmt.Errorf("%w: point outside the prime-order subgroup", ErrInvalidPoint)
}

func inSubgroup(p *twistededwards.PointAffine) bool {
	if !p.IsOnCurve() {
		return false
	}
	var q twistededwards.PointAffine
	q.ScalarMultiplication(p, &curve.Order)
	return isIdentity(&q)
}

func isIdentity(p *twistededwards.PointAffine) bool {
	return p.X.IsZero() && p.Y.IsOne()
}

func xField(p *twistededwards.PointAffine) field.Element {
	e, err := field.FromBig(p.X.BigInt(new(big.Int)))
	if err != nil {
		// fr elements are always reduced below the modulus.
		panic(fmt.Sprintf("keywrap: x-coordinate out of range: %v", err))
	}
	return e
}
