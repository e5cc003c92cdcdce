// Package field implements arithmetic in the prime field ℤₚ used by every
// sharing scheme.
//
// Elements are backed by saferith.Nat values reduced modulo a saferith.Modulus.
// Modular inversion uses the extended Euclidean algorithm so that a missing
// inverse surfaces as an error instead of a silent zero.
package field

import (
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"

	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// primalityRounds is the number of Miller-Rabin rounds used to vet a modulus.
const primalityRounds = 32

// maxIterations bounds rejection sampling.
const maxIterations = 255

// ErrMaxIterations is returned when the random source keeps producing values outside the field.
var ErrMaxIterations = fmt.Errorf("field: failed to sample after %d iterations", maxIterations)

// Field is the prime field ℤₚ. It is immutable once created.
type Field struct {
	p       *big.Int
	modulus *saferith.Modulus
	bitLen  int
}

// New creates the field ℤₚ, rejecting moduli that are not (probably) prime.
func New(p *big.Int) (*Field, error) {
	if p == nil || p.Cmp(big.NewInt(2)) < 0 {
		return nil, mserr.WithDetails(mserr.ErrInvalidModulus, map[string]string{
			"reason": "modulus must be at least 2",
		})
	}
	if !p.ProbablyPrime(primalityRounds) {
		return nil, mserr.WithDetails(mserr.ErrInvalidModulus, map[string]string{
			"reason":  "modulus is not prime",
			"modulus": p.String(),
		})
	}

	pc := new(big.Int).Set(p)
	return &Field{
		p:       pc,
		modulus: saferith.ModulusFromBytes(pc.Bytes()),
		bitLen:  pc.BitLen(),
	}, nil
}

// MustNew is like New but panics on error. Intended for package-level presets and tests.
func MustNew(p *big.Int) *Field {
	f, err := New(p)
	if err != nil {
		panic(err)
	}
	return f
}

// Modulus returns a copy of p.
func (f *Field) Modulus() *big.Int {
	return new(big.Int).Set(f.p)
}

// BitLen returns ⌊log2(p)⌋+1, the bit length of the hash output used for pseudo shares.
func (f *Field) BitLen() int {
	return f.bitLen
}

// ByteLen returns the number of bytes needed to encode any element.
func (f *Field) ByteLen() int {
	return (f.bitLen + 7) / 8
}

// Exceeds reports whether p > x.
func (f *Field) Exceeds(x *big.Int) bool {
	return f.p.Cmp(x) > 0
}

// Zero returns the additive identity.
func (f *Field) Zero() Element {
	return f.FromUint64(0)
}

// One returns the multiplicative identity.
func (f *Field) One() Element {
	return f.FromUint64(1)
}

// FromUint64 reduces v modulo p.
func (f *Field) FromUint64(v uint64) Element {
	n := new(saferith.Nat).SetUint64(v)
	return Element{nat: new(saferith.Nat).Mod(n, f.modulus)}
}

// Reduce maps an arbitrary integer, negative ones included, into [0, p).
func (f *Field) Reduce(x *big.Int) Element {
	r := new(big.Int).Mod(x, f.p)
	n := new(saferith.Nat).SetBig(r, f.bitLen)
	return Element{nat: new(saferith.Nat).Mod(n, f.modulus)}
}

// FromBytes interprets b as a big-endian unsigned integer and reduces it modulo p.
func (f *Field) FromBytes(b []byte) Element {
	n := new(saferith.Nat).SetBytes(b)
	return Element{nat: new(saferith.Nat).Mod(n, f.modulus)}
}

// Encode returns the fixed-width big-endian encoding of e, ByteLen() bytes long.
func (f *Field) Encode(e Element) []byte {
	out := make([]byte, f.ByteLen())
	return f.nat(e).FillBytes(out)
}

// Add returns a + b mod p.
func (f *Field) Add(a, b Element) Element {
	return Element{nat: new(saferith.Nat).ModAdd(f.nat(a), f.nat(b), f.modulus)}
}

// Sub returns a - b mod p.
func (f *Field) Sub(a, b Element) Element {
	return Element{nat: new(saferith.Nat).ModSub(f.nat(a), f.nat(b), f.modulus)}
}

// Mul returns a ⋅ b mod p.
func (f *Field) Mul(a, b Element) Element {
	return Element{nat: new(saferith.Nat).ModMul(f.nat(a), f.nat(b), f.modulus)}
}

// Inverse returns a⁻¹ mod p, or ErrNoInverse when a ≡ 0.
func (f *Field) Inverse(a Element) (Element, error) {
	inv, err := ModInverse(a.Big(), f.p)
	if err != nil {
		return Element{}, err
	}
	return f.Reduce(inv), nil
}

// Equal reports whether a ≡ b mod p.
func (f *Field) Equal(a, b Element) bool {
	return f.nat(a).Eq(f.nat(b)) == 1
}

// Contains reports whether x already lies in [0, p).
func (f *Field) Contains(x *big.Int) bool {
	return x.Sign() >= 0 && f.p.Cmp(x) > 0
}

// Random samples a uniform element of ℤₚ from r.
func (f *Field) Random(r io.Reader) (Element, error) {
	buf := make([]byte, f.ByteLen())
	excess := uint(8*len(buf) - f.bitLen)
	out := new(saferith.Nat)
	for i := 0; i < maxIterations; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return Element{}, fmt.Errorf("reading randomness: %w", err)
		}
		buf[0] &= 0xFF >> excess
		out.SetBytes(buf)
		if _, _, lt := out.CmpMod(f.modulus); lt == 1 {
			return Element{nat: new(saferith.Nat).Mod(out, f.modulus)}, nil
		}
	}
	return Element{}, ErrMaxIterations
}

// RandomNonZero samples a uniform element of ℤₚ \ {0}.
func (f *Field) RandomNonZero(r io.Reader) (Element, error) {
	for i := 0; i < maxIterations; i++ {
		e, err := f.Random(r)
		if err != nil {
			return Element{}, err
		}
		if !e.IsZero() {
			return e, nil
		}
	}
	return Element{}, ErrMaxIterations
}

func (f *Field) nat(e Element) *saferith.Nat {
	if e.nat == nil {
		return new(saferith.Nat).Mod(new(saferith.Nat).SetUint64(0), f.modulus)
	}
	return e.nat
}

// Element is a residue in [0, p). The zero value is the element 0.
type Element struct {
	nat *saferith.Nat
}

// Big returns the element as a non-negative big.Int.
func (e Element) Big() *big.Int {
	if e.nat == nil {
		return new(big.Int)
	}
	return e.nat.Big()
}

// IsZero reports whether e is the zero element.
func (e Element) IsZero() bool {
	return e.nat == nil || e.nat.EqZero() == 1
}

// String returns the decimal representation of e.
func (e Element) String() string {
	return e.Big().String()
}
