package field

import (
	"bytes"
	"crypto/rand"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

var errBrokenReader = errors.New("broken reader")

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, errBrokenReader
}

// p256 is the prime of the NIST P-256 curve.
func p256() *big.Int {
	p, _ := new(big.Int).SetString("ffffffff00000001000000000000000000000000ffffffffffffffffffffffff", 16)
	return p
}

func TestModInverseKnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, m, want int64
	}{
		{5, 17, 7},
		{3, 26, 9},
		{1, 7, 1},
		{6, 7, 6},
		{-1, 7, 6},
		{18, 17, 1},
	}

	for _, tc := range tests {
		got, err := ModInverse(big.NewInt(tc.a), big.NewInt(tc.m))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Int64(), "inverse of %d mod %d", tc.a, tc.m)
	}
}

func TestModInverseUndefined(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, m int64
	}{
		{"zero", 0, 17},
		{"multiple of modulus", 34, 17},
		{"shared factor", 2, 4},
		{"zero modulus", 3, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ModInverse(big.NewInt(tc.a), big.NewInt(tc.m))
			require.ErrorIs(t, err, mserr.ErrNoInverse)
		})
	}
}

func TestModInverseExhaustiveSmallPrime(t *testing.T) {
	t.Parallel()

	p := big.NewInt(17)
	for a := int64(1); a < 17; a++ {
		inv, err := ModInverse(big.NewInt(a), p)
		require.NoError(t, err)
		prod := new(big.Int).Mul(big.NewInt(a), inv)
		assert.Equal(t, int64(1), prod.Mod(prod, p).Int64())
	}
}

func TestModInverseProperty(t *testing.T) {
	t.Parallel()

	primes := []*big.Int{big.NewInt(1009), big.NewInt(4099), big.NewInt(15487469), p256()}
	for _, p := range primes {
		pMinusOne := new(big.Int).Sub(p, big.NewInt(1))
		for i := 0; i < 50; i++ {
			a, err := rand.Int(rand.Reader, pMinusOne)
			require.NoError(t, err)
			a.Add(a, big.NewInt(1)) // 1 <= a < p

			inv, err := ModInverse(a, p)
			require.NoError(t, err)

			prod := new(big.Int).Mul(a, inv)
			assert.Equal(t, 0, prod.Mod(prod, p).Cmp(big.NewInt(1)))
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	f, err := New(big.NewInt(1009))
	require.NoError(t, err)
	assert.Equal(t, 10, f.BitLen())
	assert.Equal(t, 2, f.ByteLen())

	f, err = New(p256())
	require.NoError(t, err)
	assert.Equal(t, 256, f.BitLen())
	assert.Equal(t, 32, f.ByteLen())

	for _, bad := range []*big.Int{nil, big.NewInt(1), big.NewInt(24), big.NewInt(-7)} {
		_, err := New(bad)
		require.ErrorIs(t, err, mserr.ErrInvalidModulus)
	}
}

func TestReduce(t *testing.T) {
	t.Parallel()

	f := MustNew(big.NewInt(1009))
	assert.Equal(t, int64(1002), f.Reduce(big.NewInt(2011)).Big().Int64())
	assert.Equal(t, int64(1008), f.Reduce(big.NewInt(-1)).Big().Int64())
	assert.Equal(t, int64(5), f.Reduce(big.NewInt(5)).Big().Int64())
	assert.True(t, f.Reduce(big.NewInt(1009)).IsZero())
}

func TestFromBytes(t *testing.T) {
	t.Parallel()

	f := MustNew(big.NewInt(1009))
	assert.Equal(t, int64(1002), f.FromBytes([]byte{0x07, 0xdb}).Big().Int64()) // 2011
	assert.True(t, f.FromBytes(nil).IsZero())

	e := f.FromUint64(777)
	encoded := f.Encode(e)
	assert.Len(t, encoded, 2)
	assert.True(t, f.Equal(e, f.FromBytes(encoded)))
}

func TestArithmetic(t *testing.T) {
	t.Parallel()

	f := MustNew(big.NewInt(7))
	a, b := f.FromUint64(5), f.FromUint64(4)

	assert.Equal(t, int64(2), f.Add(a, b).Big().Int64())
	assert.Equal(t, int64(1), f.Sub(a, b).Big().Int64())
	assert.Equal(t, int64(6), f.Sub(b, a).Big().Int64())
	assert.Equal(t, int64(6), f.Mul(a, b).Big().Int64())

	inv, err := f.Inverse(a)
	require.NoError(t, err)
	assert.True(t, f.Equal(f.One(), f.Mul(a, inv)))

	_, err = f.Inverse(f.Zero())
	require.ErrorIs(t, err, mserr.ErrNoInverse)
}

func TestZeroValueElement(t *testing.T) {
	t.Parallel()

	f := MustNew(big.NewInt(7))
	var zero Element
	assert.True(t, zero.IsZero())
	assert.Equal(t, "0", zero.String())
	assert.True(t, f.Equal(zero, f.Zero()))
	assert.Equal(t, int64(3), f.Add(zero, f.FromUint64(3)).Big().Int64())
}

func TestRandom(t *testing.T) {
	t.Parallel()

	for _, p := range []*big.Int{big.NewInt(7), big.NewInt(1009), p256()} {
		f := MustNew(p)
		for i := 0; i < 100; i++ {
			e, err := f.Random(rand.Reader)
			require.NoError(t, err)
			assert.True(t, f.Contains(e.Big()))

			nz, err := f.RandomNonZero(rand.Reader)
			require.NoError(t, err)
			assert.False(t, nz.IsZero())
		}
	}
}

func TestRandomReaderFailure(t *testing.T) {
	t.Parallel()

	f := MustNew(big.NewInt(1009))
	_, err := f.Random(brokenReader{})
	require.ErrorIs(t, err, errBrokenReader)
}

func TestRandomExhaustion(t *testing.T) {
	t.Parallel()

	// 0x03ff masks to 1023, always >= 1009
	f := MustNew(big.NewInt(1009))
	_, err := f.Random(bytes.NewReader(bytes.Repeat([]byte{0xff}, 2*maxIterations)))
	require.ErrorIs(t, err, ErrMaxIterations)
}

func TestConversions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{0}, IntToBytes(big.NewInt(0)))
	assert.Equal(t, []byte{0x01, 0x39}, IntToBytes(big.NewInt(313)))
	assert.Equal(t, int64(313), BytesToInt([]byte{0x01, 0x39}).Int64())
}

func TestExceeds(t *testing.T) {
	t.Parallel()

	f := MustNew(big.NewInt(7))
	assert.True(t, f.Exceeds(big.NewInt(6)))
	assert.False(t, f.Exceeds(big.NewInt(7)))
	assert.Equal(t, int64(7), f.Modulus().Int64())
}

func TestParsePrime(t *testing.T) {
	t.Parallel()

	p, err := ParsePrime("")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Cmp(p256()))

	p, err = ParsePrime(" P256 ")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Cmp(p256()))

	p, err = ParsePrime("1009")
	require.NoError(t, err)
	assert.Equal(t, int64(1009), p.Int64())

	p, err = ParsePrime("0x11")
	require.NoError(t, err)
	assert.Equal(t, int64(17), p.Int64())

	_, err = ParsePrime("p-twelve")
	require.ErrorIs(t, err, mserr.ErrInvalidModulus)

	for _, name := range PrimeNames() {
		p, err := ParsePrime(name)
		require.NoError(t, err)
		_, err = New(p)
		require.NoError(t, err, name)
	}
}
