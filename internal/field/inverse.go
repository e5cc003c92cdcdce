package field

import (
	"math/big"

	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// ModInverse returns b such that a⋅b ≡ 1 (mod m), computed with the iterative
// extended Euclidean algorithm. The modulus does not have to be prime; the
// inverse exists exactly when gcd(a, m) = 1.
func ModInverse(a, m *big.Int) (*big.Int, error) {
	if m == nil || m.Sign() <= 0 {
		return nil, mserr.WithDetails(mserr.ErrNoInverse, map[string]string{
			"reason": "modulus must be positive",
		})
	}

	// invariant: t0⋅a ≡ r0 and t1⋅a ≡ r1 (mod m)
	r0 := new(big.Int).Set(m)
	r1 := new(big.Int).Mod(a, m)
	t0 := new(big.Int)
	t1 := big.NewInt(1)

	if r1.Sign() == 0 {
		return nil, mserr.WithDetails(mserr.ErrNoInverse, map[string]string{
			"reason": "value is zero modulo m",
		})
	}

	q := new(big.Int)
	tmp := new(big.Int)
	for r1.Sign() != 0 {
		q.Quo(r0, r1)

		tmp.Mul(q, r1)
		r0, r1 = r1, new(big.Int).Sub(r0, tmp)

		tmp.Mul(q, t1)
		t0, t1 = t1, new(big.Int).Sub(t0, tmp)
	}

	if r0.Cmp(big.NewInt(1)) != 0 {
		return nil, mserr.WithDetails(mserr.ErrNoInverse, map[string]string{
			"reason": "value shares a factor with the modulus",
			"gcd":    r0.String(),
		})
	}

	return t0.Mod(t0, m), nil
}
