package scheme

import (
	"math/big"

	"github.com/mrz1836/multisecret/internal/access"
	"github.com/mrz1836/multisecret/internal/field"
	"github.com/mrz1836/multisecret/internal/polynomial"
)

// LinYeh masks each evaluation with U = (H(x_j) ⊕ x_j) mod p. The pseudo share
// of a participant is the same in every group; the public shares differ.
type LinYeh struct{}

// Kind implements Scheme.
func (LinYeh) Kind() Kind { return LinYehKind }

// Validate implements Scheme.
func (LinYeh) Validate(f *field.Field, _ *access.Structure) error {
	return checkHashable(f)
}

// Prepare implements Scheme. The polynomial constants are the secrets.
func (LinYeh) Prepare(s *Session, secrets []field.Element) ([]field.Element, error) {
	if err := drawMasters(s); err != nil {
		return nil, err
	}
	return secrets, nil
}

// Shares implements Scheme.
func (LinYeh) Shares(s *Session, polys map[access.Slot]*polynomial.Polynomial) (map[access.Key]field.Element, error) {
	pseudo := make(map[int]field.Element, len(s.Masters))
	return maskedShares(s, polys, func(pos access.Position) (field.Element, error) {
		if u, ok := pseudo[pos.Participant]; ok {
			return u, nil
		}
		x := s.Field.Encode(s.Masters[pos.Participant])
		h, err := s.Hasher.Sum(x, s.Field.BitLen())
		if err != nil {
			return field.Element{}, err
		}
		for b := range h {
			h[b] ^= x[b]
		}
		u := s.Field.FromBytes(h)
		pseudo[pos.Participant] = u
		return u, nil
	})
}

// Combine implements Scheme.
func (LinYeh) Combine(pub *Public, slot access.Slot, obtained map[int]field.Element) (*big.Int, error) {
	return interpolateMasked(pub, slot, obtained)
}
