package scheme

import (
	"encoding/binary"
	"math/big"
	"strconv"

	"github.com/mrz1836/multisecret/internal/access"
	"github.com/mrz1836/multisecret/internal/field"
	"github.com/mrz1836/multisecret/internal/polynomial"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// counterBytes is the width of each counter appended to a hashed master share.
const counterBytes = 2

const maxCounter = 1<<(8*counterBytes) - 1

// RoyAdhikari masks each polynomial evaluation with a pseudo share
// U = H(x_j ‖ i ‖ q ‖ k ‖ ℓ) mod p, where k is the number of secrets and ℓ
// the size of the longest group of secret i.
type RoyAdhikari struct{}

// Kind implements Scheme.
func (RoyAdhikari) Kind() Kind { return RoyAdhikariKind }

// Validate implements Scheme.
func (RoyAdhikari) Validate(f *field.Field, acc *access.Structure) error {
	if err := checkHashable(f); err != nil {
		return err
	}
	for _, v := range []int{acc.Secrets(), acc.MostGroups()} {
		if v > maxCounter {
			return mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{
				"reason": "access structure too large for hash counters",
				"value":  strconv.Itoa(v),
			})
		}
	}
	for i := 0; i < acc.Secrets(); i++ {
		if acc.LongestGroup(i) > maxCounter {
			return mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{
				"reason": "group too large for hash counters",
				"secret": strconv.Itoa(i),
			})
		}
	}
	return nil
}

// Prepare implements Scheme. The polynomial constants are the secrets.
func (RoyAdhikari) Prepare(s *Session, secrets []field.Element) ([]field.Element, error) {
	if err := drawMasters(s); err != nil {
		return nil, err
	}
	return secrets, nil
}

// Shares implements Scheme.
func (RoyAdhikari) Shares(s *Session, polys map[access.Slot]*polynomial.Polynomial) (map[access.Key]field.Element, error) {
	k := s.Access.Secrets()
	return maskedShares(s, polys, func(pos access.Position) (field.Element, error) {
		msg := pseudoMessage(s.Field, s.Masters[pos.Participant], pos.Secret, pos.Group, k, s.Access.LongestGroup(pos.Secret))
		h, err := s.Hasher.Sum(msg, s.Field.BitLen())
		if err != nil {
			return field.Element{}, err
		}
		return s.Field.FromBytes(h), nil
	})
}

// Combine implements Scheme.
func (RoyAdhikari) Combine(pub *Public, slot access.Slot, obtained map[int]field.Element) (*big.Int, error) {
	return interpolateMasked(pub, slot, obtained)
}

// pseudoMessage lays out x_j ‖ i ‖ q ‖ k ‖ ℓ: the master share in ByteLen(p)
// bytes followed by four 16-bit big-endian counters.
func pseudoMessage(f *field.Field, x field.Element, i, q, k, l int) []byte {
	msg := f.Encode(x)
	for _, v := range []int{i, q, k, l} {
		msg = binary.BigEndian.AppendUint16(msg, uint16(v)) //nolint:gosec // bounded by Validate
	}
	return msg
}
