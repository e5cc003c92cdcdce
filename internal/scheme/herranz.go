package scheme

import (
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/mrz1836/multisecret/internal/access"
	"github.com/mrz1836/multisecret/internal/field"
	"github.com/mrz1836/multisecret/internal/polynomial"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// maxKeyDraws bounds rejection sampling of AES keys below p.
const maxKeyDraws = 255

// HerranzRuizSaez encrypts every secret under a random AES key K_i and shares
// the key with a threshold polynomial. Each secret has exactly one group.
type HerranzRuizSaez struct {
	keySize int
}

// NewHerranzRuizSaez returns the scheme with the given AES key size in bytes.
// Zero selects DefaultKeySize.
func NewHerranzRuizSaez(keySize int) (*HerranzRuizSaez, error) {
	if keySize == 0 {
		keySize = DefaultKeySize
	}
	if keySize != KeySize128 && keySize != KeySize256 {
		return nil, mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{
			"key_size": strconv.Itoa(keySize),
			"valid":    "16, 32",
		})
	}
	return &HerranzRuizSaez{keySize: keySize}, nil
}

// KeySize returns the AES key size in bytes.
func (h *HerranzRuizSaez) KeySize() int { return h.keySize }

// Kind implements Scheme.
func (h *HerranzRuizSaez) Kind() Kind { return HerranzRuizSaezKind }

// Validate implements Scheme. The field must be wide enough to hold a key.
func (h *HerranzRuizSaez) Validate(f *field.Field, acc *access.Structure) error {
	if err := acc.RequireSingleGroup(); err != nil {
		return err
	}
	if f.BitLen() < 8*h.keySize {
		return mserr.WithDetails(mserr.ErrInvalidModulus, map[string]string{
			"reason":   "modulus too small to carry an AES key",
			"bits":     strconv.Itoa(f.BitLen()),
			"required": strconv.Itoa(8 * h.keySize),
		})
	}
	return nil
}

// Prepare implements Scheme. It draws K_i, publishes C_i = Enc(s_i, K_i) and
// returns the keys as polynomial constants.
func (h *HerranzRuizSaez) Prepare(s *Session, secrets []field.Element) ([]field.Element, error) {
	s.Public.KeySize = h.keySize
	s.Public.Ciphertexts = make([]Ciphertext, len(secrets))

	keys := make([]field.Element, len(secrets))
	for i, secret := range secrets {
		key, err := h.drawKey(s.Rand, s.Field)
		if err != nil {
			return nil, err
		}
		ct, err := EncryptCBC(s.Rand, key, field.IntToBytes(secret.Big()))
		if err != nil {
			return nil, err
		}
		s.Public.Ciphertexts[i] = ct
		keys[i] = s.Field.FromBytes(key)
	}
	return keys, nil
}

// drawKey samples keySize random bytes whose integer value lies below p, so
// the key survives the round trip through the field.
func (h *HerranzRuizSaez) drawKey(r io.Reader, f *field.Field) ([]byte, error) {
	key := make([]byte, h.keySize)
	for i := 0; i < maxKeyDraws; i++ {
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, fmt.Errorf("generating key: %w", err)
		}
		if f.Contains(field.BytesToInt(key)) {
			return key, nil
		}
	}
	return nil, field.ErrMaxIterations
}

// Shares implements Scheme. Key shares are the plain evaluations f_{i,0}(ID_j).
func (h *HerranzRuizSaez) Shares(s *Session, polys map[access.Slot]*polynomial.Polynomial) (map[access.Key]field.Element, error) {
	shares := make(map[access.Key]field.Element)
	err := s.Access.Walk(func(pos access.Position) error {
		poly, ok := polys[pos.Key().Slot()]
		if !ok {
			return mserr.WithDetails(mserr.ErrNotSplit, map[string]string{
				"secret": strconv.Itoa(pos.Secret),
			})
		}
		shares[pos.Key()] = poly.Evaluate(s.IDs[pos.Participant])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shares, nil
}

// RecoverKey interpolates K_i from the key shares of slot.
func (h *HerranzRuizSaez) RecoverKey(pub *Public, slot access.Slot, obtained map[int]field.Element) ([]byte, error) {
	points, err := Points(pub, slot, obtained, false)
	if err != nil {
		return nil, err
	}
	k, err := polynomial.Interpolate(pub.Field, points)
	if err != nil {
		return nil, err
	}

	keySize := pub.KeySize
	if keySize == 0 {
		keySize = h.keySize
	}
	kb := k.Big()
	if kb.BitLen() > 8*keySize {
		return nil, mserr.WithDetails(mserr.ErrReconstruction, map[string]string{
			"secret": strconv.Itoa(slot.Secret),
			"reason": "recovered key is out of range",
		})
	}
	return kb.FillBytes(make([]byte, keySize)), nil
}

// Combine implements Scheme: recover K_i, then decrypt C_i.
func (h *HerranzRuizSaez) Combine(pub *Public, slot access.Slot, obtained map[int]field.Element) (*big.Int, error) {
	if slot.Secret < 0 || slot.Secret >= len(pub.Ciphertexts) {
		return nil, mserr.WithDetails(mserr.ErrReconstruction, map[string]string{
			"secret": strconv.Itoa(slot.Secret),
			"reason": "no ciphertext for secret",
		})
	}

	key, err := h.RecoverKey(pub, slot, obtained)
	if err != nil {
		return nil, err
	}
	plaintext, err := DecryptCBC(key, pub.Ciphertexts[slot.Secret])
	if err != nil {
		return nil, mserr.Wrap(err, "decrypting secret %d", slot.Secret)
	}
	return field.BytesToInt(plaintext), nil
}
