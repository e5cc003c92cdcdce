// Package keyhash implements the variable-length keyed hash used to derive
// pseudo shares.
//
// A message is digested (SHA-256 by default), the digest keys AES-256 in
// counter mode with the dealer's session key as the counter IV, and a
// constant block is encrypted. The keystream output is then truncated to the
// bit length of the prime modulus.
package keyhash

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"strconv"

	"golang.org/x/crypto/sha3"

	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

const (
	// SessionKeySize is the size of the per-dealer counter IV in bytes.
	SessionKeySize = aes.BlockSize

	// OutputSize is the number of bytes produced before truncation.
	OutputSize = 32

	// MaxBits is the largest bit length Sum can return.
	MaxBits = 8 * OutputSize
)

//nolint:gochecknoglobals // constant plaintext block
var expansionBlock = bytes.Repeat([]byte{'w'}, OutputSize)

// Digest names the message digest applied before expansion.
type Digest string

// Supported digests.
const (
	DigestSHA256  Digest = "sha256"
	DigestSHA3256 Digest = "sha3-256"
)

// ParseDigest resolves a digest name. An empty name selects SHA-256.
func ParseDigest(name string) (Digest, error) {
	switch Digest(name) {
	case "", DigestSHA256:
		return DigestSHA256, nil
	case DigestSHA3256:
		return DigestSHA3256, nil
	default:
		return "", mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{
			"digest": name,
			"valid":  "sha256, sha3-256",
		})
	}
}

func (d Digest) newHash() func() hash.Hash {
	if d == DigestSHA3256 {
		return sha3.New256
	}
	return sha256.New
}

// SessionKey is the 16-byte counter IV fixed for the lifetime of a dealer.
type SessionKey [SessionKeySize]byte

// NewSessionKey draws a fresh session key from r.
func NewSessionKey(r io.Reader) (SessionKey, error) {
	var k SessionKey
	if _, err := io.ReadFull(r, k[:]); err != nil {
		return k, fmt.Errorf("generating session key: %w", err)
	}
	return k, nil
}

// Hasher computes keyed hashes bound to one session key.
type Hasher struct {
	key     SessionKey
	digest  Digest
	newHash func() hash.Hash
}

// New returns a Hasher for the given session key and digest.
func New(key SessionKey, digest Digest) (*Hasher, error) {
	d, err := ParseDigest(string(digest))
	if err != nil {
		return nil, err
	}
	return &Hasher{key: key, digest: d, newHash: d.newHash()}, nil
}

// SessionKey returns the session key the hasher is bound to.
func (h *Hasher) SessionKey() SessionKey {
	return h.key
}

// Digest returns the configured digest.
func (h *Hasher) Digest() Digest {
	return h.digest
}

// Sum hashes message and returns the first bitLength bits of the expanded
// output, packed into ⌈bitLength/8⌉ bytes.
func (h *Hasher) Sum(message []byte, bitLength int) ([]byte, error) {
	if bitLength < 1 || bitLength > MaxBits {
		return nil, lengthError(bitLength, MaxBits)
	}

	d := h.newHash()
	d.Write(message) //nolint:errcheck // hash.Hash never returns an error
	digest := d.Sum(nil)

	block, err := aes.NewCipher(digest)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	out := make([]byte, OutputSize)
	cipher.NewCTR(block, h.key[:]).XORKeyStream(out, expansionBlock)

	return TakeFirstBits(out, bitLength)
}

// TakeFirstBits returns the leading bitLength bits of b. Whole bytes are kept
// and the bits past bitLength in the final byte are zeroed.
func TakeFirstBits(b []byte, bitLength int) ([]byte, error) {
	if bitLength < 1 || bitLength > 8*len(b) {
		return nil, lengthError(bitLength, 8*len(b))
	}

	byteLen := (bitLength + 7) / 8
	out := make([]byte, byteLen)
	copy(out, b[:byteLen])

	excess := uint(8*byteLen - bitLength)
	out[byteLen-1] &= 0xFF << excess

	return out, nil
}

func lengthError(requested, available int) error {
	return mserr.WithDetails(mserr.ErrLength, map[string]string{
		"requested": strconv.Itoa(requested),
		"available": strconv.Itoa(available),
	})
}
