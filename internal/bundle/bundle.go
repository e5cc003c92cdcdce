// Package bundle persists the result of a split: the public reconstruction
// data and one share file per participant.
package bundle

import (
	"encoding/hex"
	"math/big"
	"sort"
	"strconv"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/mrz1836/multisecret/internal/access"
	"github.com/mrz1836/multisecret/internal/field"
	"github.com/mrz1836/multisecret/internal/keyhash"
	"github.com/mrz1836/multisecret/internal/scheme"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// Version is the current file format version.
const Version = 1

// ParticipantID is the published evaluation point of one participant.
type ParticipantID struct {
	Participant int    `json:"participant"`
	ID          string `json:"id"`
}

// PublicShare is one published value M, addressed by (secret, group, participant).
type PublicShare struct {
	Secret      int    `json:"secret"`
	Group       int    `json:"group"`
	Participant int    `json:"participant"`
	Value       string `json:"value"`
}

// Ciphertext is an encrypted secret (Herranz–Ruiz–Saez).
type Ciphertext struct {
	IV   []byte `json:"iv"`
	Data []byte `json:"data"`
}

// Public is the public reconstruction data of one sharing session.
type Public struct {
	// Version is the file format version.
	Version int `json:"version"`

	// Session identifies the split; participant files must carry the same value.
	Session string `json:"session"`

	// Scheme is the sharing variant.
	Scheme string `json:"scheme"`

	// CreatedAt is when the split happened, truncated to seconds.
	CreatedAt time.Time `json:"created_at"`

	// Generator is the multisecret release that wrote the bundle.
	Generator string `json:"generator,omitempty"`

	// Modulus is the prime p in decimal.
	Modulus string `json:"modulus"`

	// Participants is n.
	Participants int `json:"participants"`

	// Digest is the keyed-hash digest used for pseudo shares.
	Digest string `json:"digest,omitempty"`

	// KeySize is the AES key size in bytes (Herranz–Ruiz–Saez only).
	KeySize int `json:"key_size,omitempty"`

	// Access is indexed [secret][group][member].
	Access [][][]int `json:"access"`

	IDs         []ParticipantID `json:"ids"`
	Shares      []PublicShare   `json:"public_shares,omitempty"`
	Ciphertexts []Ciphertext    `json:"ciphertexts,omitempty"`

	// Checksum is the hex BLAKE3-256 of the deterministic CBOR encoding of
	// the bundle with this field cleared.
	Checksum string `json:"checksum"`
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewPublic builds a sealed bundle from the dealer's public data.
func NewPublic(session string, pub *scheme.Public, digest keyhash.Digest) (*Public, error) {
	b := &Public{
		Version:      Version,
		Session:      session,
		Scheme:       string(pub.Kind),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		Modulus:      pub.Field.Modulus().String(),
		Participants: pub.Access.Participants(),
		KeySize:      pub.KeySize,
		Access:       pub.Access.Raw(),
	}
	if pub.Kind != scheme.HerranzRuizSaezKind {
		b.Digest = string(digest)
	}

	for j, id := range pub.IDs {
		b.IDs = append(b.IDs, ParticipantID{Participant: j, ID: id.String()})
	}
	sort.Slice(b.IDs, func(x, y int) bool { return b.IDs[x].Participant < b.IDs[y].Participant })

	_ = pub.Access.Walk(func(pos access.Position) error {
		if m, ok := pub.Shares[pos.Key()]; ok {
			b.Shares = append(b.Shares, PublicShare{
				Secret:      pos.Secret,
				Group:       pos.Group,
				Participant: pos.Participant,
				Value:       m.String(),
			})
		}
		return nil
	})

	for _, ct := range pub.Ciphertexts {
		b.Ciphertexts = append(b.Ciphertexts, Ciphertext{IV: ct.IV, Data: ct.Data})
	}

	if err := b.Seal(); err != nil {
		return nil, err
	}
	return b, nil
}

// Stamp records the writing release and reseals the bundle.
func (b *Public) Stamp(generator string) error {
	b.Generator = generator
	return b.Seal()
}

// CalculateChecksum computes the bundle checksum.
func (b *Public) CalculateChecksum() (string, error) {
	c := *b
	c.Checksum = ""

	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return "", err
	}
	data, err := em.Marshal(&c)
	if err != nil {
		return "", mserr.Wrap(err, "encoding bundle for checksum")
	}

	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Seal sets the checksum.
func (b *Public) Seal() error {
	sum, err := b.CalculateChecksum()
	if err != nil {
		return err
	}
	b.Checksum = sum
	return nil
}

// Validate checks the version, required fields and checksum.
func (b *Public) Validate() error {
	if b.Version != Version {
		return mserr.WithDetails(mserr.ErrUnsupportedVersion, map[string]string{
			"version": strconv.Itoa(b.Version),
		})
	}
	if b.Session == "" {
		return mserr.WithDetails(mserr.ErrInvalidFormat, map[string]string{"reason": "missing session"})
	}
	if _, err := uuid.Parse(b.Session); err != nil {
		return mserr.WithDetails(mserr.ErrInvalidFormat, map[string]string{"reason": "malformed session"})
	}
	if b.Modulus == "" || len(b.Access) == 0 {
		return mserr.WithDetails(mserr.ErrInvalidFormat, map[string]string{"reason": "missing modulus or access structure"})
	}

	sum, err := b.CalculateChecksum()
	if err != nil {
		return err
	}
	if sum != b.Checksum {
		return mserr.WithDetails(mserr.ErrBundleCorrupted, map[string]string{
			"expected": b.Checksum,
			"actual":   sum,
		})
	}
	return nil
}

// Field parses the modulus.
func (b *Public) Field() (*field.Field, error) {
	p, ok := new(big.Int).SetString(b.Modulus, 10)
	if !ok {
		return nil, mserr.WithDetails(mserr.ErrInvalidFormat, map[string]string{"reason": "malformed modulus"})
	}
	return field.New(p)
}

// Restore rebuilds the public data a combiner works against.
func (b *Public) Restore() (*scheme.Public, error) {
	kind, err := scheme.ByName(b.Scheme)
	if err != nil {
		return nil, err
	}
	f, err := b.Field()
	if err != nil {
		return nil, err
	}
	acc, err := access.New(b.Participants, b.Access)
	if err != nil {
		return nil, err
	}

	pub := scheme.NewPublic(kind, f, acc)
	pub.KeySize = b.KeySize

	for _, id := range b.IDs {
		v, err := parseElement(f, id.ID)
		if err != nil {
			return nil, err
		}
		pub.IDs[id.Participant] = v
	}
	for _, s := range b.Shares {
		v, err := parseElement(f, s.Value)
		if err != nil {
			return nil, err
		}
		pub.Shares[access.Key{Secret: s.Secret, Group: s.Group, Participant: s.Participant}] = v
	}
	for _, ct := range b.Ciphertexts {
		pub.Ciphertexts = append(pub.Ciphertexts, scheme.Ciphertext{IV: ct.IV, Data: ct.Data})
	}
	return pub, nil
}

func parseElement(f *field.Field, s string) (field.Element, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || !f.Contains(v) {
		return field.Element{}, mserr.WithDetails(mserr.ErrInvalidFormat, map[string]string{
			"reason": "value is not a field element",
			"value":  s,
		})
	}
	return f.Reduce(v), nil
}
