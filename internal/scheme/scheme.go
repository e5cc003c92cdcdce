// Package scheme implements the three multi-secret sharing variants.
//
// Every variant follows the same shape. The dealer prepares the per-secret
// polynomial constants, the scheme turns polynomial evaluations into private
// shares plus public data, and reconstruction interpolates the constant term
// from a complete access group.
package scheme

import (
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/mrz1836/multisecret/internal/access"
	"github.com/mrz1836/multisecret/internal/field"
	"github.com/mrz1836/multisecret/internal/keyhash"
	"github.com/mrz1836/multisecret/internal/polynomial"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// Kind names a scheme variant.
type Kind string

// Supported schemes.
const (
	RoyAdhikariKind     Kind = "roy-adhikari"
	LinYehKind          Kind = "lin-yeh"
	HerranzRuizSaezKind Kind = "herranz-ruiz-saez"
)

// MaxTypoDistance is the largest edit distance for which a scheme name is suggested.
const MaxTypoDistance = 4

// Kinds lists every supported scheme.
func Kinds() []Kind {
	return []Kind{RoyAdhikariKind, LinYehKind, HerranzRuizSaezKind}
}

//nolint:gochecknoglobals // alias table
var aliases = map[string]Kind{
	"ra":      RoyAdhikariKind,
	"roy":     RoyAdhikariKind,
	"ly":      LinYehKind,
	"lin":     LinYehKind,
	"hrs":     HerranzRuizSaezKind,
	"herranz": HerranzRuizSaezKind,
}

// ByName resolves a scheme name or alias. Unknown names fail with
// ErrUnknownScheme carrying a suggestion when one is close enough.
func ByName(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, k := range Kinds() {
		if n == string(k) {
			return k, nil
		}
	}
	if k, ok := aliases[n]; ok {
		return k, nil
	}

	err := mserr.WithDetails(mserr.ErrUnknownScheme, map[string]string{"scheme": name})
	if s := suggest(n); s != "" {
		return "", mserr.WithSuggestion(err, "did you mean "+s+"?")
	}
	return "", mserr.WithSuggestion(err, "valid schemes: roy-adhikari, lin-yeh, herranz-ruiz-saez")
}

func suggest(input string) string {
	best := math.MaxInt
	var suggestion string
	for _, k := range Kinds() {
		if d := levenshtein.ComputeDistance(input, string(k)); d < best {
			best = d
			suggestion = string(k)
		}
	}
	if best <= MaxTypoDistance {
		return suggestion
	}
	return ""
}

// New returns the implementation of kind. keySize only applies to
// Herranz–Ruiz–Saez; zero selects the default.
func New(kind Kind, keySize int) (Scheme, error) {
	switch kind {
	case RoyAdhikariKind:
		return RoyAdhikari{}, nil
	case LinYehKind:
		return LinYeh{}, nil
	case HerranzRuizSaezKind:
		h, err := NewHerranzRuizSaez(keySize)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		_, err := ByName(string(kind))
		return nil, err
	}
}

// Session carries the dealer state a scheme works on during a split.
// The dealer owns it; nothing in it is published except through Public.
type Session struct {
	Field  *field.Field
	Access *access.Structure
	Hasher *keyhash.Hasher
	Rand   io.Reader

	// IDs maps each participant index to its secret evaluation point.
	IDs map[int]field.Element

	// Masters holds the per-participant master shares x_j, where the scheme uses them.
	Masters map[int]field.Element

	// Public accumulates the data published with the split.
	Public *Public
}

// Ciphertext is a published encryption of one secret.
type Ciphertext struct {
	IV   []byte
	Data []byte
}

// Public is everything a combiner needs besides the participants' private shares.
type Public struct {
	Kind    Kind
	Field   *field.Field
	Access  *access.Structure
	KeySize int

	// IDs maps each participant index to its evaluation point.
	IDs map[int]field.Element

	// Shares holds the public shares M, keyed by (secret, group, participant).
	Shares map[access.Key]field.Element

	// Ciphertexts holds one encrypted secret per secret index.
	Ciphertexts []Ciphertext
}

// NewPublic returns an empty public record.
func NewPublic(kind Kind, f *field.Field, acc *access.Structure) *Public {
	return &Public{
		Kind:   kind,
		Field:  f,
		Access: acc,
		IDs:    make(map[int]field.Element),
		Shares: make(map[access.Key]field.Element),
	}
}

// Scheme is one sharing variant.
type Scheme interface {
	// Kind names the variant.
	Kind() Kind

	// Validate checks the field and access structure against the variant's constraints.
	Validate(f *field.Field, acc *access.Structure) error

	// Prepare draws the variant's per-participant material and returns the
	// constant term of the polynomials of every secret.
	Prepare(s *Session, secrets []field.Element) ([]field.Element, error)

	// Shares evaluates the polynomials and returns the private share of every
	// participant, recording the public data in s.Public.
	Shares(s *Session, polys map[access.Slot]*polynomial.Polynomial) (map[access.Key]field.Element, error)

	// Combine reconstructs the secret held by slot from the private shares of
	// every member of the group, keyed by participant index.
	Combine(pub *Public, slot access.Slot, obtained map[int]field.Element) (*big.Int, error)
}

// Points builds the interpolation points of slot from the obtained private
// shares. When masked is set the public share M is added back to each value.
func Points(pub *Public, slot access.Slot, obtained map[int]field.Element, masked bool) ([]polynomial.Point, error) {
	if !pub.Access.HasSlot(slot) {
		return nil, mserr.WithDetails(mserr.ErrReconstruction, map[string]string{
			"secret": strconv.Itoa(slot.Secret),
			"group":  strconv.Itoa(slot.Group),
			"reason": "no such access group",
		})
	}

	group := pub.Access.Group(slot.Secret, slot.Group)
	if len(obtained) != len(group) {
		return nil, mserr.WithDetails(mserr.ErrReconstruction, map[string]string{
			"secret":   strconv.Itoa(slot.Secret),
			"group":    strconv.Itoa(slot.Group),
			"required": strconv.Itoa(len(group)),
			"supplied": strconv.Itoa(len(obtained)),
		})
	}

	f := pub.Field
	points := make([]polynomial.Point, 0, len(group))
	for _, j := range group {
		u, ok := obtained[j]
		if !ok {
			return nil, mserr.WithDetails(mserr.ErrShareMismatch, map[string]string{
				"secret":  strconv.Itoa(slot.Secret),
				"group":   strconv.Itoa(slot.Group),
				"missing": strconv.Itoa(j),
			})
		}
		id, ok := pub.IDs[j]
		if !ok {
			return nil, mserr.WithDetails(mserr.ErrReconstruction, map[string]string{
				"participant": strconv.Itoa(j),
				"reason":      "participant has no ID",
			})
		}

		y := u
		if masked {
			m, ok := pub.Shares[slot.KeyFor(j)]
			if !ok {
				return nil, mserr.WithDetails(mserr.ErrReconstruction, map[string]string{
					"participant": strconv.Itoa(j),
					"reason":      "missing public share",
				})
			}
			// B = U + M
			y = f.Add(u, m)
		}
		points = append(points, polynomial.Point{X: id, Y: y})
	}
	return points, nil
}

// checkHashable rejects fields wider than the keyed hash output.
func checkHashable(f *field.Field) error {
	if f.BitLen() > keyhash.MaxBits {
		return mserr.WithDetails(mserr.ErrLength, map[string]string{
			"requested": strconv.Itoa(f.BitLen()),
			"available": strconv.Itoa(keyhash.MaxBits),
		})
	}
	return nil
}

// drawMasters samples a master share x_j for every participant.
func drawMasters(s *Session) error {
	s.Masters = make(map[int]field.Element, s.Access.Participants())
	for j := 1; j <= s.Access.Participants(); j++ {
		x, err := s.Field.Random(s.Rand)
		if err != nil {
			return err
		}
		s.Masters[j] = x
	}
	return nil
}

// maskedShares applies the common U/M construction: for every position,
// B = f_{i,q}(ID_b) and M = B − U is published.
func maskedShares(s *Session, polys map[access.Slot]*polynomial.Polynomial,
	pseudo func(access.Position) (field.Element, error),
) (map[access.Key]field.Element, error) {
	f := s.Field
	shares := make(map[access.Key]field.Element)
	err := s.Access.Walk(func(pos access.Position) error {
		poly, ok := polys[pos.Key().Slot()]
		if !ok {
			return mserr.WithDetails(mserr.ErrNotSplit, map[string]string{
				"secret": strconv.Itoa(pos.Secret),
				"group":  strconv.Itoa(pos.Group),
			})
		}
		u, err := pseudo(pos)
		if err != nil {
			return err
		}
		b := poly.Evaluate(s.IDs[pos.Participant])
		shares[pos.Key()] = u
		s.Public.Shares[pos.Key()] = f.Sub(b, u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shares, nil
}

func interpolateMasked(pub *Public, slot access.Slot, obtained map[int]field.Element) (*big.Int, error) {
	points, err := Points(pub, slot, obtained, true)
	if err != nil {
		return nil, err
	}
	secret, err := polynomial.Interpolate(pub.Field, points)
	if err != nil {
		return nil, err
	}
	return secret.Big(), nil
}
