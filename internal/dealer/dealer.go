// Package dealer orchestrates splitting secrets among participants and
// reconstructing them from collected shares.
package dealer

import (
	"io"
	"math/big"
	"strconv"

	"github.com/mrz1836/multisecret/internal/access"
	"github.com/mrz1836/multisecret/internal/field"
	"github.com/mrz1836/multisecret/internal/keyhash"
	"github.com/mrz1836/multisecret/internal/polynomial"
	"github.com/mrz1836/multisecret/internal/scheme"
	"github.com/mrz1836/multisecret/internal/sharecrypto"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// maxIDDraws bounds redraws of colliding participant IDs.
const maxIDDraws = 255

// Nested holds one value per participant position, indexed
// [secret][group][position]. Positions follow the order of the access group.
type Nested [][][]field.Element

// Option configures a Dealer.
type Option func(*options)

type options struct {
	rand       io.Reader
	logger     Logger
	digest     keyhash.Digest
	keySize    int
	sessionKey *keyhash.SessionKey
}

// WithRand sets the randomness source. Defaults to sharecrypto.Reader.
func WithRand(r io.Reader) Option {
	return func(o *options) { o.rand = r }
}

// WithLogger sets the lifecycle logger.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDigest selects the digest of the keyed hash.
func WithDigest(d keyhash.Digest) Option {
	return func(o *options) { o.digest = d }
}

// WithKeySize sets the Herranz–Ruiz–Saez AES key size in bytes.
func WithKeySize(n int) Option {
	return func(o *options) { o.keySize = n }
}

// WithSessionKey pins the keyed-hash session key instead of drawing one.
func WithSessionKey(k keyhash.SessionKey) Option {
	return func(o *options) { o.sessionKey = &k }
}

// Dealer splits secrets for one sharing session. It is not safe for
// concurrent use.
type Dealer struct {
	scheme  scheme.Scheme
	field   *field.Field
	access  *access.Structure
	secrets []field.Element
	hasher  *keyhash.Hasher
	rand    io.Reader
	log     Logger
	state   State

	session *scheme.Session
	polys   map[access.Slot]*polynomial.Polynomial
	shares  map[access.Key]field.Element
}

// New validates the inputs and returns a dealer for n participants.
// groups is indexed [secret][group][member] with 1-based participant indices.
func New(kind scheme.Kind, p *big.Int, n int, secrets []*big.Int, groups [][][]int, opts ...Option) (*Dealer, error) {
	o := options{logger: nopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rand == nil {
		o.rand = sharecrypto.Reader
	}

	if n < 2 {
		return nil, mserr.WithDetails(mserr.ErrTooFewParticipants, map[string]string{
			"participants": strconv.Itoa(n),
		})
	}

	f, err := field.New(p)
	if err != nil {
		return nil, err
	}
	if !f.Exceeds(big.NewInt(int64(n))) {
		return nil, mserr.WithDetails(mserr.ErrInvalidModulus, map[string]string{
			"reason":       "modulus must exceed the number of participants",
			"participants": strconv.Itoa(n),
		})
	}

	if len(secrets) != len(groups) {
		return nil, mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{
			"reason":  "every secret needs an access structure",
			"secrets": strconv.Itoa(len(secrets)),
			"access":  strconv.Itoa(len(groups)),
		})
	}
	elems := make([]field.Element, len(secrets))
	for i, s := range secrets {
		if s == nil || s.Sign() < 0 {
			return nil, mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{
				"reason": "secret must be a non-negative integer",
				"secret": strconv.Itoa(i),
			})
		}
		if !f.Exceeds(s) {
			return nil, mserr.WithDetails(mserr.ErrInvalidModulus, map[string]string{
				"reason": "modulus must exceed every secret",
				"secret": strconv.Itoa(i),
			})
		}
		elems[i] = f.Reduce(s)
	}

	acc, err := access.New(n, groups)
	if err != nil {
		return nil, err
	}

	sch, err := scheme.New(kind, o.keySize)
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(f, acc); err != nil {
		return nil, err
	}

	key := o.sessionKey
	if key == nil {
		k, err := keyhash.NewSessionKey(o.rand)
		if err != nil {
			return nil, err
		}
		key = &k
	}
	hasher, err := keyhash.New(*key, o.digest)
	if err != nil {
		return nil, err
	}

	d := &Dealer{
		scheme:  sch,
		field:   f,
		access:  acc,
		secrets: elems,
		hasher:  hasher,
		rand:    o.rand,
		log:     o.logger,
	}
	d.log.Debug("dealer: %s for %d participants, %d secrets, %d-bit modulus",
		sch.Kind(), n, len(secrets), f.BitLen())
	return d, nil
}

// Kind returns the scheme in use.
func (d *Dealer) Kind() scheme.Kind { return d.scheme.Kind() }

// Field returns the prime field.
func (d *Dealer) Field() *field.Field { return d.field }

// Access returns the access structure.
func (d *Dealer) Access() *access.Structure { return d.access }

// State returns the lifecycle state.
func (d *Dealer) State() State { return d.state }

// Digest returns the keyed-hash digest in use.
func (d *Dealer) Digest() keyhash.Digest { return d.hasher.Digest() }

func (d *Dealer) advance(to State) {
	d.log.Debug("dealer: %s -> %s", d.state, to)
	d.state = to
}

// SplitSecrets assigns participant IDs, draws the polynomials, and computes
// every share and the public data. It returns the private shares indexed
// [secret][group][position] for out-of-band distribution.
func (d *Dealer) SplitSecrets() (Nested, error) {
	if d.state != Uninitialized {
		return nil, mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{
			"reason": "secrets were already split",
			"state":  d.state.String(),
		})
	}

	d.session = &scheme.Session{
		Field:  d.field,
		Access: d.access,
		Hasher: d.hasher,
		Rand:   d.rand,
		Public: scheme.NewPublic(d.scheme.Kind(), d.field, d.access),
	}

	if err := d.assignIDs(); err != nil {
		return nil, err
	}
	d.advance(IDsAssigned)

	constants, err := d.scheme.Prepare(d.session, d.secrets)
	if err != nil {
		return nil, err
	}
	if err := d.generatePolynomials(constants); err != nil {
		return nil, err
	}
	d.advance(PolynomialsGenerated)

	shares, err := d.scheme.Shares(d.session, d.polys)
	if err != nil {
		return nil, err
	}
	d.shares = shares
	d.advance(SharesComputed)

	d.session.Public.IDs = d.session.IDs
	d.advance(Published)
	d.log.Debug("dealer: computed %d shares, %d public shares, %d ciphertexts",
		len(d.shares), len(d.session.Public.Shares), len(d.session.Public.Ciphertexts))

	return nest(d.access, d.shares), nil
}

// assignIDs draws a distinct non-zero ID for every participant.
func (d *Dealer) assignIDs() error {
	n := d.access.Participants()
	ids := make(map[int]field.Element, n)
	seen := make(map[string]struct{}, n)
	for j := 1; j <= n; j++ {
		for attempt := 0; ; attempt++ {
			if attempt == maxIDDraws {
				return field.ErrMaxIterations
			}
			id, err := d.field.RandomNonZero(d.rand)
			if err != nil {
				return err
			}
			if _, dup := seen[id.String()]; dup {
				d.log.Debug("dealer: ID collision for participant %d, redrawing", j)
				continue
			}
			seen[id.String()] = struct{}{}
			ids[j] = id
			break
		}
	}
	d.session.IDs = ids
	return nil
}

func (d *Dealer) generatePolynomials(constants []field.Element) error {
	d.polys = make(map[access.Slot]*polynomial.Polynomial)
	for i := 0; i < d.access.Secrets(); i++ {
		for q := 0; q < d.access.Groups(i); q++ {
			degree := len(d.access.Group(i, q)) - 1
			poly, err := polynomial.Random(d.rand, d.field, constants[i], degree)
			if err != nil {
				return err
			}
			d.polys[access.Slot{Secret: i, Group: q}] = poly
			d.log.Debug("dealer: secret %d group %d polynomial degree %d", i, q, poly.Degree())
		}
	}
	return nil
}

// Public returns the data published with the split.
func (d *Dealer) Public() (*scheme.Public, error) {
	if d.state != Published {
		return nil, mserr.ErrNotSplit
	}
	return d.session.Public, nil
}

// Nested returns the private shares indexed [secret][group][position].
func (d *Dealer) Nested() (Nested, error) {
	if d.state != Published {
		return nil, mserr.ErrNotSplit
	}
	return nest(d.access, d.shares), nil
}

// SharesFor returns the shares participant j should receive, keyed by
// (secret, group).
func (d *Dealer) SharesFor(j int) (map[access.Slot]field.Element, error) {
	if d.state != Published {
		return nil, mserr.ErrNotSplit
	}
	if j < 1 || j > d.access.Participants() {
		return nil, mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{
			"participant": strconv.Itoa(j),
			"reason":      "participant out of range",
		})
	}

	out := make(map[access.Slot]field.Element)
	for _, slot := range d.access.SlotsFor(j) {
		out[slot] = d.shares[slot.KeyFor(j)]
	}
	return out, nil
}

// CombineSecret reconstructs secret i from the shares of group q, given in
// group order, against this dealer's public data.
func (d *Dealer) CombineSecret(i, q int, obtained []field.Element) (*big.Int, error) {
	pub, err := d.Public()
	if err != nil {
		return nil, err
	}
	c, err := NewCombiner(pub)
	if err != nil {
		return nil, err
	}
	return c.CombineSecret(i, q, obtained)
}

func nest(acc *access.Structure, shares map[access.Key]field.Element) Nested {
	out := make(Nested, acc.Secrets())
	for i := range out {
		out[i] = make([][]field.Element, acc.Groups(i))
		for q := range out[i] {
			out[i][q] = make([]field.Element, len(acc.Group(i, q)))
		}
	}
	_ = acc.Walk(func(pos access.Position) error {
		out[pos.Secret][pos.Group][pos.Index] = shares[pos.Key()]
		return nil
	})
	return out
}
