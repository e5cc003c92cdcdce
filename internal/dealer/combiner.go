package dealer

import (
	"context"
	"math/big"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/multisecret/internal/access"
	"github.com/mrz1836/multisecret/internal/field"
	"github.com/mrz1836/multisecret/internal/scheme"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// Combiner reconstructs secrets from public data and shares collected from
// participants. Reconstruction calls are safe for concurrent use.
type Combiner struct {
	pub    *scheme.Public
	scheme scheme.Scheme

	mu     sync.RWMutex
	shares map[access.Key]field.Element
}

// Recovered is one secret reconstructed by CombineAll.
type Recovered struct {
	Secret int
	Group  int
	Value  *big.Int
}

// NewCombiner returns a combiner for the given public data.
func NewCombiner(pub *scheme.Public) (*Combiner, error) {
	if pub == nil || pub.Field == nil || pub.Access == nil {
		return nil, mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{
			"reason": "incomplete public data",
		})
	}
	sch, err := scheme.New(pub.Kind, pub.KeySize)
	if err != nil {
		return nil, err
	}
	return &Combiner{
		pub:    pub,
		scheme: sch,
		shares: make(map[access.Key]field.Element),
	}, nil
}

// Public returns the public data the combiner works against.
func (c *Combiner) Public() *scheme.Public { return c.pub }

// SetSharesFromParticipant injects the shares participant j received from
// the dealer. Every slot must be one the participant belongs to.
func (c *Combiner) SetSharesFromParticipant(j int, shares map[access.Slot]field.Element) error {
	acc := c.pub.Access
	if j < 1 || j > acc.Participants() {
		return mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{
			"participant": strconv.Itoa(j),
			"reason":      "participant out of range",
		})
	}
	for slot := range shares {
		if !acc.Contains(slot.Secret, slot.Group, j) {
			return mserr.WithDetails(mserr.ErrShareMismatch, map[string]string{
				"participant": strconv.Itoa(j),
				"secret":      strconv.Itoa(slot.Secret),
				"group":       strconv.Itoa(slot.Group),
			})
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for slot, v := range shares {
		c.shares[slot.KeyFor(j)] = v
	}
	return nil
}

// SharesOf returns the shares injected for participant j.
func (c *Combiner) SharesOf(j int) map[access.Slot]field.Element {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[access.Slot]field.Element)
	for k, v := range c.shares {
		if k.Participant == j {
			out[k.Slot()] = v
		}
	}
	return out
}

// Nested returns the injected shares indexed [secret][group][position].
// Positions with no injected share hold the zero element.
func (c *Combiner) Nested() Nested {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return nest(c.pub.Access, c.shares)
}

// Ready reports whether every member of group q of secret i has injected a share.
func (c *Combiner) Ready(i, q int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.readyLocked(access.Slot{Secret: i, Group: q})
}

func (c *Combiner) readyLocked(slot access.Slot) bool {
	if !c.pub.Access.HasSlot(slot) {
		return false
	}
	for _, j := range c.pub.Access.Group(slot.Secret, slot.Group) {
		if _, ok := c.shares[slot.KeyFor(j)]; !ok {
			return false
		}
	}
	return true
}

// CombineSecret reconstructs secret i from group q, with the shares listed in
// the group's member order.
func (c *Combiner) CombineSecret(i, q int, ordered []field.Element) (*big.Int, error) {
	group := c.pub.Access.Group(i, q)
	if group == nil {
		return nil, mserr.WithDetails(mserr.ErrReconstruction, map[string]string{
			"secret": strconv.Itoa(i),
			"group":  strconv.Itoa(q),
			"reason": "no such access group",
		})
	}
	if len(ordered) != len(group) {
		return nil, mserr.WithDetails(mserr.ErrReconstruction, map[string]string{
			"secret":   strconv.Itoa(i),
			"group":    strconv.Itoa(q),
			"required": strconv.Itoa(len(group)),
			"supplied": strconv.Itoa(len(ordered)),
		})
	}

	keyed := make(map[int]field.Element, len(group))
	for b, j := range group {
		keyed[j] = ordered[b]
	}
	return c.CombineKeyed(i, q, keyed)
}

// CombineKeyed reconstructs secret i from group q, with shares keyed by
// participant index.
func (c *Combiner) CombineKeyed(i, q int, obtained map[int]field.Element) (*big.Int, error) {
	return c.scheme.Combine(c.pub, access.Slot{Secret: i, Group: q}, obtained)
}

// Combine reconstructs secret i from group q using the injected shares.
func (c *Combiner) Combine(i, q int) (*big.Int, error) {
	slot := access.Slot{Secret: i, Group: q}

	c.mu.RLock()
	obtained := make(map[int]field.Element)
	for _, j := range c.pub.Access.Group(i, q) {
		if v, ok := c.shares[slot.KeyFor(j)]; ok {
			obtained[j] = v
		}
	}
	c.mu.RUnlock()

	return c.CombineKeyed(i, q, obtained)
}

// CombineAll reconstructs, concurrently, every secret that has at least one
// fully covered group, using the first such group. Secrets with no covered
// group are skipped; it fails if none can be reconstructed.
func (c *Combiner) CombineAll(ctx context.Context) ([]Recovered, error) {
	acc := c.pub.Access

	var slots []access.Slot
	c.mu.RLock()
	for i := 0; i < acc.Secrets(); i++ {
		for q := 0; q < acc.Groups(i); q++ {
			slot := access.Slot{Secret: i, Group: q}
			if c.readyLocked(slot) {
				slots = append(slots, slot)
				break
			}
		}
	}
	c.mu.RUnlock()

	if len(slots) == 0 {
		return nil, mserr.WithDetails(mserr.ErrReconstruction, map[string]string{
			"reason": "no access group has all of its shares",
		})
	}

	results := make([]Recovered, len(slots))
	g, ctx := errgroup.WithContext(ctx)
	for n, slot := range slots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := c.Combine(slot.Secret, slot.Group)
			if err != nil {
				return mserr.Wrap(err, "secret %d group %d", slot.Secret, slot.Group)
			}
			results[n] = Recovered{Secret: slot.Secret, Group: slot.Group, Value: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
