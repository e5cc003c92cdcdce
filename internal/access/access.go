// Package access models generalized access structures: for every secret, the
// list of participant groups allowed to reconstruct it.
package access

import (
	"sort"
	"strconv"

	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// MinGroupSize is the smallest group that may hold a secret.
const MinGroupSize = 2

// Slot addresses one access group of one secret.
type Slot struct {
	Secret int `json:"secret" cbor:"1,keyasint"`
	Group  int `json:"group"  cbor:"2,keyasint"`
}

// Key addresses the share of one participant in one access group.
// Participant is the declared participant index, never a position.
type Key struct {
	Secret      int `json:"secret"      cbor:"1,keyasint"`
	Group       int `json:"group"       cbor:"2,keyasint"`
	Participant int `json:"participant" cbor:"3,keyasint"`
}

// Slot drops the participant from k.
func (k Key) Slot() Slot {
	return Slot{Secret: k.Secret, Group: k.Group}
}

// KeyFor returns the key of participant j in slot s.
func (s Slot) KeyFor(j int) Key {
	return Key{Secret: s.Secret, Group: s.Group, Participant: j}
}

// Position is visited by Walk.
type Position struct {
	Secret      int
	Group       int
	Index       int // position inside the group
	Participant int // declared participant index
}

// Key returns the share key of the position.
func (p Position) Key() Key {
	return Key{Secret: p.Secret, Group: p.Group, Participant: p.Participant}
}

// Structure is a validated access structure over participants 1..n.
type Structure struct {
	n      int
	groups [][][]int
}

// New validates groups, indexed [secret][group][member], against n participants.
func New(n int, groups [][][]int) (*Structure, error) {
	if n < 2 {
		return nil, mserr.WithDetails(mserr.ErrTooFewParticipants, map[string]string{
			"participants": strconv.Itoa(n),
		})
	}
	if len(groups) == 0 {
		return nil, mserr.WithDetails(mserr.ErrInvalidAccessGroup, map[string]string{
			"reason": "no secrets",
		})
	}

	s := &Structure{n: n, groups: make([][][]int, len(groups))}
	for i, secretGroups := range groups {
		if len(secretGroups) == 0 {
			return nil, groupError(i, -1, "secret has no access group")
		}
		s.groups[i] = make([][]int, len(secretGroups))
		for q, group := range secretGroups {
			if len(group) < MinGroupSize {
				return nil, groupError(i, q, "group needs at least 2 participants")
			}
			seen := make(map[int]struct{}, len(group))
			for _, j := range group {
				if j < 1 || j > n {
					return nil, groupError(i, q, "participant "+strconv.Itoa(j)+" out of range 1.."+strconv.Itoa(n))
				}
				if _, dup := seen[j]; dup {
					return nil, groupError(i, q, "participant "+strconv.Itoa(j)+" listed twice")
				}
				seen[j] = struct{}{}
			}
			s.groups[i][q] = append([]int(nil), group...)
		}
	}

	return s, nil
}

func groupError(secret, group int, reason string) error {
	details := map[string]string{
		"secret": strconv.Itoa(secret),
		"reason": reason,
	}
	if group >= 0 {
		details["group"] = strconv.Itoa(group)
	}
	return mserr.WithDetails(mserr.ErrInvalidAccessGroup, details)
}

// Participants returns n.
func (s *Structure) Participants() int { return s.n }

// Secrets returns the number of secrets.
func (s *Structure) Secrets() int { return len(s.groups) }

// Groups returns the number of groups of secret i.
func (s *Structure) Groups(i int) int {
	if i < 0 || i >= len(s.groups) {
		return 0
	}
	return len(s.groups[i])
}

// Group returns a copy of the members of group q of secret i, or nil.
func (s *Structure) Group(i, q int) []int {
	if !s.HasSlot(Slot{Secret: i, Group: q}) {
		return nil
	}
	return append([]int(nil), s.groups[i][q]...)
}

// HasSlot reports whether the slot exists.
func (s *Structure) HasSlot(slot Slot) bool {
	return slot.Secret >= 0 && slot.Secret < len(s.groups) &&
		slot.Group >= 0 && slot.Group < len(s.groups[slot.Secret])
}

// Contains reports whether participant j is a member of group q of secret i.
func (s *Structure) Contains(i, q, j int) bool {
	if !s.HasSlot(Slot{Secret: i, Group: q}) {
		return false
	}
	for _, m := range s.groups[i][q] {
		if m == j {
			return true
		}
	}
	return false
}

// MaxParticipantIndex returns the highest participant index used by any group.
func (s *Structure) MaxParticipantIndex() int {
	highest := 0
	for _, secretGroups := range s.groups {
		for _, group := range secretGroups {
			for _, j := range group {
				if j > highest {
					highest = j
				}
			}
		}
	}
	return highest
}

// LongestGroup returns the size of the largest group of secret i.
func (s *Structure) LongestGroup(i int) int {
	longest := 0
	if i < 0 || i >= len(s.groups) {
		return 0
	}
	for _, group := range s.groups[i] {
		if len(group) > longest {
			longest = len(group)
		}
	}
	return longest
}

// MostGroups returns the largest number of groups attached to one secret.
func (s *Structure) MostGroups() int {
	most := 0
	for _, secretGroups := range s.groups {
		if len(secretGroups) > most {
			most = len(secretGroups)
		}
	}
	return most
}

// RequireSingleGroup fails unless every secret has exactly one group.
func (s *Structure) RequireSingleGroup() error {
	for i, secretGroups := range s.groups {
		if len(secretGroups) != 1 {
			return groupError(i, -1, "scheme allows exactly one group per secret")
		}
	}
	return nil
}

// Walk visits every (secret, group, participant) in order and stops at the
// first error returned by fn.
func (s *Structure) Walk(fn func(Position) error) error {
	for i, secretGroups := range s.groups {
		for q, group := range secretGroups {
			for b, j := range group {
				if err := fn(Position{Secret: i, Group: q, Index: b, Participant: j}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// SlotsFor lists the slots participant j belongs to, in walk order.
func (s *Structure) SlotsFor(j int) []Slot {
	var slots []Slot
	for i, secretGroups := range s.groups {
		for q := range secretGroups {
			if s.Contains(i, q, j) {
				slots = append(slots, Slot{Secret: i, Group: q})
			}
		}
	}
	return slots
}

// Members returns the sorted set of participant indices used by any group.
func (s *Structure) Members() []int {
	set := make(map[int]struct{})
	_ = s.Walk(func(p Position) error {
		set[p.Participant] = struct{}{}
		return nil
	})
	out := make([]int, 0, len(set))
	for j := range set {
		out = append(out, j)
	}
	sort.Ints(out)
	return out
}

// Raw returns a deep copy of the groups, indexed [secret][group][member].
func (s *Structure) Raw() [][][]int {
	out := make([][][]int, len(s.groups))
	for i, secretGroups := range s.groups {
		out[i] = make([][]int, len(secretGroups))
		for q, group := range secretGroups {
			out[i][q] = append([]int(nil), group...)
		}
	}
	return out
}
