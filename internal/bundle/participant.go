package bundle

import (
	"sort"
	"strconv"

	"github.com/mrz1836/multisecret/internal/access"
	"github.com/mrz1836/multisecret/internal/field"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// Share is a participant's private share for one (secret, group) slot.
type Share struct {
	Secret int    `json:"secret"`
	Group  int    `json:"group"`
	Value  string `json:"value"`
}

// Participant is the share file handed to one participant.
type Participant struct {
	Version     int     `json:"version"`
	Session     string  `json:"session"`
	Scheme      string  `json:"scheme"`
	Participant int     `json:"participant"`
	Shares      []Share `json:"shares"`
}

// NewParticipant builds the share file of participant j.
func NewParticipant(session, kind string, j int, shares map[access.Slot]field.Element) *Participant {
	p := &Participant{
		Version:     Version,
		Session:     session,
		Scheme:      kind,
		Participant: j,
		Shares:      make([]Share, 0, len(shares)),
	}
	for slot, v := range shares {
		p.Shares = append(p.Shares, Share{Secret: slot.Secret, Group: slot.Group, Value: v.String()})
	}
	sort.Slice(p.Shares, func(x, y int) bool {
		if p.Shares[x].Secret != p.Shares[y].Secret {
			return p.Shares[x].Secret < p.Shares[y].Secret
		}
		return p.Shares[x].Group < p.Shares[y].Group
	})
	return p
}

// Validate checks the file against the public bundle it claims to belong to.
func (p *Participant) Validate(pub *Public) error {
	if p.Version != Version {
		return mserr.WithDetails(mserr.ErrUnsupportedVersion, map[string]string{
			"version": strconv.Itoa(p.Version),
		})
	}
	if p.Session != pub.Session {
		return mserr.WithDetails(mserr.ErrSessionMismatch, map[string]string{
			"participant": strconv.Itoa(p.Participant),
			"session":     p.Session,
		})
	}
	if p.Participant < 1 || p.Participant > pub.Participants {
		return mserr.WithDetails(mserr.ErrInvalidFormat, map[string]string{
			"reason":      "participant out of range",
			"participant": strconv.Itoa(p.Participant),
		})
	}
	return nil
}

// Restore parses the shares as elements of f.
func (p *Participant) Restore(f *field.Field) (map[access.Slot]field.Element, error) {
	out := make(map[access.Slot]field.Element, len(p.Shares))
	for _, s := range p.Shares {
		v, err := parseElement(f, s.Value)
		if err != nil {
			return nil, err
		}
		out[access.Slot{Secret: s.Secret, Group: s.Group}] = v
	}
	return out, nil
}
