package dealer

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisecret/internal/access"
	"github.com/mrz1836/multisecret/internal/field"
	"github.com/mrz1836/multisecret/internal/keyhash"
	"github.com/mrz1836/multisecret/internal/polynomial"
	"github.com/mrz1836/multisecret/internal/scheme"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

func p256() *big.Int {
	p, _ := new(big.Int).SetString("ffffffff00000001000000000000000000000000ffffffffffffffffffffffff", 16)
	return p
}

func bigs(vs ...int64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = big.NewInt(v)
	}
	return out
}

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Debug(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

type roundTripCase struct {
	kind    scheme.Kind
	p       *big.Int
	n       int
	secrets []*big.Int
	groups  [][][]int
}

func roundTripCases() []roundTripCase {
	multi := [][][]int{
		{{1, 2, 3}, {1, 2, 4}},
		{{1, 2}, {2, 3, 4}, {1, 4}},
	}
	single := [][][]int{
		{{1, 2, 3}},
		{{2, 4}},
	}
	big1, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	return []roundTripCase{
		{scheme.RoyAdhikariKind, p256(), 4, []*big.Int{big1, big.NewInt(7)}, multi},
		{scheme.RoyAdhikariKind, big.NewInt(15487469), 4, bigs(4, 15487468), multi},
		{scheme.RoyAdhikariKind, big.NewInt(1009), 4, bigs(0, 1008), multi},
		{scheme.LinYehKind, p256(), 4, []*big.Int{big1, big.NewInt(7)}, multi},
		{scheme.LinYehKind, big.NewInt(4099), 4, bigs(4098, 1), multi},
		{scheme.HerranzRuizSaezKind, p256(), 4, []*big.Int{big1, big.NewInt(0)}, single},
	}
}

func TestSplitCombineRoundTrip(t *testing.T) {
	t.Parallel()

	for _, tc := range roundTripCases() {
		t.Run(fmt.Sprintf("%s/%s", tc.kind, tc.p), func(t *testing.T) {
			t.Parallel()

			d, err := New(tc.kind, tc.p, tc.n, tc.secrets, tc.groups)
			require.NoError(t, err)

			nested, err := d.SplitSecrets()
			require.NoError(t, err)
			assert.Equal(t, Published, d.State())

			for i, secretGroups := range tc.groups {
				for q := range secretGroups {
					got, err := d.CombineSecret(i, q, nested[i][q])
					require.NoError(t, err)
					assert.Equal(t, 0, tc.secrets[i].Cmp(got), "secret %d group %d", i, q)
				}
			}
		})
	}
}

func TestCombineOrderIndependent(t *testing.T) {
	t.Parallel()

	d, err := New(scheme.RoyAdhikariKind, p256(), 4, bigs(99), [][][]int{{{1, 2, 3, 4}}})
	require.NoError(t, err)
	_, err = d.SplitSecrets()
	require.NoError(t, err)
	pub, err := d.Public()
	require.NoError(t, err)

	slot := access.Slot{Secret: 0, Group: 0}
	keyed := make(map[int]field.Element)
	for j := 1; j <= 4; j++ {
		shares, err := d.SharesFor(j)
		require.NoError(t, err)
		keyed[j] = shares[slot]
	}

	points, err := scheme.Points(pub, slot, keyed, true)
	require.NoError(t, err)
	require.Len(t, points, 4)

	// every rotation of the points, forwards and reversed
	for shift := range points {
		rotated := append(slices.Clone(points[shift:]), points[:shift]...)
		reversed := slices.Clone(rotated)
		slices.Reverse(reversed)

		for _, order := range [][]polynomial.Point{rotated, reversed} {
			got, err := polynomial.Interpolate(d.Field(), order)
			require.NoError(t, err)
			assert.Equal(t, int64(99), got.Big().Int64(), "shift %d", shift)
		}
	}
}

func TestCombineWrongShareCount(t *testing.T) {
	t.Parallel()

	for _, tc := range roundTripCases() {
		d, err := New(tc.kind, tc.p, tc.n, tc.secrets, tc.groups)
		require.NoError(t, err)
		nested, err := d.SplitSecrets()
		require.NoError(t, err)

		shares := nested[0][0]
		_, err = d.CombineSecret(0, 0, shares[:len(shares)-1])
		require.ErrorIs(t, err, mserr.ErrReconstruction, "%s", tc.kind)

		_, err = d.CombineSecret(0, 0, append(append([]field.Element(nil), shares...), shares[0]))
		require.ErrorIs(t, err, mserr.ErrReconstruction, "%s", tc.kind)

		_, err = d.CombineSecret(0, 9, shares)
		require.ErrorIs(t, err, mserr.ErrReconstruction, "%s", tc.kind)
	}
}

func TestSmallFieldScenario(t *testing.T) {
	t.Parallel()

	// p = 7, one secret 4 held by {1,2,3}
	d, err := New(scheme.RoyAdhikariKind, big.NewInt(7), 3, bigs(4), [][][]int{{{1, 2, 3}}})
	require.NoError(t, err)
	nested, err := d.SplitSecrets()
	require.NoError(t, err)

	got, err := d.CombineSecret(0, 0, nested[0][0])
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Int64())
}

func TestIDsDistinctAndNonZero(t *testing.T) {
	t.Parallel()

	// 5 participants in ℤ₇ forces collisions to be redrawn
	for k := 0; k < 20; k++ {
		d, err := New(scheme.LinYehKind, big.NewInt(7), 5, bigs(3), [][][]int{{{1, 2, 3, 4, 5}}})
		require.NoError(t, err)
		nested, err := d.SplitSecrets()
		require.NoError(t, err)

		pub, err := d.Public()
		require.NoError(t, err)
		seen := make(map[string]bool)
		for j := 1; j <= 5; j++ {
			id := pub.IDs[j]
			assert.False(t, id.IsZero())
			assert.False(t, seen[id.String()])
			seen[id.String()] = true
		}

		got, err := d.CombineSecret(0, 0, nested[0][0])
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Int64())
	}
}

func TestParticipantRoundTrip(t *testing.T) {
	t.Parallel()

	groups := [][][]int{
		{{1, 2, 3}, {2, 4}},
		{{1, 4}},
	}
	d, err := New(scheme.RoyAdhikariKind, p256(), 4, bigs(11, 22), groups)
	require.NoError(t, err)
	nested, err := d.SplitSecrets()
	require.NoError(t, err)

	pub, err := d.Public()
	require.NoError(t, err)
	c, err := NewCombiner(pub)
	require.NoError(t, err)

	for j := 1; j <= 4; j++ {
		shares, err := d.SharesFor(j)
		require.NoError(t, err)
		require.NoError(t, c.SetSharesFromParticipant(j, shares))
		assert.Equal(t, shares, c.SharesOf(j))
	}
	assert.Equal(t, nested, c.Nested())

	for i, secretGroups := range groups {
		for q := range secretGroups {
			assert.True(t, c.Ready(i, q))
			got, err := c.Combine(i, q)
			require.NoError(t, err)
			assert.Equal(t, []int64{11, 22}[i], got.Int64())
		}
	}
}

func TestSharesForUsesDeclaredIndex(t *testing.T) {
	t.Parallel()

	d, err := New(scheme.RoyAdhikariKind, p256(), 3, bigs(5), [][][]int{{{2, 3}}})
	require.NoError(t, err)
	_, err = d.SplitSecrets()
	require.NoError(t, err)

	s1, err := d.SharesFor(1)
	require.NoError(t, err)
	assert.Empty(t, s1)

	s3, err := d.SharesFor(3)
	require.NoError(t, err)
	assert.Len(t, s3, 1)

	_, err = d.SharesFor(4)
	require.ErrorIs(t, err, mserr.ErrInvalidInput)
}

func TestSetSharesRejectsForeignSlot(t *testing.T) {
	t.Parallel()

	d, err := New(scheme.LinYehKind, p256(), 3, bigs(5), [][][]int{{{2, 3}}})
	require.NoError(t, err)
	_, err = d.SplitSecrets()
	require.NoError(t, err)
	pub, err := d.Public()
	require.NoError(t, err)
	c, err := NewCombiner(pub)
	require.NoError(t, err)

	err = c.SetSharesFromParticipant(1, map[access.Slot]field.Element{{Secret: 0, Group: 0}: pub.Field.One()})
	require.ErrorIs(t, err, mserr.ErrShareMismatch)

	err = c.SetSharesFromParticipant(0, nil)
	require.ErrorIs(t, err, mserr.ErrInvalidInput)
}

func TestCombineAll(t *testing.T) {
	t.Parallel()

	groups := [][][]int{
		{{1, 2}, {3, 4}},
		{{1, 3}},
		{{2, 4}},
	}
	d, err := New(scheme.RoyAdhikariKind, p256(), 4, bigs(10, 20, 30), groups)
	require.NoError(t, err)
	_, err = d.SplitSecrets()
	require.NoError(t, err)
	pub, err := d.Public()
	require.NoError(t, err)
	c, err := NewCombiner(pub)
	require.NoError(t, err)

	_, err = c.CombineAll(context.Background())
	require.ErrorIs(t, err, mserr.ErrReconstruction)

	// participants 3 and 4 cover secret 0 (group 1) only
	for _, j := range []int{3, 4} {
		shares, err := d.SharesFor(j)
		require.NoError(t, err)
		require.NoError(t, c.SetSharesFromParticipant(j, shares))
	}
	recovered, err := c.CombineAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recovered, 1)
	assert.Equal(t, 0, recovered[0].Secret)
	assert.Equal(t, 1, recovered[0].Group)
	assert.Equal(t, int64(10), recovered[0].Value.Int64())

	for _, j := range []int{1, 2} {
		shares, err := d.SharesFor(j)
		require.NoError(t, err)
		require.NoError(t, c.SetSharesFromParticipant(j, shares))
	}
	recovered, err = c.CombineAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recovered, 3)
	for i, r := range recovered {
		assert.Equal(t, i, r.Secret)
		assert.Equal(t, int64(10*(i+1)), r.Value.Int64())
	}
	assert.Equal(t, 0, recovered[0].Group)
}

func TestCombineAllCanceled(t *testing.T) {
	t.Parallel()

	d, err := New(scheme.RoyAdhikariKind, p256(), 2, bigs(1), [][][]int{{{1, 2}}})
	require.NoError(t, err)
	_, err = d.SplitSecrets()
	require.NoError(t, err)
	pub, err := d.Public()
	require.NoError(t, err)
	c, err := NewCombiner(pub)
	require.NoError(t, err)
	for j := 1; j <= 2; j++ {
		shares, err := d.SharesFor(j)
		require.NoError(t, err)
		require.NoError(t, c.SetSharesFromParticipant(j, shares))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.CombineAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConstructionErrors(t *testing.T) {
	t.Parallel()

	ok := [][][]int{{{1, 2}}}
	tests := []struct {
		name    string
		kind    scheme.Kind
		p       *big.Int
		n       int
		secrets []*big.Int
		groups  [][][]int
		want    error
	}{
		{"not prime", scheme.RoyAdhikariKind, big.NewInt(1000), 2, bigs(1), ok, mserr.ErrInvalidModulus},
		{"modulus below participants", scheme.RoyAdhikariKind, big.NewInt(3), 5, bigs(1), [][][]int{{{1, 5}}}, mserr.ErrInvalidModulus},
		{"modulus below secret", scheme.RoyAdhikariKind, big.NewInt(1009), 2, bigs(1009), ok, mserr.ErrInvalidModulus},
		{"one participant", scheme.RoyAdhikariKind, big.NewInt(1009), 1, bigs(1), ok, mserr.ErrTooFewParticipants},
		{"group of one", scheme.LinYehKind, big.NewInt(1009), 2, bigs(1), [][][]int{{{1}}}, mserr.ErrInvalidAccessGroup},
		{"hrs with two groups", scheme.HerranzRuizSaezKind, p256(), 3, bigs(1), [][][]int{{{1, 2}, {2, 3}}}, mserr.ErrInvalidAccessGroup},
		{"secret count mismatch", scheme.RoyAdhikariKind, big.NewInt(1009), 2, bigs(1, 2), ok, mserr.ErrInvalidInput},
		{"negative secret", scheme.RoyAdhikariKind, big.NewInt(1009), 2, bigs(-1), ok, mserr.ErrInvalidInput},
		{"unknown scheme", "shamir", big.NewInt(1009), 2, bigs(1), ok, mserr.ErrUnknownScheme},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tc.kind, tc.p, tc.n, tc.secrets, tc.groups)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLifecycle(t *testing.T) {
	t.Parallel()

	log := &recordingLogger{}
	d, err := New(scheme.RoyAdhikariKind, p256(), 2, bigs(1), [][][]int{{{1, 2}}}, WithLogger(log))
	require.NoError(t, err)
	assert.Equal(t, Uninitialized, d.State())

	_, err = d.Public()
	require.ErrorIs(t, err, mserr.ErrNotSplit)
	_, err = d.SharesFor(1)
	require.ErrorIs(t, err, mserr.ErrNotSplit)
	_, err = d.Nested()
	require.ErrorIs(t, err, mserr.ErrNotSplit)
	_, err = d.CombineSecret(0, 0, nil)
	require.ErrorIs(t, err, mserr.ErrNotSplit)

	_, err = d.SplitSecrets()
	require.NoError(t, err)
	_, err = d.SplitSecrets()
	require.ErrorIs(t, err, mserr.ErrInvalidInput)

	joined := strings.Join(log.lines, "\n")
	for _, s := range []State{IDsAssigned, PolynomialsGenerated, SharesComputed, Published} {
		assert.Contains(t, joined, "-> "+s.String())
	}
}

func TestSessionKeyChangesPseudoShares(t *testing.T) {
	t.Parallel()

	// same randomness, different session keys
	seed := bytes.Repeat([]byte{0x11, 0x22, 0x33, 0x44, 0x55}, 4096)
	split := func(fill byte) Nested {
		var key keyhash.SessionKey
		for i := range key {
			key[i] = fill
		}
		d, err := New(scheme.RoyAdhikariKind, p256(), 2, bigs(5), [][][]int{{{1, 2}}},
			WithRand(bytes.NewReader(seed)), WithSessionKey(key))
		require.NoError(t, err)
		nested, err := d.SplitSecrets()
		require.NoError(t, err)
		return nested
	}

	a, b, c := split(1), split(2), split(1)
	assert.NotEqual(t, a[0][0][0].String(), b[0][0][0].String())
	assert.Equal(t, a[0][0][0].String(), c[0][0][0].String())
}

func TestDigestOption(t *testing.T) {
	t.Parallel()

	d, err := New(scheme.LinYehKind, p256(), 2, bigs(5), [][][]int{{{1, 2}}}, WithDigest(keyhash.DigestSHA3256))
	require.NoError(t, err)
	assert.Equal(t, keyhash.DigestSHA3256, d.Digest())

	nested, err := d.SplitSecrets()
	require.NoError(t, err)
	got, err := d.CombineSecret(0, 0, nested[0][0])
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Int64())

	_, err = New(scheme.LinYehKind, p256(), 2, bigs(5), [][][]int{{{1, 2}}}, WithDigest("md5"))
	require.ErrorIs(t, err, mserr.ErrInvalidInput)
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "published", Published.String())
	assert.Equal(t, "unknown", State(42).String())
}
