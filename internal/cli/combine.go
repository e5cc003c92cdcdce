package cli

import (
	"encoding/hex"
	"io"
	"log/slog"
	"math/big"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisecret/internal/bundle"
	"github.com/mrz1836/multisecret/internal/dealer"
	"github.com/mrz1836/multisecret/internal/field"
	"github.com/mrz1836/multisecret/internal/metrics"
	"github.com/mrz1836/multisecret/internal/output"
	"github.com/mrz1836/multisecret/internal/version"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// defaultCombineTimeout bounds a --all reconstruction.
const defaultCombineTimeout = 30 * time.Second

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	combineBundle  string
	combineShares  []string
	combineSecret  int
	combineGroup   int
	combineAll     bool
	combineText    bool
	combineTimeout time.Duration
)

// combineCmd reconstructs secrets.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var combineCmd = &cobra.Command{
	Use:     "combine",
	Short:   "Reconstruct secrets from a public bundle and participant share files",
	GroupID: groupSharing,
	Long: `Reconstruct secrets from the public bundle of a split and the share files
of the participants present.

With --secret and --group, exactly the members of that access group must be
supplied and only that secret is recovered. Otherwise every secret that has at
least one fully covered access group is recovered, in parallel.

Encrypted share files prompt for their passphrase.`,
	Example: `  multisecret combine --bundle shares/public.json --shares shares/participant-1.json --shares shares/participant-2.json
  multisecret combine --bundle public.cbor --shares p1.cbor.age --shares p3.cbor.age --secret 1 --group 0
  multisecret combine --bundle public.json --shares a.json --shares b.json --text -o json`,
	Args: cobra.NoArgs,
	RunE: runCombine,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(combineCmd)

	f := combineCmd.Flags()
	f.StringVar(&combineBundle, "bundle", "", "public bundle file (required)")
	f.StringArrayVar(&combineShares, "shares", nil, "participant share file; repeat per participant (required)")
	f.IntVar(&combineSecret, "secret", -1, "index of the secret to recover")
	f.IntVar(&combineGroup, "group", -1, "index of the access group whose shares are supplied")
	f.BoolVar(&combineAll, "all", false, "recover every secret with a fully covered group (default)")
	f.BoolVar(&combineText, "text", false, "print recovered secrets as UTF-8 text")
	f.DurationVar(&combineTimeout, "timeout", defaultCombineTimeout, "time limit for recovering all secrets (0 disables)")

	_ = combineCmd.MarkFlagRequired("bundle")
	_ = combineCmd.MarkFlagRequired("shares")
	combineCmd.MarkFlagsRequiredTogether("secret", "group")
	combineCmd.MarkFlagsMutuallyExclusive("secret", "all")
	combineCmd.MarkFlagsMutuallyExclusive("group", "all")
}

type recoveredSecret struct {
	Secret int    `json:"secret"`
	Group  int    `json:"group"`
	Value  string `json:"value"`
	Text   string `json:"text,omitempty"`
}

type combineResult struct {
	Session string            `json:"session"`
	Scheme  string            `json:"scheme"`
	Secrets []recoveredSecret `json:"secrets"`
}

func runCombine(cmd *cobra.Command, _ []string) error {
	cc := commandContextFn()

	b, c, err := loadCombiner(cmd.ErrOrStderr(), combineBundle, combineShares)
	if err != nil {
		return err
	}

	start := time.Now()
	recovered, err := recoverSecrets(cmd, c)
	metrics.Global.RecordCombine(time.Since(start), len(recovered), err)
	if err != nil {
		cc.Logger.ErrorAttrs("combine failed",
			slog.String("session", b.Session),
			slog.String("code", mserr.Code(err)),
			slog.String("error", err.Error()),
		)
		return err
	}
	sort.Slice(recovered, func(x, y int) bool { return recovered[x].Secret < recovered[y].Secret })

	cc.Logger.DebugAttrs("combine complete",
		slog.String("session", b.Session),
		slog.Int("share_files", len(combineShares)),
		slog.Int("recovered", len(recovered)),
	)

	res := combineResult{Session: b.Session, Scheme: b.Scheme}
	for _, r := range recovered {
		rs := recoveredSecret{Secret: r.Secret, Group: r.Group, Value: r.Value.String()}
		if combineText {
			rs.Text = decodeText(r.Value)
		}
		res.Secrets = append(res.Secrets, rs)
	}

	w := cmd.OutOrStdout()
	if cc.Formatter.IsJSON() {
		return writeJSON(w, res)
	}
	displayCombineText(w, res)
	return nil
}

// recoverSecrets runs the reconstruction selected by the flags.
func recoverSecrets(cmd *cobra.Command, c *dealer.Combiner) ([]dealer.Recovered, error) {
	if combineSecret >= 0 {
		v, err := c.Combine(combineSecret, combineGroup)
		if err != nil {
			return nil, err
		}
		return []dealer.Recovered{{Secret: combineSecret, Group: combineGroup, Value: v}}, nil
	}

	ctx, cancel := contextWithTimeout(cmd, combineTimeout)
	defer cancel()
	return c.CombineAll(ctx)
}

// loadCombiner validates the bundle and every share file against it and
// returns a combiner holding all supplied shares.
func loadCombiner(warn io.Writer, bundlePath string, sharePaths []string) (*bundle.Public, *dealer.Combiner, error) {
	b, err := bundle.LoadPublic(bundlePath)
	if err != nil {
		return nil, nil, err
	}
	if cur := buildInfo.Current(); !version.IsDev(cur) && version.IsNewer(cur, b.Generator) {
		output.Warnf(warn, "bundle was written by %s, newer than this build (%s)", b.Generator, cur)
	}

	pub, err := b.Restore()
	if err != nil {
		return nil, nil, err
	}
	c, err := dealer.NewCombiner(pub)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[int]string, len(sharePaths))
	for _, path := range sharePaths {
		p, err := bundle.LoadParticipant(path, sharePassphrase)
		metrics.Global.RecordShareFile(err)
		if err != nil {
			return nil, nil, err
		}
		if err := p.Validate(b); err != nil {
			return nil, nil, mserr.Wrap(err, "%s", path)
		}
		if prev, dup := seen[p.Participant]; dup {
			return nil, nil, mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{
				"participant": strconv.Itoa(p.Participant),
				"files":       prev + ", " + path,
			})
		}
		seen[p.Participant] = path

		shares, err := p.Restore(pub.Field)
		if err != nil {
			return nil, nil, err
		}
		if err := c.SetSharesFromParticipant(p.Participant, shares); err != nil {
			return nil, nil, err
		}
	}
	return b, c, nil
}

func displayCombineText(w io.Writer, res combineResult) {
	output.Successf(w, "Recovered %d secret(s) from session %s", len(res.Secrets), res.Session)
	outln(w)

	headers := []string{"SECRET", "GROUP", "VALUE"}
	if combineText {
		headers = append(headers, "TEXT")
	}
	t := output.NewTable(headers...)
	t.AlignRight(0)
	t.AlignRight(1)
	for _, s := range res.Secrets {
		row := []string{strconv.Itoa(s.Secret), strconv.Itoa(s.Group), s.Value}
		if combineText {
			row = append(row, s.Text)
		}
		t.AddRow(row...)
	}
	_ = t.Render(w)
}

// decodeText renders a recovered value as UTF-8, or hex when it is not text.
func decodeText(v *big.Int) string {
	b := field.IntToBytes(v)
	if utf8.Valid(b) {
		return string(b)
	}
	return "0x" + hex.EncodeToString(b)
}
