package cli

import (
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisecret/internal/access"
	"github.com/mrz1836/multisecret/internal/bundle"
	"github.com/mrz1836/multisecret/internal/dealer"
	"github.com/mrz1836/multisecret/internal/field"
	"github.com/mrz1836/multisecret/internal/keyhash"
	"github.com/mrz1836/multisecret/internal/metrics"
	"github.com/mrz1836/multisecret/internal/output"
	"github.com/mrz1836/multisecret/internal/scheme"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	splitScheme       string
	splitPrime        string
	splitParticipants int
	splitSecrets      []string
	splitAccess       []string
	splitOut          string
	splitFormat       string
	splitDigest       string
	splitKeySize      int
	splitEncrypt      bool
	splitNoEncrypt    bool
	splitText         bool
	splitForce        bool
)

// splitCmd distributes secrets.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var splitCmd = &cobra.Command{
	Use:     "split",
	Short:   "Split secrets into participant share files and a public bundle",
	GroupID: groupSharing,
	Long: `Split one or more secrets among n participants.

Give one --secret and one --access per secret, in the same order. An access
structure lists the qualified groups of a secret, separated by ';', each a
comma-separated list of participant indices between 1 and n.

The output directory receives public.<ext>, which holds the published values,
and participant-<j>.<ext> for every participant. Participant files are
encrypted with a passphrase unless --no-encrypt is given or storage.encrypt_shares
is false.`,
	Example: `  multisecret split -n 3 --secret 1234 --access "1,2;2,3" --out ./shares
  multisecret split -n 4 --secret 11 --access "1,2,3" --secret 22 --access "3,4" --scheme lin-yeh
  multisecret split -n 2 --secret 7 --access "1,2" --scheme hrs --key-size 32 --no-encrypt
  multisecret split -n 3 --text --secret "launch code" --access "1,3" --format cbor`,
	Args: cobra.NoArgs,
	RunE: runSplit,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(splitCmd)

	f := splitCmd.Flags()
	f.IntVarP(&splitParticipants, "participants", "n", 0, "number of participants (required)")
	f.StringArrayVar(&splitSecrets, "secret", nil, "secret value, decimal or 0x hex; repeat per secret (required)")
	f.StringArrayVar(&splitAccess, "access", nil, `access structure of the matching secret, e.g. "1,2;2,3" (required)`)
	f.StringVar(&splitScheme, "scheme", "", "sharing scheme: roy-adhikari, lin-yeh, herranz-ruiz-saez (default from config)")
	f.StringVar(&splitPrime, "prime", "", "prime modulus: p256, 15487469, 4099, 1009 or a number (default from config)")
	f.StringVar(&splitOut, "out", "shares", "output directory")
	f.StringVar(&splitFormat, "format", "", "file format: json or cbor (default from config)")
	f.StringVar(&splitDigest, "digest", "", "pseudo share digest: sha256 or sha3-256 (default from config)")
	f.IntVar(&splitKeySize, "key-size", 0, "herranz-ruiz-saez AES key size in bytes: 16 or 32 (default from config)")
	f.BoolVar(&splitEncrypt, "encrypt", false, "encrypt participant files with a passphrase")
	f.BoolVar(&splitNoEncrypt, "no-encrypt", false, "write participant files in the clear")
	f.BoolVar(&splitText, "text", false, "treat each secret as UTF-8 text")
	f.BoolVar(&splitForce, "force", false, "overwrite an existing bundle in the output directory")

	_ = splitCmd.MarkFlagRequired("participants")
	_ = splitCmd.MarkFlagRequired("secret")
	_ = splitCmd.MarkFlagRequired("access")
	splitCmd.MarkFlagsMutuallyExclusive("encrypt", "no-encrypt")
}

// splitRequest is a split resolved against flags and configuration.
type splitRequest struct {
	kind    scheme.Kind
	prime   *big.Int
	n       int
	secrets []*big.Int
	groups  [][][]int
	digest  keyhash.Digest
	keySize int
	format  bundle.Format
	encrypt bool
	dir     string
	force   bool
}

type splitParticipant struct {
	Participant int    `json:"participant"`
	File        string `json:"file"`
	Shares      int    `json:"shares"`
	Encrypted   bool   `json:"encrypted"`
}

type splitResult struct {
	Session      string             `json:"session"`
	Scheme       string             `json:"scheme"`
	Secrets      int                `json:"secrets"`
	Directory    string             `json:"directory"`
	Public       string             `json:"public"`
	Participants []splitParticipant `json:"participants"`
	Idle         []int              `json:"idle_participants,omitempty"`
}

func (r *splitResult) shareCount() int {
	n := 0
	for _, p := range r.Participants {
		n += p.Shares
	}
	return n
}

func runSplit(cmd *cobra.Command, _ []string) error {
	cc := commandContextFn()

	req, err := resolveSplit(cc)
	if err != nil {
		return err
	}
	res, err := executeSplit(cc, req)
	if err != nil {
		metrics.Global.RecordSplit(0, err)
		cc.Logger.ErrorAttrs("split failed",
			slog.String("scheme", string(req.kind)),
			slog.Int("participants", req.n),
			slog.String("code", mserr.Code(err)),
			slog.String("error", err.Error()),
		)
		return err
	}
	metrics.Global.RecordSplit(res.shareCount(), nil)

	w := cmd.OutOrStdout()
	if cc.Formatter.IsJSON() {
		return writeJSON(w, res)
	}
	if !req.encrypt {
		output.Warnf(cmd.ErrOrStderr(), "participant files are not encrypted; deliver them over a secure channel")
	}
	if len(res.Idle) > 0 {
		output.Warnf(cmd.ErrOrStderr(), "participants %v are in no access group and hold no shares", res.Idle)
	}
	displaySplitText(w, res)
	return nil
}

func resolveSplit(cc *CommandContext) (*splitRequest, error) {
	c := cc.Config
	req := &splitRequest{
		n:       splitParticipants,
		keySize: firstInt(splitKeySize, c.Scheme.KeySize),
		dir:     splitOut,
		force:   splitForce,
		encrypt: c.Storage.EncryptShares,
	}
	if splitEncrypt {
		req.encrypt = true
	}
	if splitNoEncrypt {
		req.encrypt = false
	}

	var err error
	if req.kind, err = scheme.ByName(firstString(splitScheme, c.Scheme.Default)); err != nil {
		return nil, err
	}
	if req.prime, err = field.ParsePrime(firstString(splitPrime, c.Scheme.Prime)); err != nil {
		return nil, err
	}
	if req.digest, err = keyhash.ParseDigest(firstString(splitDigest, c.Scheme.Digest)); err != nil {
		return nil, err
	}
	if req.format, err = bundle.ParseFormat(firstString(splitFormat, c.Storage.Format)); err != nil {
		return nil, err
	}

	if len(splitSecrets) != len(splitAccess) {
		return nil, mserr.WithSuggestion(
			mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{
				"secrets": strconv.Itoa(len(splitSecrets)),
				"access":  strconv.Itoa(len(splitAccess)),
			}),
			"give exactly one --access for every --secret",
		)
	}
	for i, s := range splitSecrets {
		v, err := parseSecret(s, splitText)
		if err != nil {
			return nil, mserr.Wrap(err, "secret %d", i)
		}
		req.secrets = append(req.secrets, v)

		groups, err := access.Parse(splitAccess[i])
		if err != nil {
			return nil, mserr.Wrap(err, "access structure of secret %d", i)
		}
		req.groups = append(req.groups, groups)
	}
	return req, nil
}

func executeSplit(cc *CommandContext, req *splitRequest) (*splitResult, error) {
	pubPath := filepath.Join(req.dir, bundle.PublicFileName(req.format))
	if _, err := os.Stat(pubPath); err == nil && !req.force {
		return nil, mserr.WithSuggestion(
			mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{"path": pubPath}),
			"a bundle already exists there; use --force or another --out",
		)
	}

	d, err := dealer.New(req.kind, req.prime, req.n, req.secrets, req.groups,
		dealer.WithRand(cc.Rand),
		dealer.WithLogger(cc.Logger),
		dealer.WithDigest(req.digest),
		dealer.WithKeySize(req.keySize),
	)
	if err != nil {
		return nil, err
	}
	if _, err := d.SplitSecrets(); err != nil {
		return nil, err
	}
	pub, err := d.Public()
	if err != nil {
		return nil, err
	}

	session := bundle.NewSessionID()
	b, err := bundle.NewPublic(session, pub, d.Digest())
	if err != nil {
		return nil, err
	}
	if err := b.Stamp(buildInfo.Current()); err != nil {
		return nil, err
	}
	if err := bundle.SavePublic(pubPath, b, req.format); err != nil {
		return nil, err
	}

	res := &splitResult{
		Session:   session,
		Scheme:    string(req.kind),
		Secrets:   len(req.secrets),
		Directory: req.dir,
		Public:    pubPath,
	}
	for j := 1; j <= req.n; j++ {
		sp, err := writeParticipant(d, b, req, j)
		if err != nil {
			return nil, err
		}
		res.Participants = append(res.Participants, sp)
	}
	res.Idle = idleParticipants(d.Access())

	cc.Logger.DebugAttrs("split complete",
		slog.String("session", session),
		slog.String("scheme", string(req.kind)),
		slog.Int("participants", req.n),
		slog.Int("secrets", len(req.secrets)),
		slog.Int("modulus_bits", d.Field().BitLen()),
	)
	return res, nil
}

// idleParticipants lists the participants that belong to no access group and
// therefore received an empty share file.
func idleParticipants(acc *access.Structure) []int {
	members := acc.Members()
	var idle []int
	for j := 1; j <= acc.Participants(); j++ {
		if !slices.Contains(members, j) {
			idle = append(idle, j)
		}
	}
	return idle
}

func writeParticipant(d *dealer.Dealer, b *bundle.Public, req *splitRequest, j int) (splitParticipant, error) {
	shares, err := d.SharesFor(j)
	if err != nil {
		return splitParticipant{}, err
	}
	path := filepath.Join(req.dir, bundle.ParticipantFileName(j, req.format, req.encrypt))
	p := bundle.NewParticipant(b.Session, b.Scheme, j, shares)

	passphrase := ""
	if req.encrypt {
		pw, err := promptNewPassphraseFn(j)
		if err != nil {
			return splitParticipant{}, err
		}
		defer pw.Destroy()
		passphrase = pw.String()
	}
	if err := bundle.SaveParticipant(path, p, req.format, passphrase); err != nil {
		return splitParticipant{}, err
	}
	return splitParticipant{Participant: j, File: path, Shares: len(p.Shares), Encrypted: req.encrypt}, nil
}

func displaySplitText(w io.Writer, res *splitResult) {
	output.Successf(w, "Split %d secret(s) among %d participants with %s", res.Secrets, len(res.Participants), res.Scheme)
	out(w, "Session: %s\n", res.Session)
	out(w, "Public bundle: %s\n\n", res.Public)

	t := output.NewTable("PARTICIPANT", "SHARES", "ENCRYPTED", "FILE")
	t.AlignRight(0)
	t.AlignRight(1)
	for _, p := range res.Participants {
		t.AddRow(strconv.Itoa(p.Participant), strconv.Itoa(p.Shares), strconv.FormatBool(p.Encrypted), p.File)
	}
	_ = t.Render(w)
}

// parseSecret reads a decimal or 0x-prefixed hex integer, or UTF-8 text
// encoded big-endian when text is set.
func parseSecret(s string, text bool) (*big.Int, error) {
	if text {
		if s == "" {
			return nil, mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{"reason": "empty secret"})
		}
		return field.BytesToInt([]byte(s)), nil
	}

	v := strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(strings.ToLower(v), "0x") {
		v, base = v[2:], 16
	}
	n, ok := new(big.Int).SetString(v, base)
	if !ok || n.Sign() < 0 {
		return nil, mserr.WithSuggestion(
			mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{"secret": "not a non-negative integer"}),
			"use a decimal or 0x-prefixed hex number, or --text",
		)
	}
	return n, nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
