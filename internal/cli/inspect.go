package cli

import (
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisecret/internal/access"
	"github.com/mrz1836/multisecret/internal/bundle"
	"github.com/mrz1836/multisecret/internal/output"
)

// inspectCmd summarizes a public bundle.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var inspectCmd = &cobra.Command{
	Use:     "inspect <file>",
	Short:   "Summarize a public bundle",
	GroupID: groupFiles,
	Long: `Validate a public bundle and print its session, scheme, modulus and
access structures. Nothing secret is stored in the bundle.`,
	Example: `  multisecret inspect shares/public.json
  multisecret inspect public.cbor -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(inspectCmd)
}

type inspectSecret struct {
	Secret int     `json:"secret"`
	Groups [][]int `json:"groups"`
	Access string  `json:"access"`
}

type inspectResult struct {
	Session      string          `json:"session"`
	Scheme       string          `json:"scheme"`
	CreatedAt    time.Time       `json:"created_at"`
	Generator    string          `json:"generator,omitempty"`
	Participants int             `json:"participants"`
	ModulusBits  int             `json:"modulus_bits"`
	Modulus      string          `json:"modulus"`
	Digest       string          `json:"digest,omitempty"`
	KeySize      int             `json:"key_size,omitempty"`
	PublicShares int             `json:"public_shares"`
	Ciphertexts  int             `json:"ciphertexts"`
	Checksum     string          `json:"checksum"`
	Secrets      []inspectSecret `json:"secrets"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	cc := commandContextFn()

	b, err := bundle.LoadPublic(args[0])
	if err != nil {
		return err
	}
	f, err := b.Field()
	if err != nil {
		return err
	}

	res := inspectResult{
		Session:      b.Session,
		Scheme:       b.Scheme,
		CreatedAt:    b.CreatedAt,
		Generator:    b.Generator,
		Participants: b.Participants,
		ModulusBits:  f.BitLen(),
		Modulus:      b.Modulus,
		Digest:       b.Digest,
		KeySize:      b.KeySize,
		PublicShares: len(b.Shares),
		Ciphertexts:  len(b.Ciphertexts),
		Checksum:     b.Checksum,
	}
	for i, groups := range b.Access {
		res.Secrets = append(res.Secrets, inspectSecret{Secret: i, Groups: groups, Access: access.Format(groups)})
	}

	w := cmd.OutOrStdout()
	if cc.Formatter.IsJSON() {
		return writeJSON(w, res)
	}
	displayInspect(w, res)
	return nil
}

func displayInspect(w io.Writer, res inspectResult) {
	out(w, "Session:       %s\n", res.Session)
	out(w, "Scheme:        %s\n", res.Scheme)
	out(w, "Created:       %s\n", res.CreatedAt.Format(time.RFC3339))
	if res.Generator != "" {
		out(w, "Written by:    multisecret %s\n", res.Generator)
	}
	out(w, "Participants:  %d\n", res.Participants)
	out(w, "Modulus:       %d bits\n", res.ModulusBits)
	if res.Digest != "" {
		out(w, "Digest:        %s\n", res.Digest)
	}
	if res.KeySize > 0 {
		out(w, "AES key size:  %d bytes\n", res.KeySize)
	}
	out(w, "Public shares: %d\n", res.PublicShares)
	if res.Ciphertexts > 0 {
		out(w, "Ciphertexts:   %d\n", res.Ciphertexts)
	}
	out(w, "Checksum:      %s\n\n", res.Checksum)

	t := output.NewTable("SECRET", "GROUPS", "ACCESS")
	t.AlignRight(0)
	t.AlignRight(1)
	for _, s := range res.Secrets {
		t.AddRow(strconv.Itoa(s.Secret), strconv.Itoa(len(s.Groups)), s.Access)
	}
	_ = t.Render(w)
}
