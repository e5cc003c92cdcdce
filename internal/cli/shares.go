package cli

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisecret/internal/bundle"
	"github.com/mrz1836/multisecret/internal/output"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	sharesQR     bool
	sharesBundle string
)

// sharesCmd groups participant share file operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sharesCmd = &cobra.Command{
	Use:     "shares",
	Short:   "Work with participant share files",
	GroupID: groupFiles,
	Long:    `Inspect the share files handed to participants by split.`,
}

// sharesShowCmd lists the shares in one participant file.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sharesShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "List the shares held by one participant",
	Long: `List the (secret, group) shares stored in a participant file.

With --qr each share is also drawn as a terminal QR code for transfer to an
offline device. With --bundle the file is first checked against the public
bundle it claims to belong to.`,
	Example: `  multisecret shares show shares/participant-2.json
  multisecret shares show shares/participant-2.json.age --qr
  multisecret shares show p1.cbor --bundle public.cbor -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runSharesShow,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(sharesCmd)
	sharesCmd.AddCommand(sharesShowCmd)

	sharesShowCmd.Flags().BoolVar(&sharesQR, "qr", false, "render each share as a QR code")
	sharesShowCmd.Flags().StringVar(&sharesBundle, "bundle", "", "public bundle to validate the file against")

	enrichParentLong(sharesCmd)
}

func runSharesShow(cmd *cobra.Command, args []string) error {
	cc := commandContextFn()

	p, err := bundle.LoadParticipant(args[0], sharePassphrase)
	if err != nil {
		return err
	}
	if sharesBundle != "" {
		b, err := bundle.LoadPublic(sharesBundle)
		if err != nil {
			return err
		}
		if err := p.Validate(b); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if cc.Formatter.IsJSON() {
		return writeJSON(w, p)
	}
	displayShares(w, p)

	if sharesQR {
		if !output.CanRenderQR(w) {
			output.Warnf(cmd.ErrOrStderr(), "QR codes need a terminal; skipping")
			return nil
		}
		for _, s := range p.Shares {
			outln(w)
			out(w, "Secret %d, group %d:\n", s.Secret, s.Group)
			payload := output.SharePayload(p.Session, p.Participant, s.Secret, s.Group, s.Value)
			if err := output.RenderQR(w, payload, output.DefaultQRConfig()); err != nil {
				return err
			}
		}
	}
	return nil
}

func displayShares(w io.Writer, p *bundle.Participant) {
	out(w, "Participant %d (%s)\n", p.Participant, p.Scheme)
	out(w, "Session: %s\n\n", p.Session)

	if len(p.Shares) == 0 {
		outln(w, "This participant belongs to no access group.")
		return
	}
	t := output.NewTable("SECRET", "GROUP", "SHARE")
	t.AlignRight(0)
	t.AlignRight(1)
	for _, s := range p.Shares {
		t.AddRow(strconv.Itoa(s.Secret), strconv.Itoa(s.Group), s.Value)
	}
	_ = t.Render(w)
}
