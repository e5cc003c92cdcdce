package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/term"

	"github.com/mrz1836/multisecret/internal/sharecrypto"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// minPassphraseLen is the shortest passphrase accepted for new share files.
const minPassphraseLen = 8

// Prompt hooks, replaced in tests.
//
//nolint:gochecknoglobals // swapped by tests to avoid a terminal
var (
	promptPasswordFn      = promptPassword
	promptNewPassphraseFn = promptNewPassphrase
)

// promptPassword reads a line with hidden input from the terminal.
// The caller zeroes the returned bytes.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	return password, nil
}

// promptNewPassphrase asks twice for the passphrase protecting participant j's file.
func promptNewPassphrase(j int) (*sharecrypto.SecureBytes, error) {
	pw, err := promptPasswordFn(fmt.Sprintf("Passphrase for participant %d: ", j))
	if err != nil {
		return nil, err
	}
	defer sharecrypto.ZeroBytes(pw)

	if len(pw) < minPassphraseLen {
		return nil, mserr.WithSuggestion(
			mserr.ErrInvalidInput,
			fmt.Sprintf("passphrase must be at least %d characters", minPassphraseLen),
		)
	}

	confirm, err := promptPasswordFn("Confirm passphrase: ")
	if err != nil {
		return nil, err
	}
	defer sharecrypto.ZeroBytes(confirm)

	if string(pw) != string(confirm) {
		return nil, mserr.WithSuggestion(mserr.ErrInvalidInput, "passphrases do not match")
	}
	return sharecrypto.SecureBytesFromSlice(pw)
}

// sharePassphrase supplies the passphrase of an encrypted share file on load.
func sharePassphrase(path string) (string, error) {
	pw, err := promptPasswordFn(fmt.Sprintf("Passphrase for %s: ", filepath.Base(path)))
	if err != nil {
		return "", err
	}
	defer sharecrypto.ZeroBytes(pw)
	return string(pw), nil
}
