package sharecrypto

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"

	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// ageHeader starts every binary age file.
const ageHeader = "age-encryption.org/v1\n"

// IsEncrypted reports whether data is an age file.
func IsEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, []byte(ageHeader))
}

// Encrypt encrypts plaintext using age with a passphrase (scrypt) recipient.
func Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

// Decrypt decrypts an age file with a passphrase. A wrong passphrase or a
// damaged file yields ErrDecryptionFailed.
func Decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, mserr.Wrap(mserr.ErrDecryptionFailed, "%v", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, mserr.Wrap(mserr.ErrDecryptionFailed, "reading decrypted data: %v", err)
	}

	return plaintext, nil
}

// DecryptSecure decrypts ciphertext into SecureBytes, zeroing the
// intermediate plaintext.
func DecryptSecure(ciphertext []byte, passphrase string) (*SecureBytes, error) {
	plaintext, err := Decrypt(ciphertext, passphrase)
	if err != nil {
		return nil, err
	}

	defer ZeroBytes(plaintext)

	return SecureBytesFromSlice(plaintext)
}
