package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/mrz1836/multisecret/internal/fileutil"
	"github.com/mrz1836/multisecret/internal/sharecrypto"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// Format is an on-disk encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// File permissions.
const (
	publicFilePerm      = 0o644
	participantFilePerm = 0o600
)

// ParseFormat resolves a format name. An empty name selects JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCBOR:
		return FormatCBOR, nil
	default:
		return "", mserr.WithDetails(mserr.ErrInvalidFormat, map[string]string{
			"format": s,
			"valid":  "json, cbor",
		})
	}
}

// Ext returns the file extension, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// PublicFileName returns the name of the public bundle file.
func PublicFileName(f Format) string {
	return "public." + f.Ext()
}

// ParticipantFileName returns the name of participant j's share file.
func ParticipantFileName(j int, f Format, encrypted bool) string {
	name := fmt.Sprintf("participant-%d.%s", j, f.Ext())
	if encrypted {
		name += ".age"
	}
	return name
}

// Marshal encodes v in format f.
func Marshal(v any, f Format) ([]byte, error) {
	switch f {
	case FormatCBOR:
		em, err := cbor.CoreDetEncOptions().EncMode()
		if err != nil {
			return nil, err
		}
		return em.Marshal(v)
	case FormatJSON, "":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		_, err := ParseFormat(string(f))
		return nil, err
	}
}

// Unmarshal decodes data into v, detecting JSON by its leading brace.
func Unmarshal(data []byte, v any) (Format, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, v); err != nil {
			return "", mserr.Wrap(mserr.ErrInvalidFormat, "decoding json: %v", err)
		}
		return FormatJSON, nil
	}
	if err := cbor.Unmarshal(data, v); err != nil {
		return "", mserr.Wrap(mserr.ErrInvalidFormat, "decoding cbor: %v", err)
	}
	return FormatCBOR, nil
}

// SavePublic writes the sealed bundle to path.
func SavePublic(path string, b *Public, f Format) error {
	data, err := Marshal(b, f)
	if err != nil {
		return err
	}
	return write(path, data, publicFilePerm)
}

// LoadPublic reads and validates a public bundle.
func LoadPublic(path string) (*Public, error) {
	data, err := read(path)
	if err != nil {
		return nil, err
	}
	var b Public
	if _, err := Unmarshal(data, &b); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, mserr.Wrap(err, "validating %s", filepath.Base(path))
	}
	return &b, nil
}

// SaveParticipant writes a share file. A non-empty passphrase wraps the
// encoded file with age.
func SaveParticipant(path string, p *Participant, f Format, passphrase string) error {
	data, err := Marshal(p, f)
	if err != nil {
		return err
	}
	if passphrase != "" {
		data, err = sharecrypto.Encrypt(data, passphrase)
		if err != nil {
			return err
		}
	}
	return write(path, data, participantFilePerm)
}

// PassphraseFunc supplies the passphrase of an encrypted share file.
type PassphraseFunc func(path string) (string, error)

// LoadParticipant reads a share file, decrypting it through passphrase when
// it is age-encrypted.
func LoadParticipant(path string, passphrase PassphraseFunc) (*Participant, error) {
	data, err := read(path)
	if err != nil {
		return nil, err
	}

	if sharecrypto.IsEncrypted(data) {
		if passphrase == nil {
			return nil, mserr.WithSuggestion(
				mserr.WithDetails(mserr.ErrDecryptionFailed, map[string]string{"file": filepath.Base(path)}),
				"share file is encrypted; a passphrase is required")
		}
		pw, err := passphrase(path)
		if err != nil {
			return nil, err
		}
		plain, err := sharecrypto.DecryptSecure(data, pw)
		if err != nil {
			return nil, err
		}
		defer plain.Destroy()
		data = plain.Bytes()
	}

	var p Participant
	if _, err := Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// IsEncryptedFile reports whether the file at path is age-encrypted.
func IsEncryptedFile(path string) (bool, error) {
	data, err := read(path)
	if err != nil {
		return false, err
	}
	return sharecrypto.IsEncrypted(data), nil
}

func write(path string, data []byte, perm os.FileMode) error {
	if err := fileutil.WriteAtomic(path, data, perm); err != nil {
		return mserr.Wrap(err, "writing %s", filepath.Base(path))
	}
	return nil
}

func read(path string) ([]byte, error) {
	data, err := fileutil.ReadLimited(path, fileutil.MaxFileSize)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, mserr.WithDetails(mserr.ErrBundleNotFound, map[string]string{"path": path})
		}
		return nil, mserr.Wrap(err, "reading %s", filepath.Base(path))
	}
	return data, nil
}
