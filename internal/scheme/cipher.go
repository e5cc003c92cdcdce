package scheme

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"

	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// Supported AES key sizes for Herranz–Ruiz–Saez, in bytes.
const (
	KeySize128     = 16
	KeySize256     = 32
	DefaultKeySize = KeySize128
)

// EncryptCBC pads plaintext with PKCS#7 and encrypts it with AES-CBC under key,
// using a fresh IV drawn from r.
func EncryptCBC(r io.Reader, key, plaintext []byte) (Ciphertext, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("creating cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(r, iv); err != nil {
		return Ciphertext{}, fmt.Errorf("generating IV: %w", err)
	}

	data := pkcs7Pad(plaintext, aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(data, data)
	return Ciphertext{IV: iv, Data: data}, nil
}

// DecryptCBC reverses EncryptCBC.
func DecryptCBC(key []byte, ct Ciphertext) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	if len(ct.IV) != aes.BlockSize {
		return nil, mserr.WithDetails(mserr.ErrDecryptionFailed, map[string]string{"reason": "bad IV length"})
	}
	if len(ct.Data) == 0 || len(ct.Data)%aes.BlockSize != 0 {
		return nil, mserr.WithDetails(mserr.ErrDecryptionFailed, map[string]string{"reason": "ciphertext is not block aligned"})
	}

	out := make([]byte, len(ct.Data))
	cipher.NewCBCDecrypter(block, ct.IV).CryptBlocks(out, ct.Data)
	return pkcs7Unpad(out, aes.BlockSize)
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, mserr.WithDetails(mserr.ErrDecryptionFailed, map[string]string{"reason": "invalid padding"})
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, mserr.WithDetails(mserr.ErrDecryptionFailed, map[string]string{"reason": "invalid padding"})
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, mserr.WithDetails(mserr.ErrDecryptionFailed, map[string]string{"reason": "invalid padding"})
		}
	}
	return b[:len(b)-n], nil
}
