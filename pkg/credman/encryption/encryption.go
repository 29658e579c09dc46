// Package encryption implements the symmetric primitives Chromium uses to
// protect cookie values at rest: PBKDF2-HMAC-SHA1 key derivation, AES-CBC
// with a fixed IV and PKCS#7 padding, and AES-GCM with an explicit tag.
//
// Functions in this package never log; they return plain errors and leave the
// fatal-or-degraded decision to the caller.
package encryption

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Salt is the PBKDF2 salt Chromium uses for every os_crypt key.
	Salt = "saltysalt"
	// LinuxIterations is the PBKDF2 iteration count on Linux.
	LinuxIterations = 1
	// MacIterations is the PBKDF2 iteration count on macOS.
	MacIterations = 1003
	// KeyLength is the AES-128 key size used for v10/v11 CBC cookies.
	KeyLength = 16

	// GCMNonceSize is the nonce length prepended to Windows v10 values.
	GCMNonceSize = 96 / 8
	// GCMTagSize is the authentication tag length appended to Windows v10 values.
	GCMTagSize = 16
)

// ChromiumIV is the constant CBC initialization vector: sixteen ASCII spaces.
var ChromiumIV = bytes.Repeat([]byte{' '}, aes.BlockSize)

var (
	// ErrTagMismatch is returned when AES-GCM authentication fails.
	ErrTagMismatch = errors.New("MAC check failed")
	// ErrInvalidPadding is returned when PKCS#7 padding is malformed.
	ErrInvalidPadding = errors.New("invalid PKCS#7 padding")
	// ErrInvalidCiphertext is returned when the input is not a whole number of blocks.
	ErrInvalidCiphertext = errors.New("ciphertext is not a multiple of the block size")
	// ErrInvalidUTF8 is returned by DecodeText when the plaintext is not UTF-8.
	ErrInvalidUTF8 = errors.New("plaintext is not valid UTF-8")
)

// DeriveKey runs PBKDF2 with HMAC-SHA1 and returns exactly keyLength bytes.
func DeriveKey(password, salt []byte, iterations, keyLength int) []byte {
	return pbkdf2.Key(password, salt, iterations, keyLength, sha1.New)
}

// DecryptAESCBC decrypts ciphertext with AES-CBC and strips PKCS#7 padding.
// A nil iv selects ChromiumIV.
func DecryptAESCBC(ciphertext, key, iv []byte) ([]byte, error) {
	if iv == nil {
		iv = ChromiumIV
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrInvalidCiphertext
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("invalid IV length %d", len(iv))
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return UnpadPKCS7(out)
}

// UnpadPKCS7 removes PKCS#7 padding from a decrypted buffer.
func UnpadPKCS7(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrInvalidPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, ErrInvalidPadding
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, ErrInvalidPadding
		}
	}
	return b[:len(b)-n], nil
}

// DecryptAESGCM decrypts ciphertext with AES-GCM and verifies tag.
// Authentication failures are reported as ErrTagMismatch.
func DecryptAESGCM(ciphertext, key, nonce, tag []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, len(nonce))
	if err != nil {
		return nil, err
	}
	if len(tag) != aead.Overhead() {
		return nil, fmt.Errorf("%w: tag length %d", ErrTagMismatch, len(tag))
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrTagMismatch
	}
	return plain, nil
}

// DecodeText converts plaintext to a string, failing with ErrInvalidUTF8.
func DecodeText(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}
