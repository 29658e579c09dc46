package cookies

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/warpdl/warpcookie/pkg/credman/encryption"
	"github.com/warpdl/warpcookie/pkg/credman/keyring"
	"github.com/warpdl/warpcookie/pkg/logger"
)

// hashPrefixMetaVersion is the Chromium cookie database version from which
// every plaintext starts with a 32-byte SHA-256 of the host key.
const hashPrefixMetaVersion = 24

const hashPrefixLen = 32

// Decryptor turns a Chromium encrypted_value into its plaintext. A false
// result means the value could not be decrypted; the reason has been logged.
type Decryptor interface {
	Decrypt(encrypted []byte) (string, bool)
	// Counts returns the number of values seen per version tag.
	Counts() map[string]int
}

type decryptCounts struct {
	mu     sync.Mutex
	counts map[string]int
}

func zeroCounts(tags ...string) map[string]int {
	m := make(map[string]int, len(tags))
	for _, t := range tags {
		m[t] = 0
	}
	return m
}

func (c *decryptCounts) inc(tag string) {
	c.mu.Lock()
	c.counts[tag]++
	c.mu.Unlock()
}

func (c *decryptCounts) Counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// LinuxDecryptor handles v10 cookies (fixed "peanuts" key) and v11 cookies
// (keyring password). Both fall back to the empty-password key. The keyring
// is only queried once the first v11 value shows up.
type LinuxDecryptor struct {
	decryptCounts

	log         *logger.OnceLogger
	backend     keyring.Backend
	keyringName string
	metaVersion int

	v10Key   []byte
	emptyKey []byte

	v11Once sync.Once
	v11Key  []byte
}

// NewLinuxDecryptor returns a decryptor that asks backend for the v11
// password stored under keyringName.
func NewLinuxDecryptor(keyringName string, backend keyring.Backend, metaVersion int, log logger.Logger) *LinuxDecryptor {
	return &LinuxDecryptor{
		decryptCounts: decryptCounts{counts: zeroCounts("v10", "v11", "other")},
		log:           logger.NewOnceLogger(log),
		backend:       backend,
		keyringName:   keyringName,
		metaVersion:   metaVersion,
		v10Key:        deriveLinuxKey([]byte("peanuts")),
		emptyKey:      deriveLinuxKey(nil),
	}
}

func deriveLinuxKey(password []byte) []byte {
	return encryption.DeriveKey(password, []byte(encryption.Salt), encryption.LinuxIterations, encryption.KeyLength)
}

func (d *LinuxDecryptor) v11() []byte {
	d.v11Once.Do(func() {
		pw := d.backend.GetPassword(context.Background(), d.keyringName)
		switch pw.Status {
		case keyring.StatusFound:
			d.v11Key = deriveLinuxKey(pw.Value)
		case keyring.StatusFailed:
			// the failure was logged by the backend; Chromium then encrypts with an empty password
			d.v11Key = d.emptyKey
		}
	})
	return d.v11Key
}

// Decrypt implements Decryptor.
func (d *LinuxDecryptor) Decrypt(encrypted []byte) (string, bool) {
	if len(encrypted) < 3 {
		d.inc("other")
		d.log.WarningOnce("unknown cookie version: %q", encrypted)
		return "", false
	}
	version, ciphertext := string(encrypted[:3]), encrypted[3:]
	switch version {
	case "v10":
		d.inc("v10")
		return decryptCBCMulti(ciphertext, [][]byte{d.v10Key, d.emptyKey}, d.metaVersion, d.log)
	case "v11":
		d.inc("v11")
		key := d.v11()
		if key == nil {
			d.log.WarningOnce("cannot decrypt v11 cookies: no key found")
			return "", false
		}
		return decryptCBCMulti(ciphertext, [][]byte{key, d.emptyKey}, d.metaVersion, d.log)
	default:
		d.inc("other")
		d.log.WarningOnce("unknown cookie version: %q", version)
		return "", false
	}
}

// MacDecryptor handles v10 cookies encrypted with the Keychain password.
// Values without the v10 tag predate encryption and are returned as is.
type MacDecryptor struct {
	decryptCounts

	log         *logger.OnceLogger
	v10Key      []byte
	metaVersion int
}

// NewMacDecryptor looks the password up immediately.
func NewMacDecryptor(keyringName string, backend keyring.Backend, metaVersion int, log logger.Logger) *MacDecryptor {
	d := &MacDecryptor{
		decryptCounts: decryptCounts{counts: zeroCounts("v10", "other")},
		log:           logger.NewOnceLogger(log),
		metaVersion:   metaVersion,
	}
	if pw := backend.GetPassword(context.Background(), keyringName); pw.Found() {
		d.v10Key = encryption.DeriveKey(pw.Value, []byte(encryption.Salt), encryption.MacIterations, encryption.KeyLength)
	}
	return d
}

// Decrypt implements Decryptor.
func (d *MacDecryptor) Decrypt(encrypted []byte) (string, bool) {
	if !bytes.HasPrefix(encrypted, []byte("v10")) {
		d.inc("other")
		return string(encrypted), true
	}
	d.inc("v10")
	if d.v10Key == nil {
		d.log.WarningOnce("cannot decrypt v10 cookies: no key found")
		return "", false
	}
	return decryptCBCMulti(encrypted[3:], [][]byte{d.v10Key}, d.metaVersion, d.log)
}

// WindowsDecryptor handles v10 cookies sealed with AES-GCM under the
// DPAPI-protected Local State key. Untagged values are raw DPAPI blobs.
type WindowsDecryptor struct {
	decryptCounts

	log         *logger.OnceLogger
	v10Key      []byte
	metaVersion int
	unprotect   func([]byte) ([]byte, error)
}

// NewWindowsDecryptor uses key, the unwrapped Local State key, for v10
// values. A StatusFailed key leaves v10 values undecryptable.
func NewWindowsDecryptor(key keyring.Password, metaVersion int, log logger.Logger) *WindowsDecryptor {
	d := &WindowsDecryptor{
		decryptCounts: decryptCounts{counts: zeroCounts("v10", "other")},
		log:           logger.NewOnceLogger(log),
		metaVersion:   metaVersion,
		unprotect:     keyring.Unprotect,
	}
	if key.Found() {
		d.v10Key = key.Value
	}
	return d
}

// Decrypt implements Decryptor.
func (d *WindowsDecryptor) Decrypt(encrypted []byte) (string, bool) {
	if !bytes.HasPrefix(encrypted, []byte("v10")) {
		d.inc("other")
		plain, err := d.unprotect(encrypted)
		if err != nil {
			d.log.WarningOnce("failed to decrypt with DPAPI")
			return "", false
		}
		return decodePlaintext(plain, 0, "DPAPI", d.log)
	}
	d.inc("v10")
	if d.v10Key == nil {
		d.log.WarningOnce("cannot decrypt v10 cookies: no key found")
		return "", false
	}

	// nonce(12) || ciphertext || tag(16)
	raw := encrypted[3:]
	if len(raw) < encryption.GCMNonceSize+encryption.GCMTagSize {
		d.log.WarningOnce("failed to decrypt cookie (AES-GCM) because the value is truncated")
		return "", false
	}
	nonce := raw[:encryption.GCMNonceSize]
	body := raw[encryption.GCMNonceSize : len(raw)-encryption.GCMTagSize]
	tag := raw[len(raw)-encryption.GCMTagSize:]

	plain, err := encryption.DecryptAESGCM(body, d.v10Key, nonce, tag)
	if err != nil {
		if errors.Is(err, encryption.ErrTagMismatch) {
			d.log.WarningOnce("failed to decrypt cookie (AES-GCM) because the MAC check failed. Possibly the key is wrong?")
		} else {
			d.log.WarningOnce("failed to decrypt cookie (AES-GCM): %v", err)
		}
		return "", false
	}
	return decodePlaintext(plain, d.metaVersion, "AES-GCM", d.log)
}

// decryptCBCMulti tries each key in turn and returns the first plaintext
// that unpads and decodes as UTF-8.
func decryptCBCMulti(ciphertext []byte, keys [][]byte, metaVersion int, log *logger.OnceLogger) (string, bool) {
	for _, key := range keys {
		plain, err := encryption.DecryptAESCBC(ciphertext, key, nil)
		if err != nil {
			continue
		}
		if s, ok := stripAndDecode(plain, metaVersion); ok {
			return s, true
		}
	}
	log.WarningOnce("failed to decrypt cookie (AES-CBC) because UTF-8 decoding failed. Possibly the key is wrong?")
	return "", false
}

func decodePlaintext(plain []byte, metaVersion int, scheme string, log *logger.OnceLogger) (string, bool) {
	s, ok := stripAndDecode(plain, metaVersion)
	if !ok {
		log.WarningOnce("failed to decrypt cookie (%s) because UTF-8 decoding failed. Possibly the key is wrong?", scheme)
	}
	return s, ok
}

func stripAndDecode(plain []byte, metaVersion int) (string, bool) {
	if metaVersion >= hashPrefixMetaVersion {
		if len(plain) < hashPrefixLen {
			return "", true
		}
		plain = plain[hashPrefixLen:]
	}
	s, err := encryption.DecodeText(plain)
	if err != nil {
		return "", false
	}
	return s, true
}
