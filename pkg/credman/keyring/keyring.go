// Package keyring retrieves the password a Chromium-based browser uses to
// protect its cookie encryption key. On Linux the backend is picked from the
// desktop environment (KWallet, Secret Service or none), macOS reads the login
// Keychain and Windows unwraps the Local State master key with DPAPI.
package keyring

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnsupportedKeyring is returned by ParseKeyring for unknown names.
var ErrUnsupportedKeyring = errors.New("unsupported keyring")

// Keyring names a Linux secret store.
type Keyring int

const (
	// KeyringAuto selects the keyring from the desktop environment.
	KeyringAuto Keyring = iota
	KeyringKWallet
	KeyringKWallet5
	KeyringKWallet6
	KeyringGnome
	KeyringBasicText
)

var keyringNames = map[Keyring]string{
	KeyringAuto:      "",
	KeyringKWallet:   "KWALLET",
	KeyringKWallet5:  "KWALLET5",
	KeyringKWallet6:  "KWALLET6",
	KeyringGnome:     "GNOMEKEYRING",
	KeyringBasicText: "BASICTEXT",
}

func (k Keyring) String() string {
	if name, ok := keyringNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Keyring(%d)", int(k))
}

// SupportedKeyrings lists the names accepted by ParseKeyring.
func SupportedKeyrings() []string {
	return []string{"KWALLET", "KWALLET5", "KWALLET6", "GNOMEKEYRING", "BASICTEXT"}
}

// ParseKeyring maps a user supplied name to a Keyring. Matching is case
// insensitive and ignores underscores, so GNOME_KEYRING and BASIC_TEXT are
// accepted. An empty name yields KeyringAuto.
func ParseKeyring(name string) (Keyring, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	if norm == "" {
		return KeyringAuto, nil
	}
	for k, n := range keyringNames {
		if n != "" && n == norm {
			return k, nil
		}
	}
	return KeyringAuto, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedKeyring, name, strings.Join(SupportedKeyrings(), ", "))
}

// ChooseKeyring maps a desktop environment to the keyring Chromium would use.
func ChooseKeyring(de DesktopEnvironment) Keyring {
	switch de {
	case DesktopKDE4:
		return KeyringKWallet
	case DesktopKDE5:
		return KeyringKWallet5
	case DesktopKDE6:
		return KeyringKWallet6
	case DesktopKDE3, DesktopLXQt, DesktopOther:
		return KeyringBasicText
	default:
		return KeyringGnome
	}
}

// Status describes the outcome of a password lookup.
type Status int

const (
	// StatusFound means Value holds the password. It may be empty.
	StatusFound Status = iota
	// StatusNoKeyring means the browser stores no keyring password at all,
	// so only the fixed v10 key can apply.
	StatusNoKeyring
	// StatusFailed means the lookup was attempted and failed. The failure has
	// already been logged.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNoKeyring:
		return "no keyring"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Password is the result of a Backend lookup. Value is SENSITIVE.
type Password struct {
	Status Status
	Value  []byte
}

// Found reports whether Value is usable.
func (p Password) Found() bool {
	return p.Status == StatusFound
}

// Backend looks up the "<name> Safe Storage" password of a browser.
// Implementations never fail hard: errors are logged and reported through
// Password.Status.
type Backend interface {
	GetPassword(ctx context.Context, keyringName string) Password
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, keyringName string) Password

// GetPassword calls f.
func (f BackendFunc) GetPassword(ctx context.Context, keyringName string) Password {
	return f(ctx, keyringName)
}

// Environ returns the process environment as a map for DetectDesktopEnvironment.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func safeStorage(keyringName string) string {
	return keyringName + " Safe Storage"
}
