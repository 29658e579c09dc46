package keyring

import (
	"context"
	"strings"

	"github.com/warpdl/warpcookie/pkg/logger"
	"github.com/zalando/go-keyring"
)

var keyringGet = keyring.Get

// Keychain reads the password from the macOS login keychain. go-keyring
// shells out to `security find-generic-password` with the service
// "<name> Safe Storage" and the account "<name>".
type Keychain struct {
	Log logger.Logger
}

// GetPassword queries the keychain. Any failure is logged as a warning and
// reported as StatusFailed.
func (k *Keychain) GetPassword(_ context.Context, keyringName string) Password {
	log := k.Log
	if log == nil {
		log = logger.NewNopLogger()
	}
	log.Debug("using find-generic-password to obtain password from OSX keychain")
	pw, err := keyringGet(safeStorage(keyringName), keyringName)
	if err != nil {
		log.Warning("find-generic-password failed: %v", err)
		return Password{Status: StatusFailed}
	}
	return Password{Status: StatusFound, Value: []byte(strings.TrimRight(pw, "\n"))}
}
