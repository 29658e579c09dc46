package keyring

import (
	"bytes"
	"encoding/base64"
	"os"

	"github.com/tidwall/gjson"
	"github.com/warpdl/warpcookie/pkg/logger"
)

var dpapiKeyPrefix = []byte("DPAPI")

var readFile = os.ReadFile

// LocalStateKey reads os_crypt.encrypted_key from a Chromium "Local State"
// file and unwraps it with DPAPI. The result is the AES-256 key used for v10
// cookies on Windows. Every failure is logged and reported as StatusFailed.
func LocalStateKey(path string, log logger.Logger) Password {
	if log == nil {
		log = logger.NewNopLogger()
	}
	data, err := readFile(path)
	if err != nil {
		log.Error("could not read local state file: %v", err)
		return Password{Status: StatusFailed}
	}
	encoded := gjson.GetBytes(data, "os_crypt.encrypted_key")
	if !encoded.Exists() || encoded.String() == "" {
		log.Error("no encrypted key in Local State")
		return Password{Status: StatusFailed}
	}
	wrapped, err := base64.StdEncoding.DecodeString(encoded.String())
	if err != nil {
		log.Error("invalid key: %v", err)
		return Password{Status: StatusFailed}
	}
	if !bytes.HasPrefix(wrapped, dpapiKeyPrefix) {
		log.Error("invalid key")
		return Password{Status: StatusFailed}
	}
	key, err := Unprotect(wrapped[len(dpapiKeyPrefix):])
	if err != nil {
		log.Error("failed to decrypt with DPAPI: %v", err)
		return Password{Status: StatusFailed}
	}
	return Password{Status: StatusFound, Value: key}
}

// Unprotect unwraps a DPAPI blob for the current user.
func Unprotect(data []byte) ([]byte, error) {
	return unprotectData(data)
}
