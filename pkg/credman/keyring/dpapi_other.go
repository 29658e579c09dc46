//go:build !windows

package keyring

import "errors"

var errNoDPAPI = errors.New("DPAPI is only available on windows")

var unprotectData = func([]byte) ([]byte, error) {
	return nil, errNoDPAPI
}
