package keyring

import (
	"context"

	"github.com/warpdl/warpcookie/pkg/logger"
)

// NewLinuxBackend returns the backend for kr. KeyringAuto detects the desktop
// environment from env first.
func NewLinuxBackend(kr Keyring, env map[string]string, log logger.Logger) Backend {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if kr == KeyringAuto {
		de := DetectDesktopEnvironment(env, log)
		log.Debug("detected desktop environment: %s", de)
		kr = ChooseKeyring(de)
	}
	log.Debug("chosen keyring: %s", kr)

	switch kr {
	case KeyringKWallet, KeyringKWallet5, KeyringKWallet6:
		return &KWallet{Keyring: kr, Log: log}
	case KeyringGnome:
		return &SecretService{Log: log}
	default:
		return BasicText{}
	}
}

// BasicText is the backend of browsers running with --password-store=basic.
// Every cookie is stored as v10, so there is never a keyring password.
type BasicText struct{}

// GetPassword always reports StatusNoKeyring.
func (BasicText) GetPassword(context.Context, string) Password {
	return Password{Status: StatusNoKeyring}
}
