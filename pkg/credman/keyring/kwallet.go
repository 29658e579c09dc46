package keyring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/warpdl/warpcookie/pkg/logger"
)

const defaultWallet = "kdewallet"

var (
	execLookPath = exec.LookPath
	runCommand   = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, name, args...).Output()
	}
	networkWalletCall = dbusNetworkWallet
)

// KWallet reads the password with kwallet-query from the wallet KDE uses for
// network passwords.
type KWallet struct {
	Keyring Keyring
	Log     logger.Logger
}

// GetPassword runs kwallet-query. A missing binary or a failing command is
// logged and reported as StatusFailed. kwallet-query answers "failed to read"
// for entries that exist with an empty value; that is an empty password.
func (k *KWallet) GetPassword(ctx context.Context, keyringName string) Password {
	log := k.log()
	log.Debug("using kwallet-query to obtain password from %s", k.Keyring)

	if _, err := execLookPath("kwallet-query"); err != nil {
		log.Error("kwallet-query command not found. KWallet and kwallet-query " +
			"must be installed to read from KWallet. kwallet-query should be " +
			"included in the kwallet package for your distribution")
		return Password{Status: StatusFailed}
	}

	wallet := k.networkWallet(ctx)
	out, err := runCommand(ctx, "kwallet-query",
		"--read-password", safeStorage(keyringName),
		"--folder", keyringName+" Keys",
		wallet,
	)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Error("kwallet-query failed with return code %d. Please consult the kwallet-query man page for details", exitErr.ExitCode())
		} else {
			log.Warning("exception running kwallet-query: %v", err)
		}
		return Password{Status: StatusFailed}
	}
	if bytes.HasPrefix(bytes.ToLower(out), []byte("failed to read")) {
		log.Debug("failed to read password from kwallet. Using empty string instead")
		return Password{Status: StatusFound, Value: []byte{}}
	}
	log.Debug("password found")
	return Password{Status: StatusFound, Value: bytes.TrimRight(out, "\n")}
}

func (k *KWallet) log() logger.Logger {
	if k.Log == nil {
		return logger.NewNopLogger()
	}
	return k.Log
}

// networkWallet asks kwalletd for the network wallet name, falling back to
// "kdewallet".
func (k *KWallet) networkWallet(ctx context.Context) string {
	log := k.log()
	service, path, err := kwalletService(k.Keyring)
	if err != nil {
		log.Warning("exception while obtaining NetworkWallet: %v", err)
		return defaultWallet
	}
	name, err := networkWalletCall(ctx, service, path)
	if err != nil {
		log.Warning("failed to read NetworkWallet: %v", err)
		return defaultWallet
	}
	name = strings.TrimSpace(name)
	log.Debug("NetworkWallet = %q", name)
	return name
}

func kwalletService(kr Keyring) (service, path string, err error) {
	switch kr {
	case KeyringKWallet:
		return "org.kde.kwalletd", "/modules/kwalletd", nil
	case KeyringKWallet5:
		return "org.kde.kwalletd5", "/modules/kwalletd5", nil
	case KeyringKWallet6:
		return "org.kde.kwalletd6", "/modules/kwalletd6", nil
	}
	return "", "", fmt.Errorf("%w: %s is not a KWallet keyring", ErrUnsupportedKeyring, kr)
}

func dbusNetworkWallet(ctx context.Context, service, path string) (string, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return "", err
	}
	defer conn.Close()

	var name string
	call := conn.Object(service, dbus.ObjectPath(path)).CallWithContext(ctx, "org.kde.KWallet.networkWallet", 0)
	if err := call.Store(&name); err != nil {
		return "", err
	}
	return name, nil
}
