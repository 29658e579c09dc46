package keyring

import (
	"context"
	"errors"

	"github.com/godbus/dbus/v5"
	"github.com/warpdl/warpcookie/pkg/logger"
)

const (
	secretsDest       = "org.freedesktop.secrets"
	secretsPath       = dbus.ObjectPath("/org/freedesktop/secrets")
	defaultCollection = dbus.ObjectPath("/org/freedesktop/secrets/aliases/default")

	secretServiceIface = "org.freedesktop.Secret.Service"
	secretItemIface    = "org.freedesktop.Secret.Item"
	secretCollIface    = "org.freedesktop.Secret.Collection"
	secretSessionIface = "org.freedesktop.Secret.Session"
)

var errSecretNotFound = errors.New("secret not found")

// secret mirrors the Secret Service (oayays) struct.
type secret struct {
	Session     dbus.ObjectPath
	Parameters  []byte
	Value       []byte
	ContentType string
}

var secretLookup = dbusSecretLookup

// SecretService reads the password from the default collection of the
// freedesktop Secret Service (GNOME Keyring, KeePassXC and friends).
type SecretService struct {
	Log logger.Logger
}

// GetPassword scans the default collection for the item labelled
// "<name> Safe Storage". Chromium does not store lookup attributes, so the
// label is the only way to find it.
func (s *SecretService) GetPassword(ctx context.Context, keyringName string) Password {
	log := s.Log
	if log == nil {
		log = logger.NewNopLogger()
	}
	value, err := secretLookup(ctx, safeStorage(keyringName))
	if err != nil {
		if errors.Is(err, errSecretNotFound) {
			log.Error("failed to read from keyring")
		} else {
			log.Error("secret service not available: %v", err)
		}
		return Password{Status: StatusFailed}
	}
	return Password{Status: StatusFound, Value: value}
}

func dbusSecretLookup(ctx context.Context, label string) ([]byte, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var (
		output  dbus.Variant
		session dbus.ObjectPath
	)
	err = conn.Object(secretsDest, secretsPath).
		CallWithContext(ctx, secretServiceIface+".OpenSession", 0, "plain", dbus.MakeVariant("")).
		Store(&output, &session)
	if err != nil {
		return nil, err
	}
	defer conn.Object(secretsDest, session).CallWithContext(ctx, secretSessionIface+".Close", 0)

	prop, err := conn.Object(secretsDest, defaultCollection).GetProperty(secretCollIface + ".Items")
	if err != nil {
		return nil, err
	}
	items, ok := prop.Value().([]dbus.ObjectPath)
	if !ok {
		return nil, errors.New("unexpected Items property type")
	}

	for _, item := range items {
		obj := conn.Object(secretsDest, item)
		labelProp, err := obj.GetProperty(secretItemIface + ".Label")
		if err != nil {
			continue
		}
		if l, _ := labelProp.Value().(string); l != label {
			continue
		}
		var sec secret
		if err := obj.CallWithContext(ctx, secretItemIface+".GetSecret", 0, session).Store(&sec); err != nil {
			return nil, err
		}
		return sec.Value, nil
	}
	return nil, errSecretNotFound
}
