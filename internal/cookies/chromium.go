package cookies

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/warpcookie/pkg/credman"
	"github.com/warpdl/warpcookie/pkg/credman/keyring"
	"github.com/warpdl/warpcookie/pkg/credman/types"
	"github.com/warpdl/warpcookie/pkg/logger"
)

// chromeEpochOffsetSeconds is the number of seconds between the Windows NT epoch
// (1601-01-01 00:00:00 UTC) and the Unix epoch (1970-01-01 00:00:00 UTC).
const chromeEpochOffsetSeconds int64 = 11_644_473_600

// chromeToUnix converts a Chrome timestamp (microseconds since 1601-01-01)
// to a Unix timestamp (seconds since 1970-01-01).
func chromeToUnix(chromeUSec int64) int64 {
	return (chromeUSec / 1_000_000) - chromeEpochOffsetSeconds
}

// Backends used by newChromiumDecryptor. Tests replace them.
var (
	linuxBackend = keyring.NewLinuxBackend
	macBackend   = func(log logger.Logger) keyring.Backend {
		return &keyring.Keychain{Log: log}
	}
	windowsKey = keyring.LocalStateKey
)

// newChromiumDecryptor builds the Decryptor for the host OS.
func newChromiumDecryptor(fs afero.Fs, settings chromiumSettings, opts *ExtractOptions, metaVersion int, log *logger.OnceLogger) Decryptor {
	switch hostOS {
	case "darwin":
		return NewMacDecryptor(settings.KeyringName, macBackend(log), metaVersion, log)
	case "windows":
		path := newest(fs, findFiles(fs, settings.BrowserDir, "Local State", opts.progress()))
		if path == "" {
			log.Error("could not find local state file")
			return NewWindowsDecryptor(keyring.Password{Status: keyring.StatusFailed}, metaVersion, log)
		}
		return NewWindowsDecryptor(windowsKey(path, log), metaVersion, log)
	default:
		return NewLinuxDecryptor(settings.KeyringName, linuxBackend(opts.Keyring, opts.env(), log), metaVersion, log)
	}
}

// extractChromium reads the newest Cookies database of a Chromium-based
// browser. Values that cannot be decrypted are counted and left out.
func extractChromium(ctx context.Context, browser string, opts *ExtractOptions) (*credman.Jar, error) {
	log := opts.logger()
	fs := opts.fs()
	log.Info("Extracting cookies from %s", browser)

	settings, err := getChromiumSettings(browser, opts.platform())
	if err != nil {
		return nil, err
	}

	searchRoot := settings.BrowserDir
	switch {
	case opts.Profile == "":
	case isPath(opts.Profile):
		searchRoot = opts.Profile
		if settings.SupportsProfiles {
			settings.BrowserDir = filepath.Dir(opts.Profile)
		} else {
			settings.BrowserDir = opts.Profile
		}
	case settings.SupportsProfiles:
		searchRoot = filepath.Join(settings.BrowserDir, opts.Profile)
	default:
		log.Error("%s does not support profiles", browser)
	}

	dbPath := newest(fs, findFiles(fs, searchRoot, "Cookies", opts.progress()))
	if dbPath == "" {
		return nil, fmt.Errorf("could not find %s cookies database in %q: %w", browser, searchRoot, ErrDatabaseNotFound)
	}
	log.Debug("Extracting cookies from: %q", dbPath)

	copied, cleanup, err := SafeCopy(fs, dbPath, log)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, err := openCookieDB(copied)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	metaVersion := chromiumMetaVersion(ctx, db, log)
	decryptor := newChromiumDecryptor(fs, settings, opts, metaVersion, log)

	jar, failed, unencrypted, err := readChromiumCookies(ctx, db, decryptor, opts.progress())
	if err != nil {
		return nil, err
	}

	failedMessage := ""
	if failed > 0 {
		failedMessage = fmt.Sprintf(" (%d could not be decrypted)", failed)
	}
	log.Info("Extracted %d cookies from %s%s", jar.Len(), browser, failedMessage)
	counts := decryptor.Counts()
	counts["unencrypted"] = unencrypted
	log.Debug("cookie version breakdown: %v", counts)
	return jar, nil
}

// chromiumMetaVersion reads meta.version, 0 when the table or key is absent.
func chromiumMetaVersion(ctx context.Context, db *sql.DB, log logger.Logger) int {
	var raw string
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'version'`).Scan(&raw)
	if err != nil {
		log.Debug("failed to read meta version: %v", err)
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Debug("invalid meta version %q", raw)
		return 0
	}
	return v
}

// readChromiumCookies scans the cookies table. Older databases name the
// secure flag "secure" instead of "is_secure".
func readChromiumCookies(ctx context.Context, db *sql.DB, decryptor Decryptor, progress Progress) (jar *credman.Jar, failed, unencrypted int, err error) {
	cols, err := tableColumns(ctx, db, "cookies")
	if err != nil {
		return nil, 0, 0, err
	}
	secureColumn := "secure"
	if cols["is_secure"] {
		secureColumn = "is_secure"
	}

	total := countRows(ctx, db, `SELECT COUNT(*) FROM cookies`)
	rows, err := db.QueryContext(ctx,
		`SELECT host_key, name, value, encrypted_value, path, expires_utc, `+secureColumn+` FROM cookies`)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to query Chrome cookies: %w", err)
	}
	defer rows.Close()

	tracker := progress.Start("Loading cookie", total)
	defer tracker.Done()

	jar = credman.NewJar("")
	for rows.Next() {
		var (
			hostKey, name, value, path string
			encryptedValue             []byte
			expiresUTC                 int64
			isSecure                   int
		)
		if err := rows.Scan(&hostKey, &name, &value, &encryptedValue, &path, &expiresUTC, &isSecure); err != nil {
			return nil, 0, 0, fmt.Errorf("failed to scan Chrome cookie row: %w", err)
		}
		tracker.Increment()

		if value == "" && len(encryptedValue) > 0 {
			plain, ok := decryptor.Decrypt(encryptedValue)
			if !ok {
				failed++
				continue
			}
			value = plain
		} else {
			unencrypted++
		}

		var expires time.Time
		if expiresUTC != 0 {
			expires = time.Unix(chromeToUnix(expiresUTC), 0)
		}
		jar.Set(types.New(hostKey, path, name, value, isSecure != 0, expires))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to iterate Chrome cookie rows: %w", err)
	}
	return jar, failed, unencrypted, nil
}
