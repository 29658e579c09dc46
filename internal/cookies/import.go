package cookies

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/warpdl/warpcookie/pkg/credman"
)

// ImportCookies reads a cookie store given by path, whatever browser wrote
// it. It detects the format, copies SQLite files safely and decrypts
// Chromium values with the keyring entry of Chrome.
func ImportCookies(ctx context.Context, sourcePath string, opts ExtractOptions) (*credman.Jar, *CookieSource, error) {
	opts.Logger = opts.logger()
	fs := opts.fs()
	format, err := DetectFormat(ctx, fs, sourcePath)
	if err != nil {
		return nil, nil, err
	}

	source := &CookieSource{
		Path:   sourcePath,
		Format: format,
	}

	var jar *credman.Jar
	switch format {
	case FormatFirefox:
		source.Browser = BrowserFirefox
		jar, err = importSQLite(fs, sourcePath, &opts, func(db *sql.DB) (*credman.Jar, error) {
			return readFirefoxCookies(ctx, db, "", nil, opts.progress())
		})
	case FormatChrome:
		source.Browser = BrowserChrome
		jar, err = importChromium(ctx, fs, sourcePath, &opts)
	case FormatSafari:
		source.Browser = BrowserSafari
		var data []byte
		if data, err = afero.ReadFile(fs, sourcePath); err == nil {
			jar, err = ParseSafariCookies(data, nil, opts.Logger, opts.progress())
		}
	case FormatNetscape:
		source.Browser = "netscape"
		jar = credman.NewJar(sourcePath)
		jar.Log = opts.Logger
		var f afero.File
		if f, err = fs.Open(sourcePath); err == nil {
			err = jar.Read(f)
			f.Close()
		}
	default:
		return nil, nil, fmt.Errorf("unsupported cookie database schema at %s: %w", sourcePath, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, nil, err
	}
	opts.Logger.Info("Imported %d cookies from %s (%s)", jar.Len(), sourcePath, format)
	return jar, source, nil
}

// importSQLite copies a SQLite cookie file safely and reads it with read.
func importSQLite(fs afero.Fs, sourcePath string, opts *ExtractOptions, read func(*sql.DB) (*credman.Jar, error)) (*credman.Jar, error) {
	copied, cleanup, err := SafeCopy(fs, sourcePath, opts.Logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, err := openCookieDB(copied)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return read(db)
}

// importChromium decrypts with Chrome's keyring name. On Windows Local State
// is searched for below the directory three levels up from the database,
// the user data directory of a <profile>/Network/Cookies layout.
func importChromium(ctx context.Context, fs afero.Fs, sourcePath string, opts *ExtractOptions) (*credman.Jar, error) {
	settings, err := getChromiumSettings(BrowserChrome, opts.platform())
	if err != nil {
		return nil, err
	}
	settings.BrowserDir = filepath.Dir(filepath.Dir(filepath.Dir(sourcePath)))
	log := opts.logger()
	return importSQLite(fs, sourcePath, opts, func(db *sql.DB) (*credman.Jar, error) {
		decryptor := newChromiumDecryptor(fs, settings, opts, chromiumMetaVersion(ctx, db, log), log)
		jar, failed, _, err := readChromiumCookies(ctx, db, decryptor, opts.progress())
		if failed > 0 {
			log.Warning("%d cookies could not be decrypted", failed)
		}
		return jar, err
	})
}
