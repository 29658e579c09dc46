package cookies

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/warpdl/warpcookie/pkg/logger"
)

// sqliteMagic is the first 16 bytes of any SQLite database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// sniffLen is how much of a file DetectFormat reads to recognise text formats.
const sniffLen = 4096

// DetectFormat determines the cookie store format of the file at path.
// SQLite databases are told apart by their cookie table, so fs must be the
// OS filesystem for them to be opened.
func DetectFormat(ctx context.Context, fs afero.Fs, path string) (CookieFormat, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("cookie file not found: %s: %w", path, ErrDatabaseNotFound)
	}
	if info.IsDir() {
		return FormatUnknown, fmt.Errorf("%s is a directory, expected a cookie file", path)
	}
	if info.Size() == 0 {
		return FormatUnknown, fmt.Errorf("cookie file at %s is empty or corrupted", path)
	}

	f, err := fs.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("cannot open cookie file: %w", err)
	}
	defer f.Close()

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return FormatUnknown, fmt.Errorf("cannot read cookie file: %w", err)
	}
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, sqliteMagic):
		return detectSQLiteFormat(ctx, fs, path)
	case bytes.HasPrefix(header, safariMagic):
		return FormatSafari, nil
	case looksLikeNetscape(header):
		return FormatNetscape, nil
	}
	return FormatUnknown, fmt.Errorf("unsupported cookie database schema at %s: %w", path, ErrUnsupportedFormat)
}

// looksLikeNetscape accepts the usual header comments or a first entry with
// the seven tab-separated fields.
func looksLikeNetscape(head []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(head))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == "# Netscape HTTP Cookie File", line == "# HTTP Cookie File":
			return true
		case strings.HasPrefix(line, "#HttpOnly_"):
			return len(strings.Split(line, "\t")) == 7
		case line == "", strings.HasPrefix(line, "#"):
			continue
		}
		return len(strings.Split(line, "\t")) == 7
	}
	return false
}

// detectSQLiteFormat copies the database and checks which cookie table exists.
func detectSQLiteFormat(ctx context.Context, fs afero.Fs, path string) (CookieFormat, error) {
	copied, cleanup, err := SafeCopy(fs, path, logger.NewNopLogger())
	if err != nil {
		return FormatUnknown, err
	}
	defer cleanup()

	db, err := openCookieDB(copied)
	if err != nil {
		return FormatUnknown, err
	}
	defer db.Close()

	var tableName string
	err = db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name='moz_cookies'`).Scan(&tableName)
	if err == nil {
		return FormatFirefox, nil
	}

	err = db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name='cookies'`).Scan(&tableName)
	if err == nil {
		return FormatChrome, nil
	}

	return FormatUnknown, fmt.Errorf("unsupported cookie database schema at %s: %w", path, ErrUnsupportedFormat)
}
