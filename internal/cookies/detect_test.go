package cookies

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	_ "modernc.org/sqlite"
)

func TestDetectFormat_SQLite(t *testing.T) {
	dir := t.TempDir()
	ffPath := filepath.Join(dir, "ff", "cookies.sqlite")
	createFirefoxFixture(t, ffPath, nil)
	chromePath := filepath.Join(dir, "chrome", "Cookies")
	createChromeFixture(t, chromePath, false, 0, nil)

	fs := afero.NewOsFs()
	for path, want := range map[string]CookieFormat{ffPath: FormatFirefox, chromePath: FormatChrome} {
		got, err := DetectFormat(context.Background(), fs, path)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", path, err)
		}
		if got != want {
			t.Errorf("%s: expected %s, got %s", path, want, got)
		}
	}
}

func TestDetectFormat_SQLiteUnknownSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "unknown.sqlite")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE some_other_table (id INTEGER PRIMARY KEY, data TEXT)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	db.Close()

	_, err = DetectFormat(context.Background(), afero.NewOsFs(), dbPath)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDetectFormat_TextAndBinary(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]struct {
		content string
		want    CookieFormat
	}{
		"/netscape.txt":   {"# Netscape HTTP Cookie File\n.example.com\tTRUE\t/\tFALSE\t0\ta\tb\n", FormatNetscape},
		"/alt.txt":        {"# HTTP Cookie File\r\n", FormatNetscape},
		"/headerless.txt": {"\n# exported\n.example.com\tTRUE\t/\tFALSE\t0\ta\tb\n", FormatNetscape},
		"/httponly.txt":   {"#HttpOnly_.example.com\tTRUE\t/\tFALSE\t0\ta\tb\n", FormatNetscape},
		"/safari":         {safariFixture, FormatSafari},
	}
	for path, f := range files {
		if err := afero.WriteFile(fs, path, []byte(f.content), 0644); err != nil {
			t.Fatal(err)
		}
		got, err := DetectFormat(context.Background(), fs, path)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", path, err)
			continue
		}
		if got != f.want {
			t.Errorf("%s: expected %s, got %s", path, f.want, got)
		}
	}
}

func TestDetectFormat_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/empty", nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/json", []byte(`[{"name":"a"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fs.MkdirAll("/dir", 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := DetectFormat(context.Background(), fs, "/missing"); !errors.Is(err, ErrDatabaseNotFound) {
		t.Errorf("missing: expected ErrDatabaseNotFound, got %v", err)
	}
	if _, err := DetectFormat(context.Background(), fs, "/json"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("json: expected ErrUnsupportedFormat, got %v", err)
	}
	for _, p := range []string{"/empty", "/dir"} {
		if _, err := DetectFormat(context.Background(), fs, p); err == nil {
			t.Errorf("%s: expected error", p)
		}
	}
}

func TestCookieFormatString(t *testing.T) {
	for f, want := range map[CookieFormat]string{
		FormatFirefox:  "firefox",
		FormatChrome:   "chromium",
		FormatNetscape: "netscape",
		FormatSafari:   "safari",
		FormatUnknown:  "unknown",
	} {
		if got := f.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", f, got, want)
		}
	}
}

func TestLooksLikeNetscape(t *testing.T) {
	if looksLikeNetscape([]byte("# just a comment\n\n")) {
		t.Error("comments alone are not a cookie file")
	}
	if looksLikeNetscape([]byte("a\tb\tc\n")) {
		t.Error("three fields are not a cookie entry")
	}
}
