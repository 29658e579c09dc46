package cookies

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/warpcookie/pkg/logger"
	_ "modernc.org/sqlite"
)

func TestImportCookies_Firefox(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cookies.sqlite")
	futureExpiry := time.Now().Add(24 * time.Hour).Unix()
	createFirefoxFixture(t, dbPath, []firefoxRow{
		{"sid", "abc123", ".example.com", "/", futureExpiry, 1, ""},
		{"lang", "en", ".example.com", "/settings", futureExpiry, 0, "^userContextId=1"},
	})

	log := logger.NewMockLogger()
	jar, source, err := ImportCookies(context.Background(), dbPath, ExtractOptions{Logger: log})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jar.Len() != 2 {
		t.Fatalf("expected 2 cookies, got %d", jar.Len())
	}
	if source.Format != FormatFirefox || source.Browser != BrowserFirefox || source.Path != dbPath {
		t.Errorf("unexpected source %+v", source)
	}
	if want := fmt.Sprintf("Imported 2 cookies from %s (firefox)", dbPath); log.InfoCalls[len(log.InfoCalls)-1] != want {
		t.Errorf("info = %v", log.InfoCalls)
	}
}

func TestImportCookies_Netscape(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "cookies.txt")
	futureExpiry := time.Now().Add(24 * time.Hour).Unix()
	content := fmt.Sprintf("# Netscape HTTP Cookie File\n.example.com\tTRUE\t/\tTRUE\t%d\tsid\tabc123\n", futureExpiry)
	if err := os.WriteFile(fpath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	jar, source, err := ImportCookies(context.Background(), fpath, ExtractOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jar.Len() != 1 || jar.Filename != fpath {
		t.Fatalf("expected 1 cookie from %s, got %d from %s", fpath, jar.Len(), jar.Filename)
	}
	if source.Format != FormatNetscape {
		t.Errorf("expected FormatNetscape, got %s", source.Format)
	}
}

func TestImportCookies_Safari(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/Cookies.binarycookies", []byte(safariFixture), 0644); err != nil {
		t.Fatal(err)
	}
	jar, source, err := ImportCookies(context.Background(), "/Cookies.binarycookies", ExtractOptions{Fs: fs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jar.Len() != 1 || source.Browser != BrowserSafari {
		t.Errorf("got %d cookies from %+v", jar.Len(), source)
	}
}

func TestImportCookies_Chrome(t *testing.T) {
	withHostOS(t, "linux")
	dbPath := filepath.Join(t.TempDir(), "Default", "Network", "Cookies")
	createChromeFixture(t, dbPath, false, 0, []chromeRow{
		{"example.com", "plain", "v", nil, "/", 0, 0},
		{"example.com", "currency", "", []byte(linuxV10USD), "/", 0, 0},
		{"example.com", "broken", "", []byte("v10" + "0123456789abcde"), "/", 0, 0},
	})

	log := logger.NewMockLogger()
	jar, source, err := ImportCookies(context.Background(), dbPath, ExtractOptions{Logger: log, Env: map[string]string{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.Format != FormatChrome || source.Browser != BrowserChrome {
		t.Errorf("unexpected source %+v", source)
	}
	if jar.Len() != 2 {
		t.Fatalf("expected 2 cookies, got %d", jar.Len())
	}
	if c, _ := jar.Get("example.com", "/", "currency"); c.Value != "USD" {
		t.Errorf("currency = %q", c.Value)
	}
	found := false
	for _, w := range log.WarningCalls {
		if w == "1 cookies could not be decrypted" {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v", log.WarningCalls)
	}
}

func TestImportCookies_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := ImportCookies(context.Background(), filepath.Join(dir, "missing"), ExtractOptions{}); err == nil {
		t.Error("expected error for missing file")
	}
	empty := filepath.Join(dir, "empty.sqlite")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ImportCookies(context.Background(), empty, ExtractOptions{}); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestImportCookies_LargeFirefoxDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large DB test in short mode")
	}
	dbPath := filepath.Join(t.TempDir(), "cookies.sqlite")
	createFirefoxFixture(t, dbPath, nil)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	futureExpiry := time.Now().Add(24 * time.Hour).Unix()
	tx, err := db.Begin()
	if err != nil {
		db.Close()
		t.Fatalf("begin tx: %v", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO moz_cookies (name, value, host, path, expiry, isSecure) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		db.Close()
		t.Fatalf("prepare: %v", err)
	}
	for i := 0; i < 10000; i++ {
		if _, err = stmt.Exec(fmt.Sprintf("cookie%d", i), fmt.Sprintf("val%d", i), ".example.com", "/", futureExpiry, 0); err != nil {
			stmt.Close()
			tx.Rollback()
			db.Close()
			t.Fatalf("insert row %d: %v", i, err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		db.Close()
		t.Fatalf("commit: %v", err)
	}
	db.Close()

	p := &recordingProgress{}
	start := time.Now()
	jar, _, err := ImportCookies(context.Background(), dbPath, ExtractOptions{Progress: p})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("ImportCookies: %v", err)
	}
	if jar.Len() != 10000 {
		t.Errorf("expected 10000 cookies, got %d", jar.Len())
	}
	if p.increments != 10000 || len(p.starts) != 1 || p.starts[0] != "Loading cookie/10000" {
		t.Errorf("progress: starts %v increments %d", p.starts, p.increments)
	}
	if elapsed > 5*time.Second {
		t.Errorf("ImportCookies took %v", elapsed)
	}
}

func TestImportCookies_EndToEnd_BuildsHeader(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cookies.sqlite")
	futureExpiry := time.Now().Add(24 * time.Hour).Unix()
	createFirefoxFixture(t, dbPath, []firefoxRow{
		{"sid", "abc123", ".example.com", "/", futureExpiry, 1, ""},
		{"lang", "en", ".example.com", "/", futureExpiry, 0, ""},
	})

	jar, _, err := ImportCookies(context.Background(), dbPath, ExtractOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	header, err := jar.CookieHeader("https://www.example.com/")
	if err != nil {
		t.Fatal(err)
	}
	if header != "sid=abc123; lang=en" {
		t.Errorf("header = %q", header)
	}
	// secure cookies stay off plain http
	if header, _ := jar.CookieHeader("http://example.com/"); header != "lang=en" {
		t.Errorf("http header = %q", header)
	}
}
