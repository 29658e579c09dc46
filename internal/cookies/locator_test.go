package cookies

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/warpcookie/pkg/logger"
)

// recordingProgress captures progress calls; it is safe for concurrent use.
type recordingProgress struct {
	mu         sync.Mutex
	starts     []string
	increments int
	done       int
}

func (p *recordingProgress) Start(label string, total int) Tracker {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts = append(p.starts, fmt.Sprintf("%s/%d", label, total))
	return p
}

func (p *recordingProgress) Increment() {
	p.mu.Lock()
	p.increments++
	p.mu.Unlock()
}

func (p *recordingProgress) Done() {
	p.mu.Lock()
	p.done++
	p.mu.Unlock()
}

func writeAt(t *testing.T, fs afero.Fs, path string, data []byte, mod time.Time) {
	t.Helper()
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	if !mod.IsZero() {
		if err := fs.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("failed to set mtime of %s: %v", path, err)
		}
	}
}

func TestFindFilesAndNewest(t *testing.T) {
	fs := afero.NewMemMapFs()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeAt(t, fs, "/chrome/Default/Cookies", []byte("a"), base)
	writeAt(t, fs, "/chrome/Profile 1/Network/Cookies", []byte("b"), base.Add(time.Hour))
	writeAt(t, fs, "/chrome/Profile 1/Network/Cookies-journal", []byte("c"), base.Add(2*time.Hour))
	writeAt(t, fs, "/chrome/Local State", []byte("{}"), base)

	p := &recordingProgress{}
	found := findFiles(fs, "/chrome", "Cookies", p)
	sort.Strings(found)
	want := []string{"/chrome/Default/Cookies", "/chrome/Profile 1/Network/Cookies"}
	if fmt.Sprint(found) != fmt.Sprint(want) {
		t.Fatalf("findFiles = %v, want %v", found, want)
	}
	if p.increments != 4 || p.done != 1 {
		t.Errorf("progress increments = %d, done = %d", p.increments, p.done)
	}

	if got := newest(fs, found); got != "/chrome/Profile 1/Network/Cookies" {
		t.Errorf("newest = %s", got)
	}
	if got := newest(fs, []string{"/missing"}); got != "" {
		t.Errorf("newest of missing files = %q, want empty", got)
	}
}

func TestFindFilesMissingRoot(t *testing.T) {
	if found := findFiles(afero.NewMemMapFs(), "/nope", "Cookies", NopProgress{}); len(found) != 0 {
		t.Errorf("expected no results, got %v", found)
	}
}

func TestFirefoxCookieDBs(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, p := range []string{
		"/ff/cookies.sqlite",
		"/ff/abc.default/cookies.sqlite",
		"/ff/Profiles/xyz.default-release/cookies.sqlite",
		"/ff/deep/er/cookies.sqlite",
	} {
		writeAt(t, fs, p, []byte("x"), time.Time{})
	}
	got := firefoxCookieDBs(fs, []string{"/ff", "/missing"})
	sort.Strings(got)
	want := []string{
		"/ff/Profiles/xyz.default-release/cookies.sqlite",
		"/ff/abc.default/cookies.sqlite",
		"/ff/cookies.sqlite",
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("firefoxCookieDBs = %v, want %v", got, want)
	}
}

func TestParseProfilesIni(t *testing.T) {
	fs := afero.NewMemMapFs()
	ini := `[General]
StartWithLastProfile=1

[Profile1]
Name=work
IsRelative=1
Path=Profiles/abcd.work

[Profile0]
Name=default
IsRelative=0
Path=/opt/ff/default
`
	writeAt(t, fs, "/home/u/.mozilla/firefox/profiles.ini", []byte(ini), time.Time{})

	tests := []struct {
		name string
		want string
	}{
		{"work", filepath.Join("/home/u/.mozilla/firefox", "Profiles", "abcd.work")},
		{"default", filepath.FromSlash("/opt/ff/default")},
		{"missing", ""},
	}
	for _, tt := range tests {
		if got := parseProfilesIni(fs, "/home/u/.mozilla/firefox/profiles.ini", tt.name); got != tt.want {
			t.Errorf("parseProfilesIni(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	// a Profiles root looks one level up for profiles.ini
	log := logger.NewMockLogger()
	got := firefoxProfileFromIni(fs, "/home/u/.mozilla/firefox/Profiles", "work", log)
	if got != filepath.Join("/home/u/.mozilla/firefox", "Profiles", "abcd.work") {
		t.Errorf("firefoxProfileFromIni = %q", got)
	}
	if len(log.DebugCalls) != 1 {
		t.Errorf("debug = %v", log.DebugCalls)
	}
	if got := parseProfilesIni(fs, "/nowhere/profiles.ini", "work"); got != "" {
		t.Errorf("missing ini = %q", got)
	}
}
