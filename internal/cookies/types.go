package cookies

import (
	"errors"

	"github.com/spf13/afero"
	"github.com/warpdl/warpcookie/pkg/credman/keyring"
	"github.com/warpdl/warpcookie/pkg/logger"
)

var (
	// ErrDatabaseNotFound means no cookie database exists for the browser or profile.
	ErrDatabaseNotFound = errors.New("cookie database not found")
	// ErrUnsupportedBrowser means the browser name is not one of SupportedBrowsers.
	ErrUnsupportedBrowser = errors.New("unsupported browser")
	// ErrContainerNotFound means a Firefox container name could not be resolved.
	ErrContainerNotFound = errors.New("firefox container not found")
	// ErrUnsupportedPlatform means the browser does not exist on this OS.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrParser means a binary cookie archive is malformed.
	ErrParser = errors.New("binary cookies parse error")
	// ErrUnsupportedFormat means ImportCookies could not recognise the file.
	ErrUnsupportedFormat = errors.New("unsupported cookie database schema")
)

// CookieFormat identifies the format of a browser cookie store.
type CookieFormat int

const (
	// FormatUnknown means the cookie store format could not be detected.
	FormatUnknown CookieFormat = iota
	// FormatFirefox means the cookie store uses the Firefox moz_cookies SQLite schema.
	FormatFirefox
	// FormatChrome means the cookie store uses the Chromium cookies SQLite schema.
	FormatChrome
	// FormatNetscape means the cookie store uses the Netscape tab-separated text format.
	FormatNetscape
	// FormatSafari means the cookie store is a Safari Cookies.binarycookies archive.
	FormatSafari
)

func (f CookieFormat) String() string {
	switch f {
	case FormatFirefox:
		return "firefox"
	case FormatChrome:
		return "chromium"
	case FormatNetscape:
		return "netscape"
	case FormatSafari:
		return "safari"
	}
	return "unknown"
}

// CookieSource describes where cookies were imported from.
type CookieSource struct {
	// Path is the filesystem path to the cookie store file.
	Path string
	// Format is the detected cookie store format.
	Format CookieFormat
	// Browser is the browser name, e.g. "firefox" or "chrome".
	Browser string
}

// Progress creates a Tracker per long-running step, such as reading the rows
// of one cookie database. Implementations must allow concurrent Start calls.
type Progress interface {
	Start(label string, total int) Tracker
}

// Tracker follows one step started by Progress.Start. A total of 0 means the
// number of items is unknown.
type Tracker interface {
	Increment()
	Done()
}

// NopProgress discards progress updates.
type NopProgress struct{}

func (NopProgress) Start(string, int) Tracker { return nopTracker{} }

type nopTracker struct{}

func (nopTracker) Increment() {}
func (nopTracker) Done()      {}

// ExtractOptions select what ExtractFromBrowser reads.
type ExtractOptions struct {
	// Profile is a profile name or a path to a profile directory. Empty
	// selects the most recently used cookie database.
	Profile string
	// Keyring overrides desktop detection on Linux.
	Keyring keyring.Keyring
	// Container restricts Firefox cookies to one container. "none" selects
	// cookies outside any container.
	Container string
	// Logger receives diagnostics. Nil discards them.
	Logger logger.Logger
	// Progress receives row progress. Nil discards it.
	Progress Progress
	// Fs is the filesystem searched for cookie databases. Nil means the OS
	// filesystem.
	Fs afero.Fs
	// Env is the environment used for browser roots and desktop detection.
	// Nil means the process environment.
	Env map[string]string
}

func (o *ExtractOptions) logger() *logger.OnceLogger {
	return logger.NewOnceLogger(o.Logger)
}

func (o *ExtractOptions) progress() Progress {
	if o.Progress == nil {
		return NopProgress{}
	}
	return o.Progress
}

func (o *ExtractOptions) fs() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}
	return o.Fs
}

func (o *ExtractOptions) env() map[string]string {
	if o.Env == nil {
		return keyring.Environ()
	}
	return o.Env
}

func (o *ExtractOptions) platform() platformEnv {
	return platformEnv{GOOS: hostOS, Env: o.env()}
}
