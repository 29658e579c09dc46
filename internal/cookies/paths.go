package cookies

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// hostOS selects the path tables and the cookie decryptor.
var hostOS = runtime.GOOS

// Browser names accepted by ExtractFromBrowser.
const (
	BrowserBrave    = "brave"
	BrowserChrome   = "chrome"
	BrowserChromium = "chromium"
	BrowserEdge     = "edge"
	BrowserOpera    = "opera"
	BrowserVivaldi  = "vivaldi"
	BrowserWhale    = "whale"
	BrowserFirefox  = "firefox"
	BrowserSafari   = "safari"
)

// ChromiumBrowsers lists the supported Chromium-based browsers.
var ChromiumBrowsers = []string{
	BrowserBrave, BrowserChrome, BrowserChromium, BrowserEdge,
	BrowserOpera, BrowserVivaldi, BrowserWhale,
}

// SupportedBrowsers lists every browser ExtractFromBrowser understands.
var SupportedBrowsers = append(append([]string{}, ChromiumBrowsers...), BrowserFirefox, BrowserSafari)

func isChromium(browser string) bool {
	for _, b := range ChromiumBrowsers {
		if b == browser {
			return true
		}
	}
	return false
}

// IsSupportedBrowser reports whether name is one of SupportedBrowsers.
func IsSupportedBrowser(name string) bool {
	for _, b := range SupportedBrowsers {
		if b == name {
			return true
		}
	}
	return false
}

// chromiumSettings describes where a Chromium-based browser keeps its data.
type chromiumSettings struct {
	// BrowserDir is the user data directory holding profiles and Local State.
	BrowserDir string
	// KeyringName is the "<name> Safe Storage" prefix used in the OS keyring.
	KeyringName string
	// SupportsProfiles is false for browsers keeping a single profile in BrowserDir.
	SupportsProfiles bool
}

// platformEnv bundles what the path tables depend on so they can be
// evaluated for any OS in tests.
type platformEnv struct {
	GOOS string
	Env  map[string]string
}

func (p platformEnv) join(elem ...string) string {
	if p.GOOS == "windows" {
		return strings.Join(elem, `\`)
	}
	return filepath.Join(elem...)
}

func (p platformEnv) home() string {
	if h := p.Env["HOME"]; h != "" {
		return h
	}
	return p.Env["USERPROFILE"]
}

// configHome is $XDG_CONFIG_HOME, defaulting to ~/.config.
func (p platformEnv) configHome() string {
	if c := p.Env["XDG_CONFIG_HOME"]; c != "" {
		return c
	}
	return p.join(p.home(), ".config")
}

// getChromiumSettings returns the data directory and keyring name of a
// Chromium-based browser, following Chromium's user_data_dir.md.
func getChromiumSettings(browser string, p platformEnv) (chromiumSettings, error) {
	if !isChromium(browser) {
		return chromiumSettings{}, fmt.Errorf("%w: %q", ErrUnsupportedBrowser, browser)
	}

	var dir string
	switch p.GOOS {
	case "windows":
		local, roaming := p.Env["LOCALAPPDATA"], p.Env["APPDATA"]
		dir = map[string]string{
			BrowserBrave:    p.join(local, "BraveSoftware", "Brave-Browser", "User Data"),
			BrowserChrome:   p.join(local, "Google", "Chrome", "User Data"),
			BrowserChromium: p.join(local, "Chromium", "User Data"),
			BrowserEdge:     p.join(local, "Microsoft", "Edge", "User Data"),
			BrowserOpera:    p.join(roaming, "Opera Software", "Opera Stable"),
			BrowserVivaldi:  p.join(local, "Vivaldi", "User Data"),
			BrowserWhale:    p.join(local, "Naver", "Naver Whale", "User Data"),
		}[browser]
	case "darwin":
		appData := p.join(p.home(), "Library", "Application Support")
		dir = map[string]string{
			BrowserBrave:    p.join(appData, "BraveSoftware", "Brave-Browser"),
			BrowserChrome:   p.join(appData, "Google", "Chrome"),
			BrowserChromium: p.join(appData, "Chromium"),
			BrowserEdge:     p.join(appData, "Microsoft Edge"),
			BrowserOpera:    p.join(appData, "com.operasoftware.Opera"),
			BrowserVivaldi:  p.join(appData, "Vivaldi"),
			BrowserWhale:    p.join(appData, "Naver", "Whale"),
		}[browser]
	default:
		config := p.configHome()
		dir = map[string]string{
			BrowserBrave:    p.join(config, "BraveSoftware", "Brave-Browser"),
			BrowserChrome:   p.join(config, "google-chrome"),
			BrowserChromium: p.join(config, "chromium"),
			BrowserEdge:     p.join(config, "microsoft-edge"),
			BrowserOpera:    p.join(config, "opera"),
			BrowserVivaldi:  p.join(config, "vivaldi"),
			BrowserWhale:    p.join(config, "naver-whale"),
		}[browser]
	}

	darwin := p.GOOS == "darwin"
	keyringName := map[string]string{
		BrowserBrave:    "Brave",
		BrowserChrome:   "Chrome",
		BrowserChromium: "Chromium",
		BrowserEdge:     pick(darwin, "Microsoft Edge", "Chromium"),
		BrowserOpera:    pick(darwin, "Opera", "Chromium"),
		BrowserVivaldi:  pick(darwin, "Vivaldi", "Chrome"),
		BrowserWhale:    "Whale",
	}[browser]

	return chromiumSettings{
		BrowserDir:       dir,
		KeyringName:      keyringName,
		SupportsProfiles: browser != BrowserOpera,
	}, nil
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

// firefoxRoots returns the directories that may hold Firefox profiles:
// native installs plus snap, flatpak and the Microsoft Store package.
func firefoxRoots(p platformEnv) []string {
	switch p.GOOS {
	case "windows":
		return []string{
			p.join(p.Env["APPDATA"], "Mozilla", "Firefox", "Profiles"),
			p.join(p.Env["LOCALAPPDATA"], "Packages", "Mozilla.Firefox_n80bbvh6b1yt2", "LocalCache", "Roaming", "Mozilla", "Firefox", "Profiles"),
		}
	case "darwin":
		return []string{p.join(p.home(), "Library", "Application Support", "Firefox", "Profiles")}
	default:
		home := p.home()
		return []string{
			p.join(home, ".mozilla", "firefox"),
			p.join(home, "snap", "firefox", "common", ".mozilla", "firefox"),
			p.join(home, ".var", "app", "org.mozilla.firefox", ".mozilla", "firefox"),
		}
	}
}

// safariCookiePaths returns the Cookies.binarycookies candidates in the
// order Safari versions used them.
func safariCookiePaths(p platformEnv) []string {
	home := p.home()
	return []string{
		p.join(home, "Library", "Cookies", "Cookies.binarycookies"),
		p.join(home, "Library", "Containers", "com.apple.Safari", "Data", "Library", "Cookies", "Cookies.binarycookies"),
	}
}

// isPath reports whether a profile argument names a path rather than a
// profile directory name.
func isPath(value string) bool {
	return strings.ContainsRune(value, filepath.Separator) || strings.ContainsRune(value, '/')
}
