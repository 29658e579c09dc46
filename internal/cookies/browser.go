package cookies

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/warpdl/warpcookie/pkg/credman"
	"github.com/warpdl/warpcookie/pkg/credman/keyring"
	"golang.org/x/sync/errgroup"
)

// ExtractFromBrowser reads every cookie of browser into a new jar.
func ExtractFromBrowser(ctx context.Context, browser string, opts ExtractOptions) (*credman.Jar, error) {
	opts.Logger = opts.logger()
	switch {
	case browser == BrowserFirefox:
		return extractFirefox(ctx, &opts)
	case browser == BrowserSafari:
		return extractSafari(&opts)
	case isChromium(browser):
		return extractChromium(ctx, browser, &opts)
	}
	return nil, fmt.Errorf("unknown browser %q: %w", browser, ErrUnsupportedBrowser)
}

// extractSafari parses Cookies.binarycookies. A profile is taken as the
// path of the archive itself.
func extractSafari(opts *ExtractOptions) (*credman.Jar, error) {
	if hostOS != "darwin" {
		return nil, fmt.Errorf("safari cookies on %s: %w", hostOS, ErrUnsupportedPlatform)
	}
	log := opts.logger()
	fs := opts.fs()

	var path string
	if opts.Profile != "" {
		path = opts.Profile
		if ok, _ := afero.Exists(fs, path); !ok {
			return nil, fmt.Errorf("custom safari cookies database not found: %s: %w", path, ErrDatabaseNotFound)
		}
	} else {
		for i, candidate := range safariCookiePaths(opts.platform()) {
			if i > 0 {
				log.Debug("Trying secondary cookie location")
			}
			if ok, _ := afero.Exists(fs, candidate); ok {
				path = candidate
				break
			}
		}
		if path == "" {
			return nil, fmt.Errorf("could not find safari cookies database: %w", ErrDatabaseNotFound)
		}
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read safari cookies: %w", err)
	}
	jar, err := ParseSafariCookies(data, nil, log, opts.progress())
	if err != nil {
		return nil, err
	}
	log.Info("Extracted %d cookies from safari", jar.Len())
	return jar, nil
}

// BrowserSpec is a parsed BROWSER[+KEYRING][:PROFILE][::CONTAINER] argument.
type BrowserSpec struct {
	Browser   string
	Keyring   keyring.Keyring
	Profile   string
	Container string
}

// Options returns base with the profile, keyring and container.
func (s BrowserSpec) Options(base ExtractOptions) ExtractOptions {
	base.Profile = s.Profile
	base.Container = s.Container
	if s.Keyring != keyring.KeyringAuto {
		base.Keyring = s.Keyring
	}
	return base
}

func (s BrowserSpec) String() string {
	out := s.Browser
	if s.Keyring != keyring.KeyringAuto {
		out += "+" + s.Keyring.String()
	}
	if s.Profile != "" {
		out += ":" + s.Profile
	}
	if s.Container != "" {
		out += "::" + s.Container
	}
	return out
}

// ParseBrowserSpec parses BROWSER[+KEYRING][:PROFILE][::CONTAINER]. The
// browser is matched case-insensitively, and a profile that looks like a
// path has "~" and environment variables expanded.
func ParseBrowserSpec(spec string) (BrowserSpec, error) {
	invalid := fmt.Errorf("invalid cookies from browser arguments: %s", spec)

	name, rest := spec, ""
	if i := strings.IndexAny(spec, "+:"); i >= 0 {
		name, rest = spec[:i], spec[i:]
	}
	if name == "" {
		return BrowserSpec{}, invalid
	}

	var keyringName string
	if strings.HasPrefix(rest, "+") {
		keyringName, rest = rest[1:], ""
		if i := strings.IndexByte(keyringName, ':'); i >= 0 {
			keyringName, rest = keyringName[:i], keyringName[i:]
		}
		keyringName = strings.TrimSpace(keyringName)
		if keyringName == "" {
			return BrowserSpec{}, invalid
		}
	}

	var profile, container string
	switch {
	case strings.HasPrefix(rest, "::"):
		container = strings.TrimSpace(rest[2:])
		if container == "" {
			return BrowserSpec{}, invalid
		}
	case strings.HasPrefix(rest, ":"):
		profile = strings.TrimLeft(rest[1:], " \t")
		if i := strings.Index(profile, "::"); i >= 0 {
			if c := strings.TrimSpace(profile[i+2:]); c != "" {
				profile, container = profile[:i], c
			}
		}
		profile = strings.TrimRight(profile, " \t")
		if profile == "" {
			return BrowserSpec{}, invalid
		}
	case rest != "":
		return BrowserSpec{}, invalid
	}

	out := BrowserSpec{
		Browser:   strings.ToLower(strings.TrimSpace(name)),
		Profile:   profile,
		Container: container,
	}
	if !IsSupportedBrowser(out.Browser) {
		return BrowserSpec{}, fmt.Errorf("unsupported browser specified for cookies: %q. Supported browsers are: %s: %w",
			out.Browser, strings.Join(SupportedBrowsers, ", "), ErrUnsupportedBrowser)
	}
	if keyringName != "" {
		kr, err := keyring.ParseKeyring(keyringName)
		if err != nil {
			return BrowserSpec{}, fmt.Errorf("unsupported keyring specified for cookies: %q. Supported keyrings are: %s: %w",
				strings.ToUpper(keyringName), strings.Join(keyring.SupportedKeyrings(), ", "), err)
		}
		out.Keyring = kr
	}
	if expanded := expandPath(out.Profile); out.Profile != "" && isPath(expanded) {
		out.Profile = expanded
	}
	return out, nil
}

// expandPath expands a leading "~" and $VAR references.
func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return os.ExpandEnv(p)
}

// ExtractAll extracts every spec concurrently and merges the jars in spec
// order, so later specs win on conflicting cookies. Each browser gets its own
// one-time warnings over opts.Logger.
func ExtractAll(ctx context.Context, specs []BrowserSpec, opts ExtractOptions) (*credman.Jar, error) {
	jars := make([]*credman.Jar, len(specs))
	g, ctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			jar, err := ExtractFromBrowser(ctx, spec.Browser, spec.Options(opts))
			if err != nil {
				return fmt.Errorf("%s: %w", spec.Browser, err)
			}
			jars[i] = jar
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return credman.Merge(jars...), nil
}

// LoadCookies builds the session jar: cookies from the browsers in specs,
// then cookieFile on top. A cookie file that does not exist yet still names
// the merged jar, so it can be saved there later.
func LoadCookies(ctx context.Context, cookieFile string, specs []BrowserSpec, opts ExtractOptions) (*credman.Jar, error) {
	log := opts.logger()
	var jars []*credman.Jar
	if len(specs) > 0 {
		jar, err := ExtractAll(ctx, specs, opts)
		if err != nil {
			return nil, err
		}
		jars = append(jars, jar)
	}
	if cookieFile != "" {
		cookieFile = expandPath(cookieFile)
		jar := credman.NewJar(cookieFile)
		jar.Log = log
		if f, err := os.Open(cookieFile); err == nil {
			f.Close()
			if err := jar.Load(""); err != nil {
				return nil, err
			}
		}
		jars = append(jars, jar)
	}
	merged := credman.Merge(jars...)
	merged.Log = log
	return merged, nil
}
