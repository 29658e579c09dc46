// Package credman holds extracted browser cookies in an ordered jar, filters
// them for a request URL and persists them in the Netscape cookie-file format.
package credman

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/warpdl/warpcookie/pkg/credman/types"
	"github.com/warpdl/warpcookie/pkg/logger"
)

// ErrMissingFilename is returned by Load and Save when neither the call nor
// the jar names a file.
var ErrMissingFilename = errors.New("a filename was not supplied (nor was the CookieJar instantiated with one)")

// Jar is an ordered collection of cookies keyed by (domain, path, name).
// Setting a cookie whose key already exists replaces it in place, so the
// iteration order is the order in which keys were first seen.
//
// A Jar is not safe for concurrent use.
type Jar struct {
	// Filename is where the jar was loaded from and where Save writes by default.
	Filename string
	// Log receives warnings about skipped cookie-file lines. Nil discards them.
	Log logger.Logger

	order   []types.Key
	cookies map[types.Key]*types.Cookie
	now     func() time.Time
}

// NewJar creates an empty jar bound to filename, which may be empty.
func NewJar(filename string) *Jar {
	return &Jar{
		Filename: filename,
		cookies:  make(map[types.Key]*types.Cookie),
		now:      time.Now,
	}
}

// Set inserts cookie, overwriting any cookie with the same key.
func (j *Jar) Set(cookie types.Cookie) {
	key := cookie.Key()
	if existing, ok := j.cookies[key]; ok {
		*existing = cookie
		return
	}
	j.order = append(j.order, key)
	j.cookies[key] = &cookie
}

// Get returns the cookie stored under the given identity.
func (j *Jar) Get(domain, path, name string) (types.Cookie, bool) {
	c, ok := j.cookies[types.Key{Domain: domain, Path: path, Name: name}]
	if !ok {
		return types.Cookie{}, false
	}
	return *c, true
}

// Delete removes the cookie stored under the given identity.
func (j *Jar) Delete(domain, path, name string) error {
	key := types.Key{Domain: domain, Path: path, Name: name}
	if _, ok := j.cookies[key]; !ok {
		return fmt.Errorf("cookie not found: %s", name)
	}
	delete(j.cookies, key)
	for i, k := range j.order {
		if k == key {
			j.order = append(j.order[:i], j.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of cookies in the jar.
func (j *Jar) Len() int {
	return len(j.order)
}

// Cookies returns copies of all cookies in iteration order.
func (j *Jar) Cookies() []types.Cookie {
	out := make([]types.Cookie, 0, len(j.order))
	for _, k := range j.order {
		out = append(out, *j.cookies[k])
	}
	return out
}

// Merge combines jars in order into a new jar. Cookies from later jars
// replace earlier ones with the same key, and the result takes the last
// non-empty Filename.
func Merge(jars ...*Jar) *Jar {
	out := NewJar("")
	for _, jar := range jars {
		if jar == nil {
			continue
		}
		for _, k := range jar.order {
			out.Set(*jar.cookies[k])
		}
		if jar.Filename != "" {
			out.Filename = jar.Filename
		}
		if out.Log == nil {
			out.Log = jar.Log
		}
	}
	return out
}

// CookiesForURL returns the cookies that would be sent with a request to
// rawURL: domain and path must match, secure cookies need a secure scheme,
// and expired cookies are left out.
func (j *Jar) CookiesForURL(rawURL string) ([]types.Cookie, error) {
	u, err := parseRequestURL(rawURL)
	if err != nil {
		return nil, err
	}
	host := strings.ToLower(u.Hostname())
	reqPath := u.EscapedPath()
	if reqPath == "" {
		reqPath = "/"
	}
	secureScheme := u.Scheme == "https" || u.Scheme == "wss"
	now := j.now()

	var out []types.Cookie
	for _, k := range j.order {
		c := j.cookies[k]
		if !domainMatches(c, host) {
			continue
		}
		if !pathMatches(c.Path, reqPath) {
			continue
		}
		if c.Secure && !secureScheme {
			continue
		}
		if c.Port != "" && !portMatches(c.Port, requestPort(u)) {
			continue
		}
		if c.IsExpired(now) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

// CookieHeader builds the value of a Cookie request header for rawURL.
// Format: "name1=val1; name2=val2". It is empty when nothing matches.
func (j *Jar) CookieHeader(rawURL string) (string, error) {
	cookies, err := j.CookiesForURL(rawURL)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(cookies))
	for i, c := range cookies {
		parts[i] = c.Name + "=" + c.Value
	}
	return strings.Join(parts, "; "), nil
}

func parseRequestURL(rawURL string) (*url.URL, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + strings.TrimPrefix(rawURL, "//")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", rawURL)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	return u, nil
}

// domainMatches applies host-only matching to plain domains and suffix
// matching to leading-dot domains.
func domainMatches(c *types.Cookie, host string) bool {
	domain := strings.ToLower(c.Domain)
	if !strings.HasPrefix(domain, ".") {
		return host == domain
	}
	return host == domain[1:] || strings.HasSuffix(host, domain)
}

func pathMatches(cookiePath, reqPath string) bool {
	if cookiePath == "" || cookiePath == "/" || cookiePath == reqPath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}

func requestPort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch u.Scheme {
	case "https", "wss":
		return "443"
	default:
		return "80"
	}
}

func portMatches(portList, port string) bool {
	for _, p := range strings.Split(portList, ",") {
		if strings.TrimSpace(p) == port {
			return true
		}
	}
	return false
}

// hostOf strips the wildcard dot and any port from a cookie domain.
func hostOf(domain string) string {
	domain = strings.TrimPrefix(domain, ".")
	if h, _, err := net.SplitHostPort(domain); err == nil {
		return h
	}
	return domain
}
