// Package types defines the cookie record shared by the extraction, jar and
// persistence code.
package types

import (
	"strings"
	"time"
)

// Cookie represents one HTTP cookie read from a browser store or cookie file.
// Value is SENSITIVE and must never be logged or placed in error messages.
type Cookie struct {
	// Domain is the host or, with a leading dot, the domain wildcard the cookie applies to.
	Domain string
	// DomainSpecified records that the source carried an explicit domain.
	DomainSpecified bool
	// DomainInitialDot marks a leading-dot domain that also matches subdomains.
	DomainInitialDot bool
	// Path is the cookie path scope.
	Path string
	// PathSpecified records that the source carried an explicit path.
	PathSpecified bool
	// Name is the cookie name.
	Name string
	// Value is the cookie's content. Never log it.
	Value string
	// Port restricts the cookie to a port list. Empty means unrestricted.
	Port string
	// Secure indicates the cookie should only be sent over HTTPS.
	Secure bool
	// Expires is the expiry instant, truncated to seconds. The zero value marks a session cookie.
	Expires time.Time
	// Discard hints that the cookie should not outlive the session.
	Discard bool
	// HttpOnly indicates the cookie is not accessible via JavaScript.
	HttpOnly bool
}

// Key identifies a cookie within a jar.
type Key struct {
	Domain string
	Path   string
	Name   string
}

// New builds a cookie the way every browser extractor does: the domain and
// path flags are derived from the values themselves. A zero expires makes a
// session cookie.
func New(domain, path, name, value string, secure bool, expires time.Time) Cookie {
	return Cookie{
		Domain:           domain,
		DomainSpecified:  domain != "",
		DomainInitialDot: strings.HasPrefix(domain, "."),
		Path:             path,
		PathSpecified:    path != "",
		Name:             name,
		Value:            value,
		Secure:           secure,
		Expires:          expires,
	}
}

// Key returns the (domain, path, name) identity of the cookie.
func (c *Cookie) Key() Key {
	return Key{Domain: c.Domain, Path: c.Path, Name: c.Name}
}

// IsSession reports whether the cookie has no expiry.
func (c *Cookie) IsSession() bool {
	return c.Expires.IsZero()
}

// IsExpired reports whether the cookie expired at or before now.
// Session cookies never expire.
func (c *Cookie) IsExpired(now time.Time) bool {
	if c.IsSession() {
		return false
	}
	return !c.Expires.After(now)
}

// ExpiresUnix returns the expiry as Unix seconds, 0 for session cookies.
func (c *Cookie) ExpiresUnix() int64 {
	if c.IsSession() {
		return 0
	}
	return c.Expires.Unix()
}
