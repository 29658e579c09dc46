package credman

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// HTTPJar copies the jar into a net/http cookie jar backed by the public
// suffix list, ready to be attached to an http.Client. Expired cookies are
// dropped by the net/http jar itself.
func (j *Jar) HTTPJar() (http.CookieJar, error) {
	out, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	for _, k := range j.order {
		c := j.cookies[k]
		host := hostOf(c.Domain)
		if host == "" {
			continue
		}
		scheme := "http"
		if c.Secure {
			scheme = "https"
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     path,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if c.DomainInitialDot {
			hc.Domain = c.Domain
		}
		if !c.IsSession() {
			hc.Expires = c.Expires
		}
		out.SetCookies(&url.URL{Scheme: scheme, Host: host, Path: path}, []*http.Cookie{hc})
	}
	return out, nil
}
