package credman

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/warpdl/warpcookie/pkg/credman/types"
	"github.com/warpdl/warpcookie/pkg/logger"
)

const (
	httpOnlyPrefix = "#HttpOnly_"
	entryFields    = 7
	cookieFileMode = 0600

	netscapeHeader = "# Netscape HTTP Cookie File\n" +
		"# This file is generated by warpcookie.  Do not edit.\n\n"
)

// ErrNotNetscape is returned when a cookie file looks like JSON rather than
// the tab-separated Netscape format.
var ErrNotNetscape = errors.New("cookies file must be Netscape formatted, not JSON")

// SaveOptions controls which cookies Save writes.
type SaveOptions struct {
	// KeepSessionCookies writes session and discard-flagged cookies with an
	// expiry of 0 instead of dropping them.
	KeepSessionCookies bool
	// KeepExpired writes cookies whose expiry is already in the past.
	KeepExpired bool
}

// Load reads a Netscape cookie file into the jar. An empty filename selects
// j.Filename. Malformed lines are skipped with a warning.
func (j *Jar) Load(filename string) error {
	if filename == "" {
		filename = j.Filename
	}
	if filename == "" {
		return ErrMissingFilename
	}
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot open cookie file: %w", err)
	}
	defer f.Close()
	if err := j.Read(f); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}

// Read parses Netscape cookie lines from r. A "#HttpOnly_" domain prefix is
// stripped and recorded in HttpOnly; an expiry of "" or 0 yields a session
// cookie.
func (j *Jar) Read(r io.Reader) error {
	log := j.Log
	if log == nil {
		log = logger.NewNopLogger()
	}

	br := bufio.NewReader(r)
	for {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("failed to read cookie file: %w", readErr)
		}
		if err := j.readLine(raw, log); err != nil {
			return err
		}
		if readErr == io.EOF {
			return nil
		}
	}
}

// readLine adds the cookie on raw to the jar. Malformed entries are logged
// and skipped.
func (j *Jar) readLine(raw string, log logger.Logger) error {
	line := strings.TrimRight(raw, "\r\n")

	httpOnly := false
	if strings.HasPrefix(line, httpOnlyPrefix) {
		httpOnly = true
		line = line[len(httpOnlyPrefix):]
	}
	if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
		return nil
	}

	cookie, err := parseEntry(line)
	if err != nil {
		if trimmed := strings.TrimSpace(raw); trimmed != "" && strings.ContainsRune(`[{"`, rune(trimmed[0])) {
			return ErrNotNetscape
		}
		log.Warning("skipping cookie file entry due to %v", err)
		return nil
	}
	cookie.HttpOnly = httpOnly
	j.Set(cookie)
	return nil
}

func parseEntry(line string) (types.Cookie, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != entryFields {
		return types.Cookie{}, fmt.Errorf("invalid length %d", len(fields))
	}
	domain, domainFlag, path, secureFlag, expiresAt, name, value :=
		fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6]

	var expires time.Time
	if expiresAt != "" {
		if strings.TrimLeft(expiresAt, "0123456789") != "" {
			return types.Cookie{}, fmt.Errorf("invalid expires at %q", expiresAt)
		}
		sec, err := strconv.ParseInt(expiresAt, 10, 64)
		if err != nil {
			return types.Cookie{}, fmt.Errorf("invalid expires at %q", expiresAt)
		}
		if sec != 0 {
			expires = time.Unix(sec, 0)
		}
	}

	c := types.New(domain, path, name, value, secureFlag == "TRUE", expires)
	c.DomainSpecified = domainFlag == "TRUE"
	c.Discard = c.IsSession()
	return c, nil
}

// Save writes the jar as a Netscape cookie file. An empty filename selects
// j.Filename. The file is replaced atomically and created with 0600
// permissions.
func (j *Jar) Save(filename string, opts SaveOptions) error {
	if filename == "" {
		filename = j.Filename
	}
	if filename == "" {
		return ErrMissingFilename
	}

	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, ".cookies.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	w := bufio.NewWriter(tmp)
	if err := j.Write(w, opts); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, cookieFileMode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename cookie file: %w", err)
	}
	return nil
}

// Write serializes the jar in Netscape format, header included.
func (j *Jar) Write(w io.Writer, opts SaveOptions) error {
	if _, err := io.WriteString(w, netscapeHeader); err != nil {
		return err
	}
	now := j.now()
	for _, k := range j.order {
		c := j.cookies[k]
		if !opts.KeepSessionCookies && (c.Discard || c.IsSession()) {
			continue
		}
		if !opts.KeepExpired && c.IsExpired(now) {
			continue
		}
		domain := c.Domain
		if c.HttpOnly {
			domain = httpOnlyPrefix + domain
		}
		line := strings.Join([]string{
			domain,
			trueOrFalse(strings.HasPrefix(c.Domain, ".")),
			c.Path,
			trueOrFalse(c.Secure),
			strconv.FormatInt(c.ExpiresUnix(), 10),
			c.Name,
			c.Value,
		}, "\t")
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func trueOrFalse(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
