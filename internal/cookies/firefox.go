package cookies

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"github.com/warpdl/warpcookie/pkg/credman"
	"github.com/warpdl/warpcookie/pkg/credman/types"
	"github.com/warpdl/warpcookie/pkg/logger"
)

// NoContainer selects Firefox cookies stored outside every container.
const NoContainer = "none"

const firefoxCookieColumns = `host, name, value, path, expiry, isSecure`

var containerLabelRe = regexp.MustCompile(`^userContext([^.]+)\.label$`)

// extractFirefox reads the newest cookies.sqlite below the Firefox roots,
// optionally restricted to one container.
func extractFirefox(ctx context.Context, opts *ExtractOptions) (*credman.Jar, error) {
	log := opts.logger()
	fs := opts.fs()
	log.Info("Extracting cookies from firefox")

	roots := firefoxSearchRoots(fs, opts, log)
	dbPath := newest(fs, firefoxCookieDBs(fs, roots))
	if dbPath == "" {
		return nil, fmt.Errorf("could not find firefox cookies database in %s: %w", strings.Join(roots, ", "), ErrDatabaseNotFound)
	}
	log.Debug("Extracting cookies from: %q", dbPath)

	var containerID *int64
	if opts.Container != "" && opts.Container != NoContainer {
		id, err := firefoxContainerID(fs, filepath.Dir(dbPath), opts.Container)
		if err != nil {
			return nil, err
		}
		containerID = &id
	}

	copied, cleanup, err := SafeCopy(fs, dbPath, log)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, err := openCookieDB(copied)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	where, args := firefoxContainerFilter(opts.Container, containerID)
	jar, err := readFirefoxCookies(ctx, db, where, args, opts.progress())
	if err != nil {
		return nil, err
	}
	log.Info("Extracted %d cookies from firefox", jar.Len())
	return jar, nil
}

// firefoxSearchRoots turns the profile option into directories to glob. A
// profile name is tried below every root, both as a directory name and as
// the display name recorded in profiles.ini.
func firefoxSearchRoots(fs afero.Fs, opts *ExtractOptions, log logger.Logger) []string {
	roots := firefoxRoots(opts.platform())
	switch {
	case opts.Profile == "":
		return roots
	case isPath(opts.Profile):
		return []string{opts.Profile}
	}
	var out []string
	for _, root := range roots {
		out = append(out, filepath.Join(root, opts.Profile))
		if dir := firefoxProfileFromIni(fs, root, opts.Profile, log); dir != "" {
			out = append(out, dir)
		}
	}
	return out
}

// firefoxContainerID looks container up in the containers.json next to the
// cookie database, by name or by its l10nID.
func firefoxContainerID(fs afero.Fs, profileDir, container string) (int64, error) {
	containersPath := filepath.Join(profileDir, "containers.json")
	data, err := afero.ReadFile(fs, containersPath)
	if err != nil {
		return 0, fmt.Errorf("could not read containers.json in %s: %w", profileDir, err)
	}

	var (
		id    int64
		found bool
	)
	gjson.GetBytes(data, "identities").ForEach(func(_, identity gjson.Result) bool {
		if !identityMatches(identity, container) {
			return true
		}
		ctxID := identity.Get("userContextId")
		if ctxID.Type == gjson.Number && ctxID.Num == float64(ctxID.Int()) {
			id, found = ctxID.Int(), true
		}
		return false
	})
	if !found {
		return 0, fmt.Errorf("could not find firefox container %q in containers.json: %w", container, ErrContainerNotFound)
	}
	return id, nil
}

// identityMatches compares container with the identity's name and, for
// built-in containers, with its l10nID either whole ("userContextWork.label")
// or by the embedded name ("Work").
func identityMatches(identity gjson.Result, container string) bool {
	if name := identity.Get("name"); name.Exists() && name.String() == container {
		return true
	}
	m := containerLabelRe.FindStringSubmatch(identity.Get("l10nID").String())
	return m != nil && (m[0] == container || m[1] == container)
}

// firefoxContainerFilter builds the WHERE clause for the container option.
func firefoxContainerFilter(container string, id *int64) (string, []any) {
	switch {
	case id != nil:
		return `WHERE originAttributes LIKE ? OR originAttributes LIKE ?`, []any{
			fmt.Sprintf("%%userContextId=%d", *id),
			fmt.Sprintf("%%userContextId=%d&%%", *id),
		}
	case container == NoContainer:
		return `WHERE NOT INSTR(originAttributes, 'userContextId=')`, nil
	}
	return "", nil
}

// readFirefoxCookies scans moz_cookies. expiry is in Unix seconds; 0 marks a
// session cookie.
func readFirefoxCookies(ctx context.Context, db *sql.DB, where string, args []any, progress Progress) (*credman.Jar, error) {
	total := countRows(ctx, db, `SELECT COUNT(*) FROM moz_cookies `+where, args...)
	rows, err := db.QueryContext(ctx, `SELECT `+firefoxCookieColumns+` FROM moz_cookies `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query Firefox cookies: %w", err)
	}
	defer rows.Close()

	tracker := progress.Start("Loading cookie", total)
	defer tracker.Done()

	jar := credman.NewJar("")
	for rows.Next() {
		var (
			host, name, value, path string
			expiry                  int64
			isSecure                int
		)
		if err := rows.Scan(&host, &name, &value, &path, &expiry, &isSecure); err != nil {
			return nil, fmt.Errorf("failed to scan Firefox cookie row: %w", err)
		}
		tracker.Increment()

		var expires time.Time
		if expiry != 0 {
			expires = time.Unix(expiry, 0)
		}
		jar.Set(types.New(host, path, name, value, isSecure != 0, expires))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate Firefox cookie rows: %w", err)
	}
	return jar, nil
}
