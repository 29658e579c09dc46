package cookies

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/warpdl/warpcookie/pkg/logger"
)

// firefoxProfilePatterns are tried below every Firefox root, matching a root
// that is itself a profile, a directory of profiles and the Profiles/ layout.
var firefoxProfilePatterns = []string{"", "*", filepath.Join("Profiles", "*")}

// findFiles walks root and returns every regular file called name. A missing
// root yields no results.
func findFiles(fs afero.Fs, root, name string, progress Progress) []string {
	var found []string
	tracker := progress.Start("Searching for "+name, 0)
	defer tracker.Done()
	_ = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		tracker.Increment()
		if info.Name() == name {
			found = append(found, path)
		}
		return nil
	})
	return found
}

// newest returns the most recently modified of paths, or "" when none can be
// stat'ed.
func newest(fs afero.Fs, paths []string) string {
	var (
		best    string
		bestMod int64
	)
	for _, p := range paths {
		info, err := fs.Stat(p)
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); best == "" || mod > bestMod {
			best, bestMod = p, mod
		}
	}
	return best
}

// firefoxCookieDBs lists cookies.sqlite candidates below roots.
func firefoxCookieDBs(fs afero.Fs, roots []string) []string {
	var out []string
	for _, root := range roots {
		for _, pattern := range firefoxProfilePatterns {
			matches, err := afero.Glob(fs, filepath.Join(root, pattern, "cookies.sqlite"))
			if err != nil {
				continue
			}
			out = append(out, matches...)
		}
	}
	return out
}

// firefoxProfileFromIni resolves a profile display name through the
// profiles.ini that sits next to, or one level above, root. It returns ""
// when no profile carries that name.
func firefoxProfileFromIni(fs afero.Fs, root, name string, log logger.Logger) string {
	for _, iniPath := range []string{
		filepath.Join(root, "profiles.ini"),
		filepath.Join(filepath.Dir(root), "profiles.ini"),
	} {
		if dir := parseProfilesIni(fs, iniPath, name); dir != "" {
			log.Debug("resolved firefox profile %q via %s", name, iniPath)
			return dir
		}
	}
	return ""
}

// parseProfilesIni returns the directory of the [Profile*] section whose
// Name= equals name. Relative Path= values are resolved against the ini
// directory.
func parseProfilesIni(fs afero.Fs, iniPath, name string) string {
	f, err := fs.Open(iniPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	iniDir := filepath.Dir(iniPath)
	var (
		inProfile   bool
		currentName string
		currentPath string
		isRelative  = true
	)
	match := func() string {
		if !inProfile || currentName != name || currentPath == "" {
			return ""
		}
		if isRelative {
			return filepath.Join(iniDir, filepath.FromSlash(currentPath))
		}
		return filepath.FromSlash(currentPath)
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if dir := match(); dir != "" {
				return dir
			}
			section := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			inProfile = strings.HasPrefix(section, "Profile")
			currentName, currentPath, isRelative = "", "", true
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok || !inProfile {
			continue
		}
		switch strings.TrimSpace(k) {
		case "Name":
			currentName = strings.TrimSpace(v)
		case "Path":
			currentPath = strings.TrimSpace(v)
		case "IsRelative":
			isRelative = strings.TrimSpace(v) != "0"
		}
	}
	return match()
}
