package cookies

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/warpdl/warpcookie/pkg/logger"
)

// SafeCopy copies a SQLite cookie database, and its -wal and -shm companions
// when present, out of fs into a fresh directory on the OS temp dir so the
// browser holding the original can keep its lock.
//
// It returns the path of the copied database and a cleanup func that removes
// the temp directory. The caller must call cleanup when done.
func SafeCopy(fs afero.Fs, srcPath string, log logger.Logger) (dbPath string, cleanup func(), err error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	info, err := fs.Stat(srcPath)
	if err != nil {
		return "", nil, fmt.Errorf("cookie file not found: %s: %w", srcPath, ErrDatabaseNotFound)
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("%s is a directory, expected a cookie database", srcPath)
	}
	if info.Size() == 0 {
		return "", nil, fmt.Errorf("cookie file at %s is empty or corrupted", srcPath)
	}

	tempDir, err := os.MkdirTemp("", "warpcookie-*")
	if err != nil {
		return "", nil, fmt.Errorf("cannot create temp directory: %w", err)
	}
	cleanup = func() {
		os.RemoveAll(tempDir)
	}

	baseName := filepath.Base(srcPath)
	dbPath = filepath.Join(tempDir, baseName)
	if err := copyFile(fs, srcPath, dbPath); err != nil {
		cleanup()
		return "", nil, err
	}
	log.Debug("copied %s (%s) to %s", srcPath, humanize.Bytes(uint64(info.Size())), tempDir)

	// companions are best-effort
	for _, suffix := range []string{"-wal", "-shm"} {
		companion := srcPath + suffix
		if _, err := fs.Stat(companion); err == nil {
			_ = copyFile(fs, companion, dbPath+suffix)
		}
	}

	return dbPath, cleanup, nil
}

// copyFile copies src from fs to dst on the OS filesystem.
func copyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open source file %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("cannot create destination file %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("cannot copy file: %w", err)
	}
	return nil
}
