package release

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

// errNoBackups indicates the backup folder holds no tarball to upload.
var errNoBackups = errors.New("no tarballs in the backup folder")

// newestTarball returns the name of the tarball in dir with the latest
// modification time. When two tarballs share an mtime the choice between them
// is arbitrary.
func newestTarball(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var (
		newest     string
		newestTime time.Time
	)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matched, err := filepath.Match(tarballPattern, entry.Name())
		if err != nil || !matched {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return "", err
		}

		if newest == "" || info.ModTime().After(newestTime) {
			newest = entry.Name()
			newestTime = info.ModTime()
		}
	}

	if newest == "" {
		return "", errNoBackups
	}

	return newest, nil
}
