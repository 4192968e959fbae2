package util

import (
	"io/fs"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
)

// FileMtime returns a file's modification time in Unix nanoseconds, or 0
// when the file does not exist. Zero means "no signal" to the cache layer.
func FileMtime(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().UnixNano()
}

// LatestMtime walks dir and returns the newest modification time (Unix
// nanoseconds) among its regular files. Files matched by the directory's
// .gitignore are skipped, so editor swap files and build output don't
// invalidate caches. An absent or empty directory yields 0.
func LatestMtime(dir string) (int64, error) {
	if _, err := os.Stat(dir); err != nil {
		return 0, nil
	}

	// Missing .gitignore just means nothing is ignored.
	ign, _ := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore"))

	var latest int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(dir, path)
		if rerr != nil {
			return rerr
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if ign != nil && rel != "." && ign.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if ign != nil && ign.MatchesPath(rel) {
			return nil
		}

		info, ierr := d.Info()
		if ierr != nil {
			return ierr
		}
		if mt := info.ModTime().UnixNano(); mt > latest {
			latest = mt
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return latest, nil
}
