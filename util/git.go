package util

import (
	"os"
	"path/filepath"
)

// FindGitRoot walks upward from start looking for a .git directory, so
// default paths resolve relative to the repository rather than the cwd.
// Falls back to start's absolute path when no repository is found.
func FindGitRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root.
			return filepath.Abs(start)
		}
		dir = parent
	}
}
