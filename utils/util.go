package utils

import (
	"os"
	"path/filepath"
)

// JoinPath joins path elements
func JoinPath(elems ...string) string {
	return filepath.Join(elems...)
}

// FileSize returns the size of the file at the given path
func FileSize(path string) (int64, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	return stat.Size(), nil
}

// PathExists returns true if the given path exists
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// PathIsDir returns true if the given path is a directory
func PathIsDir(path string) bool {
	stat, err := os.Stat(path)
	if err != nil {
		return false
	}

	return stat.IsDir()
}
