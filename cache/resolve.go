package cache

import (
	"fmt"
	"path/filepath"

	"github.com/pipeforge/buildcache/commons"
)

// ResolvePaths resolves the caller's path set against the live file system.
// Entries may be glob patterns; matches are deduplicated and returned in the
// order given. A path set that resolves to zero existing paths is an error,
// because there is nothing to cache.
func ResolvePaths(baseDir string, paths []string) ([]string, error) {
	resolvedPaths := []string{}
	seenPaths := map[string]bool{}

	for _, path := range paths {
		pattern := path
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(baseDir, pattern)
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, commons.NewValidationError(fmt.Sprintf("path pattern %q is malformed", path))
		}

		for _, match := range matches {
			if !seenPaths[match] {
				seenPaths[match] = true
				resolvedPaths = append(resolvedPaths, match)
			}
		}
	}

	if len(resolvedPaths) == 0 {
		return nil, commons.NewPathResolutionError(paths)
	}

	return resolvedPaths, nil
}
