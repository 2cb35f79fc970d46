package cache

import (
	"io"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

const (
	existsMemoTimeout time.Duration = 30 * time.Second
	existsMemoCleanup time.Duration = 1 * time.Minute
)

// BlobLocator maps a cache key under a scope to a location in the backing
// store and performs the literal byte transfers. Addressing is pure - Locate
// never creates anything on disk.
type BlobLocator struct {
	scope           *Scope
	archiveFileName string
	existsMemo      *gocache.Cache
}

// NewBlobLocator creates a new BlobLocator for the given scope
func NewBlobLocator(scope *Scope, archiveFileName string) *BlobLocator {
	return &BlobLocator{
		scope:           scope,
		archiveFileName: archiveFileName,
		existsMemo:      gocache.New(existsMemoTimeout, existsMemoCleanup),
	}
}

// GetScope returns the scope the locator addresses
func (locator *BlobLocator) GetScope() *Scope {
	return locator.scope
}

// Locate computes the storage address for the given key.
// Keys may contain path separators, so the key is cleaned rooted to keep
// every address under the scope directory.
func (locator *BlobLocator) Locate(key string) string {
	cleanedKey := filepath.Clean("/" + filepath.FromSlash(key))
	return filepath.Join(locator.scope.GetScopePath(), cleanedKey, locator.archiveFileName)
}

// Exists checks for a non-empty blob at the given address.
// A zero-length file is treated the same as a missing one, so a truncated
// earlier write never counts as a hit.
func (locator *BlobLocator) Exists(address string) bool {
	if _, ok := locator.existsMemo.Get(address); ok {
		return true
	}

	stat, err := os.Stat(address)
	if err != nil {
		return false
	}

	if !stat.Mode().IsRegular() || stat.Size() == 0 {
		return false
	}

	locator.existsMemo.Set(address, true, 0)
	return true
}

// Read transfers the blob at the given address to destPath and returns the
// number of bytes transferred
func (locator *BlobLocator) Read(address string, destPath string) (int64, error) {
	logger := log.WithFields(log.Fields{
		"package":  "cache",
		"struct":   "BlobLocator",
		"function": "Read",
	})

	logger.Debugf("Reading blob %q to %q", address, destPath)

	blobFile, err := os.Open(address)
	if err != nil {
		return 0, xerrors.Errorf("failed to open blob %q: %w", address, err)
	}
	defer blobFile.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return 0, xerrors.Errorf("failed to create dest file %q: %w", destPath, err)
	}
	defer destFile.Close()

	written, err := io.Copy(destFile, blobFile)
	if err != nil {
		return written, xerrors.Errorf("failed to transfer blob %q to %q: %w", address, destPath, err)
	}

	return written, nil
}

// Write transfers the file at sourcePath to the given address, creating any
// missing parent directories. The blob is written to a temp file next to the
// final address and renamed into place, so a torn write never leaves a
// partial blob behind.
func (locator *BlobLocator) Write(address string, sourcePath string) error {
	logger := log.WithFields(log.Fields{
		"package":  "cache",
		"struct":   "BlobLocator",
		"function": "Write",
	})

	logger.Debugf("Writing blob %q from %q", address, sourcePath)

	addressDir := filepath.Dir(address)
	err := os.MkdirAll(addressDir, 0755)
	if err != nil {
		return xerrors.Errorf("failed to make blob dir %q: %w", addressDir, err)
	}

	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return xerrors.Errorf("failed to open source file %q: %w", sourcePath, err)
	}
	defer sourceFile.Close()

	tempFile, err := os.CreateTemp(addressDir, "blob-*")
	if err != nil {
		return xerrors.Errorf("failed to create temp blob in %q: %w", addressDir, err)
	}
	tempPath := tempFile.Name()

	_, err = io.Copy(tempFile, sourceFile)
	if err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return xerrors.Errorf("failed to transfer %q to %q: %w", sourcePath, tempPath, err)
	}

	err = tempFile.Close()
	if err != nil {
		os.Remove(tempPath)
		return xerrors.Errorf("failed to close temp blob %q: %w", tempPath, err)
	}

	err = os.Rename(tempPath, address)
	if err != nil {
		os.Remove(tempPath)
		return xerrors.Errorf("failed to rename temp blob %q to %q: %w", tempPath, address, err)
	}

	locator.existsMemo.Set(address, true, 0)
	return nil
}

// Release releases resources the locator holds
func (locator *BlobLocator) Release() {
	locator.existsMemo.Flush()
}
