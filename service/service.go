package service

import (
	"os"
	"path/filepath"

	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"

	"github.com/pipeforge/buildcache/cache"
	"github.com/pipeforge/buildcache/commons"
	"github.com/pipeforge/buildcache/utils"
)

// CacheService is the restore and save orchestrator.
// It sequences validation, key scanning, transfer, packaging and extraction,
// and guarantees cleanup of temporary archives on every exit path.
type CacheService struct {
	Config   *commons.Config
	Scope    *cache.Scope
	Locator  *cache.BlobLocator
	Archiver cache.Archiver
}

// NewCacheService creates a new cache service from configuration
func NewCacheService(config *commons.Config) (*CacheService, error) {
	logger := log.WithFields(log.Fields{
		"package":  "service",
		"function": "NewCacheService",
	})

	archiver, err := cache.NewArchiver(config.ArchiveMethod)
	if err != nil {
		logger.WithError(err).Error("failed to create an archiver")
		return nil, err
	}

	svc := &CacheService{
		Config:   config,
		Archiver: archiver,
	}

	scope, available := cache.ResolveScope(config)
	if !available {
		// not an error - callers run without a cache
		logger.Info("No cache scope root is configured - caching is disabled")
		return svc, nil
	}

	svc.Scope = scope
	svc.Locator = cache.NewBlobLocator(scope, archiver.ArchiveFileName())
	return svc, nil
}

// Available returns true when a backing store is configured
func (svc *CacheService) Available() bool {
	return svc.Locator != nil
}

// Restore looks up the given keys in order, primary key first, and extracts
// the first matching entry into the caller's paths.
// Validation failures propagate; a missing entry, unavailable storage, or a
// transfer/extraction failure all degrade to a miss-shaped result.
func (svc *CacheService) Restore(paths []string, primaryKey string, restoreKeys []string, options RestoreOptions) (*RestoreResult, error) {
	logger := log.WithFields(log.Fields{
		"package":  "service",
		"struct":   "CacheService",
		"function": "Restore",
	})

	// validate before any storage access
	err := cache.ValidatePaths(paths)
	if err != nil {
		return nil, err
	}

	err = cache.ValidateKeys(primaryKey, restoreKeys)
	if err != nil {
		return nil, err
	}

	promCounterForRestore.Inc()

	if svc.Locator == nil {
		logger.Info("No cache storage is configured - treating as a miss")
		promCounterForRestoreMiss.Inc()
		return &RestoreResult{
			Outcome: RestoreOutcomeMiss,
		}, nil
	}

	// scan keys in order, first hit wins
	matchedKey := ""
	matchedAddress := ""
	for _, key := range append([]string{primaryKey}, restoreKeys...) {
		address := svc.Locator.Locate(key)
		if svc.Locator.Exists(address) {
			matchedKey = key
			matchedAddress = address
			break
		}
	}

	if len(matchedKey) == 0 {
		logger.Infof("No cache entry found for key %q in scope %q", primaryKey, svc.Scope.GetScopePath())
		promCounterForRestoreMiss.Inc()
		return &RestoreResult{
			Outcome: RestoreOutcomeMiss,
		}, nil
	}

	logger.Infof("Found a cache entry for key %q", matchedKey)

	if options.LookupOnly {
		promCounterForRestoreHit.Inc()
		return &RestoreResult{
			Outcome:    RestoreOutcomeHit,
			MatchedKey: matchedKey,
		}, nil
	}

	baseDir := options.BaseDir
	if len(baseDir) == 0 {
		baseDir = "."
	}

	err = svc.Config.MakeWorkDirs()
	if err != nil {
		logger.WithError(err).Warn("failed to make work dirs - treating as a miss")
		promCounterForRestoreDegraded.Inc()
		return &RestoreResult{
			Outcome: RestoreOutcomeDegraded,
		}, nil
	}

	tempDir, err := os.MkdirTemp(svc.Config.TempRootPath, "restore_")
	if err != nil {
		logger.WithError(err).Warn("failed to make a temp dir - treating as a miss")
		promCounterForRestoreDegraded.Inc()
		return &RestoreResult{
			Outcome: RestoreOutcomeDegraded,
		}, nil
	}

	// the temp archive never outlives the call
	defer func() {
		removeErr := os.RemoveAll(tempDir)
		if removeErr != nil {
			logger.WithError(removeErr).Warnf("failed to remove temp dir %q", tempDir)
		}
	}()

	destPath := filepath.Join(tempDir, svc.Archiver.ArchiveFileName())

	archiveSize, err := svc.Locator.Read(matchedAddress, destPath)
	if err != nil {
		logger.WithError(err).Warnf("failed to transfer the cache entry for key %q - treating as a miss", matchedKey)
		promCounterForRestoreDegraded.Inc()
		return &RestoreResult{
			Outcome: RestoreOutcomeDegraded,
		}, nil
	}

	logger.Infof("Transferred the cache entry for key %q, %d bytes", matchedKey, archiveSize)

	if svc.Config.Debug {
		manifest, listErr := svc.Archiver.List(destPath)
		if listErr != nil {
			logger.WithError(listErr).Debug("failed to list the archive manifest")
		} else {
			for _, name := range manifest {
				logger.Debugf("Archive entry: %s", name)
			}
		}
	}

	err = svc.Archiver.Unpack(destPath, baseDir)
	if err != nil {
		logger.WithError(err).Warnf("failed to extract the cache entry for key %q - treating as a miss", matchedKey)
		promCounterForRestoreDegraded.Inc()
		return &RestoreResult{
			Outcome: RestoreOutcomeDegraded,
		}, nil
	}

	promCounterForRestoreHit.Inc()
	promCounterForRestoredBytes.Add(float64(archiveSize))

	return &RestoreResult{
		Outcome:     RestoreOutcomeHit,
		MatchedKey:  matchedKey,
		ArchiveSize: archiveSize,
	}, nil
}

// Save packages the caller's paths into a single archive and stores it under
// the given key. Validation and capacity failures propagate; packaging and
// store failures degrade to a not-saved result, and unavailable storage is a
// silent no-op.
func (svc *CacheService) Save(paths []string, key string, options SaveOptions) (*SaveResult, error) {
	logger := log.WithFields(log.Fields{
		"package":  "service",
		"struct":   "CacheService",
		"function": "Save",
	})

	// validate before any storage access
	err := cache.ValidatePaths(paths)
	if err != nil {
		return nil, err
	}

	err = cache.ValidateKey(key)
	if err != nil {
		return nil, err
	}

	promCounterForSave.Inc()

	baseDir := options.BaseDir
	if len(baseDir) == 0 {
		baseDir = "."
	}

	resolvedPaths, err := cache.ResolvePaths(baseDir, paths)
	if err != nil {
		// nothing exists to cache - caller-actionable, unlike store failures
		return nil, err
	}

	if svc.Locator == nil {
		logger.Info("No cache storage is configured - skipping the save")
		promCounterForSaveSkipped.Inc()
		return &SaveResult{
			Outcome: SaveOutcomeSkipped,
		}, nil
	}

	err = svc.Config.MakeWorkDirs()
	if err != nil {
		logger.WithError(err).Warn("failed to make work dirs - nothing is saved")
		promCounterForSaveDegraded.Inc()
		return &SaveResult{
			Outcome: SaveOutcomeDegraded,
		}, nil
	}

	tempDir, err := os.MkdirTemp(svc.Config.TempRootPath, "save_")
	if err != nil {
		logger.WithError(err).Warn("failed to make a temp dir - nothing is saved")
		promCounterForSaveDegraded.Inc()
		return &SaveResult{
			Outcome: SaveOutcomeDegraded,
		}, nil
	}

	// the temp archive never outlives the call
	defer func() {
		removeErr := os.RemoveAll(tempDir)
		if removeErr != nil {
			logger.WithError(removeErr).Warnf("failed to remove temp dir %q", tempDir)
		}
	}()

	archivePath, err := svc.Archiver.Pack(tempDir, baseDir, resolvedPaths)
	if err != nil {
		logger.WithError(err).Warnf("failed to package %d paths - nothing is saved", len(resolvedPaths))
		promCounterForSaveDegraded.Inc()
		return &SaveResult{
			Outcome: SaveOutcomeDegraded,
		}, nil
	}

	archiveSize, err := utils.FileSize(archivePath)
	if err != nil {
		logger.WithError(err).Warnf("failed to measure the archive %q - nothing is saved", archivePath)
		promCounterForSaveDegraded.Inc()
		return &SaveResult{
			Outcome: SaveOutcomeDegraded,
		}, nil
	}

	if archiveSize > svc.Config.ArchiveSizeMax {
		// oversized caches are rejected, not truncated
		return nil, commons.NewCapacityError(archiveSize, svc.Config.ArchiveSizeMax)
	}

	address := svc.Locator.Locate(key)

	err = svc.Locator.Write(address, archivePath)
	if err != nil {
		logger.WithError(err).Warnf("failed to store the archive for key %q - nothing is saved", key)
		promCounterForSaveDegraded.Inc()
		return &SaveResult{
			Outcome: SaveOutcomeDegraded,
		}, nil
	}

	savedID := xid.New().String()
	logger.Infof("Stored the archive for key %q, %d bytes, save id %s", key, archiveSize, savedID)

	promCounterForSaveSaved.Inc()
	promCounterForSavedBytes.Add(float64(archiveSize))

	return &SaveResult{
		Outcome:     SaveOutcomeSaved,
		SavedID:     savedID,
		ArchiveSize: archiveSize,
	}, nil
}

// Release releases resources the service holds
func (svc *CacheService) Release() {
	if svc.Locator != nil {
		svc.Locator.Release()
	}
}
