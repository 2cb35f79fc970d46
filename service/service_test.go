package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeforge/buildcache/cache"
	"github.com/pipeforge/buildcache/commons"
	"github.com/pipeforge/buildcache/utils"
)

func newTestConfig(t *testing.T, scopeRoot string) *commons.Config {
	t.Helper()

	config := commons.NewDefaultConfig()
	config.ScopeRootPath = scopeRoot
	config.RepositoryID = "myorg/myrepo"
	config.RefID = "main"
	config.TempRootPath = filepath.Join(t.TempDir(), "temp")
	config.ArchiveMethod = cache.ArchiveMethodTarGz

	return config
}

func newTestService(t *testing.T, scopeRoot string) *CacheService {
	t.Helper()

	svc, err := NewCacheService(newTestConfig(t, scopeRoot))
	require.NoError(t, err)

	t.Cleanup(svc.Release)
	return svc
}

func makeWorkTree(t *testing.T) string {
	t.Helper()

	baseDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(baseDir, "dist"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "dist", "app.js"), []byte("console.log('hi')"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "dist", "data.bin"), []byte{0x00, 0x01, 0x02}, 0644))

	return baseDir
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	baseDir := makeWorkTree(t)

	saveResult, err := svc.Save([]string{"./dist"}, "v1", SaveOptions{BaseDir: baseDir})
	require.NoError(t, err)
	assert.Equal(t, SaveOutcomeSaved, saveResult.Outcome)
	assert.NotEmpty(t, saveResult.SavedID)
	assert.Greater(t, saveResult.ArchiveSize, int64(0))

	restoreDir := t.TempDir()
	restoreResult, err := svc.Restore([]string{"./dist"}, "v1", nil, RestoreOptions{BaseDir: restoreDir})
	require.NoError(t, err)
	assert.Equal(t, RestoreOutcomeHit, restoreResult.Outcome)
	assert.Equal(t, "v1", restoreResult.MatchedKey)

	data, err := os.ReadFile(filepath.Join(restoreDir, "dist", "app.js"))
	require.NoError(t, err)
	assert.Equal(t, []byte("console.log('hi')"), data)

	data, err = os.ReadFile(filepath.Join(restoreDir, "dist", "data.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0x02}, data)
}

func TestRestoreMissLeavesPathsUntouched(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	restoreDir := t.TempDir()

	result, err := svc.Restore([]string{"./dist"}, "v1", []string{"v1-"}, RestoreOptions{BaseDir: restoreDir})
	require.NoError(t, err)
	assert.Equal(t, RestoreOutcomeMiss, result.Outcome)
	assert.Empty(t, result.MatchedKey)

	entries, err := os.ReadDir(restoreDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRestoreKeyOrder(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	baseDir := makeWorkTree(t)

	_, err := svc.Save([]string{"dist"}, "v1", SaveOptions{BaseDir: baseDir})
	require.NoError(t, err)

	// primary key hit wins
	result, err := svc.Restore([]string{"dist"}, "v1", []string{"v1-"}, RestoreOptions{BaseDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, RestoreOutcomeHit, result.Outcome)
	assert.Equal(t, "v1", result.MatchedKey)

	// fallback keys are probed in order after a primary miss
	result, err = svc.Restore([]string{"dist"}, "v2", []string{"v9", "v1"}, RestoreOptions{BaseDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, RestoreOutcomeHit, result.Outcome)
	assert.Equal(t, "v1", result.MatchedKey)
}

func TestRestoreLookupOnly(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	baseDir := makeWorkTree(t)

	_, err := svc.Save([]string{"dist"}, "v1", SaveOptions{BaseDir: baseDir})
	require.NoError(t, err)

	restoreDir := t.TempDir()
	result, err := svc.Restore([]string{"dist"}, "v1", nil, RestoreOptions{LookupOnly: true, BaseDir: restoreDir})
	require.NoError(t, err)
	assert.Equal(t, RestoreOutcomeHit, result.Outcome)
	assert.Equal(t, "v1", result.MatchedKey)

	// nothing is transferred or extracted
	entries, err := os.ReadDir(restoreDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIdempotentSave(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	baseDir := makeWorkTree(t)

	firstResult, err := svc.Save([]string{"dist"}, "v1", SaveOptions{BaseDir: baseDir})
	require.NoError(t, err)
	assert.Equal(t, SaveOutcomeSaved, firstResult.Outcome)

	secondResult, err := svc.Save([]string{"dist"}, "v1", SaveOptions{BaseDir: baseDir})
	require.NoError(t, err)
	assert.Equal(t, SaveOutcomeSaved, secondResult.Outcome)
	assert.NotEqual(t, firstResult.SavedID, secondResult.SavedID)

	result, err := svc.Restore([]string{"dist"}, "v1", nil, RestoreOptions{BaseDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, RestoreOutcomeHit, result.Outcome)
}

func TestUnavailableScope(t *testing.T) {
	svc := newTestService(t, "")
	assert.False(t, svc.Available())

	baseDir := makeWorkTree(t)

	saveResult, err := svc.Save([]string{"dist"}, "v1", SaveOptions{BaseDir: baseDir})
	require.NoError(t, err)
	assert.Equal(t, SaveOutcomeSkipped, saveResult.Outcome)
	assert.Empty(t, saveResult.SavedID)

	restoreResult, err := svc.Restore([]string{"dist"}, "v1", nil, RestoreOptions{BaseDir: baseDir})
	require.NoError(t, err)
	assert.Equal(t, RestoreOutcomeMiss, restoreResult.Outcome)

	// no work dirs are created when caching is disabled
	assert.False(t, utils.PathExists(svc.Config.TempRootPath))
}

func TestValidationBeforeStorage(t *testing.T) {
	scopeRoot := t.TempDir()
	svc := newTestService(t, scopeRoot)
	baseDir := makeWorkTree(t)

	longKey := strings.Repeat("k", commons.KeyLengthMax+1)

	_, err := svc.Restore([]string{"dist"}, longKey, nil, RestoreOptions{BaseDir: baseDir})
	assert.True(t, commons.IsValidationError(err))

	_, err = svc.Restore([]string{"dist"}, "v1", []string{"bad,key"}, RestoreOptions{BaseDir: baseDir})
	assert.True(t, commons.IsValidationError(err))

	_, err = svc.Restore([]string{}, "v1", nil, RestoreOptions{BaseDir: baseDir})
	assert.True(t, commons.IsValidationError(err))

	manyKeys := make([]string, commons.RestoreKeysMax)
	for i := range manyKeys {
		manyKeys[i] = "k"
	}
	_, err = svc.Restore([]string{"dist"}, "v1", manyKeys, RestoreOptions{BaseDir: baseDir})
	assert.True(t, commons.IsValidationError(err))

	_, err = svc.Save([]string{"dist"}, longKey, SaveOptions{BaseDir: baseDir})
	assert.True(t, commons.IsValidationError(err))

	_, err = svc.Save([]string{}, "v1", SaveOptions{BaseDir: baseDir})
	assert.True(t, commons.IsValidationError(err))

	// no storage access happened
	entries, err := os.ReadDir(scopeRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.False(t, utils.PathExists(svc.Config.TempRootPath))
}

func TestSaveNothingToCache(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	baseDir := t.TempDir()

	_, err := svc.Save([]string{"no_such_dir"}, "v1", SaveOptions{BaseDir: baseDir})
	assert.Error(t, err)
	assert.True(t, commons.IsPathResolutionError(err))
	assert.False(t, commons.IsValidationError(err))
}

func TestSaveCapacityLimit(t *testing.T) {
	scopeRoot := t.TempDir()

	config := newTestConfig(t, scopeRoot)
	config.ArchiveSizeMax = 1

	svc, err := NewCacheService(config)
	require.NoError(t, err)
	t.Cleanup(svc.Release)

	baseDir := makeWorkTree(t)

	_, err = svc.Save([]string{"dist"}, "v1", SaveOptions{BaseDir: baseDir})
	assert.True(t, commons.IsCapacityError(err))

	var capacityErr *commons.CapacityError
	require.ErrorAs(t, err, &capacityErr)
	assert.Greater(t, capacityErr.ArchiveSize, int64(1))
	assert.Equal(t, int64(1), capacityErr.ArchiveSizeMax)

	// the store is not written
	assert.False(t, svc.Locator.Exists(svc.Locator.Locate("v1")))
}

func TestRestoreDegradedOnCorruptEntry(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	baseDir := makeWorkTree(t)

	_, err := svc.Save([]string{"dist"}, "v1", SaveOptions{BaseDir: baseDir})
	require.NoError(t, err)

	// clobber the stored blob - a corrupted entry degrades to a cold run,
	// it never aborts the caller
	address := svc.Locator.Locate("v1")
	require.NoError(t, os.WriteFile(address, []byte("not an archive"), 0644))

	restoreDir := t.TempDir()
	result, err := svc.Restore([]string{"dist"}, "v1", nil, RestoreOptions{BaseDir: restoreDir})
	require.NoError(t, err)
	assert.Equal(t, RestoreOutcomeDegraded, result.Outcome)

	entries, err := os.ReadDir(svc.Config.TempRootPath)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTempArchiveCleanup(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	baseDir := makeWorkTree(t)

	_, err := svc.Save([]string{"dist"}, "v1", SaveOptions{BaseDir: baseDir})
	require.NoError(t, err)

	_, err = svc.Restore([]string{"dist"}, "v1", nil, RestoreOptions{BaseDir: t.TempDir()})
	require.NoError(t, err)

	// temp archives never outlive the operation
	entries, err := os.ReadDir(svc.Config.TempRootPath)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
